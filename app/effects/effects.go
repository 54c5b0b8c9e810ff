// Package effects holds the single switch deciding whether a run may touch
// the outside world (watermark file, output directory, downloader, history).
package effects

type Mode int

const (
	Live Mode = iota
	Dry
)

func FromDryRun(dryRun bool) Mode {
	if dryRun {
		return Dry
	}
	return Live
}

func (m Mode) Enabled() bool {
	return m == Live
}

func (m Mode) String() string {
	if m == Dry {
		return "dry"
	}
	return "live"
}

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/feed-dispatch/app/database"
	"github.com/lysyi3m/feed-dispatch/app/dispatch"
	"github.com/lysyi3m/feed-dispatch/app/downloader"
	"github.com/lysyi3m/feed-dispatch/app/effects"
	"github.com/lysyi3m/feed-dispatch/app/feed"
	"github.com/lysyi3m/feed-dispatch/app/metrics"
	"github.com/lysyi3m/feed-dispatch/app/watermark"
)

type entry struct {
	title     string
	link      string
	published string
}

func atomFeed(author string, entries ...entry) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>` + author + `</title>
  <author><name>` + author + `</name></author>
`)
	for _, e := range entries {
		fmt.Fprintf(&b, `  <entry>
    <title>%s</title>
    <link rel="alternate" href="%s"/>
    <published>%s</published>
  </entry>
`, e.title, e.link, e.published)
	}
	b.WriteString("</feed>\n")
	return b.String()
}

type reporter struct {
	buf bytes.Buffer
}

func (r *reporter) Line(format string, args ...any) {
	fmt.Fprintf(&r.buf, format+"\n", args...)
}

func (r *reporter) Dump(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	r.buf.Write(append(data, '\n'))
	return nil
}

type fixture struct {
	t             *testing.T
	dir           string
	server        *httptest.Server
	feeds         map[string]string
	subscriptions string
	watermarkPath string
	outputBase    string
	calls         string
	downloader    string
	reporter      *reporter
	history       *database.HistoryRepository
	metricsFile   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:        t,
		dir:      t.TempDir(),
		feeds:    make(map[string]string),
		reporter: &reporter{},
	}

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := f.feeds[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(f.server.Close)

	f.subscriptions = filepath.Join(f.dir, "subscriptions.yml")
	f.watermarkPath = filepath.Join(f.dir, "lastRun")
	f.outputBase = filepath.Join(f.dir, "videos")
	f.calls = filepath.Join(f.dir, "calls")
	f.metricsFile = filepath.Join(f.dir, "feed_dispatch.prom")

	f.downloader = filepath.Join(f.dir, "fake-dl")
	script := `#!/bin/sh
for last; do :; done
echo "$last" >> ` + f.calls + `
case "$last" in
  *fail*) exit 2 ;;
esac
`
	require.NoError(t, os.WriteFile(f.downloader, []byte(script), 0o755))

	return f
}

func (f *fixture) serve(path, body string) {
	f.feeds[path] = body
}

func (f *fixture) subscribe(names ...string) {
	var b strings.Builder
	b.WriteString("subscriptions:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  - name: %s\n    url: %s/%s\n", name, f.server.URL, name)
	}
	require.NoError(f.t, os.WriteFile(f.subscriptions, []byte(b.String()), 0o644))
}

func (f *fixture) setWatermark(value string) {
	require.NoError(f.t, os.WriteFile(f.watermarkPath, []byte(value+"\n"), 0o644))
}

func (f *fixture) readWatermark() string {
	data, err := os.ReadFile(f.watermarkPath)
	require.NoError(f.t, err)
	return strings.TrimSpace(string(data))
}

func (f *fixture) invocations() []string {
	data, err := os.ReadFile(f.calls)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(f.t, err)
	return strings.Fields(string(data))
}

func (f *fixture) withHistory() {
	db, err := database.Open(filepath.Join(f.dir, "history.db"))
	require.NoError(f.t, err)
	f.t.Cleanup(func() { db.Close() })
	f.history = database.NewHistoryRepository(db)
}

func (f *fixture) run(runDate time.Time, fx effects.Mode, skipDownloaded bool) (*Summary, error) {
	f.t.Helper()
	store := watermark.NewFileStore(f.watermarkPath, fx)

	cfg, err := NewRunConfig(store, runDate, f.outputBase, f.subscriptions, fx)
	if err != nil {
		return nil, err
	}
	cfg.SkipDownloaded = skipDownloaded
	cfg.MetricsFile = f.metricsFile

	invoker := downloader.NewInvoker(f.downloader, fx, f.reporter)
	invoker.Stdin = strings.NewReader("")
	invoker.Stdout = &bytes.Buffer{}
	invoker.Stderr = &bytes.Buffer{}

	deps := Deps{
		Loader:     feed.NewSubscriptionLoader(),
		Fetcher:    feed.NewFetcher(f.server.Client(), feed.NewParser(), "Feed Dispatch/test", 5*time.Second),
		Selector:   feed.NewSelector(),
		Planner:    dispatch.NewPlanner(f.downloader, "", nil, f.reporter),
		Downloader: invoker,
		Watermarks: store,
		Reporter:   f.reporter,
		Metrics:    metrics.NewRecorder(),
	}
	if f.history != nil {
		deps.History = f.history
	}

	return NewRunner(cfg, deps).Run(context.Background())
}

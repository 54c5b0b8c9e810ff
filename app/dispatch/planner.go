package dispatch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lysyi3m/feed-dispatch/app/feed"
	"github.com/lysyi3m/feed-dispatch/app/filename"
)

// Reporter receives the human-readable per-item plan lines.
type Reporter interface {
	Line(format string, args ...any)
}

type Planner struct {
	command   string
	format    string
	extraArgs []string
	reporter  Reporter
}

func NewPlanner(command, format string, extraArgs []string, reporter Reporter) *Planner {
	if format == "" {
		format = DefaultFormat
	}
	return &Planner{
		command:   command,
		format:    format,
		extraArgs: extraArgs,
		reporter:  reporter,
	}
}

// Run assigns 1-based indices in the given order and builds the downloader
// invocation for each item. items must already be sorted.
func (p *Planner) Run(items []feed.Item, outputDir string) []Item {
	width := IndexWidth(len(items))
	plan := make([]Item, 0, len(items))

	for i, source := range items {
		index := i + 1
		padded := PadIndex(index, width)
		path := DisplayPath(outputDir, padded, source.AuthorName, source.Title)

		args := make([]string, 0, 5+len(p.extraArgs))
		args = append(args, "-f", p.format, "-o", path)
		args = append(args, p.extraArgs...)
		args = append(args, source.SourceURL)

		item := Item{
			Index:       index,
			PaddedIndex: padded,
			DisplayPath: path,
			SourceURL:   source.SourceURL,
			Args:        args,
			Source:      source,
		}
		plan = append(plan, item)
		p.report(item)
	}

	slog.Debug("Dispatch plan built", "items", len(plan), "output_dir", outputDir)
	return plan
}

func (p *Planner) report(item Item) {
	if p.reporter == nil {
		return
	}
	p.reporter.Line("")
	p.reporter.Line("------------ Item %s ------------", item.PaddedIndex)
	p.reporter.Line("\tAuthor : %s", item.Source.AuthorName)
	p.reporter.Line("\tTitle  : %s", item.Source.Title)
	p.reporter.Line("\tDate   : %s", item.Source.PublishedAt.UTC().Format("2006-01-02 15:04:05"))
	p.reporter.Line("\tCommand: %s", CommandLine(p.command, item.Args))
}

// IndexWidth is the zero-padded width for a plan of n items: at least
// MinIndexWidth, growing with the digit count of n.
func IndexWidth(n int) int {
	return max(MinIndexWidth, len(strconv.Itoa(n)))
}

func PadIndex(index, width int) string {
	return fmt.Sprintf("%0*d", width, index)
}

// DisplayPath is the downloader output template for one item.
func DisplayPath(outputDir, paddedIndex, author, title string) string {
	name := fmt.Sprintf("%s - %s - %s.%s",
		paddedIndex,
		filename.Sanitize(author),
		filename.Sanitize(title),
		ExtensionPlaceholder)
	return filepath.Join(outputDir, name)
}

// CommandLine renders an invocation for logs, quoting arguments with spaces
// or shell metacharacters.
func CommandLine(command string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, command)
	for _, arg := range args {
		if arg == "" || strings.ContainsAny(arg, " \t[]()<>|&;*?$'\"") {
			arg = strconv.Quote(arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

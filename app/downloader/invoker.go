package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/lysyi3m/feed-dispatch/app/dispatch"
	"github.com/lysyi3m/feed-dispatch/app/effects"
)

const DefaultCommand = "youtube-dl"

type Status string

const (
	StatusSucceeded    Status = "succeeded"
	StatusFailed       Status = "failed"
	StatusLaunchFailed Status = "launch_failed"
	StatusSkipped      Status = "skipped"
)

type Outcome struct {
	Item     dispatch.Item
	Status   Status
	ExitCode int
	Duration time.Duration
	Err      error
}

func (o Outcome) Failed() bool {
	return o.Status == StatusFailed || o.Status == StatusLaunchFailed
}

// DownloadFailed reports a downloader that started but exited non-zero.
type DownloadFailed struct {
	Item     dispatch.Item
	ExitCode int
	Err      error
}

func (e *DownloadFailed) Error() string {
	return fmt.Sprintf("download %s (%s) exited with code %d", e.Item.PaddedIndex, e.Item.SourceURL, e.ExitCode)
}

func (e *DownloadFailed) Unwrap() error {
	return e.Err
}

type Reporter interface {
	Line(format string, args ...any)
}

type Invoker struct {
	command  string
	fx       effects.Mode
	reporter Reporter

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewInvoker runs command with the process's own stdio. Tests may replace
// Stdin, Stdout and Stderr before the first Run.
func NewInvoker(command string, fx effects.Mode, reporter Reporter) *Invoker {
	if command == "" {
		command = DefaultCommand
	}
	return &Invoker{
		command:  command,
		fx:       fx,
		reporter: reporter,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
}

func (i *Invoker) Command() string {
	return i.command
}

// RunAll invokes the downloader once per item, strictly in plan order. A
// failed item does not stop the queue; a cancelled context does.
func (i *Invoker) RunAll(ctx context.Context, items []dispatch.Item) []Outcome {
	outcomes := make([]Outcome, 0, len(items))
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		outcomes = append(outcomes, i.Run(ctx, item))
	}
	return outcomes
}

func (i *Invoker) Run(ctx context.Context, item dispatch.Item) Outcome {
	if !i.fx.Enabled() {
		i.line("[dry-run] %s", dispatch.CommandLine(i.command, item.Args))
		return Outcome{Item: item, Status: StatusSkipped}
	}

	slog.Debug("Starting downloader", "index", item.PaddedIndex, "cmd", i.command, "args", item.Args)

	c := exec.CommandContext(ctx, i.command, item.Args...)
	c.Stdin = i.Stdin
	c.Stdout = i.Stdout
	c.Stderr = i.Stderr

	started := time.Now()
	err := c.Run()
	outcome := Outcome{Item: item, Duration: time.Since(started)}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		outcome.Status = StatusSucceeded
		i.line("Item %s downloaded in %s", item.PaddedIndex, outcome.Duration.Round(time.Millisecond))
	case errors.As(err, &exitErr):
		outcome.Status = StatusFailed
		outcome.ExitCode = exitErr.ExitCode()
		outcome.Err = &DownloadFailed{Item: item, ExitCode: outcome.ExitCode, Err: err}
		slog.Error("Download failed", "index", item.PaddedIndex, "url", item.SourceURL, "exit_code", outcome.ExitCode)
	default:
		outcome.Status = StatusLaunchFailed
		outcome.ExitCode = -1
		outcome.Err = fmt.Errorf("failed to start %s: %w", i.command, err)
		slog.Error("Downloader could not be started", "index", item.PaddedIndex, "cmd", i.command, "error", err)
	}

	return outcome
}

func (i *Invoker) line(format string, args ...any) {
	if i.reporter != nil {
		i.reporter.Line(format, args...)
	}
}

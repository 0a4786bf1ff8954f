package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"

	"github.com/utkarsh5026/apptask/runner"
)

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
)

type taskResult struct {
	label    string
	id       string
	attempts int
	err      error
}

// tracker counts attempts per task label and advances the progress bar as
// tasks end. Hooks run on task goroutines.
type tracker struct {
	mu     sync.Mutex
	counts map[string]int
	bar    *progressbar.ProgressBar
	out    io.Writer
	plain  bool
}

func newTracker(plain bool, out io.Writer) *tracker {
	return &tracker{counts: make(map[string]int), out: out, plain: plain}
}

func (t *tracker) start(total int) {
	if t.plain {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Supervising tasks"),
		progressbar.OptionSetWriter(t.out),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionEnableColorCodes(true),
	)
}

func (t *tracker) attemptStarted(label string, _ int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[label]++
}

func (t *tracker) taskEnded(label string, _ error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bar != nil {
		t.bar.Describe(fmt.Sprintf("Finished: %s", label))
		_ = t.bar.Add(1)
	}
}

func (t *tracker) attempts(label string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[label]
}

func (t *tracker) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bar != nil {
		_ = t.bar.Finish()
		_, _ = fmt.Fprintln(t.out)
	}
}

func outcome(err error) (string, *color.Color) {
	var pe *runner.PanicError
	switch {
	case err == nil:
		return "finished", green
	case errors.As(err, &pe):
		return "panicked: " + pe.Reason(), red
	case errors.Is(err, context.Canceled):
		return "cancelled", yellow
	default:
		return err.Error(), yellow
	}
}

func printSummary(results []taskResult, plain bool) {
	if plain {
		color.NoColor = true
	}

	fmt.Println()
	_, _ = bold.Println("Task summary")
	fmt.Println()

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Task", "Run ID", "Attempts", "Result")

	for _, r := range results {
		text, c := outcome(r.err)
		_ = table.Append(
			r.label,
			r.id[:8],
			fmt.Sprintf("%d", r.attempts),
			c.Sprint(text),
		)
	}

	_ = table.Render()
}

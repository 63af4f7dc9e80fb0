package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/insightify/insightify-cli/internal/events"
	"github.com/insightify/insightify-cli/internal/job"
	"github.com/insightify/insightify-cli/internal/scan"
)

// renderer turns pipeline events into console output. Upload events
// arrive from multiple goroutines, so printing is serialized.
type renderer struct {
	mu sync.Mutex

	green  func(a ...interface{}) string
	cyan   func(a ...interface{}) string
	yellow func(a ...interface{}) string
	red    func(a ...interface{}) string
	gray   func(a ...interface{}) string
}

func newRenderer() *renderer {
	return &renderer{
		green:  color.New(color.FgGreen).SprintFunc(),
		cyan:   color.New(color.FgCyan).SprintFunc(),
		yellow: color.New(color.FgYellow).SprintFunc(),
		red:    color.New(color.FgRed).SprintFunc(),
		gray:   color.New(color.FgHiBlack).SprintFunc(),
	}
}

// Publish implements events.Sink.
func (r *renderer) Publish(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e.Type {
	case events.TypeFileClassified:
		fmt.Printf("%s %s %s\n", r.gray("found"), e.Path, r.cyan(e.Role))
	case events.TypeUploadSucceeded:
		fmt.Printf("%s %s\n", r.green("✓"), e.Path)
	case events.TypeUploadTimedOut:
		fmt.Printf("%s %s %s\n", r.yellow("⧗"), e.Path, r.yellow("timed out"))
	case events.TypeUploadFailed:
		fmt.Printf("%s %s %s\n", r.red("✗"), e.Path, r.gray(e.Message))
	case events.TypePhaseChanged:
		fmt.Printf("%s %s\n", r.gray("phase"), e.Phase)
	}
}

// printWhatIf lists the files that would be uploaded, without touching
// the network.
func (r *renderer) printWhatIf(files []scan.FileRecord) {
	fmt.Printf("\n%d file(s) would be analyzed:\n", len(files))
	for _, f := range files {
		fmt.Printf("  %s  %s\n", r.cyan(fmt.Sprintf("%-10s", f.Role)), f.RelativePath)
	}
}

func (r *renderer) printSummary(s *job.Summary) {
	fmt.Printf("\nAnalysis complete in %s\n", s.Elapsed.Round(100*time.Millisecond))
	fmt.Printf("  %s %d/%d files analyzed\n", r.green("✓"), s.Completed, s.TotalFiles)

	if len(s.TimedOut) > 0 {
		fmt.Printf("  %s %d timed out:\n", r.yellow("⧗"), len(s.TimedOut))
		for _, p := range s.TimedOut {
			fmt.Printf("      %s\n", p)
		}
	}
	if len(s.Failed) > 0 {
		fmt.Printf("  %s %d failed:\n", r.red("✗"), len(s.Failed))
		for _, f := range s.Failed {
			fmt.Printf("      %s %s\n", f.Path, r.gray(f.Message))
		}
	}

	fmt.Printf("\nReports:\n")
	fmt.Printf("  Report: %s\n", r.cyan(s.Links.ReportURL))
	fmt.Printf("  PDF:    %s\n", r.cyan(s.Links.PDFURL))
	fmt.Printf("  Prompt: %s\n", r.cyan(s.Links.LLMPromptURL))
}

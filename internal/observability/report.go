// Package observability prints the human-facing console report of a pipeline run.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-autopilot/internal/types"
)

// boxWidth is the width of every printed box
const boxWidth = 70

// Printer writes console reports.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints title and content framed in box-drawing characters.
//
//nolint:errcheck // console output; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	if content != "" {
		fmt.Fprintf(p.out, "├%s┤\n", border)
		for _, line := range strings.Split(content, "\n") {
			fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
		}
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens s to n runes, marking the cut with "...".
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// RunInfo is what the banner shows before a run starts.
type RunInfo struct {
	RunID      string
	Mode       types.Mode
	TemplateID string
	ResumeName string
	JDSource   string
}

// PrintBanner announces a run.
func (p *Printer) PrintBanner(info RunInfo) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Mode:         %s\n", info.Mode.DisplayName())
	fmt.Fprintf(&sb, "Template:     %s\n", info.TemplateID)
	fmt.Fprintf(&sb, "Resume Name:  %s", info.ResumeName)
	if info.JDSource != "" {
		fmt.Fprintf(&sb, "\nJob desc.:    %s", info.JDSource)
	}
	if info.RunID != "" {
		fmt.Fprintf(&sb, "\nRun ID:       %s", info.RunID)
	}
	p.printBox("RESUME AUTOMATION PIPELINE", sb.String())
}

// PrintOutcome reports how a run ended.
func (p *Printer) PrintOutcome(outcome *types.Outcome) {
	if outcome == nil {
		return
	}

	if outcome.Success {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Download: %s", outcome.PDFURL)
		if outcome.Score != nil {
			fmt.Fprintf(&sb, "\nATS Score: %g/100", *outcome.Score)
		}
		p.printBox("SUCCESS! Your resume is ready!", sb.String())
		return
	}

	p.printBox("FAILED! Resume generation unsuccessful", "Error: "+outcome.Error)
}

// PrintInterrupted reports a run cancelled by the user.
func (p *Printer) PrintInterrupted() {
	p.printBox("Pipeline interrupted by user", "")
}

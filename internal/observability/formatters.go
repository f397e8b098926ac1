// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/marcus/resume-tailor/internal/extraction"
	"github.com/marcus/resume-tailor/internal/latex"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// previewLen is how much of a section body to show
	previewLen = 50
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSections outputs a summary of the resume sections found during parsing.
func (p *Printer) PrintSections(sections extraction.Sections) {
	var sb strings.Builder

	entries := []struct {
		label string
		body  string
	}{
		{"Summary", sections.Summary},
		{"Education", sections.Education},
		{"Work Experience", sections.WorkExperience},
		{"Projects", sections.Projects},
		{"Skills", sections.Skills},
		{"Additional", sections.Additional},
		{"Activities", sections.Activities},
	}

	found := 0
	for _, entry := range entries {
		if entry.body == "" {
			continue
		}
		found++
		preview := strings.ReplaceAll(entry.body, "\n", " ")
		if len(preview) > previewLen {
			preview = preview[:previewLen-3] + "..."
		}
		sb.WriteString(fmt.Sprintf("%-16s %s\n", entry.label+":", preview))
	}

	if found == 0 {
		sb.WriteString("No recognizable sections found.\n")
	}

	p.printBox("RESUME SECTIONS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCompileAttempts outputs the compile strategy ladder and how each
// attempt fared.
func (p *Printer) PrintCompileAttempts(attempts []latex.Attempt) {
	if len(attempts) == 0 {
		return
	}

	var sb strings.Builder
	for i, attempt := range attempts {
		status := "ok"
		if attempt.Err != nil {
			status = "failed"
		}
		sb.WriteString(fmt.Sprintf("%d. %-14s %s\n", i+1, attempt.Strategy, status))
		if attempt.Command != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", attempt.Command))
		}
		if i < len(attempts)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("COMPILE ATTEMPTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintArtifacts outputs the final artifact paths for a completed run.
func (p *Printer) PrintArtifacts(draftTex, finalTex, pdf string, blankPageRemoved bool) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Draft TeX: %s\n", draftTex))
	sb.WriteString(fmt.Sprintf("Final TeX: %s\n", finalTex))
	sb.WriteString(fmt.Sprintf("PDF:       %s\n", pdf))
	if blankPageRemoved {
		sb.WriteString("Removed a blank first page from the compiled PDF.")
	} else {
		sb.WriteString("First page had content; PDF copied unchanged.")
	}

	p.printBox("RUN ARTIFACTS", sb.String())
}

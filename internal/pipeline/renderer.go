package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/veridoc/veridoc/internal/model"
)

// Renderer writes decision reports to files and terminal output
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.DecisionReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// RenderMarkdown writes a human-readable report
func (r *Renderer) RenderMarkdown(report *model.DecisionReport, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Verification Report: %s\n\n", report.ApplicationID)
	fmt.Fprintf(&b, "**Decision:** %s\n\n", report.FinalDecision)
	fmt.Fprintf(&b, "**Fraud flag:** %v\n\n", report.OverallFraudFlag)
	fmt.Fprintf(&b, "**Identity score:** %.2f\n\n", report.IdentityScore)
	fmt.Fprintf(&b, "**Income consistent:** %v\n\n", report.IncomeMatch)

	if report.Authenticity != nil {
		a := report.Authenticity
		fmt.Fprintf(&b, "## Visual Authenticity\n\n")
		fmt.Fprintf(&b, "- Score: %.3f (passed: %v)\n", a.Score, a.Passed)
		fmt.Fprintf(&b, "- Matched side: %s, neighbors considered: %d\n", a.MatchedSide, a.NeighborsConsidered)
		if a.TopMatch != "" {
			fmt.Fprintf(&b, "- Closest reference: %s\n", a.TopMatch)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Findings\n\n")
	if len(report.Issues) == 0 {
		b.WriteString("No issues found.\n\n")
	} else {
		for _, issue := range report.Issues {
			fmt.Fprintf(&b, "- **[%s]** %s (%s)\n", issue.Severity, issue.Detail, issue.Kind)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Summary\n\n%s\n", report.Summary)

	if report.Narrative != nil && report.Narrative.Text != "" {
		fmt.Fprintf(&b, "\n## Narrative (%s/%s)\n\n%s\n",
			report.Narrative.Provider, report.Narrative.Model, report.Narrative.Text)
	}

	if r.includeFooter {
		fmt.Fprintf(&b, "\n---\nGenerated %s by veridoc\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// RenderSummary returns a terminal one-screen digest
func (r *Renderer) RenderSummary(report *model.DecisionReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Application: %s\n", report.ApplicationID)
	fmt.Fprintf(&b, "Decision:    %s (fraud flag: %v)\n", report.FinalDecision, report.OverallFraudFlag)
	fmt.Fprintf(&b, "Identity:    %.2f\n", report.IdentityScore)
	fmt.Fprintf(&b, "Issues:      %d\n", len(report.Issues))
	for _, issue := range report.Issues {
		fmt.Fprintf(&b, "  [%s] %s\n", issue.Severity, issue.Detail)
	}
	return b.String()
}

// RenderReport writes the report to the requested outputs
func (p *Pipeline) RenderReport(report *model.DecisionReport, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}
	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}
	return nil
}

// Summary renders the terminal digest for a report
func (p *Pipeline) Summary(report *model.DecisionReport) string {
	return p.renderer.RenderSummary(report)
}

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/veridoc/veridoc/internal/model"
)

const narrativeSystemPrompt = "You are a senior forensic underwriter explaining a completed " +
	"document verification decision to a loan officer. The verdict is already final; " +
	"you explain it, you never change it."

// Narrator wraps a provider for decision-narrative generation. The
// narrative is an enrichment step: it runs after synthesis and the
// numeric/categorical verdict is never derived from it.
type Narrator struct {
	provider Provider
	config   Config
}

// NewNarrator creates a narrator, or nil when no provider is configured
func NewNarrator(config Config) (*Narrator, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, nil
	}
	return &Narrator{provider: provider, config: config}, nil
}

// IsEnabled reports whether narrative generation can run
func (n *Narrator) IsEnabled() bool {
	return n != nil && n.provider != nil
}

// Generate produces the narrative for a finished report
func (n *Narrator) Generate(ctx context.Context, report *model.DecisionReport) (*model.Narrative, error) {
	resp, err := n.provider.Narrate(ctx, NarrateRequest{
		System:    narrativeSystemPrompt,
		Prompt:    BuildNarrativePrompt(report),
		Model:     n.config.Model,
		MaxTokens: 800,
	})
	if err != nil {
		return nil, fmt.Errorf("generate narrative: %w", err)
	}

	return &model.Narrative{
		Provider: n.provider.Name(),
		Model:    resp.Model,
		Text:     resp.Text,
	}, nil
}

// BuildNarrativePrompt constructs the explanation prompt from the
// report's findings
func BuildNarrativePrompt(report *model.DecisionReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "### FINAL VERDICT (do not change it)\n")
	fmt.Fprintf(&b, "- Decision: %s\n", report.FinalDecision)
	fmt.Fprintf(&b, "- Fraud flag: %v\n", report.OverallFraudFlag)
	fmt.Fprintf(&b, "- Identity authenticity score: %.2f\n", report.IdentityScore)

	fmt.Fprintf(&b, "\n### FINDINGS\n")
	if len(report.Issues) == 0 {
		b.WriteString("No issues. All documents consistent and authentic.\n")
	}
	for _, issue := range report.Issues {
		docs := make([]string, 0, len(issue.SourceDocuments))
		for _, d := range issue.SourceDocuments {
			docs = append(docs, d.DisplayName())
		}
		fmt.Fprintf(&b, "- [%s] %s (%s): %s\n", strings.ToUpper(string(issue.Severity)), issue.Kind, strings.Join(docs, ", "), issue.Detail)
	}

	b.WriteString(`
### TASK
Write 3-5 sentences explaining this verdict to a loan officer.
Refer only to the findings above. Do not invent documents, numbers, or
checks that are not listed. Do not suggest a different verdict.`)

	return b.String()
}

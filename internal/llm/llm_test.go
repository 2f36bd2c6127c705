package llm

import (
	"strings"
	"testing"

	"github.com/veridoc/veridoc/internal/model"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced with prose", "Here you go:\n```json\n{\"a\": 1}\n```\nDone.", `{"a": 1}`},
		{"bare", `{"a": 1}`, `{"a": 1}`},
		{"bare with whitespace", "  {\"a\": 1}\n", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanJSON(tt.input); got != tt.want {
				t.Errorf("CleanJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	if _, err := NewProvider(Config{Provider: "gemini"}); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(Config{Provider: ""})
	if err != nil {
		t.Fatalf("Expected no error for empty provider, got %v", err)
	}
	if p != nil {
		t.Error("Expected nil provider when disabled")
	}
}

func TestNewNarrator_Disabled(t *testing.T) {
	n, err := NewNarrator(Config{Provider: ""})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if n.IsEnabled() {
		t.Error("Expected narrator to be disabled")
	}
}

func TestBuildNarrativePrompt_IncludesFindings(t *testing.T) {
	report := &model.DecisionReport{
		FinalDecision:    model.DecisionRejected,
		OverallFraudFlag: true,
		IdentityScore:    0.64,
		Issues: []model.Issue{
			{
				Kind:            model.IssueLowAuthenticity,
				Severity:        model.SeverityCritical,
				SourceDocuments: []model.DocumentType{model.DocTypeNationalID},
				Detail:          "authenticity score 0.64 below threshold 0.80",
			},
		},
	}

	prompt := BuildNarrativePrompt(report)

	for _, want := range []string{"Rejected", "CRITICAL", "National ID Card", "0.64"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}
	if !strings.Contains(prompt, "do not change it") {
		t.Error("Expected prompt to pin the verdict")
	}
}

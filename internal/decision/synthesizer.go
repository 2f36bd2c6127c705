package decision

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veridoc/veridoc/internal/model"
)

// Synthesizer folds the issue list and the authenticity result into the
// terminal verdict. The mapping is a fixed, order-sensitive table; the
// optional narrative generated elsewhere explains the verdict but never
// changes it.
type Synthesizer struct {
	newID func() string
	now   func() time.Time
}

func NewSynthesizer() *Synthesizer {
	return &Synthesizer{newID: uuid.NewString, now: time.Now}
}

// Synthesize builds the report. An empty applicationID gets a fresh
// one; re-evaluating with the same id yields a new report instance
// carrying that id.
func (s *Synthesizer) Synthesize(applicationID string, issues []model.Issue, authenticity *model.AuthenticityResult) *model.DecisionReport {
	if applicationID == "" {
		applicationID = s.newID()
	}

	var criticals, majors, minors int
	incomeMatch := true
	for _, issue := range issues {
		switch issue.Severity {
		case model.SeverityCritical:
			criticals++
		case model.SeverityMajor:
			majors++
		default:
			minors++
		}
		if issue.Kind == model.IssueIncomeInconsistency {
			incomeMatch = false
		}
	}

	verdict := model.DecisionVerified
	switch {
	case criticals > 0:
		verdict = model.DecisionRejected
	case majors > 0:
		verdict = model.DecisionFlagged
	}

	authFailed := authenticity != nil && !authenticity.Passed
	var identityScore float64
	if authenticity != nil {
		identityScore = authenticity.Score
	}

	return &model.DecisionReport{
		ApplicationID:    applicationID,
		FinalDecision:    verdict,
		OverallFraudFlag: criticals > 0 || authFailed,
		IdentityScore:    identityScore,
		IncomeMatch:      incomeMatch,
		Issues:           issues,
		Authenticity:     authenticity,
		Summary:          buildSummary(verdict, identityScore, criticals, majors, minors, issues),
		GeneratedAt:      s.now().UTC(),
	}
}

// buildSummary renders a deterministic one-paragraph digest of the
// verdict, the issue counts, and the leading findings.
func buildSummary(verdict model.Decision, identityScore float64, criticals, majors, minors int, issues []model.Issue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: identity score %.2f", verdict, identityScore)
	if len(issues) == 0 {
		b.WriteString(", no issues found.")
		return b.String()
	}
	fmt.Fprintf(&b, "; %d critical, %d major, %d minor issue(s).", criticals, majors, minors)
	for i, issue := range issues {
		if i >= 3 {
			fmt.Fprintf(&b, " (+%d more)", len(issues)-i)
			break
		}
		fmt.Fprintf(&b, " [%s] %s.", issue.Severity, issue.Detail)
	}
	return b.String()
}

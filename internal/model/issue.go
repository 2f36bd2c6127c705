package model

// IssueKind classifies a discrete cross-validation finding
type IssueKind string

const (
	IssueNameMismatch        IssueKind = "name_mismatch"
	IssueIncomeInconsistency IssueKind = "income_inconsistency"
	IssueLowAuthenticity     IssueKind = "low_authenticity"
	IssueStaleDocument       IssueKind = "stale_document"
	IssueMissingAnchor       IssueKind = "missing_anchor"
	IssueFieldConflict       IssueKind = "field_conflict"
)

// IssueSeverity indicates how strongly a finding weighs on the verdict
type IssueSeverity string

const (
	SeverityMinor    IssueSeverity = "minor"
	SeverityMajor    IssueSeverity = "major"
	SeverityCritical IssueSeverity = "critical"
)

// Rank maps the severity to an ordinal for sorting, higher is worse
func (s IssueSeverity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityMajor:
		return 2
	case SeverityMinor:
		return 1
	default:
		return 0
	}
}

// Issue is one immutable finding produced by cross-validation. Every
// issue references at least one source document (or the authenticity
// check, marked by the identity document type).
type Issue struct {
	Kind            IssueKind      `json:"kind"`
	Severity        IssueSeverity  `json:"severity"`
	SourceDocuments []DocumentType `json:"source_documents"`
	Detail          string         `json:"detail"`

	// Score carries the measurement behind the finding when one exists:
	// a name similarity, an income deviation, an authenticity score.
	Score float64 `json:"score,omitempty"`
}

package crossval

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/veridoc/veridoc/internal/model"
)

// Engine runs the cross-document checks. It is pure: given identical
// inputs it produces an identical, identically-ordered issue list, and
// it only reads its inputs.
type Engine struct {
	thresholds model.ThresholdConfig
	now        func() time.Time
}

// NewEngine creates an engine with the given thresholds
func NewEngine(thresholds model.ThresholdConfig) *Engine {
	return &Engine{thresholds: thresholds, now: time.Now}
}

// CrossValidate compares the claim records pairwise and anchor-wise and
// folds in the authenticity gate. extractionIssues are findings the
// extractor already produced (page conflicts, failures); they join the
// same ordered list.
//
// When the authenticity check failed and no extraction output exists
// the engine short-circuits: further comparisons would require
// extraction results the pipeline deliberately never paid for. If
// records are present anyway, every comparison still runs.
func (e *Engine) CrossValidate(records []*model.ClaimRecord, authenticity *model.AuthenticityResult, extractionIssues []model.Issue) []model.Issue {
	var issues []model.Issue

	if authenticity != nil && !authenticity.Passed {
		issues = append(issues, model.Issue{
			Kind:            model.IssueLowAuthenticity,
			Severity:        model.SeverityCritical,
			SourceDocuments: []model.DocumentType{model.DocTypeNationalID},
			Detail: fmt.Sprintf("identity document failed visual authenticity check: score %.2f below threshold %.2f",
				authenticity.Score, e.thresholds.Authenticity),
			Score: authenticity.Score,
		})
		if len(records) == 0 {
			return sortIssues(issues)
		}
	}

	ordered := orderRecords(records)
	byType := make(map[model.DocumentType]*model.ClaimRecord, len(ordered))
	for _, r := range ordered {
		byType[r.Document] = r
	}

	issues = append(issues, e.checkNames(ordered, byType)...)
	issues = append(issues, e.checkIncome(byType)...)
	issues = append(issues, e.checkValidity(ordered)...)
	issues = append(issues, e.checkExpiry(byType)...)
	issues = append(issues, extractionIssues...)

	return sortIssues(issues)
}

// checkNames compares the identity name anchor against every other
// record that carries one.
func (e *Engine) checkNames(ordered []*model.ClaimRecord, byType map[model.DocumentType]*model.ClaimRecord) []model.Issue {
	var issues []model.Issue

	identity := byType[model.DocTypeNationalID]
	if identity == nil {
		return []model.Issue{{
			Kind:            model.IssueMissingAnchor,
			Severity:        model.SeverityMajor,
			SourceDocuments: []model.DocumentType{model.DocTypeNationalID},
			Detail:          "identity document absent: no identity anchors to validate against",
		}}
	}

	idName, ok := identity.NameAnchor()
	if !ok {
		return []model.Issue{{
			Kind:            model.IssueMissingAnchor,
			Severity:        model.SeverityMajor,
			SourceDocuments: []model.DocumentType{model.DocTypeNationalID},
			Detail:          "identity document carries no name anchor",
		}}
	}
	idNorm := NormalizeName(idName)

	for _, record := range ordered {
		if record.Document == model.DocTypeNationalID {
			continue
		}
		otherName, ok := record.NameAnchor()
		if !ok {
			continue
		}

		sim := Similarity(idNorm, NormalizeName(otherName))
		if sim >= e.thresholds.NameMatch {
			continue
		}

		severity := model.SeverityMajor
		if sim < e.thresholds.NameCritical {
			severity = model.SeverityCritical
		}
		issues = append(issues, model.Issue{
			Kind:            model.IssueNameMismatch,
			Severity:        severity,
			SourceDocuments: []model.DocumentType{model.DocTypeNationalID, record.Document},
			Detail: fmt.Sprintf("name on %s (%q) does not match identity name %q (similarity %.2f)",
				record.Document.DisplayName(), otherName, idName, sim),
			Score: sim,
		})
	}
	return issues
}

// checkIncome compares the declared monthly income on the salary slip
// against the annualized income on the tax declaration.
func (e *Engine) checkIncome(byType map[model.DocumentType]*model.ClaimRecord) []model.Issue {
	salary := byType[model.DocTypeSalarySlip]
	tax := byType[model.DocTypeTaxDeclaration]
	if salary == nil && tax == nil {
		return nil
	}

	missing := func(doc model.DocumentType, detail string) []model.Issue {
		return []model.Issue{{
			Kind:            model.IssueMissingAnchor,
			Severity:        model.SeverityMinor,
			SourceDocuments: []model.DocumentType{doc},
			Detail:          detail,
		}}
	}

	if salary == nil {
		return missing(model.DocTypeSalarySlip, "salary slip absent: income consistency not verifiable")
	}
	if tax == nil {
		return missing(model.DocTypeTaxDeclaration, "tax declaration absent: income consistency not verifiable")
	}

	monthly, okM := parsePositiveDecimal(salary, "monthly_income")
	if !okM {
		return missing(model.DocTypeSalarySlip, "salary slip carries no usable income anchor")
	}
	annual, okA := parsePositiveDecimal(tax, "annual_taxable_income")
	if !okA {
		return missing(model.DocTypeTaxDeclaration, "tax declaration carries no usable income anchor")
	}

	taxMonthly := annual / 12
	larger := monthly
	if taxMonthly > larger {
		larger = taxMonthly
	}
	deviation := abs(monthly-taxMonthly) / larger
	if deviation <= e.thresholds.IncomeTolerance {
		return nil
	}

	return []model.Issue{{
		Kind:            model.IssueIncomeInconsistency,
		Severity:        model.SeverityMajor,
		SourceDocuments: []model.DocumentType{model.DocTypeSalarySlip, model.DocTypeTaxDeclaration},
		Detail: fmt.Sprintf("declared monthly income %.2f deviates %.0f%% from annualized tax income %.2f (tolerance %.0f%%)",
			monthly, deviation*100, taxMonthly, e.thresholds.IncomeTolerance*100),
		Score: deviation,
	}}
}

// checkValidity surfaces the extractor's self-reported tamper and
// validity assessment per document.
func (e *Engine) checkValidity(ordered []*model.ClaimRecord) []model.Issue {
	var issues []model.Issue
	for _, record := range ordered {
		if record.IsAuthentic && record.IsValid {
			continue
		}

		severity := model.SeverityMajor
		if record.Document == model.DocTypeNationalID {
			severity = model.SeverityCritical
		}
		detail := fmt.Sprintf("%s reported as tampered or invalid by content analysis", record.Document.DisplayName())
		if record.TamperNotes != "" {
			detail += ": " + record.TamperNotes
		}
		issues = append(issues, model.Issue{
			Kind:            model.IssueStaleDocument,
			Severity:        severity,
			SourceDocuments: []model.DocumentType{record.Document},
			Detail:          detail,
		})
	}
	return issues
}

// checkExpiry rejects an identity document whose expiry date has passed
func (e *Engine) checkExpiry(byType map[model.DocumentType]*model.ClaimRecord) []model.Issue {
	identity := byType[model.DocTypeNationalID]
	if identity == nil {
		return nil
	}
	raw, ok := identity.Field("expiry_date")
	if !ok {
		return nil
	}
	expiry, err := time.Parse("2006-01-02", raw)
	if err != nil || !expiry.Before(e.now()) {
		return nil
	}
	return []model.Issue{{
		Kind:            model.IssueStaleDocument,
		Severity:        model.SeverityCritical,
		SourceDocuments: []model.DocumentType{model.DocTypeNationalID},
		Detail:          fmt.Sprintf("identity document expired on %s", raw),
	}}
}

// orderRecords sorts records by document declaration order so that
// issue generation never depends on caller map iteration.
func orderRecords(records []*model.ClaimRecord) []*model.ClaimRecord {
	ordered := make([]*model.ClaimRecord, 0, len(records))
	for _, r := range records {
		if r != nil {
			ordered = append(ordered, r)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Document.Order() < ordered[j].Document.Order()
	})
	return ordered
}

// sortIssues orders by severity descending, then by source document
// declaration order, then kind and detail as total tie-breaks.
func sortIssues(issues []model.Issue) []model.Issue {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if ao, bo := firstSourceOrder(a), firstSourceOrder(b); ao != bo {
			return ao < bo
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Detail < b.Detail
	})
	return issues
}

func firstSourceOrder(issue model.Issue) int {
	if len(issue.SourceDocuments) == 0 {
		return len(model.AllDocumentTypes())
	}
	return issue.SourceDocuments[0].Order()
}

func parsePositiveDecimal(record *model.ClaimRecord, field string) (float64, bool) {
	raw, ok := record.Field(field)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

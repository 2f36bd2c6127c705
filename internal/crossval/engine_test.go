package crossval

import (
	"testing"
	"time"

	"github.com/veridoc/veridoc/internal/model"
)

func testThresholds() model.ThresholdConfig {
	return model.ThresholdConfig{
		Authenticity:    0.80,
		NameMatch:       0.85,
		NameCritical:    0.60,
		IncomeTolerance: 0.25,
	}
}

func fixedEngine() *Engine {
	e := NewEngine(testThresholds())
	e.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	return e
}

func record(doc model.DocumentType, fields map[string]string, anchors map[string]string) *model.ClaimRecord {
	fv := make(map[string]model.FieldValue, len(fields))
	for k, v := range fields {
		fv[k] = model.FieldValue{Value: v, Confidence: 0.9}
	}
	return &model.ClaimRecord{
		Document:    doc,
		Fields:      fv,
		Anchors:     anchors,
		IsAuthentic: true,
		IsValid:     true,
		Confidence:  0.9,
	}
}

func passedAuth() *model.AuthenticityResult {
	return &model.AuthenticityResult{Score: 0.91, Passed: true, MatchedSide: model.SideFront}
}

func consistentRecords() []*model.ClaimRecord {
	identity := record(model.DocTypeNationalID, map[string]string{
		"first_name":  "Mohamed",
		"last_name":   "Ben Ali",
		"id_number":   "12345678",
		"expiry_date": "2030-01-01",
	}, map[string]string{"full_name": "Mohamed Ben Ali"})
	salary := record(model.DocTypeSalarySlip, map[string]string{
		"employee_name":  "Mohamed Ben Ali",
		"monthly_income": "2500.00",
	}, map[string]string{"full_name": "Mohamed Ben Ali"})
	tax := record(model.DocTypeTaxDeclaration, map[string]string{
		"taxpayer_name":         "Mohamed Ben Ali",
		"annual_taxable_income": "30000.00",
	}, map[string]string{"full_name": "Mohamed Ben Ali"})
	return []*model.ClaimRecord{identity, salary, tax}
}

func TestCrossValidateConsistentApplication(t *testing.T) {
	issues := fixedEngine().CrossValidate(consistentRecords(), passedAuth(), nil)
	if len(issues) != 0 {
		t.Fatalf("consistent application: got %d issues, want 0: %+v", len(issues), issues)
	}
}

func TestCrossValidateNameTypoTolerated(t *testing.T) {
	records := consistentRecords()
	records[1].Anchors["full_name"] = "Mohamed Ben Ai"

	issues := fixedEngine().CrossValidate(records, passedAuth(), nil)
	if len(issues) != 0 {
		t.Fatalf("single-rune typo: got %d issues, want 0: %+v", len(issues), issues)
	}
}

func TestCrossValidateNameMismatchCritical(t *testing.T) {
	records := consistentRecords()
	records[1].Anchors["full_name"] = "Fatma Trabelsi"
	records[1].Fields["employee_name"] = model.FieldValue{Value: "Fatma Trabelsi", Confidence: 0.9}

	issues := fixedEngine().CrossValidate(records, passedAuth(), nil)
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1: %+v", len(issues), issues)
	}
	got := issues[0]
	if got.Kind != model.IssueNameMismatch {
		t.Errorf("kind = %s, want %s", got.Kind, model.IssueNameMismatch)
	}
	if got.Severity != model.SeverityCritical {
		t.Errorf("severity = %s, want critical", got.Severity)
	}
	if len(got.SourceDocuments) != 2 || got.SourceDocuments[1] != model.DocTypeSalarySlip {
		t.Errorf("source documents = %v", got.SourceDocuments)
	}
}

func TestCrossValidateShortCircuitOnFailedAuthenticity(t *testing.T) {
	auth := &model.AuthenticityResult{Score: 0.41, Passed: false, MatchedSide: model.SideFront}

	issues := fixedEngine().CrossValidate(nil, auth, nil)
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1: %+v", len(issues), issues)
	}
	if issues[0].Kind != model.IssueLowAuthenticity || issues[0].Severity != model.SeverityCritical {
		t.Errorf("issue = %+v, want critical low_authenticity", issues[0])
	}
	if issues[0].Score != 0.41 {
		t.Errorf("score = %v, want 0.41", issues[0].Score)
	}
}

func TestCrossValidateFailedAuthenticityWithRecordsStillCompares(t *testing.T) {
	auth := &model.AuthenticityResult{Score: 0.70, Passed: false}
	records := consistentRecords()
	records[2].Fields["annual_taxable_income"] = model.FieldValue{Value: "60000.00", Confidence: 0.9}

	issues := fixedEngine().CrossValidate(records, auth, nil)
	if len(issues) != 2 {
		t.Fatalf("got %d issues, want 2: %+v", len(issues), issues)
	}
	if issues[0].Kind != model.IssueLowAuthenticity {
		t.Errorf("first issue = %s, want low_authenticity", issues[0].Kind)
	}
	if issues[1].Kind != model.IssueIncomeInconsistency {
		t.Errorf("second issue = %s, want income_inconsistency", issues[1].Kind)
	}
}

func TestCrossValidateIncomeDeviation(t *testing.T) {
	// 2500 monthly vs 36000/12 = 3000: deviation 1/6, inside tolerance
	records := consistentRecords()
	records[2].Fields["annual_taxable_income"] = model.FieldValue{Value: "36000.00", Confidence: 0.9}
	if issues := fixedEngine().CrossValidate(records, passedAuth(), nil); len(issues) != 0 {
		t.Fatalf("deviation inside tolerance: got %+v, want none", issues)
	}

	// 2500 monthly vs 60000/12 = 5000: deviation 0.5
	records = consistentRecords()
	records[2].Fields["annual_taxable_income"] = model.FieldValue{Value: "60000.00", Confidence: 0.9}
	issues := fixedEngine().CrossValidate(records, passedAuth(), nil)
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1: %+v", len(issues), issues)
	}
	if issues[0].Kind != model.IssueIncomeInconsistency || issues[0].Severity != model.SeverityMajor {
		t.Errorf("issue = %+v, want major income_inconsistency", issues[0])
	}
	if issues[0].Score != 0.5 {
		t.Errorf("deviation score = %v, want 0.5", issues[0].Score)
	}
}

func TestCrossValidateMissingIncomeSide(t *testing.T) {
	records := consistentRecords()[:2] // identity + salary, no tax declaration

	issues := fixedEngine().CrossValidate(records, passedAuth(), nil)
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1: %+v", len(issues), issues)
	}
	if issues[0].Kind != model.IssueMissingAnchor || issues[0].Severity != model.SeverityMinor {
		t.Errorf("issue = %+v, want minor missing_anchor", issues[0])
	}
}

func TestCrossValidateZeroIncomeIsMissingAnchor(t *testing.T) {
	records := consistentRecords()
	records[1].Fields["monthly_income"] = model.FieldValue{Value: "0", Confidence: 0.9}

	issues := fixedEngine().CrossValidate(records, passedAuth(), nil)
	if len(issues) != 1 || issues[0].Kind != model.IssueMissingAnchor {
		t.Fatalf("got %+v, want one missing_anchor", issues)
	}
}

func TestCrossValidateTamperedTaxDeclaration(t *testing.T) {
	records := consistentRecords()
	records[2].IsValid = false
	records[2].TamperNotes = "font weight differs in totals row"

	issues := fixedEngine().CrossValidate(records, passedAuth(), nil)
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1: %+v", len(issues), issues)
	}
	got := issues[0]
	if got.Kind != model.IssueStaleDocument || got.Severity != model.SeverityMajor {
		t.Errorf("issue = %+v, want major stale_document", got)
	}
}

func TestCrossValidateTamperedIdentityIsCritical(t *testing.T) {
	records := consistentRecords()
	records[0].IsAuthentic = false

	issues := fixedEngine().CrossValidate(records, passedAuth(), nil)
	if len(issues) != 1 || issues[0].Severity != model.SeverityCritical {
		t.Fatalf("got %+v, want one critical stale_document", issues)
	}
}

func TestCrossValidateExpiredIdentity(t *testing.T) {
	records := consistentRecords()
	records[0].Fields["expiry_date"] = model.FieldValue{Value: "2024-03-01", Confidence: 0.9}

	issues := fixedEngine().CrossValidate(records, passedAuth(), nil)
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1: %+v", len(issues), issues)
	}
	if issues[0].Kind != model.IssueStaleDocument || issues[0].Severity != model.SeverityCritical {
		t.Errorf("issue = %+v, want critical stale_document", issues[0])
	}
}

func TestCrossValidateMissingIdentityRecord(t *testing.T) {
	records := consistentRecords()[1:]

	issues := fixedEngine().CrossValidate(records, nil, nil)
	var found bool
	for _, issue := range issues {
		if issue.Kind == model.IssueMissingAnchor && issue.Severity == model.SeverityMajor {
			found = true
		}
	}
	if !found {
		t.Fatalf("got %+v, want a major missing_anchor for the identity document", issues)
	}
}

func TestCrossValidateMergesExtractionIssues(t *testing.T) {
	prior := []model.Issue{{
		Kind:            model.IssueFieldConflict,
		Severity:        model.SeverityMajor,
		SourceDocuments: []model.DocumentType{model.DocTypeNationalID},
		Detail:          "field id_number differs between sides",
	}}

	issues := fixedEngine().CrossValidate(consistentRecords(), passedAuth(), prior)
	if len(issues) != 1 || issues[0].Kind != model.IssueFieldConflict {
		t.Fatalf("got %+v, want the extraction issue passed through", issues)
	}
}

func TestCrossValidateDeterministicOrdering(t *testing.T) {
	build := func(order []int) []model.Issue {
		base := consistentRecords()
		base[1].Anchors["full_name"] = "Fatma Trabelsi"
		base[2].Fields["annual_taxable_income"] = model.FieldValue{Value: "60000.00", Confidence: 0.9}
		base[2].IsValid = false

		shuffled := make([]*model.ClaimRecord, len(base))
		for i, idx := range order {
			shuffled[i] = base[idx]
		}
		return fixedEngine().CrossValidate(shuffled, passedAuth(), nil)
	}

	first := build([]int{0, 1, 2})
	second := build([]int{2, 0, 1})

	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("got %d and %d issues, want 3 each", len(first), len(second))
	}
	for i := range first {
		if first[i].Kind != second[i].Kind || first[i].Detail != second[i].Detail {
			t.Errorf("issue %d differs across input orderings: %+v vs %+v", i, first[i], second[i])
		}
	}
	if first[0].Severity != model.SeverityCritical {
		t.Errorf("critical issue not sorted first: %+v", first[0])
	}
}

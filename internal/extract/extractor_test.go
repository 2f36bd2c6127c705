package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/veridoc/veridoc/internal/llm"
	"github.com/veridoc/veridoc/internal/model"
)

// mockProvider returns canned payloads in call order
type mockProvider struct {
	payloads []string
	err      error
	block    bool
	calls    int
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) ExtractDocument(ctx context.Context, req llm.ExtractRequest) (*llm.ExtractResponse, error) {
	m.calls++
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}
	payload := m.payloads[0]
	if len(m.payloads) > 1 {
		m.payloads = m.payloads[1:]
	}
	return &llm.ExtractResponse{JSON: payload, Model: "mock"}, nil
}

func (m *mockProvider) Narrate(ctx context.Context, req llm.NarrateRequest) (*llm.NarrateResponse, error) {
	return &llm.NarrateResponse{Text: "ok"}, nil
}

func (m *mockProvider) IsAvailable(ctx context.Context) bool { return true }

func salarySample() *model.DocumentSample {
	return &model.DocumentSample{
		Type: model.DocTypeSalarySlip,
		Pages: []model.DocumentPage{
			{Filename: "slip.jpg", Side: model.SideUnknown, MIME: "image/jpeg", Data: []byte("x")},
		},
	}
}

func idSample() *model.DocumentSample {
	return &model.DocumentSample{
		Type: model.DocTypeNationalID,
		Pages: []model.DocumentPage{
			{Filename: "front.jpg", Side: model.SideFront, Data: []byte("f")},
			{Filename: "back.jpg", Side: model.SideBack, Data: []byte("b")},
		},
	}
}

func payload(authentic, valid bool, confidence float64, data, anchors string) string {
	return fmt.Sprintf(`{
		"document_analysis": {"is_authentic": %v, "is_valid": %v, "validation_reasoning": "checked", "document_type_detected": "test"},
		"extracted_data": %s,
		"cross_validation_anchors": %s,
		"confidence_score": %v
	}`, authentic, valid, data, anchors, confidence)
}

func newTestExtractor(p llm.Provider) *Extractor {
	return NewExtractor(p, nil, *model.DefaultConfig())
}

func TestExtract_SalarySlip(t *testing.T) {
	provider := &mockProvider{payloads: []string{
		payload(true, true, 0.95, `{"monthly_income": 2500.5}`, `{"full_name": "Mohamed Ben Ali"}`),
	}}

	record, issues, err := newTestExtractor(provider).Extract(context.Background(), salarySample())
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("Expected no extraction issues, got %d", len(issues))
	}

	income, ok := record.Field("monthly_income")
	if !ok || income != "2500.5" {
		t.Errorf("Expected monthly_income 2500.5, got %q (ok=%v)", income, ok)
	}
	name, ok := record.Anchor("full_name")
	if !ok || name != "Mohamed Ben Ali" {
		t.Errorf("Expected full_name anchor, got %q", name)
	}
	if !record.IsAuthentic || !record.IsValid {
		t.Error("Expected authentic and valid record")
	}
}

func TestExtract_MissingRequiredField(t *testing.T) {
	provider := &mockProvider{payloads: []string{
		payload(true, true, 0.9, `{"monthly_income": null}`, `{"full_name": "Mohamed Ben Ali"}`),
	}}

	_, _, err := newTestExtractor(provider).Extract(context.Background(), salarySample())

	var schemaErr *SchemaValidationError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Expected SchemaValidationError, got %v", err)
	}
	if schemaErr.Field != "monthly_income" {
		t.Errorf("Expected field monthly_income, got %s", schemaErr.Field)
	}
}

func TestExtract_TypeViolationRejected(t *testing.T) {
	provider := &mockProvider{payloads: []string{
		payload(true, true, 0.9, `{"monthly_income": "around two thousand"}`, `{}`),
	}}

	_, _, err := newTestExtractor(provider).Extract(context.Background(), salarySample())

	var schemaErr *SchemaValidationError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Expected SchemaValidationError for non-decimal income, got %v", err)
	}
}

func TestExtract_MalformedJSON(t *testing.T) {
	provider := &mockProvider{payloads: []string{"this is not JSON"}}

	_, _, err := newTestExtractor(provider).Extract(context.Background(), salarySample())

	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("Expected ExtractionError, got %v", err)
	}
}

func TestExtract_Timeout(t *testing.T) {
	provider := &mockProvider{block: true}
	cfg := *model.DefaultConfig()
	cfg.Extraction.Timeout = 10 * time.Millisecond

	_, _, err := NewExtractor(provider, nil, cfg).Extract(context.Background(), salarySample())
	if !IsTimeout(err) {
		t.Fatalf("Expected timeout error, got %v", err)
	}
}

func TestExtract_MergesTwoSides(t *testing.T) {
	provider := &mockProvider{payloads: []string{
		payload(true, true, 0.9, `{"first_name": "Mohamed", "last_name": "Ben Ali", "id_number": "01234567"}`, `{"id_number": "01234567", "full_name": "Mohamed Ben Ali"}`),
		payload(true, true, 0.8, `{"issue_date": "2019-04-01", "expiry_date": "2029-04-01"}`, `{}`),
	}}

	record, issues, err := newTestExtractor(provider).Extract(context.Background(), idSample())
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("Expected no issues for disjoint sides, got %v", issues)
	}
	if v, _ := record.Field("id_number"); v != "01234567" {
		t.Errorf("Expected id_number from front, got %q", v)
	}
	if v, _ := record.Field("expiry_date"); v != "2029-04-01" {
		t.Errorf("Expected expiry_date from back, got %q", v)
	}
	if record.Confidence != 0.8 {
		t.Errorf("Expected record confidence to be the page minimum 0.8, got %v", record.Confidence)
	}
	if provider.calls != 2 {
		t.Errorf("Expected one call per page, got %d", provider.calls)
	}
}

func TestExtract_ConflictingSidesPreferFront(t *testing.T) {
	provider := &mockProvider{payloads: []string{
		payload(true, true, 0.9, `{"first_name": "Mohamed", "last_name": "Ben Ali", "id_number": "01234567"}`, `{}`),
		payload(true, true, 0.9, `{"id_number": "07654321"}`, `{}`),
	}}

	record, issues, err := newTestExtractor(provider).Extract(context.Background(), idSample())
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	if v, _ := record.Field("id_number"); v != "01234567" {
		t.Errorf("Expected front value kept on conflict, got %q", v)
	}
	if len(issues) != 1 {
		t.Fatalf("Expected one field-conflict issue, got %d", len(issues))
	}
	if issues[0].Kind != model.IssueFieldConflict || issues[0].Severity != model.SeverityMajor {
		t.Errorf("Expected major field_conflict issue, got %+v", issues[0])
	}
}

func TestExtract_DeclaredSideWinsConflict(t *testing.T) {
	// expiry_date is declared as a back-side field, so the back page's
	// value displaces the one the front page hallucinated first.
	provider := &mockProvider{payloads: []string{
		payload(true, true, 0.9, `{"first_name": "Mohamed", "last_name": "Ben Ali", "id_number": "01234567", "expiry_date": "2028-01-01"}`, `{}`),
		payload(true, true, 0.9, `{"expiry_date": "2029-04-01"}`, `{}`),
	}}

	record, issues, err := newTestExtractor(provider).Extract(context.Background(), idSample())
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if v, _ := record.Field("expiry_date"); v != "2029-04-01" {
		t.Errorf("Expected the declared side's expiry_date kept, got %q", v)
	}
	if len(issues) != 1 {
		t.Fatalf("Expected one field-conflict issue, got %d", len(issues))
	}
	if !strings.Contains(issues[0].Detail, `kept "2029-04-01" from the back side`) ||
		!strings.Contains(issues[0].Detail, `page front.jpg reported "2028-01-01"`) {
		t.Errorf("Conflict detail misattributes the kept value: %s", issues[0].Detail)
	}
}

func TestExtract_ConflictDetailNamesSupplyingSide(t *testing.T) {
	// The kept value here comes from the back page because the front
	// page omitted the field; the issue must name that side, not the
	// first page of the document.
	provider := &mockProvider{payloads: []string{
		payload(true, true, 0.9, `{}`, `{}`),
		payload(true, true, 0.9, `{"monthly_income": 2500}`, `{}`),
		payload(true, true, 0.9, `{"monthly_income": 2600}`, `{}`),
	}}
	sample := &model.DocumentSample{
		Type: model.DocTypeSalarySlip,
		Pages: []model.DocumentPage{
			{Filename: "front.jpg", Side: model.SideFront, Data: []byte("f")},
			{Filename: "back.jpg", Side: model.SideBack, Data: []byte("b")},
			{Filename: "p3.jpg", Side: model.SideUnknown, Data: []byte("u")},
		},
	}

	record, issues, err := newTestExtractor(provider).Extract(context.Background(), sample)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if v, _ := record.Field("monthly_income"); v != "2500" {
		t.Errorf("Expected earliest supplied value kept, got %q", v)
	}
	if len(issues) != 1 {
		t.Fatalf("Expected one field-conflict issue, got %d", len(issues))
	}
	if !strings.Contains(issues[0].Detail, `kept "2500" from the back side`) ||
		!strings.Contains(issues[0].Detail, `page p3.jpg reported "2600"`) {
		t.Errorf("Conflict detail misattributes the kept value: %s", issues[0].Detail)
	}
}

func TestExtract_TamperAssessmentPropagates(t *testing.T) {
	provider := &mockProvider{payloads: []string{
		payload(true, true, 0.9, `{"first_name": "Mohamed", "last_name": "Ben Ali", "id_number": "01234567"}`, `{}`),
		payload(false, true, 0.9, `{}`, `{}`),
	}}

	record, _, err := newTestExtractor(provider).Extract(context.Background(), idSample())
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if record.IsAuthentic {
		t.Error("Expected is_authentic=false when any page reports tampering")
	}
	if record.TamperNotes == "" {
		t.Error("Expected tamper notes to carry the model's reasoning")
	}
}

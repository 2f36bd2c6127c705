package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/veridoc/veridoc/internal/model"
	"github.com/veridoc/veridoc/internal/pipeline"
)

type mockEvaluator struct {
	lastApp *pipeline.Application
	result  *pipeline.Result
	err     error
}

func (m *mockEvaluator) Evaluate(ctx context.Context, app *pipeline.Application) (*pipeline.Result, error) {
	m.lastApp = app
	return m.result, m.err
}

type mockHealth struct {
	err error
}

func (m *mockHealth) Healthy(ctx context.Context) error { return m.err }

func multipartBody(t *testing.T, files map[string][]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for field, names := range files {
		for _, name := range names {
			part, err := writer.CreateFormFile(field, name)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := part.Write([]byte("image-bytes")); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return body, writer.FormDataContentType()
}

func verifiedResult() *pipeline.Result {
	return &pipeline.Result{
		Report: &model.DecisionReport{
			ApplicationID: "app-1",
			FinalDecision: model.DecisionVerified,
		},
		Data: model.DatasetRow{ApplicationID: "app-1", CustomerID: "12345678"},
	}
}

func TestValidateEndpoint(t *testing.T) {
	eval := &mockEvaluator{result: verifiedResult()}
	srv := New(model.ServerConfig{Addr: ":0"}, eval, nil)

	body, contentType := multipartBody(t, map[string][]string{
		"national_id": {"id_front.jpg", "id_back.jpg"},
		"salary_slip": {"slip.png"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/validate", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp validateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "success" {
		t.Errorf("status = %q, want success", resp.Status)
	}
	if resp.Report == nil || resp.Report.FinalDecision != model.DecisionVerified {
		t.Errorf("report = %+v", resp.Report)
	}

	app := eval.lastApp
	if app == nil {
		t.Fatal("evaluator never called")
	}
	id := app.Samples[model.DocTypeNationalID]
	if id == nil || len(id.Pages) != 2 {
		t.Fatalf("identity sample = %+v, want 2 pages", id)
	}
	if id.Pages[0].Side != model.SideFront || id.Pages[1].Side != model.SideBack {
		t.Errorf("pages not ordered front then back: %s, %s", id.Pages[0].Side, id.Pages[1].Side)
	}
}

func TestValidateFlaggedStatus(t *testing.T) {
	result := verifiedResult()
	result.Report.FinalDecision = model.DecisionRejected
	result.Report.OverallFraudFlag = true
	eval := &mockEvaluator{result: result}
	srv := New(model.ServerConfig{}, eval, nil)

	body, contentType := multipartBody(t, map[string][]string{"national_id": {"id.jpg"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/validate", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	var resp validateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "flagged" {
		t.Errorf("status = %q, want flagged", resp.Status)
	}
}

func TestValidateRejectsUnknownField(t *testing.T) {
	srv := New(model.ServerConfig{}, &mockEvaluator{result: verifiedResult()}, nil)

	body, contentType := multipartBody(t, map[string][]string{"passport": {"p.jpg"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/validate", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestValidateNoFiles(t *testing.T) {
	srv := New(model.ServerConfig{}, &mockEvaluator{result: verifiedResult()}, nil)

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/validate", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestValidateEvaluatorError(t *testing.T) {
	srv := New(model.ServerConfig{}, &mockEvaluator{err: errors.New("index down")}, nil)

	body, contentType := multipartBody(t, map[string][]string{"national_id": {"id.jpg"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/validate", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv := New(model.ServerConfig{}, &mockEvaluator{}, &mockHealth{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	srv = New(model.ServerConfig{}, &mockEvaluator{}, &mockHealth{err: errors.New("db down")})
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

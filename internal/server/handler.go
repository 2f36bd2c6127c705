package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/veridoc/veridoc/internal/logging"
	"github.com/veridoc/veridoc/internal/model"
	"github.com/veridoc/veridoc/internal/pipeline"
)

// validateResponse is the envelope the intake application consumes
type validateResponse struct {
	Status string                `json:"status"`
	Report *model.DecisionReport `json:"report"`
	Data   model.DatasetRow      `json:"data"`
}

// handleValidate accepts a multipart form with one file field per
// document type (repeated fields carry multi-page documents) and runs
// the full evaluation synchronously.
func (s *Server) handleValidate(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": fmt.Sprintf("invalid multipart form: %v", err)})
		return
	}

	app, err := applicationFromForm(form, c.PostForm("application_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}

	result, err := s.evaluator.Evaluate(c.Request.Context(), app)
	if err != nil {
		logging.Errorw("evaluation failed", "application", app.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "evaluation failed"})
		return
	}

	status := "success"
	if result.Report.OverallFraudFlag {
		status = "flagged"
	}
	c.JSON(http.StatusOK, validateResponse{
		Status: status,
		Report: result.Report,
		Data:   result.Data,
	})
}

// applicationFromForm turns uploads into document samples, field name
// is the document type, page side inferred from the filename.
func applicationFromForm(form *multipart.Form, applicationID string) (*pipeline.Application, error) {
	samples := make(map[model.DocumentType]*model.DocumentSample)

	for field, headers := range form.File {
		docType, err := model.ParseDocumentType(field)
		if err != nil {
			return nil, fmt.Errorf("unknown document field %q", field)
		}

		var pages []model.DocumentPage
		for _, header := range headers {
			page, err := pageFromHeader(header)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", field, err)
			}
			pages = append(pages, page)
		}
		sample := &model.DocumentSample{Type: docType, Pages: pages}
		// front before back so merge preference matches directory intake
		ordered := sample.PagesOfSide(model.SideFront)
		ordered = append(ordered, sample.PagesOfSide(model.SideBack)...)
		sample.Pages = append(ordered, sample.PagesOfSide(model.SideUnknown)...)
		samples[docType] = sample
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("no document files submitted")
	}
	return &pipeline.Application{ID: applicationID, Samples: samples}, nil
}

func pageFromHeader(header *multipart.FileHeader) (model.DocumentPage, error) {
	file, err := header.Open()
	if err != nil {
		return model.DocumentPage{}, fmt.Errorf("open upload %s: %w", header.Filename, err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return model.DocumentPage{}, fmt.Errorf("read upload %s: %w", header.Filename, err)
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = mimeFromFilename(header.Filename)
	}

	return model.DocumentPage{
		Filename: header.Filename,
		Side:     pipeline.InferSide(header.Filename),
		MIME:     mime,
		Data:     data,
	}, nil
}

func mimeFromFilename(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

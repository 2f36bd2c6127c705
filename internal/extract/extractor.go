package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/veridoc/veridoc/internal/llm"
	"github.com/veridoc/veridoc/internal/model"
	"github.com/veridoc/veridoc/internal/worker"
)

// Extractor produces one ClaimRecord per submitted document, issuing
// one provider call per page and merging the results.
type Extractor struct {
	provider  llm.Provider
	limiter   *worker.Limiter
	timeout   time.Duration
	maxPages  int
	maxTokens int
}

// NewExtractor creates an extractor. limiter may be nil to disable
// client-side rate limiting.
func NewExtractor(provider llm.Provider, limiter *worker.Limiter, cfg model.Config) *Extractor {
	timeout := cfg.Extraction.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	maxPages := cfg.Extraction.MaxPages
	if maxPages <= 0 {
		maxPages = 12
	}
	return &Extractor{
		provider:  provider,
		limiter:   limiter,
		timeout:   timeout,
		maxPages:  maxPages,
		maxTokens: cfg.LLM.MaxTokens,
	}
}

// Extract runs the forensic extraction for one document sample. The
// returned issues are extraction-level findings (page disagreements)
// that cross-validation folds into the final report. A non-nil error
// means no usable ClaimRecord exists for this document.
func (e *Extractor) Extract(ctx context.Context, sample *model.DocumentSample) (*model.ClaimRecord, []model.Issue, error) {
	if sample == nil || len(sample.Pages) == 0 {
		return nil, nil, &ExtractionError{Doc: docTypeOf(sample), Err: fmt.Errorf("no pages submitted")}
	}

	schema, ok := SchemaFor(sample.Type)
	if !ok {
		return nil, nil, &ExtractionError{Doc: sample.Type, Err: fmt.Errorf("no schema declared for document type")}
	}

	pages := sample.Pages
	if len(pages) > e.maxPages {
		pages = pages[:e.maxPages]
	}

	results := make([]pageResult, 0, len(pages))
	for i, page := range pages {
		resp, err := e.extractPage(ctx, schema, page, i, len(pages))
		if err != nil {
			return nil, nil, err
		}
		results = append(results, pageResult{page: page, resp: resp})
	}

	record, issues := mergePages(schema, results)

	if err := validateRequired(schema, record); err != nil {
		return nil, nil, err
	}
	return record, issues, nil
}

// extractPage issues one provider call for one page and validates the
// typed fields of the response.
func (e *Extractor) extractPage(ctx context.Context, schema DocumentSchema, page model.DocumentPage, pageIndex, pageCount int) (*wireResponse, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx, "extraction"); err != nil {
			return nil, &ExtractionError{Doc: schema.Type, Err: err}
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	out, err := e.provider.ExtractDocument(callCtx, llm.ExtractRequest{
		DocumentType: schema.Type,
		Prompt:       BuildPrompt(schema, pageIndex, pageCount),
		Images:       []llm.ImageInput{{MIME: page.MIME, Data: page.Data}},
		MaxTokens:    e.maxTokens,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			return nil, &ExtractionError{Doc: schema.Type, Err: fmt.Errorf("%w: page %s", ErrExtractionTimeout, page.Filename)}
		}
		return nil, &ExtractionError{Doc: schema.Type, Err: err}
	}

	resp, err := parseWire(out.JSON)
	if err != nil {
		return nil, &ExtractionError{Doc: schema.Type, Err: err}
	}

	// Type-check every supplied field against the schema. Unknown field
	// names are dropped rather than guessed at.
	for name, raw := range resp.ExtractedData {
		spec, known := schema.fieldSpec(name)
		if !known {
			delete(resp.ExtractedData, name)
			continue
		}
		value, present := stringifyValue(raw)
		if !present {
			continue
		}
		if err := validateField(spec, value); err != nil {
			return nil, &SchemaValidationError{Doc: schema.Type, Field: name, Reason: err.Error()}
		}
	}

	return resp, nil
}

// validateRequired checks record-level required fields after merging,
// so that two-sided documents may supply them on either page.
func validateRequired(schema DocumentSchema, record *model.ClaimRecord) error {
	for _, spec := range schema.Fields {
		if !spec.Required {
			continue
		}
		if _, ok := record.Field(spec.Name); !ok {
			return &SchemaValidationError{Doc: schema.Type, Field: spec.Name, Reason: "required field missing"}
		}
	}
	return nil
}

func docTypeOf(sample *model.DocumentSample) model.DocumentType {
	if sample == nil {
		return ""
	}
	return sample.Type
}

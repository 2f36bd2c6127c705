package extract

import (
	"errors"
	"fmt"

	"github.com/veridoc/veridoc/internal/model"
)

// ErrExtractionTimeout marks a per-document extraction call that
// exceeded its deadline. It is wrapped inside an ExtractionError.
var ErrExtractionTimeout = errors.New("extraction timed out")

// ExtractionError is a failure to obtain a usable extraction for one
// document. It never aborts the whole application; the orchestrator
// records it as an issue.
type ExtractionError struct {
	Doc model.DocumentType
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Doc, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// SchemaValidationError is an extractor response that violates the
// declared field schema for its document type.
type SchemaValidationError struct {
	Doc    model.DocumentType
	Field  string
	Reason string
}

func (e *SchemaValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema validation for %s: field %s: %s", e.Doc, e.Field, e.Reason)
	}
	return fmt.Sprintf("schema validation for %s: %s", e.Doc, e.Reason)
}

// IsTimeout reports whether an error chain contains an extraction timeout
func IsTimeout(err error) bool {
	return errors.Is(err, ErrExtractionTimeout)
}

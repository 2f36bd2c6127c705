package model

import "strings"

// FieldValue is one extracted field with its per-field confidence
type FieldValue struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// ClaimRecord is the structured output of extracting one DocumentSample.
// It references exactly one sample (by document type within a request)
// and is immutable once produced.
type ClaimRecord struct {
	Document     DocumentType          `json:"document"`
	Fields       map[string]FieldValue `json:"fields"`
	Anchors      map[string]string     `json:"anchors"`
	IsAuthentic  bool                  `json:"is_authentic"`
	IsValid      bool                  `json:"is_valid"`
	TamperNotes  string                `json:"tamper_notes,omitempty"`
	DetectedType string                `json:"detected_type,omitempty"`
	Confidence   float64               `json:"confidence"`
}

// Field returns the raw value of a named field, if present and non-empty
func (r *ClaimRecord) Field(name string) (string, bool) {
	fv, ok := r.Fields[name]
	if !ok || fv.Value == "" {
		return "", false
	}
	return fv.Value, true
}

// Anchor returns a named cross-validation anchor, if present and non-empty
func (r *ClaimRecord) Anchor(name string) (string, bool) {
	v, ok := r.Anchors[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// NameAnchor returns the record's person-name anchor. For the identity
// document the name may only exist as separate first/last fields, so
// those are composed when no full_name anchor was returned.
func (r *ClaimRecord) NameAnchor() (string, bool) {
	for _, key := range []string{"full_name", "account_holder_name"} {
		if v, ok := r.Anchor(key); ok {
			return v, true
		}
	}
	first, okF := r.Field("first_name")
	last, okL := r.Field("last_name")
	if okF || okL {
		return strings.TrimSpace(first + " " + last), true
	}
	return "", false
}

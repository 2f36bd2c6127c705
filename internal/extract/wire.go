package extract

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// wireAnalysis is the model's self-reported forensic assessment
type wireAnalysis struct {
	IsAuthentic          bool   `json:"is_authentic"`
	IsValid              bool   `json:"is_valid"`
	ValidationReasoning  string `json:"validation_reasoning"`
	DocumentTypeDetected string `json:"document_type_detected"`
}

// wireResponse is the raw extraction payload for one page
type wireResponse struct {
	DocumentAnalysis       *wireAnalysis          `json:"document_analysis"`
	ExtractedData          map[string]interface{} `json:"extracted_data"`
	CrossValidationAnchors map[string]interface{} `json:"cross_validation_anchors"`
	ConfidenceScore        float64                `json:"confidence_score"`
}

// parseWire decodes and structurally checks one page payload
func parseWire(raw string) (*wireResponse, error) {
	var resp wireResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("malformed extraction payload: %w", err)
	}
	if resp.DocumentAnalysis == nil {
		return nil, fmt.Errorf("extraction payload missing document_analysis")
	}
	if resp.ConfidenceScore < 0 || resp.ConfidenceScore > 1 {
		return nil, fmt.Errorf("confidence_score %v out of range [0,1]", resp.ConfidenceScore)
	}
	return &resp, nil
}

// stringifyValue renders a wire value as its canonical string form.
// null and empty values come back as ("", false).
func stringifyValue(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10), true
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

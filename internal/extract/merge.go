package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/veridoc/veridoc/internal/model"
)

// pageResult pairs one page with its validated wire payload
type pageResult struct {
	page model.DocumentPage
	resp *wireResponse
}

// mergePages folds per-page payloads into one ClaimRecord. Front pages
// are considered first, so when pages disagree on an overlapping field
// the earlier value wins unless the schema declares the field's side,
// in which case the declared side supplies the kept value. Either way
// the disagreement surfaces as a field-conflict issue instead of a
// silent overwrite.
func mergePages(schema DocumentSchema, results []pageResult) (*model.ClaimRecord, []model.Issue) {
	ordered := make([]pageResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return sideRank(ordered[i].page.Side) < sideRank(ordered[j].page.Side)
	})

	record := &model.ClaimRecord{
		Document:    schema.Type,
		Fields:      make(map[string]model.FieldValue),
		Anchors:     make(map[string]string),
		IsAuthentic: true,
		IsValid:     true,
		Confidence:  1,
	}

	var issues []model.Issue
	var notes []string

	// which page supplied each kept field value
	origins := make(map[string]model.DocumentPage)

	for _, pr := range ordered {
		analysis := pr.resp.DocumentAnalysis
		record.IsAuthentic = record.IsAuthentic && analysis.IsAuthentic
		record.IsValid = record.IsValid && analysis.IsValid
		if analysis.ValidationReasoning != "" && (!analysis.IsAuthentic || !analysis.IsValid) {
			notes = append(notes, analysis.ValidationReasoning)
		}
		if record.DetectedType == "" {
			record.DetectedType = analysis.DocumentTypeDetected
		}
		if pr.resp.ConfidenceScore < record.Confidence {
			record.Confidence = pr.resp.ConfidenceScore
		}

		// Fields in schema declaration order for deterministic output.
		for _, spec := range schema.Fields {
			raw, ok := pr.resp.ExtractedData[spec.Name]
			if !ok {
				continue
			}
			value, present := stringifyValue(raw)
			if !present {
				continue
			}
			existing, seen := record.Fields[spec.Name]
			if !seen {
				record.Fields[spec.Name] = model.FieldValue{Value: value, Confidence: pr.resp.ConfidenceScore}
				origins[spec.Name] = pr.page
				continue
			}
			if existing.Value == value {
				continue
			}

			kept := existing.Value
			keptPage := origins[spec.Name]
			dropped := value
			droppedPage := pr.page
			if spec.Side != model.SideUnknown && pr.page.Side == spec.Side && keptPage.Side != spec.Side {
				// The schema names the side carrying this field, so its
				// value displaces whatever an earlier page reported.
				record.Fields[spec.Name] = model.FieldValue{Value: value, Confidence: pr.resp.ConfidenceScore}
				origins[spec.Name] = pr.page
				kept, dropped = value, existing.Value
				keptPage, droppedPage = pr.page, keptPage
			}
			issues = append(issues, model.Issue{
				Kind:            model.IssueFieldConflict,
				Severity:        model.SeverityMajor,
				SourceDocuments: []model.DocumentType{schema.Type},
				Detail: fmt.Sprintf("pages disagree on %s: kept %q from the %s side, page %s reported %q",
					spec.Name, kept, keptPage.Side, droppedPage.Filename, dropped),
			})
		}

		for _, anchor := range schema.Anchors {
			raw, ok := pr.resp.CrossValidationAnchors[anchor]
			if !ok {
				continue
			}
			value, present := stringifyValue(raw)
			if !present {
				continue
			}
			if existing, seen := record.Anchors[anchor]; seen {
				if existing != value {
					issues = append(issues, model.Issue{
						Kind:            model.IssueFieldConflict,
						Severity:        model.SeverityMajor,
						SourceDocuments: []model.DocumentType{schema.Type},
						Detail: fmt.Sprintf("pages disagree on anchor %s: kept %q, page %s reported %q",
							anchor, existing, pr.page.Filename, value),
					})
				}
				continue
			}
			record.Anchors[anchor] = value
		}
	}

	record.TamperNotes = strings.Join(notes, "; ")
	return record, issues
}

// sideRank orders pages front, back, then unknown for merging
func sideRank(side model.DocumentSide) int {
	switch side {
	case model.SideFront:
		return 0
	case model.SideBack:
		return 1
	default:
		return 2
	}
}

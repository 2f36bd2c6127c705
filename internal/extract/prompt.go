package extract

import (
	"fmt"
	"strings"
)

// BuildPrompt constructs the forensic extraction prompt for one page of
// a document with the given schema.
func BuildPrompt(schema DocumentSchema, pageIndex, pageCount int) string {
	var fields strings.Builder
	for _, f := range schema.Fields {
		hint := string(f.Kind)
		switch f.Kind {
		case KindDate:
			hint = "ISO-8601 date (YYYY-MM-DD)"
		case KindDigits:
			if f.Digits > 0 {
				hint = fmt.Sprintf("exactly %d digits", f.Digits)
			} else {
				hint = "digits only"
			}
		case KindDecimal:
			hint = "non-negative decimal number"
		case KindInteger:
			hint = "non-negative integer"
		case KindBool:
			hint = "true or false"
		}
		fmt.Fprintf(&fields, "  - %s (%s)\n", f.Name, hint)
	}

	var anchors strings.Builder
	for _, a := range schema.Anchors {
		fmt.Fprintf(&anchors, "  - %s\n", a)
	}

	return fmt.Sprintf(`### ROLE
You are a Senior Bank Underwriting AI specializing in forensic document analysis and structured data extraction.

### CONTEXT
- Document Type: %s
- Process Instruction: %s
- This is page %d of %d for this document.

### OBJECTIVES
1. Liveness Check: inspect for signs of digital manipulation, Photoshop artifacts, or screen-capture signs.
2. Validity Check: ensure the document is official, legible, and not expired.
3. Structured Extraction: extract the fields below exactly as they appear.
4. Anchor Extraction: identify the key identity links used for cross-document validation.

### FIELDS
%s
### ANCHORS
%s
### OUTPUT GUARANTEE
Respond ONLY with a valid JSON object of this shape:
{
  "document_analysis": {"is_authentic": bool, "is_valid": bool, "validation_reasoning": string, "document_type_detected": string},
  "extracted_data": {field name -> value or null},
  "cross_validation_anchors": {anchor name -> value or null},
  "confidence_score": number between 0 and 1
}

### CRITICAL INSTRUCTIONS
- If a field is missing or illegible on this page, return null for it.
- Do not include any conversational text or markdown outside the JSON object.
- Set is_authentic to false if you suspect any form of tampering or forgery.`,
		schema.Type.DisplayName(), schema.HelperText, pageIndex+1, pageCount, fields.String(), anchors.String())
}

package model

import (
	"fmt"
	"strings"
)

// DocumentType identifies one of the document classes a loan applicant submits
type DocumentType string

const (
	DocTypeNationalID     DocumentType = "national_id"
	DocTypeSalarySlip     DocumentType = "salary_slip"
	DocTypeTaxDeclaration DocumentType = "tax_declaration"
	DocTypeBankStatement  DocumentType = "bank_statement"
	DocTypePropertyDoc    DocumentType = "property_doc"
	DocTypeTransactions   DocumentType = "bank_transactions"
)

// AllDocumentTypes returns the document types in declaration order.
// This order is the tie-break used whenever deterministic iteration matters.
func AllDocumentTypes() []DocumentType {
	return []DocumentType{
		DocTypeNationalID,
		DocTypeSalarySlip,
		DocTypeTaxDeclaration,
		DocTypeBankStatement,
		DocTypePropertyDoc,
		DocTypeTransactions,
	}
}

var displayNames = map[DocumentType]string{
	DocTypeNationalID:     "National ID Card",
	DocTypeSalarySlip:     "Salary Slip / Certificate",
	DocTypeTaxDeclaration: "Tax Declaration (DUR)",
	DocTypeBankStatement:  "Bank Statements (6 Months)",
	DocTypePropertyDoc:    "Property Title / Utility Bill",
	DocTypeTransactions:   "Detailed Transaction History",
}

// DisplayName returns the human-readable name of the document type
func (t DocumentType) DisplayName() string {
	if name, ok := displayNames[t]; ok {
		return name
	}
	return string(t)
}

// Order returns the declaration-order index of the type, or a large
// value for unknown types so they sort last.
func (t DocumentType) Order() int {
	for i, dt := range AllDocumentTypes() {
		if dt == t {
			return i
		}
	}
	return len(displayNames)
}

// ParseDocumentType resolves a snake_case identifier or a display name
func ParseDocumentType(s string) (DocumentType, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, dt := range AllDocumentTypes() {
		if needle == string(dt) || needle == strings.ToLower(dt.DisplayName()) {
			return dt, nil
		}
	}
	return "", fmt.Errorf("unknown document type: %q", s)
}

// DocumentSide distinguishes the physical side of a two-sided document
type DocumentSide string

const (
	SideFront   DocumentSide = "front"
	SideBack    DocumentSide = "back"
	SideUnknown DocumentSide = "unknown"
)

// DocumentPage is a single submitted image or file page
type DocumentPage struct {
	Filename string       `json:"filename"`
	Side     DocumentSide `json:"side"`
	MIME     string       `json:"mime"`
	Data     []byte       `json:"-"`
}

// DocumentSample is one submitted document: its declared type plus one
// or more pages. Samples are immutable once built for a request.
type DocumentSample struct {
	Type  DocumentType   `json:"type"`
	Pages []DocumentPage `json:"pages"`
}

// PagesOfSide returns the pages declared as the given side
func (s *DocumentSample) PagesOfSide(side DocumentSide) []DocumentPage {
	var pages []DocumentPage
	for _, p := range s.Pages {
		if p.Side == side {
			pages = append(pages, p)
		}
	}
	return pages
}

// Package extract turns submitted document images into typed claim
// records via a vision-language provider, validating every response
// against a fixed per-type field schema.
package extract

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/veridoc/veridoc/internal/model"
)

// FieldKind is the declared type of an extracted field
type FieldKind string

const (
	KindText    FieldKind = "text"
	KindDecimal FieldKind = "decimal"
	KindInteger FieldKind = "integer"
	KindDate    FieldKind = "date"
	KindDigits  FieldKind = "digits"
	KindBool    FieldKind = "bool"
)

// FieldSpec declares one field of a document schema
type FieldSpec struct {
	Name     string
	Kind     FieldKind
	Required bool

	// Digits constrains KindDigits fields to an exact length when > 0
	Digits int

	// Side names the document side expected to supply the field.
	// SideUnknown means any page may supply it.
	Side model.DocumentSide
}

// DocumentSchema is the fixed field schema of one document type. The
// set of schemas is a closed, compile-time list of variants; adding a
// document type means adding a variant here.
type DocumentSchema struct {
	Type       model.DocumentType
	HelperText string
	Fields     []FieldSpec
	Anchors    []string
}

var schemas = []DocumentSchema{
	{
		Type:       model.DocTypeNationalID,
		HelperText: "Identity. Front carries the holder's name and ID number, back carries issue and expiry dates.",
		Fields: []FieldSpec{
			{Name: "first_name", Kind: KindText, Required: true, Side: model.SideFront},
			{Name: "last_name", Kind: KindText, Required: true, Side: model.SideFront},
			{Name: "id_number", Kind: KindDigits, Required: true, Digits: 8, Side: model.SideFront},
			{Name: "issue_date", Kind: KindDate, Side: model.SideBack},
			{Name: "expiry_date", Kind: KindDate, Side: model.SideBack},
		},
		Anchors: []string{"id_number", "full_name"},
	},
	{
		Type:       model.DocTypeSalarySlip,
		HelperText: "Income.",
		Fields: []FieldSpec{
			{Name: "monthly_income", Kind: KindDecimal, Required: true},
		},
		Anchors: []string{"full_name"},
	},
	{
		Type:       model.DocTypeTaxDeclaration,
		HelperText: "Legal dependents count and declared annual income.",
		Fields: []FieldSpec{
			{Name: "number_of_dependents", Kind: KindInteger, Required: true},
			{Name: "annual_taxable_income", Kind: KindDecimal, Required: true},
		},
		Anchors: []string{"full_name", "id_number"},
	},
	{
		Type:       model.DocTypeBankStatement,
		HelperText: "Financial liabilities over the last six months.",
		Fields: []FieldSpec{
			{Name: "existing_emis_monthly", Kind: KindDecimal},
			{Name: "total_salary_credits", Kind: KindDecimal},
		},
		Anchors: []string{"account_holder_name", "employer_name_in_transactions"},
	},
	{
		Type:       model.DocTypePropertyDoc,
		HelperText: "Residence status.",
		Fields: []FieldSpec{
			{Name: "property_ownership_status", Kind: KindText, Required: true},
			{Name: "residential_address", Kind: KindText},
		},
		Anchors: []string{"full_name", "residential_address"},
	},
	{
		Type:       model.DocTypeTransactions,
		HelperText: "Extract all transaction details. Infer categories, locations, and international status if not explicitly labeled.",
		Fields: []FieldSpec{
			{Name: "transaction_id", Kind: KindText},
			{Name: "customer_id", Kind: KindText},
			{Name: "transaction_date", Kind: KindDate},
			{Name: "transaction_type", Kind: KindText},
			{Name: "transaction_amount", Kind: KindDecimal},
			{Name: "merchant_category", Kind: KindText},
			{Name: "merchant_name", Kind: KindText},
			{Name: "transaction_location", Kind: KindText},
			{Name: "account_balance_after_transaction", Kind: KindDecimal},
			{Name: "is_international_transaction", Kind: KindBool},
			{Name: "device_used", Kind: KindText},
			{Name: "ip_address", Kind: KindText},
			{Name: "transaction_status", Kind: KindText},
			{Name: "transaction_source_destination", Kind: KindText},
			{Name: "transaction_notes", Kind: KindText},
		},
		Anchors: []string{"customer_id", "transaction_id"},
	},
}

// SchemaFor returns the schema variant for a document type
func SchemaFor(t model.DocumentType) (DocumentSchema, bool) {
	for _, s := range schemas {
		if s.Type == t {
			return s, true
		}
	}
	return DocumentSchema{}, false
}

// fieldSpec looks up a field declaration by name
func (s DocumentSchema) fieldSpec(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// validateField checks a non-empty value against its declared kind.
// Values are never coerced: a violation is an error, not a guess.
func validateField(spec FieldSpec, value string) error {
	switch spec.Kind {
	case KindText:
		return nil

	case KindDecimal:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("%q is not a decimal", value)
		}
		if f < 0 {
			return fmt.Errorf("%q is negative", value)
		}
		return nil

	case KindInteger:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%q is not an integer", value)
		}
		if n < 0 {
			return fmt.Errorf("%q is negative", value)
		}
		return nil

	case KindDate:
		if _, err := time.Parse("2006-01-02", strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("%q is not an ISO-8601 date", value)
		}
		return nil

	case KindDigits:
		v := strings.TrimSpace(value)
		for _, r := range v {
			if r < '0' || r > '9' {
				return fmt.Errorf("%q contains non-digit characters", value)
			}
		}
		if spec.Digits > 0 && len(v) != spec.Digits {
			return fmt.Errorf("%q has %d digits, want %d", value, len(v), spec.Digits)
		}
		return nil

	case KindBool:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "false":
			return nil
		}
		return fmt.Errorf("%q is not a boolean", value)

	default:
		return fmt.Errorf("unknown field kind %q", spec.Kind)
	}
}

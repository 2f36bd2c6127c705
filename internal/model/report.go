package model

import "time"

// AuthenticityResult is the outcome of the visual authenticity check
// against the reference corpus. Derived once per identity document.
type AuthenticityResult struct {
	Score               float64      `json:"score"`
	Passed              bool         `json:"passed"`
	MatchedSide         DocumentSide `json:"matched_side"`
	NeighborsConsidered int          `json:"neighbors_considered"`
	TopMatch            string       `json:"top_match,omitempty"`
}

// Decision is the terminal verdict for an application
type Decision string

const (
	DecisionVerified Decision = "Verified"
	DecisionFlagged  Decision = "Flagged"
	DecisionRejected Decision = "Rejected"
)

// Narrative is the optional LLM-generated explanation of a decision.
// It explains the verdict and never influences it.
type Narrative struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Text     string `json:"text"`
}

// DecisionReport is the terminal artifact of one evaluation. Reports are
// never mutated after creation; re-evaluating an application produces a
// new report carrying the same ApplicationID.
type DecisionReport struct {
	ApplicationID    string              `json:"application_id"`
	FinalDecision    Decision            `json:"final_decision"`
	OverallFraudFlag bool                `json:"overall_fraud_flag"`
	IdentityScore    float64             `json:"identity_score"`
	IncomeMatch      bool                `json:"income_match_flag"`
	Issues           []Issue             `json:"issues"`
	Authenticity     *AuthenticityResult `json:"authenticity,omitempty"`
	Summary          string              `json:"summary"`
	Narrative        *Narrative          `json:"narrative,omitempty"`
	GeneratedAt      time.Time           `json:"generated_at"`
}

// DatasetRow is the flattened record handed back to the caller next to
// the report, mirroring what the downstream decision-memory loop stores.
type DatasetRow struct {
	ApplicationID   string `json:"application_id"`
	CustomerID      string `json:"customer_id,omitempty"`
	ApplicationDate string `json:"application_date"`

	RecentTransactionAmount string `json:"recent_transaction_amount,omitempty"`
	RecentMerchant          string `json:"recent_merchant,omitempty"`
	TransactionStatus       string `json:"transaction_status,omitempty"`
	InferredCategory        string `json:"inferred_category,omitempty"`
}

package decision

import (
	"github.com/veridoc/veridoc/internal/model"
)

// BuildDatasetRow flattens the evaluated application into the record
// shape the downstream decision-memory loop stores. The customer id
// prefers the transaction history's own id and falls back to the
// identity document number.
func BuildDatasetRow(report *model.DecisionReport, records []*model.ClaimRecord) model.DatasetRow {
	row := model.DatasetRow{
		ApplicationID:   report.ApplicationID,
		ApplicationDate: report.GeneratedAt.Format("2006-01-02"),
	}

	byType := make(map[model.DocumentType]*model.ClaimRecord, len(records))
	for _, r := range records {
		if r != nil {
			byType[r.Document] = r
		}
	}

	if tx := byType[model.DocTypeTransactions]; tx != nil {
		if v, ok := tx.Field("customer_id"); ok {
			row.CustomerID = v
		}
		if v, ok := tx.Field("transaction_amount"); ok {
			row.RecentTransactionAmount = v
		}
		if v, ok := tx.Field("merchant_name"); ok {
			row.RecentMerchant = v
		}
		if v, ok := tx.Field("transaction_status"); ok {
			row.TransactionStatus = v
		}
		if v, ok := tx.Field("merchant_category"); ok {
			row.InferredCategory = v
		}
	}
	if row.CustomerID == "" {
		if identity := byType[model.DocTypeNationalID]; identity != nil {
			if v, ok := identity.Field("id_number"); ok {
				row.CustomerID = v
			}
		}
	}
	return row
}

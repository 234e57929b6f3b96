package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/richardliu001/transaction-service/internal/model"
)

// TransactionView is the display projection returned by Search. It carries
// the merchant display name resolved from the static merchant-code table.
type TransactionView struct {
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	MerchantID    string          `json:"merchant_id"`
	MerchantName  string          `json:"merchant_name"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedBy     string          `json:"updated_by,omitempty"`
	UpdatedAt     *time.Time      `json:"updated_at,omitempty"`
}

// toView maps a stored record onto its display projection, field by field.
func toView(t model.Transaction) TransactionView {
	return TransactionView{
		TransactionID: t.TransactionID,
		UserID:        t.UserID,
		MerchantID:    t.MerchantID,
		MerchantName:  model.MerchantName(t.MerchantID),
		Amount:        t.Amount,
		CreatedBy:     t.CreatedBy,
		CreatedAt:     t.CreatedAt,
		UpdatedBy:     t.UpdatedBy,
		UpdatedAt:     t.UpdatedAt,
	}
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the record held in the primary store. Records are passed and
// stored by value; an update replaces the whole record rather than mutating
// fields in place.
type Transaction struct {
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	MerchantID    string          `json:"merchant_id"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedBy     string          `json:"updated_by,omitempty"`
	UpdatedAt     *time.Time      `json:"updated_at,omitempty"`
}

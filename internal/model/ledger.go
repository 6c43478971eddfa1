package model

import "time"

// LedgerKind selects one of the description/amount ledgers kept per month.
type LedgerKind string

const (
	LedgerCreditCard     LedgerKind = "credit_card"
	LedgerIncome         LedgerKind = "income"
	LedgerExternalBuffer LedgerKind = "external_buffer"
)

func (k LedgerKind) Valid() bool {
	switch k {
	case LedgerCreditCard, LedgerIncome, LedgerExternalBuffer:
		return true
	}
	return false
}

// LedgerEntry is a credit-card charge, an income line or an
// external-investment buffer line.
type LedgerEntry struct {
	ID           uint64     `json:"id"`
	UserID       uint64     `json:"user_id"`
	Kind         LedgerKind `json:"kind"`
	Description  string     `json:"description"`
	Amount       float64    `json:"amount"`
	Month        string     `json:"month"`
	DisplayOrder *int       `json:"display_order"`
	CreatedAt    time.Time  `json:"created_at"`
}

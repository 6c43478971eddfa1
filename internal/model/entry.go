package model

import (
	"regexp"
	"time"
)

// EntryKind selects one of the two monthly entry tables.
type EntryKind string

const (
	KindExpense    EntryKind = "expense"
	KindInvestment EntryKind = "investment"
)

func (k EntryKind) Valid() bool { return k == KindExpense || k == KindInvestment }

// Source types.  Only template-sourced entries are replaced when a month is
// refilled from its template.
const (
	SourceManual   = "manual"
	SourceTemplate = "template"
)

// Entry is a monthly expense or investment row.
type Entry struct {
	ID             uint64    `json:"id"`
	UserID         uint64    `json:"user_id"`
	Kind           EntryKind `json:"kind"`
	Name           string    `json:"name"`
	Amount         float64   `json:"amount"`
	Category       string    `json:"category"`
	Month          string    `json:"month"`
	SourceType     string    `json:"source_type"`
	DisplayOrder   *int      `json:"display_order"`
	IsCompleted    bool      `json:"is_completed"`
	InvestmentType *string   `json:"investment_type,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// OrderUpdate is one element of a reorder request.
type OrderUpdate struct {
	ID           uint64 `json:"id"`
	DisplayOrder int    `json:"display_order"`
}

var monthRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ValidMonth reports whether m is in YYYY-MM form.
func ValidMonth(m string) bool { return monthRe.MatchString(m) }

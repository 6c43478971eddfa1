package model

import "time"

// TemplateItem is one recurring line.  Item order is preserved.
type TemplateItem struct {
	ID             string  `json:"id,omitempty"`
	Name           string  `json:"name"`
	Amount         float64 `json:"amount"`
	Category       string  `json:"category"`
	InvestmentType *string `json:"investment_type,omitempty"`
}

// Template holds a user's recurring items for one entry kind.  There is at
// most one template per (user, kind).
type Template struct {
	ID        uint64         `json:"id"`
	UserID    uint64         `json:"user_id"`
	Kind      EntryKind      `json:"kind"`
	Items     []TemplateItem `json:"items"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

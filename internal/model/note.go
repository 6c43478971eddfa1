package model

import "time"

// Note is the free-text note a user keeps for a month, together with the
// title shown above the credit-card tracker.
type Note struct {
	ID                     uint64    `json:"id"`
	UserID                 uint64    `json:"user_id"`
	Month                  string    `json:"month"`
	Content                string    `json:"content"`
	CreditCardTrackerTitle *string   `json:"credit_card_tracker_title"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// CategoryTotal feeds the pie charts.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// MonthTotal feeds the trend charts.
type MonthTotal struct {
	Month       string  `json:"month"`
	Expenses    float64 `json:"expenses"`
	Investments float64 `json:"investments"`
	Income      float64 `json:"income"`
}

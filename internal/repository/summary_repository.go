package repository

import (
	"context"
	"database/sql"
	"sort"

	"github.com/iliyamo/finance-tracker/internal/model"
)

// SummaryRepo runs the aggregate queries behind the pie and trend charts.
type SummaryRepo struct{ db *sql.DB }

func NewSummaryRepo(db *sql.DB) *SummaryRepo { return &SummaryRepo{db: db} }

// CategoryTotals groups one month of entries by category, largest first.
func (r *SummaryRepo) CategoryTotals(ctx context.Context, ownerID uint64, kind model.EntryKind, month string) ([]model.CategoryTotal, error) {
	table, err := entryTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT category, SUM(amount), COUNT(*) FROM "+table+
			" WHERE user_id = ? AND month = ? GROUP BY category ORDER BY SUM(amount) DESC, category",
		ownerID, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.CategoryTotal{}
	for rows.Next() {
		var ct model.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total, &ct.Count); err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// MonthlyTotals returns per-month totals for months >= since, oldest first.
func (r *SummaryRepo) MonthlyTotals(ctx context.Context, ownerID uint64, since string) ([]model.MonthTotal, error) {
	byMonth := map[string]*model.MonthTotal{}
	get := func(m string) *model.MonthTotal {
		if t, ok := byMonth[m]; ok {
			return t
		}
		t := &model.MonthTotal{Month: m}
		byMonth[m] = t
		return t
	}

	sources := []struct {
		table string
		apply func(t *model.MonthTotal, v float64)
	}{
		{"expenses", func(t *model.MonthTotal, v float64) { t.Expenses = v }},
		{"investments", func(t *model.MonthTotal, v float64) { t.Investments = v }},
		{"income_entries", func(t *model.MonthTotal, v float64) { t.Income = v }},
	}
	for _, s := range sources {
		if err := r.sumByMonth(ctx, s.table, ownerID, since, func(m string, v float64) { s.apply(get(m), v) }); err != nil {
			return nil, err
		}
	}

	out := make([]model.MonthTotal, 0, len(byMonth))
	for _, t := range byMonth {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

func (r *SummaryRepo) sumByMonth(ctx context.Context, table string, ownerID uint64, since string, fn func(month string, total float64)) error {
	rows, err := r.db.QueryContext(ctx,
		"SELECT month, SUM(amount) FROM "+table+" WHERE user_id = ? AND month >= ? GROUP BY month", ownerID, since)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			m string
			v float64
		)
		if err := rows.Scan(&m, &v); err != nil {
			return err
		}
		fn(m, v)
	}
	return rows.Err()
}

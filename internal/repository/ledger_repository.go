package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/finance-tracker/internal/model"
)

var ledgerTables = map[model.LedgerKind]string{
	model.LedgerCreditCard:     "credit_card_entries",
	model.LedgerIncome:         "income_entries",
	model.LedgerExternalBuffer: "external_investment_buffer",
}

func ledgerTable(kind model.LedgerKind) (string, error) {
	t, ok := ledgerTables[kind]
	if !ok {
		return "", fmt.Errorf("unknown ledger kind %q", kind)
	}
	return t, nil
}

// LedgerRepo stores the description/amount ledgers: credit-card charges,
// income and the external-investment buffer.
type LedgerRepo struct{ db *sql.DB }

func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

// List returns the owner's rows, optionally restricted to one month.
func (r *LedgerRepo) List(ctx context.Context, kind model.LedgerKind, ownerID uint64, month string) ([]*model.LedgerEntry, error) {
	table, err := ledgerTable(kind)
	if err != nil {
		return nil, err
	}
	q := "SELECT id, user_id, description, amount, month, display_order, created_at FROM " + table + " WHERE user_id = ?"
	args := []any{ownerID}
	if month != "" {
		q += " AND month = ?"
		args = append(args, month)
	}
	q += " ORDER BY month, CASE WHEN display_order IS NULL THEN 1 ELSE 0 END, display_order, created_at, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.LedgerEntry
	for rows.Next() {
		var (
			e     model.LedgerEntry
			order sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Description, &e.Amount, &e.Month, &order, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = kind
		e.DisplayOrder = intPtr(order)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// Create inserts e and fills in ID and CreatedAt.
func (r *LedgerRepo) Create(ctx context.Context, e *model.LedgerEntry) error {
	table, err := ledgerTable(e.Kind)
	if err != nil {
		return err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO "+table+" (user_id, description, amount, month, display_order, created_at) VALUES (?,?,?,?,?,?)",
		e.UserID, e.Description, e.Amount, e.Month, nullableInt(e.DisplayOrder), e.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// Delete removes an owned row.
func (r *LedgerRepo) Delete(ctx context.Context, kind model.LedgerKind, id, ownerID uint64) error {
	table, err := ledgerTable(kind)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// Reorder applies every display_order update in one transaction.
func (r *LedgerRepo) Reorder(ctx context.Context, kind model.LedgerKind, ownerID uint64, updates []model.OrderUpdate) error {
	table, err := ledgerTable(kind)
	if err != nil {
		return err
	}
	return InTx(ctx, r.db, func(tx *sql.Tx) error {
		return reorderRows(ctx, tx, table, ownerID, updates)
	})
}

// Total sums the owner's amounts for a month.
func (r *LedgerRepo) Total(ctx context.Context, kind model.LedgerKind, ownerID uint64, month string) (float64, error) {
	table, err := ledgerTable(kind)
	if err != nil {
		return 0, err
	}
	var total sql.NullFloat64
	err = r.db.QueryRowContext(ctx,
		"SELECT SUM(amount) FROM "+table+" WHERE user_id = ? AND month = ?", ownerID, month).Scan(&total)
	return total.Float64, err
}

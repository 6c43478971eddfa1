package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/finance-tracker/internal/model"
)

// entryTables whitelists the table behind each entry kind; table names are
// never taken from input.
var entryTables = map[model.EntryKind]string{
	model.KindExpense:    "expenses",
	model.KindInvestment: "investments",
}

func entryTable(kind model.EntryKind) (string, error) {
	t, ok := entryTables[kind]
	if !ok {
		return "", fmt.Errorf("unknown entry kind %q", kind)
	}
	return t, nil
}

// EntryRepo stores monthly expenses and investments.  Every statement is
// scoped by user_id; a row owned by someone else behaves exactly like a
// missing row.
type EntryRepo struct {
	db *sql.DB
	q  queryer // the pool, or a *sql.Tx after WithTx
}

func NewEntryRepo(db *sql.DB) *EntryRepo { return &EntryRepo{db: db, q: db} }

// DB exposes the pool so callers can open a transaction.
func (r *EntryRepo) DB() *sql.DB { return r.db }

// WithTx returns a repo whose statements run inside tx.
func (r *EntryRepo) WithTx(tx *sql.Tx) *EntryRepo { return &EntryRepo{db: r.db, q: tx} }

const entryColumns = "id, user_id, name, amount, category, month, source_type, display_order, is_completed, investment_type, created_at"

func scanEntry(row interface{ Scan(...any) error }, kind model.EntryKind) (*model.Entry, error) {
	var (
		e        model.Entry
		order    sql.NullInt64  // NULL until the user reorders
		invType  sql.NullString // investments only
		category sql.NullString
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Name, &e.Amount, &category, &e.Month, &e.SourceType,
		&order, &e.IsCompleted, &invType, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Kind = kind
	e.Category = category.String
	e.DisplayOrder = intPtr(order)
	e.InvestmentType = stringPtr(invType)
	return &e, nil
}

// ListByMonth returns the owner's entries for month, explicitly ordered rows
// first.  An empty month lists every month.
func (r *EntryRepo) ListByMonth(ctx context.Context, ownerID uint64, kind model.EntryKind, month string) ([]*model.Entry, error) {
	table, err := entryTable(kind)
	if err != nil {
		return nil, err
	}
	q := "SELECT " + entryColumns + " FROM " + table + " WHERE user_id = ?"
	args := []any{ownerID}
	if month != "" {
		q += " AND month = ?"
		args = append(args, month)
	}
	q += " ORDER BY month, CASE WHEN display_order IS NULL THEN 1 ELSE 0 END, display_order, id"

	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Entry
	for rows.Next() {
		e, err := scanEntry(rows, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetByIDAndOwner fetches one entry, or ErrNotFound.
func (r *EntryRepo) GetByIDAndOwner(ctx context.Context, kind model.EntryKind, id, ownerID uint64) (*model.Entry, error) {
	table, err := entryTable(kind)
	if err != nil {
		return nil, err
	}
	e, err := scanEntry(r.q.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM "+table+" WHERE id = ? AND user_id = ?", id, ownerID), kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// Create inserts e and fills in ID and CreatedAt.
func (r *EntryRepo) Create(ctx context.Context, e *model.Entry) error {
	table, err := entryTable(e.Kind)
	if err != nil {
		return err
	}
	if e.SourceType == "" {
		e.SourceType = model.SourceManual
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	res, err := r.q.ExecContext(ctx,
		"INSERT INTO "+table+" (user_id, name, amount, category, month, source_type, display_order, is_completed, investment_type, created_at) VALUES (?,?,?,?,?,?,?,?,?,?)",
		e.UserID, e.Name, e.Amount, e.Category, e.Month, e.SourceType,
		nullableInt(e.DisplayOrder), e.IsCompleted, nullableString(e.InvestmentType), e.CreatedAt)
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

// Update rewrites the editable fields of an owned entry.  Source type and
// completion are left alone.
func (r *EntryRepo) Update(ctx context.Context, e *model.Entry) error {
	table, err := entryTable(e.Kind)
	if err != nil {
		return err
	}
	if _, err := r.GetByIDAndOwner(ctx, e.Kind, e.ID, e.UserID); err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		"UPDATE "+table+" SET name = ?, amount = ?, category = ?, month = ?, investment_type = ? WHERE id = ? AND user_id = ?",
		e.Name, e.Amount, e.Category, e.Month, nullableString(e.InvestmentType), e.ID, e.UserID)
	return err
}

// Delete removes an owned entry.
func (r *EntryRepo) Delete(ctx context.Context, kind model.EntryKind, id, ownerID uint64) error {
	table, err := entryTable(kind)
	if err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// ToggleCompletion flips is_completed and returns the updated row.
func (r *EntryRepo) ToggleCompletion(ctx context.Context, kind model.EntryKind, id, ownerID uint64) (*model.Entry, error) {
	table, err := entryTable(kind)
	if err != nil {
		return nil, err
	}
	e, err := r.GetByIDAndOwner(ctx, kind, id, ownerID)
	if err != nil {
		return nil, err
	}
	e.IsCompleted = !e.IsCompleted
	if _, err := r.q.ExecContext(ctx,
		"UPDATE "+table+" SET is_completed = ? WHERE id = ? AND user_id = ?", e.IsCompleted, id, ownerID); err != nil {
		return nil, err
	}
	return e, nil
}

// Reorder applies every display_order update in one transaction.  If any id
// is unknown or foreign the whole batch is rolled back with ErrNotFound.
func (r *EntryRepo) Reorder(ctx context.Context, kind model.EntryKind, ownerID uint64, updates []model.OrderUpdate) error {
	table, err := entryTable(kind)
	if err != nil {
		return err
	}
	return InTx(ctx, r.db, func(tx *sql.Tx) error {
		return reorderRows(ctx, tx, table, ownerID, updates)
	})
}

func reorderRows(ctx context.Context, tx *sql.Tx, table string, ownerID uint64, updates []model.OrderUpdate) error {
	for _, u := range updates {
		var id uint64
		err := tx.QueryRowContext(ctx, "SELECT id FROM "+table+" WHERE id = ? AND user_id = ?", u.ID, ownerID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE "+table+" SET display_order = ? WHERE id = ? AND user_id = ?", u.DisplayOrder, u.ID, ownerID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteTemplateEntries removes the owner's template-sourced entries for a
// month and returns how many were deleted.  Manual entries are untouched.
func (r *EntryRepo) DeleteTemplateEntries(ctx context.Context, kind model.EntryKind, ownerID uint64, month string) (int, error) {
	table, err := entryTable(kind)
	if err != nil {
		return 0, err
	}
	res, err := r.q.ExecContext(ctx,
		"DELETE FROM "+table+" WHERE user_id = ? AND month = ? AND source_type = ?",
		ownerID, month, model.SourceTemplate)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

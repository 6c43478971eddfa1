package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/finance-tracker/internal/model"
)

// NoteRepo stores one note per (user, month).
type NoteRepo struct{ db *sql.DB }

func NewNoteRepo(db *sql.DB) *NoteRepo { return &NoteRepo{db: db} }

func (r *NoteRepo) get(ctx context.Context, q queryer, ownerID uint64, month string) (*model.Note, error) {
	var (
		n     model.Note
		title sql.NullString
	)
	err := q.QueryRowContext(ctx,
		"SELECT id, user_id, month, content, credit_card_tracker_title, created_at, updated_at FROM notes WHERE user_id = ? AND month = ?",
		ownerID, month).Scan(&n.ID, &n.UserID, &n.Month, &n.Content, &title, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	n.CreditCardTrackerTitle = stringPtr(title)
	return &n, nil
}

// Get returns the note for month, or ErrNotFound.
func (r *NoteRepo) Get(ctx context.Context, ownerID uint64, month string) (*model.Note, error) {
	return r.get(ctx, r.db, ownerID, month)
}

// Upsert writes the note for n.UserID/n.Month.  A nil tracker title keeps
// the stored one.
func (r *NoteRepo) Upsert(ctx context.Context, n *model.Note) (*model.Note, error) {
	var out *model.Note
	err := InTx(ctx, r.db, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		existing, err := r.get(ctx, tx, n.UserID, n.Month)
		if errors.Is(err, ErrNotFound) {
			res, err := tx.ExecContext(ctx,
				"INSERT INTO notes (user_id, month, content, credit_card_tracker_title, created_at, updated_at) VALUES (?,?,?,?,?,?)",
				n.UserID, n.Month, n.Content, nullableString(n.CreditCardTrackerTitle), now, now)
			if err != nil {
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			out = &model.Note{ID: uint64(id), UserID: n.UserID, Month: n.Month, Content: n.Content,
				CreditCardTrackerTitle: n.CreditCardTrackerTitle, CreatedAt: now, UpdatedAt: now}
			return nil
		}
		if err != nil {
			return err
		}
		title := existing.CreditCardTrackerTitle
		if n.CreditCardTrackerTitle != nil {
			title = n.CreditCardTrackerTitle
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE notes SET content = ?, credit_card_tracker_title = ?, updated_at = ? WHERE id = ? AND user_id = ?",
			n.Content, nullableString(title), now, existing.ID, n.UserID); err != nil {
			return err
		}
		existing.Content = n.Content
		existing.CreditCardTrackerTitle = title
		existing.UpdatedAt = now
		out = existing
		return nil
	})
	return out, err
}

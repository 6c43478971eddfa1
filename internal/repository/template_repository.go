package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/finance-tracker/internal/model"
)

// TemplateRepo stores one item list per (user, kind) as a JSON column.
type TemplateRepo struct {
	db *sql.DB
	q  queryer
}

func NewTemplateRepo(db *sql.DB) *TemplateRepo { return &TemplateRepo{db: db, q: db} }

// WithTx returns a repo whose statements run inside tx.
func (r *TemplateRepo) WithTx(tx *sql.Tx) *TemplateRepo { return &TemplateRepo{db: r.db, q: tx} }

// Get returns the owner's template for kind, or ErrNotFound.
func (r *TemplateRepo) Get(ctx context.Context, ownerID uint64, kind model.EntryKind) (*model.Template, error) {
	var (
		t     model.Template
		items []byte
	)
	err := r.q.QueryRowContext(ctx,
		"SELECT id, user_id, kind, items, created_at, updated_at FROM templates WHERE user_id = ? AND kind = ?",
		ownerID, string(kind)).Scan(&t.ID, &t.UserID, &t.Kind, &items, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &t.Items); err != nil {
		return nil, fmt.Errorf("decode template items: %w", err)
	}
	if t.Items == nil {
		t.Items = []model.TemplateItem{}
	}
	return &t, nil
}

// Upsert creates the template or replaces its items.
func (r *TemplateRepo) Upsert(ctx context.Context, ownerID uint64, kind model.EntryKind, items []model.TemplateItem) (*model.Template, error) {
	var out *model.Template
	err := InTx(ctx, r.db, func(tx *sql.Tx) error {
		txr := r.WithTx(tx)
		existing, err := txr.Get(ctx, ownerID, kind)
		switch {
		case errors.Is(err, ErrNotFound):
			out, err = txr.insert(ctx, ownerID, kind, items)
			return err
		case err != nil:
			return err
		}
		out, err = txr.replace(ctx, existing, items)
		return err
	})
	if isDuplicateErr(err) {
		return nil, ErrConflict
	}
	return out, err
}

// Update replaces the items of an existing template; ErrNotFound if none.
func (r *TemplateRepo) Update(ctx context.Context, ownerID uint64, kind model.EntryKind, items []model.TemplateItem) (*model.Template, error) {
	var out *model.Template
	err := InTx(ctx, r.db, func(tx *sql.Tx) error {
		txr := r.WithTx(tx)
		existing, err := txr.Get(ctx, ownerID, kind)
		if err != nil {
			return err
		}
		out, err = txr.replace(ctx, existing, items)
		return err
	})
	return out, err
}

func (r *TemplateRepo) insert(ctx context.Context, ownerID uint64, kind model.EntryKind, items []model.TemplateItem) (*model.Template, error) {
	bs, err := encodeItems(items)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	res, err := r.q.ExecContext(ctx,
		"INSERT INTO templates (user_id, kind, items, created_at, updated_at) VALUES (?,?,?,?,?)",
		ownerID, string(kind), string(bs), now, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.Template{ID: uint64(id), UserID: ownerID, Kind: kind, Items: items, CreatedAt: now, UpdatedAt: now}, nil
}

func (r *TemplateRepo) replace(ctx context.Context, t *model.Template, items []model.TemplateItem) (*model.Template, error) {
	bs, err := encodeItems(items)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if _, err := r.q.ExecContext(ctx,
		"UPDATE templates SET items = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		string(bs), now, t.ID, t.UserID); err != nil {
		return nil, err
	}
	t.Items = items
	t.UpdatedAt = now
	return t, nil
}

func encodeItems(items []model.TemplateItem) ([]byte, error) {
	if items == nil {
		items = []model.TemplateItem{}
	}
	return json.Marshal(items)
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/finance-tracker/internal/model"
	"github.com/iliyamo/finance-tracker/internal/queue"
	"github.com/iliyamo/finance-tracker/internal/repository"
)

// SkippedItem is a template item that was not inserted because the month
// already holds a similarly named entry.
type SkippedItem struct {
	Name        string `json:"name"`
	MatchedName string `json:"matched_name"`
}

// String renders the item the way the UI lists it.
func (s SkippedItem) String() string {
	return fmt.Sprintf("%s (similar to: %s)", s.Name, s.MatchedName)
}

// FillResult summarises one fill.
type FillResult struct {
	Inserted     []*model.Entry `json:"inserted"`
	Skipped      []SkippedItem  `json:"skipped"`
	SkippedCount int            `json:"skippedCount"`
	DeletedCount int            `json:"deletedCount"`
}

// PlanFill decides which template items to insert into a month that
// already holds existing.  Each item is compared against existing only, not
// against items planned earlier in the same call, so a template may list
// two similar items and both are inserted.
func PlanFill(items []model.TemplateItem, existing []*model.Entry) (insert []model.TemplateItem, skipped []SkippedItem) {
	for _, it := range items {
		if match := firstSimilar(it.Name, existing); match != nil {
			skipped = append(skipped, SkippedItem{Name: it.Name, MatchedName: match.Name})
			continue
		}
		insert = append(insert, it)
	}
	return insert, skipped
}

func firstSimilar(name string, existing []*model.Entry) *model.Entry {
	for _, e := range existing {
		if NamesSimilar(name, e.Name) {
			return e
		}
	}
	return nil
}

// TemplateFiller projects a user's template into a month.
type TemplateFiller struct {
	db        *sql.DB
	entries   *repository.EntryRepo
	templates *repository.TemplateRepo
	events    queue.Publisher
	log       *zap.Logger
}

func NewTemplateFiller(db *sql.DB, entries *repository.EntryRepo, templates *repository.TemplateRepo, events queue.Publisher, log *zap.Logger) *TemplateFiller {
	if events == nil {
		events = queue.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TemplateFiller{db: db, entries: entries, templates: templates, events: events, log: log}
}

// Fill regenerates the template-sourced entries of month for the owner in a
// single transaction: previous template entries are deleted, the remaining
// (manual) entries are listed, and every template item without a similar
// remaining entry is inserted with source_type=template.  Running Fill twice
// with no manual change in between yields the same set of entries.
func (f *TemplateFiller) Fill(ctx context.Context, ownerID uint64, kind model.EntryKind, month string) (*FillResult, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown entry kind %q", kind)
	}
	if !model.ValidMonth(month) {
		return nil, ErrInvalidMonth
	}

	res := &FillResult{Inserted: []*model.Entry{}, Skipped: []SkippedItem{}}
	err := repository.InTx(ctx, f.db, func(tx *sql.Tx) error {
		tmpl, err := f.templates.WithTx(tx).Get(ctx, ownerID, kind)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEmptyTemplate
		}
		if err != nil {
			return fmt.Errorf("load template: %w", err)
		}
		if len(tmpl.Items) == 0 {
			return ErrEmptyTemplate
		}

		entries := f.entries.WithTx(tx)
		deleted, err := entries.DeleteTemplateEntries(ctx, kind, ownerID, month)
		if err != nil {
			return fmt.Errorf("delete template entries: %w", err)
		}
		res.DeletedCount = deleted

		remaining, err := entries.ListByMonth(ctx, ownerID, kind, month)
		if err != nil {
			return fmt.Errorf("list remaining entries: %w", err)
		}

		insert, skipped := PlanFill(tmpl.Items, remaining)
		now := time.Now().UTC()
		for _, it := range insert {
			e := &model.Entry{
				UserID:     ownerID,
				Kind:       kind,
				Name:       it.Name,
				Amount:     it.Amount,
				Category:   it.Category,
				Month:      month,
				SourceType: model.SourceTemplate,
				CreatedAt:  now,
			}
			if kind == model.KindInvestment {
				e.InvestmentType = it.InvestmentType
			}
			if err := entries.Create(ctx, e); err != nil {
				return fmt.Errorf("insert %q: %w", it.Name, err)
			}
			res.Inserted = append(res.Inserted, e)
		}
		if skipped != nil {
			res.Skipped = skipped
		}
		res.SkippedCount = len(skipped)
		return nil
	})
	if err != nil {
		return nil, err
	}

	f.log.Info("template filled",
		zap.Uint64("user_id", ownerID),
		zap.String("kind", string(kind)),
		zap.String("month", month),
		zap.Int("inserted", len(res.Inserted)),
		zap.Int("skipped", res.SkippedCount),
		zap.Int("deleted", res.DeletedCount))

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := f.events.Publish(pubCtx, queue.NewEvent(queue.EventTemplateFilled, ownerID, 0, map[string]string{
		"kind":     string(kind),
		"month":    month,
		"inserted": strconv.Itoa(len(res.Inserted)),
		"skipped":  strconv.Itoa(res.SkippedCount),
		"deleted":  strconv.Itoa(res.DeletedCount),
	})); err != nil {
		f.log.Warn("publish event failed", zap.String("type", queue.EventTemplateFilled), zap.Error(err))
	}
	return res, nil
}

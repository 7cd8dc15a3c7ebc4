package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/focusmomo"
)

const (
	SelectAllCategories = "SELECT id, name, domains, created_at, updated_at FROM categories"

	activeCategoryKey = "active_category"
)

type categoryEntity struct {
	ID        string
	Name      string
	Domains   string
	CreatedAt int64
	UpdatedAt int64
}

type categoryRepo struct {
	dbGetter txStdLib.DBGetter
	l        log.Logger
}

func NewCategoryRepo(dbGetter txStdLib.DBGetter, logger log.Logger) *categoryRepo {
	return &categoryRepo{
		dbGetter: dbGetter,
		l:        logger,
	}
}

var _ focusmomo.CategoryRepo = (*categoryRepo)(nil)

func (r *categoryRepo) UpsertCategory(ctx context.Context, id focusmomo.CategoryID, c focusmomo.CategoryRecord) (focusmomo.ExistingCategoryRecord, error) {
	if id == "" || c.Name == "" {
		return focusmomo.ExistingCategoryRecord{}, fmt.Errorf("provide required fields 'ID' and 'Name'")
	}

	existing, err := r.GetCategory(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		existing = focusmomo.ExistingCategoryRecord{
			ExistingRecord: focusmomo.NewExistingRecord[focusmomo.CategoryID](string(id)),
		}
	case err != nil:
		return focusmomo.ExistingCategoryRecord{}, err
	default:
		existing.UpdatedAt = time.Now()
	}
	existing.CategoryRecord = c

	e, err := mapToCategoryEntity(existing)
	if err != nil {
		return focusmomo.ExistingCategoryRecord{}, err
	}
	args := []any{
		e.ID,
		e.Name,
		e.Domains,
		e.CreatedAt,
		e.UpdatedAt,
	}
	query := "INSERT INTO categories (id, name, domains, created_at, updated_at) VALUES " + generateParameters(len(args)) +
		" ON CONFLICT(id) DO UPDATE SET name = excluded.name, domains = excluded.domains, updated_at = excluded.updated_at"
	r.l.Debug("saving category", "query", query, "args", args)
	if _, err := r.dbGetter(ctx).ExecContext(ctx, query, args...); err != nil {
		return focusmomo.ExistingCategoryRecord{}, err
	}

	return existing, nil
}

func (r *categoryRepo) GetCategory(ctx context.Context, id focusmomo.CategoryID) (focusmomo.ExistingCategoryRecord, error) {
	if id == "" {
		return focusmomo.ExistingCategoryRecord{}, fmt.Errorf("provide id")
	}

	row := r.dbGetter(ctx).QueryRowContext(ctx, SelectAllCategories+" WHERE id = ?", id)
	return extractCategory(row)
}

func (r *categoryRepo) ListCategories(ctx context.Context) ([]focusmomo.ExistingCategoryRecord, error) {
	query := SelectAllCategories + " ORDER BY name ASC"
	r.l.Debug("listing categories", "query", query)
	rows, err := r.dbGetter(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint

	var categories []focusmomo.ExistingCategoryRecord
	for rows.Next() {
		c, err := extractCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

// SetActiveCategory rejects ids that are not stored. A nil id clears the active category.
func (r *categoryRepo) SetActiveCategory(ctx context.Context, id *focusmomo.CategoryID) error {
	db := r.dbGetter(ctx)
	if id == nil {
		query := "DELETE FROM settings WHERE key = ?"
		r.l.Debug("clearing active category", "query", query)
		_, err := db.ExecContext(ctx, query, activeCategoryKey)
		return err
	}

	if _, err := r.GetCategory(ctx, *id); err != nil {
		return fmt.Errorf("activate category %q: %w", *id, err)
	}

	query := "INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value"
	r.l.Debug("setting active category", "query", query, "id", *id)
	_, err := db.ExecContext(ctx, query, activeCategoryKey, string(*id))
	return err
}

func (r *categoryRepo) GetActiveCategory(ctx context.Context) (*focusmomo.CategoryID, error) {
	var value string
	err := r.dbGetter(ctx).QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", activeCategoryKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	id := focusmomo.CategoryID(value)
	return &id, nil
}

func extractCategory(s scannable) (focusmomo.ExistingCategoryRecord, error) {
	var e categoryEntity
	if err := s.Scan(&e.ID, &e.Name, &e.Domains, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return focusmomo.ExistingCategoryRecord{}, ErrNotFound
		}
		return focusmomo.ExistingCategoryRecord{}, err
	}
	return mapToExistingCategoryRecord(e)
}

func mapToCategoryEntity(c focusmomo.ExistingCategoryRecord) (categoryEntity, error) {
	domains := c.Domains
	if domains == nil {
		domains = []string{}
	}
	b, err := json.Marshal(domains)
	if err != nil {
		return categoryEntity{}, fmt.Errorf("encode domains: %w", err)
	}
	return categoryEntity{
		ID:        string(c.ID),
		Name:      c.Name,
		Domains:   string(b),
		CreatedAt: c.CreatedAt.Unix(),
		UpdatedAt: c.UpdatedAt.Unix(),
	}, nil
}

func mapToExistingCategoryRecord(e categoryEntity) (focusmomo.ExistingCategoryRecord, error) {
	var domains []string
	if err := json.Unmarshal([]byte(e.Domains), &domains); err != nil {
		return focusmomo.ExistingCategoryRecord{}, fmt.Errorf("decode domains of %s: %w", e.ID, err)
	}
	return focusmomo.ExistingCategoryRecord{
		ExistingRecord: focusmomo.ExistingRecord[focusmomo.CategoryID]{
			ID:        focusmomo.CategoryID(e.ID),
			CreatedAt: time.Unix(e.CreatedAt, 0),
			UpdatedAt: time.Unix(e.UpdatedAt, 0),
		},
		CategoryRecord: focusmomo.CategoryRecord{
			Name:    e.Name,
			Domains: domains,
		},
	}, nil
}

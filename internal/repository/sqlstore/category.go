package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/Kerhoff/wishbot/internal/models"
)

var categoryColumns = []string{"id", "household_id", "name", "slug", "position", "created_at"}

type categoryRepository struct {
	conn
}

func (r *categoryRepository) CreateDefaults(ctx context.Context, householdID int64, seeds []models.CategorySeed) error {
	if len(seeds) == 0 {
		return nil
	}

	now := time.Now().UTC()
	insert := r.sb.Insert("categories").Columns("household_id", "name", "slug", "position", "created_at")
	for i, seed := range seeds {
		insert = insert.Values(householdID, seed.Name, seed.Slug, i, now)
	}

	query, args, err := insert.Suffix("ON CONFLICT (household_id, slug) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("failed to build category insert: %w", err)
	}

	if _, err := r.ext.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	return nil
}

func (r *categoryRepository) CountByHousehold(ctx context.Context, householdID int64) (int, error) {
	query, args, err := r.sb.Select("COUNT(*)").
		From("categories").
		Where(sq.Eq{"household_id": householdID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build category count: %w", err)
	}

	var count int
	if err := sqlx.GetContext(ctx, r.ext, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return count, nil
}

func (r *categoryRepository) ListByHousehold(ctx context.Context, householdID int64) ([]*models.Category, error) {
	query, args, err := r.sb.Select(categoryColumns...).
		From("categories").
		Where(sq.Eq{"household_id": householdID}).
		OrderBy("position ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build category list query: %w", err)
	}

	var categories []*models.Category
	if err := sqlx.SelectContext(ctx, r.ext, &categories, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	query, args, err := r.sb.Select(categoryColumns...).From("categories").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build category query: %w", err)
	}

	category := &models.Category{}
	if err := sqlx.GetContext(ctx, r.ext, category, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

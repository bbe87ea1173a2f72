package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/Kerhoff/wishbot/internal/models"
	"github.com/Kerhoff/wishbot/internal/repository"
)

var itemColumns = []string{
	"id", "household_id", "category_id", "title", "price", "status",
	"created_by_id", "created_at", "updated_at",
}

type itemRepository struct {
	conn
}

func (r *itemRepository) Create(ctx context.Context, item *models.Item) (*models.Item, error) {
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.Status == "" {
		item.Status = models.ItemStatusActive
	}

	query, args, err := r.sb.Insert("items").
		Columns("household_id", "category_id", "title", "price", "status", "created_by_id", "created_at", "updated_at").
		Values(item.HouseholdID, item.CategoryID, item.Title, item.Price, string(item.Status),
			item.CreatedByID, item.CreatedAt, item.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build item insert: %w", err)
	}

	if err := sqlx.GetContext(ctx, r.ext, &item.ID, query, args...); err != nil {
		return nil, wrapWriteErr("failed to create item", err)
	}

	return item, nil
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (*models.Item, error) {
	query, args, err := r.sb.Select(itemColumns...).From("items").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build item query: %w", err)
	}

	item := &models.Item{}
	if err := sqlx.GetContext(ctx, r.ext, item, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func (r *itemRepository) List(ctx context.Context, filters repository.ItemFilters) ([]*models.Item, error) {
	builder := r.sb.Select(itemColumns...).
		From("items").
		Where(sq.Eq{"household_id": filters.HouseholdID})

	if len(filters.Statuses) > 0 {
		statuses := make([]string, len(filters.Statuses))
		for i, s := range filters.Statuses {
			statuses[i] = string(s)
		}
		builder = builder.Where(sq.Eq{"status": statuses})
	}

	if filters.CategoryID != nil {
		if *filters.CategoryID == 0 {
			builder = builder.Where(sq.Eq{"category_id": nil})
		} else {
			builder = builder.Where(sq.Eq{"category_id": *filters.CategoryID})
		}
	}

	builder = builder.OrderBy("id ASC")
	if filters.Limit > 0 {
		builder = builder.Limit(uint64(filters.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build item list query: %w", err)
	}

	var items []*models.Item
	if err := sqlx.SelectContext(ctx, r.ext, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

func (r *itemRepository) UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) error {
	_, err := r.update(ctx, id, sq.Eq{"price": price}, nil)
	if err != nil {
		return fmt.Errorf("failed to update item price: %w", err)
	}
	return nil
}

func (r *itemRepository) UpdateCategory(ctx context.Context, id int64, categoryID *int64) error {
	_, err := r.update(ctx, id, sq.Eq{"category_id": categoryID}, nil)
	if err != nil {
		return fmt.Errorf("failed to update item category: %w", err)
	}
	return nil
}

func (r *itemRepository) SetStatus(ctx context.Context, id int64, status models.ItemStatus, from ...models.ItemStatus) (bool, error) {
	var where sq.Sqlizer
	if len(from) > 0 {
		current := make([]string, len(from))
		for i, st := range from {
			current[i] = string(st)
		}
		where = sq.Eq{"status": current}
	}
	ok, err := r.update(ctx, id, sq.Eq{"status": string(status)}, where)
	if err != nil {
		return false, fmt.Errorf("failed to update item status: %w", err)
	}
	return ok, nil
}

// update writes the given columns and refreshes updated_at. It reports
// whether a row matched id and the optional extra condition.
func (r *itemRepository) update(ctx context.Context, id int64, columns sq.Eq, where sq.Sqlizer) (bool, error) {
	b := r.sb.Update("items").
		SetMap(columns).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id})
	if where != nil {
		b = b.Where(where)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return false, err
	}
	res, err := r.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

func (r *itemRepository) SumActive(ctx context.Context, householdID int64) (decimal.Decimal, error) {
	query, args, err := r.sb.Select("COALESCE(SUM(price), 0)").
		From("items").
		Where(sq.Eq{"household_id": householdID, "status": string(models.ItemStatusActive)}).
		ToSql()
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build item sum query: %w", err)
	}

	var sum decimal.Decimal
	if err := sqlx.GetContext(ctx, r.ext, &sum, query, args...); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum active items: %w", err)
	}
	return sum, nil
}

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
)

var householdColumns = []string{"id", "name", "budget", "invite_code", "created_at", "updated_at"}

type householdRepository struct {
	conn
}

func (r *householdRepository) Create(ctx context.Context, household *models.Household) (*models.Household, error) {
	now := time.Now().UTC()
	household.CreatedAt = now
	household.UpdatedAt = now

	query, args, err := r.sb.Insert("households").
		Columns("name", "budget", "invite_code", "created_at", "updated_at").
		Values(household.Name, household.Budget, household.InviteCode, household.CreatedAt, household.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build household insert: %w", err)
	}

	if err := sqlx.GetContext(ctx, r.ext, &household.ID, query, args...); err != nil {
		return nil, wrapWriteErr("failed to create household", err)
	}

	return household, nil
}

func (r *householdRepository) GetByID(ctx context.Context, id int64) (*models.Household, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

func (r *householdRepository) GetByInviteCode(ctx context.Context, code string) (*models.Household, error) {
	return r.getOne(ctx, sq.Eq{"invite_code": code})
}

func (r *householdRepository) getOne(ctx context.Context, where sq.Eq) (*models.Household, error) {
	query, args, err := r.sb.Select(householdColumns...).From("households").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build household query: %w", err)
	}

	household := &models.Household{}
	if err := sqlx.GetContext(ctx, r.ext, household, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get household: %w", err)
	}

	return household, nil
}

func (r *householdRepository) UpdateBudget(ctx context.Context, id int64, budget decimal.Decimal) error {
	query, args, err := r.sb.Update("households").
		Set("budget", budget).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build budget update: %w", err)
	}

	if _, err := r.ext.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update household budget: %w", err)
	}
	return nil
}

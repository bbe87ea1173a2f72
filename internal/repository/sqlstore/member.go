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

var memberColumns = []string{
	"id", "telegram_id", "telegram_username", "first_name", "last_name",
	"household_id", "created_at", "updated_at",
}

type memberRepository struct {
	conn
}

func (r *memberRepository) CreateIfAbsent(ctx context.Context, member *models.Member) (*models.Member, error) {
	now := time.Now().UTC()
	member.CreatedAt = now
	member.UpdatedAt = now

	query, args, err := r.sb.Insert("members").
		Columns("telegram_id", "telegram_username", "first_name", "last_name", "created_at", "updated_at").
		Values(member.TelegramID, member.TelegramUsername, member.FirstName, member.LastName, member.CreatedAt, member.UpdatedAt).
		Suffix("ON CONFLICT (telegram_id) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build member insert: %w", err)
	}

	if err := sqlx.GetContext(ctx, r.ext, &member.ID, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Somebody else inserted this Telegram ID first.
			return nil, nil
		}
		return nil, wrapWriteErr("failed to create member", err)
	}

	return member, nil
}

func (r *memberRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.Member, error) {
	return r.getOne(ctx, sq.Eq{"telegram_id": telegramID})
}

func (r *memberRepository) GetByID(ctx context.Context, id int64) (*models.Member, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

func (r *memberRepository) getOne(ctx context.Context, where sq.Eq) (*models.Member, error) {
	query, args, err := r.sb.Select(memberColumns...).From("members").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build member query: %w", err)
	}

	member := &models.Member{}
	if err := sqlx.GetContext(ctx, r.ext, member, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

func (r *memberRepository) UpdateProfile(ctx context.Context, member *models.Member) (*models.Member, error) {
	member.UpdatedAt = time.Now().UTC()

	query, args, err := r.sb.Update("members").
		Set("telegram_username", member.TelegramUsername).
		Set("first_name", member.FirstName).
		Set("last_name", member.LastName).
		Set("updated_at", member.UpdatedAt).
		Where(sq.Eq{"id": member.ID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build member update: %w", err)
	}

	if _, err := r.ext.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}

	return member, nil
}

func (r *memberRepository) SetHousehold(ctx context.Context, memberID, householdID int64) (bool, error) {
	query, args, err := r.sb.Update("members").
		Set("household_id", householdID).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": memberID, "household_id": nil}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build member household update: %w", err)
	}

	res, err := r.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to attach member to household: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

func (r *memberRepository) ListByHousehold(ctx context.Context, householdID int64) ([]*models.Member, error) {
	query, args, err := r.sb.Select(memberColumns...).
		From("members").
		Where(sq.Eq{"household_id": householdID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build member list query: %w", err)
	}

	var members []*models.Member
	if err := sqlx.SelectContext(ctx, r.ext, &members, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list household members: %w", err)
	}

	return members, nil
}

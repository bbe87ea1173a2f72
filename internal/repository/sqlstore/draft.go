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

var draftColumns = []string{
	"id", "member_id", "household_id", "stage", "title", "photo_file_id", "item_id", "created_at",
}

type draftRepository struct {
	conn
}

func (r *draftRepository) Create(ctx context.Context, draft *models.Draft) (*models.Draft, error) {
	draft.CreatedAt = time.Now().UTC()

	query, args, err := r.sb.Insert("pending_drafts").
		Columns("member_id", "household_id", "stage", "title", "photo_file_id", "item_id", "created_at").
		Values(draft.MemberID, draft.HouseholdID, string(draft.Stage), draft.Title, draft.PhotoFileID,
			draft.ItemID, draft.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build draft insert: %w", err)
	}

	if err := sqlx.GetContext(ctx, r.ext, &draft.ID, query, args...); err != nil {
		return nil, wrapWriteErr("failed to create draft", err)
	}
	return draft, nil
}

func (r *draftRepository) GetByMember(ctx context.Context, memberID int64) (*models.Draft, error) {
	query, args, err := r.sb.Select(draftColumns...).
		From("pending_drafts").
		Where(sq.Eq{"member_id": memberID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build draft query: %w", err)
	}

	draft := &models.Draft{}
	if err := sqlx.GetContext(ctx, r.ext, draft, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return draft, nil
}

func (r *draftRepository) Advance(ctx context.Context, draft *models.Draft, from models.DraftStage) (bool, error) {
	query, args, err := r.sb.Update("pending_drafts").
		Set("stage", string(draft.Stage)).
		Set("title", draft.Title).
		Set("photo_file_id", draft.PhotoFileID).
		Set("item_id", draft.ItemID).
		Where(sq.Eq{"id": draft.ID, "stage": string(from)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build draft update: %w", err)
	}

	res, err := r.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to advance draft: %w", err)
	}
	return affectedOne(res)
}

func (r *draftRepository) DeleteAtStage(ctx context.Context, id int64, stage models.DraftStage) (bool, error) {
	query, args, err := r.sb.Delete("pending_drafts").
		Where(sq.Eq{"id": id, "stage": string(stage)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build draft delete: %w", err)
	}

	res, err := r.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to delete draft: %w", err)
	}
	return affectedOne(res)
}

func (r *draftRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.sb.Delete("pending_drafts").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build draft delete: %w", err)
	}

	if _, err := r.ext.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

func (r *draftRepository) DeleteByMember(ctx context.Context, memberID int64) (int64, error) {
	query, args, err := r.sb.Delete("pending_drafts").Where(sq.Eq{"member_id": memberID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build draft purge: %w", err)
	}

	res, err := r.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to purge member drafts: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

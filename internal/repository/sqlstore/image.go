package sqlstore

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/Kerhoff/wishbot/internal/models"
)

type imageRepository struct {
	conn
}

func (r *imageRepository) Create(ctx context.Context, image *models.ItemImage) (*models.ItemImage, error) {
	image.CreatedAt = time.Now().UTC()

	query, args, err := r.sb.Insert("item_images").
		Columns("item_id", "file_id", "created_at").
		Values(image.ItemID, image.FileID, image.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build image insert: %w", err)
	}

	if err := sqlx.GetContext(ctx, r.ext, &image.ID, query, args...); err != nil {
		return nil, wrapWriteErr("failed to create item image", err)
	}
	return image, nil
}

func (r *imageRepository) ListByItem(ctx context.Context, itemID int64) ([]*models.ItemImage, error) {
	query, args, err := r.sb.Select("id", "item_id", "file_id", "created_at").
		From("item_images").
		Where(sq.Eq{"item_id": itemID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build image list query: %w", err)
	}

	var images []*models.ItemImage
	if err := sqlx.SelectContext(ctx, r.ext, &images, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list item images: %w", err)
	}
	return images, nil
}

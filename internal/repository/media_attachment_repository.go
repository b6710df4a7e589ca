package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/openpost/composer/internal/models"
)

type MediaAttachmentRepository interface {
	Create(ctx context.Context, tx *sql.Tx, ma *models.MediaAttachment) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.MediaAttachment, error)
	ListByOwner(ctx context.Context, kind models.OwnerKind, ownerID int64) ([]*models.MediaAttachment, error)
	Attach(ctx context.Context, tx *sql.Tx, id int64, kind models.OwnerKind, ownerID int64, displayOrder int) error
	Detach(ctx context.Context, id int64) error
	Remove(ctx context.Context, id int64) error
}

type mediaAttachmentRepository struct {
	db *sql.DB
}

func NewMediaAttachmentRepository(db *sql.DB) MediaAttachmentRepository {
	return &mediaAttachmentRepository{db: db}
}

const mediaColumns = "id, user_id, file_name, file_type, file_size, file_url, preview_url, owner_kind, owner_id, display_order, created_at"

func scanMedia(row interface{ Scan(...interface{}) error }) (*models.MediaAttachment, error) {
	var ma models.MediaAttachment
	err := row.Scan(&ma.ID, &ma.UserID, &ma.FileName, &ma.FileType, &ma.FileSize,
		&ma.FileURL, &ma.PreviewURL, &ma.OwnerKind, &ma.OwnerID, &ma.DisplayOrder, &ma.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ma, nil
}

func (r *mediaAttachmentRepository) Create(ctx context.Context, tx *sql.Tx, ma *models.MediaAttachment) (int64, error) {
	query := `
		INSERT INTO media_attachments (user_id, file_name, file_type, file_size, file_url, preview_url, owner_kind, owner_id, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, ma.UserID, ma.FileName, ma.FileType, ma.FileSize, ma.FileURL, ma.PreviewURL, ma.OwnerKind, ma.OwnerID, ma.DisplayOrder).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, ma.UserID, ma.FileName, ma.FileType, ma.FileSize, ma.FileURL, ma.PreviewURL, ma.OwnerKind, ma.OwnerID, ma.DisplayOrder).Scan(&id)
	}

	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *mediaAttachmentRepository) GetByID(ctx context.Context, id int64) (*models.MediaAttachment, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_attachments WHERE id = $1`
	ma, err := scanMedia(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return ma, nil
}

func (r *mediaAttachmentRepository) ListByOwner(ctx context.Context, kind models.OwnerKind, ownerID int64) ([]*models.MediaAttachment, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_attachments WHERE owner_kind = $1 AND owner_id = $2 ORDER BY display_order`
	rows, err := r.db.QueryContext(ctx, query, kind, ownerID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var attachments []*models.MediaAttachment
	for rows.Next() {
		ma, err := scanMedia(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		attachments = append(attachments, ma)
	}
	return attachments, rows.Err()
}

func (r *mediaAttachmentRepository) Attach(ctx context.Context, tx *sql.Tx, id int64, kind models.OwnerKind, ownerID int64, displayOrder int) error {
	query := `UPDATE media_attachments SET owner_kind = $1, owner_id = $2, display_order = $3 WHERE id = $4`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, kind, ownerID, displayOrder, id)
	} else {
		_, err = r.db.ExecContext(ctx, query, kind, ownerID, displayOrder, id)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *mediaAttachmentRepository) Detach(ctx context.Context, id int64) error {
	query := `UPDATE media_attachments SET owner_kind = '', owner_id = NULL, display_order = 0 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *mediaAttachmentRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM media_attachments WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

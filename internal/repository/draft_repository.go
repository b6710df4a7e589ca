package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/openpost/composer/internal/models"
)

type DraftRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Draft, error)
	Create(ctx context.Context, tx *sql.Tx, draft *models.Draft) (int64, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.Draft, error)
	Update(ctx context.Context, draft *models.Draft) error
	CheckByUserID(ctx context.Context, draftID, userID int64) (bool, error)
	Remove(ctx context.Context, id int64) error
}

type draftRepository struct {
	db *sql.DB
}

func NewDraftRepository(db *sql.DB) DraftRepository {
	return &draftRepository{db: db}
}

const draftColumns = "id, user_id, content, selections, is_thread, created_at, updated_at"

func scanDraft(row interface{ Scan(...interface{}) error }) (*models.Draft, error) {
	var draft models.Draft
	err := row.Scan(&draft.ID, &draft.UserID, &draft.Content, &draft.Selections,
		&draft.IsThread, &draft.CreatedAt, &draft.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *draftRepository) Create(ctx context.Context, tx *sql.Tx, draft *models.Draft) (int64, error) {
	query := `
		INSERT INTO drafts (user_id, content, selections, is_thread)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, draft.UserID, draft.Content, draft.Selections, draft.IsThread).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, draft.UserID, draft.Content, draft.Selections, draft.IsThread).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *draftRepository) GetByID(ctx context.Context, id int64) (*models.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE id = $1`
	draft, err := scanDraft(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return draft, nil
}

func (r *draftRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE user_id = $1 ORDER BY updated_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var drafts []*models.Draft
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		drafts = append(drafts, draft)
	}
	return drafts, rows.Err()
}

func (r *draftRepository) Update(ctx context.Context, draft *models.Draft) error {
	query := `
		UPDATE drafts
		SET content = $1,
			selections = $2,
			is_thread = $3,
			updated_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, draft.Content, draft.Selections, draft.IsThread, time.Now(), draft.ID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *draftRepository) CheckByUserID(ctx context.Context, draftID, userID int64) (bool, error) {
	query := "SELECT 1 FROM drafts WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, draftID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *draftRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM drafts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)

	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

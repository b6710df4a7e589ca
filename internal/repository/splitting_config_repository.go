package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/openpost/composer/internal/models"
)

type SplittingConfigRepository interface {
	GetByID(ctx context.Context, id int64) (*models.SplittingConfiguration, error)
	Create(ctx context.Context, sc *models.SplittingConfiguration) (int64, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.SplittingConfiguration, error)
	Update(ctx context.Context, sc *models.SplittingConfiguration) error
	CheckByUserID(ctx context.Context, configID, userID int64) (bool, error)
	Remove(ctx context.Context, id int64) error
}

type splittingConfigRepository struct {
	db *sql.DB
}

func NewSplittingConfigRepository(db *sql.DB) SplittingConfigRepository {
	return &splittingConfigRepository{db: db}
}

const splittingConfigColumns = "id, user_id, name, strategies, created_at, updated_at"

func scanSplittingConfig(row interface{ Scan(...interface{}) error }) (*models.SplittingConfiguration, error) {
	var sc models.SplittingConfiguration
	err := row.Scan(&sc.ID, &sc.UserID, &sc.Name, &sc.Strategies, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

func (r *splittingConfigRepository) Create(ctx context.Context, sc *models.SplittingConfiguration) (int64, error) {
	query := `
		INSERT INTO splitting_configurations (user_id, name, strategies)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, sc.UserID, sc.Name, sc.Strategies).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *splittingConfigRepository) GetByID(ctx context.Context, id int64) (*models.SplittingConfiguration, error) {
	query := `SELECT ` + splittingConfigColumns + ` FROM splitting_configurations WHERE id = $1`
	sc, err := scanSplittingConfig(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return sc, nil
}

func (r *splittingConfigRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.SplittingConfiguration, error) {
	query := `SELECT ` + splittingConfigColumns + ` FROM splitting_configurations WHERE user_id = $1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var configs []*models.SplittingConfiguration
	for rows.Next() {
		sc, err := scanSplittingConfig(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		configs = append(configs, sc)
	}
	return configs, rows.Err()
}

func (r *splittingConfigRepository) Update(ctx context.Context, sc *models.SplittingConfiguration) error {
	query := `
		UPDATE splitting_configurations
		SET name = $1,
			strategies = $2,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, sc.Name, sc.Strategies, time.Now(), sc.ID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *splittingConfigRepository) CheckByUserID(ctx context.Context, configID, userID int64) (bool, error) {
	query := "SELECT 1 FROM splitting_configurations WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, configID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *splittingConfigRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM splitting_configurations WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

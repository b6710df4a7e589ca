package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openpost/composer/internal/compose"
	"github.com/openpost/composer/internal/models"
	"github.com/openpost/composer/internal/repository"
	"github.com/openpost/composer/internal/splitter"
	"github.com/openpost/composer/internal/transfer"
)

type SplittingService interface {
	Create(ctx context.Context, userID int64, save *transfer.SplittingConfigSave) (int64, error)
	Update(ctx context.Context, userID, configID int64, save *transfer.SplittingConfigSave) error
	List(ctx context.Context, userID int64) ([]*models.SplittingConfiguration, error)
	Preview(ctx context.Context, userID int64, req *transfer.SplitPreviewRequest) ([]string, error)
	Remove(ctx context.Context, userID, configID int64) error
}

type splittingService struct {
	sc repository.SplittingConfigRepository
	sp splitter.Splitter
}

func NewSplittingService(sc repository.SplittingConfigRepository, sp splitter.Splitter) SplittingService {
	return &splittingService{
		sc: sc,
		sp: sp,
	}
}

func (s *splittingService) Create(ctx context.Context, userID int64, save *transfer.SplittingConfigSave) (int64, error) {
	config, err := s.validateConfig(userID, save)
	if err != nil {
		return 0, err
	}

	id, err := s.sc.Create(ctx, config)
	if err != nil {
		return 0, fmt.Errorf("error saving splitting configuration: %w", err)
	}
	return id, nil
}

func (s *splittingService) Update(ctx context.Context, userID, configID int64, save *transfer.SplittingConfigSave) error {
	isValid, err := s.sc.CheckByUserID(ctx, configID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		err = errors.New("splitting configuration doesn't exist")
		slog.Info(err.Error())
		return err
	}

	config, err := s.validateConfig(userID, save)
	if err != nil {
		return err
	}
	config.ID = configID

	return s.sc.Update(ctx, config)
}

func (s *splittingService) validateConfig(userID int64, save *transfer.SplittingConfigSave) (*models.SplittingConfiguration, error) {
	if save == nil {
		err := errors.New("splitting configuration data is nil")
		slog.Error(err.Error())
		return nil, err
	}
	if save.Name == "" {
		err := compose.NewValidationError("name", "name cannot be empty")
		slog.Info(err.Error())
		return nil, err
	}

	strategies, err := compose.ParseStrategies(save.Strategies)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	encoded, err := json.Marshal(strategies)
	if err != nil {
		return nil, fmt.Errorf("error encoding strategies: %w", err)
	}

	return &models.SplittingConfiguration{
		UserID:     userID,
		Name:       save.Name,
		Strategies: encoded,
	}, nil
}

func (s *splittingService) List(ctx context.Context, userID int64) ([]*models.SplittingConfiguration, error) {
	configs, err := s.sc.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing splitting configurations")
	}
	return configs, nil
}

// Preview runs the splitting collaborator over the given content with the
// stored strategy list and returns the fragments without persisting anything.
func (s *splittingService) Preview(ctx context.Context, userID int64, req *transfer.SplitPreviewRequest) ([]string, error) {
	if req == nil || req.Content == "" {
		err := compose.NewValidationError("content", "content cannot be empty")
		slog.Info(err.Error())
		return nil, err
	}

	config, err := s.sc.GetByID(ctx, req.ConfigID)
	if err != nil {
		return nil, err
	}
	if config == nil || config.UserID != userID {
		err = errors.New("splitting configuration doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	var tags []string
	if err := json.Unmarshal(config.Strategies, &tags); err != nil {
		return nil, fmt.Errorf("error decoding strategies: %w", err)
	}
	strategies, err := compose.ParseStrategies(tags)
	if err != nil {
		return nil, err
	}

	return s.sp.Split(ctx, req.Content, req.PlatformID, strategies)
}

func (s *splittingService) Remove(ctx context.Context, userID, configID int64) error {
	isValid, err := s.sc.CheckByUserID(ctx, configID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		err = errors.New("splitting configuration doesn't exist")
		slog.Info(err.Error())
		return err
	}

	return s.sc.Remove(ctx, configID)
}

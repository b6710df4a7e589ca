package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	config "github.com/openpost/composer/configs"
	"github.com/openpost/composer/internal/compose"
	"github.com/openpost/composer/internal/models"
	"github.com/openpost/composer/internal/repository"
)

const THREADS_AUTH_URL = "https://threads.net/oauth/authorize"

type PlatformService interface {
	GetAuthURL(ctx context.Context, platform, instanceURL, tokenString string) string
	List(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	Disable(ctx context.Context, userID, accountID int64) error
	Delete(ctx context.Context, userID, accountID int64) error
}

type platformService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewPlatformService(cfg config.Config, sa repository.SocialAccountRepository) PlatformService {
	return &platformService{
		cfg: cfg,
		sa:  sa,
	}
}

// GetAuthURL builds the authorization URL for OAuth platforms. Bluesky
// links through an app password instead and has no URL here.
func (s *platformService) GetAuthURL(ctx context.Context, platform, instanceURL, tokenString string) string {
	switch platform {
	case compose.PlatformMastodon:
		if instanceURL == "" {
			return ""
		}
		authURL := strings.TrimSuffix(instanceURL, "/") + "/oauth/authorize"
		params := url.Values{}
		params.Add("client_id", s.cfg.MastodonClientID)
		params.Add("scope", "read write")
		params.Add("response_type", "code")
		params.Add("redirect_uri", s.cfg.MastodonRedirectURI)
		params.Add("state", tokenString)

		return fmt.Sprintf("%s?%s", authURL, params.Encode())

	case compose.PlatformThreads:
		params := url.Values{}
		params.Add("client_id", s.cfg.ThreadsClientID)
		params.Add("scope", "threads_basic,threads_content_publish")
		params.Add("response_type", "code")
		params.Add("redirect_uri", s.cfg.ThreadsRedirectURI)
		params.Add("state", tokenString)

		return fmt.Sprintf("%s?%s", THREADS_AUTH_URL, params.Encode())

	default:
		return ""
	}
}

func (s *platformService) List(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	accounts, err := s.sa.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing social accounts")
	}
	return accounts, nil
}

func (s *platformService) Disable(ctx context.Context, userID, accountID int64) error {
	if err := s.ownedAccount(ctx, userID, accountID); err != nil {
		return err
	}
	return s.sa.SetStatus(ctx, accountID, models.AccountStatusDisabled)
}

func (s *platformService) Delete(ctx context.Context, userID, accountID int64) error {
	if err := s.ownedAccount(ctx, userID, accountID); err != nil {
		return err
	}
	return s.sa.Remove(ctx, accountID)
}

func (s *platformService) ownedAccount(ctx context.Context, userID, accountID int64) error {
	isValid, err := s.sa.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		err = errors.New("social account doesn't exist")
		slog.Info(err.Error())
		return err
	}
	return nil
}

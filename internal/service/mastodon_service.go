package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	config "github.com/openpost/composer/configs"
	"github.com/openpost/composer/internal/compose"
	"github.com/openpost/composer/internal/models"
	"github.com/openpost/composer/internal/repository"
	"github.com/openpost/composer/internal/transfer"
	"github.com/openpost/composer/pkg/utils"
)

type MastodonService interface {
	MastodonCallback(ctx context.Context, code, instanceURL string, userID int64) error
	RefreshMastodonToken(ctx context.Context, acc *models.SocialAccount) error
	PublishPost(ctx context.Context, content string, acc *models.SocialAccount, root, parent *transfer.PublishRef) (*transfer.PublishRef, error)
}

type mastodonService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewMastodonService(cfg config.Config, sa repository.SocialAccountRepository) MastodonService {
	return &mastodonService{
		cfg: cfg,
		sa:  sa,
	}
}

func (s *mastodonService) MastodonCallback(ctx context.Context, code, instanceURL string, userID int64) error {
	if code == "" || instanceURL == "" {
		err := errors.New("code or instance is empty")
		slog.Info(err.Error())
		return err
	}
	instanceURL = strings.TrimSuffix(instanceURL, "/")

	tokenResponse, err := s.exchangeCodeForToken(code, instanceURL)
	if err != nil {
		return err
	}

	account, err := s.verifyCredentials(instanceURL, tokenResponse.AccessToken)
	if err != nil {
		return err
	}

	if err := validateLinkedAccount(compose.PlatformMastodon, account.Username, tokenResponse.AccessToken); err != nil {
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(tokenResponse.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	accountInfo := &models.SocialAccount{
		UserID:          userID,
		Platform:        compose.PlatformMastodon,
		AccountID:       account.ID,
		AccountName:     account.DisplayName,
		AccountUsername: account.Username,
		ProfilePicture:  account.Avatar,
		InstanceURL:     instanceURL,
		AccessToken:     encryptedAccessToken,
	}

	_, err = s.sa.Create(ctx, nil, accountInfo)
	if err != nil {
		return err
	}

	return nil
}

func (s *mastodonService) exchangeCodeForToken(code, instanceURL string) (*transfer.MastodonTokenResponse, error) {
	data := url.Values{}
	data.Add("client_id", s.cfg.MastodonClientID)
	data.Add("client_secret", s.cfg.MastodonClientSecret)
	data.Add("code", code)
	data.Add("grant_type", "authorization_code")
	data.Add("redirect_uri", s.cfg.MastodonRedirectURI)
	data.Add("scope", "read write")

	resp, err := http.Post(
		instanceURL+"/oauth/token",
		"application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Info("Mastodon token endpoint returned non-200 status")
		return nil, errors.New("Mastodon token endpoint returned non-200 status")
	}

	var tokenResponse transfer.MastodonTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	return &tokenResponse, nil
}

func (s *mastodonService) verifyCredentials(instanceURL, accessToken string) (*transfer.MastodonAccount, error) {
	req, err := http.NewRequest("GET", instanceURL+"/api/v1/accounts/verify_credentials", nil)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("Mastodon verify_credentials returned non-200 status")
	}

	var account transfer.MastodonAccount
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &account, nil
}

// RefreshMastodonToken is a no-op for instances whose tokens do not expire;
// instances that hand out expiring tokens get a refresh_token grant.
func (s *mastodonService) RefreshMastodonToken(ctx context.Context, acc *models.SocialAccount) error {
	if acc.RefreshToken == "" {
		return nil
	}

	refreshToken, err := utils.Decrypt(acc.RefreshToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	data := url.Values{}
	data.Add("client_id", s.cfg.MastodonClientID)
	data.Add("client_secret", s.cfg.MastodonClientSecret)
	data.Add("grant_type", "refresh_token")
	data.Add("refresh_token", refreshToken)

	resp, err := http.Post(
		acc.InstanceURL+"/oauth/token",
		"application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New("Mastodon token refresh returned non-200 status")
	}

	var tokenResponse transfer.MastodonTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		slog.Info(err.Error())
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(tokenResponse.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	return s.sa.SetTokens(ctx, acc.ID, encryptedAccessToken, acc.RefreshToken, acc.TokenExpiresAt)
}

// PublishPost creates a status on the account's home instance. A parent ref
// chains the status into the previous thread part via in_reply_to_id.
func (s *mastodonService) PublishPost(ctx context.Context, content string, acc *models.SocialAccount, root, parent *transfer.PublishRef) (*transfer.PublishRef, error) {
	accessToken, err := utils.Decrypt(acc.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	data := url.Values{}
	data.Add("status", content)
	if parent != nil {
		data.Add("in_reply_to_id", parent.ID)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", acc.InstanceURL+"/api/v1/statuses", strings.NewReader(data.Encode()))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp transfer.MastodonErrorResponse
		json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("mastodon publish failed: %s", errResp.Error)
	}

	var status transfer.MastodonStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &transfer.PublishRef{ID: status.ID}, nil
}

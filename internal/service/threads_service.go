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

const threadsGraphURL = "https://graph.threads.net/v1.0"

type ThreadsService interface {
	ThreadsCallback(ctx context.Context, code string, userID int64) error
	RefreshThreadsToken(ctx context.Context, acc *models.SocialAccount) error
	PublishPost(ctx context.Context, content string, acc *models.SocialAccount, root, parent *transfer.PublishRef) (*transfer.PublishRef, error)
}

type threadsService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewThreadsService(cfg config.Config, sa repository.SocialAccountRepository) ThreadsService {
	return &threadsService{
		cfg: cfg,
		sa:  sa,
	}
}

func (s *threadsService) ThreadsCallback(ctx context.Context, code string, userID int64) error {
	if code == "" {
		err := errors.New("code or state is empty")
		slog.Info(err.Error())
		return err
	}

	tokenResponse, err := s.exchangeCodeForToken(code)
	if err != nil {
		return err
	}

	userInfo, err := threadsUserInfo(tokenResponse.AccessToken)
	if err != nil {
		return err
	}

	if err := validateLinkedAccount(compose.PlatformThreads, userInfo.Username, tokenResponse.AccessToken); err != nil {
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(tokenResponse.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	accountInfo := &models.SocialAccount{
		UserID:          userID,
		Platform:        compose.PlatformThreads,
		AccountID:       userInfo.UserID,
		AccountName:     userInfo.Name,
		AccountUsername: userInfo.Username,
		ProfilePicture:  userInfo.ProfilePicture,
		AccessToken:     encryptedAccessToken,
		TokenExpiresAt:  GetExpiresAt(tokenResponse.ExpiresIn),
	}

	_, err = s.sa.Create(ctx, nil, accountInfo)
	if err != nil {
		return err
	}

	return nil
}

func (s *threadsService) exchangeCodeForToken(code string) (*transfer.ThreadsTokenResponse, error) {
	data := url.Values{}
	data.Add("client_id", s.cfg.ThreadsClientID)
	data.Add("client_secret", s.cfg.ThreadsClientSecret)
	data.Add("code", code)
	data.Add("grant_type", "authorization_code")
	data.Add("redirect_uri", s.cfg.ThreadsRedirectURI)

	resp, err := http.Post(
		threadsGraphURL+"/oauth/access_token",
		"application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Info("Threads token endpoint returned non-200 status")
		return nil, errors.New("Threads token endpoint returned non-200 status")
	}

	var tokenResponse transfer.ThreadsTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	return &tokenResponse, nil
}

func threadsUserInfo(accessToken string) (*transfer.ThreadsUserInfo, error) {
	infoURL := threadsGraphURL + "/me?fields=id,username,name,threads_profile_picture_url"

	req, err := http.NewRequest("GET", infoURL, nil)
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
		return nil, errors.New("Threads user info returned non-200 status")
	}

	var userInfo transfer.ThreadsUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &userInfo, nil
}

func (s *threadsService) RefreshThreadsToken(ctx context.Context, acc *models.SocialAccount) error {
	accessToken, err := utils.Decrypt(acc.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	refreshURL := fmt.Sprintf("%s/refresh_access_token?grant_type=th_refresh_token&access_token=%s",
		threadsGraphURL, url.QueryEscape(accessToken))

	resp, err := http.Get(refreshURL)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New("Threads token refresh returned non-200 status")
	}

	var tokenResponse transfer.ThreadsTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		slog.Info(err.Error())
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(tokenResponse.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	return s.sa.SetTokens(ctx, acc.ID, encryptedAccessToken, acc.RefreshToken, GetExpiresAt(tokenResponse.ExpiresIn))
}

// PublishPost uses the two-step Graph flow: create a media container, then
// publish it. A parent ref makes the container a reply to the previous
// thread part.
func (s *threadsService) PublishPost(ctx context.Context, content string, acc *models.SocialAccount, root, parent *transfer.PublishRef) (*transfer.PublishRef, error) {
	accessToken, err := utils.Decrypt(acc.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Add("media_type", "TEXT")
	params.Add("text", content)
	params.Add("access_token", accessToken)
	if parent != nil {
		params.Add("reply_to_id", parent.ID)
	}

	container, err := threadsPost(ctx, fmt.Sprintf("%s/%s/threads", threadsGraphURL, acc.AccountID), params)
	if err != nil {
		return nil, err
	}

	publishParams := url.Values{}
	publishParams.Add("creation_id", container.ID)
	publishParams.Add("access_token", accessToken)

	published, err := threadsPost(ctx, fmt.Sprintf("%s/%s/threads_publish", threadsGraphURL, acc.AccountID), publishParams)
	if err != nil {
		return nil, err
	}

	return &transfer.PublishRef{ID: published.ID}, nil
}

func threadsPost(ctx context.Context, endpoint string, params url.Values) (*transfer.ThreadsContainer, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp transfer.ThreadsErrorResponse
		json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("threads publish failed: %s", errResp.Error.Message)
	}

	var container transfer.ThreadsContainer
	if err := json.NewDecoder(resp.Body).Decode(&container); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &container, nil
}

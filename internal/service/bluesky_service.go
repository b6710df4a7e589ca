package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	config "github.com/openpost/composer/configs"
	"github.com/openpost/composer/internal/compose"
	"github.com/openpost/composer/internal/models"
	"github.com/openpost/composer/internal/repository"
	"github.com/openpost/composer/internal/transfer"
	"github.com/openpost/composer/pkg/utils"
)

// Bluesky sessions are short-lived JWTs; refresh well before the two hour
// access token expiry.
const blueskySessionTTL = 2 * time.Hour

type BlueskyService interface {
	LinkAccount(ctx context.Context, userID int64, handle, appPassword string) error
	RefreshBlueskySession(ctx context.Context, acc *models.SocialAccount) error
	PublishPost(ctx context.Context, content string, acc *models.SocialAccount, root, parent *transfer.PublishRef) (*transfer.PublishRef, error)
}

type blueskyService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewBlueskyService(cfg config.Config, sa repository.SocialAccountRepository) BlueskyService {
	return &blueskyService{
		cfg: cfg,
		sa:  sa,
	}
}

// LinkAccount creates a PDS session from the handle and app password and
// stores the resulting session tokens as the account credentials.
func (s *blueskyService) LinkAccount(ctx context.Context, userID int64, handle, appPassword string) error {
	if handle == "" || appPassword == "" {
		err := errors.New("handle or app password is empty")
		slog.Info(err.Error())
		return err
	}

	session, err := s.createSession(ctx, handle, appPassword)
	if err != nil {
		return err
	}

	profile, err := s.getProfile(ctx, session.AccessJwt, session.DID)
	if err != nil {
		return err
	}

	if err := validateLinkedAccount(compose.PlatformBluesky, session.Handle, session.AccessJwt); err != nil {
		return err
	}

	encryptedAccessJwt, err := utils.Encrypt([]byte(session.AccessJwt), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	encryptedRefreshJwt, err := utils.Encrypt([]byte(session.RefreshJwt), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	accountInfo := &models.SocialAccount{
		UserID:          userID,
		Platform:        compose.PlatformBluesky,
		AccountID:       session.DID,
		AccountName:     profile.DisplayName,
		AccountUsername: session.Handle,
		ProfilePicture:  profile.Avatar,
		InstanceURL:     s.cfg.BlueskyPDSURL,
		AccessToken:     encryptedAccessJwt,
		RefreshToken:    encryptedRefreshJwt,
		TokenExpiresAt:  time.Now().Add(blueskySessionTTL),
	}

	_, err = s.sa.Create(ctx, nil, accountInfo)
	if err != nil {
		return err
	}

	return nil
}

func (s *blueskyService) createSession(ctx context.Context, identifier, password string) (*transfer.BlueskySession, error) {
	body, err := json.Marshal(map[string]string{
		"identifier": identifier,
		"password":   password,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		s.cfg.BlueskyPDSURL+"/xrpc/com.atproto.server.createSession", bytes.NewReader(body))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp transfer.BlueskyError
		json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("bluesky createSession failed: %s", errResp.Message)
	}

	var session transfer.BlueskySession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &session, nil
}

func (s *blueskyService) getProfile(ctx context.Context, accessJwt, actor string) (*transfer.BlueskyProfile, error) {
	req, err := http.NewRequestWithContext(ctx, "GET",
		s.cfg.BlueskyPDSURL+"/xrpc/app.bsky.actor.getProfile?actor="+actor, nil)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessJwt)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("bluesky getProfile returned non-200 status")
	}

	var profile transfer.BlueskyProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &profile, nil
}

func (s *blueskyService) RefreshBlueskySession(ctx context.Context, acc *models.SocialAccount) error {
	refreshJwt, err := utils.Decrypt(acc.RefreshToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		s.cfg.BlueskyPDSURL+"/xrpc/com.atproto.server.refreshSession", nil)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	req.Header.Set("Authorization", "Bearer "+refreshJwt)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New("bluesky refreshSession returned non-200 status")
	}

	var session transfer.BlueskySession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		slog.Info(err.Error())
		return err
	}

	encryptedAccessJwt, err := utils.Encrypt([]byte(session.AccessJwt), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	encryptedRefreshJwt, err := utils.Encrypt([]byte(session.RefreshJwt), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	return s.sa.SetTokens(ctx, acc.ID, encryptedAccessJwt, encryptedRefreshJwt, time.Now().Add(blueskySessionTTL))
}

// PublishPost writes an app.bsky.feed.post record. Root and parent refs
// carry the AT-URIs and CIDs needed to chain thread replies.
func (s *blueskyService) PublishPost(ctx context.Context, content string, acc *models.SocialAccount, root, parent *transfer.PublishRef) (*transfer.PublishRef, error) {
	accessJwt, err := utils.Decrypt(acc.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	record := map[string]interface{}{
		"$type":     "app.bsky.feed.post",
		"text":      content,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
	if root != nil && parent != nil {
		record["reply"] = map[string]interface{}{
			"root":   map[string]string{"uri": root.URI, "cid": root.CID},
			"parent": map[string]string{"uri": parent.URI, "cid": parent.CID},
		}
	}

	body, err := json.Marshal(map[string]interface{}{
		"repo":       acc.AccountID,
		"collection": "app.bsky.feed.post",
		"record":     record,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		s.cfg.BlueskyPDSURL+"/xrpc/com.atproto.repo.createRecord", bytes.NewReader(body))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessJwt)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp transfer.BlueskyError
		json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("bluesky publish failed: %s", errResp.Message)
	}

	var ref transfer.BlueskyRecordRef
	if err := json.NewDecoder(resp.Body).Decode(&ref); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &transfer.PublishRef{ID: ref.URI, URI: ref.URI, CID: ref.CID}, nil
}

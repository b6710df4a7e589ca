package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/openpost/composer/internal/compose"
	"github.com/openpost/composer/internal/models"
	"github.com/openpost/composer/internal/repository"
	"github.com/openpost/composer/internal/service"
)

type TokenRefreshJob struct {
	sr repository.SocialAccountRepository
	bs service.BlueskyService
	ms service.MastodonService
	ts service.ThreadsService
}

func NewTokenRefreshJob(
	sr repository.SocialAccountRepository,
	bs service.BlueskyService,
	ms service.MastodonService,
	ts service.ThreadsService) *TokenRefreshJob {
	return &TokenRefreshJob{
		sr: sr,
		bs: bs,
		ms: ms,
		ts: ts,
	}
}

func (c *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	currentTime := time.Now()
	timeIn30Minutes := currentTime.Add(30 * time.Minute)

	accounts, err := c.sr.ListExpiringBetween(ctx, currentTime, timeIn30Minutes)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, acc := range accounts {

		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.SocialAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			switch acc.Platform {
			case compose.PlatformBluesky:
				if err := c.bs.RefreshBlueskySession(ctx, acc); err != nil {
					slog.Info("Unable to refresh session for Bluesky")
				}

			case compose.PlatformMastodon:
				if err := c.ms.RefreshMastodonToken(ctx, acc); err != nil {
					slog.Info("Unable to refresh token for Mastodon")
				}

			case compose.PlatformThreads:
				if err := c.ts.RefreshThreadsToken(ctx, acc); err != nil {
					slog.Info("Unable to refresh token for Threads")
				}
			}
		}(acc)
	}

	wg.Wait()
}

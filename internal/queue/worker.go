package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/openpost/composer/internal/compose"
	"github.com/openpost/composer/internal/models"
	"github.com/openpost/composer/internal/transfer"
)

func (j *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return j.PublishPost(payload.PostID)
}

// PublishPost pushes a pending post (and its thread children, in order) to
// every selected account. The post moves to published only when every
// account accepted the whole chain.
func (j *Queue) PublishPost(postID int64) error {
	ctx := context.Background()

	post, err := j.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return errors.New("post not found")
	}

	sels, err := compose.ParseSelections(post.Selections, j.reg)
	if err != nil {
		return err
	}

	accountIDs := sels.AccountIDs()
	if len(accountIDs) == 0 {
		return errors.New("no accounts selected for publishing")
	}

	parts := []*models.Post{post}
	children, err := j.pr.ListChildren(ctx, post.ID)
	if err != nil {
		return err
	}
	parts = append(parts, children...)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 10) // Concurrency limit

	var mu sync.Mutex
	failures := 0

	postToAccount := func(acc *models.SocialAccount) {
		defer wg.Done()
		defer func() { <-semaphore }()

		rootRef, err := j.publishChain(ctx, parts, acc)

		attempt := models.PublishAttempt{
			UserID:       acc.UserID,
			PostID:       postID,
			AccountID:    acc.ID,
			ErrorMessage: "",
		}
		if err != nil {
			attempt.ErrorMessage = err.Error()
			mu.Lock()
			failures++
			mu.Unlock()
			log.Printf("Error posting to %s for PostID %d: %v", acc.Platform, post.ID, err)
		} else if rootRef != nil {
			attempt.ExternalPostID = rootRef.ID
		}
		if _, err := j.pa.Create(ctx, &attempt); err != nil {
			log.Printf("Error saving publish attempt for PostID %d: %v", post.ID, err)
		}
	}

	for _, accountID := range accountIDs {
		acc, err := j.sa.GetByID(ctx, accountID)
		if err != nil {
			log.Printf("Error retrieving social account for AccountID %d: %v", accountID, err)
			mu.Lock()
			failures++
			mu.Unlock()
			continue
		}
		if acc == nil || acc.AccountStatus != models.AccountStatusActive {
			log.Printf("Social account %d is missing or disabled", accountID)
			mu.Lock()
			failures++
			mu.Unlock()
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}
		go postToAccount(acc)
	}

	wg.Wait()

	status := models.PostStatusPublished
	if failures > 0 {
		status = models.PostStatusFailed
	}
	for _, part := range parts {
		if err := j.pr.UpdateStatus(ctx, status, part.ID); err != nil {
			log.Printf("Error updating status for PostID %d: %v", part.ID, err)
		}
	}
	return nil
}

// publishChain posts each thread part in sequence, threading replies onto
// the previously created remote post. Returns the ref of the root part.
func (j *Queue) publishChain(ctx context.Context, parts []*models.Post, acc *models.SocialAccount) (*transfer.PublishRef, error) {
	var rootRef, prevRef *transfer.PublishRef

	for _, part := range parts {
		var ref *transfer.PublishRef
		var err error

		switch acc.Platform {
		case compose.PlatformBluesky:
			ref, err = j.bs.PublishPost(ctx, part.Content, acc, rootRef, prevRef)
		case compose.PlatformMastodon:
			ref, err = j.ms.PublishPost(ctx, part.Content, acc, rootRef, prevRef)
		case compose.PlatformThreads:
			ref, err = j.ts.PublishPost(ctx, part.Content, acc, rootRef, prevRef)
		default:
			err = fmt.Errorf("unsupported platform: %s", acc.Platform)
		}
		if err != nil {
			return rootRef, err
		}

		if rootRef == nil {
			rootRef = ref
		}
		prevRef = ref
	}

	return rootRef, nil
}

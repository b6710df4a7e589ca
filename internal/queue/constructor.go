package queue

import (
	"github.com/openpost/composer/internal/compose"
	"github.com/openpost/composer/internal/repository"
	"github.com/openpost/composer/internal/service"
)

type Queue struct {
	reg *compose.Registry
	pr  repository.PostRepository
	sa  repository.SocialAccountRepository
	pa  repository.PublishAttemptRepository
	bs  service.BlueskyService
	ms  service.MastodonService
	ts  service.ThreadsService
}

func NewQueue(
	reg *compose.Registry,
	pr repository.PostRepository,
	sa repository.SocialAccountRepository,
	pa repository.PublishAttemptRepository,
	bs service.BlueskyService,
	ms service.MastodonService,
	ts service.ThreadsService) *Queue {
	return &Queue{
		reg: reg,
		pr:  pr,
		sa:  sa,
		pa:  pa,
		bs:  bs,
		ms:  ms,
		ts:  ts,
	}
}

const TaskTypePublishPost = "publish:post"

type PublishPostPayload struct {
	PostID int64 `json:"post_id"`
}

package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/openpost/composer/internal/compose"
	"github.com/openpost/composer/internal/models"
	"github.com/openpost/composer/internal/repository"
	"github.com/openpost/composer/internal/transfer"
)

type fakeBluesky struct {
	published []string
	refs      []*transfer.PublishRef
	fail      bool
}

func (f *fakeBluesky) LinkAccount(ctx context.Context, userID int64, handle, appPassword string) error {
	return nil
}

func (f *fakeBluesky) RefreshBlueskySession(ctx context.Context, acc *models.SocialAccount) error {
	return nil
}

func (f *fakeBluesky) PublishPost(ctx context.Context, content string, acc *models.SocialAccount, root, parent *transfer.PublishRef) (*transfer.PublishRef, error) {
	if f.fail {
		return nil, errors.New("publish failed")
	}
	f.published = append(f.published, content)
	f.refs = append(f.refs, root, parent)
	return &transfer.PublishRef{ID: content, URI: "at://" + content, CID: "cid-" + content}, nil
}

type stubMastodon struct{}

func (stubMastodon) MastodonCallback(ctx context.Context, code, instanceURL string, userID int64) error {
	return nil
}
func (stubMastodon) RefreshMastodonToken(ctx context.Context, acc *models.SocialAccount) error {
	return nil
}
func (stubMastodon) PublishPost(ctx context.Context, content string, acc *models.SocialAccount, root, parent *transfer.PublishRef) (*transfer.PublishRef, error) {
	return nil, errors.New("not wired")
}

type stubThreads struct{}

func (stubThreads) ThreadsCallback(ctx context.Context, code string, userID int64) error { return nil }
func (stubThreads) RefreshThreadsToken(ctx context.Context, acc *models.SocialAccount) error {
	return nil
}
func (stubThreads) PublishPost(ctx context.Context, content string, acc *models.SocialAccount, root, parent *transfer.PublishRef) (*transfer.PublishRef, error) {
	return nil, errors.New("not wired")
}

func newTestQueue(t *testing.T, bs *fakeBluesky) (*Queue, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	q := NewQueue(compose.NewRegistry(),
		repository.NewPostRepository(db),
		repository.NewSocialAccountRepository(db),
		repository.NewPublishAttemptRepository(db),
		bs, stubMastodon{}, stubThreads{})
	return q, mock
}

func postRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "content", "selections",
		"thread_parent_id", "thread_index", "status", "created_at", "updated_at"})
}

func accountRow(id int64, platform string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "user_id", "platform", "account_id", "account_name",
		"account_username", "profile_picture_url", "instance_url", "access_token", "refresh_token",
		"token_expires_at", "account_status", "created_at", "updated_at"}).
		AddRow(id, int64(1), platform, "remote-1", "Tester", "tester",
			"", "", "enc-access", "enc-refresh", now.Add(time.Hour), "active", now, now)
}

func TestPublishPost_ThreadChain(t *testing.T) {
	bs := &fakeBluesky{}
	q, mock := newTestQueue(t, bs)

	now := time.Now()
	selections := []byte(`[{"id":"bluesky","isSelected":true,"accounts":[5]}]`)

	mock.ExpectQuery(`FROM posts WHERE id = \$1`).
		WithArgs(int64(10)).
		WillReturnRows(postRows().AddRow(int64(10), int64(1), "root part", selections, nil, 0, "pending", now, now))
	mock.ExpectQuery(`FROM posts WHERE thread_parent_id = \$1 ORDER BY thread_index`).
		WithArgs(int64(10)).
		WillReturnRows(postRows().
			AddRow(int64(11), int64(1), "second part", selections, int64(10), 1, "pending", now, now).
			AddRow(int64(12), int64(1), "third part", selections, int64(10), 2, "pending", now, now))
	mock.ExpectQuery(`FROM social_accounts\s+WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(accountRow(5, "bluesky"))

	mock.ExpectQuery(`INSERT INTO publish_attempts`).
		WithArgs(int64(1), int64(10), int64(5), "root part", "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	for _, id := range []int64{10, 11, 12} {
		mock.ExpectExec(`UPDATE posts\s+SET status = \$1`).
			WithArgs("published", sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	if err := q.PublishPost(10); err != nil {
		t.Fatalf("PublishPost err=%v", err)
	}

	if len(bs.published) != 3 {
		t.Fatalf("expected 3 published parts, got %d", len(bs.published))
	}
	if bs.published[0] != "root part" || bs.published[1] != "second part" || bs.published[2] != "third part" {
		t.Fatalf("parts published out of order: %v", bs.published)
	}

	// root gets no refs, replies carry root plus previous part
	if bs.refs[0] != nil || bs.refs[1] != nil {
		t.Fatal("root part must not carry reply refs")
	}
	if bs.refs[2] == nil || bs.refs[2].ID != "root part" {
		t.Fatalf("second part must reference the root, got %+v", bs.refs[2])
	}
	if bs.refs[5] == nil || bs.refs[5].ID != "second part" {
		t.Fatalf("third part must reference the second, got %+v", bs.refs[5])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestPublishPost_FailureMarksFailed(t *testing.T) {
	bs := &fakeBluesky{fail: true}
	q, mock := newTestQueue(t, bs)

	now := time.Now()
	selections := []byte(`[{"id":"bluesky","isSelected":true,"accounts":[5]}]`)

	mock.ExpectQuery(`FROM posts WHERE id = \$1`).
		WithArgs(int64(10)).
		WillReturnRows(postRows().AddRow(int64(10), int64(1), "root part", selections, nil, 0, "pending", now, now))
	mock.ExpectQuery(`FROM posts WHERE thread_parent_id = \$1 ORDER BY thread_index`).
		WithArgs(int64(10)).
		WillReturnRows(postRows())
	mock.ExpectQuery(`FROM social_accounts\s+WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(accountRow(5, "bluesky"))

	mock.ExpectQuery(`INSERT INTO publish_attempts`).
		WithArgs(int64(1), int64(10), int64(5), "", "publish failed").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	mock.ExpectExec(`UPDATE posts\s+SET status = \$1`).
		WithArgs("failed", sqlmock.AnyArg(), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := q.PublishPost(10); err != nil {
		t.Fatalf("PublishPost err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestPublishPost_NoSelectedAccounts(t *testing.T) {
	bs := &fakeBluesky{}
	q, mock := newTestQueue(t, bs)

	now := time.Now()

	mock.ExpectQuery(`FROM posts WHERE id = \$1`).
		WithArgs(int64(10)).
		WillReturnRows(postRows().AddRow(int64(10), int64(1), "root part", []byte(`[]`), nil, 0, "pending", now, now))

	if err := q.PublishPost(10); err == nil {
		t.Fatal("expected error when no accounts are selected")
	}
}

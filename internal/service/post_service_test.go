package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/openpost/composer/internal/compose"
	"github.com/openpost/composer/internal/repository"
	"github.com/openpost/composer/internal/transfer"
)

func newPostService(t *testing.T) (PostService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	reg := compose.NewRegistry()
	s := NewPostService(db, reg,
		repository.NewPostRepository(db),
		repository.NewSocialAccountRepository(db),
		repository.NewMediaAttachmentRepository(db))
	return s, mock
}

func TestCreatePost(t *testing.T) {
	s, mock := newPostService(t)

	mock.ExpectQuery(`SELECT 1 FROM social_accounts WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(7), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs(int64(1), "hello world", sqlmock.AnyArg(), nil, 0, "pending").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectCommit()

	postID, err := s.Create(context.Background(), 1, &transfer.PostCreation{
		Content:    "hello world",
		Selections: `[{"id":"bluesky","isSelected":true,"accounts":[7]}]`,
	})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if postID != 42 {
		t.Fatalf("expected post id 42, got %d", postID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreatePost_OverLimitRejected(t *testing.T) {
	s, mock := newPostService(t)

	long := make([]byte, 301)
	for i := range long {
		long[i] = 'a'
	}

	_, err := s.Create(context.Background(), 1, &transfer.PostCreation{
		Content:    string(long),
		Selections: `[{"id":"bluesky","isSelected":true}]`,
	})
	if err == nil {
		t.Fatal("expected error for over-limit content")
	}
	if !compose.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("nothing should have been written: %v", err)
	}
}

func TestCreatePost_NoSelection(t *testing.T) {
	s, _ := newPostService(t)

	_, err := s.Create(context.Background(), 1, &transfer.PostCreation{
		Content:    "hello",
		Selections: `[{"id":"bluesky","isSelected":false}]`,
	})
	if err == nil {
		t.Fatal("expected error when no platform is selected")
	}
	if !compose.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreatePost_UnknownAccountRollsNothing(t *testing.T) {
	s, mock := newPostService(t)

	mock.ExpectQuery(`SELECT 1 FROM social_accounts WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(7), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	_, err := s.Create(context.Background(), 1, &transfer.PostCreation{
		Content:    "hello",
		Selections: `[{"id":"bluesky","isSelected":true,"accounts":[7]}]`,
	})
	if err == nil {
		t.Fatal("expected error for unknown account")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreateThread(t *testing.T) {
	s, mock := newPostService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs(int64(1), "part one", sqlmock.AnyArg(), nil, 0, "pending").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs(int64(1), "part two", sqlmock.AnyArg(), int64(10), 1, "pending").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs(int64(1), "part three", sqlmock.AnyArg(), int64(10), 2, "pending").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))
	mock.ExpectCommit()

	ids, err := s.CreateThread(context.Background(), 1, &transfer.ThreadCreation{
		Contents:   []string{"part one", "part two", "part three"},
		Selections: `[{"id":"mastodon","isSelected":true}]`,
	})
	if err != nil {
		t.Fatalf("CreateThread err=%v", err)
	}
	if len(ids) != 3 || ids[0] != 10 || ids[1] != 11 || ids[2] != 12 {
		t.Fatalf("unexpected ids: %v", ids)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreateThread_PartOverLimit(t *testing.T) {
	s, mock := newPostService(t)

	long := make([]byte, 600)
	for i := range long {
		long[i] = 'b'
	}

	_, err := s.CreateThread(context.Background(), 1, &transfer.ThreadCreation{
		Contents:   []string{"fits fine", string(long)},
		Selections: `[{"id":"mastodon","isSelected":true}]`,
	})
	if err == nil {
		t.Fatal("expected error when one part exceeds the limit")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("nothing should have been written: %v", err)
	}
}

func TestRemovePost_DetachesChildren(t *testing.T) {
	s, mock := newPostService(t)

	mock.ExpectQuery(`SELECT 1 FROM posts WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(10), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(`SELECT id, user_id, content, selections, thread_parent_id, thread_index, status, created_at, updated_at FROM posts WHERE id = \$1`).
		WithArgs(int64(10)).
		WillReturnRows(postRows().AddRow(int64(10), int64(1), "root", []byte(`[]`), nil, 0, "published", testTime(), testTime()))

	mock.ExpectExec(`UPDATE posts SET thread_parent_id = NULL, thread_index = 0 WHERE thread_parent_id = \$1`).
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM posts WHERE id = \$1`).
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Remove(context.Background(), 1, 10); err != nil {
		t.Fatalf("Remove err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

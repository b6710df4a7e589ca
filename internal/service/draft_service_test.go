package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/openpost/composer/internal/compose"
	"github.com/openpost/composer/internal/repository"
	"github.com/openpost/composer/internal/transfer"
)

func testTime() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func postRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "content", "selections",
		"thread_parent_id", "thread_index", "status", "created_at", "updated_at"})
}

func draftRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "content", "selections",
		"is_thread", "created_at", "updated_at"})
}

func mediaRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "file_name", "file_type", "file_size",
		"file_url", "preview_url", "owner_kind", "owner_id", "display_order", "created_at"})
}

func newDraftService(t *testing.T) (DraftService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	reg := compose.NewRegistry()
	s := NewDraftService(db, reg,
		repository.NewDraftRepository(db),
		repository.NewPostRepository(db),
		repository.NewMediaAttachmentRepository(db))
	return s, mock
}

func TestCreateDraft_OverLimitAllowed(t *testing.T) {
	s, mock := newDraftService(t)

	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'a'
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO drafts`).
		WithArgs(int64(1), string(long), sqlmock.AnyArg(), false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))
	mock.ExpectCommit()

	draftID, err := s.Create(context.Background(), 1, &transfer.DraftSave{
		Content:    string(long),
		Selections: `[{"id":"bluesky","isSelected":true}]`,
	})
	if err != nil {
		t.Fatalf("drafts must accept over-limit content: %v", err)
	}
	if draftID != 5 {
		t.Fatalf("expected draft id 5, got %d", draftID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreateDraft_BadSelections(t *testing.T) {
	s, _ := newDraftService(t)

	_, err := s.Create(context.Background(), 1, &transfer.DraftSave{
		Content:    "hello",
		Selections: `[{"id":"myspace","isSelected":true}]`,
	})
	if !compose.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateDraft_RejectsOwnedMedia(t *testing.T) {
	s, mock := newDraftService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO drafts`).
		WithArgs(int64(1), "hello", sqlmock.AnyArg(), false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))
	mock.ExpectQuery(`FROM media_attachments WHERE id = \$1`).
		WithArgs(int64(20)).
		WillReturnRows(mediaRows().AddRow(int64(20), int64(1), "pic.png", "image/png", int64(2048),
			"https://cdn.test/pic.png", "", "post", int64(99), 0, testTime()))
	mock.ExpectRollback()

	_, err := s.Create(context.Background(), 1, &transfer.DraftSave{
		Content:    "hello",
		Selections: `[{"id":"bluesky","isSelected":true}]`,
		MediaIDs:   []int64{20},
	})
	if err == nil {
		t.Fatal("expected error for media owned by another composition")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestUpdateDraft_ReconcilesMedia(t *testing.T) {
	s, mock := newDraftService(t)

	mock.ExpectQuery(`SELECT 1 FROM drafts WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(5), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec(`UPDATE drafts`).
		WithArgs("updated body", sqlmock.AnyArg(), false, sqlmock.AnyArg(), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// media 7 drops out of the set, media 8 is a fresh upload
	mock.ExpectQuery(`FROM media_attachments WHERE owner_kind = \$1 AND owner_id = \$2`).
		WithArgs("draft", int64(5)).
		WillReturnRows(mediaRows().AddRow(int64(7), int64(1), "old.png", "image/png", int64(1024),
			"https://cdn.test/old.png", "", "draft", int64(5), 0, testTime()))
	mock.ExpectExec(`UPDATE media_attachments SET owner_kind = '', owner_id = NULL`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM media_attachments WHERE id = \$1`).
		WithArgs(int64(8)).
		WillReturnRows(mediaRows().AddRow(int64(8), int64(1), "new.png", "image/png", int64(1024),
			"https://cdn.test/new.png", "", "", nil, 0, testTime()))
	mock.ExpectExec(`UPDATE media_attachments SET owner_kind = \$1`).
		WithArgs("draft", int64(5), 0, int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Update(context.Background(), 1, 5, &transfer.DraftSave{
		Content:    "updated body",
		Selections: `[{"id":"bluesky","isSelected":true}]`,
		MediaIDs:   []int64{8},
	})
	if err != nil {
		t.Fatalf("Update err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestConvertToPost(t *testing.T) {
	s, mock := newDraftService(t)

	selections := []byte(`[{"id":"mastodon","isSelected":true,"accounts":[3]}]`)

	mock.ExpectQuery(`SELECT 1 FROM drafts WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(5), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(`SELECT id, user_id, content, selections, is_thread, created_at, updated_at FROM drafts WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(draftRows().AddRow(int64(5), int64(1), "draft body", selections, false, testTime(), testTime()))
	mock.ExpectQuery(`FROM media_attachments WHERE owner_kind = \$1 AND owner_id = \$2`).
		WithArgs("draft", int64(5)).
		WillReturnRows(mediaRows().AddRow(int64(20), int64(1), "pic.png", "image/png", int64(2048),
			"https://cdn.test/pic.png", "https://cdn.test/pic_thumb.png", "draft", int64(5), 0, testTime()))

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs(int64(1), "draft body", selections, nil, 0, "pending").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectQuery(`INSERT INTO media_attachments`).
		WithArgs(int64(1), "pic.png", "image/png", int64(2048),
			"https://cdn.test/pic.png", "https://cdn.test/pic_thumb.png", "post", int64(42), 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(21)))
	mock.ExpectCommit()

	postID, err := s.ConvertToPost(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("ConvertToPost err=%v", err)
	}
	if postID != 42 {
		t.Fatalf("expected post id 42, got %d", postID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestConvertToPost_RollbackOnFailure(t *testing.T) {
	s, mock := newDraftService(t)

	mock.ExpectQuery(`SELECT 1 FROM drafts WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(5), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(`SELECT id, user_id, content, selections, is_thread, created_at, updated_at FROM drafts WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(draftRows().AddRow(int64(5), int64(1), "draft body", []byte(`[]`), false, testTime(), testTime()))
	mock.ExpectQuery(`FROM media_attachments WHERE owner_kind = \$1 AND owner_id = \$2`).
		WithArgs("draft", int64(5)).
		WillReturnRows(mediaRows())

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO posts`).
		WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	_, err := s.ConvertToPost(context.Background(), 1, 5)
	if err == nil {
		t.Fatal("expected conversion to fail")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestConvertToPost_NotOwned(t *testing.T) {
	s, mock := newDraftService(t)

	mock.ExpectQuery(`SELECT 1 FROM drafts WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(5), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	_, err := s.ConvertToPost(context.Background(), 2, 5)
	if err == nil {
		t.Fatal("expected error for unowned draft")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openpost/composer/internal/compose"
	"github.com/openpost/composer/internal/models"
	"github.com/openpost/composer/internal/repository"
	"github.com/openpost/composer/internal/transfer"
)

type DraftService interface {
	Create(ctx context.Context, userID int64, ds *transfer.DraftSave) (int64, error)
	Update(ctx context.Context, userID, draftID int64, ds *transfer.DraftSave) error
	List(ctx context.Context, userID int64) ([]*models.Draft, error)
	DraftInfo(ctx context.Context, draftID, userID int64) (*models.Draft, []*models.MediaAttachment, error)
	ConvertToPost(ctx context.Context, userID, draftID int64) (int64, error)
	Remove(ctx context.Context, userID, draftID int64) error
}

type draftService struct {
	db  *sql.DB
	reg *compose.Registry
	dr  repository.DraftRepository
	pr  repository.PostRepository
	ma  repository.MediaAttachmentRepository
}

func NewDraftService(
	db *sql.DB,
	reg *compose.Registry,
	dr repository.DraftRepository,
	pr repository.PostRepository,
	ma repository.MediaAttachmentRepository) DraftService {
	return &draftService{
		db:  db,
		reg: reg,
		dr:  dr,
		pr:  pr,
		ma:  ma,
	}
}

func (s *draftService) Create(ctx context.Context, userID int64, ds *transfer.DraftSave) (int64, error) {
	draft, err := s.validateDraft(userID, ds)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	draftID, err := s.dr.Create(ctx, tx, draft)
	if err != nil {
		return 0, fmt.Errorf("error creating draft: %w", err)
	}

	if err = s.attachMedia(ctx, tx, userID, draftID, ds.MediaIDs); err != nil {
		return 0, fmt.Errorf("error attaching media: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return draftID, nil
}

func (s *draftService) attachMedia(ctx context.Context, tx *sql.Tx, userID, draftID int64, mediaIDs []int64) error {
	for i, mediaID := range mediaIDs {
		ma, err := s.ma.GetByID(ctx, mediaID)
		if err != nil {
			return err
		}
		if ma == nil || ma.UserID != userID {
			return fmt.Errorf("media attachment %d does not exist", mediaID)
		}
		if ma.OwnerKind != models.OwnerNone {
			return fmt.Errorf("media attachment %d already belongs to a composition", mediaID)
		}
		if err := s.ma.Attach(ctx, tx, mediaID, models.OwnerDraft, draftID, i); err != nil {
			return err
		}
	}
	return nil
}

func (s *draftService) Update(ctx context.Context, userID, draftID int64, ds *transfer.DraftSave) error {
	isValid, err := s.dr.CheckByUserID(ctx, draftID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		err = errors.New("draft doesn't exist")
		slog.Info(err.Error())
		return err
	}

	draft, err := s.validateDraft(userID, ds)
	if err != nil {
		return err
	}
	draft.ID = draftID

	if err := s.dr.Update(ctx, draft); err != nil {
		return err
	}

	return s.reconcileMedia(ctx, userID, draftID, ds.MediaIDs)
}

// reconcileMedia makes the stored attachment set match the saved one:
// attachments that dropped out are released back to the unowned pool, new
// uploads are claimed, and the rest keep their slot in the new order.
func (s *draftService) reconcileMedia(ctx context.Context, userID, draftID int64, mediaIDs []int64) error {
	current, err := s.ma.ListByOwner(ctx, models.OwnerDraft, draftID)
	if err != nil {
		return err
	}

	keep := make(map[int64]bool, len(mediaIDs))
	for _, id := range mediaIDs {
		keep[id] = true
	}
	for _, ma := range current {
		if !keep[ma.ID] {
			if err := s.ma.Detach(ctx, ma.ID); err != nil {
				return err
			}
		}
	}

	for i, mediaID := range mediaIDs {
		ma, err := s.ma.GetByID(ctx, mediaID)
		if err != nil {
			return err
		}
		if ma == nil || ma.UserID != userID {
			return fmt.Errorf("media attachment %d does not exist", mediaID)
		}
		mine := ma.OwnerKind == models.OwnerDraft && ma.OwnerID != nil && *ma.OwnerID == draftID
		if ma.OwnerKind != models.OwnerNone && !mine {
			return fmt.Errorf("media attachment %d already belongs to a composition", mediaID)
		}
		if err := s.ma.Attach(ctx, nil, mediaID, models.OwnerDraft, draftID, i); err != nil {
			return err
		}
	}
	return nil
}

// validateDraft checks what a draft must satisfy: presence of content and a
// well-formed selection set. Unlike a post, a draft may exceed platform
// limits; it only needs to parse.
func (s *draftService) validateDraft(userID int64, ds *transfer.DraftSave) (*models.Draft, error) {
	if ds == nil {
		err := errors.New("draft data is nil")
		slog.Error(err.Error())
		return nil, err
	}
	if ds.Content == "" {
		err := compose.NewValidationError("content", "content cannot be empty")
		slog.Info(err.Error())
		return nil, err
	}

	sels, err := compose.ParseSelections([]byte(ds.Selections), s.reg)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	encoded, err := sels.Encode()
	if err != nil {
		return nil, fmt.Errorf("error encoding selections: %w", err)
	}

	return &models.Draft{
		UserID:     userID,
		Content:    ds.Content,
		Selections: encoded,
		IsThread:   ds.IsThread,
	}, nil
}

func (s *draftService) List(ctx context.Context, userID int64) ([]*models.Draft, error) {
	drafts, err := s.dr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing drafts")
	}
	return drafts, nil
}

func (s *draftService) DraftInfo(ctx context.Context, draftID, userID int64) (*models.Draft, []*models.MediaAttachment, error) {
	draft, err := s.ownedDraft(ctx, draftID, userID)
	if err != nil {
		return nil, nil, err
	}

	attachments, err := s.ma.ListByOwner(ctx, models.OwnerDraft, draft.ID)
	if err != nil {
		return nil, nil, err
	}

	return draft, attachments, nil
}

// ConvertToPost builds a new pending post from the draft: same content and
// selection set, and a fresh copy of every attachment's descriptive fields
// owned by the post. One transaction covers the post and all copies; the
// draft itself is never touched. The caller decides whether to delete the
// draft afterwards.
func (s *draftService) ConvertToPost(ctx context.Context, userID, draftID int64) (int64, error) {
	draft, err := s.ownedDraft(ctx, draftID, userID)
	if err != nil {
		return 0, err
	}

	attachments, err := s.ma.ListByOwner(ctx, models.OwnerDraft, draft.ID)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	post := models.Post{
		UserID:     userID,
		Content:    draft.Content,
		Selections: draft.Selections,
		Status:     models.PostStatusPending,
	}

	postID, err := s.pr.Create(ctx, tx, &post)
	if err != nil {
		return 0, fmt.Errorf("error creating post from draft: %w", err)
	}

	for _, src := range attachments {
		ownerID := postID
		copyMA := models.MediaAttachment{
			UserID:       src.UserID,
			FileName:     src.FileName,
			FileType:     src.FileType,
			FileSize:     src.FileSize,
			FileURL:      src.FileURL,
			PreviewURL:   src.PreviewURL,
			OwnerKind:    models.OwnerPost,
			OwnerID:      &ownerID,
			DisplayOrder: src.DisplayOrder,
		}
		if _, err = s.ma.Create(ctx, tx, &copyMA); err != nil {
			return 0, fmt.Errorf("error copying media attachment: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return postID, nil
}

func (s *draftService) Remove(ctx context.Context, userID, draftID int64) error {
	isValid, err := s.dr.CheckByUserID(ctx, draftID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		err = errors.New("draft doesn't exist")
		slog.Info(err.Error())
		return err
	}

	if err := s.dr.Remove(ctx, draftID); err != nil {
		return fmt.Errorf("error removing draft")
	}

	return nil
}

func (s *draftService) ownedDraft(ctx context.Context, draftID, userID int64) (*models.Draft, error) {
	if userID == 0 {
		err := errors.New("user is not valid")
		slog.Info(err.Error())
		return nil, err
	}
	if draftID == 0 {
		err := errors.New("draft id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	isValid, err := s.dr.CheckByUserID(ctx, draftID, userID)
	if err != nil {
		return nil, err
	}
	if !isValid {
		err = errors.New("draft doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	draft, err := s.dr.GetByID(ctx, draftID)
	if err != nil || draft == nil {
		return nil, fmt.Errorf("error getting draft info")
	}
	return draft, nil
}

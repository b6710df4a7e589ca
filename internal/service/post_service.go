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

type PostService interface {
	Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (int64, error)
	CreateThread(ctx context.Context, userID int64, tc *transfer.ThreadCreation) ([]int64, error)
	List(ctx context.Context, userID int64) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID, userID int64) (*models.Post, []*models.MediaAttachment, string, error)
	ThreadPosts(ctx context.Context, postID, userID int64) ([]*models.Post, error)
	Remove(ctx context.Context, userID, postID int64) error
}

type postService struct {
	db  *sql.DB
	reg *compose.Registry
	pr  repository.PostRepository
	ac  repository.SocialAccountRepository
	ma  repository.MediaAttachmentRepository
}

func NewPostService(
	db *sql.DB,
	reg *compose.Registry,
	pr repository.PostRepository,
	ac repository.SocialAccountRepository,
	ma repository.MediaAttachmentRepository) PostService {
	return &postService{
		db:  db,
		reg: reg,
		pr:  pr,
		ac:  ac,
		ma:  ma,
	}
}

// Create validates and persists a single standalone post. The same submit
// gate the composer UI applies runs here again before anything is written.
func (s *postService) Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (int64, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return 0, err
	}

	sels, err := s.validateComposition(pc.Content, pc.Selections)
	if err != nil {
		return 0, err
	}

	if err := s.checkSelectedAccounts(ctx, userID, sels); err != nil {
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

	encoded, err := sels.Encode()
	if err != nil {
		return 0, fmt.Errorf("error encoding selections: %w", err)
	}

	post := models.Post{
		UserID:     userID,
		Content:    pc.Content,
		Selections: encoded,
		Status:     models.PostStatusPending,
	}

	postID, err := s.pr.Create(ctx, tx, &post)
	if err != nil {
		return 0, fmt.Errorf("error creating post: %w", err)
	}

	if err = s.attachMedia(ctx, tx, userID, postID, pc.MediaIDs); err != nil {
		return 0, fmt.Errorf("error attaching media: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return postID, nil
}

// CreateThread persists a linked chain of posts: the first content becomes
// the root, every following part a child with its 1-based index. The whole
// chain is written in one transaction.
func (s *postService) CreateThread(ctx context.Context, userID int64, tc *transfer.ThreadCreation) ([]int64, error) {
	if tc == nil {
		err := errors.New("thread creation data is nil")
		slog.Error(err.Error())
		return nil, err
	}

	parts, err := compose.SetupThread(tc.Contents)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	var sels compose.Selections
	for _, part := range parts {
		partSels, err := s.validateComposition(part.Content, tc.Selections)
		if err != nil {
			return nil, err
		}
		sels = partSels
	}

	if err := s.checkSelectedAccounts(ctx, userID, sels); err != nil {
		return nil, err
	}

	encoded, err := sels.Encode()
	if err != nil {
		return nil, fmt.Errorf("error encoding selections: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	ids := make([]int64, 0, len(parts))
	var rootID int64
	for _, part := range parts {
		post := models.Post{
			UserID:      userID,
			Content:     part.Content,
			Selections:  encoded,
			ThreadIndex: part.Index,
			Status:      models.PostStatusPending,
		}
		if !part.IsRoot {
			post.ThreadParentID = &rootID
		}

		var id int64
		id, err = s.pr.Create(ctx, tx, &post)
		if err != nil {
			return nil, fmt.Errorf("error creating thread part %d: %w", part.Index, err)
		}
		if part.IsRoot {
			rootID = id
		}
		ids = append(ids, id)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return ids, nil
}

func (s *postService) validateComposition(content, rawSelections string) (compose.Selections, error) {
	if content == "" {
		err := compose.NewValidationError("content", "content cannot be empty")
		slog.Info(err.Error())
		return nil, err
	}

	sels, err := compose.ParseSelections([]byte(rawSelections), s.reg)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if !sels.HasSelection() {
		err := compose.NewValidationError("selections", "no platform selected")
		slog.Info(err.Error())
		return nil, err
	}

	if !compose.CanSubmit(content, sels, s.reg) {
		err := compose.NewValidationError("content", "content exceeds a selected platform's limit")
		slog.Info(err.Error())
		return nil, err
	}

	return sels, nil
}

func (s *postService) checkSelectedAccounts(ctx context.Context, userID int64, sels compose.Selections) error {
	for _, accountID := range sels.AccountIDs() {
		exists, err := s.ac.CheckByUserID(ctx, accountID, userID)
		if err != nil {
			return fmt.Errorf("error checking social account %d: %w", accountID, err)
		}
		if !exists {
			return fmt.Errorf("social account %d does not exist", accountID)
		}
	}
	return nil
}

func (s *postService) attachMedia(ctx context.Context, tx *sql.Tx, userID, postID int64, mediaIDs []int64) error {
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
		if err := s.ma.Attach(ctx, tx, mediaID, models.OwnerPost, postID, i); err != nil {
			return err
		}
	}
	return nil
}

func (s *postService) List(ctx context.Context, userID int64) ([]*models.Post, error) {
	posts, err := s.pr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing posts")
	}
	return posts, nil
}

// PostInfo returns the post, its attachments and its thread position
// ("index/size", empty for a standalone post).
func (s *postService) PostInfo(ctx context.Context, postID, userID int64) (*models.Post, []*models.MediaAttachment, string, error) {
	post, err := s.ownedPost(ctx, postID, userID)
	if err != nil {
		return nil, nil, "", err
	}

	attachments, err := s.ma.ListByOwner(ctx, models.OwnerPost, post.ID)
	if err != nil {
		return nil, nil, "", err
	}

	position, err := s.threadPosition(ctx, post)
	if err != nil {
		if err == compose.ErrBrokenThread {
			// orphaned children display as standalone roots
			return post, attachments, "", nil
		}
		return nil, nil, "", err
	}

	return post, attachments, position, nil
}

// ThreadPosts returns the whole thread the post belongs to, root first,
// children in sibling order.
func (s *postService) ThreadPosts(ctx context.Context, postID, userID int64) ([]*models.Post, error) {
	post, err := s.ownedPost(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	root, err := compose.ThreadRoot(nodeOf(post), s.lookup(ctx))
	if err != nil {
		return nil, err
	}

	rootPost := post
	if root.ID != post.ID {
		rootPost, err = s.pr.GetByID(ctx, root.ID)
		if err != nil || rootPost == nil {
			return nil, compose.ErrBrokenThread
		}
	}

	children, err := s.pr.ListChildren(ctx, root.ID)
	if err != nil {
		return nil, err
	}

	return append([]*models.Post{rootPost}, children...), nil
}

func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	post, err := s.ownedPost(ctx, postID, userID)
	if err != nil {
		return err
	}

	// children outlive their parent as standalone roots
	if err := s.pr.DetachChildren(ctx, post.ID); err != nil {
		return fmt.Errorf("error detaching thread children: %w", err)
	}

	if err := s.pr.Remove(ctx, postID); err != nil {
		return fmt.Errorf("error removing post")
	}

	return nil
}

func (s *postService) ownedPost(ctx context.Context, postID, userID int64) (*models.Post, error) {
	if userID == 0 {
		err := errors.New("user is not valid")
		slog.Info(err.Error())
		return nil, err
	}
	if postID == 0 {
		err := errors.New("post id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !isValid {
		err = errors.New("post doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil || post == nil {
		return nil, fmt.Errorf("error getting post info")
	}
	return post, nil
}

func (s *postService) threadPosition(ctx context.Context, post *models.Post) (string, error) {
	return compose.ThreadPosition(nodeOf(post), s.lookup(ctx), s.childCounter(ctx))
}

func nodeOf(post *models.Post) *compose.ThreadNode {
	return &compose.ThreadNode{
		ID:       post.ID,
		ParentID: post.ThreadParentID,
		Index:    post.ThreadIndex,
	}
}

func (s *postService) lookup(ctx context.Context) compose.NodeLookup {
	return func(id int64) (*compose.ThreadNode, bool) {
		post, err := s.pr.GetByID(ctx, id)
		if err != nil || post == nil {
			return nil, false
		}
		return nodeOf(post), true
	}
}

func (s *postService) childCounter(ctx context.Context) compose.ChildCounter {
	return func(id int64) (int, error) {
		return s.pr.CountChildren(ctx, id)
	}
}

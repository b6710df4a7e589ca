package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/openpost/composer/internal/models"
	"github.com/openpost/composer/internal/repository"
)

type MediaService interface {
	Upload(ctx context.Context, userID int64, file *multipart.FileHeader) (*models.MediaAttachment, error)
	ListByOwner(ctx context.Context, kind models.OwnerKind, ownerID int64) ([]*models.MediaAttachment, error)
	Remove(ctx context.Context, userID, attachmentID int64) error
}

type mediaService struct {
	ma      repository.MediaAttachmentRepository
	storage *StorageService
}

func NewMediaService(ma repository.MediaAttachmentRepository, storage *StorageService) MediaService {
	return &mediaService{
		ma:      ma,
		storage: storage,
	}
}

var allowedExtensions = map[string]struct{}{
	"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {}, "gif": {}, "webp": {}, "mp3": {},
}

// Upload stores a file and records an orphaned attachment; ownership comes
// later when the upload is attached to a draft or post.
func (s *mediaService) Upload(ctx context.Context, userID int64, file *multipart.FileHeader) (*models.MediaAttachment, error) {
	fileContent, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer fileContent.Close()

	fileBytes, err := io.ReadAll(fileContent)
	if err != nil {
		return nil, fmt.Errorf("error reading file content: %w", err)
	}

	if len(fileBytes) == 0 {
		err = errors.New("uploaded file is empty")
		slog.Info(err.Error())
		return nil, err
	}

	fileType, err := filetype.Match(fileBytes)
	if err != nil || fileType == types.Unknown {
		return nil, fmt.Errorf("unsupported file type: %w", err)
	}
	if _, ok := allowedExtensions[fileType.Extension]; !ok {
		return nil, fmt.Errorf("file type %s is not allowed", fileType.Extension)
	}

	key, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if err := s.storage.Upload(ctx, key, fileBytes, fileType.MIME.Value); err != nil {
		return nil, fmt.Errorf("error uploading file: %w", err)
	}

	ma := &models.MediaAttachment{
		UserID:   userID,
		FileName: file.Filename,
		FileType: fileType.MIME.Value,
		FileSize: int64(len(fileBytes)),
		FileURL:  s.storage.PublicURL(key),
	}

	id, err := s.ma.Create(ctx, nil, ma)
	if err != nil {
		return nil, fmt.Errorf("error saving media attachment: %w", err)
	}
	ma.ID = id

	return ma, nil
}

func (s *mediaService) ListByOwner(ctx context.Context, kind models.OwnerKind, ownerID int64) ([]*models.MediaAttachment, error) {
	return s.ma.ListByOwner(ctx, kind, ownerID)
}

func (s *mediaService) Remove(ctx context.Context, userID, attachmentID int64) error {
	ma, err := s.ma.GetByID(ctx, attachmentID)
	if err != nil {
		return err
	}
	if ma == nil || ma.UserID != userID {
		err = errors.New("attachment doesn't exist")
		slog.Info(err.Error())
		return err
	}
	return s.ma.Remove(ctx, attachmentID)
}

package models

import (
	"strings"
	"time"
)

// OwnerKind tags which kind of composition owns an attachment. An empty
// kind with a nil OwnerID means the upload is orphaned, pending attachment.
type OwnerKind string

const (
	OwnerNone  OwnerKind = ""
	OwnerDraft OwnerKind = "draft"
	OwnerPost  OwnerKind = "post"
)

type MediaAttachment struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	FileName     string    `db:"file_name" json:"name"`
	FileType     string    `db:"file_type" json:"type"`
	FileSize     int64     `db:"file_size" json:"size"`
	FileURL      string    `db:"file_url" json:"url"`
	PreviewURL   string    `db:"preview_url" json:"previewUrl,omitempty"`
	OwnerKind    OwnerKind `db:"owner_kind" json:"owner_kind,omitempty"`
	OwnerID      *int64    `db:"owner_id" json:"owner_id,omitempty"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

func (m *MediaAttachment) IsImage() bool {
	return strings.HasPrefix(m.FileType, "image/")
}

func (m *MediaAttachment) IsVideo() bool {
	return strings.HasPrefix(m.FileType, "video/")
}

func (m *MediaAttachment) IsAudio() bool {
	return strings.HasPrefix(m.FileType, "audio/")
}

package models

import (
	"encoding/json"
	"time"
)

type Post struct {
	ID             int64           `db:"id" json:"id"`
	UserID         int64           `db:"user_id" json:"user_id"`
	Content        string          `db:"content" json:"content"`
	Selections     json.RawMessage `db:"selections" json:"selections"`
	ThreadParentID *int64          `db:"thread_parent_id" json:"thread_parent_id,omitempty"`
	ThreadIndex    int             `db:"thread_index" json:"thread_index"`
	Status         string          `db:"status" json:"status"` // pending, published, failed
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusPending   = "pending"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
)

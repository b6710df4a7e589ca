package models

import (
	"encoding/json"
	"time"
)

type Draft struct {
	ID         int64           `db:"id" json:"id"`
	UserID     int64           `db:"user_id" json:"user_id"`
	Content    string          `db:"content" json:"content"`
	Selections json.RawMessage `db:"selections" json:"selections"`
	IsThread   bool            `db:"is_thread" json:"is_thread"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

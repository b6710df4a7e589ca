package models

import (
	"encoding/json"
	"time"
)

type SplittingConfiguration struct {
	ID         int64           `db:"id" json:"id"`
	UserID     int64           `db:"user_id" json:"user_id"`
	Name       string          `db:"name" json:"name"`
	Strategies json.RawMessage `db:"strategies" json:"strategies"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Comment struct {
	bun.BaseModel `bun:"table:comments"`

	ID          string    `bun:"id,pk" json:"id"`
	EventID     string    `bun:"event_id" json:"event_id"`
	UserID      string    `bun:"user_id" json:"user_id"`
	Content     string    `bun:"content" json:"content"`
	CommentedAt time.Time `bun:"commented_at" json:"commented_at"`
}

package database

import (
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"club95/internal/models"
)

// NewBun wraps an open sql.DB in a bun instance with the m2m junction
// models registered. Both the server (Postgres) and the tests (SQLite)
// go through here so relation queries behave the same way.
func NewBun(sqldb *sql.DB, dialect schema.Dialect) *bun.DB {
	b := bun.NewDB(sqldb, dialect)
	b.RegisterModel((*models.EventGenre)(nil), (*models.EventArtist)(nil))
	return b
}

// Package sqlite implements the ranking and feed stores on sqlite.
package sqlite

import (
	"github.com/jmoiron/sqlx"

	"github.com/agrange/crest/internal/crest"
)

// Ensure Repo implements the storage interfaces.
var (
	_ crest.RankingRepo = (*Repo)(nil)
	_ crest.FeedRepo    = (*Repo)(nil)
)

type Repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) Repo {
	return Repo{db: db}
}

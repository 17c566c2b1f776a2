package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agrange/crest/internal/crest"
)

const (
	feedNamespace     = "-feed"
	feedItemNamespace = "-fitem"
)

// Row shape for feed_items; the domain FeedItem doesn't know about its
// parent feed or position.
type feedItemRow struct {
	ID       string  `db:"id"`
	FeedID   string  `db:"feed_id"`
	Position int     `db:"position"`
	PostID   string  `db:"post_id"`
	Title    string  `db:"title"`
	AuthorID string  `db:"author_id"`
	Score    float64 `db:"score"`
	Reason   string  `db:"reason"`
}

// InsertFeed persists a new feed snapshot and its items in one
// transaction. Feeds are never updated afterwards.
func (r Repo) InsertFeed(ctx context.Context, userID string, items []crest.FeedItem) (crest.Feed, error) {
	feed := crest.Feed{
		ID:          fmt.Sprintf("%s%s", uuid.NewString(), feedNamespace),
		UserID:      userID,
		Items:       items,
		GeneratedAt: time.Now().UTC(),
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return crest.Feed{}, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const feedQ = `INSERT INTO feeds (id, user_id, generated_at) VALUES (:id, :user_id, :generated_at);`
	if _, err := tx.NamedExecContext(ctx, feedQ, feed); err != nil {
		return crest.Feed{}, fmt.Errorf("error inserting feed: %w", err)
	}

	if len(items) > 0 {
		rows := make([]feedItemRow, 0, len(items))
		for i, item := range items {
			rows = append(rows, feedItemRow{
				ID:       fmt.Sprintf("%s%s", uuid.NewString(), feedItemNamespace),
				FeedID:   feed.ID,
				Position: i,
				PostID:   item.PostID,
				Title:    item.Title,
				AuthorID: item.AuthorID,
				Score:    item.Score,
				Reason:   string(item.Reason),
			})
		}

		const itemQ = `INSERT INTO feed_items (id, feed_id, position, post_id, title, author_id, score, reason)
		VALUES (:id, :feed_id, :position, :post_id, :title, :author_id, :score, :reason);`
		if _, err := tx.NamedExecContext(ctx, itemQ, rows); err != nil {
			return crest.Feed{}, fmt.Errorf("error inserting feed items: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return crest.Feed{}, fmt.Errorf("error committing transaction: %w", err)
	}

	return feed, nil
}

func (r Repo) Feed(ctx context.Context, id string) (crest.Feed, error) {
	const q = `SELECT id, user_id, generated_at FROM feeds WHERE id = ?;`

	var feed crest.Feed
	err := r.db.GetContext(ctx, &feed, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return crest.Feed{}, crest.ErrNotFound
	}
	if err != nil {
		return crest.Feed{}, fmt.Errorf("error fetching feed: %s", err)
	}

	const itemsQ = `SELECT * FROM feed_items WHERE feed_id = ? ORDER BY position ASC;`
	rows := []feedItemRow{}
	if err := r.db.SelectContext(ctx, &rows, itemsQ, id); err != nil {
		return crest.Feed{}, fmt.Errorf("error fetching feed items: %s", err)
	}

	feed.Items = make([]crest.FeedItem, 0, len(rows))
	for _, row := range rows {
		feed.Items = append(feed.Items, crest.FeedItem{
			PostID:   row.PostID,
			Title:    row.Title,
			AuthorID: row.AuthorID,
			Score:    row.Score,
			Reason:   crest.FeedItemReason(row.Reason),
		})
	}

	return feed, nil
}

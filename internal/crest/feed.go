package crest

import (
	"context"
	"time"
)

type (
	// Feed is a persisted snapshot of a generated feed. Feeds are
	// immutable once written; each generation creates a new one.
	Feed struct {
		ID          string     `db:"id"`
		UserID      string     `db:"user_id"`
		Items       []FeedItem `db:"-"`
		GeneratedAt time.Time  `db:"generated_at"`
	}

	// FeedItem is a single entry in a generated feed.
	FeedItem struct {
		PostID   string         `json:"postId"`
		Title    string         `json:"title"`
		AuthorID string         `json:"authorId"`
		Score    float64        `json:"score"`
		Reason   FeedItemReason `json:"reason"`
	}

	// PostMeta is the display metadata for a post, resolved by the
	// content metadata service.
	PostMeta struct {
		ID       string
		Title    string
		AuthorID string
	}

	// FeedRepo is the persisted feed snapshot store.
	FeedRepo interface {
		InsertFeed(ctx context.Context, userID string, items []FeedItem) (Feed, error)
		Feed(ctx context.Context, id string) (Feed, error)
	}

	// SocialGraph answers who a user follows.
	SocialGraph interface {
		Following(ctx context.Context, userID string) ([]string, error)
	}

	// ContentMetadata resolves a batch of post IDs to display metadata.
	// The result may be shorter than the request: unknown or deleted
	// posts are omitted rather than erroring.
	ContentMetadata interface {
		Posts(ctx context.Context, postIDs []string) ([]PostMeta, error)
	}
)

// FeedItemReason tags why an item made it into a feed.
type FeedItemReason string

const (
	FeedItemReasonRanking   FeedItemReason = "ranking"
	FeedItemReasonFollowing FeedItemReason = "following"
)

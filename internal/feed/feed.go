// Package feed composes a user's personalized feed by fanning out to the
// ranking store, the social graph service, and the content metadata
// service, then merging the results in rank order.
package feed

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/agrange/crest/internal/crest"
	"github.com/agrange/crest/logger"
)

const defaultTopN = 10

// Service generates and persists feed snapshots.
type Service struct {
	rankings crest.RankingRepo
	social   crest.SocialGraph
	metadata crest.ContentMetadata
	feeds    crest.FeedRepo

	cluster string
	topN    int
}

type Config struct {
	// Cluster is the ranking cluster feeds draw from. Empty means the
	// global ranking.
	Cluster string
	// TopN caps how many ranking entries a feed starts from.
	TopN int
}

func New(cfg Config, rankings crest.RankingRepo, social crest.SocialGraph, metadata crest.ContentMetadata, feeds crest.FeedRepo) *Service {
	if cfg.TopN <= 0 {
		cfg.TopN = defaultTopN
	}

	return &Service{
		rankings: rankings,
		social:   social,
		metadata: metadata,
		feeds:    feeds,
		cluster:  cfg.Cluster,
		topN:     cfg.TopN,
	}
}

// Generate builds a feed for the user and persists it as a new snapshot.
//
// The ranking and social graph lookups have no data dependency, so they
// run concurrently; the metadata fetch needs the ranked post IDs and runs
// after. Any dependency failure aborts the whole generation with nothing
// persisted. A metadata response that resolves only some of the posts is
// not a failure: unresolved posts are dropped and the rest keep their
// rank order.
func (s *Service) Generate(ctx context.Context, userID string) (crest.Feed, error) {
	ctx = logger.Ctx(ctx, slog.String("user_id", userID))

	var (
		entries   []crest.RankingEntry
		following []string
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ents, err := s.rankings.Rankings(gCtx, s.cluster, s.topN)
		if err != nil {
			return fmt.Errorf("error fetching rankings: %w", err)
		}
		entries = ents

		return nil
	})
	g.Go(func() error {
		ids, err := s.social.Following(gCtx, userID)
		if err != nil {
			return fmt.Errorf("error fetching following set: %w", err)
		}
		following = ids

		return nil
	})
	if err := g.Wait(); err != nil {
		return crest.Feed{}, err
	}

	postIDs := make([]string, 0, len(entries))
	for _, entry := range entries {
		postIDs = append(postIDs, entry.PostID)
	}

	metas, err := s.metadata.Posts(ctx, postIDs)
	if err != nil {
		return crest.Feed{}, fmt.Errorf("error resolving post metadata: %w", err)
	}
	metaByID := make(map[string]crest.PostMeta, len(metas))
	for _, meta := range metas {
		metaByID[meta.ID] = meta
	}

	// Following-derived items aren't injected yet: the set is fetched so
	// a social graph outage fails the generation instead of silently
	// degrading it, and so injection can slot in here without reordering
	// the ranked items.
	items := make([]crest.FeedItem, 0, len(entries))
	for _, entry := range entries {
		meta, ok := metaByID[entry.PostID]
		if !ok {
			// Unknown or deleted post, skip it.
			continue
		}
		items = append(items, crest.FeedItem{
			PostID:   entry.PostID,
			Title:    meta.Title,
			AuthorID: meta.AuthorID,
			Score:    entry.DecayedScore,
			Reason:   crest.FeedItemReasonRanking,
		})
	}

	feed, err := s.feeds.InsertFeed(ctx, userID, items)
	if err != nil {
		return crest.Feed{}, fmt.Errorf("error persisting feed: %w", err)
	}

	slog.InfoContext(ctx, "feed generated",
		"feed_id", feed.ID,
		"items", len(feed.Items),
		"ranked", len(entries),
		"following", len(following),
	)

	return feed, nil
}

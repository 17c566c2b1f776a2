package crest

import (
	"context"
	"time"
)

type (
	// ScoreRecord is a raw popularity score produced by the score source
	// for a single post.
	ScoreRecord struct {
		PostID       string    `json:"postId"`
		RawScore     float64   `json:"score"`
		CalculatedAt time.Time `json:"calculatedAt"`
	}

	// RankingEntry is one row of a cluster's decayed ranking.
	//
	// Within a cluster, ranks are a contiguous run 1..N and the decayed
	// score never increases as rank goes up. The whole set for a cluster
	// is replaced on every rebuild; rows are never updated in place.
	RankingEntry struct {
		PostID       string    `db:"post_id" json:"postId"`
		Rank         int       `db:"rank" json:"rank"`
		DecayedScore float64   `db:"decayed_score" json:"decayedScore"`
		Cluster      string    `db:"cluster" json:"clusterType"`
		CalculatedAt time.Time `db:"calculated_at" json:"calculatedAt"`
	}

	// RankingRepo is the persisted ranking store.
	RankingRepo interface {
		// ReplaceRankings swaps out the full entry set for a cluster.
		// Concurrent readers see either the old set or the new one,
		// never a partial write.
		ReplaceRankings(ctx context.Context, cluster string, entries []RankingEntry) error
		// Rankings returns a cluster's entries ordered by rank
		// ascending. A limit of 0 means no limit. An unknown cluster
		// yields an empty slice, not an error.
		Rankings(ctx context.Context, cluster string, limit int) ([]RankingEntry, error)
	}

	// ScoreSource produces the raw scores that rebuilds are computed
	// from. An empty result is valid; only a failed fetch is an error.
	ScoreSource interface {
		Scores(ctx context.Context) ([]ScoreRecord, error)
	}
)

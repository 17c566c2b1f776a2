// Package ranking rebuilds the decayed popularity ranking from the raw
// scores exposed by the score source.
package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/agrange/crest/internal/crest"
)

// DecayFactor controls how fast a raw score's influence shrinks per hour
// of elapsed time.
const DecayFactor = 0.01

// Service recomputes rankings and swaps them into the ranking store.
type Service struct {
	scores crest.ScoreSource
	repo   crest.RankingRepo

	now func() time.Time
}

func New(scores crest.ScoreSource, repo crest.RankingRepo) *Service {
	return &Service{
		scores: scores,
		repo:   repo,
		now:    time.Now,
	}
}

// Rebuild recomputes the ranking for a cluster from the current raw scores
// and atomically replaces the stored set. It returns the number of entries
// written.
//
// A score source with nothing to report is not an error: the rebuild
// returns 0 and any previously stored ranking is left alone. Only a failed
// fetch aborts with an error, again without touching the store.
func (s *Service) Rebuild(ctx context.Context, cluster string) (int, error) {
	records, err := s.scores.Scores(ctx)
	if err != nil {
		return 0, fmt.Errorf("error fetching scores: %w", err)
	}
	if len(records) == 0 {
		slog.Info("no scores available, keeping existing ranking", "cluster", cluster)
		return 0, nil
	}

	now := s.now()
	entries := make([]crest.RankingEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, crest.RankingEntry{
			PostID:       rec.PostID,
			DecayedScore: rec.RawScore * Multiplier(now.Sub(rec.CalculatedAt)),
			Cluster:      cluster,
			CalculatedAt: now,
		})
	}

	// Stable sort keeps ties in score-source order across rebuilds.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DecayedScore > entries[j].DecayedScore
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	if err := s.repo.ReplaceRankings(ctx, cluster, entries); err != nil {
		return 0, fmt.Errorf("error replacing rankings: %w", err)
	}

	slog.Info("ranking rebuilt", "cluster", cluster, "entries", len(entries))

	return len(entries), nil
}

// Multiplier returns the decay multiplier for a score calculated `elapsed`
// ago: exp(-DecayFactor * hours). It is 1 at zero elapsed time and falls
// off towards 0, never reaching it. Negative elapsed times (clock skew)
// are clamped to zero.
func Multiplier(elapsed time.Duration) float64 {
	hours := elapsed.Hours()
	if hours < 0 {
		hours = 0
	}

	return math.Exp(-DecayFactor * hours)
}

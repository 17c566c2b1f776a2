package ranking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrange/crest/internal/crest"
)

type stubScores struct {
	records []crest.ScoreRecord
	err     error
}

func (s stubScores) Scores(context.Context) ([]crest.ScoreRecord, error) {
	return s.records, s.err
}

// Records every replace so tests can assert what (if anything) was written.
type recordingRepo struct {
	replaced map[string][]crest.RankingEntry
}

func newRecordingRepo() *recordingRepo {
	return &recordingRepo{replaced: map[string][]crest.RankingEntry{}}
}

func (r *recordingRepo) ReplaceRankings(_ context.Context, cluster string, entries []crest.RankingEntry) error {
	r.replaced[cluster] = entries
	return nil
}

func (r *recordingRepo) Rankings(_ context.Context, cluster string, limit int) ([]crest.RankingEntry, error) {
	entries := r.replaced[cluster]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

func TestMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, Multiplier(0))
	assert.Equal(t, 1.0, Multiplier(-3*time.Hour), "future timestamps clamp to no decay")

	// Strictly decreasing, always within (0, 1].
	prev := Multiplier(0)
	for h := 1; h <= 100; h += 9 {
		m := Multiplier(time.Duration(h) * time.Hour)
		assert.Less(t, m, prev)
		assert.Greater(t, m, 0.0)
		prev = m
	}

	// Worked example: 10 hours at factor 0.01 is exp(-0.1).
	assert.InDelta(t, 0.9048, Multiplier(10*time.Hour), 0.0001)
}

func TestRebuild_OrdersAndRanks(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	repo := newRecordingRepo()
	svc := New(stubScores{records: []crest.ScoreRecord{
		// Highest raw score, but ten hours old.
		{PostID: "post-1", RawScore: 100, CalculatedAt: now.Add(-10 * time.Hour)},
		// Fresh and close behind: decay pushes post-1 under it.
		{PostID: "post-2", RawScore: 95, CalculatedAt: now},
		{PostID: "post-3", RawScore: 10, CalculatedAt: now},
	}}, repo)
	svc.now = func() time.Time { return now }

	count, err := svc.Rebuild(context.Background(), "general")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	entries := repo.replaced["general"]
	require.Len(t, entries, 3)

	assert.Equal(t, []string{"post-2", "post-1", "post-3"}, []string{entries[0].PostID, entries[1].PostID, entries[2].PostID})
	assert.InDelta(t, 90.48, entries[1].DecayedScore, 0.01)

	for i, entry := range entries {
		assert.Equal(t, i+1, entry.Rank)
		assert.Equal(t, "general", entry.Cluster)
		if i > 0 {
			assert.LessOrEqual(t, entry.DecayedScore, entries[i-1].DecayedScore)
		}
	}
}

func TestRebuild_StableTieBreak(t *testing.T) {
	now := time.Now()
	repo := newRecordingRepo()
	svc := New(stubScores{records: []crest.ScoreRecord{
		{PostID: "post-a", RawScore: 50, CalculatedAt: now},
		{PostID: "post-b", RawScore: 50, CalculatedAt: now},
		{PostID: "post-c", RawScore: 50, CalculatedAt: now},
	}}, repo)
	svc.now = func() time.Time { return now }

	_, err := svc.Rebuild(context.Background(), "")
	require.NoError(t, err)

	entries := repo.replaced[""]
	require.Len(t, entries, 3)
	assert.Equal(t, "post-a", entries[0].PostID)
	assert.Equal(t, "post-b", entries[1].PostID)
	assert.Equal(t, "post-c", entries[2].PostID)
}

func TestRebuild_EmptySourceKeepsExisting(t *testing.T) {
	repo := newRecordingRepo()
	repo.replaced["general"] = []crest.RankingEntry{{PostID: "post-1", Rank: 1, Cluster: "general"}}

	svc := New(stubScores{records: nil}, repo)

	count, err := svc.Rebuild(context.Background(), "general")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// The prior set survives a "no scores yet" rebuild.
	require.Len(t, repo.replaced["general"], 1)
	assert.Equal(t, "post-1", repo.replaced["general"][0].PostID)
}

func TestRebuild_SourceErrorKeepsExisting(t *testing.T) {
	repo := newRecordingRepo()
	repo.replaced["general"] = []crest.RankingEntry{{PostID: "post-1", Rank: 1, Cluster: "general"}}

	boom := errors.New("source down")
	svc := New(stubScores{err: boom}, repo)

	_, err := svc.Rebuild(context.Background(), "general")
	require.ErrorIs(t, err, boom)

	require.Len(t, repo.replaced["general"], 1)
}

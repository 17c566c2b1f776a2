package sqlite

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/agrange/crest/internal/crest"
)

// ReplaceRankings swaps the stored ranking for a cluster with the given
// entries inside one transaction, so a concurrent read sees either the old
// set or the new one. Passing no entries clears the cluster; callers that
// want "keep the old ranking" simply don't call this.
func (r Repo) ReplaceRankings(ctx context.Context, cluster string, entries []crest.RankingEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ranking_entries WHERE cluster = ?;`, cluster); err != nil {
		return fmt.Errorf("error clearing ranking for cluster: %w", err)
	}

	if len(entries) > 0 {
		const q = `INSERT INTO ranking_entries (post_id, rank, decayed_score, cluster, calculated_at)
		VALUES (:post_id, :rank, :decayed_score, :cluster, :calculated_at);`
		if _, err := tx.NamedExecContext(ctx, q, entries); err != nil {
			return fmt.Errorf("error inserting ranking entries: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

// Rankings returns a cluster's entries in rank order. A limit of 0 means
// the whole set.
func (r Repo) Rankings(ctx context.Context, cluster string, limit int) ([]crest.RankingEntry, error) {
	q := sq.Select("*").
		From("ranking_entries").
		Where(sq.Eq{"cluster": cluster}).
		OrderBy("rank ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %s", err)
	}

	entries := []crest.RankingEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("error fetching rankings: %s", err)
	}

	return entries, nil
}

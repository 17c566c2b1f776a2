package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrange/crest/internal/crest"
	cresterrs "github.com/agrange/crest/internal/errors"
	"github.com/agrange/crest/internal/serverutil"
)

type stubRebuilder struct {
	count int
	err   error

	gotCluster string
}

func (s *stubRebuilder) Rebuild(_ context.Context, cluster string) (int, error) {
	s.gotCluster = cluster
	return s.count, s.err
}

type stubGenerator struct {
	feed crest.Feed
	err  error
}

func (s stubGenerator) Generate(context.Context, string) (crest.Feed, error) {
	return s.feed, s.err
}

type stubRankings struct {
	entries []crest.RankingEntry
	err     error
}

func (s stubRankings) ReplaceRankings(context.Context, string, []crest.RankingEntry) error {
	panic("not used")
}

func (s stubRankings) Rankings(context.Context, string, int) ([]crest.RankingEntry, error) {
	return s.entries, s.err
}

func newTestServer(rebuilder Rebuilder, generator Generator, rankings crest.RankingRepo) *Server {
	return NewServer(ServerConfig{Port: 0, CorsOrigin: "*"}, rebuilder, generator, rankings)
}

func TestPostRebuildRankings(t *testing.T) {
	var (
		rebuilder = &stubRebuilder{count: 3}
		s         = newTestServer(rebuilder, stubGenerator{}, stubRankings{})
		req       = httptest.NewRequest(http.MethodPost, "/rankings/rebuild", strings.NewReader(`{"clusterType": "general"}`))
		rec       = httptest.NewRecorder()
	)

	require.NoError(t, s.postRebuildRankings(rec, req))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "general", rebuilder.gotCluster)

	var resp RebuildRankingsResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.UpdatedCount)
	assert.Equal(t, "rankings rebuilt", resp.Message)
}

func TestPostRebuildRankings_EmptyBodyMeansGlobal(t *testing.T) {
	var (
		rebuilder = &stubRebuilder{}
		s         = newTestServer(rebuilder, stubGenerator{}, stubRankings{})
		req       = httptest.NewRequest(http.MethodPost, "/rankings/rebuild", strings.NewReader(""))
		rec       = httptest.NewRecorder()
	)

	require.NoError(t, s.postRebuildRankings(rec, req))
	assert.Equal(t, crest.ClusterGlobal, rebuilder.gotCluster)
}

func TestPostRebuildRankings_DependencyFailureIsGeneric500(t *testing.T) {
	var (
		rebuilder = &stubRebuilder{err: errors.New("score source exploded at 10.0.0.3:9200")}
		s         = newTestServer(rebuilder, stubGenerator{}, stubRankings{})
		req       = httptest.NewRequest(http.MethodPost, "/rankings/rebuild", strings.NewReader(`{}`))
		rec       = httptest.NewRecorder()
	)

	// Served through HandlerFuncE so the error is coerced the same way
	// production requests see it.
	serverutil.HandlerFuncE(s.postRebuildRankings).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.3", "internal detail must not leak")
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestGetRankings(t *testing.T) {
	var (
		s = newTestServer(&stubRebuilder{}, stubGenerator{}, stubRankings{entries: []crest.RankingEntry{
			{PostID: "post-1", Rank: 1, DecayedScore: 90.5, Cluster: "general"},
		}})
		req = httptest.NewRequest(http.MethodGet, "/rankings?clusterType=general&limit=10", nil)
		rec = httptest.NewRecorder()
	)

	require.NoError(t, s.getRankings(rec, req))

	assert.Equal(t, http.StatusOK, rec.Code)

	var entries []crest.RankingEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "post-1", entries[0].PostID)
}

func TestGetRankings_NoneFoundIsEmptyArray(t *testing.T) {
	var (
		s   = newTestServer(&stubRebuilder{}, stubGenerator{}, stubRankings{entries: []crest.RankingEntry{}})
		req = httptest.NewRequest(http.MethodGet, "/rankings?clusterType=nope", nil)
		rec = httptest.NewRecorder()
	)

	require.NoError(t, s.getRankings(rec, req))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestGetRankings_BadLimit(t *testing.T) {
	var (
		s   = newTestServer(&stubRebuilder{}, stubGenerator{}, stubRankings{})
		req = httptest.NewRequest(http.MethodGet, "/rankings?limit=banana", nil)
		rec = httptest.NewRecorder()
	)

	err := s.getRankings(rec, req)
	require.Error(t, err)

	var cErr *cresterrs.Error
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, http.StatusBadRequest, cErr.Status)
}

func TestPostUserFeed(t *testing.T) {
	var (
		s = newTestServer(&stubRebuilder{}, stubGenerator{feed: crest.Feed{
			ID:     "abc-feed",
			UserID: "user-1",
			Items: []crest.FeedItem{
				{PostID: "post-1", Title: "First", AuthorID: "author-1", Score: 90.5, Reason: crest.FeedItemReasonRanking},
			},
		}}, stubRankings{})
		req = httptest.NewRequest(http.MethodPost, "/feeds/user", strings.NewReader(`{"userId": "user-1"}`))
		rec = httptest.NewRecorder()
	)

	require.NoError(t, s.postUserFeed(rec, req))

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp GenerateFeedResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "abc-feed", resp.FeedID)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, crest.FeedItemReasonRanking, resp.Items[0].Reason)
}

func TestPostUserFeed_MissingUserID(t *testing.T) {
	var (
		s   = newTestServer(&stubRebuilder{}, stubGenerator{}, stubRankings{})
		req = httptest.NewRequest(http.MethodPost, "/feeds/user", strings.NewReader(`{}`))
		rec = httptest.NewRecorder()
	)

	err := s.postUserFeed(rec, req)
	require.Error(t, err)

	var cErr *cresterrs.Error
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, http.StatusBadRequest, cErr.Status)
	require.Len(t, cErr.Details, 1)
	assert.Equal(t, "userId", cErr.Details[0].Field)
}

func TestPostUserFeed_DependencyFailureIsGeneric500(t *testing.T) {
	var (
		s   = newTestServer(&stubRebuilder{}, stubGenerator{err: errors.New("metadata service timeout")}, stubRankings{})
		req = httptest.NewRequest(http.MethodPost, "/feeds/user", strings.NewReader(`{"userId": "user-1"}`))
		rec = httptest.NewRecorder()
	)

	serverutil.HandlerFuncE(s.postUserFeed).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "metadata service")
	assert.Contains(t, rec.Body.String(), "internal server error")
}

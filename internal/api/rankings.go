package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	cresterrs "github.com/agrange/crest/internal/errors"
	"github.com/agrange/crest/internal/serverutil"
)

type RebuildRankingsReq struct {
	ClusterType string `json:"clusterType"`
}

type RebuildRankingsResp struct {
	Message      string `json:"message"`
	UpdatedCount int    `json:"updatedCount"`
}

func (s Server) postRebuildRankings(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx  = r.Context()
		body RebuildRankingsReq
	)
	// An empty body means the global cluster.
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return cresterrs.E(err, http.StatusBadRequest)
	}

	count, err := s.rebuilder.Rebuild(ctx, body.ClusterType)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, RebuildRankingsResp{
		Message:      "rankings rebuilt",
		UpdatedCount: count,
	})
}

func (s Server) getRankings(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx     = r.Context()
		cluster = r.URL.Query().Get("clusterType")
		limit   = 0
	)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return cresterrs.E("limit must be a non-negative integer", http.StatusBadRequest,
				cresterrs.Detail{Field: "limit", Error: "must be a non-negative integer"})
		}
		limit = parsed
	}

	entries, err := s.rankings.Rankings(ctx, cluster, limit)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, entries)
}

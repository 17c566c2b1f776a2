// Package api serves the public HTTP surface: ranking rebuilds, ranking
// reads, and feed generation.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/agrange/crest/internal/crest"
	"github.com/agrange/crest/internal/serverutil"
)

type (
	// Rebuilder recomputes a cluster's ranking.
	Rebuilder interface {
		Rebuild(ctx context.Context, cluster string) (int, error)
	}

	// Generator builds and persists a feed for a user.
	Generator interface {
		Generate(ctx context.Context, userID string) (crest.Feed, error)
	}

	Server struct {
		*http.Server

		rebuilder Rebuilder
		generator Generator
		rankings  crest.RankingRepo
	}

	ServerConfig struct {
		Port       int
		CorsOrigin string
	}
)

func NewServer(config ServerConfig, rebuilder Rebuilder, generator Generator, rankings crest.RankingRepo) *Server {
	r := serverutil.ErrRouter{Router: mux.NewRouter()}

	srvr := Server{
		rebuilder: rebuilder,
		generator: generator,
		rankings:  rankings,
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			Handler: handlers.CORS(
				handlers.AllowedOrigins([]string{config.CorsOrigin}),
				handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
				handlers.AllowedHeaders([]string{"content-type"}),
			)(r),
		},
	}

	r.Use(serverutil.AccessLogMiddleware) // Log everything

	r.HandleFuncE("/rankings/rebuild", srvr.postRebuildRankings).Methods(http.MethodPost)
	r.HandleFuncE("/rankings", srvr.getRankings).Methods(http.MethodGet)
	r.HandleFuncE("/feeds/user", srvr.postUserFeed).Methods(http.MethodPost)

	slog.Debug("configured api server", "port", config.Port)

	return &srvr
}

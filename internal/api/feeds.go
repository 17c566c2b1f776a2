package api

import (
	"encoding/json"
	"net/http"

	"github.com/agrange/crest/internal/crest"
	cresterrs "github.com/agrange/crest/internal/errors"
	"github.com/agrange/crest/internal/serverutil"
)

type GenerateFeedReq struct {
	UserID string `json:"userId"`
}

func validateGenerateFeedReq(req GenerateFeedReq) error {
	if req.UserID == "" {
		return cresterrs.E("userId is required", http.StatusBadRequest,
			cresterrs.Detail{Field: "userId", Error: "required"})
	}

	return nil
}

type GenerateFeedResp struct {
	FeedID string           `json:"feedId"`
	Items  []crest.FeedItem `json:"items"`
}

func (s Server) postUserFeed(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx  = r.Context()
		body GenerateFeedReq
	)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return cresterrs.E(err, http.StatusBadRequest)
	}
	if err := validateGenerateFeedReq(body); err != nil {
		return err
	}

	feed, err := s.generator.Generate(ctx, body.UserID)
	if err != nil {
		return err
	}

	items := feed.Items
	if items == nil {
		items = []crest.FeedItem{}
	}

	return serverutil.WriteJSON(w, http.StatusCreated, GenerateFeedResp{
		FeedID: feed.ID,
		Items:  items,
	})
}

// Package clients holds the HTTP clients for the services crest depends
// on: the score source, the social graph, and content metadata.
//
// Each client gets its base URL injected at construction and carries its
// own timeout; a timeout is treated the same as any other failed call.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/agrange/crest/internal/crest"
)

const clientTimeout = 3 * time.Second

// Ensure ScoreClient implements the domain interface.
var _ crest.ScoreSource = (*ScoreClient)(nil)

// ScoreClient fetches raw popularity scores from the score source.
type ScoreClient struct {
	baseURL string
	client  *http.Client
}

func NewScoreClient(baseURL string) *ScoreClient {
	return &ScoreClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: clientTimeout},
	}
}

func (c *ScoreClient) Scores(ctx context.Context) ([]crest.ScoreRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/scores", nil)
	if err != nil {
		return nil, fmt.Errorf("error building scores request: %s", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("score source: %w: %s", crest.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("score source: %w: unexpected status code %d", crest.ErrUnavailable, resp.StatusCode)
	}

	records := []crest.ScoreRecord{}
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("error decoding scores response: %s", err)
	}

	return records, nil
}

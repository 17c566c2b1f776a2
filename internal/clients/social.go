package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/agrange/crest/internal/crest"
)

var _ crest.SocialGraph = (*SocialClient)(nil)

// SocialClient answers "who does this user follow" against the social
// graph service.
type SocialClient struct {
	baseURL string
	client  *http.Client
}

func NewSocialClient(baseURL string) *SocialClient {
	return &SocialClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: clientTimeout},
	}
}

type followingResp struct {
	Following []string `json:"following"`
}

func (c *SocialClient) Following(ctx context.Context, userID string) ([]string, error) {
	u := fmt.Sprintf("%s/users/%s/following", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("error building following request: %s", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("social graph: %w: %s", crest.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("social graph: %w: unexpected status code %d", crest.ErrUnavailable, resp.StatusCode)
	}

	var body followingResp
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("error decoding following response: %s", err)
	}

	return body.Following, nil
}

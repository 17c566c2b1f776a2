package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/microcosm-cc/bluemonday"

	"github.com/agrange/crest/internal/crest"
)

var _ crest.ContentMetadata = (*MetadataClient)(nil)

// MetadataClient resolves post IDs to display metadata against the content
// metadata service.
//
// Resolved posts are cached so repeated feed generations don't refetch the
// same ranked posts over and over.
type MetadataClient struct {
	baseURL string
	client  *http.Client
	cache   *lru.Cache[string, crest.PostMeta]
}

func NewMetadataClient(baseURL string) *MetadataClient {
	cache, _ := lru.New[string, crest.PostMeta](1024)

	return &MetadataClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: clientTimeout},
		cache:   cache,
	}
}

type postResp struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	AuthorID string `json:"authorId"`
}

// Posts resolves the given post IDs. The result may be shorter than the
// request: posts the service doesn't know about are simply absent. Order
// follows the requested IDs.
func (c *MetadataClient) Posts(ctx context.Context, postIDs []string) ([]crest.PostMeta, error) {
	if len(postIDs) == 0 {
		return []crest.PostMeta{}, nil
	}

	// Serve what we can from the cache, fetch the rest in one batch.
	metaByID := make(map[string]crest.PostMeta, len(postIDs))
	var misses []string
	for _, id := range postIDs {
		if meta, ok := c.cache.Get(id); ok {
			metaByID[id] = meta
			continue
		}
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		fetched, err := c.fetch(ctx, misses)
		if err != nil {
			return nil, err
		}
		for _, meta := range fetched {
			c.cache.Add(meta.ID, meta)
			metaByID[meta.ID] = meta
		}
	}

	out := make([]crest.PostMeta, 0, len(postIDs))
	for _, id := range postIDs {
		if meta, ok := metaByID[id]; ok {
			out = append(out, meta)
		}
	}

	return out, nil
}

func (c *MetadataClient) fetch(ctx context.Context, postIDs []string) ([]crest.PostMeta, error) {
	u := fmt.Sprintf("%s/posts?postIds=%s", c.baseURL, url.QueryEscape(strings.Join(postIDs, ",")))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("error building posts request: %s", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("content metadata: %w: %s", crest.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("content metadata: %w: unexpected status code %d", crest.ErrUnavailable, resp.StatusCode)
	}

	posts := []postResp{}
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		return nil, fmt.Errorf("error decoding posts response: %s", err)
	}

	metas := make([]crest.PostMeta, 0, len(posts))
	for _, post := range posts {
		metas = append(metas, crest.PostMeta{
			ID:       post.ID,
			Title:    sanitize(post.Title),
			AuthorID: post.AuthorID,
		})
	}

	return metas, nil
}

var stripPolicy = bluemonday.StrictPolicy()

// Removes any html tags from a title before it can end up in a feed.
func sanitize(s string) string {
	return strings.TrimSpace(stripPolicy.Sanitize(s))
}

// Package places calls the Google Places Text Search API.
package places

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"review_hero/internal/adapters/restclient"
)

const DefaultBase = "https://maps.googleapis.com/maps/api/place"

type Client struct {
	rc  *restclient.Client
	key string
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("places API key is required")
	}
	if base == "" {
		base = DefaultBase
	}
	return &Client{rc: restclient.New("places", base, restclient.Options{RPS: rps}), key: key}, nil
}

type textSearchResponse struct {
	Status       string           `json:"status"`
	ErrorMessage string           `json:"error_message"`
	Results      []map[string]any `json:"results"`
}

// TextSearch returns the raw result objects for query. Any provider status
// other than OK or ZERO_RESULTS is an error.
func (c *Client) TextSearch(ctx context.Context, query string) ([]map[string]any, error) {
	var out textSearchResponse
	err := c.rc.Do(ctx, restclient.Request{
		Method:   http.MethodGet,
		Path:     "/textsearch/json",
		Endpoint: "textsearch",
		Query:    url.Values{"query": {query}, "key": {c.key}},
	}, &out)
	if err != nil {
		return nil, err
	}
	switch out.Status {
	case "OK":
		return out.Results, nil
	case "ZERO_RESULTS":
		return []map[string]any{}, nil
	default:
		return nil, fmt.Errorf("places search: status %s: %s", out.Status, out.ErrorMessage)
	}
}

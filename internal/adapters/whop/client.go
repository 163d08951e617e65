// Package whop talks to the Whop OAuth and REST APIs and verifies its
// webhooks.
package whop

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"review_hero/internal/adapters/restclient"
)

const (
	DefaultAuthorizeURL = "https://whop.com/oauth"
	DefaultOAuthBase    = "https://api.whop.com"
	DefaultAPIBase      = "https://api.whop.com/api/v2"
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthorizeURL string
	OAuthBase    string
	APIBase      string
	RPS          int
}

type Client struct {
	cfg   Config
	oauth *restclient.Client
	api   *restclient.Client
}

func New(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("whop client id and secret are required")
	}
	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = DefaultAuthorizeURL
	}
	if cfg.OAuthBase == "" {
		cfg.OAuthBase = DefaultOAuthBase
	}
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	return &Client{
		cfg:   cfg,
		oauth: restclient.New("whop", cfg.OAuthBase, restclient.Options{RPS: cfg.RPS}),
		api:   restclient.New("whop", cfg.APIBase, restclient.Options{RPS: cfg.RPS}),
	}, nil
}

// AuthURL is where the browser is sent to start the OAuth flow.
func (c *Client) AuthURL(state string) string {
	q := url.Values{
		"client_id":     {c.cfg.ClientID},
		"redirect_uri":  {c.cfg.RedirectURI},
		"response_type": {"code"},
		"scope":         {"openid profile email"},
	}
	if state != "" {
		q.Set("state", state)
	}
	return c.cfg.AuthorizeURL + "?" + q.Encode()
}

// ExchangeCode trades an authorization code for tokens. Codes are single
// use, so the POST is never retried. The raw response usually carries
// access_token and user.
func (c *Client) ExchangeCode(ctx context.Context, code string) (map[string]any, error) {
	var out map[string]any
	err := c.oauth.Do(ctx, restclient.Request{
		Method:   http.MethodPost,
		Path:     "/oauth/token",
		Endpoint: "oauth_token",
		NoRetry:  true,
		Body: map[string]string{
			"grant_type":    "authorization_code",
			"code":          code,
			"client_id":     c.cfg.ClientID,
			"client_secret": c.cfg.ClientSecret,
			"redirect_uri":  c.cfg.RedirectURI,
		},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("whop token exchange: %w", err)
	}
	return out, nil
}

// Me returns the user behind accessToken.
func (c *Client) Me(ctx context.Context, accessToken string) (map[string]any, error) {
	var out map[string]any
	err := c.api.Do(ctx, restclient.Request{
		Method: http.MethodGet,
		Path:   "/me",
		Header: http.Header{"Authorization": {"Bearer " + accessToken}},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("whop me: %w", err)
	}
	return out, nil
}

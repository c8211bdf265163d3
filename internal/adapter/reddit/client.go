// Package reddit is a small client for the two reddit endpoints the grabber
// needs: single post lookup and subreddit hot listings. With credentials it
// talks oauth, without it falls back to the public json endpoints.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/redgrab/redgrab/internal/common"
	"github.com/redgrab/redgrab/internal/config"
	"github.com/redgrab/redgrab/internal/entity"
)

const (
	defaultAPIBase    = "https://oauth.reddit.com"
	defaultPublicBase = "https://www.reddit.com"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	hc         HTTPDoer
	cfg        *config.RedditConfig
	apiBase    string
	publicBase string
	token      string
	log        *slog.Logger
}

func New(cfg *config.RedditConfig, hc HTTPDoer, log *slog.Logger) *Client {
	return NewWithBaseURLs(cfg, hc, defaultAPIBase, defaultPublicBase, log)
}

func NewWithBaseURLs(cfg *config.RedditConfig, hc HTTPDoer, apiBase, publicBase string, log *slog.Logger) *Client {
	return &Client{
		hc:         hc,
		cfg:        cfg,
		apiBase:    apiBase,
		publicBase: publicBase,
		log:        log.With(slog.String("item", "RedditClient")),
	}
}

// Authenticate obtains an oauth token with the password grant. Missing
// credentials are not an error, the client then uses the public endpoints.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.cfg.Anonymous() {
		c.log.Info("No reddit credentials, using public endpoints")

		return nil
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", c.cfg.Username)
	form.Set("password", c.cfg.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("cannot create token request: %w", err)
	}

	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("cannot request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token request failed: %s", resp.Status)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return fmt.Errorf("cannot decode token response: %w", err)
	}

	if tr.AccessToken == "" {
		return fmt.Errorf("token response has no access token")
	}

	c.token = tr.AccessToken
	c.log.Info("Authenticated", slog.String("username", c.cfg.Username))

	return nil
}

// Post fetches one post by id. Crossposts are returned as-is, resolving the
// parent is up to the caller.
func (c *Client) Post(ctx context.Context, id string) (*entity.Post, error) {
	var u string
	if c.token != "" {
		u = fmt.Sprintf("%s/comments/%s?raw_json=1", c.apiBase, id)
	} else {
		u = fmt.Sprintf("%s/comments/%s.json?raw_json=1", c.publicBase, id)
	}

	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	post, err := decodePost(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cannot decode post %s: %w", id, err)
	}

	return post, nil
}

// Hot fetches the hot listing of a subreddit.
func (c *Client) Hot(ctx context.Context, subreddit string, limit int) ([]*entity.Post, error) {
	var u string
	if c.token != "" {
		u = fmt.Sprintf("%s/r/%s/hot?raw_json=1&limit=%d", c.apiBase, subreddit, limit)
	} else {
		u = fmt.Sprintf("%s/r/%s/hot.json?raw_json=1&limit=%d", c.publicBase, subreddit, limit)
	}

	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	posts, err := decodeListing(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cannot decode r/%s listing: %w", subreddit, err)
	}

	return posts, nil
}

func (c *Client) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot create request: %w", err)
	}

	// Age-gated posts are hidden without it.
	req.AddCookie(&http.Cookie{Name: "over18", Value: "1"})

	if c.token != "" {
		req.Header.Set("Authorization", "bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot do request: %w", err)
	}

	return resp, nil
}

func checkStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return common.ErrPostNotFoundError
	case http.StatusForbidden:
		return common.ErrAccessForbiddenError
	default:
		return fmt.Errorf("reddit returned %s", resp.Status)
	}
}

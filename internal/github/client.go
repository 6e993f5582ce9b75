// Package github is a small GitHub REST client: the identity graph used by
// relationship-gated decoration types, avatar URLs and issue mutation.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/youruser/profileart/internal/config"
	"github.com/youruser/profileart/internal/errs"
)

const (
	DefaultAPIURL = "https://api.github.com"
	DefaultWebURL = "https://github.com"

	perPage  = 100
	maxPages = 50
)

// Client talks to the GitHub REST API. The zero value is not usable; call New.
type Client struct {
	http   *http.Client
	apiURL string
	webURL string
	user   string
	token  string
}

// New builds a client from cfg. With both User and Token set requests use
// basic auth; with only Token they use a bearer token.
func New(cfg config.GitHubConfig) *Client {
	c := &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		apiURL: strings.TrimSuffix(cfg.APIURL, "/"),
		webURL: strings.TrimSuffix(cfg.WebURL, "/"),
		user:   cfg.User,
		token:  cfg.Token,
	}
	if c.http.Timeout <= 0 {
		c.http.Timeout = 10 * time.Second
	}
	if c.apiURL == "" {
		c.apiURL = DefaultAPIURL
	}
	if c.webURL == "" {
		c.webURL = DefaultWebURL
	}
	return c
}

// WithToken returns a copy of c authenticating with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// HTTPClient exposes the underlying client, e.g. for avatar downloads.
func (c *Client) HTTPClient() *http.Client { return c.http }

// AvatarURL is the 256px profile picture of user.
func (c *Client) AvatarURL(user string) string {
	return fmt.Sprintf("%s/%s.png?size=256", c.webURL, url.PathEscape(user))
}

// IsFollowing reports whether user follows target. Logins compare
// case-insensitively.
func (c *Client) IsFollowing(ctx context.Context, user, target string) (bool, error) {
	target = strings.ToLower(target)
	found := false
	err := c.each(ctx, "/users/"+url.PathEscape(user)+"/following", func(raw json.RawMessage) (bool, error) {
		var u struct {
			Login string `json:"login"`
		}
		if err := json.Unmarshal(raw, &u); err != nil {
			return false, err
		}
		found = strings.ToLower(u.Login) == target
		return found, nil
	})
	return found, err
}

// IsStarred reports whether user starred owner/repo.
func (c *Client) IsStarred(ctx context.Context, owner, repo, user string) (bool, error) {
	owner, repo = strings.ToLower(owner), strings.ToLower(repo)
	found := false
	err := c.each(ctx, "/users/"+url.PathEscape(user)+"/starred", func(raw json.RawMessage) (bool, error) {
		var r struct {
			Name  string `json:"name"`
			Owner struct {
				Login string `json:"login"`
			} `json:"owner"`
		}
		if err := json.Unmarshal(raw, &r); err != nil {
			return false, err
		}
		found = strings.ToLower(r.Owner.Login) == owner && strings.ToLower(r.Name) == repo
		return found, nil
	})
	return found, err
}

// each walks a paginated list endpoint until fn returns true or the pages
// run out.
func (c *Client) each(ctx context.Context, path string, fn func(json.RawMessage) (bool, error)) error {
	for page := 1; page <= maxPages; page++ {
		var items []json.RawMessage
		p := fmt.Sprintf("%s?per_page=%d&page=%d", path, perPage, page)
		if err := c.do(ctx, http.MethodGet, p, nil, &items); err != nil {
			return err
		}
		for _, raw := range items {
			stop, err := fn(raw)
			if err != nil {
				return fmt.Errorf("decoding %s: %w: %w", path, errs.ErrUpstreamFetch, err)
			}
			if stop {
				return nil
			}
		}
		if len(items) < perPage {
			return nil
		}
	}
	return nil
}

// APIError is a non-2xx response from the API.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github %s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// do sends a JSON request and decodes a JSON response into out when non-nil.
// Transport failures and non-2xx responses wrap errs.ErrUpstreamFetch; a 404
// under /users/ also wraps errs.ErrUnknownUser.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	switch {
	case c.user != "" && c.token != "":
		req.SetBasicAuth(c.user, c.token)
	case c.token != "":
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("github %s %s: %w: %w", method, path, errs.ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		apiErr := &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		if resp.StatusCode == http.StatusNotFound && strings.HasPrefix(path, "/users/") {
			return fmt.Errorf("%w: %w: %w", errs.ErrUpstreamFetch, errs.ErrUnknownUser, apiErr)
		}
		return fmt.Errorf("%w: %w", errs.ErrUpstreamFetch, apiErr)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(out); err != nil {
		return fmt.Errorf("github %s %s: decoding response: %w: %w", method, path, errs.ErrUpstreamFetch, err)
	}
	return nil
}

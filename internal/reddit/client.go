// Package reddit is a minimal Reddit API client covering the worker's needs:
// app-only OAuth, subreddit search, hot listings, and top-level comments.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/campuspulse/social-pulse/internal/worker/domain"
)

const (
	authURL = "https://www.reddit.com/api/v1/access_token"
	apiURL  = "https://oauth.reddit.com"

	// refresh the token slightly before Reddit expires it
	tokenSlack = 30 * time.Second
)

// Config holds Reddit API credentials and client settings.
type Config struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	Timeout      time.Duration
}

// Client talks to the Reddit API using the application-only OAuth flow.
type Client struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	userAgent    string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a new Reddit API client. The token is fetched lazily on
// the first request.
func NewClient(config *Config) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		clientID:     config.ClientID,
		clientSecret: config.ClientSecret,
		userAgent:    config.UserAgent,
	}
}

// Search searches a subreddit for query, returning up to limit posts.
func (c *Client) Search(ctx context.Context, subreddit, query, sort string, limit int) ([]domain.RawItem, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("restrict_sr", "1")
	params.Set("sort", sort)
	params.Set("limit", strconv.Itoa(limit))

	path := fmt.Sprintf("/r/%s/search?%s", url.PathEscape(subreddit), params.Encode())

	var listing thingListing
	if err := c.get(ctx, path, &listing); err != nil {
		return nil, err
	}

	return listing.posts(), nil
}

// Hot returns up to limit posts from a subreddit's hot listing.
func (c *Client) Hot(ctx context.Context, subreddit string, limit int) ([]domain.RawItem, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	path := fmt.Sprintf("/r/%s/hot?%s", url.PathEscape(subreddit), params.Encode())

	var listing thingListing
	if err := c.get(ctx, path, &listing); err != nil {
		return nil, err
	}

	return listing.posts(), nil
}

// Comments returns up to limit top-level comments of a post.
func (c *Client) Comments(ctx context.Context, postID string, limit int) ([]domain.RawItem, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("depth", "1")

	path := fmt.Sprintf("/comments/%s?%s", url.PathEscape(postID), params.Encode())

	// the comments endpoint returns a two-element array: the post listing
	// followed by the comment listing
	var listings []thingListing
	if err := c.get(ctx, path, &listings); err != nil {
		return nil, err
	}
	if len(listings) < 2 {
		return nil, nil
	}

	return listings[1].comments(limit), nil
}

// get performs an authenticated GET against the API and decodes the response.
func (c *Client) get(ctx context.Context, path string, dest any) error {
	token, err := c.token(ctx)
	if err != nil {
		return fmt.Errorf("get access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return domain.ErrTargetNotFound
	case http.StatusForbidden:
		return domain.ErrTargetForbidden
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, path, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}

	return nil
}

// token returns a valid access token, refreshing it when close to expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenSlack)) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, body)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token response contained no access token")
	}

	c.accessToken = tokenResp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)

	return c.accessToken, nil
}

// Package uupdump is a minimal client for the UUP dump JSON API. It lists
// Windows update builds and resolves their file download links.
package uupdump

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/fontpipe/fontpipe/base"
)

// DefaultBaseURL is the public UUP dump API endpoint.
const DefaultBaseURL = "https://api.uupdump.net"

const (
	minRequestDelay = 2 * time.Second
	maxRequestDelay = 30 * time.Second
	maxAttempts     = 5
)

// ErrMaxRetries is returned when a request keeps failing after all attempts.
var ErrMaxRetries = errors.New("max retries exceeded")

// APIError is an error reported inside an otherwise valid API response.
type APIError struct {
	Endpoint string
	Code     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("uupdump %s: API error %s", e.Endpoint, e.Code)
}

// Build describes one Windows build known to the API.
type Build struct {
	ID    string
	UUID  string
	Title string
	Arch  string
}

// File describes a downloadable file of an update.
type File struct {
	Name string
	URL  string
	SHA1 string
	Size int64
}

// Client talks to the UUP dump API with adaptive rate limiting. The zero
// delay between requests grows on HTTP 429 and transport errors and slowly
// recovers after successful calls.
type Client struct {
	BaseURL     string
	HTTPClient  *http.Client
	delay       time.Duration
	lastRequest time.Time
}

// New creates a client for the public API.
func New() *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: time.Minute},
		delay:      minRequestDelay,
	}
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) backoff() {
	c.delay *= 2
	if c.delay > maxRequestDelay {
		c.delay = maxRequestDelay
	}
}

func (c *Client) recover() {
	c.delay = c.delay * 9 / 10
	if c.delay < minRequestDelay {
		c.delay = minRequestDelay
	}
}

// request performs one rate limited GET against an API endpoint and returns
// the "response" object of the reply.
func (c *Client) request(ctx context.Context, endpoint string, params url.Values) (gjson.Result, error) {
	reqURL := strings.TrimSuffix(c.BaseURL, "/") + "/" + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if wait := c.delay - time.Since(c.lastRequest); wait > 0 {
			if err := c.sleep(ctx, wait); err != nil {
				return gjson.Result{}, err
			}
		}
		c.lastRequest = time.Now()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return gjson.Result{}, err
		}
		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return gjson.Result{}, ctx.Err()
			}
			lastErr = err
			c.backoff()
			base.Logger.Warnf("uupdump %s: %s, retrying in %s", endpoint, err, c.delay)
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			c.backoff()
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("uupdump %s: HTTP 429", endpoint)
			c.backoff()
			base.Logger.Warnf("uupdump %s: rate limited, waiting %s", endpoint, c.delay)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return gjson.Result{}, fmt.Errorf("uupdump %s: HTTP %d", endpoint, resp.StatusCode)
		}

		if code := gjson.GetBytes(body, "response.error"); code.Exists() {
			return gjson.Result{}, &APIError{Endpoint: endpoint, Code: code.String()}
		}
		c.recover()
		return gjson.GetBytes(body, "response"), nil
	}
	return gjson.Result{}, fmt.Errorf("%w for %s: %v", ErrMaxRetries, endpoint, lastErr)
}

// ListBuilds returns the builds matching the search query, newest first.
func (c *Client) ListBuilds(ctx context.Context, search string) ([]Build, error) {
	params := url.Values{}
	params.Set("sortByDate", "1")
	params.Set("search", search)
	response, err := c.request(ctx, "listid.php", params)
	if err != nil {
		return nil, err
	}
	var builds []Build
	response.Get("builds").ForEach(func(key, value gjson.Result) bool {
		b := Build{
			ID:    key.String(),
			UUID:  value.Get("uuid").String(),
			Title: value.Get("title").String(),
			Arch:  value.Get("arch").String(),
		}
		if b.UUID == "" {
			b.UUID = b.ID
		}
		builds = append(builds, b)
		return true
	})
	return builds, nil
}

// FindBuild returns the newest build for the search query whose architecture
// matches arch, or an error if there is none.
func (c *Client) FindBuild(ctx context.Context, search, arch string) (*Build, error) {
	builds, err := c.ListBuilds(ctx, search)
	if err != nil {
		return nil, err
	}
	if len(builds) == 0 {
		return nil, fmt.Errorf("no builds found for %q", search)
	}
	for i := range builds {
		if strings.Contains(builds[i].Arch, arch) {
			return &builds[i], nil
		}
	}
	return nil, fmt.Errorf("no %s builds found for %q", arch, search)
}

// GetFiles returns the file list of an update, keyed by file name.
func (c *Client) GetFiles(ctx context.Context, updateID string) (map[string]File, error) {
	params := url.Values{}
	params.Set("id", updateID)
	response, err := c.request(ctx, "get.php", params)
	if err != nil {
		return nil, err
	}
	files := make(map[string]File)
	response.Get("files").ForEach(func(key, value gjson.Result) bool {
		files[key.String()] = File{
			Name: key.String(),
			URL:  value.Get("url").String(),
			SHA1: value.Get("sha1").String(),
			Size: value.Get("size").Int(),
		}
		return true
	})
	return files, nil
}

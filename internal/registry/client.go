package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/five82/karaokepi/internal/version"
)

// LatestFetcher reports the newest published version of a package.
// This interface is implemented by *Client and can be used for testing.
type LatestFetcher interface {
	LatestVersion(ctx context.Context) (string, error)
}

// Ensure Client implements LatestFetcher at compile time.
var _ LatestFetcher = (*Client)(nil)

// Client talks to a PyPI-style JSON API.
type Client struct {
	endpoint   *url.URL
	http       *http.Client
	userAgent  string
	retries    uint64
	retryDelay time.Duration
}

const (
	defaultEndpoint   = "https://pypi.org/pypi/pikaraoke/json"
	requestTimeout    = 5 * time.Second
	defaultRetries    = 2
	defaultRetryDelay = 500 * time.Millisecond
)

// ProjectResponse is the subset of the registry payload karaokepi reads.
type ProjectResponse struct {
	Info struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"info"`
}

// NewClient builds a Client for the package metadata URL.
func NewClient(endpoint string) (*Client, error) {
	u, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	return &Client{
		endpoint: u,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent:  "karaokepi/" + version.Version,
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
	}, nil
}

// LatestVersion returns info.version from the registry. Transport failures are
// retried a couple of times; HTTP and decode errors are not.
func (c *Client) LatestVersion(ctx context.Context) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	var payload ProjectResponse
	op := func() error {
		return c.get(ctx, &payload)
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), c.retries),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		return "", err
	}
	v := strings.TrimSpace(payload.Info.Version)
	if v == "" {
		return "", fmt.Errorf("registry response has no info.version")
	}
	return v, nil
}

func (c *Client) get(ctx context.Context, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint.String(), nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(fmt.Errorf("execute request: %w", err))
		}
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return backoff.Permanent(fmt.Errorf("registry %s returned status %d", c.endpoint.Path, resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func parseEndpoint(endpoint string) (*url.URL, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		trimmed = defaultEndpoint
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse registry url %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("registry url %q must be http or https", endpoint)
	}
	u.Fragment = ""
	return u, nil
}

// Package solr executes rendered index requests against an Apache Solr core
// over its JSON select API.
package solr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/twinq/internal/index"
)

// DefaultTimeout bounds a single select request.
const DefaultTimeout = 30 * time.Second

// Client queries one Solr core.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for <baseURL>/<core>/select.
func NewClient(baseURL, core string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse solr url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("solr url %q: scheme must be http or https", baseURL)
	}
	if strings.TrimSpace(core) == "" {
		return nil, fmt.Errorf("solr core required")
	}

	c := &Client{
		endpoint: u.JoinPath(core, "select").String(),
		http:     &http.Client{Timeout: DefaultTimeout},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the select URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Error is a non-200 answer from Solr.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("solr: HTTP %d: %s", e.Status, e.Message)
}

// Query posts req as a form-encoded select and decodes the JSON response.
func (c *Client) Query(ctx context.Context, req index.Request) (*index.Result, error) {
	params := req.Params()
	params.Set("wt", "json")
	params.Set("json.nl", "flat")

	queryID := uuid.Must(uuid.NewV7()).String()
	c.logger.Debug("solr select",
		"query_id", queryID,
		"endpoint", c.endpoint,
		"fq", len(req.FilterQueries),
		"facets", len(req.Facets))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("solr select %s: %w", queryID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, readError(resp)
	}

	var body response
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode solr response: %w", err)
	}

	res, err := body.result()
	if err != nil {
		return nil, err
	}
	c.logger.Debug("solr select done",
		"query_id", queryID,
		"count", res.Count,
		"duration", time.Since(start))
	return res, nil
}

func readError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error struct {
			Msg string `json:"msg"`
		} `json:"error"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &body) == nil && body.Error.Msg != "" {
		msg = body.Error.Msg
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &Error{Status: resp.StatusCode, Message: msg}
}

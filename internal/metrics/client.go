// Package metrics talks to the upstream metrics API. Both fetches always
// produce a usable result: on any failure the built-in fixture is
// substituted and the result is marked as a fallback.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/onction/power-dashboard/internal/domain"
)

// DefaultTimeout bounds every request to the metrics API.
const DefaultTimeout = 3 * time.Second

// Source tells callers whether a result came from the API or the fixture.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

var errMalformed = errors.New("malformed response")

type SnapshotResult struct {
	Snapshot domain.Snapshot
	Source   Source
	// Err is the failure that caused a fallback; nil for live results.
	Err error
}

func (r SnapshotResult) Fallback() bool { return r.Source == SourceFallback }

type HistoryResult struct {
	Records []domain.HistoryRecord
	Source  Source
	Err     error
}

func (r HistoryResult) Fallback() bool { return r.Source == SourceFallback }

type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

type Option func(*Client)

// WithHTTPClient swaps the transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchSnapshot performs GET {base}/snapshot once.
func (c *Client) FetchSnapshot(ctx context.Context) SnapshotResult {
	var env struct {
		Data *domain.Snapshot `json:"data"`
	}
	err := c.getJSON(ctx, "/snapshot", &env, nil)
	if err == nil && (env.Data == nil || env.Data.Zones == nil) {
		err = fmt.Errorf("snapshot: %w", errMalformed)
	}
	if err != nil {
		return SnapshotResult{Snapshot: domain.FixtureSnapshot(), Source: SourceFallback, Err: err}
	}
	return SnapshotResult{Snapshot: *env.Data, Source: SourceLive}
}

// FetchHistory performs GET {base}/{feederID}/history once. Open bounds of r
// are left out of the query.
func (c *Client) FetchHistory(ctx context.Context, feederID int64, r domain.DateRange) HistoryResult {
	params := url.Values{}
	if v := r.FromParam(); v != "" {
		params.Set("from", v)
	}
	if v := r.ToParam(); v != "" {
		params.Set("to", v)
	}

	var env struct {
		Data *[]domain.HistoryRecord `json:"data"`
	}
	err := c.getJSON(ctx, "/"+strconv.FormatInt(feederID, 10)+"/history", &env, params)
	if err == nil && env.Data == nil {
		err = fmt.Errorf("history: %w", errMalformed)
	}
	if err != nil {
		return HistoryResult{Records: domain.FixtureHistory(), Source: SourceFallback, Err: err}
	}
	records := *env.Data
	if records == nil {
		records = []domain.HistoryRecord{}
	}
	return HistoryResult{Records: records, Source: SourceLive}
}

func (c *Client) getJSON(ctx context.Context, path string, out any, params url.Values) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		u += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("request failed: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

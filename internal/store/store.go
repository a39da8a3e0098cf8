// Package store implements the external document-store client of spec.md
// §6: a Convex-flavored HTTP API exposing list_unmatched_candidates (query)
// and set_candidate_match (mutation), confirmed by
// _examples/original_source/scripts/match-tiktok-music.py's
// `from convex import ConvexClient` import.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/kuben-developer/fpmatch/internal/errors"
	"github.com/kuben-developer/fpmatch/internal/logging"
)

// Candidate is one unmatched clip fetched from the external store, per
// spec.md §3/§6.
type Candidate struct {
	ID              string `json:"_id"`
	MediaURL        string `json:"media_url"`
	ExternalVideoID string `json:"external_video_id"`
	OwnerHandle     string `json:"owner_handle"`
}

// Store is the interface the pipeline depends on; the core treats both
// operations as opaque RPCs, per spec.md §6.
type Store interface {
	ListUnmatchedCandidates(ctx context.Context) ([]Candidate, error)
	SetCandidateMatch(ctx context.Context, candidateID, refID string) error
}

const listCacheKey = "list_unmatched_candidates"
const listCacheTTL = 30 * time.Second

// Client implements Store against a Convex HTTP deployment, grounded on
// internal/httpclient.Client for pooling/timeouts and on
// internal/ebird.Client's doRequestWithRetry for the retry/backoff wrapper.
type Client struct {
	baseURL    string
	deployKey  string
	httpClient *http.Client
	retries    int
	cache      *cache.Cache

	mutations chan mutationRequest
	done      chan struct{}
}

type mutationRequest struct {
	candidateID string
	refID       string
	result      chan error
}

// Config configures the Convex client.
type Config struct {
	BaseURL       string
	DeployKey     string
	HTTPTimeout   time.Duration
	RetryAttempts int
}

// New constructs a Client and starts its single-goroutine mutation sink,
// per spec.md §5's requirement that mutation calls be serialized even
// though the underlying HTTP client is itself concurrency-safe.
func New(cfg Config) *Client {
	retries := cfg.RetryAttempts
	if retries <= 0 {
		retries = 3
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL:   cfg.BaseURL,
		deployKey: cfg.DeployKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retries:   retries,
		cache:     cache.New(listCacheTTL, 2*listCacheTTL),
		mutations: make(chan mutationRequest),
		done:      make(chan struct{}),
	}
	go c.runSink()
	return c
}

// Close stops the mutation sink goroutine. Safe to call once.
func (c *Client) Close() {
	close(c.mutations)
	<-c.done
}

func (c *Client) runSink() {
	defer close(c.done)
	for req := range c.mutations {
		req.result <- c.doSetCandidateMatch(context.Background(), req.candidateID, req.refID)
	}
}

// ListUnmatchedCandidates queries the store for the current backlog,
// memoizing the response briefly so a resumed run doesn't refetch the full
// list twice within the same process.
func (c *Client) ListUnmatchedCandidates(ctx context.Context) ([]Candidate, error) {
	if cached, ok := c.cache.Get(listCacheKey); ok {
		return cached.([]Candidate), nil
	}

	var candidates []Candidate
	err := c.doWithRetry(ctx, func() error {
		return c.query(ctx, "list_unmatched_candidates", nil, &candidates)
	})
	if err != nil {
		return nil, err
	}

	c.cache.Set(listCacheKey, candidates, cache.DefaultExpiration)
	return candidates, nil
}

// SetCandidateMatch submits an accepted match, serialized through the
// client's single mutation sink goroutine.
func (c *Client) SetCandidateMatch(ctx context.Context, candidateID, refID string) error {
	req := mutationRequest{candidateID: candidateID, refID: refID, result: make(chan error, 1)}

	select {
	case c.mutations <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) doSetCandidateMatch(ctx context.Context, candidateID, refID string) error {
	args := map[string]string{"candidate_id": candidateID, "ref_id": refID}
	return c.doWithRetry(ctx, func() error {
		return c.mutate(ctx, "set_candidate_match", args, nil)
	})
}

// doWithRetry applies a linear backoff retry loop, grounded on
// internal/ebird.Client.doRequestWithRetry.
func (c *Client) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if ctx.Err() != nil {
			return lastErr
		}
		if attempt < c.retries {
			delay := time.Duration(attempt) * 500 * time.Millisecond
			logging.Warn("store request failed, retrying", "attempt", attempt, "max_attempts", c.retries, "error", lastErr.Error())
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

func (c *Client) query(ctx context.Context, path string, args any, out any) error {
	return c.call(ctx, "/api/query", path, args, out)
}

func (c *Client) mutate(ctx context.Context, path string, args any, out any) error {
	return c.call(ctx, "/api/mutation", path, args, out)
}

type rpcRequest struct {
	Path string `json:"path"`
	Args any    `json:"args"`
}

type rpcResponse struct {
	Status  string          `json:"status"`
	Value   json.RawMessage `json:"value"`
	ErrorMessage string     `json:"errorMessage"`
}

// call issues one Convex-flavored RPC call, matching the "POST
// {baseURL}/api/query (or /api/mutation) with {path, args} body and a
// deploy-key bearer header" shape named in SPEC_FULL.md §6.
func (c *Client) call(ctx context.Context, endpoint, path string, args, out any) error {
	body, err := json.Marshal(rpcRequest{Path: path, Args: args})
	if err != nil {
		return errors.New(err).Component("store").Category(errors.CategoryValidation).Build()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.New(err).Component("store").Category(errors.CategoryNetwork).Build()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.deployKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.New(err).Component("store").Category(errors.CategoryNetwork).
			Context("path", path).Build()
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.New(err).Component("store").Category(errors.CategoryNetwork).Build()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Newf("store %s returned status %d: %s", path, resp.StatusCode, string(respBody)).
			Component("store").Category(errors.CategoryNetwork).
			Context("status_code", resp.StatusCode).Context("path", path).Build()
	}

	var parsed rpcResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return errors.New(err).Component("store").Category(errors.CategoryValidation).
			Context("path", path).Build()
	}
	if parsed.Status == "error" {
		return errors.Newf("store %s failed: %s", path, parsed.ErrorMessage).
			Component("store").Category(errors.CategoryNetwork).
			Context("path", path).Build()
	}

	if out != nil && len(parsed.Value) > 0 {
		if err := json.Unmarshal(parsed.Value, out); err != nil {
			return errors.New(err).Component("store").Category(errors.CategoryValidation).
				Context("path", path).Build()
		}
	}

	return nil
}

var _ Store = (*Client)(nil)

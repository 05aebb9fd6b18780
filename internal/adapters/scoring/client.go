// Package scoring provides the HTTP client for the external scoring engine.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/okian/intake/internal/domain/model"
	"github.com/okian/intake/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultTimeout = 30 * time.Second
	scorePath      = "/score"
	tokenHeader    = "X-Internal-Token"
	maxScore       = 100
)

// Result is the scoring engine's answer for one session.
type Result struct {
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
}

// scoreRequest mirrors the engine's wire contract.
type scoreRequest struct {
	UserID     string           `json:"userId"`
	ParsedData model.ParsedData `json:"parsedData"`
}

// Client calls the external scoring engine. One attempt per call; retry
// policy, if any, belongs to the caller.
type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a scoring client with configuration options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c
}

// Score requests a score for one user's parsed data. Failures come back
// wrapped in one of the package sentinels.
func (c *Client) Score(ctx context.Context, userID string, parsed model.ParsedData) (Result, error) {
	start := time.Now()
	defer func() {
		metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))
	}()

	body, err := json.Marshal(scoreRequest{UserID: userID, ParsedData: parsed})
	if err != nil {
		return Result{}, fmt.Errorf("encode score request: %w: %w", ErrEngineError, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+scorePath, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build score request: %w: %w", ErrEngineError, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(tokenHeader, c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isUnreachable(err) {
			return Result{}, fmt.Errorf("call scoring engine: %w: %w", ErrEngineUnreachable, err)
		}
		return Result{}, fmt.Errorf("call scoring engine: %w: %w", ErrEngineError, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Result{}, fmt.Errorf("score status %d: %w", resp.StatusCode, ErrEngineUnauthorized)
	case resp.StatusCode != http.StatusOK:
		return Result{}, fmt.Errorf("score status %d: %w", resp.StatusCode, ErrEngineError)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("decode score response: %w: %w", ErrEngineError, err)
	}
	if result.Score < 0 || result.Score > maxScore {
		return Result{}, fmt.Errorf("score %d out of range: %w", result.Score, ErrEngineError)
	}
	return result, nil
}

// isUnreachable classifies transport failures that mean we never got an
// answer from the engine: timeouts and refused connections.
func isUnreachable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}

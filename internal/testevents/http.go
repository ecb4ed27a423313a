package testevents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/jettag/internal/adapters/eventfile"
	"github.com/okian/jettag/internal/domain/model"
	"github.com/okian/jettag/internal/domain/types"
)

const maxErrorBody = 512

// errNotReady marks a result that has not been published yet.
var errNotReady = errors.New("result not ready")

type submitOutcome int

const (
	outcomeAccepted submitOutcome = iota
	outcomeDuplicate
	outcomeRejected
)

// client talks to the service's HTTP API.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(cfg *Config) *client {
	return &client{http: &http.Client{Timeout: cfg.Timeout}, baseURL: cfg.BaseURL}
}

func (c *client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		r = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

func (c *client) getJSON(ctx context.Context, path string, v any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotReady
	case resp.StatusCode != http.StatusOK:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("GET %s: HTTP %d: %s", path, resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func (c *client) health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("connect to service: %w", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func (c *client) submit(ctx context.Context, e *model.Event) (submitOutcome, error) {
	resp, err := c.do(ctx, http.MethodPost, "/events", eventfile.FromEvent(e))
	if err != nil {
		return outcomeRejected, err
	}
	defer func() { _ = resp.Body.Close() }()
	switch resp.StatusCode {
	case http.StatusAccepted:
		return outcomeAccepted, nil
	case http.StatusOK:
		return outcomeDuplicate, nil
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return outcomeRejected, fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
}

func (c *client) result(ctx context.Context, eventID string) (eventfile.ResultRecord, error) {
	var rec eventfile.ResultRecord
	err := c.getJSON(ctx, "/results/"+eventID, &rec)
	return rec, err
}

func (c *client) topJets(ctx context.Context, n int) ([]types.Candidate, error) {
	var out []types.Candidate
	err := c.getJSON(ctx, "/jets/top?limit="+strconv.Itoa(n), &out)
	return out, err
}

package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/jettag/internal/domain/kinematics"
)

// HTTP client configuration constants.
const (
	defaultRequestTimeout = 30 * time.Second
	deconstructPath       = "/v1/deconstruct"
	maxErrorBodyBytes     = 512
)

// wireVector is the JSON shape of a four-vector on the oracle wire.
type wireVector struct {
	Px float64 `json:"px"`
	Py float64 `json:"py"`
	Pz float64 `json:"pz"`
	E  float64 `json:"e"`
}

type deconstructRequest struct {
	InputCard string       `json:"input_card"`
	Microjets []wireVector `json:"microjets"`
}

type deconstructResponse struct {
	PSignal     *float64 `json:"p_signal"`
	PBackground *float64 `json:"p_background"`
	Chi         *float64 `json:"chi"`
	Error       string   `json:"error,omitempty"`
}

// HTTPOption applies a configuration option to the HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) {
		if c != nil {
			h.client = c
		}
	}
}

// WithRequestTimeout sets the per-request timeout of the default client.
func WithRequestTimeout(d time.Duration) HTTPOption {
	return func(h *HTTPClient) {
		if d > 0 {
			h.client.Timeout = d
		}
	}
}

// HTTPClient is an Oracle backed by a remote shower-deconstruction service.
// The service loads the model parameters from the input card named in each
// request.
type HTTPClient struct {
	client    *http.Client
	endpoint  string
	inputCard string
}

// NewHTTPClient creates a client for the service at baseURL using the given
// input card.
func NewHTTPClient(baseURL, inputCard string, opts ...HTTPOption) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse oracle url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("oracle url %q: must be an absolute http(s) url", baseURL)
	}
	if strings.TrimSpace(inputCard) == "" {
		return nil, errors.New("oracle input card must not be empty")
	}

	h := &HTTPClient{
		client:    &http.Client{Timeout: defaultRequestTimeout},
		endpoint:  strings.TrimRight(u.String(), "/") + deconstructPath,
		inputCard: inputCard,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Endpoint returns the full deconstruction URL.
func (h *HTTPClient) Endpoint() string { return h.endpoint }

// Score posts the microjets to the service and decodes its verdict.
func (h *HTTPClient) Score(ctx context.Context, microjets []kinematics.FourVector) (Result, error) {
	body := deconstructRequest{
		InputCard: h.inputCard,
		Microjets: make([]wireVector, len(microjets)),
	}
	for i, m := range microjets {
		body.Microjets[i] = wireVector{Px: m.Px(), Py: m.Py(), Pz: m.Pz(), E: m.E()}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("marshal oracle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("create oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrOracle, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return Result{}, fmt.Errorf("%w: status %d: %s", ErrOracle, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out deconstructResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("%w: decode response: %w", ErrOracle, err)
	}
	if out.Error != "" {
		return Result{}, fmt.Errorf("%w: %s", ErrOracle, out.Error)
	}
	if out.PSignal == nil || out.PBackground == nil || out.Chi == nil {
		return Result{}, fmt.Errorf("%w: incomplete response", ErrOracle)
	}
	return Result{PSignal: *out.PSignal, PBackground: *out.PBackground, Chi: *out.Chi}, nil
}

// Package embedding implements C1's external embedding call: a Voyage-style
// HTTP client wrapped in a circuit breaker and retry policy, with a mock
// mode for tests and offline development.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"agentmemory/application/ports"
	apperrors "agentmemory/pkg/errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const mockDimension = 256

// Client implements ports.Embedder against the Voyage embeddings API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	mock       bool
	breaker    *gobreaker.CircuitBreaker
	timeout    time.Duration
	maxRetries int
	baseDelay  time.Duration
	logger     *zap.Logger
}

// Config configures a new Client.
type Config struct {
	APIKey     string
	Model      string
	Mock       bool
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
}

// New constructs an embedding client. When cfg.Mock is set, Embed returns a
// deterministic pseudo-random vector derived from the input text instead of
// calling out to Voyage — used for tests and local development without an
// API key.
func New(cfg Config, logger *zap.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "voyage-embedder",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		mock:       cfg.Mock,
		breaker:    breaker,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		logger:     logger,
	}
}

// Dimension reports the vector length this embedder produces.
func (c *Client) Dimension() int {
	return mockDimension
}

// Mode reports "mock" or "live", surfaced by /status.
func (c *Client) Mode() string {
	if c.mock {
		return "mock"
	}
	return "live"
}

// Embed turns text into a fixed-dimension vector for the given role.
func (c *Client) Embed(ctx context.Context, text string, role ports.EmbeddingRole) ([]float64, error) {
	if c.mock {
		return mockEmbedding(text), nil
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.embedWithRetry(ctx, text, role)
	})
	if err != nil {
		return nil, apperrors.NewEmbedderFailed(err)
	}
	return result.([]float64), nil
}

func (c *Client) embedWithRetry(ctx context.Context, text string, role ports.EmbeddingRole) ([]float64, error) {
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(c.baseDelay),
	), uint64(c.maxRetries))

	var result []float64
	op := func() error {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		vec, err := c.call(ctx, text, role)
		if err != nil {
			c.logger.Warn("embedder call failed, retrying", zap.Error(err))
			return err
		}
		result = vec
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return result, nil
}

type voyageRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	InputType  string   `json:"input_type"`
}

type voyageResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (c *Client) call(ctx context.Context, text string, role ports.EmbeddingRole) ([]float64, error) {
	inputType := "document"
	if role == ports.RoleQuery {
		inputType = "query"
	}

	body, err := json.Marshal(voyageRequest{Input: []string{text}, Model: c.model, InputType: inputType})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.voyageai.com/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("voyage embeddings returned %d: %s", resp.StatusCode, string(payload))
	}

	var parsed voyageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("voyage embeddings returned no data")
	}
	return parsed.Data[0].Embedding, nil
}

// mockEmbedding produces a deterministic vector from text's hash so the
// same text always embeds to the same vector within a process, without a
// network call.
func mockEmbedding(text string) []float64 {
	seed := int64(0)
	for _, r := range text {
		seed = seed*31 + int64(r)
	}
	rng := rand.New(rand.NewSource(seed))
	vec := make([]float64, mockDimension)
	for i := range vec {
		vec[i] = rng.Float64()*2 - 1
	}
	return vec
}

// Package llm implements the extract stage's external LLM call: a client
// against a configurable completion endpoint, wrapped in a circuit breaker
// and retry policy like the embedder.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"agentmemory/application/ports"
	apperrors "agentmemory/pkg/errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Client implements ports.LLMClient against an OpenAI-compatible chat
// completion endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	model      string
	breaker    *gobreaker.CircuitBreaker
	timeout    time.Duration
	maxRetries int
	baseDelay  time.Duration
	logger     *zap.Logger
}

// Config configures a new Client.
type Config struct {
	Endpoint   string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
}

// New constructs an LLM client. When cfg.Endpoint is empty, ExtractMemories
// falls back to a rule-based sentence splitter — useful for tests and for
// operating the daemon without a configured LLM.
func New(cfg Config, logger *zap.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-client",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		breaker:    breaker,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		logger:     logger,
	}
}

// ExtractMemories extracts candidate memories from a session transcript.
func (c *Client) ExtractMemories(ctx context.Context, transcript string) ([]ports.CandidateMemory, error) {
	if c.endpoint == "" {
		return ruleBasedExtract(transcript), nil
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.extractWithRetry(ctx, transcript)
	})
	if err != nil {
		return nil, apperrors.NewLLMFailed(err)
	}
	return result.([]ports.CandidateMemory), nil
}

func (c *Client) extractWithRetry(ctx context.Context, transcript string) ([]ports.CandidateMemory, error) {
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(c.baseDelay),
	), uint64(c.maxRetries))

	var result []ports.CandidateMemory
	op := func() error {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		atoms, err := c.call(ctx, transcript)
		if err != nil {
			c.logger.Warn("LLM extraction call failed, retrying", zap.Error(err))
			return err
		}
		result = atoms
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return result, nil
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

type extractedAtom struct {
	Text       string   `json:"text"`
	Tags       []string `json:"tags,omitempty"`
	MemoryType string   `json:"memoryType,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

const extractionPrompt = `Extract discrete, durable facts, preferences, decisions, and observations from the following session transcript. Respond with a JSON array of objects, each with "text", "tags", "memoryType", and optional "confidence" fields. Transcript:\n\n`

func (c *Client) call(ctx context.Context, transcript string) ([]ports.CandidateMemory, error) {
	body, err := json.Marshal(completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "user", Content: extractionPrompt + transcript},
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("LLM endpoint returned %d: %s", resp.StatusCode, string(payload))
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("LLM endpoint returned no choices")
	}

	var atoms []extractedAtom
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &atoms); err != nil {
		return nil, fmt.Errorf("LLM response was not a valid JSON atom array: %w", err)
	}

	out := make([]ports.CandidateMemory, 0, len(atoms))
	for _, a := range atoms {
		out = append(out, ports.CandidateMemory{
			Text:       a.Text,
			Tags:       a.Tags,
			MemoryType: a.MemoryType,
			Confidence: a.Confidence,
		})
	}
	return out, nil
}

const explanationPrompt = `Two memories about the same person were classified as a %q contradiction. In one short sentence, explain why they disagree. Memory A: %q. Memory B: %q.`

// ExplainContradiction asks the LLM for a short explanation of a detected
// contradiction. Falls back to a templated sentence when no LLM endpoint
// is configured, mirroring ExtractMemories' rule-based fallback.
func (c *Client) ExplainContradiction(ctx context.Context, newText, targetText string, cType string) (string, error) {
	if c.endpoint == "" {
		return ruleBasedExplanation(newText, targetText, cType), nil
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.explainWithRetry(ctx, newText, targetText, cType)
	})
	if err != nil {
		return "", apperrors.NewLLMFailed(err)
	}
	return result.(string), nil
}

func (c *Client) explainWithRetry(ctx context.Context, newText, targetText, cType string) (string, error) {
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(c.baseDelay),
	), uint64(c.maxRetries))

	var result string
	op := func() error {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		explanation, err := c.callExplain(ctx, newText, targetText, cType)
		if err != nil {
			c.logger.Warn("LLM explanation call failed, retrying", zap.Error(err))
			return err
		}
		result = explanation
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return "", err
	}
	return result, nil
}

func (c *Client) callExplain(ctx context.Context, newText, targetText, cType string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "user", Content: fmt.Sprintf(explanationPrompt, cType, newText, targetText)},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("LLM endpoint returned %d: %s", resp.StatusCode, string(payload))
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("LLM endpoint returned no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// ruleBasedExplanation is the fallback used when no LLM endpoint is
// configured: a templated sentence naming the classification and both
// statements, good enough to populate the field without an external call.
func ruleBasedExplanation(newText, targetText, cType string) string {
	return fmt.Sprintf("%s: %q appears to conflict with the earlier statement %q", cType, newText, targetText)
}

var sentenceSplit = regexp.MustCompile(`[.!?]\s+`)

// ruleBasedExtract is the fallback extractor used when no LLM endpoint is
// configured: it splits the transcript into sentences and keeps those that
// look like first-person statements, a coarse proxy for "worth remembering".
func ruleBasedExtract(transcript string) []ports.CandidateMemory {
	sentences := sentenceSplit.Split(transcript, -1)
	var out []ports.CandidateMemory
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		lower := strings.ToLower(s)
		if !strings.Contains(lower, "i ") && !strings.HasPrefix(lower, "i'") {
			continue
		}
		out = append(out, ports.CandidateMemory{Text: s})
	}
	return out
}

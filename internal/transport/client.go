// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/jeranaias/chatmux/internal/message"
	"github.com/jeranaias/chatmux/internal/registry"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultTimeout is the timeout for non-streaming requests.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the number of retry attempts for transient errors.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay caps the exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize limits non-streaming response bodies.
	MaxResponseSize = 10 * 1024 * 1024
)

// Per-provider OpenAI-compatible base URLs.
var providerBaseURLs = map[registry.Provider]string{
	registry.ProviderOpenRouter: "https://openrouter.ai/api/v1",
	registry.ProviderOpenAI:     "https://api.openai.com/v1",
	registry.ProviderGoogle:     "https://generativelanguage.googleapis.com/v1beta/openai",
}

var (
	// Shared clients with connection pooling. The streaming client carries
	// no timeout; streams are bounded by their context instead.
	sharedHTTPClient = &http.Client{
		Transport: pooledTransport(),
		Timeout:   DefaultTimeout,
	}

	sharedStreamingClient = &http.Client{
		Transport: pooledTransport(),
	}
)

func pooledTransport() *http.Transport {
	return &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotConfigured indicates no API key is set for the provider.
	ErrNotConfigured = errors.New("provider API key not configured")

	// ErrAuthFailed indicates the API key was rejected.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the model id does not exist upstream.
	ErrModelNotFound = errors.New("model not found")

	// ErrBusy indicates a stream is already in flight.
	ErrBusy = errors.New("a response is already streaming")

	// errChunkTooLarge indicates a single SSE event exceeded MaxChunkSize.
	errChunkTooLarge = errors.New("SSE event exceeds maximum chunk size")
)

// APIError is an error response from a provider.
type APIError struct {
	Code    string
	Message string
	Status  int
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("provider error (HTTP %d): %s", e.Status, e.Message)
}

// =============================================================================
// STATUS
// =============================================================================

// Status is the lifecycle state of the streaming client.
type Status int

const (
	// StatusIdle means no request has been made yet.
	StatusIdle Status = iota
	// StatusSubmitted means a request is sent but no delta has arrived.
	StatusSubmitted
	// StatusStreaming means deltas are arriving.
	StatusStreaming
	// StatusReady means the last stream completed.
	StatusReady
	// StatusError means the last stream failed.
	StatusError
)

// String returns the status identifier.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSubmitted:
		return "submitted"
	case StatusStreaming:
		return "streaming"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Busy reports whether a submit would be rejected in this state.
func (s Status) Busy() bool {
	return s == StatusSubmitted || s == StatusStreaming
}

// =============================================================================
// EVENTS
// =============================================================================

// Event is one streamed delta. Exactly one field group is set: Content or
// Reasoning for deltas, Err for a terminal failure. The channel closing
// signals the end of the stream.
type Event struct {
	Content   string
	Reasoning string
	Err       error
}

// =============================================================================
// CLIENT
// =============================================================================

// StreamRequest describes one streaming chat completion.
type StreamRequest struct {
	// Model is the catalog entry to call.
	Model registry.ModelConfig
	// APIKey authenticates with the model's provider.
	APIKey string
	// Messages is the full conversation history including the new user turn.
	Messages []*message.Message
}

// Client streams chat completions. One stream at a time; Append while busy
// returns ErrBusy.
type Client struct {
	maxRetries int

	mu      sync.Mutex
	status  Status
	cancel  context.CancelFunc
	baseURL map[registry.Provider]string
}

// NewClient creates a streaming chat client.
func NewClient() *Client {
	urls := make(map[registry.Provider]string, len(providerBaseURLs))
	for p, u := range providerBaseURLs {
		urls[p] = u
	}
	return &Client{
		maxRetries: DefaultMaxRetries,
		status:     StatusIdle,
		baseURL:    urls,
	}
}

// WithBaseURL overrides the base URL for a provider.
func (c *Client) WithBaseURL(p registry.Provider, url string) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL[p] = url
	return c
}

// Status returns the current lifecycle state.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Stop cancels the in-flight stream, if any. The stream's event channel
// closes after the cancellation propagates.
func (c *Client) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Append starts a streaming chat completion for the conversation and returns
// a channel of deltas. The channel closes when the stream ends; a terminal
// failure is delivered as a final Event with Err set.
func (c *Client) Append(ctx context.Context, req StreamRequest) (<-chan Event, error) {
	if req.APIKey == "" {
		return nil, ErrNotConfigured
	}

	c.mu.Lock()
	if c.status.Busy() {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	streamCtx, cancel := context.WithCancel(ctx)
	c.status = StatusSubmitted
	c.cancel = cancel
	c.mu.Unlock()

	events := make(chan Event, 64)

	go func() {
		defer close(events)
		err := c.stream(streamCtx, req, events)
		cancel()

		c.mu.Lock()
		c.cancel = nil
		if err != nil {
			c.status = StatusError
		} else {
			c.status = StatusReady
		}
		c.mu.Unlock()

		if err != nil {
			// Cancellation is a user action, not a failure to surface.
			if errors.Is(err, context.Canceled) {
				c.mu.Lock()
				c.status = StatusReady
				c.mu.Unlock()
				return
			}
			events <- Event{Err: err}
		}
	}()

	return events, nil
}

// stream performs the HTTP request and pumps deltas into events.
func (c *Client) stream(ctx context.Context, req StreamRequest, events chan<- Event) error {
	body := chatRequest{
		Model:    req.Model.ModelID,
		Messages: encodeMessages(req.Messages),
		Stream:   true,
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(calculateBackoff(attempt)):
			}
		}

		httpReq, err := c.newStreamRequest(ctx, req, bodyBytes)
		if err != nil {
			return err
		}

		log.Printf("API Request: POST %s model=%s", httpReq.URL.Path, req.Model.ModelID)
		start := time.Now()
		resp, err := sharedStreamingClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}
		log.Printf("API Response: %d %s (%v)", resp.StatusCode, resp.Status, time.Since(start))

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
			resp.Body.Close()
			apiErr := handleErrorResponse(resp.StatusCode, respBody)
			if !isRetryable(apiErr) {
				return apiErr
			}
			lastErr = apiErr
			continue
		}

		err = c.processStream(ctx, resp.Body, events)
		resp.Body.Close()
		return err
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) newStreamRequest(ctx context.Context, req StreamRequest, body []byte) (*http.Request, error) {
	c.mu.Lock()
	base := c.baseURL[req.Model.Provider]
	c.mu.Unlock()
	if base == "" {
		return nil, fmt.Errorf("no base URL for provider %s", req.Model.Provider)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set(req.Model.HeaderKey, req.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", "chatmux/0.1.0")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")
	return httpReq, nil
}

// processStream reads SSE events until [DONE], EOF, or cancellation.
func (c *Client) processStream(ctx context.Context, body io.Reader, events chan<- Event) error {
	reader := newSSEReader(body)
	first := true

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		data, err := reader.ReadEvent()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		if bytes.Equal(data, []byte("[DONE]")) {
			return nil
		}

		var chunk streamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			// Skip malformed chunks
			continue
		}

		if first && (chunk.content() != "" || chunk.reasoning() != "") {
			first = false
			c.mu.Lock()
			c.status = StatusStreaming
			c.mu.Unlock()
		}

		if r := chunk.reasoning(); r != "" {
			select {
			case events <- Event{Reasoning: r}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if t := chunk.content(); t != "" {
			select {
			case events <- Event{Content: t}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if chunk.done() {
			return nil
		}
	}
}

// =============================================================================
// NON-STREAMING COMPLETION
// =============================================================================

// Complete performs a single non-streaming chat completion, used by the
// title and summary generators.
func (c *Client) Complete(ctx context.Context, req StreamRequest) (string, error) {
	if req.APIKey == "" {
		return "", ErrNotConfigured
	}

	body := chatRequest{
		Model:    req.Model.ModelID,
		Messages: encodeMessages(req.Messages),
		Stream:   false,
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(calculateBackoff(attempt)):
			}
		}

		httpReq, err := c.newStreamRequest(ctx, req, bodyBytes)
		if err != nil {
			return "", err
		}
		httpReq.Header.Set("Accept", "application/json")

		resp, err := sharedHTTPClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			continue
		}

		respBody, err := readLimited(resp)
		resp.Body.Close()
		if err != nil {
			return "", err
		}

		if resp.StatusCode != http.StatusOK {
			apiErr := handleErrorResponse(resp.StatusCode, respBody)
			if !isRetryable(apiErr) {
				return "", apiErr
			}
			lastErr = apiErr
			continue
		}

		var chatResp chatResponse
		if err := json.Unmarshal(respBody, &chatResp); err != nil {
			return "", fmt.Errorf("failed to parse response: %w", err)
		}
		return chatResp.content(), nil
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// =============================================================================
// HELPERS
// =============================================================================

// readLimited reads a response body with a size cap.
func readLimited(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse maps provider error responses to Go errors.
func handleErrorResponse(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		wrapped := &APIError{
			Code:    apiErr.Error.Code,
			Message: apiErr.Error.Message,
			Status:  statusCode,
		}
		switch statusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrAuthFailed, wrapped.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrModelNotFound, wrapped.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimited, wrapped.Message)
		default:
			return wrapped
		}
	}

	switch statusCode {
	case http.StatusUnauthorized:
		return ErrAuthFailed
	case http.StatusNotFound:
		return ErrModelNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return &APIError{Message: string(body), Status: statusCode}
	}
}

// isRetryable reports whether an error should trigger a retry.
func isRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 && apiErr.Status < 600
	}
	return false
}

// calculateBackoff returns the delay before the next retry attempt.
func calculateBackoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

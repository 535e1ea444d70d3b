// Package ner provides a client for an external named-entity recognition
// service. The pipeline sends page text and filters the returned spans to
// geopolitical entities.
package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// GPE is the label the service assigns to geopolitical entities
// (countries, cities, states).
const GPE = "GPE"

// Client defines the entity-recognition operation.
type Client interface {
	// Entities extracts named entities from text.
	Entities(ctx context.Context, text string) ([]Entity, error)
}

// Entity is a single recognized span.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

type entitiesRequest struct {
	Text string `json:"text"`
}

type entitiesResponse struct {
	Entities []Entity `json:"entities"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the NER service.
func NewClient(apiKey, baseURL string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode returns true if the status should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

func (c *httpClient) Entities(ctx context.Context, text string) ([]Entity, error) {
	payload, err := json.Marshal(entitiesRequest{Text: text})
	if err != nil {
		return nil, eris.Wrap(err, "ner: marshal request")
	}

	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/entities", bytes.NewReader(payload))
		if err != nil {
			return nil, eris.Wrap(err, "ner: create request")
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = eris.Wrap(err, "ner: request failed")
		} else {
			body, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if readErr != nil {
				return nil, eris.Wrap(readErr, "ner: read response body")
			}

			if resp.StatusCode == http.StatusOK {
				var result entitiesResponse
				if err := json.Unmarshal(body, &result); err != nil {
					return nil, eris.Wrap(err, "ner: unmarshal response")
				}
				return result.Entities, nil
			}

			lastErr = eris.Errorf("ner: status %d: %s", resp.StatusCode, string(body))
			if !retryableStatusCode(resp.StatusCode) {
				return nil, lastErr
			}
		}

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return nil, lastErr
}

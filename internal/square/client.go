// Package square talks to the Square Catalog and Orders REST APIs.
package square

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/isaac-anthony/mano/internal/config"
	"github.com/isaac-anthony/mano/internal/logger"
)

// Client is a thin Square REST client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	apiVersion string
	httpClient *http.Client
	logger     *logger.Logger
}

// New creates a Client from the process configuration.
func New(cfg *config.Config, log *logger.Logger) *Client {
	return NewWithHTTPClient(cfg, log, &http.Client{Timeout: cfg.Square.Timeout})
}

// NewWithHTTPClient creates a Client using the given http.Client.
func NewWithHTTPClient(cfg *config.Config, log *logger.Logger, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.Square.Endpoint(), "/"),
		token:      cfg.Square.AccessToken,
		apiVersion: cfg.Square.APIVersion,
		httpClient: httpClient,
		logger:     log,
	}
}

// ErrorDetail is one entry of Square's "errors" array.
type ErrorDetail struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail,omitempty"`
	Field    string `json:"field,omitempty"`
}

// APIError is a non-2xx response from Square.
type APIError struct {
	StatusCode int
	Errors     []ErrorDetail
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("square: HTTP %d", e.StatusCode)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, d := range e.Errors {
		if d.Detail != "" {
			parts = append(parts, fmt.Sprintf("%s/%s: %s", d.Category, d.Code, d.Detail))
		} else {
			parts = append(parts, fmt.Sprintf("%s/%s", d.Category, d.Code))
		}
	}
	return fmt.Sprintf("square: HTTP %d: %s", e.StatusCode, strings.Join(parts, "; "))
}

// hasCategory reports whether any error detail carries category.
func (e *APIError) hasCategory(category string) bool {
	for _, d := range e.Errors {
		if d.Category == category {
			return true
		}
	}
	return false
}

// do sends one request and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if c.apiVersion != "" {
		req.Header.Set("Square-Version", c.apiVersion)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("square_request", fmt.Sprintf("%s %s - %d", method, path, resp.StatusCode), "", map[string]interface{}{
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Errors []ErrorDetail `json:"errors"`
		}
		if json.Unmarshal(raw, &envelope) == nil {
			apiErr.Errors = envelope.Errors
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

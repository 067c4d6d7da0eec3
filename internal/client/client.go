package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"resumecanvas/internal/canvas"
	"resumecanvas/internal/config"
	"resumecanvas/internal/errors"
)

// Client talks to the document persistence backend over HTTP.
// It carries a bearer token and transparently refreshes it once
// when a request comes back 401, then retries the original request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *errors.Logger
	maxRetries int

	mu    sync.Mutex
	token string

	loadBreaker *BackendCircuitBreaker
	saveBreaker *BackendCircuitBreaker
}

// NewClient creates a backend client from configuration
func NewClient(cfg *config.BackendConfig, logger *errors.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger:      logger,
		maxRetries:  cfg.MaxRetries,
		token:       cfg.Token,
		loadBreaker: NewBackendCircuitBreaker("load", cfg, logger),
		saveBreaker: NewBackendCircuitBreaker("save", cfg, logger),
	}
}

type loadResponse struct {
	Data *canvas.Document `json:"data"`
}

type saveRequest struct {
	Data      *canvas.Document `json:"data"`
	UpdatedAt string           `json:"updatedAt"`
}

type saveResponse struct {
	OK bool `json:"ok"`
}

type refreshResponse struct {
	Token string `json:"token"`
}

// Load fetches a document by ID from the backend.
// Transient transport failures are retried up to the configured limit.
func (c *Client) Load(ctx context.Context, documentID string) (*canvas.Document, error) {
	url := fmt.Sprintf("%s/resume/pdfview/%s", c.baseURL, documentID)

	body, err := c.loadBreaker.Execute(func() ([]byte, error) {
		var lastErr error
		for attempt := 0; attempt <= c.maxRetries; attempt++ {
			if attempt > 0 {
				c.logger.Debug("Retrying document load", "document_id", documentID, "attempt", attempt)
			}
			data, err := c.do(ctx, http.MethodGet, url, nil)
			if err == nil {
				return data, nil
			}
			lastErr = err
			// Only transport-level failures are worth retrying
			if appErr, ok := err.(*errors.AppError); ok && appErr.Type != errors.ErrorTypeNetwork {
				return nil, err
			}
		}
		return nil, lastErr
	})
	if err != nil {
		return nil, err
	}

	var resp loadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.NewDocumentError(errors.ErrCodeInvalidFormat, "invalid document payload from backend", err)
	}
	if resp.Data == nil {
		return nil, errors.NewDocumentError(errors.ErrCodeDocumentNotFound, fmt.Sprintf("document %s not found", documentID), nil)
	}

	c.logger.Debug("Document loaded from backend", "document_id", documentID, "elements", len(resp.Data.Elements))
	return resp.Data, nil
}

// Save writes a document to the backend. Writes are never retried on
// transport failure so a slow response cannot turn into a double write.
func (c *Client) Save(ctx context.Context, documentID string, doc *canvas.Document) error {
	url := fmt.Sprintf("%s/resume/update/%s", c.baseURL, documentID)

	payload, err := json.Marshal(saveRequest{
		Data:      doc,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return errors.NewDocumentError(errors.ErrCodeInvalidFormat, "failed to encode document", err)
	}

	body, err := c.saveBreaker.Execute(func() ([]byte, error) {
		return c.do(ctx, http.MethodPut, url, payload)
	})
	if err != nil {
		return err
	}

	var resp saveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return errors.NewNetworkError(errors.ErrCodeSaveFailed, "invalid save response from backend", err)
	}
	if !resp.OK {
		return errors.NewNetworkError(errors.ErrCodeSaveFailed, "backend rejected the save", nil)
	}

	c.logger.Info("Document saved to backend", "document_id", documentID)
	return nil
}

// Stats reports circuit breaker state for the health endpoint
func (c *Client) Stats() map[string]any {
	return map[string]any{
		"load": c.loadBreaker.GetStats(),
		"save": c.saveBreaker.GetStats(),
	}
}

// do performs one request, refreshing the bearer token at most once
// when the backend answers 401.
func (c *Client) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	body, status, err := c.send(ctx, method, url, payload)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		if err := c.refreshToken(ctx); err != nil {
			return nil, err
		}
		body, status, err = c.send(ctx, method, url, payload)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			return nil, errors.NewNetworkError(errors.ErrCodeUnauthorized, "backend rejected credentials after refresh", nil)
		}
	}

	switch {
	case status == http.StatusNotFound:
		return nil, errors.NewDocumentError(errors.ErrCodeDocumentNotFound, "document not found on backend", nil)
	case status >= 400:
		return nil, errors.NewNetworkError(errors.ErrCodeLoadFailed,
			fmt.Sprintf("backend returned status %d", status), nil)
	}

	return body, nil
}

// send performs a single HTTP round trip with the current bearer token
func (c *Client) send(ctx context.Context, method, url string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, errors.NewInternalError(errors.ErrCodeLoadFailed, "failed to build backend request", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "backend request cancelled or timed out", err)
		}
		return nil, 0, errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "backend request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "failed to read backend response", err)
	}

	return body, resp.StatusCode, nil
}

// refreshToken exchanges the current token for a fresh one
func (c *Client) refreshToken(ctx context.Context) error {
	c.logger.Debug("Refreshing backend token")

	url := c.baseURL + "/auth/refresh_token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeRefreshFailed, "failed to build refresh request", err)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewNetworkError(errors.ErrCodeRefreshFailed, "token refresh request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return errors.NewNetworkError(errors.ErrCodeRefreshFailed,
			fmt.Sprintf("token refresh returned status %d", resp.StatusCode), nil)
	}

	var refreshed refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&refreshed); err != nil {
		return errors.NewNetworkError(errors.ErrCodeRefreshFailed, "invalid refresh response", err)
	}
	if refreshed.Token == "" {
		return errors.NewNetworkError(errors.ErrCodeRefreshFailed, "refresh response missing token", nil)
	}

	c.mu.Lock()
	c.token = refreshed.Token
	c.mu.Unlock()

	c.logger.Info("Backend token refreshed")
	return nil
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

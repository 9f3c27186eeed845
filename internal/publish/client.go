package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"cardapio/internal/config"
	"cardapio/internal/menu"
)

const maxAttempts = 5

// Client posts finished parse results to a downstream endpoint.
type Client struct {
	url        string
	token      string
	httpClient *http.Client
	limiter    *RateLimiter
	log        *zap.Logger
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
}

type payload struct {
	RunID  string      `json:"runId"`
	Result menu.Result `json:"result"`
}

func NewClient(cfg config.Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		url:        strings.TrimSpace(cfg.PublishURL),
		token:      cfg.PublishToken,
		httpClient: &http.Client{Timeout: time.Duration(cfg.PublishTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.PublishRateLimitRPS),
		log:        log,
	}
}

func (c *Client) Enabled() bool { return c.url != "" }

func (c *Client) Publish(ctx context.Context, runID string, res menu.Result) error {
	if !c.Enabled() {
		return errors.New("missing PUBLISH_URL")
	}
	body, err := json.Marshal(payload{RunID: runID, Result: res})
	if err != nil {
		return fmt.Errorf("encode run %s: %w", runID, err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.WaitTurn(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Run-Id", runID)
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < maxAttempts {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				c.log.Warn("publish retry", zap.String("run", runID), zap.Int("status", resp.StatusCode), zap.Int("attempt", attempt))
				lastErr = fmt.Errorf("publish status %d", resp.StatusCode)
				if err := sleepCtx(ctx, backoff); err != nil {
					return err
				}
				continue
			}
			return fmt.Errorf("publish error: status=%d body=%s", resp.StatusCode, string(respBody))
		}

		if len(bytes.TrimSpace(respBody)) == 0 {
			return nil
		}
		var apiResp apiResponse
		if err := json.Unmarshal(respBody, &apiResp); err != nil {
			return fmt.Errorf("decode publish response: %w", err)
		}
		if !apiResp.Success {
			return fmt.Errorf("publish unsuccessful: %s %s", apiResp.Message, string(apiResp.Errors))
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("publish request failed")
	}
	return lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

package vk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/smolin/antiplag/internal/config"
	"github.com/smolin/antiplag/internal/domain"
)

// VK API error codes the client reacts to.
const (
	errCodeTooManyRequests = 6
	errCodeInvalidToken    = 5
	errCodeAccessDenied    = 15
)

// APIError is a VK API level error (HTTP 200 with an error payload).
type APIError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vk api error %d: %s", e.Code, e.Message)
}

// Transient reports whether the error is worth retrying. Rate limiting is
// transient; invalid tokens and denied access are permanent.
func (e *APIError) Transient() bool {
	return e.Code == errCodeTooManyRequests
}

// Client is a VK API client. All calls share one rate limiter so wall
// fetches and message sends together respect the API quota.
type Client struct {
	http        *resty.Client
	limiter     *rate.Limiter
	version     string
	accessToken string
	groupToken  string
	maxRetries  int
	retryDelay  time.Duration
	randomID    func() int64
}

// NewClient creates a VK API client.
// Parameters:
//   - cfg: VK connection and retry settings.
// Returns:
//   - *Client: initialized client.
func NewClient(cfg *config.VKConfig) *Client {
	httpClient := resty.New()
	httpClient.SetBaseURL(cfg.BaseURL)
	httpClient.SetTimeout(cfg.RequestTimeout)

	return &Client{
		http:        httpClient,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		version:     cfg.Version,
		accessToken: cfg.AccessToken,
		groupToken:  cfg.GroupToken,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
		randomID:    func() int64 { return time.Now().UnixNano() / int64(time.Millisecond) },
	}
}

type wallGetResponse struct {
	Response struct {
		Count int           `json:"count"`
		Items []domain.Post `json:"items"`
	} `json:"response"`
	Error *APIError `json:"error"`
}

type sendMessageResponse struct {
	Error *APIError `json:"error"`
}

// FetchRecent fetches the most recent wall posts of the given owner.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - ownerID: external owner ID (negative for communities).
//   - count: maximum number of posts, capped at 100 by the API.
// Returns:
//   - []domain.Post: posts in feed order.
//   - error: non-nil if all attempts fail.
func (c *Client) FetchRecent(ctx context.Context, ownerID int64, count int) ([]domain.Post, error) {
	if count > 100 {
		count = 100
	}
	var out wallGetResponse
	err := c.call(ctx, "wall.get", c.accessToken, map[string]string{
		"owner_id": strconv.FormatInt(ownerID, 10),
		"count":    strconv.Itoa(count),
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("wall.get owner %d: %w", ownerID, err)
	}
	return out.Response.Items, nil
}

// SendMessage sends a text message to the recipient via the group token.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - recipientID: external user ID.
//   - message: message body.
// Returns:
//   - error: non-nil if all attempts fail.
func (c *Client) SendMessage(ctx context.Context, recipientID int64, message string) error {
	var out sendMessageResponse
	err := c.call(ctx, "messages.send", c.groupToken, map[string]string{
		"user_id":   strconv.FormatInt(recipientID, 10),
		"message":   message,
		"random_id": strconv.FormatInt(c.randomID(), 10),
	}, &out)
	if err != nil {
		return fmt.Errorf("messages.send to %d: %w", recipientID, err)
	}
	return nil
}

// errorOf extracts the embedded API error from a decoded response.
func errorOf(out interface{}) *APIError {
	switch r := out.(type) {
	case *wallGetResponse:
		return r.Error
	case *sendMessageResponse:
		return r.Error
	}
	return nil
}

// call performs one API method call with rate limiting and bounded retries.
// Transient errors (rate limited) are retried after a fixed delay; permanent
// errors (invalid token, access denied) abort immediately.
func (c *Client) call(ctx context.Context, method, token string, params map[string]string, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetQueryParam("access_token", token).
			SetQueryParam("v", c.version).
			Get("/" + method)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.IsError() {
			lastErr = fmt.Errorf("%s: http status %d", method, resp.StatusCode())
			continue
		}
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("%s: failed to decode response: %w", method, err)
		}
		if apiErr := errorOf(out); apiErr != nil {
			if apiErr.Transient() {
				lastErr = apiErr
				continue
			}
			return apiErr
		}
		return nil
	}
	return fmt.Errorf("%s: retries exhausted: %w", method, lastErr)
}

// IsPermanent reports whether err is a permanent VK API failure that must
// not be retried on later runs either.
func IsPermanent(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == errCodeInvalidToken || apiErr.Code == errCodeAccessDenied
	}
	return false
}

// ComplaintURL builds the support URL for filing a complaint about a post.
// Parameters:
//   - ownerID: owner of the offending post.
//   - postID: post ID within the owner's wall.
// Returns:
//   - string: complaint form URL.
func ComplaintURL(ownerID, postID int64) string {
	return fmt.Sprintf("https://vk.com/support?act=report&type=post&owner_id=%d&item_id=%d", ownerID, postID)
}

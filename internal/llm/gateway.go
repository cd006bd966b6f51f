package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/Veraticus/sortwise/internal/common"
	"github.com/Veraticus/sortwise/internal/model"
)

// GatewayRequest is one call to the inference relay.
type GatewayRequest struct {
	Mode            model.ScanMode
	Prompt          string
	Image           string // base64 data URL, empty for text scans
	ContextImage    string
	BearerToken     string // empty for guests
	MaxOutputTokens int
	UseWebSearch    bool
}

// GatewayResponse carries the raw reply text and the guest quota state.
type GatewayResponse struct {
	Text  string
	Quota Quota
}

// Gateway delivers prompts to the inference relay.
type Gateway interface {
	Send(ctx context.Context, req GatewayRequest) (GatewayResponse, error)
	GuestQuota(ctx context.Context) (Quota, error)
}

// RelayConfig configures RelayClient.
type RelayConfig struct {
	URL           string
	QuotaURL      string
	APIKey        string
	Timeout       time.Duration
	MaxImageBytes int
}

// RelayClient implements Gateway over HTTP.
type RelayClient struct {
	httpClient    *http.Client
	metrics       Metrics
	url           string
	quotaURL      string
	apiKey        string
	maxImageBytes int
}

// NewRelayClient creates a relay client.
func NewRelayClient(cfg RelayConfig, metrics Metrics) (*RelayClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: relay URL is required", common.ErrMissingConfig)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: relay API key is required", common.ErrMissingConfig)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if metrics == nil {
		metrics = NoopMetrics()
	}

	return &RelayClient{
		url:           cfg.URL,
		quotaURL:      cfg.QuotaURL,
		apiKey:        cfg.APIKey,
		maxImageBytes: cfg.MaxImageBytes,
		metrics:       metrics,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

type relayRequest struct {
	Image           *string `json:"image"`
	ContextImage    *string `json:"contextImage"`
	Mode            string  `json:"mode"`
	Prompt          string  `json:"prompt"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	UseWebSearch    bool    `json:"useWebSearch"`
}

type relayResponse struct {
	Text       string `json:"text"`
	OutputText string `json:"output_text"`
	Choices    []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// replyText picks the first non-empty reply field: text, then the first
// chat choice, then output_text.
func (r relayResponse) replyText() string {
	if strings.TrimSpace(r.Text) != "" {
		return r.Text
	}
	if len(r.Choices) > 0 && strings.TrimSpace(r.Choices[0].Message.Content) != "" {
		return r.Choices[0].Message.Content
	}
	return r.OutputText
}

// Send posts the prompt to the relay. Oversized images fail locally with a
// ValidationError; any relay or transport failure is an InferenceError.
func (c *RelayClient) Send(ctx context.Context, req GatewayRequest) (GatewayResponse, error) {
	body := relayRequest{
		Mode:            string(req.Mode),
		Prompt:          req.Prompt,
		MaxOutputTokens: req.MaxOutputTokens,
		UseWebSearch:    req.UseWebSearch,
	}
	if req.Image != "" {
		if err := ValidateImage(req.Image, c.maxImageBytes); err != nil {
			return GatewayResponse{}, err
		}
		body.Image = &req.Image
	}
	if req.ContextImage != "" {
		if err := ValidateImage(req.ContextImage, c.maxImageBytes); err != nil {
			return GatewayResponse{}, err
		}
		body.ContextImage = &req.ContextImage
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return GatewayResponse{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonBody))
	if err != nil {
		return GatewayResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq, req.BearerToken)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.ObserveRelayRequest("network_error", time.Since(start))
		return GatewayResponse{}, &common.InferenceError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ObserveRelayRequest("network_error", time.Since(start))
		return GatewayResponse{}, &common.InferenceError{Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.ObserveRelayRequest(fmt.Sprintf("http_%d", resp.StatusCode), time.Since(start))
		return GatewayResponse{}, relayError(resp.StatusCode, respBody)
	}
	c.metrics.ObserveRelayRequest("ok", time.Since(start))

	out := GatewayResponse{Quota: quotaFromHeaders(resp.Header)}

	var decoded relayResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		// An unreadable success body is treated as an empty reply; the parser
		// will fall back to defaults.
		return out, nil
	}
	out.Text = decoded.replyText()
	return out, nil
}

// GuestQuota asks the relay how many guest scans remain. It is a read, so
// transient failures are retried.
func (c *RelayClient) GuestQuota(ctx context.Context) (Quota, error) {
	if c.quotaURL == "" {
		return DefaultQuota(), nil
	}

	var quota Quota
	err := common.WithRetry(ctx, func() error {
		q, err := c.fetchGuestQuota(ctx)
		if err != nil {
			return err
		}
		quota = q
		return nil
	}, common.RetryOptions{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond})
	if err != nil {
		return Quota{}, err
	}
	return quota, nil
}

func (c *RelayClient) fetchGuestQuota(ctx context.Context) (Quota, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.quotaURL, nil)
	if err != nil {
		return Quota{}, &common.RetryableError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	c.setHeaders(httpReq, "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Quota{}, &common.InferenceError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Quota{}, &common.InferenceError{Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		relayErr := relayError(resp.StatusCode, body)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return Quota{}, relayErr
		}
		return Quota{}, &common.RetryableError{Err: relayErr, Retryable: false}
	}

	var payload struct {
		Used      *int `json:"used"`
		Remaining *int `json:"remaining"`
		Limit     *int `json:"limit"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Quota{}, &common.RetryableError{Err: fmt.Errorf("failed to parse quota: %w", err)}
	}

	q := Quota{Limit: DefaultGuestLimit, Reported: true}
	if payload.Limit != nil {
		q.Limit = *payload.Limit
	}
	if payload.Used != nil {
		q.Used = *payload.Used
	}
	if payload.Remaining != nil {
		q.Remaining = *payload.Remaining
	} else {
		q.Remaining = max(q.Limit-q.Used, 0)
	}
	return q, nil
}

func (c *RelayClient) setHeaders(req *http.Request, bearer string) {
	req.Header.Set("apikey", c.apiKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
}

// relayError builds an InferenceError from a non-2xx relay reply, keeping
// any structured payload.
func relayError(status int, body []byte) error {
	inferenceErr := &common.InferenceError{Status: status}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		inferenceErr.Payload = payload
		inferenceErr.Message = payloadMessage(payload)
	}
	if inferenceErr.Message == "" {
		inferenceErr.Message = common.Truncate(strings.TrimSpace(string(body)), 300)
	}
	if inferenceErr.Message == "" {
		inferenceErr.Message = http.StatusText(status)
	}
	return inferenceErr
}

func payloadMessage(payload map[string]any) string {
	for _, key := range []string{"error", "message", "detail"} {
		switch v := payload[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if msg := payloadMessage(v); msg != "" {
				return msg
			}
		}
	}
	return ""
}

// IsInferenceError reports whether err came from the relay round trip.
func IsInferenceError(err error) bool {
	var inferenceErr *common.InferenceError
	return errors.As(err, &inferenceErr)
}

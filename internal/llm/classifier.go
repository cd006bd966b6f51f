package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/sortwise/internal/common"
	"github.com/Veraticus/sortwise/internal/model"
)

// Config holds configuration for the Classifier.
type Config struct {
	CacheTTL        time.Duration
	MaxImageBytes   int
	MaxOutputTokens int
	RateLimit       int
	CacheSizeMB     int
	UseWebSearch    bool
	CacheEnabled    bool
}

// Outcome is the result of one classification round trip.
type Outcome struct {
	Quota    *Quota // nil when the reply came from the cache
	RawText  string
	Strategy Strategy
	Result   model.ClassificationResult
	Cached   bool
}

// Degraded reports whether the structured result came from the heuristic
// fallback; the raw reply should be shown alongside it.
func (o Outcome) Degraded() bool {
	return o.Strategy == StrategyHeuristic
}

// Classifier runs prompt construction, the relay call and reply parsing.
type Classifier struct {
	gateway     Gateway
	cache       *replyCache
	rateLimiter *rateLimiter
	metrics     Metrics
	logger      *slog.Logger
	cfg         Config
}

// NewClassifier creates a Classifier on top of gateway.
func NewClassifier(gateway Gateway, cfg Config, metrics Metrics, logger *slog.Logger) *Classifier {
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = 600
	}
	if metrics == nil {
		metrics = NoopMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Classifier{
		gateway:     gateway,
		rateLimiter: newRateLimiter(cfg.RateLimit),
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
	}
	if cfg.CacheEnabled {
		c.cache = newReplyCache(cfg.CacheSizeMB, cfg.CacheTTL)
	}
	return c
}

// Classify sends req to the relay and decodes the reply. bearerToken is empty
// for guests. Validation failures happen before any network call.
func (c *Classifier) Classify(ctx context.Context, req model.ClassificationRequest, bearerToken string) (Outcome, error) {
	prompt := BuildPrompt(req)

	gwReq := GatewayRequest{
		Mode:            req.Mode,
		Prompt:          prompt,
		BearerToken:     bearerToken,
		MaxOutputTokens: c.cfg.MaxOutputTokens,
		UseWebSearch:    c.cfg.UseWebSearch,
	}

	if req.Mode == model.ScanModePhoto {
		if len(req.ImageData) == 0 {
			return Outcome{}, common.NewValidationError("image", "a photo is required for a photo scan")
		}
		gwReq.Image = EncodeImageDataURL(req.ImageData, req.ImageMIME)
		if err := ValidateImage(gwReq.Image, c.cfg.MaxImageBytes); err != nil {
			return Outcome{}, err
		}
	}

	cacheable := c.cache != nil && req.Mode == model.ScanModeText
	if cacheable {
		if raw, ok := c.cache.get(prompt); ok {
			c.metrics.IncCache(true)
			c.logger.Debug("reply cache hit", "mode", req.Mode)
			return c.decode(raw, nil, true), nil
		}
		c.metrics.IncCache(false)
	}

	if err := c.rateLimiter.wait(ctx); err != nil {
		return Outcome{}, err
	}

	resp, err := c.gateway.Send(ctx, gwReq)
	if err != nil {
		c.logger.Warn("inference relay call failed", "mode", req.Mode, "error", err)
		return Outcome{}, fmt.Errorf("classify %s scan: %w", req.Mode, err)
	}

	if cacheable && resp.Text != "" {
		c.cache.set(prompt, resp.Text)
	}

	quota := resp.Quota
	return c.decode(resp.Text, &quota, false), nil
}

// GuestQuota reports the remaining guest allowance.
func (c *Classifier) GuestQuota(ctx context.Context) (Quota, error) {
	return c.gateway.GuestQuota(ctx)
}

func (c *Classifier) decode(raw string, quota *Quota, cached bool) Outcome {
	parsed := ParseResponse(raw)
	c.metrics.IncParseStrategy(parsed.Strategy)

	c.logger.Info("item classified",
		"item", parsed.Result.Item,
		"material", parsed.Result.Material,
		"bin", parsed.Result.Bin,
		"recyclable", parsed.Result.Recyclable,
		"confidence", parsed.Result.Confidence,
		"strategy", parsed.Strategy,
		"cached", cached)

	return Outcome{
		Result:   parsed.Result,
		Strategy: parsed.Strategy,
		RawText:  raw,
		Quota:    quota,
		Cached:   cached,
	}
}

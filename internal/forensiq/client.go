// Package forensiq checks ad-bid requests against the Forensiq fraud-scoring
// API.
//
// A Client encodes the bid fields into a check URL, sends it over a pooled
// HTTP transport, compares the returned risk score with a threshold, and
// keeps running call/latency totals. Caller mistakes (missing seller or IP,
// an unbuilt client) are returned as errors. Anything that goes wrong once a
// request has been sent is logged and turned into an OutcomeUnavailable
// result, so a provider outage changes bidding policy instead of failing
// the bid pipeline.
package forensiq

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/mbd888/bidguard/internal/circuitbreaker"
	"github.com/mbd888/bidguard/internal/traces"
)

// Client is a configured Forensiq checker. It is safe for concurrent use.
// The zero value is not built; Evaluate on it returns NotInitializedError.
type Client struct {
	cfg        ProviderConfig
	endpoint   *url.URL
	transport  Executor
	pool       *Transport // nil when a custom Executor was supplied
	stats      *Stats
	breaker    *circuitbreaker.Breaker
	breakerKey string
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for absorbed provider failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithStats shares an existing Stats, e.g. one process-wide aggregate
// across several clients.
func WithStats(s *Stats) Option {
	return func(c *Client) {
		c.stats = s
	}
}

// WithExecutor replaces the pooled transport (for testing).
func WithExecutor(e Executor) Option {
	return func(c *Client) {
		c.transport = e
	}
}

// New validates cfg, applies defaults, and builds the pooled transport.
// A failure here is fatal for the client; nothing is retried per call.
func New(cfg ProviderConfig, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	endpoint, err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:        cfg,
		endpoint:   endpoint,
		breakerKey: endpoint.Host,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		pool, err := NewTransport(cfg)
		if err != nil {
			return nil, fmt.Errorf("build transport: %w", err)
		}
		c.pool = pool
		c.transport = pool
	}
	if c.stats == nil {
		c.stats = &Stats{}
	}
	if cfg.BreakerThreshold > 0 {
		c.breaker = circuitbreaker.New(cfg.BreakerThreshold, cfg.BreakerCooldown)
		c.breaker.OnTransition(func(key string, from, to circuitbreaker.State) {
			c.logger.Warn("forensiq circuit state changed",
				"provider", key,
				"from", from.String(),
				"to", to.String(),
			)
		})
	}
	return c, nil
}

// Evaluate checks req against the provider.
//
// It returns an error only for NotInitializedError and MissingFieldError.
// Transport failures and malformed responses produce an OutcomeUnavailable
// result with RoundTripMillis set to FallbackLatencyMillis and FailOpen set
// from the config.
func (c *Client) Evaluate(ctx context.Context, req Request) (*Result, error) {
	if c == nil || c.transport == nil {
		return nil, &NotInitializedError{Component: "client"}
	}

	rawURL, err := EncodeURL(c.endpoint, c.cfg.APIKey, req)
	if err != nil {
		return nil, err
	}

	ctx, span := traces.StartSpan(ctx, "forensiq.evaluate",
		traces.Provider(Source),
		traces.Seller(req.SellerDomain),
		traces.RequestType(req.RequestType),
	)
	defer span.End()

	if c.breaker != nil && !c.breaker.Allow(c.breakerKey) {
		res := c.unavailable(req, "circuit open")
		c.stats.Record(FallbackLatencyMillis)
		fqFailures.WithLabelValues("circuit_open").Inc()
		fqEvaluations.WithLabelValues(res.Outcome.String()).Inc()
		span.SetAttributes(traces.Outcome(res.Outcome.String()))
		return res, nil
	}

	start := c.now()
	score, err := c.check(ctx, rawURL)
	if err != nil {
		res := c.fallback(ctx, req, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, failureKind(err))
		span.SetAttributes(traces.Outcome(res.Outcome.String()))
		return res, nil
	}

	elapsed := c.now().Sub(start).Milliseconds()
	c.stats.Record(elapsed)
	if c.breaker != nil {
		c.breaker.RecordSuccess(c.breakerKey)
	}

	outcome := OutcomeClear
	if score.RiskScore > c.cfg.RiskThreshold {
		outcome = OutcomeFlagged
	}
	res := newResult(outcome, req)
	risk := score.RiskScore
	res.RiskScore = &risk
	res.ProviderTimeMs = score.TimeMs
	res.RoundTripMillis = elapsed

	fqEvaluations.WithLabelValues(outcome.String()).Inc()
	fqRoundTrip.Observe(float64(elapsed) / 1000)
	fqRiskScore.Observe(float64(risk))
	span.SetAttributes(
		traces.Outcome(outcome.String()),
		traces.RiskScore(risk),
		traces.RoundTripMillis(elapsed),
	)
	return res, nil
}

func (c *Client) check(ctx context.Context, rawURL string) (Score, error) {
	body, _, err := c.transport.Execute(ctx, rawURL)
	if err != nil {
		return Score{}, err
	}
	return ParseResponse(body)
}

// fallback logs err and returns the Unavailable verdict. The call still
// counts toward Stats, at the fallback latency. A call abandoned by the
// caller is not held against the provider.
func (c *Client) fallback(ctx context.Context, req Request, err error) *Result {
	kind := failureKind(err)
	level := slog.LevelError
	if ctx.Err() != nil {
		kind = "canceled"
		level = slog.LevelWarn
	}
	c.logger.Log(ctx, level, "forensiq check failed",
		"error", err,
		"kind", kind,
		"seller", req.SellerDomain,
		"ip", req.ClientIP,
		"fail_open", c.cfg.FailOpenOnError,
	)

	c.stats.Record(FallbackLatencyMillis)
	if c.breaker != nil {
		if kind == "canceled" {
			c.breaker.Release(c.breakerKey)
		} else {
			c.breaker.RecordFailure(c.breakerKey)
		}
	}
	fqFailures.WithLabelValues(kind).Inc()
	fqEvaluations.WithLabelValues(OutcomeUnavailable.String()).Inc()

	return c.unavailable(req, err.Error())
}

func (c *Client) unavailable(req Request, reason string) *Result {
	res := newResult(OutcomeUnavailable, req)
	res.RoundTripMillis = FallbackLatencyMillis
	res.Reason = reason
	res.FailOpen = c.cfg.FailOpenOnError
	return res
}

// Config returns a copy of the client's configuration with defaults applied.
func (c *Client) Config() ProviderConfig {
	if c == nil {
		return ProviderConfig{}
	}
	return c.cfg
}

// FailOpenOnError reports the configured fail-open policy.
func (c *Client) FailOpenOnError() bool {
	return c != nil && c.cfg.FailOpenOnError
}

// Stats returns the client's call/latency totals.
func (c *Client) Stats() *Stats {
	if c == nil {
		return nil
	}
	return c.stats
}

// Maintain evicts idle pooled connections. The host decides how often to
// call it; in-flight calls are unaffected.
func (c *Client) Maintain() {
	if c == nil || c.pool == nil {
		return
	}
	c.pool.Maintain()
	c.logger.Debug("forensiq pool maintained", "in_flight", c.pool.InFlight())
}

// Transport returns the pooled transport, or nil when a custom Executor
// was supplied.
func (c *Client) Transport() *Transport {
	if c == nil {
		return nil
	}
	return c.pool
}

// BreakerState returns the provider circuit state. It is always closed
// when the breaker is disabled.
func (c *Client) BreakerState() circuitbreaker.State {
	if c == nil || c.breaker == nil {
		return circuitbreaker.StateClosed
	}
	return c.breaker.State(c.breakerKey)
}

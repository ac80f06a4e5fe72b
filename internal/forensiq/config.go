package forensiq

import (
	"fmt"
	"net/url"
	"time"
)

// Defaults for ProviderConfig. The threshold, pool size, and idle retention
// match the values the bidder has always shipped with.
const (
	DefaultEndpoint         = "http://api.forensiq.com/check"
	DefaultRiskThreshold    = 64
	DefaultMaxConnections   = 100
	DefaultIdleRetention    = 1000 * time.Second
	DefaultRequestTimeout   = time.Second
	DefaultConnectTimeout   = 500 * time.Millisecond
	DefaultBreakerCooldown  = 30 * time.Second
	DefaultRequestType      = "display"
	FallbackLatencyMillis   = 5
	Source                  = "Forensiq"
	maxResponseSize         = 1 << 20 // 1 MiB
	maxErrorBodySnippetSize = 256
)

// ProviderConfig is captured by value when a Client is built. Changing any
// field means building a new Client.
type ProviderConfig struct {
	// Endpoint is the absolute check URL, without a query string.
	Endpoint string
	// APIKey is the Forensiq check key sent as "ck".
	APIKey string
	// RiskThreshold flags any request whose riskScore is strictly greater.
	// Zero is a real threshold; DefaultProviderConfig supplies 64.
	RiskThreshold int
	// MaxConnections bounds the pool in total and per host.
	MaxConnections int
	// FailOpenOnError tells the bidding pipeline to bid anyway when the
	// provider is unavailable. The client only reports it.
	FailOpenOnError bool

	// RequestTimeout bounds a whole round trip including reading the body.
	RequestTimeout time.Duration
	// ConnectTimeout bounds dialing a new pooled connection.
	ConnectTimeout time.Duration
	// IdleRetention is how long an idle pooled connection may be kept.
	IdleRetention time.Duration

	// BreakerThreshold is the number of consecutive failures that opens the
	// provider circuit. Zero disables the breaker.
	BreakerThreshold int
	// BreakerCooldown is how long the circuit stays open before a probe.
	BreakerCooldown time.Duration
}

// DefaultProviderConfig returns a config with every default applied and an
// empty API key.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{RiskThreshold: DefaultRiskThreshold}.withDefaults()
}

func (c ProviderConfig) withDefaults() ProviderConfig {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.MaxConnections == 0 {
		c.MaxConnections = DefaultMaxConnections
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.IdleRetention == 0 {
		c.IdleRetention = DefaultIdleRetention
	}
	if c.BreakerThreshold > 0 && c.BreakerCooldown == 0 {
		c.BreakerCooldown = DefaultBreakerCooldown
	}
	return c
}

// Validate checks the config after defaults have been applied and returns
// the parsed endpoint.
func (c ProviderConfig) Validate() (*url.URL, error) {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("forensiq: invalid endpoint %q: %w", c.Endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("forensiq: endpoint %q must use http or https", c.Endpoint)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("forensiq: endpoint %q has no host", c.Endpoint)
	}
	if u.RawQuery != "" {
		return nil, fmt.Errorf("forensiq: endpoint %q must not carry a query string", c.Endpoint)
	}
	if c.RiskThreshold < 0 {
		return nil, fmt.Errorf("forensiq: risk threshold must not be negative, got %d", c.RiskThreshold)
	}
	if c.MaxConnections < 0 {
		return nil, fmt.Errorf("forensiq: max connections must not be negative, got %d", c.MaxConnections)
	}
	if c.RequestTimeout < 0 || c.ConnectTimeout < 0 || c.IdleRetention < 0 {
		return nil, fmt.Errorf("forensiq: timeouts must not be negative")
	}
	if c.BreakerThreshold < 0 {
		return nil, fmt.Errorf("forensiq: breaker threshold must not be negative, got %d", c.BreakerThreshold)
	}
	return u, nil
}

package transport

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kbukum/resourcekit/resilience"
	"github.com/kbukum/resourcekit/validation"
)

const defaultTimeout = 30 * time.Second

// Config configures the HTTP transport.
type Config struct {
	Name string `yaml:"name" mapstructure:"name" json:"name"`

	// BaseURL resolves relative request URLs and server-provided locations.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" json:"base_url"`

	// Timeout bounds a single attempt. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" json:"timeout"`

	// Headers are sent with every request. Request headers win.
	Headers map[string]string `yaml:"headers" mapstructure:"headers" json:"headers"`

	// UserAgent defaults to version.UserAgent("resourcekit").
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent" json:"user_agent"`

	// HTTP2 enables HTTP/2 over TLS on the underlying transport.
	HTTP2 bool `yaml:"http2" mapstructure:"http2" json:"http2"`

	TLS  *TLSConfig  `yaml:"tls" mapstructure:"tls" json:"tls"`
	Auth *AuthConfig `yaml:"auth" mapstructure:"auth" json:"auth"`

	// Retry applies to idempotent methods only. Nil disables retry.
	Retry *resilience.RetryConfig `yaml:"retry" mapstructure:"retry" json:"retry"`

	CircuitBreaker resilience.BreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker" json:"circuit_breaker"`
	RateLimiter    resilience.LimiterConfig `yaml:"rate_limiter" mapstructure:"rate_limiter" json:"rate_limiter"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "resourcekit"
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Retry != nil {
		c.Retry.ApplyDefaults()
		c.Retry.RetryIf = IsRetryable
	}
	if c.CircuitBreaker.Name == "" {
		c.CircuitBreaker.Name = c.Name
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	v := validation.New().
		URL("base_url", c.BaseURL).
		Custom(c.Timeout > 0, "timeout", "must be positive")
	if c.RateLimiter.Enabled {
		v.Custom(c.RateLimiter.Rate > 0, "rate_limiter.rate", "must be positive")
	}
	if err := v.Err(); err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	if err := c.TLS.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// baseURL returns the parsed base URL with a trailing slash on its path so
// relative references resolve below it.
func (c *Config) baseURL() *url.URL {
	if c.BaseURL == "" {
		return nil
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil
	}
	if u.Path == "" || u.Path[len(u.Path)-1] != '/' {
		u.Path += "/"
	}
	return u
}

// DefaultRetryConfig returns a retry config that retries transport errors.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return &cfg
}

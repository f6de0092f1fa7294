package transport

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthType identifies the authentication method.
type AuthType string

const (
	AuthNone   AuthType = ""
	AuthBearer AuthType = "bearer"
	AuthBasic  AuthType = "basic"
	AuthAPIKey AuthType = "api_key"
	// AuthJWT signs a short-lived HS256 token and sends it as a bearer token.
	AuthJWT    AuthType = "jwt"
	AuthCustom AuthType = "custom"
)

// AuthConfig configures request authentication.
type AuthConfig struct {
	Type AuthType `yaml:"type" mapstructure:"type" json:"type"`

	// Token is the bearer token.
	Token string `yaml:"token" mapstructure:"token" json:"token"`

	Username string `yaml:"username" mapstructure:"username" json:"username"`
	Password string `yaml:"password" mapstructure:"password" json:"password"`

	// Key is the API key value. In is "header" (default) or "query";
	// Name defaults to X-API-Key.
	Key  string `yaml:"key" mapstructure:"key" json:"key"`
	In   string `yaml:"in" mapstructure:"in" json:"in"`
	Name string `yaml:"name" mapstructure:"name" json:"name"`

	JWT *JWTConfig `yaml:"jwt" mapstructure:"jwt" json:"jwt"`

	// Apply modifies the request (AuthCustom).
	Apply func(*http.Request) `yaml:"-" mapstructure:"-" json:"-"`

	signer *jwtSigner
	once   sync.Once
}

// JWTConfig describes the self-signed token sent with AuthJWT.
type JWTConfig struct {
	Secret   string        `yaml:"secret" mapstructure:"secret" json:"secret"`
	Issuer   string        `yaml:"issuer" mapstructure:"issuer" json:"issuer"`
	Subject  string        `yaml:"subject" mapstructure:"subject" json:"subject"`
	Audience string        `yaml:"audience" mapstructure:"audience" json:"audience"`
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl" json:"ttl"`
}

// BearerAuth creates a bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// BasicAuth creates a basic auth config.
func BasicAuth(username, password string) *AuthConfig {
	return &AuthConfig{Type: AuthBasic, Username: username, Password: password}
}

// APIKeyAuth creates an API key auth config sent via the X-API-Key header.
func APIKeyAuth(key string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: "header", Name: "X-API-Key"}
}

// APIKeyAuthQuery creates an API key auth config sent via query parameter.
func APIKeyAuthQuery(key, paramName string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: "query", Name: paramName}
}

// JWTAuth creates an auth config that signs its own bearer tokens.
func JWTAuth(cfg JWTConfig) *AuthConfig {
	return &AuthConfig{Type: AuthJWT, JWT: &cfg}
}

// CustomAuth creates a custom auth config with a request modifier function.
func CustomAuth(fn func(*http.Request)) *AuthConfig {
	return &AuthConfig{Type: AuthCustom, Apply: fn}
}

// Validate checks the fields required by the auth type.
func (a *AuthConfig) Validate() error {
	if a == nil {
		return nil
	}
	switch a.Type {
	case AuthNone, AuthCustom:
	case AuthBearer:
		if a.Token == "" {
			return fmt.Errorf("transport/auth: bearer auth requires a token")
		}
	case AuthBasic:
		if a.Username == "" {
			return fmt.Errorf("transport/auth: basic auth requires a username")
		}
	case AuthAPIKey:
		if a.Key == "" {
			return fmt.Errorf("transport/auth: api_key auth requires a key")
		}
	case AuthJWT:
		if a.JWT == nil || a.JWT.Secret == "" {
			return fmt.Errorf("transport/auth: jwt auth requires a secret")
		}
	default:
		return fmt.Errorf("transport/auth: unknown auth type %q", a.Type)
	}
	return nil
}

// apply applies authentication to an HTTP request.
func (a *AuthConfig) apply(req *http.Request) error {
	if a == nil {
		return nil
	}
	switch a.Type {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+a.Token)
	case AuthBasic:
		req.SetBasicAuth(a.Username, a.Password)
	case AuthAPIKey:
		name := a.Name
		if name == "" {
			name = "X-API-Key"
		}
		if a.In == "query" {
			q := req.URL.Query()
			q.Set(name, a.Key)
			req.URL.RawQuery = q.Encode()
		} else {
			req.Header.Set(name, a.Key)
		}
	case AuthJWT:
		a.once.Do(func() { a.signer = newJWTSigner(*a.JWT, time.Now) })
		token, err := a.signer.token()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	case AuthCustom:
		if a.Apply != nil {
			a.Apply(req)
		}
	}
	return nil
}

// jwtSigner caches a signed token until it is within a tenth of its TTL of
// expiring.
type jwtSigner struct {
	cfg JWTConfig
	now func() time.Time

	mu      sync.Mutex
	cached  string
	expires time.Time
}

func newJWTSigner(cfg JWTConfig, now func() time.Time) *jwtSigner {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	return &jwtSigner{cfg: cfg, now: now}
}

func (s *jwtSigner) token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.cached != "" && now.Before(s.expires.Add(-s.cfg.TTL/10)) {
		return s.cached, nil
	}

	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   s.cfg.Subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
	}
	if s.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.cfg.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("transport/auth: sign jwt: %w", err)
	}
	s.cached = signed
	s.expires = now.Add(s.cfg.TTL)
	return signed, nil
}

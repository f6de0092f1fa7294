package transport

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newReq() *http.Request {
	req, _ := http.NewRequest(http.MethodGet, "http://example.com/path", nil)
	return req
}

func TestAuth_Apply(t *testing.T) {
	tests := []struct {
		name  string
		auth  *AuthConfig
		check func(t *testing.T, r *http.Request)
	}{
		{"bearer", BearerAuth("tok"), func(t *testing.T, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("got %q", got)
			}
		}},
		{"basic", BasicAuth("user", "pass"), func(t *testing.T, r *http.Request) {
			u, p, ok := r.BasicAuth()
			if !ok || u != "user" || p != "pass" {
				t.Errorf("basic auth not set: %q %q %v", u, p, ok)
			}
		}},
		{"api key header", APIKeyAuth("k"), func(t *testing.T, r *http.Request) {
			if got := r.Header.Get("X-API-Key"); got != "k" {
				t.Errorf("got %q", got)
			}
		}},
		{"api key query", APIKeyAuthQuery("k", "api_key"), func(t *testing.T, r *http.Request) {
			if got := r.URL.Query().Get("api_key"); got != "k" {
				t.Errorf("got %q", got)
			}
		}},
		{"custom", CustomAuth(func(r *http.Request) { r.Header.Set("X-Custom", "v") }), func(t *testing.T, r *http.Request) {
			if got := r.Header.Get("X-Custom"); got != "v" {
				t.Errorf("got %q", got)
			}
		}},
		{"nil", nil, func(t *testing.T, r *http.Request) {
			if len(r.Header) != 0 {
				t.Errorf("expected no headers, got %v", r.Header)
			}
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := newReq()
			if err := tc.auth.apply(req); err != nil {
				t.Fatalf("apply: %v", err)
			}
			tc.check(t, req)
		})
	}
}

func TestAuth_JWT(t *testing.T) {
	auth := JWTAuth(JWTConfig{Secret: "s3cret", Issuer: "resourcectl", Subject: "svc", Audience: "api", TTL: time.Minute})
	req := newReq()
	if err := auth.apply(req); err != nil {
		t.Fatalf("apply: %v", err)
	}

	raw := req.Header.Get("Authorization")[len("Bearer "):]
	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte("s3cret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithAudience("api"))
	if err != nil || !tok.Valid {
		t.Fatalf("expected valid token, got %v", err)
	}
	if claims.Issuer != "resourcectl" || claims.Subject != "svc" {
		t.Errorf("unexpected claims %+v", claims)
	}

	second := newReq()
	auth.apply(second)
	if second.Header.Get("Authorization") != req.Header.Get("Authorization") {
		t.Error("expected cached token to be reused")
	}
}

func TestJWTSigner_Refresh(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := newJWTSigner(JWTConfig{Secret: "x", TTL: 10 * time.Minute}, func() time.Time { return now })

	first, _ := s.token()
	now = now.Add(5 * time.Minute)
	if same, _ := s.token(); same != first {
		t.Error("expected token reuse halfway through its life")
	}
	now = now.Add(4*time.Minute + 30*time.Second)
	if renewed, _ := s.token(); renewed == first {
		t.Error("expected a fresh token close to expiry")
	}
}

func TestAuth_Validate(t *testing.T) {
	tests := []struct {
		name    string
		auth    *AuthConfig
		wantErr bool
	}{
		{"nil", nil, false},
		{"bearer", BearerAuth("t"), false},
		{"bearer empty", &AuthConfig{Type: AuthBearer}, true},
		{"basic empty", &AuthConfig{Type: AuthBasic}, true},
		{"api key empty", &AuthConfig{Type: AuthAPIKey}, true},
		{"jwt", JWTAuth(JWTConfig{Secret: "x"}), false},
		{"jwt no secret", &AuthConfig{Type: AuthJWT}, true},
		{"unknown", &AuthConfig{Type: "oauth"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.auth.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

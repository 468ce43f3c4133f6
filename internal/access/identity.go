package access

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oggyb/loveknot/internal/config"
	svcErr "github.com/oggyb/loveknot/internal/errors"
)

// Identity is the verified caller extracted from a bearer assertion.
type Identity struct {
	Subject string
	Email   string
}

// Verifier validates a raw bearer assertion.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// identityClaims is the claims shape issued by the identity provider.
type identityClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified,omitempty"`
}

// JWTVerifier validates identity tokens signed with either a shared HMAC
// secret (HS256) or an RSA key pair (RS256).
type JWTVerifier struct {
	issuer   string
	audience string
	key      any
	methods  []string
	now      func() time.Time
}

// NewJWTVerifier builds a verifier from auth config. now may be nil.
func NewJWTVerifier(cfg config.AuthConfig, now func() time.Time) (*JWTVerifier, error) {
	if now == nil {
		now = time.Now
	}
	v := &JWTVerifier{
		issuer:   strings.TrimSpace(cfg.Issuer),
		audience: strings.TrimSpace(cfg.Audience),
		now:      now,
	}

	pemKey := strings.TrimSpace(cfg.PublicKeyPEM)
	secret := cfg.HMACSecret
	switch {
	case pemKey != "" && secret != "":
		return nil, errors.New("AUTH_JWT_SECRET and AUTH_JWT_PUBLIC_KEY are mutually exclusive")
	case pemKey != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemKey))
		if err != nil {
			return nil, fmt.Errorf("parse AUTH_JWT_PUBLIC_KEY: %w", err)
		}
		v.key = key
		v.methods = []string{jwt.SigningMethodRS256.Alg()}
	case secret != "":
		v.key = []byte(secret)
		v.methods = []string{jwt.SigningMethodHS256.Alg()}
	default:
		return nil, errors.New("one of AUTH_JWT_SECRET or AUTH_JWT_PUBLIC_KEY is required")
	}
	return v, nil
}

// NewRSAVerifier is a convenience constructor for an in-memory RSA key.
func NewRSAVerifier(key *rsa.PublicKey, issuer, audience string, now func() time.Time) *JWTVerifier {
	if now == nil {
		now = time.Now
	}
	return &JWTVerifier{
		issuer:   issuer,
		audience: audience,
		key:      key,
		methods:  []string{jwt.SigningMethodRS256.Alg()},
		now:      now,
	}
}

// Verify checks signature, algorithm, expiry, issuer and audience and
// returns the caller's lower-cased email.
func (v *JWTVerifier) Verify(_ context.Context, raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, svcErr.Unauthorized("missing identity token")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims identityClaims
	if _, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}, opts...); err != nil {
		return Identity{}, &svcErr.Error{Kind: svcErr.KindUnauthorized, Message: "invalid identity token", Err: err}
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		return Identity{}, svcErr.Unauthorized("identity token has no email")
	}
	if claims.EmailVerified != nil && !*claims.EmailVerified {
		return Identity{}, svcErr.Unauthorized("email not verified")
	}

	return Identity{Subject: claims.Subject, Email: email}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

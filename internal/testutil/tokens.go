package testutil

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/loveknot/internal/access"
	"github.com/oggyb/loveknot/internal/config"
)

const (
	testIssuer   = "https://identity.test"
	testAudience = "loveknot-test"
)

// TokenIssuer signs HS256 identity tokens accepted by its Verifier.
type TokenIssuer struct {
	t      *testing.T
	secret []byte
}

func NewTokenIssuer(t *testing.T) *TokenIssuer {
	return &TokenIssuer{t: t, secret: []byte("test-secret-" + t.Name())}
}

func (i *TokenIssuer) AuthConfig() config.AuthConfig {
	return config.AuthConfig{Issuer: testIssuer, Audience: testAudience, HMACSecret: string(i.secret)}
}

func (i *TokenIssuer) Verifier() *access.JWTVerifier {
	i.t.Helper()
	v, err := access.NewJWTVerifier(i.AuthConfig(), nil)
	require.NoError(i.t, err)
	return v
}

// Token returns a valid token for email, expiring in one hour.
func (i *TokenIssuer) Token(email string) string {
	i.t.Helper()
	return i.Sign(jwt.MapClaims{
		"iss":   testIssuer,
		"aud":   testAudience,
		"sub":   "uid-" + email,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
}

// Sign signs arbitrary claims with the issuer's secret.
func (i *TokenIssuer) Sign(claims jwt.MapClaims) string {
	i.t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	require.NoError(i.t, err)
	return signed
}

// Authorize sets the bearer header for email on req.
func (i *TokenIssuer) Authorize(req *http.Request, email string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+i.Token(email))
	return req
}

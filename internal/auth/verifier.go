package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Verifier checks customer access tokens. Tokens are HS256-signed JWTs whose
// subject carries the customer identifier; issuance lives in the identity
// service, this API only verifies.
type Verifier struct {
	Secret    []byte
	Issuer    string
	Audience  string
	ClockSkew time.Duration
}

// ParseAndVerify validates the token signature and claims and returns the
// customer identifier from the subject claim.
func (v Verifier) ParseAndVerify(raw string) (string, error) {
	if len(v.Secret) == 0 {
		return "", errors.New("auth: verifier secret not configured")
	}
	options := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, v.Secret),
		jwt.WithValidate(true),
	}
	if v.ClockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(v.ClockSkew))
	}
	if v.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		options = append(options, jwt.WithAudience(v.Audience))
	}

	tok, err := jwt.Parse([]byte(raw), options...)
	if err != nil {
		return "", fmt.Errorf("auth: parse token: %w", err)
	}
	subject := strings.TrimSpace(tok.Subject())
	if subject == "" {
		return "", errors.New("auth: token missing subject")
	}
	return subject, nil
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-mealbox/internal/common"
)

const testSecret = "test-secret-key-for-hs256-tokens"

func signedToken(t *testing.T, mutate func(b *jwt.Builder)) string {
	t.Helper()
	b := jwt.NewBuilder().
		Subject("customer-123").
		Issuer("mealbox").
		Audience([]string{"mealbox-api"}).
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Hour))
	if mutate != nil {
		mutate(b)
	}
	tok, err := b.Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte(testSecret)))
	require.NoError(t, err)
	return string(signed)
}

func testVerifier() Verifier {
	return Verifier{
		Secret:   []byte(testSecret),
		Issuer:   "mealbox",
		Audience: "mealbox-api",
	}
}

func TestParseAndVerifyReturnsSubject(t *testing.T) {
	t.Parallel()

	customerID, err := testVerifier().ParseAndVerify(signedToken(t, nil))
	require.NoError(t, err)
	require.Equal(t, "customer-123", customerID)
}

func TestParseAndVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	raw := signedToken(t, func(b *jwt.Builder) {
		b.Expiration(time.Now().Add(-time.Hour))
	})
	_, err := testVerifier().ParseAndVerify(raw)
	require.Error(t, err)
}

func TestParseAndVerifyRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	raw := signedToken(t, func(b *jwt.Builder) {
		b.Issuer("someone-else")
	})
	_, err := testVerifier().ParseAndVerify(raw)
	require.Error(t, err)
}

func TestRequireAuthAttachesCustomerID(t *testing.T) {
	t.Parallel()

	mw := Middleware{Verifier: testVerifier()}
	var gotID string
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = common.CustomerID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, nil))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, "customer-123", gotID)
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	t.Parallel()

	mw := Middleware{Verifier: testVerifier()}
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

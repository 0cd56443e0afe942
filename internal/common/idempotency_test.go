package common

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyRejectsReplay(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	idem := Idem{R: client, TTL: time.Minute}
	calls := 0
	wrapped := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	req.Header.Set("Idempotency-Key", "abc-123")

	rr1 := httptest.NewRecorder()
	wrapped.ServeHTTP(rr1, req.Clone(req.Context()))
	require.Equal(t, http.StatusCreated, rr1.Code)
	require.Equal(t, 1, calls)

	rr2 := httptest.NewRecorder()
	wrapped.ServeHTTP(rr2, req.Clone(req.Context()))
	require.Equal(t, http.StatusConflict, rr2.Code)
	require.Equal(t, 1, calls)
	require.Equal(t, "IDEMPOTENT_REPLAY", decodeErrorBody(t, rr2).Code)
}

func TestIdempotencyWithoutKeyPassesThrough(t *testing.T) {
	idem := Idem{}
	wrapped := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestIdempotencyDistinctKeysBothProceed(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	idem := Idem{R: client, TTL: time.Minute}
	wrapped := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	for _, key := range []string{"first", "second"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
		req.Header.Set("Idempotency-Key", key)
		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, req)
		require.Equal(t, http.StatusCreated, rr.Code)
	}
}

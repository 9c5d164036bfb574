package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/dinein-kiosk/internal/obs"
)

// IdempotencyHeader carries the client-chosen key of a write request.
const IdempotencyHeader = "Idempotency-Key"

// Idem provides an Idempotency-Key middleware backed by Redis. A key is held for
// TTL once the handler answers below 500; server errors release it so the client
// may try again with the same key.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "idem:" + hex.EncodeToString(sum[:])
}

// Middleware enforces idempotency semantics for write endpoints.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ttl := i.TTL
		if ttl <= 0 {
			ttl = 10 * time.Minute
		}
		key := hashKey(header)
		ok, err := i.R.SetNX(r.Context(), key, "locked", ttl).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, CodeInternal, "idempotency store error", map[string]any{"error": err.Error()})
			return
		}
		if !ok {
			JSONError(w, http.StatusConflict, CodeReplay, "duplicate request", nil)
			return
		}
		recorder := obs.NewStatusRecorder(w)
		released := false
		defer func() {
			if released {
				return
			}
			// the key must expire even if the handler panicked
			_ = i.R.Expire(context.Background(), key, ttl).Err()
		}()
		next.ServeHTTP(recorder, r)
		if recorder.Status() >= http.StatusInternalServerError {
			released = i.R.Del(context.Background(), key).Err() == nil
		}
	})
}

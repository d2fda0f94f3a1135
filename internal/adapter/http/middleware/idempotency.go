package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/iho/emart/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the store.
	IdempotencyReplayHeader = "X-Idempotency-Replay"
)

// storedResponse is what the store keeps for a completed request.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// IdempotencyMiddleware replays the first successful response of a POST or
// PUT for a repeated Idempotency-Key.
type IdempotencyMiddleware struct {
	store usecase.IdempotencyStore
	ttl   time.Duration
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware. A zero ttl
// uses usecase.IdempotencyKeyTTL.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		key = scopedKey(r, key)

		exists, cached, err := m.store.CheckAndSet(r.Context(), key, nil, m.ttl)
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("idempotency check failed")
			writeError(w, http.StatusInternalServerError, "something went wrong")
			return
		}

		if exists {
			if cached == nil {
				writeError(w, http.StatusConflict, "request with this idempotency key is in progress")
				return
			}
			replay(w, r, cached)
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}
		m.serve(next, recorder, r, key)

		if recorder.statusCode < 200 || recorder.statusCode >= 300 {
			m.release(r, key)
			return
		}

		data, err := json.Marshal(storedResponse{
			Status:      recorder.statusCode,
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
		})
		if err == nil {
			err = m.store.Update(r.Context(), key, data, m.ttl)
		}
		if err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("failed to store idempotent response")
		}
	})
}

// serve runs next and frees the in-flight marker if it panics, so a retry
// with the same key is not rejected as in progress until the TTL expires.
func (m *IdempotencyMiddleware) serve(next http.Handler, w http.ResponseWriter, r *http.Request, key string) {
	defer func() {
		if p := recover(); p != nil {
			m.release(r, key)
			panic(p)
		}
	}()

	next.ServeHTTP(w, r)
}

func (m *IdempotencyMiddleware) release(r *http.Request, key string) {
	if err := m.store.Release(r.Context(), key); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("failed to release idempotency key")
	}
}

// scopedKey ties a client key to the endpoint and, when the request is
// authenticated, to the token subject.
func scopedKey(r *http.Request, key string) string {
	scope := r.Method + " " + r.URL.Path
	if claims, ok := ClaimsFromContext(r.Context()); ok && claims != nil {
		subject := claims.Subject
		if subject == "" {
			subject = claims.Username
		}
		scope = subject + " " + scope
	}
	return scope + " " + key
}

func replay(w http.ResponseWriter, r *http.Request, cached []byte) {
	var resp storedResponse
	if err := json.Unmarshal(cached, &resp); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("corrupt idempotent response")
		writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.Header().Set(IdempotencyReplayHeader, "true")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/infrastructure/auth"
)

type fakeIdempotencyStore struct {
	mu       sync.Mutex
	entries  map[string][]byte
	released []string
	checkErr error
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{entries: make(map[string][]byte)}
}

func (f *fakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.checkErr != nil {
		return false, nil, f.checkErr
	}
	if stored, ok := f.entries[key]; ok {
		return true, stored, nil
	}
	f.entries[key] = nil
	return false, nil, nil
}

func (f *fakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries[key] = response
	return nil
}

func (f *fakeIdempotencyStore) Release(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.entries, key)
	f.released = append(f.released, key)
	return nil
}

func postWithKey(key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", bytes.NewBufferString(`{}`))
	req.Header.Set(IdempotencyKeyHeader, key)
	return req
}

func TestIdempotencyMiddleware_StoreErrorFailsRequest(t *testing.T) {
	var called bool
	store := newFakeIdempotencyStore()
	store.checkErr = context.DeadlineExceeded
	mw := NewIdempotencyMiddleware(store, time.Hour)

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, postWithKey("key-err"))

	if called {
		t.Fatalf("handler should not be called when store errors")
	}
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_ReplaysSuccessfulResponse(t *testing.T) {
	var calls int
	mw := NewIdempotencyMiddleware(newFakeIdempotencyStore(), 0)
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":9}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, postWithKey("sale-1"))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, postWithKey("sale-1"))

	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed status 201, got %d", second.Code)
	}
	if second.Body.String() != `{"id":9}` {
		t.Fatalf("unexpected replayed body %q", second.Body.String())
	}
	if second.Header().Get(IdempotencyReplayHeader) != "true" {
		t.Fatalf("expected replay header")
	}
}

func TestIdempotencyMiddleware_ReleasesFailedResponses(t *testing.T) {
	var calls int
	store := newFakeIdempotencyStore()
	mw := NewIdempotencyMiddleware(store, time.Hour)
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("key-fail"))
	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("key-fail"))

	if calls != 2 {
		t.Fatalf("expected failed request to be retryable, handler ran %d times", calls)
	}
	if len(store.released) != 2 {
		t.Fatalf("expected key to be released twice, got %v", store.released)
	}
}

func TestIdempotencyMiddleware_InFlightConflict(t *testing.T) {
	store := newFakeIdempotencyStore()
	store.entries["POST /api/v1/sales busy"] = nil
	mw := NewIdempotencyMiddleware(store, time.Hour)

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run while the key is in flight")
	})).ServeHTTP(rr, postWithKey("busy"))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_IgnoresReads(t *testing.T) {
	store := newFakeIdempotencyStore()
	store.checkErr = context.Canceled
	mw := NewIdempotencyMiddleware(store, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales", nil)
	req.Header.Set(IdempotencyKeyHeader, "ignored")
	rr := httptest.NewRecorder()

	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected GET to bypass the store, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_PanicReleasesKey(t *testing.T) {
	var calls int
	store := newFakeIdempotencyStore()
	mw := NewIdempotencyMiddleware(store, time.Hour)
	handler := Recovery(mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			panic("printer jammed")
		}
		w.WriteHeader(http.StatusCreated)
	})))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, postWithKey("sale-panic"))
	if first.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500 from recovery, got %d", first.Code)
	}
	if len(store.released) != 1 {
		t.Fatalf("expected key to be released after panic, got %v", store.released)
	}

	retry := httptest.NewRecorder()
	handler.ServeHTTP(retry, postWithKey("sale-panic"))
	if retry.Code != http.StatusCreated {
		t.Fatalf("expected retry to reach the handler, got %d", retry.Code)
	}
	if calls != 2 {
		t.Fatalf("expected handler to run twice, ran %d times", calls)
	}
}

func TestIdempotencyMiddleware_ScopesKeysBySubject(t *testing.T) {
	var calls int
	mw := NewIdempotencyMiddleware(newFakeIdempotencyStore(), time.Hour)
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		claims, _ := ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(claims.Username))
	}))

	asOperator := func(name string) *http.Request {
		req := postWithKey("shared-key")
		claims := &auth.Claims{
			Username:         name,
			Role:             domain.RoleCashier,
			RegisteredClaims: jwt.RegisteredClaims{Subject: name},
		}
		return req.WithContext(contextWithClaims(req, claims))
	}

	alice := httptest.NewRecorder()
	handler.ServeHTTP(alice, asOperator("alice"))
	bob := httptest.NewRecorder()
	handler.ServeHTTP(bob, asOperator("bob"))

	if calls != 2 {
		t.Fatalf("expected each operator's request to run, ran %d times", calls)
	}
	if bob.Body.String() != "bob" || bob.Header().Get(IdempotencyReplayHeader) != "" {
		t.Fatalf("bob received a replay of another operator's response: %q", bob.Body.String())
	}

	again := httptest.NewRecorder()
	handler.ServeHTTP(again, asOperator("alice"))
	if calls != 2 || again.Body.String() != "alice" {
		t.Fatalf("expected alice's own response to be replayed, got %q after %d calls", again.Body.String(), calls)
	}
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/iho/emart/internal/adapter/http/dto"
	"github.com/iho/emart/internal/domain"
)

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/sales?page=3", nil)
	if got := parseIntQuery(req, "page", 1); got != 3 {
		t.Fatalf("expected page=3, got %d", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/sales?page=invalid", nil)
	if got := parseIntQuery(req, "page", 1); got != 1 {
		t.Fatalf("expected fallback to default, got %d", got)
	}

	req.URL = &url.URL{RawQuery: ""}
	if got := parseIntQuery(req, "size", 25); got != 25 {
		t.Fatalf("expected default when missing, got %d", got)
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"sale not found", domain.ErrSaleNotFound, http.StatusNotFound},
		{"wrapped installment not found", fmt.Errorf("load: %w", domain.ErrInstallmentNotFound), http.StatusNotFound},
		{"validation", domain.NewValidationError("actualPayment", domain.MsgPaymentExceedsRemaining), http.StatusBadRequest},
		{"expired token", domain.ErrExpiredToken, http.StatusUnauthorized},
		{"insufficient role", domain.ErrInsufficientRole, http.StatusForbidden},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()

	writeJSON(rr, http.StatusCreated, map[string]string{"status": "ok"})

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type application/json, got %s", ct)
	}

	var decoded map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if decoded["status"] != "ok" {
		t.Fatalf("expected payload to round-trip, got %+v", decoded)
	}
}

func TestRespondErrorValidationFields(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sales", nil)

	respondError(rr, req, domain.NewValidationError("items", "Not enough stock present"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	resp := decodeError(t, rr)
	if resp.Error != "validation failed" || resp.Fields["items"] != "Not enough stock present" {
		t.Fatalf("unexpected error body %+v", resp)
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sales/1", nil)

	respondError(rr, req, errors.New("pq: connection reset"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if body := rr.Body.String(); strings.Contains(body, "connection reset") {
		t.Fatalf("internal detail leaked: %s", body)
	}
	if resp := decodeError(t, rr); resp.Error != msgInternal {
		t.Fatalf("expected generic message, got %q", resp.Error)
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/companies", strings.NewReader("{"))

	var body dto.NameRequest
	if decode(rr, req, &body) {
		t.Fatal("expected decode to fail")
	}
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestPathIDRejectsNonPositive(t *testing.T) {
	for _, raw := range []string{"abc", "0", "-4"} {
		rr := httptest.NewRecorder()
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/sales/"+raw, nil), "id", raw)

		if _, ok := pathID(rr, req, "id"); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
		if resp := decodeError(t, rr); resp.Fields["id"] == "" {
			t.Fatalf("expected id field error for %q, got %+v", raw, resp)
		}
	}
}

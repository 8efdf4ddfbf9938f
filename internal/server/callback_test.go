package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ewhitmore/spotcollect/internal/auth"
)

func TestCallbackHandler(t *testing.T) {
	t.Run("Valid Callback", func(t *testing.T) {
		h := NewCallbackHandler("s_1")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=s_1&code=c_1", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Login Complete") {
			t.Error("expected the completion page")
		}

		select {
		case cb := <-h.Result():
			if cb.Code != "c_1" {
				t.Errorf("expected code c_1, got %q", cb.Code)
			}
			if cb.Error() != nil {
				t.Errorf("expected no error, got %v", cb.Error())
			}
		default:
			t.Fatal("expected a callback on the result channel")
		}
	})

	t.Run("State Mismatch", func(t *testing.T) {
		h := NewCallbackHandler("s_1")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=s_evil&code=c_1", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		cb := <-h.Result()
		if cb.Error() == nil {
			t.Error("expected a state error")
		}
		if cb.Code != "" {
			t.Errorf("expected no code, got %q", cb.Code)
		}
	})

	t.Run("Provider Error", func(t *testing.T) {
		h := NewCallbackHandler("s_1")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=s_1&error=access_denied&error_description=user+declined", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		cb := <-h.Result()
		if cb.Error() == nil || !strings.Contains(cb.Error().Error(), "access_denied") {
			t.Errorf("expected the provider error surfaced, got %v", cb.Error())
		}
	})

	t.Run("Replay Rejected", func(t *testing.T) {
		h := NewCallbackHandler("s_1")

		first := httptest.NewRecorder()
		h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/callback?state=s_1&code=c_1", nil))

		second := httptest.NewRecorder()
		h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/callback?state=s_1&code=c_2", nil))

		if second.Code != http.StatusBadRequest {
			t.Errorf("expected 400 on replay, got %d", second.Code)
		}

		cb := <-h.Result()
		if cb.Code != "c_1" {
			t.Errorf("expected the first code kept, got %q", cb.Code)
		}
		if _, ok := <-h.Result(); ok {
			t.Error("expected the channel closed after one result")
		}
	})

	t.Run("Routes", func(t *testing.T) {
		h := NewCallbackHandler("s_1")
		routes := h.Routes()
		if len(routes) != 1 || routes[0] != "/callback" {
			t.Errorf("unexpected routes %+v", routes)
		}
	})
}

func TestResultHandler(t *testing.T) {
	const backendOrigin = "http://127.0.0.1:3001"

	post := func(origin, body string) (*httptest.ResponseRecorder, *ResultHandler) {
		h := NewResultHandler(backendOrigin, nil)
		req := httptest.NewRequest(http.MethodPost, "/auth/result", strings.NewReader(body))
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec, h
	}

	t.Run("Accepts Trusted Origin", func(t *testing.T) {
		rec, h := post(backendOrigin, `{"type":"spotify-auth-success","token":"tok_1"}`)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}

		select {
		case r := <-h.Result():
			if !r.Success || r.Token != "tok_1" {
				t.Errorf("unexpected record %+v", r)
			}
		default:
			t.Fatal("expected a record delivered")
		}
	})

	t.Run("Failure Message", func(t *testing.T) {
		_, h := post(backendOrigin, `{"type":"spotify-auth-failure","error":"denied"}`)

		r := <-h.Result()
		if r.Success {
			t.Error("expected failure record")
		}
		if r.Error != "denied" {
			t.Errorf("expected error carried, got %q", r.Error)
		}
	})

	t.Run("Untrusted Origin Ignored", func(t *testing.T) {
		rec, h := post("http://evil.example.com", `{"type":"spotify-auth-success","token":"tok_1"}`)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected a silent 204, got %d", rec.Code)
		}
		select {
		case <-h.Result():
			t.Error("expected no record from an untrusted origin")
		default:
		}
	})

	t.Run("Missing Origin Ignored", func(t *testing.T) {
		rec, h := post("", `{"type":"spotify-auth-success"}`)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
		select {
		case <-h.Result():
			t.Error("expected no record without an origin header")
		default:
		}
	})

	t.Run("Malformed Payload", func(t *testing.T) {
		rec, _ := post(backendOrigin, "{not json")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Wrong Method", func(t *testing.T) {
		h := NewResultHandler(backendOrigin, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/result", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Mirrors To Result File", func(t *testing.T) {
		file := auth.NewResultFile(filepath.Join(t.TempDir(), "auth_result.json"), nil)
		h := NewResultHandler(backendOrigin, file)

		req := httptest.NewRequest(http.MethodPost, "/auth/result", strings.NewReader(`{"type":"spotify-auth-success","token":"tok_1"}`))
		req.Header.Set("Origin", backendOrigin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		r, ok := file.Sweep()
		if !ok {
			t.Fatal("expected the record mirrored to shared storage")
		}
		if !r.Success || r.Token != "tok_1" {
			t.Errorf("unexpected mirrored record %+v", r)
		}
	})

	t.Run("Delivers Once", func(t *testing.T) {
		h := NewResultHandler(backendOrigin, nil)

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodPost, "/auth/result", strings.NewReader(`{"type":"spotify-auth-success"}`))
			req.Header.Set("Origin", backendOrigin)
			h.ServeHTTP(httptest.NewRecorder(), req)
		}

		if _, ok := <-h.Result(); !ok {
			t.Fatal("expected one record")
		}
		if _, ok := <-h.Result(); ok {
			t.Error("expected the channel closed after one record")
		}
	})
}

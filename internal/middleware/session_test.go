// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jasim-space/showcase/internal/session"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func sessionTestHandler(t *testing.T) (http.Handler, *session.Manager) {
	t.Helper()
	manager := session.NewManager(testSecret)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := GetSession(r)
		if !ok {
			t.Error("GetSession returned no session inside gated handler")
		}
		_, _ = w.Write([]byte(sess.Email))
	})
	return RequireSession(manager)(next), manager
}

func TestRequireSession_ValidToken(t *testing.T) {
	handler, manager := sessionTestHandler(t)

	token, _, err := manager.Issue("admin@example.com", time.Now())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/products", nil)
	req.Header.Set(session.HeaderName, token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "admin@example.com" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestRequireSession_Rejections(t *testing.T) {
	handler, manager := sessionTestHandler(t)

	expired, _, err := manager.Issue("admin@example.com", time.Now().Add(-session.TTL-time.Minute))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	otherManager := session.NewManager("another-secret-another-secret-xx")
	forged, _, err := otherManager.Issue("admin@example.com", time.Now())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"missing header", ""},
		{"garbage token", "not-a-token"},
		{"expired token", expired},
		{"wrong secret", forged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/products", nil)
			if tt.token != "" {
				req.Header.Set(session.HeaderName, tt.token)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if body["error"] == "" {
				t.Error("response has no error field")
			}
		})
	}
}

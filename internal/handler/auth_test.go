// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"testing"
	"time"
)

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)

	rec := env.do(t, http.MethodPost, "/api/admin/login", "", loginBody{testEmail, testPassword})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var body sessionResponse
	decodeBody(t, rec, &body)
	if body.Email != testEmail {
		t.Errorf("Email = %q", body.Email)
	}

	sess, err := env.sessions.Parse(body.Token, time.Now())
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if sess.Email != testEmail {
		t.Errorf("token email = %q", sess.Email)
	}
}

func TestLogin_NormalizesEmail(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)

	rec := env.do(t, http.MethodPost, "/api/admin/login", "", loginBody{"  Admin@Example.COM ", testPassword})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestLogin_GenericFailure(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)

	// Wrong password and unknown account must be indistinguishable.
	wrongPassword := env.do(t, http.MethodPost, "/api/admin/login", "", loginBody{testEmail, "nope"})
	unknownEmail := env.do(t, http.MethodPost, "/api/admin/login", "", loginBody{"ghost@example.com", testPassword})

	for name, code := range map[string]int{"wrong password": wrongPassword.Code, "unknown email": unknownEmail.Code} {
		if code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, code)
		}
	}
	if wrongPassword.Body.String() != unknownEmail.Body.String() {
		t.Errorf("failure bodies differ: %q vs %q", wrongPassword.Body.String(), unknownEmail.Body.String())
	}
}

func TestLogin_ExpiredSessionRejected(t *testing.T) {
	env := newTestEnv(t)

	token, _, err := env.sessions.Issue(testEmail, time.Now().Add(-25*time.Hour))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/admin/analytics", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for expired token", rec.Code)
	}
}

func TestChallenge_Issue(t *testing.T) {
	env := newTestEnv(t)

	id, answer := env.solveChallenge(t)
	if id == "" {
		t.Fatal("challenge has no ID")
	}
	if answer < 2 || answer > 20 {
		t.Errorf("answer = %d, want sum of two operands in [1,10]", answer)
	}
}

func TestUpdatePassword(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)
	token := env.adminToken(t)

	id, answer := env.solveChallenge(t)
	rec := env.do(t, http.MethodPost, "/api/admin/update-password", token, map[string]any{
		"newPassword":     "brand-new-password",
		"challengeId":     id,
		"challengeAnswer": answer,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Old password no longer works, new one does.
	if rec := env.do(t, http.MethodPost, "/api/admin/login", "", loginBody{testEmail, testPassword}); rec.Code != http.StatusUnauthorized {
		t.Errorf("old password login status = %d, want 401", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/admin/login", "", loginBody{testEmail, "brand-new-password"}); rec.Code != http.StatusOK {
		t.Errorf("new password login status = %d, want 200", rec.Code)
	}
}

func TestUpdatePassword_WrongChallengeBlocksMutation(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)
	token := env.adminToken(t)

	id, answer := env.solveChallenge(t)
	rec := env.do(t, http.MethodPost, "/api/admin/update-password", token, map[string]any{
		"newPassword":     "brand-new-password",
		"challengeId":     id,
		"challengeAnswer": answer + 1,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	// The wrong answer consumed the challenge; replaying the right one
	// must fail too.
	rec = env.do(t, http.MethodPost, "/api/admin/update-password", token, map[string]any{
		"newPassword":     "brand-new-password",
		"challengeId":     id,
		"challengeAnswer": answer,
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("replay status = %d, want 403", rec.Code)
	}

	// Password unchanged.
	if rec := env.do(t, http.MethodPost, "/api/admin/login", "", loginBody{testEmail, testPassword}); rec.Code != http.StatusOK {
		t.Errorf("original password login status = %d, want 200", rec.Code)
	}
}

func TestUpdatePassword_TooShort(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)
	token := env.adminToken(t)

	id, answer := env.solveChallenge(t)
	rec := env.do(t, http.MethodPost, "/api/admin/update-password", token, map[string]any{
		"newPassword":     "short",
		"challengeId":     id,
		"challengeAnswer": answer,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)
	token := env.adminToken(t)

	id, answer := env.solveChallenge(t)
	rec := env.do(t, http.MethodPost, "/api/admin/update-email", token, map[string]any{
		"newEmail":        "new-admin@example.com",
		"password":        testPassword,
		"challengeId":     id,
		"challengeAnswer": answer,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var body sessionResponse
	decodeBody(t, rec, &body)
	if body.Email != "new-admin@example.com" {
		t.Errorf("Email = %q", body.Email)
	}

	// The re-issued token is valid for the new identity.
	sess, err := env.sessions.Parse(body.Token, time.Now())
	if err != nil || sess.Email != "new-admin@example.com" {
		t.Errorf("re-issued token: sess=%+v err=%v", sess, err)
	}

	// Login moves to the new address.
	if rec := env.do(t, http.MethodPost, "/api/admin/login", "", loginBody{testEmail, testPassword}); rec.Code != http.StatusUnauthorized {
		t.Errorf("old email login status = %d, want 401", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/admin/login", "", loginBody{"new-admin@example.com", testPassword}); rec.Code != http.StatusOK {
		t.Errorf("new email login status = %d, want 200", rec.Code)
	}
}

func TestUpdateEmail_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)
	token := env.adminToken(t)

	id, answer := env.solveChallenge(t)
	rec := env.do(t, http.MethodPost, "/api/admin/update-email", token, map[string]any{
		"newEmail":        "new-admin@example.com",
		"password":        "wrong",
		"challengeId":     id,
		"challengeAnswer": answer,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	// Account untouched.
	if rec := env.do(t, http.MethodPost, "/api/admin/login", "", loginBody{testEmail, testPassword}); rec.Code != http.StatusOK {
		t.Errorf("original login status = %d, want 200", rec.Code)
	}
}

func TestUpdateEmail_InvalidAddress(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)
	token := env.adminToken(t)

	id, answer := env.solveChallenge(t)
	rec := env.do(t, http.MethodPost, "/api/admin/update-email", token, map[string]any{
		"newEmail":        "not-an-email",
		"password":        testPassword,
		"challengeId":     id,
		"challengeAnswer": answer,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

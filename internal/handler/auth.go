// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/jasim-space/showcase/internal/auth"
	"github.com/jasim-space/showcase/internal/challenge"
	"github.com/jasim-space/showcase/internal/middleware"
	"github.com/jasim-space/showcase/internal/session"
	"github.com/jasim-space/showcase/internal/store"
)

// minPasswordLength is the minimum accepted admin password length.
const minPasswordLength = 8

// AuthHandler serves login, the login challenge, and the credential
// update endpoints.
type AuthHandler struct {
	queries    *store.Queries
	sessions   *session.Manager
	challenges *challenge.Store
	protection *middleware.LoginProtection
	logger     *slog.Logger
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(queries *store.Queries, sessions *session.Manager,
	challenges *challenge.Store, protection *middleware.LoginProtection, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		queries:    queries,
		sessions:   sessions,
		challenges: challenges,
		protection: protection,
		logger:     logger,
	}
}

// sessionResponse is returned whenever a session token is (re)issued.
type sessionResponse struct {
	Token     string `json:"token"`
	Email     string `json:"email"`
	ExpiresAt int64  `json:"expiresAt"`
}

// dummyHash is verified against when the account does not exist, so a
// login probe costs the same whether or not the email is registered.
const dummyHash = "$argon2id$v=19$m=19456,t=2,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Login handles POST /api/admin/login. Failures are reported with one
// generic message; the response never reveals whether the email exists.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if locked, remaining := h.protection.IsAccountLocked(email); locked {
		h.logger.Warn("login attempt on locked account", "email", email, "remaining", remaining)
		writeError(w, http.StatusTooManyRequests, "Too many login attempts. Please wait and try again.")
		return
	}

	admin, err := h.queries.GetAdminByEmail(r.Context(), email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			h.logger.Error("admin lookup failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Login failed")
			return
		}
		// Burn the same hashing cost as a real account.
		_, _ = auth.CheckPassword(in.Password, dummyHash)
		h.rejectLogin(w, email)
		return
	}

	ok, err := auth.CheckPassword(in.Password, admin.PasswordHash)
	if err != nil || !ok {
		h.rejectLogin(w, email)
		return
	}

	h.protection.RecordSuccessfulLogin(email)

	if auth.NeedsRehash(admin.PasswordHash) {
		if newHash, hashErr := auth.HashPassword(in.Password); hashErr == nil {
			err := h.queries.UpdateAdminPassword(r.Context(), store.UpdateAdminPasswordParams{
				ID:           admin.ID,
				PasswordHash: newHash,
				UpdatedAt:    time.Now().UTC(),
			})
			if err != nil {
				h.logger.Warn("password rehash not stored", "error", err)
			}
		}
	}

	token, s, err := h.sessions.Issue(admin.Email, time.Now())
	if err != nil {
		h.logger.Error("session issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	h.logger.Info("admin login", "email", admin.Email)
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, Email: s.Email, ExpiresAt: s.ExpiresAt})
}

func (h *AuthHandler) rejectLogin(w http.ResponseWriter, email string) {
	if locked, duration := h.protection.RecordFailedAttempt(email); locked {
		h.logger.Warn("login lockout engaged", "email", email, "duration", duration)
		writeError(w, http.StatusTooManyRequests, "Too many login attempts. Please wait and try again.")
		return
	}
	writeError(w, http.StatusUnauthorized, "Invalid email or password")
}

// Challenge handles GET /api/admin/challenge. Each call issues a fresh
// single-use arithmetic question; answering wrong means fetching a new
// one.
func (h *AuthHandler) Challenge(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.challenges.Issue())
}

// UpdateEmail handles POST /api/admin/update-email. The caller must
// hold a valid session, re-prove the current password, and solve a
// challenge. A token for the new email is issued on success.
func (h *AuthHandler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var in struct {
		NewEmail        string `json:"newEmail"`
		Password        string `json:"password"`
		ChallengeID     string `json:"challengeId"`
		ChallengeAnswer int    `json:"challengeAnswer"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	if !h.challenges.Verify(in.ChallengeID, in.ChallengeAnswer) {
		writeError(w, http.StatusForbidden, "Challenge verification failed")
		return
	}

	newEmail := normalizeEmail(in.NewEmail)
	if _, err := mail.ParseAddress(newEmail); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid email address")
		return
	}

	admin, err := h.queries.GetAdminByEmail(r.Context(), sess.Email)
	if err != nil {
		h.logger.Error("admin lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Update failed")
		return
	}

	ok, err = auth.CheckPassword(in.Password, admin.PasswordHash)
	if err != nil || !ok {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	err = h.queries.UpdateAdminEmail(r.Context(), store.UpdateAdminEmailParams{
		ID:        admin.ID,
		Email:     newEmail,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		h.logger.Error("admin email update failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Update failed")
		return
	}

	token, s, err := h.sessions.Issue(newEmail, time.Now())
	if err != nil {
		h.logger.Error("session issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Update failed")
		return
	}

	h.logger.Info("admin email updated", "category", "auth", "email", newEmail)
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, Email: s.Email, ExpiresAt: s.ExpiresAt})
}

// UpdatePassword handles POST /api/admin/update-password. Requires a
// valid session and a solved challenge; the new password is stored as a
// fresh argon2id hash.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var in struct {
		NewPassword     string `json:"newPassword"`
		ChallengeID     string `json:"challengeId"`
		ChallengeAnswer int    `json:"challengeAnswer"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	if !h.challenges.Verify(in.ChallengeID, in.ChallengeAnswer) {
		writeError(w, http.StatusForbidden, "Challenge verification failed")
		return
	}

	if len(in.NewPassword) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	admin, err := h.queries.GetAdminByEmail(r.Context(), sess.Email)
	if err != nil {
		h.logger.Error("admin lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Update failed")
		return
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		h.logger.Error("password hashing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Update failed")
		return
	}

	err = h.queries.UpdateAdminPassword(r.Context(), store.UpdateAdminPasswordParams{
		ID:           admin.ID,
		PasswordHash: hash,
		UpdatedAt:    time.Now().UTC(),
	})
	if err != nil {
		h.logger.Error("admin password update failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Update failed")
		return
	}

	h.logger.Info("admin password updated", "category", "auth", "email", sess.Email)
	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

// normalizeEmail trims and lowercases an email address.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

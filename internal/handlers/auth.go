package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/crucial707/hci-todo/internal/auth"
	"github.com/crucial707/hci-todo/internal/metrics"
	"github.com/crucial707/hci-todo/internal/middleware"
	"github.com/crucial707/hci-todo/internal/models"
	"github.com/crucial707/hci-todo/internal/repo"
	"github.com/crucial707/hci-todo/internal/session"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Users     repo.UserStore
	Passwords *auth.Hasher
	Sessions  *session.Manager

	// dummyHash is verified against when the username is unknown, so both
	// login failures cost one password hash.
	dummyOnce sync.Once
	dummyHash string
}

type credentials struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=256"`
}

// ==========================
// Register (201 created, 400 missing fields, 409 taken)
// ==========================
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input credentials
	if !decodeJSON(w, r, &input) {
		return
	}
	input.Username = strings.TrimSpace(input.Username)
	if strings.TrimSpace(input.Password) == "" {
		input.Password = ""
	}
	if !validateInput(w, input) {
		metrics.IncAuth("register", "invalid")
		return
	}

	hash, err := h.Passwords.Hash(input.Password)
	if err != nil {
		internalError(w, r, "register: hash password", err)
		return
	}

	user, err := h.Users.Create(r.Context(), input.Username, hash, models.RoleUser)
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			metrics.IncAuth("register", "conflict")
			JSONError(w, "user already exists", http.StatusConflict)
			return
		}
		internalError(w, r, "register: create user", err)
		return
	}

	metrics.IncAuth("register", "success")
	w.Header().Set("Location", routePrefix(r)+"/"+strconv.Itoa(user.ID))
	writeJSON(w, http.StatusCreated, user.Profile())
}

// ==========================
// Login (issues the session cookie)
// ==========================
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input credentials
	if !decodeJSON(w, r, &input) {
		return
	}

	user, err := h.Users.GetByUsername(r.Context(), strings.TrimSpace(input.Username))
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		internalError(w, r, "login: lookup user", err)
		return
	}
	var encoded string
	if err == nil {
		encoded = user.PasswordHash
	} else {
		encoded = h.dummy()
	}
	if h.Passwords.Verify(encoded, input.Password) != nil || err != nil {
		metrics.IncAuth("login", "invalid_credentials")
		slog.Info("login failed",
			"request_id", chimw.GetReqID(r.Context()),
			"username", input.Username)
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	if _, err := h.Sessions.Issue(w, user); err != nil {
		internalError(w, r, "login: issue session", err)
		return
	}

	metrics.IncAuth("login", "success")
	writeJSON(w, http.StatusOK, user.Profile())
}

func (h *AuthHandler) dummy() string {
	h.dummyOnce.Do(func() {
		hash, err := h.Passwords.Hash("dummy-password-for-unknown-users")
		if err != nil {
			slog.Error("login: dummy hash", "error", err)
		}
		h.dummyHash = hash
	})
	return h.dummyHash
}

// routePrefix is the mount point the request came in on ("/auth" or "/tasks").
func routePrefix(r *http.Request) string {
	if dir := path.Dir(r.URL.Path); dir != "/" && dir != "." {
		return dir
	}
	return "/auth"
}

// ==========================
// Logout (always 200)
// ==========================
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Clear(w, r)
	metrics.IncAuth("logout", "success")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// ==========================
// Me (profile of the session's user)
// ==========================
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.Users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "user not found", http.StatusNotFound)
			return
		}
		internalError(w, r, "me: lookup user", err)
		return
	}

	writeJSON(w, http.StatusOK, user.Profile())
}

// ==========================
// List Users (Admin only)
// ==========================
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		internalError(w, r, "list users", err)
		return
	}

	out := make([]models.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.Profile())
	}
	writeJSON(w, http.StatusOK, out)
}

package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nbutton23/zxcvbn-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/SonyCookies/bongwell/internal/auth"
	"github.com/SonyCookies/bongwell/internal/lockout"
	"github.com/SonyCookies/bongwell/internal/store"
)

const (
	sessionCookieName = "bongwell_session"
	bcryptCost        = 12
	minPasswordScore  = 2
)

type AuthHandler struct {
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	governor     *lockout.Governor
	issuer       *auth.TokenIssuer
	logger       *slog.Logger
}

func NewAuthHandler(
	us *store.UserStore,
	ss *store.SessionStore,
	governor *lockout.Governor,
	issuer *auth.TokenIssuer,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		userStore:    us,
		sessionStore: ss,
		governor:     governor,
		issuer:       issuer,
		logger:       logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a user and returns a signed token. While an account
// is locked out the credentials are never checked; the response carries the
// seconds remaining. Every provider-style failure (unknown account, wrong
// password) counts as exactly one failed attempt.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	if err := h.governor.Check(req.Email); err != nil {
		remaining := h.governor.Remaining(req.Email)
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":             fmt.Sprintf("Account is locked. Please try again in %d seconds.", remaining),
			"remaining_seconds": remaining,
		})
		return
	}

	user, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		h.recordFailure(w, req.Email, http.StatusNotFound, "No account found for this email.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.recordFailure(w, req.Email, http.StatusUnauthorized, "Invalid email or password.")
		return
	}

	h.governor.RecordSuccess(req.Email)

	token, jti, err := h.issuer.Issue(user.ID, user.Email)
	if err != nil {
		h.logger.Error("issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if _, err := h.sessionStore.Create(jti, user.ID); err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"uid":   user.ID,
	})
}

// recordFailure counts one failed attempt and writes the failure response.
// If this attempt triggered the lockout, the response says so instead.
func (h *AuthHandler) recordFailure(w http.ResponseWriter, email string, status int, msg string) {
	if locked := h.governor.RecordFailure(email); locked {
		remaining := h.governor.Remaining(email)
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":             fmt.Sprintf("Maximum login attempts reached. Account locked for %d seconds.", remaining),
			"remaining_seconds": remaining,
		})
		return
	}
	writeError(w, status, msg)
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Register creates an account and its user profile record.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Password == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name, email, and password are required")
		return
	}

	if score := zxcvbn.PasswordStrength(req.Password, []string{req.Email, req.Name}); score.Score < minPasswordScore {
		writeError(w, http.StatusBadRequest, "password is too weak")
		return
	}

	existing, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("register lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusBadRequest, "an account with this email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := h.userStore.Create(req.Email, req.Name, string(hash))
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"uid":   user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

// Logout revokes the current session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessionStore.Delete(ac.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

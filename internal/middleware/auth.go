package middleware

import (
	"net/http"
	"strings"

	"github.com/SonyCookies/bongwell/internal/auth"
	"github.com/SonyCookies/bongwell/internal/store"
)

const sessionCookieName = "bongwell_session"

// bearerToken extracts the login token from the session cookie or the
// Authorization header. The cookie wins so admin pages work without any
// client-side token handling.
func bearerToken(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// RequireAuth validates the login token and its live session, then populates
// AuthContext. API requests get a 401 JSON error; page requests are
// redirected to the login form.
func RequireAuth(issuer *auth.TokenIssuer, sessionStore *store.SessionStore, userStore *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				rejectUnauthenticated(w, r)
				return
			}

			userID, jti, err := issuer.Verify(token)
			if err != nil {
				rejectUnauthenticated(w, r)
				return
			}

			sess, err := sessionStore.GetByToken(jti)
			if err != nil || sess == nil || sess.UserID != userID {
				rejectUnauthenticated(w, r)
				return
			}

			user, err := userStore.GetByID(userID)
			if err != nil || user == nil {
				rejectUnauthenticated(w, r)
				return
			}

			ac := auth.AuthContext{
				UserID:    user.ID,
				Name:      user.Name,
				IsAdmin:   user.IsAdmin,
				SessionID: sess.ID,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin checks that the authenticated user has back-office access.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func rejectUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/ws" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"authentication required"}`))
		return
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

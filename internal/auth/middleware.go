package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/linkedin-lite/internal/model"
)

// CookieName is the cookie the token travels in.
const CookieName = "token"

// Authenticator resolves a token to the user whose live session it names.
// It returns an error for a token that is invalid, revoked or whose user no
// longer exists.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

type contextKey string

const userKey contextKey = "user"

// RequireAuth rejects requests without a live session token with 401 and
// otherwise puts the session's user in the request context.
//
// The token is read from the "token" cookie, or from an
// "Authorization: Bearer" header for non-browser clients.
func RequireAuth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				unauthorized(w)
				return
			}
			user, err := authn.Authenticate(r.Context(), token)
			if err != nil || user == nil {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// TokenFromRequest returns the token carried by r, or "".
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	return ""
}

// WithUser returns ctx carrying u as the authenticated user.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the user RequireAuth stored, or nil, false.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/linkedin-lite/internal/apperror"
	"github.com/sakif/linkedin-lite/internal/auth"
	"github.com/sakif/linkedin-lite/internal/model"
	"github.com/sakif/linkedin-lite/internal/service"
)

// AuthHandler serves signup, login, logout and /api/me.
//
// The token goes back both in the body, for API clients, and in an
// HttpOnly cookie, for the browser.
type AuthHandler struct {
	auth         *service.AuthService
	logger       *slog.Logger
	secureCookie bool
}

// NewAuthHandler returns an AuthHandler. secureCookie marks the token cookie
// Secure, which requires HTTPS.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: svc, logger: logger, secureCookie: secureCookie}
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	User  model.Profile `json:"user"`
	Token string        `json:"token"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Headline string `json:"headline"`
	Bio      string `json:"bio"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleSignup creates an account and logs it in.
//
// HTTP: POST /api/auth/signup → 201 AuthResponse, 409 if the email is taken
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.auth.Signup(r.Context(), service.SignupInput(req))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.setToken(w, res.Token)
	writeJSON(w, http.StatusCreated, AuthResponse{User: res.User.Profile(), Token: res.Token})
}

// HandleLogin starts a session.
//
// HTTP: POST /api/auth/login → 200 AuthResponse, 401 on bad credentials
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.setToken(w, res.Token)
	writeJSON(w, http.StatusOK, AuthResponse{User: res.User.Profile(), Token: res.Token})
}

// HandleLogout ends the stored session and clears the cookie. The stored
// session is the only one, so this needs no token.
//
// HTTP: POST /api/auth/logout → 204
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context()); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.clearToken(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the authenticated user.
//
// HTTP: GET /api/me → 200 model.Profile
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperror.InvalidCredentials())
		return
	}
	writeJSON(w, http.StatusOK, u.Profile())
}

func (h *AuthHandler) setToken(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.DefaultTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearToken(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

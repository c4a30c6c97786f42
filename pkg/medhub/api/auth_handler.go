package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	"github.com/medhublabs/medhub/pkg/session"
)

// AuthHandler handles login, registration and session inspection. It
// fronts the session manager and mints API tokens for authenticated
// members.
type AuthHandler struct {
	sessions  *session.Manager
	tokenAuth *jwtauth.JWTAuth
	tokenTTL  time.Duration
	admins    map[string]bool
}

// AuthConfig configures the auth handler.
type AuthConfig struct {
	TokenAuth   *jwtauth.JWTAuth
	TokenTTL    time.Duration // defaults to 24h
	AdminEmails []string      // members granted moderation rights
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessions *session.Manager, cfg AuthConfig) *AuthHandler {
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	admins := make(map[string]bool, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		admins[email] = true
	}
	return &AuthHandler{
		sessions:  sessions,
		tokenAuth: cfg.TokenAuth,
		tokenTTL:  ttl,
		admins:    admins,
	}
}

// Routes returns the routes for authentication
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.Login)
	r.Post("/register", h.Register)
	r.Post("/logout", h.Logout)
	r.Post("/reset", h.ResetCredential)
	r.Get("/session", h.CurrentSession)

	return r
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the request body for registering a new member
type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Institution string `json:"institution"`
	CohortYear  string `json:"cohort_year"`
}

// ResetRequest is the request body for requesting a credential reset
type ResetRequest struct {
	Email string `json:"email"`
}

// SessionResponse is the response body for an authenticated session
type SessionResponse struct {
	Token   string          `json:"token,omitempty"`
	Session session.Session `json:"session"`
}

// Login authenticates a member with email and password
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.sessions.Login(r.Context(), req.Email, req.Password); err != nil {
		respondAuthError(w, r, err)
		return
	}

	s := h.sessions.Current()
	token, err := h.mintToken(s)
	if err != nil {
		slog.Error("Failed to mint session token", "error", err)
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	slog.Info("Member logged in", "member_id", s.Identity)
	render.JSON(w, r, SessionResponse{Token: token, Session: s})
}

// Register creates a new member account
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.sessions.Register(r.Context(), session.RegistrationInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Institution: req.Institution,
		CohortYear:  req.CohortYear,
	})
	if err != nil {
		respondAuthError(w, r, err)
		return
	}

	s := h.sessions.Current()
	token, err := h.mintToken(s)
	if err != nil {
		slog.Error("Failed to mint session token", "error", err)
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	slog.Info("Member registered", "member_id", s.Identity)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, SessionResponse{Token: token, Session: s})
}

// Logout ends the current session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Context())
	render.JSON(w, r, SessionResponse{Session: h.sessions.Current()})
}

// ResetCredential sends a credential reset message
func (h *AuthHandler) ResetCredential(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.sessions.ResetCredential(r.Context(), req.Email); err != nil {
		respondAuthError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{"status": "reset message sent"})
}

// CurrentSession reports the manager's current session state
func (h *AuthHandler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SessionResponse{Session: h.sessions.Current()})
}

func (h *AuthHandler) mintToken(s session.Session) (string, error) {
	if h.tokenAuth == nil {
		return "", nil
	}

	claims := map[string]interface{}{
		"sub": s.Identity,
		"exp": time.Now().Add(h.tokenTTL).Unix(),
	}
	if s.Profile != nil {
		claims["name"] = s.Profile.DisplayName
		claims["email"] = s.Profile.Email
		if h.admins[s.Profile.Email] {
			claims["admin"] = true
		}
	}

	_, token, err := h.tokenAuth.Encode(claims)
	return token, err
}

func respondAuthError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, session.ErrEmailInUse):
		status = http.StatusConflict
	case errors.Is(err, session.ErrWeakCredential):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrUnknownEmail):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrProviderUnavailable):
		status = http.StatusBadGateway
	}

	slog.Error("Auth request failed", "error", err, "status", status)
	http.Error(w, err.Error(), status)
}

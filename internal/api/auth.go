package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/starford/ansuz/internal/auth"
)

// AuthHandler holds the identity-gateway handlers.
//
// The gateway keeps the admin client's contract: every response is
// HTTP 200, with the body status field distinguishing success (200)
// from failure (404). No failure detail ever leaks past this boundary.
type AuthHandler struct {
	provider auth.Provider
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(provider auth.Provider) *AuthHandler {
	return &AuthHandler{provider: provider}
}

type credentials struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	SessionID string `json:"sessionId"`
}

// readCredentials accepts a JSON or form body.
func readCredentials(r *http.Request) credentials {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var c credentials
		_ = json.NewDecoder(r.Body).Decode(&c)
		return c
	}
	fd, err := parseRequestForm(r)
	if err != nil {
		return credentials{}
	}
	return credentials{
		Email:     fd.values.Get("email"),
		Password:  fd.values.Get("password"),
		SessionID: fd.values.Get("sessionId"),
	}
}

func authFailure(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, SessionResponse{Status: http.StatusNotFound})
}

// SignIn handles POST /api/signin.
//
//	@Summary		Authenticate with email and password
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	SessionResponse
//	@Router			/api/signin [post]
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	c := readCredentials(r)
	user, sess, err := h.provider.SignIn(r.Context(), c.Email, c.Password)
	if err != nil {
		authFailure(w)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{User: user.Username, Session: sess.ID, Status: http.StatusOK})
}

// SignUp handles POST /api/signup.
//
//	@Summary		Create an account and open a session
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	SessionResponse
//	@Router			/api/signup [post]
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	c := readCredentials(r)
	user, sess, err := h.provider.SignUp(r.Context(), c.Email, c.Password)
	if err != nil {
		authFailure(w)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{User: user.Username, Session: sess.ID, Status: http.StatusOK})
}

// ValidateSession handles POST /api/validateSession.
//
//	@Summary		Validate (and possibly renew) a session
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	SessionResponse
//	@Router			/api/validateSession [post]
func (h *AuthHandler) ValidateSession(w http.ResponseWriter, r *http.Request) {
	c := readCredentials(r)
	user, sess, err := h.provider.ValidateSession(r.Context(), c.SessionID)
	if err != nil {
		authFailure(w)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{User: user.Username, Session: sess.ID, Status: http.StatusOK})
}

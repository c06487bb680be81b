package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jonwraymond/rbacgate/auth"
	"github.com/jonwraymond/rbacgate/observe"
	"github.com/jonwraymond/rbacgate/token"
)

// LoginResponse is the body of a successful POST /login.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ContentResponse is the body of the guarded routes.
type ContentResponse struct {
	Message string   `json:"message"`
	User    string   `json:"user"`
	Roles   []string `json:"roles"`
	Data    string   `json:"data"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "rbacgate: token authentication with role-based access control",
		"demo_users": s.creds.Usernames(),
		"endpoints": map[string]string{
			"/login":        "POST - exchange username and password for a bearer token",
			"/admin-only":   "GET - requires read on " + AdminResource,
			"/user-content": "GET - requires read on " + UserResource,
		},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if ok, wait := s.limiter.allow(clientIP(r, s.trustXFF)); !ok {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
		writeError(w, r, http.StatusTooManyRequests, "rate_limited", "Too many login attempts")
		return
	}

	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "Malformed form body")
		return
	}
	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	if username == "" || password == "" {
		writeError(w, r, http.StatusBadRequest, "bad_request", "username and password are required")
		return
	}

	if !s.creds.Verify(username, password) {
		s.logger.Info(r.Context(), "login rejected",
			fieldRequestID(r),
			observe.Field{Key: "username", Value: username},
		)
		writeError(w, r, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
		return
	}

	out, err := s.issueOp(r.Context(), observe.OpTokenIssue, username)
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	tok := out.(token.Token)

	writeJSON(w, http.StatusOK, LoginResponse{
		AccessToken: tok.Value,
		TokenType:   "bearer",
		ExpiresAt:   tok.ExpiresAt.UTC(),
	})
}

// issue is the token.issue operation; input is the subject.
func (s *Server) issue(ctx context.Context, _ observe.OpMeta, input any) (any, error) {
	subject, ok := input.(string)
	if !ok {
		return nil, errors.New("httpapi: issue input must be a subject")
	}
	return s.tokens.Issue(subject)
}

func (s *Server) handleAdminOnly(w http.ResponseWriter, r *http.Request) {
	s.writeContent(w, r, "This is admin-only content", "Admin data")
}

func (s *Server) handleUserContent(w http.ResponseWriter, r *http.Request) {
	s.writeContent(w, r, "This content is for users and admins", "Regular user content")
}

func (s *Server) writeContent(w http.ResponseWriter, r *http.Request, message, data string) {
	id := auth.IdentityFromContext(r.Context())
	roles := id.Roles
	if roles == nil {
		roles = []string{}
	}
	writeJSON(w, http.StatusOK, ContentResponse{
		Message: message,
		User:    id.Subject,
		Roles:   roles,
		Data:    data,
	})
}

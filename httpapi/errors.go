package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonwraymond/rbacgate/auth"
	"github.com/jonwraymond/rbacgate/token"
)

// realm is advertised in WWW-Authenticate challenges.
const realm = "rbacgate"

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Detail    string `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, kind, detail string) {
	writeJSON(w, code, ErrorResponse{
		Error:     kind,
		Detail:    detail,
		RequestID: RequestIDFromContext(r.Context()),
	})
}

// writeAuthError maps authentication and authorization failures onto
// 401 and 403. Anything else is an internal error.
func (s *Server) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var denied *auth.AuthzError
	switch {
	case errors.As(err, &denied):
		writeError(w, r, http.StatusForbidden, "forbidden",
			fmt.Sprintf("Access denied: User '%s' cannot '%s' on '%s'", denied.Subject, denied.Action, denied.Resource))

	case errors.Is(err, auth.ErrMissingCredentials):
		w.Header().Set("WWW-Authenticate", fmt.Sprintf("Bearer realm=%q", realm))
		writeError(w, r, http.StatusUnauthorized, "unauthenticated", "Not authenticated")

	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, token.ErrUnauthenticated):
		w.Header().Set("WWW-Authenticate",
			fmt.Sprintf("Bearer realm=%q, error=\"invalid_token\", error_description=%q", realm, authDescription(err)))
		writeError(w, r, http.StatusUnauthorized, "invalid_token", "Invalid authentication")

	default:
		s.logger.Error(r.Context(), "request failed",
			fieldRequestID(r),
			fieldError(err),
		)
		writeError(w, r, http.StatusInternalServerError, "internal", "Internal server error")
	}
}

// authDescription is the client-facing reason for a rejected credential.
// It names the failure kind only.
func authDescription(err error) string {
	switch {
	case errors.Is(err, token.ErrExpired):
		return "token expired"
	case errors.Is(err, token.ErrInvalidSignature):
		return "invalid signature"
	case errors.Is(err, token.ErrMalformed), errors.Is(err, token.ErrMissingSubject):
		return "malformed token"
	case errors.Is(err, auth.ErrUnknownSubject):
		return "unknown subject"
	default:
		return "invalid token"
	}
}

package auth

import "net/http"

// ErrorHandler writes the response for a rejected request. err is an
// *AuthnError, an *AuthzError, or an internal error from an Authenticator.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// RequestFromHTTP builds an AuthRequest from an HTTP request.
func RequestFromHTTP(r *http.Request) *AuthRequest {
	return &AuthRequest{
		Header: r.Header,
		Path:   r.URL.Path,
	}
}

// Middleware authenticates every request with authn and attaches the
// resulting Identity to the request context. Failed requests are passed to
// onError and never reach next.
//
// Usage:
//
//	mux.Handle("/api", auth.Middleware(authn, writeError)(apiHandler))
func Middleware(authn Authenticator, onError ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := RequestFromHTTP(r)
			if !authn.Supports(r.Context(), req) {
				onError(w, r, &AuthnError{Method: authn.Name(), Cause: ErrMissingCredentials})
				return
			}

			result, err := authn.Authenticate(r.Context(), req)
			if err != nil {
				onError(w, r, err)
				return
			}
			if !result.Authenticated {
				onError(w, r, &AuthnError{Method: result.Method, Cause: result.Error})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), result.Identity)))
		})
	}
}

// RequirePermission only lets requests through whose identity may perform
// action on resource. It must run inside Middleware.
func RequirePermission(authz Authorizer, action, resource string, onError ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFromContext(r.Context())
			if id == nil {
				onError(w, r, &AuthnError{Cause: ErrMissingCredentials})
				return
			}

			err := authz.Authorize(r.Context(), &AuthzRequest{
				Subject:  id,
				Resource: resource,
				Action:   action,
			})
			if err != nil {
				onError(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Package auth connects bearer tokens and the policy engine to request
// handling.
//
// A BearerAuthenticator turns an Authorization header into an Identity using
// the token service, and a PolicyAuthorizer checks that identity against the
// current policy snapshot. Middleware and RequirePermission wire both into an
// net/http handler chain.
package auth

// Package token issues and verifies signed, time-bound identity assertions.
//
// Tokens are HS256 JSON Web Tokens carrying a subject, an issued-at time, and
// an expiry. They are stateless and self-verifying: there is no session store
// and no revocation list, so expiry is the only way a token stops working.
//
// Resolution failures are reported as *AuthError values. Callers that only
// care whether a caller is authenticated can test for ErrUnauthenticated;
// tests and logs can distinguish the individual kinds (ErrMalformed,
// ErrInvalidSignature, ErrExpired, ErrMissingSubject) with errors.Is.
package token

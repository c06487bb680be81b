package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the token lifetime used when Config.TTL is zero.
const DefaultTTL = 30 * time.Minute

// Config configures the token service.
type Config struct {
	// Secret is the HMAC key used to sign and verify tokens.
	Secret []byte

	// TTL is how long an issued token stays valid.
	// Default: 30 minutes
	TTL time.Duration

	// Issuer is written to the iss claim when set. It is informational;
	// resolution does not check it.
	Issuer string
}

// Token is an issued bearer token and the assertions it carries.
type Token struct {
	// Value is the encoded, signed token string.
	Value string

	// Subject is the authenticated principal.
	Subject string

	// ID is the unique token identifier (jti claim).
	ID string

	// IssuedAt is when the token was created.
	IssuedAt time.Time

	// ExpiresAt is when the token stops being valid.
	ExpiresAt time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for issuance and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service issues and resolves signed tokens.
//
// Contract:
// - Concurrency: safe for concurrent use; a Service is immutable after New.
// - Errors: Resolve returns *AuthError for every rejected token.
type Service struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// New creates a token service from cfg.
func New(cfg Config, opts ...Option) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrMissingSecret
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.TTL < 0 {
		return nil, ErrInvalidTTL
	}

	s := &Service{
		secret: append([]byte(nil), cfg.Secret...),
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the configured token lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue signs a new token for subject, valid from now until now+TTL. Both
// times are whole seconds, matching the claim encoding.
func (s *Service) Issue(subject string) (Token, error) {
	if strings.TrimSpace(subject) == "" {
		return Token{}, ErrEmptySubject
	}

	now := s.now().Truncate(jwt.TimePrecision)
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, wrapJWTError(err)
	}

	return Token{
		Value:     signed,
		Subject:   subject,
		ID:        claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Resolve verifies raw and returns the subject it was issued for.
func (s *Service) Resolve(raw string) (string, error) {
	tok, err := s.ResolveToken(raw)
	if err != nil {
		return "", err
	}
	return tok.Subject, nil
}

// ResolveToken verifies raw and returns the decoded token.
//
// Checks run in this order: structure, signature, expiry, subject. The first
// failing check decides the reported kind.
func (s *Service) ResolveToken(raw string) (Token, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Token{}, authError(ErrMalformed, nil)
	}
	if err := checkSignatureSegment(raw); err != nil {
		return Token{}, err
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		// A token is still valid at exactly its exp instant.
		jwt.WithLeeway(time.Nanosecond),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Token{}, classify(err)
	}
	if !parsed.Valid {
		return Token{}, authError(ErrInvalidSignature, nil)
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return Token{}, authError(ErrMissingSubject, nil)
	}

	tok := Token{
		Value:     raw,
		Subject:   claims.Subject,
		ID:        claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		tok.IssuedAt = claims.IssuedAt.Time
	}
	return tok, nil
}

// checkSignatureSegment reports ErrInvalidSignature when header and claims
// decode but the signature segment is not canonical base64url. Any other
// structural problem is left to the parser.
func checkSignatureSegment(raw string) error {
	parts := strings.SplitN(raw, ".", 3)
	if len(parts) != 3 {
		return nil
	}
	for _, seg := range parts[:2] {
		b, err := base64.RawURLEncoding.Strict().DecodeString(seg)
		if err != nil || !json.Valid(b) {
			return nil
		}
	}
	if _, err := base64.RawURLEncoding.Strict().DecodeString(parts[2]); err != nil {
		return authError(ErrInvalidSignature, err)
	}
	return nil
}

// classify maps a parser error onto a resolution failure kind.
func classify(err error) *AuthError {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return authError(ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return authError(ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return authError(ErrExpired, err)
	default:
		// Missing exp, bad nbf and other claim shape problems.
		return authError(ErrMalformed, err)
	}
}

func wrapJWTError(err error) error {
	return fmt.Errorf("token: sign: %w", err)
}

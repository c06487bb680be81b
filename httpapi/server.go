// Package httpapi serves the gateway over HTTP.
//
// POST /login exchanges demo credentials for a bearer token. GET /admin-only
// and GET /user-content are guarded by the policy: the bearer token is
// resolved to a subject, the subject must be a known user, and the live
// policy must grant the route's (action, resource) pair. Health probes and
// Prometheus metrics are served alongside.
package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/rbacgate/auth"
	"github.com/jonwraymond/rbacgate/health"
	"github.com/jonwraymond/rbacgate/observe"
	"github.com/jonwraymond/rbacgate/policy"
	"github.com/jonwraymond/rbacgate/token"
)

// Route permissions.
const (
	ActionRead    = "read"
	AdminResource = "admin_resource"
	UserResource  = "user_resource"
)

const maxRequestBody = 1 << 16

// Options configures a Server. Tokens, Policy and Users are required.
type Options struct {
	Tokens *token.Service
	Policy *policy.Store

	// Users maps usernames to plaintext passwords. They are hashed by New.
	Users map[string]string

	// BcryptCost is the hashing cost for Users. Zero means the bcrypt default.
	BcryptCost int

	// Observe wraps issue, resolve and authorize. Nil records nothing.
	Observe *observe.Middleware

	// Gatherer backs GET /metrics. Nil disables the route.
	Gatherer prometheus.Gatherer

	// Health backs the probe routes. Nil registers the policy and token
	// checkers.
	Health *health.Aggregator

	// LoginPerSecond and LoginBurst bound POST /login per client address.
	// Zero values mean 1/s with a burst of 5.
	LoginPerSecond float64
	LoginBurst     int

	// TrustForwarded takes the client address from X-Forwarded-For.
	TrustForwarded bool

	// Now overrides the limiter clock in tests.
	Now func() time.Time
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	tokens   *token.Service
	store    *policy.Store
	creds    *Credentials
	mw       *observe.Middleware
	logger   observe.Logger
	authn    auth.Authenticator
	authz    auth.Authorizer
	limiter  *loginLimiter
	gatherer prometheus.Gatherer
	health   *health.Aggregator
	trustXFF bool
	issueOp  observe.ExecuteFunc
}

// New validates opts and builds a Server.
func New(opts Options) (*Server, error) {
	if opts.Tokens == nil {
		return nil, errors.New("httpapi: token service is required")
	}
	if opts.Policy == nil {
		return nil, errors.New("httpapi: policy store is required")
	}
	creds, err := NewCredentials(opts.Users, opts.BcryptCost)
	if err != nil {
		return nil, err
	}

	mw := opts.Observe
	if mw == nil {
		mw = observe.NopMiddleware()
	}
	perSecond, burst := opts.LoginPerSecond, opts.LoginBurst
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst <= 0 {
		burst = 5
	}

	s := &Server{
		tokens:   opts.Tokens,
		store:    opts.Policy,
		creds:    creds,
		mw:       mw,
		logger:   mw.Logger(),
		limiter:  newLoginLimiter(perSecond, burst, opts.Now),
		gatherer: opts.Gatherer,
		health:   opts.Health,
		trustXFF: opts.TrustForwarded,
	}

	bearer := auth.NewBearerAuthenticator(auth.BearerConfig{}, opts.Tokens, auth.DirectoryFunc(s.lookup))
	s.authn = &observedAuthenticator{Authenticator: bearer, mw: mw}
	s.authz = &observedAuthorizer{
		Authorizer: auth.NewPolicyAuthorizer(opts.Policy,
			auth.WithDecisionHook(decisionRecorder(mw, s.logger))),
		mw: mw,
	}
	s.issueOp = mw.Wrap(s.issue)

	if s.health == nil {
		s.health = health.NewAggregator()
		s.health.Register("policy", health.PolicyChecker(opts.Policy))
		s.health.Register("token", health.TokenChecker(opts.Tokens))
	}
	return s, nil
}

// lookup resolves a token subject to its current roles. Only users in the
// credential table exist.
func (s *Server) lookup(subject string) ([]string, bool) {
	if !s.creds.Has(subject) {
		return nil, false
	}
	return s.store.Engine().RolesFor(subject), true
}

// Handler returns the complete route table wrapped in the common middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /login", s.handleLogin)

	guard := func(resource string, h http.HandlerFunc) http.Handler {
		return chain(h,
			auth.Middleware(s.authn, s.writeAuthError),
			auth.RequirePermission(s.authz, ActionRead, resource, s.writeAuthError),
		)
	}
	mux.Handle("GET /admin-only", guard(AdminResource, s.handleAdminOnly))
	mux.Handle("GET /user-content", guard(UserResource, s.handleUserContent))

	health.RegisterHandlers(mux, s.health)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return chain(mux,
		requestID,
		accessLog(s.logger),
		securityHeaders,
		maxBodyBytes(maxRequestBody),
	)
}

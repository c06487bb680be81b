package health

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/rbacgate/policy"
	"github.com/jonwraymond/rbacgate/token"
)

// ErrNoEngine indicates a policy store with no loaded engine.
var ErrNoEngine = errors.New("health: no policy engine loaded")

// selfTestSubject is the subject used by TokenChecker's round trip.
const selfTestSubject = "health-probe"

// PolicyChecker reports on the store's current snapshot. An engine with no
// rules denies every request and is reported as degraded.
func PolicyChecker(store *policy.Store) Checker {
	return NewCheckerFunc("policy", func(ctx context.Context) Result {
		if store == nil || store.Engine() == nil {
			return Unhealthy("policy not loaded", ErrNoEngine)
		}
		e := store.Engine()
		details := map[string]any{
			"rules":      len(e.Rules()),
			"generation": store.Generation(),
		}
		if src := e.Source(); src != "" {
			details["source"] = src
		}
		if len(e.Rules()) == 0 {
			return Degraded("policy has no rules").WithDetails(details)
		}
		return Healthy("policy loaded").WithDetails(details)
	})
}

// TokenChecker issues a token and resolves it again.
func TokenChecker(svc *token.Service) Checker {
	return NewCheckerFunc("token", func(ctx context.Context) Result {
		if svc == nil {
			return Unhealthy("token service not configured", ErrCheckFailed)
		}
		if err := ctx.Err(); err != nil {
			return Unhealthy("check cancelled", err)
		}
		tok, err := svc.Issue(selfTestSubject)
		if err != nil {
			return Unhealthy("issue failed", fmt.Errorf("%w: %w", ErrCheckFailed, err))
		}
		subject, err := svc.Resolve(tok.Value)
		if err != nil {
			return Unhealthy("resolve failed", fmt.Errorf("%w: %w", ErrCheckFailed, err))
		}
		if subject != selfTestSubject {
			return Unhealthy("round trip returned wrong subject", ErrCheckFailed)
		}
		return Healthy("token round trip ok").WithDetails(map[string]any{
			"ttl": svc.TTL().String(),
		})
	})
}

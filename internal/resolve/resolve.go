// Package resolve picks the active route and matching rule for a request,
// yielding the target upstream service.
package resolve

import (
	"fmt"

	"github.com/aicodeswitch/aicodeswitch/internal/config"
	"github.com/aicodeswitch/aicodeswitch/internal/proxyerr"
)

// Result is the outcome of resolving a request against a config snapshot.
type Result struct {
	Route   config.Route
	Rule    config.Rule
	Service config.APIService
}

// Resolve looks up the active route for targetType, then the rule matching
// contentType (falling back to "default"), then the service the rule
// references.
func Resolve(snap *config.Snapshot, targetType config.TargetType, contentType config.ContentType) (Result, error) {
	if snap == nil {
		return Result{}, fmt.Errorf("resolve: no config snapshot loaded: %w", proxyerr.ErrNoMatchingRoute)
	}

	route, ok := snap.ActiveRoutes[targetType]
	if !ok {
		return Result{}, fmt.Errorf("resolve: no active route for targetType %q: %w", targetType, proxyerr.ErrNoMatchingRoute)
	}

	rule, ok := snap.RuleFor(route.ID, contentType)
	if !ok {
		return Result{}, fmt.Errorf("resolve: no rule for contentType %q on route %q: %w", contentType, route.ID, proxyerr.ErrNoMatchingRule)
	}

	service, ok := snap.ServicesByID[rule.TargetServiceID]
	if !ok {
		return Result{}, fmt.Errorf("resolve: rule %q references missing service %q: %w", rule.ID, rule.TargetServiceID, proxyerr.ErrTargetServiceMissing)
	}

	return Result{Route: route, Rule: rule, Service: service}, nil
}

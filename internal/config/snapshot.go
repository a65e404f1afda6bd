package config

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
)

// Snapshot is the immutable derived state the Proxy Engine resolves
// requests against. A new Snapshot is built wholesale on every reload and
// swapped in atomically; a request that started resolution against one
// snapshot keeps using it for the rest of its lifetime.
type Snapshot struct {
	AppConfig      AppConfig
	ActiveRoutes   map[TargetType]Route
	RulesByRouteID map[string][]Rule
	ServicesByID   map[string]APIService
	VendorsByID    map[string]Vendor
}

// RulesFor returns the rules configured for routeID, ordered by
// ContentType as stored at reload time.
func (s *Snapshot) RulesFor(routeID string) []Rule {
	if s == nil {
		return nil
	}
	return s.RulesByRouteID[routeID]
}

// RuleFor returns the rule matching contentType for routeID, falling back
// to the "default" rule when no exact match exists. The bool reports
// whether any rule (exact or fallback) was found.
func (s *Snapshot) RuleFor(routeID string, ct ContentType) (Rule, bool) {
	var fallback *Rule
	for _, r := range s.RulesFor(routeID) {
		if r.ContentType == ct {
			return r, true
		}
		if r.ContentType == ContentDefault {
			rc := r
			fallback = &rc
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Rule{}, false
}

// Manager owns the atomically-swapped Snapshot. It is safe for concurrent
// use: Current is lock-free, Reload rebuilds a full snapshot off to the
// side and swaps the pointer only once the rebuild succeeds.
type Manager struct {
	store   Store
	logger  *slog.Logger
	current atomic.Pointer[Snapshot]
}

// NewManager constructs a Manager around a Store. Reload must be called
// at least once (typically during startup) before Current returns
// anything non-nil.
func NewManager(store Store, logger *slog.Logger) *Manager {
	return &Manager{store: store, logger: logger}
}

// Current returns the active snapshot, or nil if Reload has never
// succeeded.
func (m *Manager) Current() *Snapshot {
	return m.current.Load()
}

// Reload rebuilds activeRoutes/rulesByRouteId/servicesById from the Store
// and atomically swaps the snapshot. In-flight requests holding the prior
// snapshot are unaffected.
func (m *Manager) Reload(ctx context.Context) error {
	routes, err := m.store.ListActiveRoutes(ctx)
	if err != nil {
		return fmt.Errorf("config: list active routes: %w", err)
	}

	services, err := m.store.ListServices(ctx)
	if err != nil {
		return fmt.Errorf("config: list services: %w", err)
	}

	vendors, err := m.store.GetVendors(ctx)
	if err != nil {
		return fmt.Errorf("config: get vendors: %w", err)
	}

	appCfg, err := m.store.GetConfig(ctx)
	if err != nil {
		return fmt.Errorf("config: get app config: %w", err)
	}

	activeRoutes := make(map[TargetType]Route, len(routes))
	for _, r := range routes {
		if !r.IsActive {
			continue
		}
		if existing, ok := activeRoutes[r.TargetType]; ok {
			m.logger.Warn("multiple active routes for targetType, keeping first seen",
				"targetType", r.TargetType, "kept", existing.ID, "ignored", r.ID)
			continue
		}
		activeRoutes[r.TargetType] = r
	}

	rulesByRouteID := make(map[string][]Rule, len(routes))
	for _, route := range routes {
		rules, err := m.store.ListRules(ctx, route.ID)
		if err != nil {
			return fmt.Errorf("config: list rules for route %s: %w", route.ID, err)
		}
		sort.Slice(rules, func(i, j int) bool { return rules[i].ContentType < rules[j].ContentType })
		rulesByRouteID[route.ID] = rules
	}

	servicesByID := make(map[string]APIService, len(services))
	for _, s := range services {
		servicesByID[s.ID] = s
	}

	vendorsByID := make(map[string]Vendor, len(vendors))
	for _, v := range vendors {
		vendorsByID[v.ID] = v
	}

	snap := &Snapshot{
		AppConfig:      appCfg,
		ActiveRoutes:   activeRoutes,
		RulesByRouteID: rulesByRouteID,
		ServicesByID:   servicesByID,
		VendorsByID:    vendorsByID,
	}

	m.current.Store(snap)
	m.logger.Info("config snapshot reloaded",
		"routes", len(activeRoutes), "services", len(servicesByID), "vendors", len(vendorsByID))

	return nil
}

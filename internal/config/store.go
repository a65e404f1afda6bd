package config

import "context"

// Store is the read interface the proxy core consumes configuration
// through. The core never writes through it; CRUD, persistence, and admin
// auth belong to an external collaborator that implements this interface
// against its own database.
type Store interface {
	ListActiveRoutes(ctx context.Context) ([]Route, error)
	ListRules(ctx context.Context, routeID string) ([]Rule, error)
	ListServices(ctx context.Context) ([]APIService, error)
	GetVendors(ctx context.Context) ([]Vendor, error)
	GetConfig(ctx context.Context) (AppConfig, error)
}

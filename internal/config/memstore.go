package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// document is the on-disk shape of a FileStore: a single YAML file holding
// every entity the Store interface serves. A database-backed Store used in
// production implements the same interface against its own schema; this
// file adapter exists so the core is runnable and testable standalone.
type document struct {
	Vendors   []Vendor     `yaml:"vendors"`
	Services  []APIService `yaml:"services"`
	Routes    []Route      `yaml:"routes"`
	Rules     []Rule       `yaml:"rules"`
	AppConfig AppConfig    `yaml:"appConfig"`
}

// FileStore is a YAML-file-backed Store. It is the illustrative default
// implementation of the configuration-store interface; a real deployment
// points the Manager at a database-backed Store instead.
type FileStore struct {
	path string

	mu  sync.RWMutex
	doc document
}

// NewFileStore constructs a FileStore reading from path. Load must be
// called before the Store methods return anything useful.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads and parses the YAML file at path. A missing file is not an
// error: the store starts out empty, matching the teacher's
// "create a minimal config" fallback.
func (f *FileStore) Load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			f.mu.Lock()
			f.doc = document{}
			f.mu.Unlock()
			return nil
		}
		return fmt.Errorf("config: read %s: %w", f.path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("config: parse %s: %w", f.path, err)
	}

	f.mu.Lock()
	f.doc = doc
	f.mu.Unlock()

	return nil
}

// Save writes the current in-memory document back to path as YAML.
func (f *FileStore) Save() error {
	f.mu.RLock()
	doc := f.doc
	f.mu.RUnlock()

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: mkdir %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", f.path, err)
	}

	return nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string { return f.path }

// Exists reports whether the backing file is present on disk.
func (f *FileStore) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

func (f *FileStore) ListActiveRoutes(_ context.Context) ([]Route, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Route, 0, len(f.doc.Routes))
	for _, r := range f.doc.Routes {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *FileStore) ListRules(_ context.Context, routeID string) ([]Rule, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Rule, 0)
	for _, r := range f.doc.Rules {
		if r.RouteID == routeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *FileStore) ListServices(_ context.Context) ([]APIService, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]APIService, len(f.doc.Services))
	copy(out, f.doc.Services)
	return out, nil
}

func (f *FileStore) GetVendors(_ context.Context) ([]Vendor, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Vendor, len(f.doc.Vendors))
	copy(out, f.doc.Vendors)
	return out, nil
}

func (f *FileStore) GetConfig(_ context.Context) (AppConfig, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.doc.AppConfig, nil
}

// Seed replaces the entire in-memory document and persists it. Used by the
// CLI's "config generate" command to write a starter
// configuration; a database-backed Store would expose CRUD endpoints
// instead, outside this package's scope.
func (f *FileStore) Seed(vendors []Vendor, services []APIService, routes []Route, rules []Rule, appConfig AppConfig) error {
	f.mu.Lock()
	f.doc = document{Vendors: vendors, Services: services, Routes: routes, Rules: rules, AppConfig: appConfig}
	f.mu.Unlock()

	return f.Save()
}

// ActivateRoute sets route id active and deactivates any sibling route of
// the same targetType, enforcing the activation-uniqueness invariant.
func (f *FileStore) ActivateRoute(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var target *Route
	for i := range f.doc.Routes {
		if f.doc.Routes[i].ID == id {
			target = &f.doc.Routes[i]
		}
	}
	if target == nil {
		return fmt.Errorf("config: route %s not found", id)
	}

	for i := range f.doc.Routes {
		if f.doc.Routes[i].TargetType == target.TargetType {
			f.doc.Routes[i].IsActive = f.doc.Routes[i].ID == id
		}
	}

	return nil
}

// Package connector defines the contract for external identity sources.
//
// A connector fetches X.509 certificates for one or more identities from a
// source outside the local filesystem: a Vault server, a cloud secret
// manager, a relational table. Connectors are addressed purely by name in
// the connect map, and resolved at runtime from a compile-time registry of
// factories. There is no dynamic code loading: an unknown name is an error,
// not an import.
package connector

import (
	"context"
	"fmt"
	"strings"
	"sync"

	pkerrors "github.com/systmms/pkdist/internal/errors"
)

// Connector enumerates certificates held by one external source.
//
// Implementations must be safe for concurrent use, although the trust store
// invokes connectors sequentially.
type Connector interface {
	// Name returns the connector's registered name.
	Name() string

	// ListCertificates returns every certificate the source holds, keyed by
	// identity name. Each value is the ordered sequence of PEM-encoded
	// certificate blocks for that identity (a chain, leaf first).
	//
	// Transport and authentication failures surface as ConnectorError.
	ListCertificates(ctx context.Context) (map[string][]string, error)
}

// Factory builds a connector from the opaque parameter object found under
// its name in the connect map.
type Factory func(name string, params map[string]interface{}) (Connector, error)

// Registry maps connector names to factories. Names are case-insensitive.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry. Built-in connectors are registered
// by the internal/connectors package.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under a name, replacing any previous registration.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	r.factories[strings.ToLower(name)] = factory
	r.mu.Unlock()
}

// Create builds the connector registered under name. Unknown names fail
// with ConnectorError rather than attempting any code loading.
func (r *Registry) Create(name string, params map[string]interface{}) (Connector, error) {
	r.mu.RLock()
	factory, exists := r.factories[strings.ToLower(name)]
	r.mu.RUnlock()
	if !exists {
		return nil, pkerrors.ConnectorError{
			Connector: name,
			Op:        "create",
			Err:       fmt.Errorf("unknown connector"),
		}
	}
	return factory(name, params)
}

// Supported returns the registered connector names.
func (r *Registry) Supported() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// IsSupported checks whether a connector name is registered.
func (r *Registry) IsSupported(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[strings.ToLower(name)]
	return exists
}

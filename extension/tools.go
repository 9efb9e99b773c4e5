package extension

import (
	"sort"
	"strings"
	"sync"

	"github.com/viant/x"

	"github.com/stewardai/steward/model/types"
)

// Tools provides the tool service registry.
type Tools struct {
	types    *x.Registry
	services map[string]types.Service
	mux      sync.RWMutex
}

// Types returns the go-type registry shared by all registered services.
func (t *Tools) Types() *x.Registry {
	return t.types
}

// Lookup returns a service by name (case-insensitive), or nil.
func (t *Tools) Lookup(name string) types.Service {
	t.mux.RLock()
	defer t.mux.RUnlock()
	return t.services[strings.ToLower(name)]
}

// Register registers a service under its name.
func (t *Tools) Register(service types.Service) {
	t.mux.Lock()
	defer t.mux.Unlock()
	t.services[strings.ToLower(service.Name())] = service
}

// Names returns the registered service names sorted alphabetically.
func (t *Tools) Names() []string {
	t.mux.RLock()
	defer t.mux.RUnlock()
	out := make([]string, 0, len(t.services))
	for name := range t.services {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NewTools creates a tool registry, optionally pre-registering go types used
// by tool signatures.
func NewTools(goTypes ...*x.Type) *Tools {
	ret := &Tools{
		types:    x.NewRegistry(),
		services: make(map[string]types.Service),
	}
	for _, t := range goTypes {
		if t != nil {
			ret.types.Register(t)
		}
	}
	return ret
}

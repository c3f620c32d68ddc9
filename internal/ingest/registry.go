package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/harpgo/harp/internal/config"
	"github.com/harpgo/harp/internal/harperr"
	"github.com/harpgo/harp/internal/metrics"
	"github.com/harpgo/harp/internal/model"
	"github.com/harpgo/harp/internal/units"
)

// Registry holds the process's registered ingestion modules, probed in
// registration order by Dispatch.
type Registry struct {
	mu      sync.RWMutex
	modules []Module

	// Units is the unit system used to parse VariableSpec.Unit values.
	// Defaults to ucum.New() if nil.
	Units units.System

	// Clock timestamps the provenance history entry Dispatch appends.
	// Defaults to config.DefaultClock if nil.
	Clock config.Clock
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry is the process-wide registry CLI front ends dispatch
// against. Concrete ingestion backends register into it from their own
// package's init(), the way database/sql drivers register themselves
// via blank import, keeping the core registry free of any dependency
// on a specific vendor format.
var DefaultRegistry = NewRegistry()

// Register adds m to the registry. Modules are probed by Dispatch in
// the order they were registered.
func (r *Registry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = append(r.modules, m)
}

// Modules returns the registered modules in registration order.
func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Module(nil), r.modules...)
}

// Dispatch runs its four-step dispatch for path: probe each
// registered module's Detect in order, and on the first match resolve
// optionValues to a single product definition, allocate and read every
// declared variable, and attach provenance.
func (r *Registry) Dispatch(ctx context.Context, path string, optionValues map[string]string) (*model.Product, error) {
	sys := r.Units
	if sys == nil {
		sys = defaultUnits()
	}
	clock := r.Clock

	for _, module := range r.Modules() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, err := module.Detect(path)
		if err != nil {
			return nil, harperr.New(harperr.Ingestion, "module %s: detect %q: %v", module.Name(), path, err)
		}
		if !ok {
			continue
		}

		start := time.Now()
		product, err := r.dispatchModule(ctx, module, path, optionValues, sys, clock)
		metrics.IngestDispatchSeconds.WithLabelValues(module.Name()).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.IngestDispatchTotal.WithLabelValues(module.Name(), "error").Inc()
			return nil, err
		}
		metrics.IngestDispatchTotal.WithLabelValues(module.Name(), "ok").Inc()
		return product, nil
	}
	return nil, harperr.New(harperr.UnsupportedProduct, "no registered module recognizes %q", path)
}

// dispatchModule resolves options, initializes, builds, and finalizes
// module against path, the part of Dispatch's four-step sequence that
// runs once a module's Detect has already matched.
func (r *Registry) dispatchModule(ctx context.Context, module Module, path string, optionValues map[string]string, sys units.System, clock config.Clock) (*model.Product, error) {
	_, defs := module.Declarations()
	def, err := ResolveOptions(defs, optionValues)
	if err != nil {
		return nil, err
	}

	userData, err := module.Init(ctx, path, def)
	if err != nil {
		return nil, harperr.New(harperr.Ingestion, "module %s: init %q: %v", module.Name(), path, err)
	}

	product, err := r.build(ctx, module, userData, def, path, sys, clock)
	if doneErr := module.Done(userData); doneErr != nil && err == nil {
		err = harperr.New(harperr.Ingestion, "module %s: done: %v", module.Name(), doneErr)
	}
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *Registry) build(ctx context.Context, module Module, userData any, def *ProductDefinition, path string, sys units.System, clock config.Clock) (*model.Product, error) {
	dims, err := module.Dimensions(userData)
	if err != nil {
		return nil, harperr.New(harperr.Ingestion, "module %s: dimensions: %v", module.Name(), err)
	}
	vars, err := allocate(ctx, module, userData, def, dims, sys)
	if err != nil {
		return nil, err
	}
	product := model.NewProduct(path, clock)
	for _, v := range vars {
		if err := product.AddVariable(v); err != nil {
			return nil, err
		}
	}
	AttachProvenance(product, path, module.Name()+" "+module.Version())
	return product, nil
}

package model

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/harpgo/harp/internal/config"
	"github.com/harpgo/harp/internal/harperr"
)

// Product is an ordered, named collection of variables sharing a
// dimension-size map, plus provenance metadata and an append-only
// history log.
//
// Variables are held in an insertion-ordered slice backed by a
// name->index map for O(1) lookup, with dimension sizes tracked per
// dimension kind rather than as a single fixed bounds field.
type Product struct {
	variables []*Variable
	index     map[string]int
	dimLength map[DimensionKind]int

	id            uuid.UUID
	sourceProduct string
	history       []string
	clock         config.Clock
}

// NewProduct returns an empty product, identified by a freshly
// generated UUID. clock is used to timestamp HistoryAppend entries; if
// nil, config.DefaultClock is used.
func NewProduct(sourceProduct string, clock config.Clock) *Product {
	if clock == nil {
		clock = config.DefaultClock
	}
	return &Product{
		index:         make(map[string]int),
		dimLength:     make(map[DimensionKind]int),
		id:            uuid.New(),
		sourceProduct: sourceProduct,
		clock:         clock,
	}
}

// ID returns the product's identity, stable across Clone so that every
// state a pipeline run produces from the same ingested product can be
// traced back to it.
func (p *Product) ID() uuid.UUID { return p.id }

// SourceProduct returns the provenance string recorded at ingestion.
func (p *Product) SourceProduct() string { return p.sourceProduct }

// Variables returns the product's variables in insertion order.
// Callers must not mutate the returned slice.
func (p *Product) Variables() []*Variable { return p.variables }

// Variable looks up a variable by name.
func (p *Product) Variable(name string) (*Variable, bool) {
	i, ok := p.index[name]
	if !ok {
		return nil, false
	}
	return p.variables[i], true
}

// AddVariable appends v, failing if its name already exists or if any
// of its non-independent dimension kinds disagrees with the product's
// established length for that kind. The first variable to use a kind
// establishes its length.
func (p *Product) AddVariable(v *Variable) error {
	if _, exists := p.index[v.name]; exists {
		return harperr.New(harperr.InvalidArgument, "product already has a variable named %q", v.name)
	}
	lengths := v.DimensionLengths()
	for i, kind := range v.dimKinds {
		if kind == Independent {
			continue
		}
		if established, ok := p.dimLength[kind]; ok {
			if established != lengths[i] {
				return harperr.New(harperr.InvalidArgument,
					"variable %q: dimension %s length %d disagrees with product length %d",
					v.name, kind, lengths[i], established)
			}
		}
	}
	for i, kind := range v.dimKinds {
		if kind == Independent {
			continue
		}
		p.dimLength[kind] = lengths[i]
	}
	p.index[v.name] = len(p.variables)
	p.variables = append(p.variables, v)
	return nil
}

// removeAt splices out the variable at index i, preserving the
// insertion order of the remaining variables and reindexing, and
// returns the removed variable.
func (p *Product) removeAt(i int) *Variable {
	v := p.variables[i]
	p.variables = append(p.variables[:i], p.variables[i+1:]...)
	delete(p.index, v.name)
	for j := i; j < len(p.variables); j++ {
		p.index[p.variables[j].name] = j
	}
	return v
}

// kindStillUsed reports whether any remaining variable declares kind.
func (p *Product) kindStillUsed(kind DimensionKind) bool {
	for _, v := range p.variables {
		for _, k := range v.dimKinds {
			if k == kind {
				return true
			}
		}
	}
	return false
}

// pruneDimLength drops the product's established length for each kind
// in kinds that no remaining variable declares, called after a
// variable leaves the product so dimLength never holds a kind nothing
// uses any more.
func (p *Product) pruneDimLength(kinds []DimensionKind) {
	for _, k := range kinds {
		if k == Independent {
			continue
		}
		if !p.kindStillUsed(k) {
			delete(p.dimLength, k)
		}
	}
}

// RemoveVariable deletes the named variable, preserving the insertion
// order of the remaining variables, reindexing, and pruning any
// dimension kind the removed variable was the last user of.
func (p *Product) RemoveVariable(name string) error {
	i, ok := p.index[name]
	if !ok {
		return harperr.New(harperr.VariableNotFound, "no variable named %q", name)
	}
	v := p.removeAt(i)
	p.pruneDimLength(v.dimKinds)
	return nil
}

// DetachVariable removes and returns the named variable, pruning any
// dimension kind it was the last user of. Paired with AttachVariable to
// move a variable from one product to another while keeping both
// products' dimension maps consistent.
func (p *Product) DetachVariable(name string) (*Variable, error) {
	i, ok := p.index[name]
	if !ok {
		return nil, harperr.New(harperr.VariableNotFound, "no variable named %q", name)
	}
	v := p.removeAt(i)
	p.pruneDimLength(v.dimKinds)
	return v, nil
}

// AttachVariable adds v to the product under the same rules as
// AddVariable. The distinct name pairs with DetachVariable at call
// sites that move a variable between products.
func (p *Product) AttachVariable(v *Variable) error {
	return p.AddVariable(v)
}

// RenameVariable renames old to new, failing if new already exists.
func (p *Product) RenameVariable(oldName, newName string) error {
	i, ok := p.index[oldName]
	if !ok {
		return harperr.New(harperr.VariableNotFound, "no variable named %q", oldName)
	}
	if _, exists := p.index[newName]; exists {
		return harperr.New(harperr.InvalidArgument, "product already has a variable named %q", newName)
	}
	p.variables[i].name = newName
	delete(p.index, oldName)
	p.index[newName] = i
	return nil
}

// DimensionLength looks up the product's established length for kind,
// failing if no variable has declared it yet.
func (p *Product) DimensionLength(kind DimensionKind) (int, error) {
	n, ok := p.dimLength[kind]
	if !ok {
		return 0, harperr.New(harperr.InvalidArgument, "product has no variable declaring dimension kind %s", kind)
	}
	return n, nil
}

// SetDimensionLength updates the product's length for kind, used by
// the pipeline executor after a row-filtering operation shrinks a
// dimension (e.g. time) uniformly across every variable that uses it.
func (p *Product) SetDimensionLength(kind DimensionKind, n int) {
	p.dimLength[kind] = n
}

// HistoryAppend appends a timestamped line to the product's history,
// by convention the operation source fragment that produced the
// current state.
func (p *Product) HistoryAppend(line string) {
	ts := p.clock.Now().UTC().Format("2006-01-02T15:04:05Z")
	p.history = append(p.history, fmt.Sprintf("[%s] %s", ts, line))
}

// History returns the product's history log, newest entry last.
func (p *Product) History() []string { return p.history }

// Clone returns a deep copy of the product: every variable is cloned,
// and the dimension/history bookkeeping is copied, used by the
// pipeline executor's copy-on-write commit protocol, which leaves the
// product in its pre-operation state on a runtime error.
func (p *Product) Clone() *Product {
	c := &Product{
		index:         make(map[string]int, len(p.index)),
		dimLength:     make(map[DimensionKind]int, len(p.dimLength)),
		id:            p.id,
		sourceProduct: p.sourceProduct,
		history:       append([]string(nil), p.history...),
		clock:         p.clock,
	}
	for k, v := range p.dimLength {
		c.dimLength[k] = v
	}
	c.variables = make([]*Variable, len(p.variables))
	for i, v := range p.variables {
		c.variables[i] = v.Clone()
		c.index[v.name] = i
	}
	return c
}

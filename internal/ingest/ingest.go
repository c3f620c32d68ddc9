// Package ingest implements the dispatch framework: a registry of
// self-registering format modules, each declaring a fixed enum of
// legal options and one or more product definitions, probed against a
// file path in registration order.
//
// The per-format backends themselves (reading a specific vendor's
// binary or text layout) are out of scope; this package is the
// dispatch shell a real backend plugs into. Modules self-register via
// an explicit Register call rather than a static map, since the module
// set here is open-ended rather than a fixed catalogue.
package ingest

import (
	"context"
	"fmt"

	"github.com/harpgo/harp/internal/array"
	"github.com/harpgo/harp/internal/harperr"
	"github.com/harpgo/harp/internal/model"
	"github.com/harpgo/harp/internal/scalar"
	"github.com/harpgo/harp/internal/units"
	"github.com/harpgo/harp/internal/units/ucum"
)

// Option declares one ingestion option's fixed enum of legal values.
type Option struct {
	Name   string
	Values []string
}

// VariableSpec is one variable a product definition declares. Lengths
// is parallel to DimensionKinds; a negative entry means the length is
// only known once the source file has been opened, and is resolved
// from the map returned by Module.Dimensions after Init has opened it.
type VariableSpec struct {
	Name           string
	Type           scalar.Type
	DimensionKinds []model.DimensionKind
	Lengths        []int
	Unit           string
	Description    string
}

// ProductDefinition is one output schema a module can produce: the
// option values it matches, and the variables it allocates.
type ProductDefinition struct {
	Name      string
	Options   map[string]string
	Variables []VariableSpec
}

// Module is one ingestion backend. Modules self-register
// into a Registry; Dispatch probes each in registration order.
type Module interface {
	// Name identifies the module for provenance and error messages.
	Name() string

	// Version is recorded by AttachProvenance.
	Version() string

	// Declarations returns the module's fixed option enum and the
	// product definitions those options can resolve to.
	Declarations() ([]Option, []*ProductDefinition)

	// Detect probes path without fully opening it, reporting whether
	// this module recognizes the format.
	Detect(path string) (bool, error)

	// Init opens path and allocates module-private user data sized
	// for def. The returned value is passed to Dimensions, ReadVariable
	// and Done unchanged.
	Init(ctx context.Context, path string, def *ProductDefinition) (userData any, err error)

	// Dimensions resolves any dimension kind whose length could not be
	// known until the file was opened, so the registry can allocate the
	// output product and each variable's buffer using the declared
	// shape.
	Dimensions(userData any) (map[model.DimensionKind]int, error)

	// ReadVariable populates out for the variable described by spec.
	ReadVariable(ctx context.Context, userData any, spec VariableSpec, out *array.Array) error

	// Done releases resources acquired by Init.
	Done(userData any) error
}

// ResolveOptions finds the single definition among defs whose Options
// map equals values exactly: same keys, same values. Comparison is
// case-sensitive (an explicit decision recorded in DESIGN.md, since
// leaves option case sensitivity unspecified).
func ResolveOptions(defs []*ProductDefinition, values map[string]string) (*ProductDefinition, error) {
	for _, def := range defs {
		if optionsEqual(def.Options, values) {
			return def, nil
		}
	}
	return nil, harperr.New(harperr.UnsupportedProduct, "no product definition matches option set %v", values)
}

func optionsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// AttachProvenance records the source file and module version in the
// product's history, following the same
// timestamped-history-line convention HistoryAppend already uses for
// operations.
func AttachProvenance(p *model.Product, sourceFile, moduleVersion string) {
	p.HistoryAppend(fmt.Sprintf("ingested %s via %s", sourceFile, moduleVersion))
}

// resolveLengths fills in any negative entry of spec.Lengths from
// dims, the per-kind lengths Module.Dimensions discovered at Init
// time.
func resolveLengths(spec VariableSpec, dims map[model.DimensionKind]int) ([]int, error) {
	lengths := append([]int(nil), spec.Lengths...)
	for i, l := range lengths {
		if l >= 0 {
			continue
		}
		kind := spec.DimensionKinds[i]
		n, ok := dims[kind]
		if !ok {
			return nil, harperr.New(harperr.UnsupportedProduct,
				"variable %q: dimension kind %s has no declared length", spec.Name, kind)
		}
		lengths[i] = n
	}
	return lengths, nil
}

// allocate builds the variables of def, reading each one's data via
// module's ReadVariable callback.
func allocate(ctx context.Context, module Module, userData any, def *ProductDefinition, dims map[model.DimensionKind]int, sys units.System) ([]*model.Variable, error) {
	vars := make([]*model.Variable, 0, len(def.Variables))
	for _, spec := range def.Variables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lengths, err := resolveLengths(spec, dims)
		if err != nil {
			return nil, err
		}
		v, err := model.NewVariable(spec.Name, spec.Type, spec.DimensionKinds, lengths)
		if err != nil {
			return nil, err
		}
		if spec.Description != "" {
			v.SetDescription(spec.Description)
		}
		if spec.Unit != "" {
			if err := v.SetUnit(spec.Unit, sys); err != nil {
				return nil, err
			}
		}
		if err := module.ReadVariable(ctx, userData, spec, v.Data()); err != nil {
			return nil, fmt.Errorf("read variable %q: %w", spec.Name, err)
		}
		vars = append(vars, v)
	}
	return vars, nil
}

// defaultUnits is used when a Registry is built with a nil units
// system; it matches the default the rest of the module uses.
func defaultUnits() units.System {
	return ucum.New()
}

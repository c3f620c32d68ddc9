package pipeline

import (
	"github.com/harpgo/harp/internal/harperr"
	"github.com/harpgo/harp/internal/model"
	"github.com/harpgo/harp/internal/scalar"
)

// DerivationRule is one entry of the table-driven derivation registry:
// an output variable name, the input variables/kinds it requires, and
// the function that computes it.
type DerivationRule struct {
	Output  string
	Inputs  []string
	Convert func(p *model.Product, inputs []*model.Variable) (*model.Variable, error)
}

// DerivationRegistry is the fixed set of derivation rules known to the
// pipeline: a table of (output name, required inputs, conversion
// function) entries, populated here with the centroid derivations
// common to the bounds-carrying products the rest of this package
// already assumes (latitude_bounds/longitude_bounds).
var DerivationRegistry = []DerivationRule{
	{
		Output: "latitude",
		Inputs: []string{"latitude_bounds"},
		Convert: func(p *model.Product, inputs []*model.Variable) (*model.Variable, error) {
			return centroid(p, inputs[0], "latitude")
		},
	},
	{
		Output: "longitude",
		Inputs: []string{"longitude_bounds"},
		Convert: func(p *model.Product, inputs []*model.Variable) (*model.Variable, error) {
			return centroid(p, inputs[0], "longitude")
		},
	},
}

// centroid averages each row's bounds vertices into a single scalar per
// row, producing a variable with the outermost dimension kind of bounds
// and rank reduced by one.
func centroid(p *model.Product, bounds *model.Variable, outName string) (*model.Variable, error) {
	dims := bounds.Data().Dims()
	if len(dims) == 0 {
		return nil, harperr.New(harperr.InvalidArgument, "%s: bounds variable must have rank >= 1", bounds.Name())
	}
	kinds := bounds.DimensionKinds()
	outKinds := kinds[:len(kinds)-1]
	outDims := dims[:len(dims)-1]
	vertexCount := dims[len(dims)-1]

	rows := 1
	for _, d := range outDims {
		rows *= d
	}

	out, err := model.NewVariable(outName, scalar.Float64, outKinds, outDims)
	if err != nil {
		return nil, err
	}

	for row := 0; row < rows; row++ {
		var sum float64
		for k := 0; k < vertexCount; k++ {
			v, err := scalar.AsFloat64(bounds.Data().At(row*vertexCount + k))
			if err != nil {
				return nil, err
			}
			sum += v
		}
		out.Data().Set(row, scalar.Float64Value(sum/float64(vertexCount)))
	}
	return out, nil
}

// Derive implements the `derive` built-in: resolves a rule from
// DerivationRegistry by output name, fetches its required inputs from
// the product, computes the output, and attaches it (replacing any
// existing variable of the same name).
type Derive struct {
	Src        string
	OutputName string
}

func (d *Derive) Fragment() string { return d.Src }

func (d *Derive) Apply(p *model.Product) (*model.Product, error) {
	var rule *DerivationRule
	for i := range DerivationRegistry {
		if DerivationRegistry[i].Output == d.OutputName {
			rule = &DerivationRegistry[i]
			break
		}
	}
	if rule == nil {
		return nil, harperr.New(harperr.Operation, "no derivation rule produces %q", d.OutputName)
	}

	inputs := make([]*model.Variable, len(rule.Inputs))
	for i, name := range rule.Inputs {
		v, ok := p.Variable(name)
		if !ok {
			return nil, harperr.New(harperr.VariableNotFound, "derive %q: missing input variable %q", d.OutputName, name)
		}
		inputs[i] = v
	}

	out, err := rule.Convert(p, inputs)
	if err != nil {
		return nil, err
	}
	if existing, ok := p.Variable(d.OutputName); ok {
		if err := p.RemoveVariable(existing.Name()); err != nil {
			return nil, err
		}
	}
	if err := p.AddVariable(out); err != nil {
		return nil, err
	}
	return p, nil
}

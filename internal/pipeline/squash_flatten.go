package pipeline

import (
	"github.com/harpgo/harp/internal/harperr"
	"github.com/harpgo/harp/internal/model"
)

// Squash implements `squash`: removes DimKind from every variable that
// carries it, provided the product's established length for DimKind is
// 1, and drops the product's own record of that dimension's length.
type Squash struct {
	Src     string
	DimKind model.DimensionKind
}

func (s *Squash) Fragment() string { return s.Src }

func (s *Squash) Apply(p *model.Product) (*model.Product, error) {
	n, err := p.DimensionLength(s.DimKind)
	if err != nil {
		return nil, err
	}
	if n != 1 {
		return nil, harperr.New(harperr.InvalidArgument, "squash: dimension %s has length %d, not 1", s.DimKind, n)
	}
	for _, v := range p.Variables() {
		if err := v.SqueezeDimensionKind(s.DimKind); err != nil {
			return nil, err
		}
	}
	p.SetDimensionLength(s.DimKind, 0)
	return p, nil
}

// Flatten implements `flatten`: relabels DimKind to Independent across
// every variable that carries it, stripping its semantic meaning while
// preserving data and length.
type Flatten struct {
	Src     string
	DimKind model.DimensionKind
}

func (f *Flatten) Fragment() string { return f.Src }

func (f *Flatten) Apply(p *model.Product) (*model.Product, error) {
	if f.DimKind == model.Independent {
		return p, nil
	}
	for _, v := range p.Variables() {
		v.RelabelDimensionKind(f.DimKind, model.Independent)
	}
	p.SetDimensionLength(f.DimKind, 0)
	return p, nil
}

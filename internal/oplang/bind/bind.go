// Package bind implements its semantic binder: it converts
// an *oplang.OperationList into a *pipeline.Pipeline, resolving each
// node against a specific product's variables and a fixed built-in
// function-name table, and reports mismatches (unknown name, arity,
// parameter kind) as bind-time errors carrying the offending token's
// position, grounded on the same recursive binding approach the
// teacher's internal/parser package uses to turn an update file's
// tokens into a typed chart mutation.
package bind

import (
	"os"
	"strconv"
	"strings"

	"github.com/harpgo/harp/internal/geo"
	"github.com/harpgo/harp/internal/harperr"
	"github.com/harpgo/harp/internal/model"
	"github.com/harpgo/harp/internal/oplang"
	"github.com/harpgo/harp/internal/pipeline"
	"github.com/harpgo/harp/internal/scalar"
	"github.com/harpgo/harp/internal/units"
	"github.com/harpgo/harp/internal/units/ucum"
)

// Context carries the resources a bound pipeline may need beyond the
// product it runs against: other already-loaded products for
// collocate_left/collocate_right's reference argument, the unit system
// used to reconcile quantity literals against a variable's own unit,
// and an area-mask loader for the area_*/point_in_area family.
type Context struct {
	// References resolves the first string argument of collocate_left
	// and collocate_right to an already-ingested reference product.
	References map[string]*model.Product

	// Units reconciles quantity literals (`number[unit]`) against a
	// variable's stored unit. Defaults to ucum.New() if nil.
	Units units.System

	// LoadAreaMask loads the area mask named by a string literal
	// argument to point_in_area/area_covers_area/area_inside_area/
	// area_intersects_area/area_mask_covers_area. Defaults to treating
	// the string as a filesystem path read via geo.LoadAreaMask.
	LoadAreaMask func(name string) (*geo.AreaMask, error)

	masks map[string]*geo.AreaMask
}

func (c *Context) units() units.System {
	if c.Units == nil {
		c.Units = ucum.New()
	}
	return c.Units
}

func (c *Context) areaMask(name string) (*geo.AreaMask, error) {
	if c.masks == nil {
		c.masks = map[string]*geo.AreaMask{}
	}
	if m, ok := c.masks[name]; ok {
		return m, nil
	}
	loader := c.LoadAreaMask
	if loader == nil {
		loader = loadAreaMaskFile
	}
	m, err := loader(name)
	if err != nil {
		return nil, err
	}
	c.masks[name] = m
	return m, nil
}

// loadAreaMaskFile is the default area-mask loader: name is a
// filesystem path read via geo.LoadAreaMask.
func loadAreaMaskFile(name string) (*geo.AreaMask, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, harperr.New(harperr.FileOpen, "opening area mask %q: %v", name, err)
	}
	defer f.Close()
	return geo.LoadAreaMask(f)
}

// Bind converts src's parsed operation list into a ready-to-run
// pipeline against product's current schema. product is used only to
// resolve variable element types and units at bind time; Bind does not
// mutate it.
func Bind(src string, ops *oplang.OperationList, product *model.Product, ctx *Context) (*pipeline.Pipeline, error) {
	if ctx == nil {
		ctx = &Context{}
	}
	fragments := fragmentsOf(src, ops.Operations)

	pl := &pipeline.Pipeline{}
	for i, node := range ops.Operations {
		frag := fragments[i]
		op, err := bindOperation(node, frag, product, ctx)
		if err != nil {
			return nil, err
		}
		pl.Operations = append(pl.Operations, op)
	}
	return pl, nil
}

// fragmentsOf slices src into one trimmed substring per top-level
// operation, splitting at each operation's own start position and the
// next operation's start position (or the end of src for the last).
func fragmentsOf(src string, ops []oplang.Node) []string {
	// A predicate node's Pos() is its operator; it starts at its left operand.
	startOf := func(op oplang.Node) int {
		switch n := op.(type) {
		case *oplang.Compare:
			return n.Left.Pos()
		case *oplang.BitMaskAny:
			return n.Left.Pos()
		case *oplang.BitMaskNone:
			return n.Left.Pos()
		case *oplang.In:
			return n.Left.Pos()
		case *oplang.NotIn:
			return n.Left.Pos()
		}
		return op.Pos()
	}
	out := make([]string, len(ops))
	for i, op := range ops {
		start := startOf(op)
		end := len(src)
		if i+1 < len(ops) {
			end = startOf(ops[i+1])
		}
		frag := src[start:end]
		frag = strings.TrimRight(strings.TrimSpace(frag), ";")
		out[i] = strings.TrimSpace(frag)
	}
	return out
}

func bindOperation(node oplang.Node, frag string, product *model.Product, ctx *Context) (pipeline.Operation, error) {
	switch n := node.(type) {
	case *oplang.Compare:
		return bindCompare(n, frag, product, ctx)
	case *oplang.BitMaskAny:
		return bindBitMask(n.Left, n.Right, true, n.Pos(), frag, product)
	case *oplang.BitMaskNone:
		return bindBitMask(n.Left, n.Right, false, n.Pos(), frag, product)
	case *oplang.In:
		return bindList(n.Left, n.List, false, n.Pos(), frag, product, ctx)
	case *oplang.NotIn:
		return bindList(n.Left, n.List, true, n.Pos(), frag, product, ctx)
	case *oplang.FunctionCall:
		return bindFunctionCall(n, frag, product, ctx)
	default:
		return nil, harperr.NewAt(harperr.OperationSyntax, node.Pos(), "operation is not a recognized top-level form")
	}
}

// refOf resolves a variable reference AST node (Name or QualifiedName)
// to its variable name and dimension kind, defaulting to Time since
// predicate-based filters work on the product's time dimension by
// default.
func refOf(node oplang.Node) (name string, dimKind model.DimensionKind, err error) {
	switch n := node.(type) {
	case *oplang.Name:
		return n.Value, model.Time, nil
	case *oplang.QualifiedName:
		if len(n.Dims.Kinds) == 0 {
			return n.Value, model.Time, nil
		}
		kind, err := dimKindFromName(n.Dims.Kinds[0], n.Pos())
		if err != nil {
			return "", 0, err
		}
		return n.Value, kind, nil
	default:
		return "", 0, harperr.NewAt(harperr.OperationSyntax, node.Pos(), "expected a variable reference")
	}
}

func dimKindFromName(s string, pos int) (model.DimensionKind, error) {
	switch strings.ToLower(s) {
	case "independent":
		return model.Independent, nil
	case "time":
		return model.Time, nil
	case "latitude":
		return model.Latitude, nil
	case "longitude":
		return model.Longitude, nil
	case "vertical":
		return model.Vertical, nil
	case "spectral":
		return model.Spectral, nil
	default:
		return 0, harperr.NewAt(harperr.OperationSyntax, pos, "unknown dimension kind %q", s)
	}
}

func bindCompare(c *oplang.Compare, frag string, product *model.Product, ctx *Context) (pipeline.Operation, error) {
	varName, dimKind, err := refOf(c.Left)
	if err != nil {
		return nil, err
	}
	v, ok := product.Variable(varName)
	if !ok {
		return nil, harperr.NewAt(harperr.VariableNotFound, c.Pos(), "no variable named %q", varName)
	}
	want, err := literalScalar(c.Right, v.ElementType(), v.Unit(), ctx)
	if err != nil {
		return nil, err
	}
	op, err := comparatorTest(c.Op, want, c.Pos())
	if err != nil {
		return nil, err
	}
	return &pipeline.PredicateFilter{Src: frag, VarName: varName, DimKind: dimKind, Op: op}, nil
}

func comparatorTest(op oplang.Comparator, want scalar.Value, pos int) (func(scalar.Value) (bool, error), error) {
	if want.Type() == scalar.String {
		return func(got scalar.Value) (bool, error) {
			if got.Type() != scalar.String {
				return false, harperr.New(harperr.InvalidArgument, "comparison type mismatch")
			}
			gs, ws := got.Str(), want.Str()
			eq := (gs == nil && ws == nil) || (gs != nil && ws != nil && *gs == *ws)
			switch op {
			case oplang.CmpEq:
				return eq, nil
			case oplang.CmpNe:
				return !eq, nil
			default:
				return false, harperr.NewAt(harperr.OperationSyntax, pos, "string variables only support == and !=")
			}
		}, nil
	}
	return func(got scalar.Value) (bool, error) {
		if scalar.IsFill(got) {
			return false, nil
		}
		c := scalar.Compare(got, want)
		switch op {
		case oplang.CmpEq:
			return c == 0, nil
		case oplang.CmpNe:
			return c != 0, nil
		case oplang.CmpLt:
			return c < 0, nil
		case oplang.CmpLe:
			return c <= 0, nil
		case oplang.CmpGt:
			return c > 0, nil
		case oplang.CmpGe:
			return c >= 0, nil
		default:
			return false, harperr.NewAt(harperr.OperationSyntax, pos, "unknown comparator")
		}
	}, nil
}

func bindBitMask(leftNode, rightNode oplang.Node, any bool, pos int, frag string, product *model.Product) (pipeline.Operation, error) {
	varName, dimKind, err := refOf(leftNode)
	if err != nil {
		return nil, err
	}
	if _, ok := product.Variable(varName); !ok {
		return nil, harperr.NewAt(harperr.VariableNotFound, pos, "no variable named %q", varName)
	}
	num, ok := rightNode.(*oplang.Number)
	if !ok {
		return nil, harperr.NewAt(harperr.OperationSyntax, rightNode.Pos(), "bitmask operand must be an integer literal")
	}
	mask, err := strconv.ParseInt(num.Value, 10, 64)
	if err != nil {
		return nil, harperr.NewAt(harperr.OperationSyntax, num.Pos(), "invalid integer literal %q", num.Value)
	}
	return &pipeline.BitMaskFilter{Src: frag, VarName: varName, DimKind: dimKind, Mask: mask, Any: any}, nil
}

func bindList(leftNode oplang.Node, list *oplang.List, negate bool, pos int, frag string, product *model.Product, ctx *Context) (pipeline.Operation, error) {
	varName, dimKind, err := refOf(leftNode)
	if err != nil {
		return nil, err
	}
	v, ok := product.Variable(varName)
	if !ok {
		return nil, harperr.NewAt(harperr.VariableNotFound, pos, "no variable named %q", varName)
	}
	values := make([]scalar.Value, len(list.Items))
	for i, item := range list.Items {
		val, err := literalScalar(item, v.ElementType(), v.Unit(), ctx)
		if err != nil {
			return nil, err
		}
		values[i] = val
	}
	return &pipeline.ListFilter{Src: frag, VarName: varName, DimKind: dimKind, Values: values, Negate: negate}, nil
}

// literalScalar converts a string/number/quantity literal node into a
// scalar.Value of typ, converting a quantity's unit to varUnit first.
// Per ("types must match after unit conversion").
func literalScalar(node oplang.Node, typ scalar.Type, varUnit string, ctx *Context) (scalar.Value, error) {
	switch n := node.(type) {
	case *oplang.String:
		if typ != scalar.String {
			return scalar.Value{}, harperr.NewAt(harperr.InvalidArgument, n.Pos(), "expected a numeric literal, got a string")
		}
		s := n.Value
		return scalar.StringValue(&s), nil
	case *oplang.Number:
		if typ == scalar.String {
			return scalar.Value{}, harperr.NewAt(harperr.InvalidArgument, n.Pos(), "expected a string literal, got a number")
		}
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return scalar.Value{}, harperr.NewAt(harperr.OperationSyntax, n.Pos(), "invalid number literal %q", n.Value)
		}
		return scalar.ConvertNumeric(scalar.Float64Value(f), typ)
	case *oplang.Quantity:
		if typ == scalar.String {
			return scalar.Value{}, harperr.NewAt(harperr.InvalidArgument, n.Pos(), "expected a string literal, got a quantity")
		}
		f, err := strconv.ParseFloat(n.Number.Value, 64)
		if err != nil {
			return scalar.Value{}, harperr.NewAt(harperr.OperationSyntax, n.Number.Pos(), "invalid number literal %q", n.Number.Value)
		}
		if varUnit == "" {
			return scalar.Value{}, harperr.NewAt(harperr.UnitConversion, n.Pos(), "variable has no unit to convert %q against", n.Unit.Value)
		}
		sys := ctx.units()
		src, err := sys.Parse(n.Unit.Value)
		if err != nil {
			return scalar.Value{}, err
		}
		dst, err := sys.Parse(varUnit)
		if err != nil {
			return scalar.Value{}, err
		}
		factor, offset, err := sys.Conversion(src, dst)
		if err != nil {
			return scalar.Value{}, err
		}
		return scalar.ConvertNumeric(scalar.Float64Value(f*factor+offset), typ)
	default:
		return scalar.Value{}, harperr.NewAt(harperr.OperationSyntax, node.Pos(), "expected a literal value")
	}
}

// angleRadians converts a bare number (already radians) or a quantity
// literal (converted via ctx's unit system) into radians.
func angleRadians(node oplang.Node, ctx *Context) (float64, error) {
	switch n := node.(type) {
	case *oplang.Number:
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return 0, harperr.NewAt(harperr.OperationSyntax, n.Pos(), "invalid number literal %q", n.Value)
		}
		return f, nil
	case *oplang.Quantity:
		f, err := strconv.ParseFloat(n.Number.Value, 64)
		if err != nil {
			return 0, harperr.NewAt(harperr.OperationSyntax, n.Number.Pos(), "invalid number literal %q", n.Number.Value)
		}
		sys := ctx.units()
		src, err := sys.Parse(n.Unit.Value)
		if err != nil {
			return 0, err
		}
		dst, err := sys.Parse("rad")
		if err != nil {
			return 0, err
		}
		factor, offset, err := sys.Conversion(src, dst)
		if err != nil {
			return 0, err
		}
		return f*factor + offset, nil
	default:
		return 0, harperr.NewAt(harperr.OperationSyntax, node.Pos(), "expected a number or quantity literal")
	}
}

func nameValue(node oplang.Node) (string, error) {
	switch n := node.(type) {
	case *oplang.Name:
		return n.Value, nil
	case *oplang.QualifiedName:
		return n.Value, nil
	default:
		return "", harperr.NewAt(harperr.OperationSyntax, node.Pos(), "expected an identifier")
	}
}

func stringValue(node oplang.Node) (string, error) {
	s, ok := node.(*oplang.String)
	if !ok {
		return "", harperr.NewAt(harperr.OperationSyntax, node.Pos(), "expected a quoted string literal")
	}
	return s.Value, nil
}

func numberValue(node oplang.Node) (float64, error) {
	n, ok := node.(*oplang.Number)
	if !ok {
		return 0, harperr.NewAt(harperr.OperationSyntax, node.Pos(), "expected a number literal")
	}
	f, err := strconv.ParseFloat(n.Value, 64)
	if err != nil {
		return 0, harperr.NewAt(harperr.OperationSyntax, n.Pos(), "invalid number literal %q", n.Value)
	}
	return f, nil
}

func intValue(node oplang.Node) (int, error) {
	f, err := numberValue(node)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func dimKindValue(node oplang.Node) (model.DimensionKind, error) {
	name, err := nameValue(node)
	if err != nil {
		return 0, err
	}
	return dimKindFromName(name, node.Pos())
}

package bind

import (
	"github.com/harpgo/harp/internal/harperr"
	"github.com/harpgo/harp/internal/model"
	"github.com/harpgo/harp/internal/oplang"
	"github.com/harpgo/harp/internal/pipeline"
)

// bindFunctionCall resolves fn against the fixed built-in function
// table, checking each function's arity before dispatching to its
// constructor.
func bindFunctionCall(fn *oplang.FunctionCall, frag string, product *model.Product, ctx *Context) (pipeline.Operation, error) {
	args := fn.Args.Args
	arity := func(want int) error {
		if len(args) != want {
			return harperr.NewAt(harperr.OperationSyntax, fn.Pos(), "%s: expected %d argument(s), got %d", fn.Name, want, len(args))
		}
		return nil
	}
	atLeast := func(want int) error {
		if len(args) < want {
			return harperr.NewAt(harperr.OperationSyntax, fn.Pos(), "%s: expected at least %d argument(s), got %d", fn.Name, want, len(args))
		}
		return nil
	}

	switch fn.Name {
	case "keep":
		if err := atLeast(1); err != nil {
			return nil, err
		}
		names, err := nameList(args)
		if err != nil {
			return nil, err
		}
		return &pipeline.Keep{Src: frag, Names: names}, nil

	case "exclude":
		if err := atLeast(1); err != nil {
			return nil, err
		}
		names, err := nameList(args)
		if err != nil {
			return nil, err
		}
		return &pipeline.Exclude{Src: frag, Names: names}, nil

	case "rename":
		if err := arity(2); err != nil {
			return nil, err
		}
		oldName, err := nameValue(args[0])
		if err != nil {
			return nil, err
		}
		newName, err := nameValue(args[1])
		if err != nil {
			return nil, err
		}
		return &pipeline.Rename{Src: frag, Old: oldName, New: newName}, nil

	case "set":
		if err := arity(2); err != nil {
			return nil, err
		}
		varName, err := nameValue(args[0])
		if err != nil {
			return nil, err
		}
		v, ok := product.Variable(varName)
		if !ok {
			return nil, harperr.NewAt(harperr.VariableNotFound, fn.Pos(), "no variable named %q", varName)
		}
		val, err := literalScalar(args[1], v.ElementType(), v.Unit(), ctx)
		if err != nil {
			return nil, err
		}
		return &pipeline.Set{Src: frag, VarName: varName, Value: val}, nil

	case "valid":
		if err := arity(1); err != nil {
			return nil, err
		}
		varName, err := nameValue(args[0])
		if err != nil {
			return nil, err
		}
		return &pipeline.Valid{Src: frag, VarName: varName}, nil

	case "longitude_range":
		if err := arity(3); err != nil {
			return nil, err
		}
		varName, err := nameValue(args[0])
		if err != nil {
			return nil, err
		}
		min, err := angleRadians(args[1], ctx)
		if err != nil {
			return nil, err
		}
		max, err := angleRadians(args[2], ctx)
		if err != nil {
			return nil, err
		}
		return &pipeline.LongitudeRange{Src: frag, VarName: varName, Min: min, Max: max}, nil

	case "sort":
		if err := arity(2); err != nil {
			return nil, err
		}
		dimKind, err := dimKindValue(args[0])
		if err != nil {
			return nil, err
		}
		keyName, err := nameValue(args[1])
		if err != nil {
			return nil, err
		}
		return &pipeline.Sort{Src: frag, DimKind: dimKind, KeyName: keyName}, nil

	case "squash":
		if err := arity(1); err != nil {
			return nil, err
		}
		dimKind, err := dimKindValue(args[0])
		if err != nil {
			return nil, err
		}
		return &pipeline.Squash{Src: frag, DimKind: dimKind}, nil

	case "flatten":
		if err := arity(1); err != nil {
			return nil, err
		}
		dimKind, err := dimKindValue(args[0])
		if err != nil {
			return nil, err
		}
		return &pipeline.Flatten{Src: frag, DimKind: dimKind}, nil

	case "derive":
		if err := arity(1); err != nil {
			return nil, err
		}
		outName, err := nameValue(args[0])
		if err != nil {
			return nil, err
		}
		return &pipeline.Derive{Src: frag, OutputName: outName}, nil

	case "point_distance":
		if err := arity(6); err != nil {
			return nil, err
		}
		out, err := nameValue(args[0])
		if err != nil {
			return nil, err
		}
		lat1, err := nameValue(args[1])
		if err != nil {
			return nil, err
		}
		lon1, err := nameValue(args[2])
		if err != nil {
			return nil, err
		}
		lat2, err := nameValue(args[3])
		if err != nil {
			return nil, err
		}
		lon2, err := nameValue(args[4])
		if err != nil {
			return nil, err
		}
		dimKind, err := dimKindValue(args[5])
		if err != nil {
			return nil, err
		}
		return &pipeline.PointDistance{Src: frag, OutName: out, Lat1Var: lat1, Lon1Var: lon1, Lat2Var: lat2, Lon2Var: lon2, DimKind: dimKind}, nil

	case "point_in_area":
		if err := arity(4); err != nil {
			return nil, err
		}
		return bindAreaMaskFilter(fn, args, frag, ctx, pipeline.TestCoversPoint, false)

	case "area_covers_area":
		if err := arity(4); err != nil {
			return nil, err
		}
		return bindAreaMaskFilter(fn, args, frag, ctx, pipeline.TestCoversArea, false)

	case "area_mask_covers_area":
		if err := arity(4); err != nil {
			return nil, err
		}
		return bindAreaMaskFilter(fn, args, frag, ctx, pipeline.TestCoversArea, false)

	case "area_inside_area":
		if err := arity(4); err != nil {
			return nil, err
		}
		return bindAreaMaskFilter(fn, args, frag, ctx, pipeline.TestInsideArea, false)

	case "area_intersects_area":
		if len(args) == 5 {
			return bindAreaMaskFilter(fn, args, frag, ctx, pipeline.TestIntersectsAreaMinFraction, true)
		}
		if err := arity(4); err != nil {
			return nil, harperr.NewAt(harperr.OperationSyntax, fn.Pos(), "%s: expected 4 or 5 arguments, got %d", fn.Name, len(args))
		}
		return bindAreaMaskFilter(fn, args, frag, ctx, pipeline.TestIntersectsArea, false)

	case "area_covers_point":
		if err := arity(5); err != nil {
			return nil, err
		}
		latVar, err := nameValue(args[0])
		if err != nil {
			return nil, err
		}
		lonVar, err := nameValue(args[1])
		if err != nil {
			return nil, err
		}
		dimKind, err := dimKindValue(args[2])
		if err != nil {
			return nil, err
		}
		refLat, err := angleRadians(args[3], ctx)
		if err != nil {
			return nil, err
		}
		refLon, err := angleRadians(args[4], ctx)
		if err != nil {
			return nil, err
		}
		return &pipeline.AreaCoversPoint{Src: frag, LatBoundsVar: latVar, LonBoundsVar: lonVar, DimKind: dimKind, RefLat: refLat, RefLon: refLon}, nil

	case "regrid":
		if err := arity(3); err != nil {
			return nil, err
		}
		dimKind, err := dimKindValue(args[0])
		if err != nil {
			return nil, err
		}
		coordVar, err := nameValue(args[1])
		if err != nil {
			return nil, err
		}
		list, ok := args[2].(*oplang.List)
		if !ok {
			return nil, harperr.NewAt(harperr.OperationSyntax, args[2].Pos(), "regrid: third argument must be a literal list of target coordinates")
		}
		target := make([]float64, len(list.Items))
		for i, item := range list.Items {
			f, err := numberValue(item)
			if err != nil {
				return nil, err
			}
			target[i] = f
		}
		return &pipeline.Regrid{Src: frag, DimKind: dimKind, CoordVar: coordVar, Target: target}, nil

	case "bin":
		if err := arity(2); err != nil {
			return nil, err
		}
		dimKind, err := dimKindValue(args[0])
		if err != nil {
			return nil, err
		}
		window, err := intValue(args[1])
		if err != nil {
			return nil, err
		}
		return &pipeline.Bin{Src: frag, DimKind: dimKind, WindowSize: window}, nil

	case "smooth":
		if err := arity(2); err != nil {
			return nil, err
		}
		dimKind, err := dimKindValue(args[0])
		if err != nil {
			return nil, err
		}
		window, err := intValue(args[1])
		if err != nil {
			return nil, err
		}
		return &pipeline.Smooth{Src: frag, DimKind: dimKind, WindowSize: window}, nil

	case "collocate_left":
		return bindCollocate(fn, args, frag, ctx, false)

	case "collocate_right":
		return bindCollocate(fn, args, frag, ctx, true)

	default:
		return nil, harperr.NewAt(harperr.OperationSyntax, fn.Pos(), "unknown operation %q", fn.Name)
	}
}

func nameList(args []oplang.Node) ([]string, error) {
	names := make([]string, len(args))
	for i, a := range args {
		n, err := nameValue(a)
		if err != nil {
			return nil, err
		}
		names[i] = n
	}
	return names, nil
}

func bindAreaMaskFilter(fn *oplang.FunctionCall, args []oplang.Node, frag string, ctx *Context, test pipeline.AreaMaskTest, withFraction bool) (pipeline.Operation, error) {
	latVar, err := nameValue(args[0])
	if err != nil {
		return nil, err
	}
	lonVar, err := nameValue(args[1])
	if err != nil {
		return nil, err
	}
	dimKind, err := dimKindValue(args[2])
	if err != nil {
		return nil, err
	}
	maskName, err := stringValue(args[3])
	if err != nil {
		return nil, err
	}
	mask, err := ctx.areaMask(maskName)
	if err != nil {
		return nil, err
	}
	filter := &pipeline.AreaMaskFilter{Src: frag, LatVar: latVar, LonVar: lonVar, DimKind: dimKind, Mask: mask, Test: test}
	if withFraction {
		frac, err := numberValue(args[4])
		if err != nil {
			return nil, err
		}
		if frac < 0 || frac > 1 {
			return nil, harperr.NewAt(harperr.InvalidArgument, args[4].Pos(), "%s: fraction must be in [0,1], got %v", fn.Name, frac)
		}
		filter.MinFraction = frac
	}
	return filter, nil
}

func bindCollocate(fn *oplang.FunctionCall, args []oplang.Node, frag string, ctx *Context, right bool) (pipeline.Operation, error) {
	if len(args) != 7 {
		return nil, harperr.NewAt(harperr.OperationSyntax, fn.Pos(), "%s: expected 7 arguments, got %d", fn.Name, len(args))
	}
	refName, err := stringValue(args[0])
	if err != nil {
		return nil, err
	}
	ref, ok := ctx.References[refName]
	if !ok {
		return nil, harperr.NewAt(harperr.VariableNotFound, args[0].Pos(), "%s: no reference product registered as %q", fn.Name, refName)
	}
	latVar, err := nameValue(args[1])
	if err != nil {
		return nil, err
	}
	lonVar, err := nameValue(args[2])
	if err != nil {
		return nil, err
	}
	refLatVar, err := nameValue(args[3])
	if err != nil {
		return nil, err
	}
	refLonVar, err := nameValue(args[4])
	if err != nil {
		return nil, err
	}
	dimKind, err := dimKindValue(args[5])
	if err != nil {
		return nil, err
	}
	maxDistance, err := angleRadians(args[6], ctx)
	if err != nil {
		return nil, err
	}
	if right {
		return &pipeline.CollocateRight{Src: frag, LatVar: latVar, LonVar: lonVar, Reference: ref, RefLatVar: refLatVar, RefLonVar: refLonVar, DimKind: dimKind, MaxDistance: maxDistance}, nil
	}
	return &pipeline.CollocateLeft{Src: frag, LatVar: latVar, LonVar: lonVar, Reference: ref, RefLatVar: refLatVar, RefLonVar: refLonVar, DimKind: dimKind, MaxDistance: maxDistance}, nil
}

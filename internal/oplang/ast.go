package oplang

// Node is the common interface of every AST node kind. Every node
// carries its source position so that semantic errors raised by the
// binder point at the offending token. This is a true Go sum type: one
// struct per node kind, not a single heterogeneous struct with unused
// fields.
type Node interface {
	Pos() int
	node()
}

type base struct {
	Position int
}

func (b base) Pos() int { return b.Position }
func (base) node()      {}

// Name is a bare identifier: a variable reference with no dimension
// qualifier.
type Name struct {
	base
	Value string
}

// QualifiedName is a variable reference qualified with a dimension-kind
// list: `name{dim_kind, ...}`.
type QualifiedName struct {
	base
	Value string
	Dims  *DimensionList
}

// Unit is a bracketed unit literal: `[unit]`.
type Unit struct {
	base
	Value string
}

// String is a quoted string literal.
type String struct {
	base
	Value string
}

// Number is a bare numeric literal.
type Number struct {
	base
	Value string
}

// Quantity is a number paired with a unit: `number[unit]`.
type Quantity struct {
	base
	Number *Number
	Unit   *Unit
}

// List is a literal list: `{ literal, literal, ... }`.
type List struct {
	base
	Items []Node
}

// Comparator is the closed set of binary comparison operators.
type Comparator int

const (
	CmpEq Comparator = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

// Compare is a comparison expression: `left op right`.
type Compare struct {
	base
	Op    Comparator
	Left  Node
	Right Node
}

// BitMaskAny is `variable_ref =& integer_literal`.
type BitMaskAny struct {
	base
	Left  Node
	Right Node
}

// BitMaskNone is `variable_ref =| integer_literal`.
type BitMaskNone struct {
	base
	Left  Node
	Right Node
}

// In is `variable_ref in { literal, ... }`.
type In struct {
	base
	Left Node
	List *List
}

// NotIn is `variable_ref ! in { literal, ... }`.
type NotIn struct {
	base
	Left Node
	List *List
}

// FunctionCall is `name ( arg, ... )`.
type FunctionCall struct {
	base
	Name string
	Args *ArgumentList
}

// ArgumentList is the parenthesized argument list of a FunctionCall.
type ArgumentList struct {
	base
	Args []Node
}

// DimensionList is the brace-qualifier list of a QualifiedName:
// `{ dim_kind, ... }`.
type DimensionList struct {
	base
	Kinds []string
}

// OperationList is the root node: `op (';' op)*`.
type OperationList struct {
	base
	Operations []Node
}

var (
	_ Node = (*Name)(nil)
	_ Node = (*QualifiedName)(nil)
	_ Node = (*Unit)(nil)
	_ Node = (*String)(nil)
	_ Node = (*Number)(nil)
	_ Node = (*Quantity)(nil)
	_ Node = (*List)(nil)
	_ Node = (*Compare)(nil)
	_ Node = (*BitMaskAny)(nil)
	_ Node = (*BitMaskNone)(nil)
	_ Node = (*In)(nil)
	_ Node = (*NotIn)(nil)
	_ Node = (*FunctionCall)(nil)
	_ Node = (*ArgumentList)(nil)
	_ Node = (*DimensionList)(nil)
	_ Node = (*OperationList)(nil)
)

package oplang

import (
	"github.com/harpgo/harp/internal/harperr"
)

// Parser is a recursive-descent parser over a Lexer's token stream,
// producing the AST node kinds.
type Parser struct {
	lex *Lexer
}

// NewParser returns a parser for src.
func NewParser(src string) *Parser {
	return &Parser{lex: NewLexer(src)}
}

// Parse parses the whole operation string as an OperationList: zero or
// more operations separated by ';'.
func (p *Parser) Parse() (*OperationList, error) {
	start := p.lex.Peek().Position
	var ops []Node
	if !p.lex.AtEnd() {
		op, err := p.parseOperation()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		for p.lex.Peek().Kind == KindSemicolon {
			p.lex.Next()
			if p.lex.AtEnd() {
				break
			}
			op, err := p.parseOperation()
			if err != nil {
				return nil, err
			}
			ops = append(ops, op)
		}
	}
	if !p.lex.AtEnd() {
		tok := p.lex.Peek()
		return nil, syntaxErr(tok, "unexpected trailing input")
	}
	return &OperationList{base: base{start}, Operations: ops}, nil
}

// parseOperation parses one `op` 's grammar:
//
//	op := function_name '(' arg (',' arg)* ')'
//	    | variable_ref comparator literal
//	    | variable_ref ('in'|'!' 'in') '{' literal (',' literal)* '}'
//	    | variable_ref ('=&'|'=|') integer_literal
func (p *Parser) parseOperation() (Node, error) {
	tok := p.lex.Peek()
	if tok.Kind == KindName && p.lex.Peek2().Kind == KindLParen {
		return p.parseFunctionCall()
	}

	left, err := p.parseVariableRef()
	if err != nil {
		return nil, err
	}

	op := p.lex.Peek()
	switch op.Kind {
	case KindEq, KindNe, KindLt, KindLe, KindGt, KindGe:
		p.lex.Next()
		right, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return &Compare{base: base{op.Position}, Op: comparatorFor(op.Kind), Left: left, Right: right}, nil
	case KindBitMaskAny:
		p.lex.Next()
		right, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return &BitMaskAny{base: base{op.Position}, Left: left, Right: right}, nil
	case KindBitMaskNone:
		p.lex.Next()
		right, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return &BitMaskNone{base: base{op.Position}, Left: left, Right: right}, nil
	case KindIn:
		p.lex.Next()
		list, err := p.parseLiteralList()
		if err != nil {
			return nil, err
		}
		return &In{base: base{op.Position}, Left: left, List: list}, nil
	case KindNot:
		p.lex.Next()
		inTok := p.lex.Peek()
		if inTok.Kind != KindIn {
			return nil, syntaxErr(inTok, "expected 'in' after '!'")
		}
		p.lex.Next()
		list, err := p.parseLiteralList()
		if err != nil {
			return nil, err
		}
		return &NotIn{base: base{op.Position}, Left: left, List: list}, nil
	default:
		return nil, syntaxErr(op, "expected a comparator, '=&', '=|', 'in', or '!in'")
	}
}

func comparatorFor(k Kind) Comparator {
	switch k {
	case KindEq:
		return CmpEq
	case KindNe:
		return CmpNe
	case KindLt:
		return CmpLt
	case KindLe:
		return CmpLe
	case KindGt:
		return CmpGt
	case KindGe:
		return CmpGe
	default:
		return CmpEq
	}
}

// parseVariableRef parses `name` or `name '{' dim_kind (',' dim_kind)* '}'`.
func (p *Parser) parseVariableRef() (Node, error) {
	tok := p.lex.Peek()
	if tok.Kind != KindName {
		return nil, syntaxErr(tok, "expected a variable name")
	}
	p.lex.Next()
	if p.lex.Peek().Kind != KindLBrace {
		return &Name{base: base{tok.Position}, Value: tok.Text}, nil
	}
	dims, err := p.parseDimensionList()
	if err != nil {
		return nil, err
	}
	return &QualifiedName{base: base{tok.Position}, Value: tok.Text, Dims: dims}, nil
}

func (p *Parser) parseDimensionList() (*DimensionList, error) {
	open := p.lex.Next() // '{'
	var kinds []string
	for {
		tok := p.lex.Peek()
		if tok.Kind != KindName {
			return nil, syntaxErr(tok, "expected a dimension kind")
		}
		p.lex.Next()
		kinds = append(kinds, tok.Text)
		if p.lex.Peek().Kind == KindComma {
			p.lex.Next()
			continue
		}
		break
	}
	closeTok := p.lex.Peek()
	if closeTok.Kind != KindRBrace {
		return nil, syntaxErr(closeTok, "expected '}'")
	}
	p.lex.Next()
	return &DimensionList{base: base{open.Position}, Kinds: kinds}, nil
}

// parseLiteral parses `number ('[' unit ']')? | string`.
func (p *Parser) parseLiteral() (Node, error) {
	tok := p.lex.Peek()
	switch tok.Kind {
	case KindString:
		p.lex.Next()
		return &String{base: base{tok.Position}, Value: tok.Text}, nil
	case KindNumber:
		p.lex.Next()
		num := &Number{base: base{tok.Position}, Value: tok.Text}
		if p.lex.Peek().Kind == KindUnit {
			u := p.lex.Next()
			return &Quantity{base: base{tok.Position}, Number: num, Unit: &Unit{base: base{u.Position}, Value: u.Text}}, nil
		}
		return num, nil
	default:
		return nil, syntaxErr(tok, "expected a number or string literal")
	}
}

func (p *Parser) parseLiteralList() (*List, error) {
	open := p.lex.Peek()
	if open.Kind != KindLBrace {
		return nil, syntaxErr(open, "expected '{'")
	}
	p.lex.Next()
	var items []Node
	for {
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		items = append(items, lit)
		if p.lex.Peek().Kind == KindComma {
			p.lex.Next()
			continue
		}
		break
	}
	closeTok := p.lex.Peek()
	if closeTok.Kind != KindRBrace {
		return nil, syntaxErr(closeTok, "expected '}'")
	}
	p.lex.Next()
	return &List{base: base{open.Position}, Items: items}, nil
}

// parseFunctionCall parses `name '(' arg (',' arg)* ')'`. An argument
// may be any literal, a variable reference, or a nested literal list
// (the built-in function table in internal/oplang/bind enforces each
// function's actual arity and parameter kinds; the grammar itself
// accepts any of these as a generic "arg").
func (p *Parser) parseFunctionCall() (*FunctionCall, error) {
	nameTok := p.lex.Next()
	openTok := p.lex.Next() // '('
	var args []Node
	if p.lex.Peek().Kind != KindRParen {
		for {
			arg, err := p.parseArgument()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.lex.Peek().Kind == KindComma {
				p.lex.Next()
				continue
			}
			break
		}
	}
	closeTok := p.lex.Peek()
	if closeTok.Kind != KindRParen {
		return nil, syntaxErr(closeTok, "expected ')'")
	}
	p.lex.Next()
	return &FunctionCall{
		base: base{nameTok.Position},
		Name: nameTok.Text,
		Args: &ArgumentList{base: base{openTok.Position}, Args: args},
	}, nil
}

func (p *Parser) parseArgument() (Node, error) {
	tok := p.lex.Peek()
	switch tok.Kind {
	case KindString, KindNumber:
		return p.parseLiteral()
	case KindLBrace:
		return p.parseLiteralList()
	case KindName:
		return p.parseVariableRef()
	default:
		return nil, syntaxErr(tok, "expected an argument")
	}
}

func syntaxErr(tok Token, msg string) error {
	return harperr.NewAt(harperr.OperationSyntax, tok.Position, "%s, got %s", msg, tok.Kind)
}

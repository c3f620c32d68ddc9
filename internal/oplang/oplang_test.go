package oplang

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLexerTwoTokenLookahead(t *testing.T) {
	l := NewLexer("sza < 35")
	require.Equal(t, KindName, l.Peek().Kind)
	require.Equal(t, KindLt, l.Peek2().Kind)
	first := l.Next()
	require.Equal(t, "sza", first.Text)
	require.Equal(t, KindLt, l.Next().Kind)
	num := l.Next()
	require.Equal(t, KindNumber, num.Kind)
	require.Equal(t, "35", num.Text)
	require.True(t, l.AtEnd())
}

func TestLexerQuantityAndString(t *testing.T) {
	l := NewLexer(`p > 100000[Pa]; name == "foo"`)
	require.Equal(t, KindName, l.Next().Kind)
	require.Equal(t, KindGt, l.Next().Kind)
	require.Equal(t, KindNumber, l.Next().Kind)
	unit := l.Next()
	require.Equal(t, KindUnit, unit.Kind)
	require.Equal(t, "Pa", unit.Text)
	require.Equal(t, KindSemicolon, l.Next().Kind)
	require.Equal(t, KindName, l.Next().Kind)
	require.Equal(t, KindEq, l.Next().Kind)
	str := l.Next()
	require.Equal(t, KindString, str.Kind)
	require.Equal(t, "foo", str.Text)
}

func TestLexerBitMaskAndIn(t *testing.T) {
	l := NewLexer(`flags =& 4; flags =| 2; x in {1,2}; y ! in {3}`)
	require.Equal(t, KindName, l.Next().Kind)
	require.Equal(t, KindBitMaskAny, l.Next().Kind)
	require.Equal(t, KindNumber, l.Next().Kind)
	require.Equal(t, KindSemicolon, l.Next().Kind)
	require.Equal(t, KindName, l.Next().Kind)
	require.Equal(t, KindBitMaskNone, l.Next().Kind)
}

func TestLexerUnknownTokenAtFailure(t *testing.T) {
	l := NewLexer("sza @ 35")
	l.Next() // sza
	tok := l.Next()
	require.Equal(t, KindUnknown, tok.Kind)
}

func TestParseScalarComparison(t *testing.T) {
	p := NewParser("sza < 35[degree]")
	ast, err := p.Parse()
	require.NoError(t, err)
	require.Len(t, ast.Operations, 1)

	cmp, ok := ast.Operations[0].(*Compare)
	require.True(t, ok)
	require.Equal(t, CmpLt, cmp.Op)

	name, ok := cmp.Left.(*Name)
	require.True(t, ok)
	require.Equal(t, "sza", name.Value)

	qty, ok := cmp.Right.(*Quantity)
	require.True(t, ok)
	require.Equal(t, "35", qty.Number.Value)
	require.Equal(t, "degree", qty.Unit.Value)
}

func TestParseFunctionCall(t *testing.T) {
	p := NewParser(`keep(sza, lat{time})`)
	ast, err := p.Parse()
	require.NoError(t, err)
	call, ok := ast.Operations[0].(*FunctionCall)
	require.True(t, ok)
	require.Equal(t, "keep", call.Name)
	require.Len(t, call.Args.Args, 2)

	qn, ok := call.Args.Args[1].(*QualifiedName)
	require.True(t, ok)
	require.Equal(t, []string{"time"}, qn.Dims.Kinds)
}

func TestParseMultipleOperations(t *testing.T) {
	p := NewParser(`sza < 35[degree]; keep(sza)`)
	ast, err := p.Parse()
	require.NoError(t, err)
	require.Len(t, ast.Operations, 2)
}

func TestParseInAndNotIn(t *testing.T) {
	p := NewParser(`quality in {1,2,3}`)
	ast, err := p.Parse()
	require.NoError(t, err)
	in, ok := ast.Operations[0].(*In)
	require.True(t, ok)
	require.Len(t, in.List.Items, 3)

	p2 := NewParser(`quality ! in {1,2,3}`)
	ast2, err := p2.Parse()
	require.NoError(t, err)
	_, ok = ast2.Operations[0].(*NotIn)
	require.True(t, ok)
}

func TestParseDanglingOperatorIsSyntaxError(t *testing.T) {
	p := NewParser("sza <")
	_, err := p.Parse()
	require.Error(t, err)
}

func TestParseUnknownTokenIsSyntaxError(t *testing.T) {
	p := NewParser("sza @ 35")
	_, err := p.Parse()
	require.Error(t, err)
}

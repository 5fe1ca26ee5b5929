package cylex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func scan(src string) []Token {
	l := New(src)
	var toks []Token
	for {
		tok := l.Current()
		toks = append(toks, tok)
		if tok.Kind == EOF || tok.Kind == Error {
			return toks
		}
		l.Next(tok.Len)
	}
}

func TestKeywordsAreCaseInsensitive(t *testing.T) {
	toks := scan("MaTcH")
	assert.Equal(t, KwMatch, toks[0].Kind)
}

func TestIdentVsKeyword(t *testing.T) {
	toks := scan("matching")
	assert.Equal(t, Ident, toks[0].Kind)
	assert.Equal(t, "matching", toks[0].Ident)
}

func TestNegativeNumberLexesAsInteger(t *testing.T) {
	toks := scan("-42")
	assert.Equal(t, Integer, toks[0].Kind)
	assert.Equal(t, int64(-42), toks[0].Int)
}

func TestDashAloneIsNotNumber(t *testing.T) {
	toks := scan("-x")
	assert.Equal(t, Dash, toks[0].Kind)
}

func TestRangeDotsStopNumberLexing(t *testing.T) {
	toks := scan("4..5")
	assert.Equal(t, Integer, toks[0].Kind)
	assert.Equal(t, int64(4), toks[0].Int)

	l := New("4..5")
	first := l.Current()
	l.Next(first.Len)
	second := l.Current()
	assert.Equal(t, DotDot, second.Kind)
}

func TestFloatLexing(t *testing.T) {
	toks := scan("3.14")
	assert.Equal(t, Float, toks[0].Kind)
	assert.InDelta(t, 3.14, toks[0].Float, 0.0001)
}

func TestBacktickIdentifier(t *testing.T) {
	toks := scan("`weird name`")
	assert.Equal(t, Ident, toks[0].Kind)
	assert.Equal(t, "weird name", toks[0].Ident)
}

func TestParameterToken(t *testing.T) {
	toks := scan("$limit")
	assert.Equal(t, Parameter, toks[0].Kind)
	assert.Equal(t, "limit", toks[0].Param)
}

func TestUnterminatedStringIsError(t *testing.T) {
	toks := scan("'abc")
	assert.Equal(t, Error, toks[0].Kind)
}

func TestWhitespaceBetweenTokensIsConsumedOnce(t *testing.T) {
	toks := scan("MATCH (n)")
	var kinds []Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []Kind{KwMatch, LParen, Ident, RParen, EOF}, kinds)
}

func TestFormatErrorPointsAtColumn(t *testing.T) {
	l := New("MATCH (n) RETURN x")
	l.Next(19)
	msg := l.FormatError("bad token")
	assert.Contains(t, msg, "MATCH (n) RETURN x")
	assert.Contains(t, msg, "^bad token")
}

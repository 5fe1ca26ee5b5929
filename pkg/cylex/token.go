// Package cylex tokenizes Cypher-like query text into a flat stream of
// Token values. It knows nothing about grammar; pkg/cyparse drives the
// cursor forward one token at a time.
package cylex

import "fmt"

// Kind identifies the lexical class of a Token.
type Kind int

const (
	EOF Kind = iota
	Error

	Ident
	Parameter
	Null
	Bool
	Integer
	Float
	String

	// brackets: ( ) [ ] { }
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace

	// keywords
	KwCall
	KwMatch
	KwUnwind
	KwCreate
	KwMerge
	KwDelete
	KwDetach
	KwSet
	KwRemove
	KwWhere
	KwWith
	KwReturn
	KwOrderBy
	KwSkip
	KwLimit
	KwDistinct
	KwAs
	KwOr
	KwXor
	KwAnd
	KwNot
	KwIs
	KwIn

	// operators / punctuation
	Star
	Plus
	Dash
	Slash
	Percent
	Caret
	Equal
	NotEqual
	LessThan
	GreaterThan
	LessEqual
	GreaterEqual
	Comma
	Colon
	Dot
	DotDot
	Pipe
	Arrow // "->" is represented structurally by Dash + GreaterThan; kept for completeness
)

// Token is a single lexeme with its decoded literal value, where relevant.
type Token struct {
	Kind   Kind
	Ident  string
	Param  string
	Bool   bool
	Int    int64
	Float  float64
	String string
	ErrMsg string
	Len    int // byte length consumed from the source to produce this token
}

func (t Token) String() string {
	switch t.Kind {
	case Ident:
		return fmt.Sprintf("Ident(%s)", t.Ident)
	case Parameter:
		return fmt.Sprintf("Parameter(%s)", t.Param)
	case Integer:
		return fmt.Sprintf("Integer(%d)", t.Int)
	case Float:
		return fmt.Sprintf("Float(%g)", t.Float)
	case String:
		return fmt.Sprintf("String(%q)", t.String)
	case Error:
		return fmt.Sprintf("Error(%s)", t.ErrMsg)
	default:
		return kindNames[t.Kind]
	}
}

var kindNames = map[Kind]string{
	EOF: "EOF", LParen: "(", RParen: ")", LBracket: "[", RBracket: "]",
	LBrace: "{", RBrace: "}", KwCall: "CALL", KwMatch: "MATCH", KwUnwind: "UNWIND",
	KwCreate: "CREATE", KwMerge: "MERGE", KwDelete: "DELETE", KwDetach: "DETACH",
	KwSet: "SET", KwRemove: "REMOVE", KwWhere: "WHERE", KwWith: "WITH",
	KwReturn: "RETURN", KwOrderBy: "ORDER BY", KwSkip: "SKIP", KwLimit: "LIMIT",
	KwDistinct: "DISTINCT", KwAs: "AS", KwOr: "OR", KwXor: "XOR", KwAnd: "AND",
	KwNot: "NOT", KwIs: "IS", KwIn: "IN", Star: "*", Plus: "+", Dash: "-",
	Slash: "/", Percent: "%", Caret: "^", Equal: "=", NotEqual: "<>",
	LessThan: "<", GreaterThan: ">", LessEqual: "<=", GreaterEqual: ">=",
	Comma: ",", Colon: ":", Dot: ".", DotDot: "..", Null: "null", Bool: "bool",
	Pipe: "|",
}

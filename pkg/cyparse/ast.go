// Package cyparse turns query text into a validated clause tree: a
// recursive-descent parser (parser.go) builds the tree using
// cylex's token stream, then Validate (validate.go) walks it to resolve
// variable scoping and reject ill-formed queries before planning ever sees
// them.
package cyparse

import "fmt"

// VarId identifies a query variable. Two VarIds refer to the same binding
// iff their ID is equal; Name is carried only for diagnostics and display.
type VarId struct {
	Name string
	ID   uint32
}

func (v VarId) String() string {
	if v.Name == "" {
		return "?"
	}
	return v.Name
}

// ExprKind enumerates the shapes an Expr node can take. Operators that take
// a variable number of operands (And, Or, Add, Mul, ...) carry all of them
// as Children rather than nesting binary pairs, matching how the grammar
// folds repeated infix operators of the same precedence.
type ExprKind int

const (
	ExprNull ExprKind = iota
	ExprBool
	ExprInteger
	ExprFloat
	ExprString
	ExprList
	ExprMap
	ExprVar
	ExprParameter
	ExprProperty // Children[0] = target, Key = property name
	ExprLength
	ExprGetElement  // Children = [target, index]
	ExprGetElements // Children = [target, start?, end?] with HasStart/HasEnd flags
	ExprIsNode
	ExprIsRelationship
	ExprIsNull
	ExprOr
	ExprXor
	ExprAnd
	ExprNot
	ExprNegate
	ExprEq
	ExprNeq
	ExprLt
	ExprGt
	ExprLe
	ExprGe
	ExprIn
	ExprAdd
	ExprSub
	ExprMul
	ExprDiv
	ExprPow
	ExprModulo
	ExprDistinct // Children[0] is the aggregate call DISTINCT applies to; Var is not set
	ExprFuncInvocation
	ExprQuantifier // Children = [list, predicate]; Var binds the predicate's loop variable
	ExprListComprehension // Children = [list, predicate?, projection?]; Var binds the loop variable
	ExprNamed      // Children[0] = inner expr, Var.Name is the "AS" alias
	ExprStar       // the bare "*" argument to count(*)
)

// QuantifierType distinguishes ALL/ANY/NONE/SINGLE list predicates.
type QuantifierType int

const (
	QuantifierAll QuantifierType = iota
	QuantifierAny
	QuantifierNone
	QuantifierSingle
)

func (q QuantifierType) String() string {
	switch q {
	case QuantifierAll:
		return "all"
	case QuantifierAny:
		return "any"
	case QuantifierNone:
		return "none"
	default:
		return "single"
	}
}

// Expr is a single node of an expression tree.
type Expr struct {
	Kind ExprKind

	Bool   bool
	Int    int64
	Float  float64
	Str    string
	Var    VarId
	Param  string
	Key    string // property name for ExprProperty
	Func   string // function/procedure name for ExprFuncInvocation
	Quant  QuantifierType
	MapKeys []string // parallel to Children for ExprMap: Children[i] has key MapKeys[i]

	HasStart, HasEnd bool // for ExprGetElements: which of Children[1], Children[2] are present

	Children []*Expr
}

func (e *Expr) String() string {
	switch e.Kind {
	case ExprNull:
		return "null"
	case ExprBool:
		return fmt.Sprintf("%v", e.Bool)
	case ExprInteger:
		return fmt.Sprintf("%d", e.Int)
	case ExprFloat:
		return fmt.Sprintf("%g", e.Float)
	case ExprString:
		return e.Str
	case ExprVar:
		return e.Var.String()
	case ExprParameter:
		return "$" + e.Param
	case ExprFuncInvocation:
		return e.Func + "()"
	default:
		return fmt.Sprintf("expr(%d)", e.Kind)
	}
}

// NodePattern is one node slot of a MATCH/CREATE/MERGE pattern, e.g. (n:Person {name: $x}).
type NodePattern struct {
	Alias VarId
	Labels []string
	Attrs  map[string]*Expr
}

// RelationshipPattern is one edge slot of a pattern, e.g. -[r:KNOWS]->.
// From/To are always oriented left-to-right as written in the query text;
// Outgoing records whether the arrowhead points from From to To.
type RelationshipPattern struct {
	Alias    VarId
	Types    []string
	Attrs    map[string]*Expr
	From, To VarId
	Outgoing bool
}

// PathPattern names an entire matched chain, e.g. p = (a)-[r]->(b).
type PathPattern struct {
	Var  VarId
	Vars []VarId
}

// Pattern is the parsed contents of a single MATCH/CREATE/MERGE clause,
// possibly covering several comma-separated chains.
type Pattern struct {
	Nodes         []*NodePattern
	Relationships []*RelationshipPattern
	Paths         []*PathPattern
}

// OrderItem is one ORDER BY term.
type OrderItem struct {
	Expr       *Expr
	Descending bool
}

// Projection is a single clause's post-processing (ORDER BY / SKIP / LIMIT),
// shared by WITH and RETURN.
type Projection struct {
	Exprs   []*Expr // each is ExprVar or ExprNamed
	OrderBy []OrderItem
	Skip    *Expr
	Limit   *Expr
	Write   bool // not set by Parse; always false
}

// ClauseKind enumerates the statement-level clauses a query is built from.
type ClauseKind int

const (
	ClauseCall ClauseKind = iota
	ClauseMatch
	ClauseOptionalMatch
	ClauseUnwind
	ClauseMerge
	ClauseWhere
	ClauseCreate
	ClauseDelete
	ClauseDetachDelete
	ClauseSet
	ClauseRemove
	ClauseWith
	ClauseReturn
)

// SetItem is one "target = value" (or "target += value" for map merges)
// assignment inside a SET clause.
type SetItem struct {
	Target *Expr
	Value  *Expr
	Merge  bool
}

// Clause is one statement-level element of a query. Exactly the fields
// relevant to Kind are populated; the rest are zero.
type Clause struct {
	Kind ClauseKind

	Pattern Pattern // Match, Merge, Create

	UnwindList *Expr
	UnwindVar  VarId

	Where *Expr

	DeleteExprs []*Expr

	SetItems []SetItem

	RemoveExprs []*Expr

	Projection Projection // With, Return

	CallName string
	CallArgs []*Expr
}

// Query is a full parsed statement: an ordered list of clauses plus the
// CYPHER-prefix parameter bindings collected ahead of it.
type Query struct {
	Params  map[string]*Expr
	Clauses []*Clause
}

// Package cyplan compiles a validated cyparse.Query into a single execution
// IR tree: one unified node type carries both expression evaluation and
// control flow, mirroring original_source/graph/src/planner.rs's IR enum
// rather than splitting planning from expression evaluation into two
// separate trees. Once built, a tree is never mutated — cyruntime only
// reads it.
package cyplan

import (
	"fmt"

	"github.com/lucidgraph/lucid/pkg/cyparse"
)

// Kind enumerates the shapes an IR Node can take.
type Kind int

const (
	KNull Kind = iota
	KBool
	KInt
	KFloat
	KString
	KVar           // VarID names the binding to read
	KParameter     // Param is the bound-parameter name
	KList          // Children are the elements
	KMap           // Children[i] has key MapKeys[i]
	KLength        // Children[0]
	KGetElement    // Children = [target, index]
	KGetElements   // Children = [target, start?, end?]; HasStart/HasEnd mark which are real
	KRange         // Children = [from, to, step]
	KIsNull        // Children[0]
	KIsNode        // Children[0]
	KIsRelationship // Children[0]
	KNegate        // Children[0]
	KNot           // Children[0]
	KAnd           // Children (n-ary)
	KOr            // Children (n-ary)
	KXor           // Children (n-ary)
	KEq            // Children = [a, b]
	KNeq
	KLt
	KGt
	KLe
	KGe
	KIn    // Children = [needle, haystack]
	KAdd   // Children (n-ary, left fold)
	KSub
	KMul
	KDiv
	KPow
	KModulo
	KDistinct      // Children[0] is the aggregate call it applies to
	KFuncInvocation // Func names the registry entry; Children are args
	KQuantifier    // Children = [list, predicate]; VarID binds predicate's loop var; QuantType selects ALL/ANY/NONE/SINGLE
	KListComprehension // Children = [list, predicate?, projection?]; VarID binds the loop var
	KSet           // assign Children[0]'s value to VarID
	KIf            // Children = [cond, then, else?]
	KFor           // Children = [init, cond, step, body]; any may be nil
	KReturn        // Children[:len(Aliases)] are the projected values for one result row
	KReturnAggregation // same shape as KReturn, but routed through the aggregation context table
	KWithProject   // Children[:len(Aliases)] = projected values, Children[len(Aliases)] = successor
	KWithAggregation // same shape as KWithProject, grouped before the successor runs once per group
	KBlock         // Children run in sequence
	KStar          // the bare "*" argument to count(*); never evaluated as a value
)

// Node is one element of a compiled execution IR tree.
type Node struct {
	Kind Kind

	BoolV  bool
	IntV   int64
	FloatV float64
	StrV   string

	VarID     cyparse.VarId
	Param     string
	Func      string
	QuantType cyparse.QuantifierType

	MapKeys          []string
	HasStart, HasEnd bool
	Aliases          []cyparse.VarId // output column bindings for Return*/With* kinds
	Descending       []bool          // ORDER BY direction, parallel to a WithProject/Return's ORDER BY exprs
	OrderBy          []*Node
	Skip, Limit      *Node

	Children []*Node
}

func lit(k Kind) *Node { return &Node{Kind: k} }

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.Kind {
	case KNull:
		return "null"
	case KBool:
		return fmt.Sprintf("%v", n.BoolV)
	case KInt:
		return fmt.Sprintf("%d", n.IntV)
	case KFloat:
		return fmt.Sprintf("%g", n.FloatV)
	case KString:
		return n.StrV
	case KVar:
		return n.VarID.String()
	case KParameter:
		return "$" + n.Param
	case KFuncInvocation:
		return n.Func + "(...)"
	default:
		return fmt.Sprintf("ir(%d)", n.Kind)
	}
}

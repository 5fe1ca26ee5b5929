// Package cyvalue defines the runtime value representation shared by the
// parser, planner, and runtime: a small closed sum type with three-valued
// (Null-aware) comparison, ordering, and arithmetic.
package cyvalue

import (
	"fmt"
	"sort"
	"strings"
)

// Kind tags the variant carried by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	KindNode
	KindRelationship
	KindPath
	KindVecF32
)

// Value is the tagged union every expression evaluates to and every result
// row is built from. Only one of the typed fields is meaningful for a given
// Kind; the zero Value is Null.
type Value struct {
	Kind Kind

	Bool   bool
	Int    int64
	Float  float64
	String string
	List   []Value
	Map    map[string]Value

	// Node carries a NodeId.
	Node uint64

	// Relationship carries (id, src, dst).
	RelID  uint64
	RelSrc uint64
	RelDst uint64

	Path []Value

	VecF32 []float32
}

// Null is the canonical "unknown" value.
var Null = Value{Kind: KindNull}

func Bool(b bool) Value    { return Value{Kind: KindBool, Bool: b} }
func Int(i int64) Value    { return Value{Kind: KindInt, Int: i} }
func Float(f float64) Value { return Value{Kind: KindFloat, Float: f} }
func Str(s string) Value   { return Value{Kind: KindString, String: s} }
func List(items []Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{Kind: KindList, List: items}
}
func Map(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{Kind: KindMap, Map: m}
}
func Node(id uint64) Value { return Value{Kind: KindNode, Node: id} }
func Relationship(id, src, dst uint64) Value {
	return Value{Kind: KindRelationship, RelID: id, RelSrc: src, RelDst: dst}
}
func Path(items []Value) Value { return Value{Kind: KindPath, Path: items} }
func VecF32(v []float32) Value { return Value{Kind: KindVecF32, VecF32: v} }

// IsNull reports whether v is the Null value.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// IsTrue reports whether v is the boolean literal true (three-valued logic
// treats Null and any non-bool as "not true" for short-circuit purposes).
func (v Value) IsTrue() bool { return v.Kind == KindBool && v.Bool }

// IsFalse reports whether v is the boolean literal false.
func (v Value) IsFalse() bool { return v.Kind == KindBool && !v.Bool }

// Display renders a Value for error messages and plan dumps; it is not the
// wire-format encoder (see pkg/engine for that).
func (v Value) Display() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindString:
		return v.String
	case KindList:
		parts := make([]string, len(v.List))
		for i, e := range v.List {
			parts[i] = e.Display()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.Map))
		for k := range v.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + v.Map[k].Display()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindNode:
		return fmt.Sprintf("(node %d)", v.Node)
	case KindRelationship:
		return fmt.Sprintf("[rel %d]", v.RelID)
	case KindPath:
		parts := make([]string, len(v.Path))
		for i, e := range v.Path {
			parts[i] = e.Display()
		}
		return strings.Join(parts, "->")
	case KindVecF32:
		return fmt.Sprintf("vecf32(%d)", len(v.VecF32))
	default:
		return "?"
	}
}

// TypeName returns the Cypher-facing type name used in type-mismatch errors.
func (v Value) TypeName() string {
	switch v.Kind {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindList:
		return "List"
	case KindMap:
		return "Map"
	case KindNode:
		return "Node"
	case KindRelationship:
		return "Relationship"
	case KindPath:
		return "Path"
	case KindVecF32:
		return "VecF32"
	default:
		return "Unknown"
	}
}

// orderRank implements the total cross-type ordering from SPEC_FULL §4.5:
// Map < Node < Relationship < List < Path < String < Bool < Int < Float < Null < VecF32.
func orderRank(k Kind) int {
	switch k {
	case KindMap:
		return 0
	case KindNode:
		return 1
	case KindRelationship:
		return 2
	case KindList:
		return 3
	case KindPath:
		return 4
	case KindString:
		return 5
	case KindBool:
		return 6
	case KindInt:
		return 7
	case KindFloat:
		return 8
	case KindNull:
		return 9
	case KindVecF32:
		return 10
	default:
		return 11
	}
}

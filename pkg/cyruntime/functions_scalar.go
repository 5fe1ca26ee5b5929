package cyruntime

import (
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/lucidgraph/lucid/pkg/cyvalue"
)

func scalarToInteger(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	v := args[0]
	switch v.Kind {
	case cyvalue.KindNull:
		return cyvalue.Null, nil
	case cyvalue.KindInt:
		return v, nil
	case cyvalue.KindFloat:
		return cyvalue.Int(int64(v.Float)), nil
	case cyvalue.KindBool:
		if v.Bool {
			return cyvalue.Int(1), nil
		}
		return cyvalue.Int(0), nil
	case cyvalue.KindString:
		s := strings.TrimSpace(v.String)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return cyvalue.Int(i), nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return cyvalue.Int(int64(f)), nil
		}
		return cyvalue.Null, nil
	default:
		return cyvalue.Null, typeMismatch("Int, Float, Bool or String", v)
	}
}

func scalarToFloat(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	v := args[0]
	switch v.Kind {
	case cyvalue.KindNull:
		return cyvalue.Null, nil
	case cyvalue.KindFloat:
		return v, nil
	case cyvalue.KindInt:
		return cyvalue.Float(float64(v.Int)), nil
	case cyvalue.KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.String), 64)
		if err != nil {
			return cyvalue.Null, nil
		}
		return cyvalue.Float(f), nil
	default:
		return cyvalue.Null, typeMismatch("Int, Float or String", v)
	}
}

func scalarToString(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	v := args[0]
	if v.IsNull() {
		return cyvalue.Null, nil
	}
	return cyvalue.Str(v.Display()), nil
}

func scalarToBoolean(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	v := args[0]
	switch v.Kind {
	case cyvalue.KindNull:
		return cyvalue.Null, nil
	case cyvalue.KindBool:
		return v, nil
	case cyvalue.KindString:
		switch strings.ToLower(v.String) {
		case "true":
			return cyvalue.Bool(true), nil
		case "false":
			return cyvalue.Bool(false), nil
		default:
			return cyvalue.Null, nil
		}
	default:
		return cyvalue.Null, typeMismatch("Bool or String", v)
	}
}

func scalarLabels(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	v := args[0]
	if v.IsNull() {
		return cyvalue.Null, nil
	}
	if v.Kind != cyvalue.KindNode {
		return cyvalue.Null, typeMismatch("Node", v)
	}
	ids := rt.Pending.NodeLabelIDs(v.Node, rt.Graph.LabelCount())
	out := make([]cyvalue.Value, len(ids))
	for i, id := range ids {
		out[i] = cyvalue.Str(rt.Graph.LabelName(id))
	}
	return cyvalue.List(out), nil
}

func scalarType(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	v := args[0]
	if v.IsNull() {
		return cyvalue.Null, nil
	}
	if v.Kind != cyvalue.KindRelationship {
		return cyvalue.Null, typeMismatch("Relationship", v)
	}
	typeID, _, _, ok := rt.Pending.RelEndpoints(v.RelID)
	if !ok {
		return cyvalue.Null, nil
	}
	return cyvalue.Str(rt.Graph.TypeName(typeID)), nil
}

func scalarStartNode(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	v := args[0]
	if v.IsNull() {
		return cyvalue.Null, nil
	}
	if v.Kind != cyvalue.KindRelationship {
		return cyvalue.Null, typeMismatch("Relationship", v)
	}
	return cyvalue.Node(v.RelSrc), nil
}

func scalarEndNode(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	v := args[0]
	if v.IsNull() {
		return cyvalue.Null, nil
	}
	if v.Kind != cyvalue.KindRelationship {
		return cyvalue.Null, typeMismatch("Relationship", v)
	}
	return cyvalue.Node(v.RelDst), nil
}

func scalarSize(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	v := args[0]
	switch v.Kind {
	case cyvalue.KindNull:
		return cyvalue.Null, nil
	case cyvalue.KindString:
		return cyvalue.Int(int64(len([]rune(v.String)))), nil
	case cyvalue.KindList:
		return cyvalue.Int(int64(len(v.List))), nil
	case cyvalue.KindPath:
		return cyvalue.Int(int64(len(v.Path))), nil
	default:
		return cyvalue.Null, typeMismatch("String or List", v)
	}
}

func scalarHead(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	v := args[0]
	if v.Kind != cyvalue.KindList {
		return cyvalue.Null, typeMismatch("List", v)
	}
	if len(v.List) == 0 {
		return cyvalue.Null, nil
	}
	return v.List[0], nil
}

func scalarLast(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	v := args[0]
	if v.Kind != cyvalue.KindList {
		return cyvalue.Null, typeMismatch("List", v)
	}
	if len(v.List) == 0 {
		return cyvalue.Null, nil
	}
	return v.List[len(v.List)-1], nil
}

func scalarTail(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	v := args[0]
	if v.Kind != cyvalue.KindList {
		return cyvalue.Null, typeMismatch("List", v)
	}
	if len(v.List) == 0 {
		return cyvalue.List(nil), nil
	}
	return cyvalue.List(append([]cyvalue.Value(nil), v.List[1:]...)), nil
}

func scalarReverse(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	v := args[0]
	switch v.Kind {
	case cyvalue.KindString:
		r := []rune(v.String)
		for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
			r[i], r[j] = r[j], r[i]
		}
		return cyvalue.Str(string(r)), nil
	case cyvalue.KindList:
		out := make([]cyvalue.Value, len(v.List))
		for i, e := range v.List {
			out[len(v.List)-1-i] = e
		}
		return cyvalue.List(out), nil
	default:
		return cyvalue.Null, typeMismatch("String or List", v)
	}
}

func scalarSubstring(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	s := args[0]
	if s.IsNull() {
		return cyvalue.Null, nil
	}
	if s.Kind != cyvalue.KindString {
		return cyvalue.Null, typeMismatch("String", s)
	}
	r := []rune(s.String)
	start := normalizeIndex(args[1].Int, len(r))
	if start > len(r) {
		start = len(r)
	}
	end := len(r)
	if len(args) == 3 {
		length := int(args[2].Int)
		end = start + length
		if end > len(r) {
			end = len(r)
		}
	}
	if end < start {
		end = start
	}
	return cyvalue.Str(string(r[start:end])), nil
}

func scalarSplit(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	s, sep := args[0], args[1]
	if s.IsNull() {
		return cyvalue.Null, nil
	}
	parts := strings.Split(s.String, sep.String)
	out := make([]cyvalue.Value, len(parts))
	for i, p := range parts {
		out[i] = cyvalue.Str(p)
	}
	return cyvalue.List(out), nil
}

func scalarToLower(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	if args[0].IsNull() {
		return cyvalue.Null, nil
	}
	return cyvalue.Str(strings.ToLower(args[0].String)), nil
}

func scalarToUpper(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	if args[0].IsNull() {
		return cyvalue.Null, nil
	}
	return cyvalue.Str(strings.ToUpper(args[0].String)), nil
}

func scalarReplace(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	s, old, new := args[0], args[1], args[2]
	if s.IsNull() {
		return cyvalue.Null, nil
	}
	return cyvalue.Str(strings.ReplaceAll(s.String, old.String, new.String)), nil
}

func scalarLeft(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	s := args[0]
	if s.IsNull() {
		return cyvalue.Null, nil
	}
	r := []rune(s.String)
	n := int(args[1].Int)
	if n > len(r) {
		n = len(r)
	}
	if n < 0 {
		n = 0
	}
	return cyvalue.Str(string(r[:n])), nil
}

func scalarRight(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	s := args[0]
	if s.IsNull() {
		return cyvalue.Null, nil
	}
	r := []rune(s.String)
	n := int(args[1].Int)
	if n > len(r) {
		n = len(r)
	}
	if n < 0 {
		n = 0
	}
	return cyvalue.Str(string(r[len(r)-n:])), nil
}

func scalarLtrim(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	if args[0].IsNull() {
		return cyvalue.Null, nil
	}
	return cyvalue.Str(strings.TrimLeft(args[0].String, " \t\n\r")), nil
}

func scalarRtrim(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	if args[0].IsNull() {
		return cyvalue.Null, nil
	}
	return cyvalue.Str(strings.TrimRight(args[0].String, " \t\n\r")), nil
}

func scalarTrim(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	if args[0].IsNull() {
		return cyvalue.Null, nil
	}
	return cyvalue.Str(strings.TrimSpace(args[0].String)), nil
}

func scalarNumeric1(f func(float64) float64) Handler {
	return func(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
		v := args[0]
		if v.IsNull() {
			return cyvalue.Null, nil
		}
		var x float64
		switch v.Kind {
		case cyvalue.KindInt:
			x = float64(v.Int)
		case cyvalue.KindFloat:
			x = v.Float
		default:
			return cyvalue.Null, typeMismatch("Int or Float", v)
		}
		return cyvalue.Float(f(x)), nil
	}
}

func scalarAbs(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	v := args[0]
	switch v.Kind {
	case cyvalue.KindNull:
		return cyvalue.Null, nil
	case cyvalue.KindInt:
		if v.Int < 0 {
			return cyvalue.Int(-v.Int), nil
		}
		return v, nil
	case cyvalue.KindFloat:
		return cyvalue.Float(math.Abs(v.Float)), nil
	default:
		return cyvalue.Null, typeMismatch("Int or Float", v)
	}
}

func scalarSign(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	v := args[0]
	var x float64
	switch v.Kind {
	case cyvalue.KindNull:
		return cyvalue.Null, nil
	case cyvalue.KindInt:
		x = float64(v.Int)
	case cyvalue.KindFloat:
		x = v.Float
	default:
		return cyvalue.Null, typeMismatch("Int or Float", v)
	}
	switch {
	case x > 0:
		return cyvalue.Int(1), nil
	case x < 0:
		return cyvalue.Int(-1), nil
	default:
		return cyvalue.Int(0), nil
	}
}

func scalarRound(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	v := args[0]
	var x float64
	switch v.Kind {
	case cyvalue.KindNull:
		return cyvalue.Null, nil
	case cyvalue.KindInt:
		return v, nil
	case cyvalue.KindFloat:
		x = v.Float
	default:
		return cyvalue.Null, typeMismatch("Int or Float", v)
	}
	return cyvalue.Float(math.Round(x)), nil
}

func scalarPow(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	base, exp := args[0], args[1]
	if base.IsNull() || exp.IsNull() {
		return cyvalue.Null, nil
	}
	bf, ok1 := asFloatArg(base)
	ef, ok2 := asFloatArg(exp)
	if !ok1 || !ok2 {
		return cyvalue.Null, typeMismatch("Int or Float", base)
	}
	return cyvalue.Float(math.Pow(bf, ef)), nil
}

func asFloatArg(v cyvalue.Value) (float64, bool) {
	switch v.Kind {
	case cyvalue.KindInt:
		return float64(v.Int), true
	case cyvalue.KindFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

func scalarE(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	return cyvalue.Float(math.E), nil
}

func scalarRand(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	return cyvalue.Float(rand.Float64()), nil
}

func scalarRange(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	from, to := args[0].Int, args[1].Int
	step := int64(1)
	if len(args) == 3 {
		step = args[2].Int
	}
	return evalRange(from, to, step), nil
}

func scalarCoalesce(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	for _, v := range args {
		if !v.IsNull() {
			return v, nil
		}
	}
	return cyvalue.Null, nil
}

func scalarKeys(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	v := args[0]
	var attrIDs []int
	switch v.Kind {
	case cyvalue.KindNull:
		return cyvalue.Null, nil
	case cyvalue.KindNode:
		attrIDs = rt.Pending.NodeAttrKeys(v.Node)
	case cyvalue.KindRelationship:
		attrIDs = rt.Pending.RelAttrKeys(v.RelID)
	case cyvalue.KindMap:
		names := make([]string, 0, len(v.Map))
		for k := range v.Map {
			names = append(names, k)
		}
		sort.Strings(names)
		out := make([]cyvalue.Value, len(names))
		for i, n := range names {
			out[i] = cyvalue.Str(n)
		}
		return cyvalue.List(out), nil
	default:
		return cyvalue.Null, typeMismatch("Node, Relationship or Map", v)
	}
	names := make([]string, 0, len(attrIDs))
	for _, id := range attrIDs {
		names = append(names, rt.Graph.AttrName(id))
	}
	sort.Strings(names)
	out := make([]cyvalue.Value, len(names))
	for i, n := range names {
		out[i] = cyvalue.Str(n)
	}
	return cyvalue.List(out), nil
}

func scalarProperties(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	v := args[0]
	switch v.Kind {
	case cyvalue.KindNull:
		return cyvalue.Null, nil
	case cyvalue.KindMap:
		return v, nil
	case cyvalue.KindNode:
		m := map[string]cyvalue.Value{}
		for _, id := range rt.Pending.NodeAttrKeys(v.Node) {
			m[rt.Graph.AttrName(id)] = rt.Pending.NodeAttr(v.Node, id)
		}
		return cyvalue.Map(m), nil
	case cyvalue.KindRelationship:
		m := map[string]cyvalue.Value{}
		for _, id := range rt.Pending.RelAttrKeys(v.RelID) {
			m[rt.Graph.AttrName(id)] = rt.Pending.RelAttr(v.RelID, id)
		}
		return cyvalue.Map(m), nil
	default:
		return cyvalue.Null, typeMismatch("Node, Relationship or Map", v)
	}
}

func scalarID(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	v := args[0]
	switch v.Kind {
	case cyvalue.KindNull:
		return cyvalue.Null, nil
	case cyvalue.KindNode:
		return cyvalue.Int(int64(v.Node)), nil
	case cyvalue.KindRelationship:
		return cyvalue.Int(int64(v.RelID)), nil
	default:
		return cyvalue.Null, typeMismatch("Node or Relationship", v)
	}
}

func registerScalarFunctions() {
	register(entry{name: "toInteger", min: 1, max: 1, kind: KindFunction, handler: scalarToInteger})
	register(entry{name: "toFloat", min: 1, max: 1, kind: KindFunction, handler: scalarToFloat})
	register(entry{name: "toString", min: 1, max: 1, kind: KindFunction, handler: scalarToString})
	register(entry{name: "toBoolean", min: 1, max: 1, kind: KindFunction, handler: scalarToBoolean})
	register(entry{name: "labels", min: 1, max: 1, kind: KindFunction, handler: scalarLabels})
	register(entry{name: "type", min: 1, max: 1, kind: KindFunction, handler: scalarType})
	register(entry{name: "startnode", min: 1, max: 1, kind: KindFunction, handler: scalarStartNode})
	register(entry{name: "startNode", min: 1, max: 1, kind: KindFunction, handler: scalarStartNode})
	register(entry{name: "endnode", min: 1, max: 1, kind: KindFunction, handler: scalarEndNode})
	register(entry{name: "endNode", min: 1, max: 1, kind: KindFunction, handler: scalarEndNode})
	register(entry{name: "size", min: 1, max: 1, kind: KindFunction, handler: scalarSize})
	register(entry{name: "head", min: 1, max: 1, kind: KindFunction, handler: scalarHead})
	register(entry{name: "last", min: 1, max: 1, kind: KindFunction, handler: scalarLast})
	register(entry{name: "tail", min: 1, max: 1, kind: KindFunction, handler: scalarTail})
	register(entry{name: "reverse", min: 1, max: 1, kind: KindFunction, handler: scalarReverse})
	register(entry{name: "substring", min: 2, max: 3, kind: KindFunction, handler: scalarSubstring})
	register(entry{name: "split", min: 2, max: 2, kind: KindFunction, handler: scalarSplit})
	register(entry{name: "toLower", min: 1, max: 1, kind: KindFunction, handler: scalarToLower})
	register(entry{name: "toUpper", min: 1, max: 1, kind: KindFunction, handler: scalarToUpper})
	register(entry{name: "replace", min: 3, max: 3, kind: KindFunction, handler: scalarReplace})
	register(entry{name: "left", min: 2, max: 2, kind: KindFunction, handler: scalarLeft})
	register(entry{name: "right", min: 2, max: 2, kind: KindFunction, handler: scalarRight})
	register(entry{name: "ltrim", min: 1, max: 1, kind: KindFunction, handler: scalarLtrim})
	register(entry{name: "rtrim", min: 1, max: 1, kind: KindFunction, handler: scalarRtrim})
	register(entry{name: "trim", min: 1, max: 1, kind: KindFunction, handler: scalarTrim})
	register(entry{name: "abs", min: 1, max: 1, kind: KindFunction, handler: scalarAbs})
	register(entry{name: "ceil", min: 1, max: 1, kind: KindFunction, handler: scalarNumeric1(math.Ceil)})
	register(entry{name: "floor", min: 1, max: 1, kind: KindFunction, handler: scalarNumeric1(math.Floor)})
	register(entry{name: "exp", min: 1, max: 1, kind: KindFunction, handler: scalarNumeric1(math.Exp)})
	register(entry{name: "log", min: 1, max: 1, kind: KindFunction, handler: scalarNumeric1(math.Log)})
	register(entry{name: "log10", min: 1, max: 1, kind: KindFunction, handler: scalarNumeric1(math.Log10)})
	register(entry{name: "sqrt", min: 1, max: 1, kind: KindFunction, handler: scalarNumeric1(math.Sqrt)})
	register(entry{name: "e", min: 0, max: 0, kind: KindFunction, handler: scalarE})
	register(entry{name: "rand", min: 0, max: 0, kind: KindFunction, handler: scalarRand})
	register(entry{name: "pow", min: 2, max: 2, kind: KindFunction, handler: scalarPow})
	register(entry{name: "sign", min: 1, max: 1, kind: KindFunction, handler: scalarSign})
	register(entry{name: "round", min: 1, max: 1, kind: KindFunction, handler: scalarRound})
	register(entry{name: "range", min: 2, max: 3, kind: KindFunction, handler: scalarRange})
	register(entry{name: "coalesce", min: 1, max: -1, kind: KindFunction, handler: scalarCoalesce})
	register(entry{name: "keys", min: 1, max: 1, kind: KindFunction, handler: scalarKeys})
	register(entry{name: "properties", min: 1, max: 1, kind: KindFunction, handler: scalarProperties})
	register(entry{name: "id", min: 1, max: 1, kind: KindFunction, handler: scalarID})
}

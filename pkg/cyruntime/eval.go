package cyruntime

import (
	"fmt"

	"github.com/lucidgraph/lucid/pkg/cyerr"
	"github.com/lucidgraph/lucid/pkg/cyparse"
	"github.com/lucidgraph/lucid/pkg/cyplan"
	"github.com/lucidgraph/lucid/pkg/cyvalue"
)

// eval evaluates an expression-kind IR node against the runtime's current
// environment and pending write buffer (§4.5).
func (rt *Runtime) eval(n *cyplan.Node) (cyvalue.Value, error) {
	if n == nil {
		return cyvalue.Null, nil
	}
	switch n.Kind {
	case cyplan.KNull:
		return cyvalue.Null, nil
	case cyplan.KBool:
		return cyvalue.Bool(n.BoolV), nil
	case cyplan.KInt:
		return cyvalue.Int(n.IntV), nil
	case cyplan.KFloat:
		return cyvalue.Float(n.FloatV), nil
	case cyplan.KString:
		return cyvalue.Str(n.StrV), nil
	case cyplan.KVar:
		return rt.env.Get(n.VarID.ID), nil
	case cyplan.KParameter:
		return rt.Params[n.Param], nil
	case cyplan.KStar:
		// count(*)'s bare argument: always present, never null.
		return cyvalue.Bool(true), nil

	case cyplan.KList:
		items := make([]cyvalue.Value, len(n.Children))
		for i, c := range n.Children {
			v, err := rt.eval(c)
			if err != nil {
				return cyvalue.Null, err
			}
			items[i] = v
		}
		return cyvalue.List(items), nil

	case cyplan.KMap:
		m := make(map[string]cyvalue.Value, len(n.Children))
		for i, c := range n.Children {
			v, err := rt.eval(c)
			if err != nil {
				return cyvalue.Null, err
			}
			m[n.MapKeys[i]] = v
		}
		return cyvalue.Map(m), nil

	case cyplan.KLength:
		v, err := rt.eval(n.Children[0])
		if err != nil {
			return cyvalue.Null, err
		}
		if v.IsNull() {
			return cyvalue.Null, nil
		}
		switch v.Kind {
		case cyvalue.KindList:
			return cyvalue.Int(int64(len(v.List))), nil
		case cyvalue.KindString:
			return cyvalue.Int(int64(len(v.String))), nil
		case cyvalue.KindPath:
			return cyvalue.Int(int64(len(v.Path))), nil
		default:
			return cyvalue.Null, typeMismatch("List", v)
		}

	case cyplan.KGetElement:
		target, err := rt.eval(n.Children[0])
		if err != nil {
			return cyvalue.Null, err
		}
		idx, err := rt.eval(n.Children[1])
		if err != nil {
			return cyvalue.Null, err
		}
		if target.IsNull() || idx.IsNull() {
			return cyvalue.Null, nil
		}
		if idx.Kind != cyvalue.KindInt {
			return cyvalue.Null, typeMismatch("Integer", idx)
		}
		switch target.Kind {
		case cyvalue.KindList:
			i := normalizeIndex(idx.Int, len(target.List))
			if i < 0 || i >= len(target.List) {
				return cyvalue.Null, nil
			}
			return target.List[i], nil
		case cyvalue.KindMap:
			return cyvalue.Null, typeMismatch("List", target)
		default:
			return cyvalue.Null, typeMismatch("List", target)
		}

	case cyplan.KGetElements:
		target, err := rt.eval(n.Children[0])
		if err != nil {
			return cyvalue.Null, err
		}
		if target.IsNull() {
			return cyvalue.Null, nil
		}
		if target.Kind != cyvalue.KindList {
			return cyvalue.Null, typeMismatch("List", target)
		}
		start, end := 0, len(target.List)
		if n.HasStart {
			sv, err := rt.eval(n.Children[1])
			if err != nil {
				return cyvalue.Null, err
			}
			if sv.IsNull() {
				return cyvalue.Null, nil
			}
			start = normalizeIndex(sv.Int, len(target.List))
		}
		if n.HasEnd {
			ev, err := rt.eval(n.Children[2])
			if err != nil {
				return cyvalue.Null, err
			}
			if ev.IsNull() {
				return cyvalue.Null, nil
			}
			end = normalizeIndex(ev.Int, len(target.List))
		}
		if start < 0 {
			start = 0
		}
		if end > len(target.List) {
			end = len(target.List)
		}
		if start >= end {
			return cyvalue.List(nil), nil
		}
		out := make([]cyvalue.Value, end-start)
		copy(out, target.List[start:end])
		return cyvalue.List(out), nil

	case cyplan.KRange:
		from, err := rt.eval(n.Children[0])
		if err != nil {
			return cyvalue.Null, err
		}
		to, err := rt.eval(n.Children[1])
		if err != nil {
			return cyvalue.Null, err
		}
		step := cyvalue.Int(1)
		if len(n.Children) > 2 && n.Children[2] != nil {
			step, err = rt.eval(n.Children[2])
			if err != nil {
				return cyvalue.Null, err
			}
		}
		return evalRange(from.Int, to.Int, step.Int), nil

	case cyplan.KIsNull:
		v, err := rt.eval(n.Children[0])
		if err != nil {
			return cyvalue.Null, err
		}
		return cyvalue.Bool(v.IsNull()), nil

	case cyplan.KIsNode:
		v, err := rt.eval(n.Children[0])
		if err != nil {
			return cyvalue.Null, err
		}
		return cyvalue.Bool(v.Kind == cyvalue.KindNode), nil

	case cyplan.KIsRelationship:
		v, err := rt.eval(n.Children[0])
		if err != nil {
			return cyvalue.Null, err
		}
		return cyvalue.Bool(v.Kind == cyvalue.KindRelationship), nil

	case cyplan.KNegate:
		v, err := rt.eval(n.Children[0])
		if err != nil {
			return cyvalue.Null, err
		}
		return cyvalue.Negate(v)

	case cyplan.KNot:
		v, err := rt.eval(n.Children[0])
		if err != nil {
			return cyvalue.Null, err
		}
		if v.IsNull() {
			return cyvalue.Null, nil
		}
		if v.Kind != cyvalue.KindBool {
			return cyvalue.Null, typeMismatch("Bool", v)
		}
		return cyvalue.Bool(!v.Bool), nil

	case cyplan.KAnd:
		return rt.evalAnd(n.Children)
	case cyplan.KOr:
		return rt.evalOr(n.Children)
	case cyplan.KXor:
		return rt.evalXor(n.Children)

	case cyplan.KEq, cyplan.KNeq, cyplan.KLt, cyplan.KGt, cyplan.KLe, cyplan.KGe:
		return rt.evalCompare(n)

	case cyplan.KIn:
		needle, err := rt.eval(n.Children[0])
		if err != nil {
			return cyvalue.Null, err
		}
		haystack, err := rt.eval(n.Children[1])
		if err != nil {
			return cyvalue.Null, err
		}
		return evalIn(needle, haystack), nil

	case cyplan.KAdd, cyplan.KSub, cyplan.KMul, cyplan.KDiv, cyplan.KPow, cyplan.KModulo:
		return rt.evalArith(n)

	case cyplan.KDistinct:
		return rt.eval(n.Children[0])

	case cyplan.KFuncInvocation:
		return rt.evalFuncInvocation(n)

	case cyplan.KQuantifier:
		return rt.evalQuantifier(n)

	case cyplan.KListComprehension:
		return rt.evalListComprehension(n)

	default:
		return cyvalue.Null, &cyerr.RuntimeError{Msg: fmt.Sprintf("unreachable: eval on statement node kind %d", n.Kind)}
	}
}

func normalizeIndex(i int64, n int) int {
	if i < 0 {
		return n + int(i)
	}
	return int(i)
}

func evalRange(from, to, step int64) cyvalue.Value {
	if step == 0 {
		return cyvalue.List(nil)
	}
	var out []cyvalue.Value
	if step > 0 {
		for v := from; v <= to; v += step {
			out = append(out, cyvalue.Int(v))
		}
	} else {
		for v := from; v >= to; v += step {
			out = append(out, cyvalue.Int(v))
		}
	}
	return cyvalue.List(out)
}

func (rt *Runtime) evalAnd(children []*cyplan.Node) (cyvalue.Value, error) {
	sawNull := false
	for _, c := range children {
		v, err := rt.eval(c)
		if err != nil {
			return cyvalue.Null, err
		}
		if v.IsFalse() {
			return cyvalue.Bool(false), nil
		}
		if v.IsNull() {
			sawNull = true
			continue
		}
		if v.Kind != cyvalue.KindBool {
			return cyvalue.Null, typeMismatch("Bool", v)
		}
	}
	if sawNull {
		return cyvalue.Null, nil
	}
	return cyvalue.Bool(true), nil
}

func (rt *Runtime) evalOr(children []*cyplan.Node) (cyvalue.Value, error) {
	sawNull := false
	for _, c := range children {
		v, err := rt.eval(c)
		if err != nil {
			return cyvalue.Null, err
		}
		if v.IsTrue() {
			return cyvalue.Bool(true), nil
		}
		if v.IsNull() {
			sawNull = true
			continue
		}
		if v.Kind != cyvalue.KindBool {
			return cyvalue.Null, typeMismatch("Bool", v)
		}
	}
	if sawNull {
		return cyvalue.Null, nil
	}
	return cyvalue.Bool(false), nil
}

func (rt *Runtime) evalXor(children []*cyplan.Node) (cyvalue.Value, error) {
	result := false
	for _, c := range children {
		v, err := rt.eval(c)
		if err != nil {
			return cyvalue.Null, err
		}
		if v.IsNull() {
			return cyvalue.Null, nil
		}
		if v.Kind != cyvalue.KindBool {
			return cyvalue.Null, typeMismatch("Bool", v)
		}
		result = result != v.Bool
	}
	return cyvalue.Bool(result), nil
}

func (rt *Runtime) evalCompare(n *cyplan.Node) (cyvalue.Value, error) {
	a, err := rt.eval(n.Children[0])
	if err != nil {
		return cyvalue.Null, err
	}
	b, err := rt.eval(n.Children[1])
	if err != nil {
		return cyvalue.Null, err
	}
	if n.Kind == cyplan.KEq {
		return cyvalue.Equal(a, b), nil
	}
	if n.Kind == cyplan.KNeq {
		eq := cyvalue.Equal(a, b)
		if eq.IsNull() {
			return cyvalue.Null, nil
		}
		return cyvalue.Bool(!eq.Bool), nil
	}
	less, equal, ok := cyvalue.Compare(a, b)
	if !ok {
		return cyvalue.Null, nil
	}
	switch n.Kind {
	case cyplan.KLt:
		return cyvalue.Bool(less), nil
	case cyplan.KGt:
		return cyvalue.Bool(!less && !equal), nil
	case cyplan.KLe:
		return cyvalue.Bool(less || equal), nil
	case cyplan.KGe:
		return cyvalue.Bool(!less), nil
	}
	return cyvalue.Null, nil
}

func evalIn(needle, haystack cyvalue.Value) cyvalue.Value {
	if haystack.IsNull() {
		return cyvalue.Null
	}
	if haystack.Kind != cyvalue.KindList {
		return cyvalue.Bool(false)
	}
	sawNull := false
	for _, item := range haystack.List {
		eq := cyvalue.Equal(needle, item)
		if eq.Kind == cyvalue.KindBool && eq.Bool {
			return cyvalue.Bool(true)
		}
		if eq.IsNull() {
			sawNull = true
		}
	}
	if sawNull {
		return cyvalue.Null
	}
	return cyvalue.Bool(false)
}

func (rt *Runtime) evalArith(n *cyplan.Node) (cyvalue.Value, error) {
	vals := make([]cyvalue.Value, len(n.Children))
	for i, c := range n.Children {
		v, err := rt.eval(c)
		if err != nil {
			return cyvalue.Null, err
		}
		vals[i] = v
	}
	acc := vals[0]
	for _, v := range vals[1:] {
		var err error
		switch n.Kind {
		case cyplan.KAdd:
			acc, err = cyvalue.Add(acc, v)
		case cyplan.KSub:
			acc, err = cyvalue.Sub(acc, v)
		case cyplan.KMul:
			acc, err = cyvalue.Mul(acc, v)
		case cyplan.KDiv:
			acc, err = cyvalue.Div(acc, v)
		case cyplan.KPow:
			acc, err = cyvalue.Pow(acc, v)
		case cyplan.KModulo:
			acc, err = cyvalue.Modulo(acc, v)
		}
		if err != nil {
			return cyvalue.Null, err
		}
	}
	return acc, nil
}

func (rt *Runtime) evalFuncInvocation(n *cyplan.Node) (cyvalue.Value, error) {
	e, ok := lookup(n.Func)
	if !ok {
		return cyvalue.Null, &cyerr.RuntimeError{Msg: fmt.Sprintf("Unknown function '%s'", n.Func)}
	}
	if e.write && rt.ReadOnly {
		return cyvalue.Null, &cyerr.RuntimeError{Msg: fmt.Sprintf("'%s' is a write operation and is not allowed on a read-only query", n.Func)}
	}
	if err := checkArity(e, len(n.Children)); err != nil {
		return cyvalue.Null, err
	}
	args := make([]cyvalue.Value, len(n.Children))
	for i, c := range n.Children {
		v, err := rt.eval(c)
		if err != nil {
			return cyvalue.Null, err
		}
		args[i] = v
	}
	return e.handler(rt, args)
}

func (rt *Runtime) evalQuantifier(n *cyplan.Node) (cyvalue.Value, error) {
	list, err := rt.eval(n.Children[0])
	if err != nil {
		return cyvalue.Null, err
	}
	if list.IsNull() {
		return cyvalue.Null, nil
	}
	if list.Kind != cyvalue.KindList {
		return cyvalue.Null, typeMismatch("List", list)
	}
	pred := n.Children[1]
	matched, total := 0, len(list.List)
	for _, item := range list.List {
		rt.env.Set(n.VarID.ID, item)
		v, err := rt.eval(pred)
		if err != nil {
			return cyvalue.Null, err
		}
		if v.IsTrue() {
			matched++
			if n.QuantType == cyparse.QuantifierAny {
				return cyvalue.Bool(true), nil
			}
			if n.QuantType == cyparse.QuantifierNone {
				return cyvalue.Bool(false), nil
			}
		} else if n.QuantType == cyparse.QuantifierSingle && matched > 1 {
			return cyvalue.Bool(false), nil
		}
	}
	switch n.QuantType {
	case cyparse.QuantifierAll:
		return cyvalue.Bool(matched == total), nil
	case cyparse.QuantifierAny:
		return cyvalue.Bool(false), nil
	case cyparse.QuantifierNone:
		return cyvalue.Bool(true), nil
	case cyparse.QuantifierSingle:
		return cyvalue.Bool(matched == 1), nil
	default:
		return cyvalue.Bool(false), nil
	}
}

func (rt *Runtime) evalListComprehension(n *cyplan.Node) (cyvalue.Value, error) {
	list, err := rt.eval(n.Children[0])
	if err != nil {
		return cyvalue.Null, err
	}
	if list.IsNull() {
		return cyvalue.Null, nil
	}
	if list.Kind != cyvalue.KindList {
		return cyvalue.Null, typeMismatch("List", list)
	}
	var pred, proj *cyplan.Node
	switch len(n.Children) {
	case 2:
		proj = n.Children[1]
	case 3:
		pred, proj = n.Children[1], n.Children[2]
	}
	var out []cyvalue.Value
	for _, item := range list.List {
		rt.env.Set(n.VarID.ID, item)
		if pred != nil {
			keep, err := rt.eval(pred)
			if err != nil {
				return cyvalue.Null, err
			}
			if !keep.IsTrue() {
				continue
			}
		}
		if proj == nil {
			out = append(out, item)
			continue
		}
		v, err := rt.eval(proj)
		if err != nil {
			return cyvalue.Null, err
		}
		out = append(out, v)
	}
	return cyvalue.List(out), nil
}

package cyruntime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidgraph/lucid/pkg/cyparse"
	"github.com/lucidgraph/lucid/pkg/cyplan"
	"github.com/lucidgraph/lucid/pkg/cyvalue"
	"github.com/lucidgraph/lucid/pkg/graphstore"
)

func newTestRuntime() *Runtime {
	return New(graphstore.New(16, 16), nil, false)
}

func litInt(v int64) *cyplan.Node    { return &cyplan.Node{Kind: cyplan.KInt, IntV: v} }
func litFloat(v float64) *cyplan.Node { return &cyplan.Node{Kind: cyplan.KFloat, FloatV: v} }
func litBool(v bool) *cyplan.Node    { return &cyplan.Node{Kind: cyplan.KBool, BoolV: v} }
func litStr(v string) *cyplan.Node   { return &cyplan.Node{Kind: cyplan.KString, StrV: v} }
func litNull() *cyplan.Node          { return &cyplan.Node{Kind: cyplan.KNull} }

func TestEvalArithmeticWidening(t *testing.T) {
	rt := newTestRuntime()

	v, err := rt.eval(&cyplan.Node{Kind: cyplan.KAdd, Children: []*cyplan.Node{litInt(1), litFloat(2.5)}})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Float(3.5), v)

	v, err = rt.eval(&cyplan.Node{Kind: cyplan.KMul, Children: []*cyplan.Node{litInt(3), litInt(4)}})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Int(12), v)

	_, err = rt.eval(&cyplan.Node{Kind: cyplan.KDiv, Children: []*cyplan.Node{litInt(1), litInt(0)}})
	require.Error(t, err)
}

func TestEvalAndOrNullPropagation(t *testing.T) {
	rt := newTestRuntime()

	v, err := rt.evalAnd([]*cyplan.Node{litBool(false), litNull()})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Bool(false), v)

	v, err = rt.evalAnd([]*cyplan.Node{litBool(true), litNull()})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Null, v)

	v, err = rt.evalOr([]*cyplan.Node{litBool(true), litNull()})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Bool(true), v)

	v, err = rt.evalOr([]*cyplan.Node{litBool(false), litNull()})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Null, v)
}

func TestEvalXor(t *testing.T) {
	rt := newTestRuntime()
	v, err := rt.evalXor([]*cyplan.Node{litBool(true), litBool(false)})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Bool(true), v)

	v, err = rt.evalXor([]*cyplan.Node{litBool(true), litBool(true)})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Bool(false), v)

	v, err = rt.evalXor([]*cyplan.Node{litBool(true), litNull()})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Null, v)
}

func TestEvalCompareTotalOrdering(t *testing.T) {
	rt := newTestRuntime()
	v, err := rt.eval(&cyplan.Node{Kind: cyplan.KLt, Children: []*cyplan.Node{litStr("a"), litBool(true)}})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Bool(true), v)

	v, err = rt.eval(&cyplan.Node{Kind: cyplan.KEq, Children: []*cyplan.Node{litInt(1), litNull()}})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Null, v)
}

func TestEvalListIndexingAndSlicing(t *testing.T) {
	rt := newTestRuntime()
	list := &cyplan.Node{Kind: cyplan.KList, Children: []*cyplan.Node{litInt(10), litInt(20), litInt(30)}}

	v, err := rt.eval(&cyplan.Node{Kind: cyplan.KGetElement, Children: []*cyplan.Node{list, litInt(-1)}})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Int(30), v)

	v, err = rt.eval(&cyplan.Node{
		Kind:     cyplan.KGetElements,
		Children: []*cyplan.Node{list, litInt(1), nil},
		HasStart: true,
	})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.List([]cyvalue.Value{cyvalue.Int(20), cyvalue.Int(30)}), v)
}

func TestEvalRange(t *testing.T) {
	rt := newTestRuntime()
	v, err := rt.eval(&cyplan.Node{Kind: cyplan.KRange, Children: []*cyplan.Node{litInt(1), litInt(5), litInt(2)}})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.List([]cyvalue.Value{cyvalue.Int(1), cyvalue.Int(3), cyvalue.Int(5)}), v)
}

func TestEvalIn(t *testing.T) {
	haystack := &cyplan.Node{Kind: cyplan.KList, Children: []*cyplan.Node{litInt(1), litNull(), litInt(3)}}
	rt := newTestRuntime()

	v, err := rt.eval(&cyplan.Node{Kind: cyplan.KIn, Children: []*cyplan.Node{litInt(3), haystack}})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Bool(true), v)

	v, err = rt.eval(&cyplan.Node{Kind: cyplan.KIn, Children: []*cyplan.Node{litInt(2), haystack}})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Null, v, "unmatched needle with a Null in the haystack is unknown, not false")
}

func TestEvalQuantifierAnyAllNoneSingle(t *testing.T) {
	rt := newTestRuntime()
	list := &cyplan.Node{Kind: cyplan.KList, Children: []*cyplan.Node{litInt(1), litInt(2), litInt(3)}}
	varID := cyparse.VarId{Name: "x", ID: 1}
	greaterThanOne := &cyplan.Node{Kind: cyplan.KGt, Children: []*cyplan.Node{{Kind: cyplan.KVar, VarID: varID}, litInt(1)}}

	v, err := rt.eval(&cyplan.Node{Kind: cyplan.KQuantifier, VarID: varID, QuantType: cyparse.QuantifierAny, Children: []*cyplan.Node{list, greaterThanOne}})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Bool(true), v)

	v, err = rt.eval(&cyplan.Node{Kind: cyplan.KQuantifier, VarID: varID, QuantType: cyparse.QuantifierAll, Children: []*cyplan.Node{list, greaterThanOne}})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Bool(false), v)

	v, err = rt.eval(&cyplan.Node{Kind: cyplan.KQuantifier, VarID: varID, QuantType: cyparse.QuantifierNone, Children: []*cyplan.Node{list, greaterThanOne}})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Bool(false), v)
}

func TestEvalListComprehension(t *testing.T) {
	rt := newTestRuntime()
	list := &cyplan.Node{Kind: cyplan.KList, Children: []*cyplan.Node{litInt(1), litInt(2), litInt(3), litInt(4)}}
	varID := cyparse.VarId{Name: "x", ID: 2}
	isEven := &cyplan.Node{Kind: cyplan.KEq, Children: []*cyplan.Node{
		{Kind: cyplan.KModulo, Children: []*cyplan.Node{{Kind: cyplan.KVar, VarID: varID}, litInt(2)}},
		litInt(0),
	}}
	doubled := &cyplan.Node{Kind: cyplan.KMul, Children: []*cyplan.Node{{Kind: cyplan.KVar, VarID: varID}, litInt(10)}}

	v, err := rt.eval(&cyplan.Node{Kind: cyplan.KListComprehension, VarID: varID, Children: []*cyplan.Node{list, isEven, doubled}})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.List([]cyvalue.Value{cyvalue.Int(20), cyvalue.Int(40)}), v)
}

func TestEvalFuncInvocationUnknownFunction(t *testing.T) {
	rt := newTestRuntime()
	_, err := rt.eval(&cyplan.Node{Kind: cyplan.KFuncInvocation, Func: "not_a_real_function"})
	require.Error(t, err)
}

func TestEvalFuncInvocationRejectsWriteOnReadOnly(t *testing.T) {
	rt := New(graphstore.New(16, 16), nil, true)
	_, err := rt.eval(&cyplan.Node{
		Kind: cyplan.KFuncInvocation,
		Func: "create_node",
		Children: []*cyplan.Node{
			{Kind: cyplan.KList},
			{Kind: cyplan.KMap},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")
}

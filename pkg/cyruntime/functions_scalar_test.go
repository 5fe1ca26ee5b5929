package cyruntime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidgraph/lucid/pkg/cyvalue"
	"github.com/lucidgraph/lucid/pkg/graphstore"
)

func TestScalarConversions(t *testing.T) {
	rt := newTestRuntime()

	v, err := scalarToInteger(rt, []cyvalue.Value{cyvalue.Str(" 42 ")})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Int(42), v)

	v, err = scalarToInteger(rt, []cyvalue.Value{cyvalue.Str("not a number")})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Null, v)

	v, err = scalarToFloat(rt, []cyvalue.Value{cyvalue.Int(3)})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Float(3.0), v)

	v, err = scalarToBoolean(rt, []cyvalue.Value{cyvalue.Str("TRUE")})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Bool(true), v)

	v, err = scalarToBoolean(rt, []cyvalue.Value{cyvalue.Str("nah")})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Null, v)
}

func TestScalarStringFunctions(t *testing.T) {
	rt := newTestRuntime()

	v, err := scalarSubstring(rt, []cyvalue.Value{cyvalue.Str("hello world"), cyvalue.Int(6)})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Str("world"), v)

	v, err = scalarSubstring(rt, []cyvalue.Value{cyvalue.Str("hello world"), cyvalue.Int(0), cyvalue.Int(5)})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Str("hello"), v)

	v, err = scalarLeft(rt, []cyvalue.Value{cyvalue.Str("hello"), cyvalue.Int(2)})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Str("he"), v)

	v, err = scalarRight(rt, []cyvalue.Value{cyvalue.Str("hello"), cyvalue.Int(2)})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Str("lo"), v)

	v, err = scalarReplace(rt, []cyvalue.Value{cyvalue.Str("a-b-c"), cyvalue.Str("-"), cyvalue.Str(":")})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Str("a:b:c"), v)

	v, err = scalarTrim(rt, []cyvalue.Value{cyvalue.Str("  padded  ")})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Str("padded"), v)
}

func TestScalarListFunctions(t *testing.T) {
	rt := newTestRuntime()
	list := cyvalue.List([]cyvalue.Value{cyvalue.Int(1), cyvalue.Int(2), cyvalue.Int(3)})

	v, err := scalarHead(rt, []cyvalue.Value{list})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Int(1), v)

	v, err = scalarLast(rt, []cyvalue.Value{list})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Int(3), v)

	v, err = scalarTail(rt, []cyvalue.Value{list})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.List([]cyvalue.Value{cyvalue.Int(2), cyvalue.Int(3)}), v)

	v, err = scalarReverse(rt, []cyvalue.Value{list})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.List([]cyvalue.Value{cyvalue.Int(3), cyvalue.Int(2), cyvalue.Int(1)}), v)

	v, err = scalarHead(rt, []cyvalue.Value{cyvalue.List(nil)})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Null, v)
}

func TestScalarNumericFunctions(t *testing.T) {
	rt := newTestRuntime()

	v, err := scalarAbs(rt, []cyvalue.Value{cyvalue.Int(-5)})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Int(5), v)

	v, err = scalarSign(rt, []cyvalue.Value{cyvalue.Float(-2.5)})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Int(-1), v)

	v, err = scalarPow(rt, []cyvalue.Value{cyvalue.Int(2), cyvalue.Int(10)})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Float(1024), v)

	v, err = scalarRound(rt, []cyvalue.Value{cyvalue.Int(7)})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Int(7), v, "round on an Int is a no-op, never widening to Float")
}

func TestScalarCoalesce(t *testing.T) {
	rt := newTestRuntime()
	v, err := scalarCoalesce(rt, []cyvalue.Value{cyvalue.Null, cyvalue.Null, cyvalue.Int(9)})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Int(9), v)
}

func TestScalarKeysAndPropertiesSeeStagedWrites(t *testing.T) {
	g := graphstore.New(16, 16)
	rt := New(g, nil, false)

	n, err := writeCreateNode(rt, []cyvalue.Value{
		strList("Person"),
		cyvalue.Map(map[string]cyvalue.Value{"name": cyvalue.Str("Ada"), "age": cyvalue.Int(30)}),
	})
	require.NoError(t, err)

	keys, err := scalarKeys(rt, []cyvalue.Value{n})
	require.NoError(t, err)
	require.Equal(t, cyvalue.KindList, keys.Kind)
	var names []string
	for _, k := range keys.List {
		names = append(names, k.String)
	}
	assert.ElementsMatch(t, []string{"age", "name"}, names)

	props, err := scalarProperties(rt, []cyvalue.Value{n})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Str("Ada"), props.Map["name"])
	assert.Equal(t, cyvalue.Int(30), props.Map["age"])
}

func TestScalarLabelsAndID(t *testing.T) {
	g := graphstore.New(16, 16)
	rt := New(g, nil, false)

	n, err := writeCreateNode(rt, []cyvalue.Value{strList("Person", "Employee"), cyvalue.Map(nil)})
	require.NoError(t, err)

	v, err := scalarLabels(rt, []cyvalue.Value{n})
	require.NoError(t, err)
	var names []string
	for _, l := range v.List {
		names = append(names, l.String)
	}
	assert.ElementsMatch(t, []string{"Person", "Employee"}, names)

	id, err := scalarID(rt, []cyvalue.Value{n})
	require.NoError(t, err)
	assert.Equal(t, cyvalue.Int(int64(n.Node)), id)
}

package cyruntime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidgraph/lucid/pkg/cyvalue"
	"github.com/lucidgraph/lucid/pkg/graphstore"
)

func strList(ss ...string) cyvalue.Value {
	out := make([]cyvalue.Value, len(ss))
	for i, s := range ss {
		out[i] = cyvalue.Str(s)
	}
	return cyvalue.List(out)
}

func TestWriteCreateNodeStagesLabelsAndAttrs(t *testing.T) {
	g := graphstore.New(16, 16)
	rt := New(g, nil, false)

	v, err := writeCreateNode(rt, []cyvalue.Value{
		strList("Person"),
		cyvalue.Map(map[string]cyvalue.Value{"name": cyvalue.Str("Ada")}),
	})
	require.NoError(t, err)
	require.Equal(t, cyvalue.KindNode, v.Kind)

	require.NoError(t, rt.Run(nil, func(Row) {}))
	assert.Equal(t, 1, rt.Stats.NodesCreated)
	assert.Equal(t, 1, rt.Stats.LabelsAdded)
	assert.Equal(t, 1, rt.Stats.PropertiesSet)
	assert.True(t, g.IsLiveNode(v.Node))
	nameAttr := g.AttrID("name")
	got, ok := g.NodeAttr(v.Node, nameAttr)
	require.True(t, ok)
	assert.Equal(t, cyvalue.Str("Ada"), got)
}

func TestWriteCreateRelationshipRejectsNonNodeEndpoints(t *testing.T) {
	rt := New(graphstore.New(16, 16), nil, false)
	_, err := writeCreateRelationship(rt, []cyvalue.Value{
		cyvalue.Str("KNOWS"), cyvalue.Int(1), cyvalue.Node(0), cyvalue.Map(nil),
	})
	require.Error(t, err)
}

func TestWriteMergeNodeFindsExistingBeforeCreating(t *testing.T) {
	g := graphstore.New(16, 16)
	setup := New(g, nil, false)
	ada, err := writeCreateNode(setup, []cyvalue.Value{
		strList("Person"),
		cyvalue.Map(map[string]cyvalue.Value{"name": cyvalue.Str("Ada")}),
	})
	require.NoError(t, err)
	require.NoError(t, setup.Run(nil, func(Row) {}))
	require.True(t, g.IsLiveNode(ada.Node))

	rt := New(g, nil, false)
	v, err := writeMergeNode(rt, []cyvalue.Value{
		strList("Person"),
		cyvalue.Map(map[string]cyvalue.Value{"name": cyvalue.Str("Ada")}),
	})
	require.NoError(t, err)
	assert.Equal(t, ada, v, "matching attrs on an existing node must be returned, not re-created")

	v2, err := writeMergeNode(rt, []cyvalue.Value{
		strList("Person"),
		cyvalue.Map(map[string]cyvalue.Value{"name": cyvalue.Str("Grace")}),
	})
	require.NoError(t, err)
	assert.NotEqual(t, ada, v2, "no attribute match should fall back to create_node")
}

func TestWriteDeleteEntityRejectsNonDetachWithLiveEdges(t *testing.T) {
	g := graphstore.New(16, 16)
	rt := New(g, nil, false)

	from, _ := writeCreateNode(rt, []cyvalue.Value{strList(), cyvalue.Map(nil)})
	to, _ := writeCreateNode(rt, []cyvalue.Value{strList(), cyvalue.Map(nil)})
	_, err := writeCreateRelationship(rt, []cyvalue.Value{cyvalue.Str("KNOWS"), from, to, cyvalue.Map(nil)})
	require.NoError(t, err)

	_, err = writeDeleteEntity(rt, []cyvalue.Value{cyvalue.Bool(false), from})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "still has relationships")

	_, err = writeDeleteEntity(rt, []cyvalue.Value{cyvalue.Bool(true), from})
	require.NoError(t, err)
}

func TestWriteSetPropertyAllClearsKeysAbsentFromNewMap(t *testing.T) {
	g := graphstore.New(16, 16)
	rt := New(g, nil, false)

	n, _ := writeCreateNode(rt, []cyvalue.Value{strList(), cyvalue.Map(map[string]cyvalue.Value{
		"a": cyvalue.Int(1),
		"b": cyvalue.Int(2),
	})})

	_, err := writeSetPropertyAll(rt, []cyvalue.Value{n, cyvalue.Map(map[string]cyvalue.Value{
		"b": cyvalue.Int(3),
	})})
	require.NoError(t, err)

	keys := rt.Pending.NodeAttrKeys(n.Node)
	names := map[string]bool{}
	for _, id := range keys {
		names[g.AttrName(id)] = true
	}
	assert.False(t, names["a"], "set_property_all must clear keys not present in the new map")
	assert.True(t, names["b"])
	assert.Equal(t, cyvalue.Int(3), rt.Pending.NodeAttr(n.Node, g.AttrID("b")))
}

func TestWriteRemoveLabelsNoopsOnUnknownLabel(t *testing.T) {
	g := graphstore.New(16, 16)
	rt := New(g, nil, false)
	n, _ := writeCreateNode(rt, []cyvalue.Value{strList("Person"), cyvalue.Map(nil)})
	_, err := writeRemoveLabels(rt, []cyvalue.Value{n, strList("NeverDefined")})
	require.NoError(t, err)
}

func TestProcDbLabelsReturnsEveryKnownLabel(t *testing.T) {
	g := graphstore.New(16, 16)
	g.LabelID("Person")
	g.LabelID("Company")
	rt := New(g, nil, true)
	v, err := procDbLabels(rt, nil)
	require.NoError(t, err)
	require.Equal(t, cyvalue.KindList, v.Kind)
	assert.Len(t, v.List, 2)
}

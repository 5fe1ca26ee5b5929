package graphstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidgraph/lucid/pkg/cyvalue"
)

func TestPendingCreateNodeIsLiveBeforeCommit(t *testing.T) {
	g := New(4, 4)
	p := NewPending(g)
	person := g.LabelID("Person")

	id := p.CreateNode([]int{person})
	assert.True(t, p.IsLiveNode(id), "a staged creation is live within the same query")
	assert.False(t, g.IsLiveNode(id), "but not yet visible to the committed graph")
	assert.True(t, p.HasLabel(id, person))

	p.Commit(&Stats{})
	assert.True(t, g.IsLiveNode(id))
}

func TestPendingDeleteNodeHidesItWithinTheQuery(t *testing.T) {
	g := New(4, 4)
	g.createNode(1, nil)
	p := NewPending(g)

	assert.True(t, p.IsLiveNode(1))
	p.DeleteNode(1)
	assert.False(t, p.IsLiveNode(1))
	assert.True(t, g.IsLiveNode(1), "the committed graph is untouched until Commit")

	var stats Stats
	p.Commit(&stats)
	assert.False(t, g.IsLiveNode(1))
	assert.Equal(t, 1, stats.NodesDeleted)
}

func TestPendingNodeAttrFoldsStagedOverCommitted(t *testing.T) {
	g := New(4, 4)
	g.createNode(1, nil)
	name := g.AttrID("name")
	g.setNodeAttr(1, name, cyvalue.Str("Ada"))

	p := NewPending(g)
	assert.Equal(t, cyvalue.Str("Ada"), p.NodeAttr(1, name))

	p.SetNodeAttr(1, name, cyvalue.Str("Grace"))
	assert.Equal(t, cyvalue.Str("Grace"), p.NodeAttr(1, name), "the latest staged write for a key wins")

	p.SetNodeAttr(1, name, cyvalue.Null)
	assert.Equal(t, cyvalue.Null, p.NodeAttr(1, name), "a Null write stages a removal")
}

func TestPendingNodeAttrKeysFoldsRemovalsAndAdditions(t *testing.T) {
	g := New(4, 4)
	g.createNode(1, nil)
	a := g.AttrID("a")
	b := g.AttrID("b")
	g.setNodeAttr(1, a, cyvalue.Int(1))
	g.setNodeAttr(1, b, cyvalue.Int(2))

	p := NewPending(g)
	p.SetNodeAttr(1, a, cyvalue.Null)
	c := g.AttrID("c")
	p.SetNodeAttr(1, c, cyvalue.Int(3))

	keys := p.NodeAttrKeys(1)
	present := map[int]bool{}
	for _, k := range keys {
		present[k] = true
	}
	assert.False(t, present[a], "a was staged for removal")
	assert.True(t, present[b])
	assert.True(t, present[c])
}

func TestPendingHasLabelHonorsStagedAdditionsAndRemovals(t *testing.T) {
	g := New(4, 4)
	person := g.LabelID("Person")
	admin := g.LabelID("Admin")
	g.createNode(1, []int{person})

	p := NewPending(g)
	assert.True(t, p.HasLabel(1, person))
	assert.False(t, p.HasLabel(1, admin))

	p.AddNodeLabel(1, admin)
	assert.True(t, p.HasLabel(1, admin))

	p.RemoveNodeLabel(1, person)
	assert.False(t, p.HasLabel(1, person))
}

func TestPendingRelEndpointsPrefersStagedCreation(t *testing.T) {
	g := New(4, 4)
	p := NewPending(g)
	knows := g.TypeID("KNOWS")

	id := p.CreateRelationship(knows, 1, 2)
	typeID, src, dst, ok := p.RelEndpoints(id)
	require.True(t, ok)
	assert.Equal(t, knows, typeID)
	assert.Equal(t, uint64(1), src)
	assert.Equal(t, uint64(2), dst)
}

func TestPendingAnyEdgeTouchingSeesStagedAndCommittedEdges(t *testing.T) {
	g := New(4, 4)
	knows := g.TypeID("KNOWS")
	g.createNode(1, nil)
	g.createNode(2, nil)
	g.createNode(3, nil)
	g.createRelationship(10, knows, 1, 2)

	p := NewPending(g)
	assert.True(t, p.AnyEdgeTouching(1))
	assert.False(t, p.AnyEdgeTouching(3))

	p.CreateRelationship(knows, 3, 1)
	assert.True(t, p.AnyEdgeTouching(3), "a same-query staged edge must also count")

	p.DeleteRelationship(10)
	assert.False(t, p.AnyEdgeTouching(2), "a staged deletion must stop counting toward liveness")
}

func TestCommitOrderDetachDeletesRelationshipsBeforeNode(t *testing.T) {
	g := New(4, 4)
	knows := g.TypeID("KNOWS")
	g.createNode(1, nil)
	g.createNode(2, nil)
	g.createRelationship(10, knows, 1, 2)

	p := NewPending(g)
	p.DeleteNode(1)

	var stats Stats
	p.Commit(&stats)

	assert.False(t, g.IsLiveNode(1))
	_, ok := g.RelInfo(10)
	assert.False(t, ok, "Commit must detach-delete every relationship touching a deleted node")
	assert.Equal(t, 1, stats.RelationshipsDeleted)
	assert.Equal(t, 1, stats.NodesDeleted)
}

func TestCommitAppliesAttrWritesAfterNodeCreation(t *testing.T) {
	g := New(4, 4)
	p := NewPending(g)
	name := g.AttrID("name")

	id := p.CreateNode(nil)
	p.SetNodeAttr(id, name, cyvalue.Str("Ada"))

	var stats Stats
	p.Commit(&stats)

	v, ok := g.NodeAttr(id, name)
	require.True(t, ok)
	assert.Equal(t, cyvalue.Str("Ada"), v)
	assert.Equal(t, 1, stats.PropertiesSet)
}

func TestCommitSkipsAttrWritesForEntitiesDeletedInTheSameQuery(t *testing.T) {
	g := New(4, 4)
	g.createNode(1, nil)
	name := g.AttrID("name")

	p := NewPending(g)
	p.DeleteNode(1)
	p.SetNodeAttr(1, name, cyvalue.Str("too late"))

	var stats Stats
	p.Commit(&stats)
	assert.Equal(t, 0, stats.PropertiesSet, "a write targeting a node deleted in the same query is dropped")
}

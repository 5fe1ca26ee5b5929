package cyplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidgraph/lucid/pkg/cyparse"
)

func mustPlan(t *testing.T, src string) *Node {
	t.Helper()
	q, err := cyparse.Parse(src)
	require.NoError(t, err)
	n, err := Plan(q)
	require.NoError(t, err)
	return n
}

// walk visits every node reachable from n, including the OrderBy/Skip/Limit
// side-slots that Children alone wouldn't reach.
func walk(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, c := range n.Children {
		walk(c, visit)
	}
	for _, c := range n.OrderBy {
		walk(c, visit)
	}
	walk(n.Skip, visit)
	walk(n.Limit, visit)
}

func collectKind(root *Node, kind Kind) []*Node {
	var out []*Node
	walk(root, func(n *Node) {
		if n.Kind == kind {
			out = append(out, n)
		}
	})
	return out
}

func findFunc(root *Node, name string) *Node {
	var found *Node
	walk(root, func(n *Node) {
		if found == nil && n.Kind == KFuncInvocation && n.Func == name {
			found = n
		}
	})
	return found
}

func TestPlanReturnLiteral(t *testing.T) {
	root := mustPlan(t, "RETURN 1")
	require.Equal(t, KReturn, root.Kind)
	require.Len(t, root.Aliases, 1)
	require.Len(t, root.Children, 1)
	assert.Equal(t, KInt, root.Children[0].Kind)
	assert.Equal(t, int64(1), root.Children[0].IntV)
}

func TestPlanMatchCompilesToNodeScanLoop(t *testing.T) {
	root := mustPlan(t, "MATCH (n:Person) RETURN n")
	require.Equal(t, KFor, root.Kind, "a fresh pattern node compiles to a For loop scanning it")
	require.Len(t, root.Children, 4)
	cond := root.Children[1]
	require.Equal(t, KIsNode, cond.Kind)

	returns := collectKind(root, KReturn)
	require.Len(t, returns, 1)
	assert.Equal(t, KVar, returns[0].Children[0].Kind)
}

func TestPlanMatchWithAttrsGuardsLoopBodyWithIf(t *testing.T) {
	root := mustPlan(t, "MATCH (n:Person {name: 'Ada'}) RETURN n")
	require.Equal(t, KFor, root.Kind)
	body := root.Children[3]
	require.Equal(t, KIf, body.Kind, "an attribute-matched pattern node guards its loop body")
	require.Len(t, body.Children, 2)
	assert.Equal(t, KEq, body.Children[0].Kind)
}

func TestPlanCreateNodeAndRelationship(t *testing.T) {
	root := mustPlan(t, "CREATE (a:Person)-[:KNOWS]->(b:Person) RETURN a")
	require.Equal(t, KBlock, root.Kind)

	createNodes := 0
	for _, n := range collectKind(root, KFuncInvocation) {
		if n.Func == "create_node" {
			createNodes++
		}
	}
	assert.Equal(t, 2, createNodes)
	assert.NotNil(t, findFunc(root, "create_relationship"))
}

func TestPlanReturnAggregateUsesReturnAggregation(t *testing.T) {
	root := mustPlan(t, "MATCH (n) RETURN count(n)")
	aggs := collectKind(root, KReturnAggregation)
	require.Len(t, aggs, 1)
	assert.Empty(t, collectKind(root, KReturn), "an aggregating projection never compiles to plain KReturn")
}

func TestPlanWithAggregateUsesWithAggregation(t *testing.T) {
	root := mustPlan(t, "MATCH (n) WITH count(n) AS c RETURN c")
	withs := collectKind(root, KWithAggregation)
	require.Len(t, withs, 1)
	assert.Len(t, withs[0].Aliases, 1)
}

func TestPlanOrderBySkipLimitAttachedToReturn(t *testing.T) {
	root := mustPlan(t, "MATCH (n) RETURN n ORDER BY n.name DESC SKIP 1 LIMIT 5")
	returns := collectKind(root, KReturn)
	require.Len(t, returns, 1)
	ret := returns[0]

	require.Len(t, ret.OrderBy, 1)
	require.Len(t, ret.Descending, 1)
	assert.True(t, ret.Descending[0])
	require.NotNil(t, ret.Skip)
	assert.Equal(t, int64(1), ret.Skip.IntV)
	require.NotNil(t, ret.Limit)
	assert.Equal(t, int64(5), ret.Limit.IntV)
}

func TestPlanUnwindRangeUsesCountingForLoop(t *testing.T) {
	root := mustPlan(t, "UNWIND range(1, 5) AS x RETURN x")
	require.Equal(t, KFor, root.Kind)
	cond := root.Children[1]
	assert.Equal(t, KLe, cond.Kind, "the range(...) special case compiles to an inclusive bound check")
}

func TestPlanUnwindListUsesIndexingForLoop(t *testing.T) {
	root := mustPlan(t, "UNWIND [1, 2, 3] AS x RETURN x")
	require.Equal(t, KFor, root.Kind)
	cond := root.Children[1]
	assert.Equal(t, KLt, cond.Kind, "a non-range list unwinds via an index counter against its length")
}

func TestPlanMergeCompilesToMergeNodeCall(t *testing.T) {
	root := mustPlan(t, "MERGE (n:Person {name: 'Ada'}) RETURN n")
	require.Equal(t, KBlock, root.Kind)
	call := findFunc(root, "merge_node")
	require.NotNil(t, call)
	require.Len(t, call.Children, 2)
	assert.Equal(t, KList, call.Children[0].Kind)
	assert.Equal(t, KMap, call.Children[1].Kind)
}

func TestPlanMergeRelationshipCompilesToMergeRelationshipCall(t *testing.T) {
	root := mustPlan(t, "MATCH (a), (b) MERGE (a)-[:KNOWS]->(b) RETURN a")
	call := findFunc(root, "merge_relationship")
	require.NotNil(t, call)
	require.Len(t, call.Children, 4)
	assert.Equal(t, KString, call.Children[0].Kind)
	assert.Equal(t, "KNOWS", call.Children[0].StrV)
}

func TestPlanDetachDeleteSetsBoolFlag(t *testing.T) {
	root := mustPlan(t, "MATCH (n) DETACH DELETE n")
	call := findFunc(root, "delete_entity")
	require.NotNil(t, call)
	require.NotEmpty(t, call.Children)
	assert.Equal(t, KBool, call.Children[0].Kind)
	assert.True(t, call.Children[0].BoolV)
}

func TestPlanPlainDeleteClearsBoolFlag(t *testing.T) {
	root := mustPlan(t, "MATCH (n) DELETE n")
	call := findFunc(root, "delete_entity")
	require.NotNil(t, call)
	require.NotEmpty(t, call.Children)
	assert.False(t, call.Children[0].BoolV)
}

func TestPlanSetPropertyOnSingleKey(t *testing.T) {
	root := mustPlan(t, "MATCH (n) SET n.name = 'Ada' RETURN n")
	assert.NotNil(t, findFunc(root, "set_property"))
	assert.Nil(t, findFunc(root, "set_property_all"))
}

func TestPlanSetEntireMapUsesSetPropertyAll(t *testing.T) {
	root := mustPlan(t, "MATCH (n) SET n = {name: 'Ada'} RETURN n")
	assert.NotNil(t, findFunc(root, "set_property_all"))
}

func TestPlanSetWithPlusMergesInsteadOfReplacing(t *testing.T) {
	root := mustPlan(t, "MATCH (n) SET n += {name: 'Ada'} RETURN n")
	assert.NotNil(t, findFunc(root, "merge_property_all"))
}

func TestPlanRemovePropertyCompilesToRemovePropertyCall(t *testing.T) {
	root := mustPlan(t, "MATCH (n) REMOVE n.name RETURN n")
	call := findFunc(root, "remove_property")
	require.NotNil(t, call)
	require.Len(t, call.Children, 2)
	assert.Equal(t, "name", call.Children[1].StrV)
}

func TestPlanCallCompilesToRowLoop(t *testing.T) {
	root := mustPlan(t, "CALL db.labels()")
	require.Equal(t, KFor, root.Kind)
	assert.NotNil(t, findFunc(root, "db.labels"))
}

func TestPlanFreshVarsNeverCollideWithQueryVars(t *testing.T) {
	q, err := cyparse.Parse("UNWIND [1, 2] AS x RETURN x")
	require.NoError(t, err)
	p := NewPlanner(q)
	before := p.nextID
	v := p.freshVar("tmp")
	assert.Greater(t, v.ID, before)
	assert.Greater(t, p.nextID, maxVarID(q))
}

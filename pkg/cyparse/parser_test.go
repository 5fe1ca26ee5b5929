package cyparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleMatchReturn(t *testing.T) {
	q, err := Parse("MATCH (n:Person) RETURN n")
	require.NoError(t, err)
	require.Len(t, q.Clauses, 2)
	assert.Equal(t, ClauseMatch, q.Clauses[0].Kind)
	assert.Len(t, q.Clauses[0].Pattern.Nodes, 1)
	assert.Equal(t, []string{"Person"}, q.Clauses[0].Pattern.Nodes[0].Labels)
	assert.Equal(t, ClauseReturn, q.Clauses[1].Kind)
}

func TestParseRelationshipPatternDirection(t *testing.T) {
	q, err := Parse("MATCH (a)-[r:KNOWS]->(b) RETURN r")
	require.NoError(t, err)
	rel := q.Clauses[0].Pattern.Relationships[0]
	assert.True(t, rel.Outgoing)
	assert.Equal(t, []string{"KNOWS"}, rel.Types)
}

func TestParseIncomingRelationship(t *testing.T) {
	q, err := Parse("MATCH (a)<-[r:KNOWS]-(b) RETURN r")
	require.NoError(t, err)
	rel := q.Clauses[0].Pattern.Relationships[0]
	assert.False(t, rel.Outgoing)
}

func TestUnboundVariableFails(t *testing.T) {
	_, err := Parse("RETURN x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not defined")
}

func TestQueryCannotEndWithMatch(t *testing.T) {
	_, err := Parse("MATCH (n)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot conclude with MATCH")
}

func TestMatchReusesBoundAliasAsReference(t *testing.T) {
	q, err := Parse("MATCH (n) WITH n MATCH (n)-[r:KNOWS]->(m) RETURN m")
	require.NoError(t, err)
	// second MATCH's alias for n is already bound, so it's pruned from Nodes
	assert.Len(t, q.Clauses[2].Pattern.Nodes, 1)
	assert.Equal(t, q.Clauses[0].Pattern.Nodes[0].Alias.ID, q.Clauses[2].Pattern.Relationships[0].From.ID)
}

func TestCreateRejectsRedeclaredAliasWithoutRelationship(t *testing.T) {
	_, err := Parse("MATCH (n) CREATE (n)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't be redeclared")
}

func TestMergeRequiresSingleRelationshipType(t *testing.T) {
	_, err := Parse("MERGE (a)-[r]->(b)")
	require.Error(t, err)
}

func TestWithReplacesScope(t *testing.T) {
	_, err := Parse("MATCH (n) WITH n.name AS name RETURN n")
	require.Error(t, err, "n should have fallen out of scope after WITH")
}

func TestAndRejectsNonBoolLiteralOperand(t *testing.T) {
	_, err := Parse("RETURN true AND 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected bool")
}

func TestExpressionPrecedence(t *testing.T) {
	q, err := Parse("RETURN 1 + 2 * 3")
	require.NoError(t, err)
	ret := q.Clauses[0].Projection.Exprs[0].Children[0]
	require.Equal(t, ExprAdd, ret.Kind)
	assert.Equal(t, ExprMul, ret.Children[1].Kind)
}

func TestListSliceOperators(t *testing.T) {
	q, err := Parse("RETURN [1,2,3][1..2]")
	require.NoError(t, err)
	ret := q.Clauses[0].Projection.Exprs[0].Children[0]
	assert.Equal(t, ExprGetElements, ret.Kind)
}

func TestCypherParameterPrefix(t *testing.T) {
	q, err := Parse("CYPHER lim=5 RETURN $lim")
	require.NoError(t, err)
	require.Contains(t, q.Params, "lim")
	assert.Equal(t, ClauseReturn, q.Clauses[0].Kind)
}

func TestOptionalMatch(t *testing.T) {
	q, err := Parse("OPTIONAL MATCH (n) RETURN n")
	require.NoError(t, err)
	assert.Equal(t, ClauseOptionalMatch, q.Clauses[0].Kind)
}

func TestOrderBySkipLimit(t *testing.T) {
	q, err := Parse("MATCH (n) RETURN n ORDER BY n.name DESC SKIP 1 LIMIT 10")
	require.NoError(t, err)
	ret := q.Clauses[1]
	require.Len(t, ret.Projection.OrderBy, 1)
	assert.True(t, ret.Projection.OrderBy[0].Descending)
	require.NotNil(t, ret.Projection.Skip)
	require.NotNil(t, ret.Projection.Limit)
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCreateAndReturnLiteral(t *testing.T) {
	s := NewServer(nil)
	res, err := s.Query("g1", "CREATE (:A {x:1})-[:R]->(:B {x:2}) RETURN 1", false)
	require.NoError(t, err)

	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(1), res.Rows[0][0])
	assert.Equal(t, 2, res.Stats.NodesCreated)
	assert.Equal(t, 1, res.Stats.RelationshipsCreated)
	assert.Equal(t, 2, res.Stats.LabelsAdded)
	assert.Equal(t, 2, res.Stats.PropertiesSet)
}

func TestQueryEncodesNodesAndRelationshipsAsWireMaps(t *testing.T) {
	s := NewServer(nil)
	_, err := s.Query("g1", "CREATE (:Person {name: 'Ada'})", false)
	require.NoError(t, err)

	res, err := s.Query("g1", "MATCH (n:Person)-[r]->(m) RETURN n", false)
	require.NoError(t, err)
	require.Len(t, res.Rows, 0, "no relationships exist yet so this pattern matches nothing")

	res, err = s.Query("g1", "MATCH (n:Person) RETURN n", false)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)

	node, ok := res.Rows[0][0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"Person"}, node["labels"])
	props, ok := node["properties"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Ada", props["name"])
}

func TestQueryIsolatesGraphsByKey(t *testing.T) {
	s := NewServer(nil)
	_, err := s.Query("g1", "CREATE (:Person)", false)
	require.NoError(t, err)

	res, err := s.Query("g2", "MATCH (n:Person) RETURN n", false)
	require.NoError(t, err)
	assert.Empty(t, res.Rows, "a different graph key must start from an empty graph")
}

func TestQueryParseErrorIsReturnedAsError(t *testing.T) {
	s := NewServer(nil)
	_, err := s.Query("g1", "THIS IS NOT CYPHER", false)
	require.Error(t, err)
	assert.NotEmpty(t, FormatError(err))
}

func TestQueryCachesCompiledPlanAcrossCalls(t *testing.T) {
	s := NewServer(nil)
	const q = "RETURN 1"
	_, err := s.Query("g1", q, false)
	require.NoError(t, err)

	g := s.graphFor("g1")
	assert.Equal(t, 1, g.Cache().Len())

	_, err = s.Query("g1", q, false)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Cache().Len(), "the second call must hit the cache, not insert a second entry")
}

func TestQueryDebugIncludesPlanDump(t *testing.T) {
	s := NewServer(nil)
	res, err := s.Query("g1", "RETURN 1", true)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Plan)
}

func TestQueryWithCypherParamPrefixBindsParameters(t *testing.T) {
	s := NewServer(nil)
	res, err := s.Query("g1", `CYPHER x=5 RETURN $x`, false)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(5), res.Rows[0][0])
}

func TestQueryUnwindListYieldsOneRowPerElement(t *testing.T) {
	s := NewServer(nil)
	res, err := s.Query("g1", "UNWIND [10, 20, 30] AS x RETURN x", false)
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, []Row{{int64(10)}, {int64(20)}, {int64(30)}}, res.Rows)
}

func TestQueryUnwindRangeAppliesExpressionPerElement(t *testing.T) {
	s := NewServer(nil)
	res, err := s.Query("g1", "UNWIND range(1, 3) AS i RETURN i * i", false)
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, []Row{{int64(1)}, {int64(4)}, {int64(9)}}, res.Rows)
}

func TestQueryMissingAttributeReadsAsNull(t *testing.T) {
	s := NewServer(nil)
	_, err := s.Query("g1", "CREATE (:A)", false)
	require.NoError(t, err)

	res, err := s.Query("g1", "MATCH (n:A) WHERE n.x IS NULL RETURN n.x", false)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Nil(t, res.Rows[0][0])
}

func TestQueryCreateTwoNodesThenRelationshipViaWith(t *testing.T) {
	s := NewServer(nil)
	res, err := s.Query("g1", "CREATE (a),(b) WITH a,b CREATE (a)-[:K]->(b) RETURN count(*)", false)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(1), res.Rows[0][0])
	assert.Equal(t, 1, res.Stats.RelationshipsCreated)
}

func TestQueryMatchCannotConcludeQuery(t *testing.T) {
	s := NewServer(nil)
	_, err := s.Query("g1", "MATCH (x)-[:T]->(y)", false)
	require.Error(t, err)
	assert.Contains(t, FormatError(err), "cannot conclude with MATCH")
}

package cyruntime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidgraph/lucid/pkg/cyparse"
	"github.com/lucidgraph/lucid/pkg/cyplan"
	"github.com/lucidgraph/lucid/pkg/cyvalue"
)

// countStar builds a bare count(*) aggregation column.
func countStar() *cyplan.Node {
	return &cyplan.Node{Kind: cyplan.KFuncInvocation, Func: "count", Children: []*cyplan.Node{{Kind: cyplan.KStar}}}
}

func TestAccumulateBareAggregateSeedsOneRowOnEmptyInput(t *testing.T) {
	rt := newTestRuntime()
	agg := &cyplan.Node{Kind: cyplan.KReturnAggregation, Children: []*cyplan.Node{countStar()}}
	// wrap in a zero-iteration loop so accumulate never actually runs; only
	// the pre-seeded empty bucket should reach the emitted row.
	noRows := &cyplan.Node{Kind: cyplan.KFor, Children: []*cyplan.Node{
		{Kind: cyplan.KBlock},
		litBool(false),
		{Kind: cyplan.KBlock},
		agg,
	}}

	var rows []Row
	require.NoError(t, rt.Run(noRows, func(r Row) { rows = append(rows, r) }))

	require.Len(t, rows, 1, "a bare aggregate over zero input rows still emits one row")
	assert.Equal(t, cyvalue.Int(0), rows[0][0])
}

func TestAccumulateGroupedAggregateProducesNoRowsOnEmptyInput(t *testing.T) {
	rt := newTestRuntime()
	groupKey := litStr("bucket")
	agg := &cyplan.Node{Kind: cyplan.KReturnAggregation, Children: []*cyplan.Node{groupKey, countStar()}}
	// wrap in a zero-iteration loop so accumulate never runs, simulating a
	// MATCH pattern with no matching rows feeding a grouped aggregate.
	noRows := &cyplan.Node{Kind: cyplan.KFor, Children: []*cyplan.Node{
		{Kind: cyplan.KBlock},
		litBool(false),
		{Kind: cyplan.KBlock},
		agg,
	}}

	var rows []Row
	require.NoError(t, rt.Run(noRows, func(r Row) { rows = append(rows, r) }))
	assert.Len(t, rows, 0, "grouped aggregates (unlike bare ones) emit nothing for zero input groups")
}

func TestAccumulateGroupsByNonAggregateColumns(t *testing.T) {
	rt := newTestRuntime()
	groupVar := cyparse.VarId{Name: "bucket", ID: 7}
	root := &cyplan.Node{Kind: cyplan.KReturnAggregation, Children: []*cyplan.Node{{Kind: cyplan.KVar, VarID: groupVar}, countStar()}}

	rt.env.Set(groupVar.ID, cyvalue.Str("a"))
	require.NoError(t, rt.accumulate(root))
	require.NoError(t, rt.accumulate(root))
	rt.env.Set(groupVar.ID, cyvalue.Str("b"))
	require.NoError(t, rt.accumulate(root))

	b := rt.barrierFor(root)
	rows := rt.flushAggRows(root, b)
	require.Len(t, rows, 2)

	byKey := map[string]int64{}
	for _, r := range rows {
		byKey[r[0].String] = r[1].Int
	}
	assert.Equal(t, int64(2), byKey["a"])
	assert.Equal(t, int64(1), byKey["b"])
}

func TestDistinctAccumulatorDeduplicates(t *testing.T) {
	acc := &distinctAcc{inner: &countAcc{}, seen: map[uint64]bool{}}
	acc.Add(cyvalue.Int(1))
	acc.Add(cyvalue.Int(1))
	acc.Add(cyvalue.Int(2))
	assert.Equal(t, cyvalue.Int(2), acc.Result())
}

func TestSumAccWidensToFloat(t *testing.T) {
	acc := &sumAcc{}
	acc.Add(cyvalue.Int(1))
	acc.Add(cyvalue.Float(2.5))
	assert.Equal(t, cyvalue.Float(3.5), acc.Result())
}

func TestAvgAccOnEmptyIsNull(t *testing.T) {
	acc := &avgAcc{}
	assert.Equal(t, cyvalue.Null, acc.Result())
}

func TestExtremeAccMinMax(t *testing.T) {
	min := &extremeAcc{want: true}
	min.Add(cyvalue.Int(5))
	min.Add(cyvalue.Int(2))
	min.Add(cyvalue.Int(8))
	assert.Equal(t, cyvalue.Int(2), min.Result())

	max := &extremeAcc{want: false}
	max.Add(cyvalue.Int(5))
	max.Add(cyvalue.Int(2))
	max.Add(cyvalue.Int(8))
	assert.Equal(t, cyvalue.Int(8), max.Result())
}

package cyruntime

import (
	"hash/fnv"
	"sort"
	"strings"

	"github.com/lucidgraph/lucid/pkg/cyplan"
	"github.com/lucidgraph/lucid/pkg/cyvalue"
)

// funcNode unwraps a projection column's DISTINCT wrapper (if any), returning
// the inner call node and whether DISTINCT applied.
func funcNode(c *cyplan.Node) (*cyplan.Node, bool) {
	if c.Kind == cyplan.KDistinct {
		return c.Children[0], true
	}
	return c, false
}

// isAggregateCol reports whether a projection column is an aggregate slot
// (as opposed to a group-key expression).
func isAggregateCol(c *cyplan.Node) bool {
	inner, _ := funcNode(c)
	if inner.Kind != cyplan.KFuncInvocation {
		return false
	}
	e, ok := lookup(inner.Func)
	return ok && e.kind == KindAggregation
}

func newAccumulatorFor(c *cyplan.Node) Accumulator {
	inner, distinct := funcNode(c)
	var acc Accumulator
	if e, ok := lookup(strings.ToLower(inner.Func)); ok && e.accumulator != nil {
		acc = e.accumulator()
	} else {
		acc = &countAcc{}
	}
	if distinct {
		acc = &distinctAcc{inner: acc, seen: map[uint64]bool{}}
	}
	return acc
}

// aggCols returns a Return/With aggregation node's projected columns (the
// successor, for With*, is never part of this slice).
func aggCols(n *cyplan.Node) []*cyplan.Node {
	if n.Kind == cyplan.KWithAggregation {
		return n.Children[:len(n.Aliases)]
	}
	return n.Children
}

// hashRow hashes the non-aggregate (group-key) columns of a row; a
// projection with no group-key columns at all always hashes to 0, the
// canonical single "whole result set" group.
func hashRow(groupVals []cyvalue.Value, isAgg []bool) uint64 {
	h := fnv.New64a()
	any := false
	for i, v := range groupVals {
		if isAgg[i] {
			continue
		}
		any = true
		b := make([]byte, 8)
		hv := cyvalue.Hash(v)
		for i := 0; i < 8; i++ {
			b[i] = byte(hv >> (8 * i))
		}
		h.Write(b)
	}
	if !any {
		return 0
	}
	return h.Sum64()
}

// accumulate evaluates one pass through a KReturnAggregation/KWithAggregation
// node's projection, folding it into the node's barrier (§4.5 "the runtime
// hashes the group key into agg_ctxs[hash]").
func (rt *Runtime) accumulate(n *cyplan.Node) error {
	cols := aggCols(n)
	isAgg := make([]bool, len(cols))
	groupVals := make([]cyvalue.Value, len(cols))
	for i, c := range cols {
		isAgg[i] = isAggregateCol(c)
		if !isAgg[i] {
			v, err := rt.eval(c)
			if err != nil {
				return err
			}
			groupVals[i] = v
		}
	}
	h := hashRow(groupVals, isAgg)
	b := rt.barrierFor(n)
	bucket, ok := b.aggs[h]
	if !ok {
		bucket = &pendingAgg{groupKey: make([]cyvalue.Value, len(cols)), accs: make([]Accumulator, len(cols))}
		copy(bucket.groupKey, groupVals)
		for i, c := range cols {
			if isAgg[i] {
				bucket.accs[i] = newAccumulatorFor(c)
			}
		}
		b.aggs[h] = bucket
		b.aggKeys = append(b.aggKeys, h)
	}
	for i, c := range cols {
		if !isAgg[i] {
			continue
		}
		inner, _ := funcNode(c)
		var arg cyvalue.Value
		if len(inner.Children) > 0 {
			v, err := rt.eval(inner.Children[0])
			if err != nil {
				return err
			}
			arg = v
		}
		bucket.accs[i].Add(arg)
	}
	return nil
}

// seedAggregationBarriers pre-creates a single empty-group bucket for every
// aggregation node whose projection has no group-key column at all, so that
// "RETURN count(n)" over a graph with zero matches still emits one row
// (count=0) instead of none — matching standard aggregate semantics, where
// a GROUP BY is what makes an empty input produce zero rows, not a bare
// aggregate.
func (rt *Runtime) seedAggregationBarriers(n *cyplan.Node) {
	if n == nil {
		return
	}
	if n.Kind == cyplan.KReturnAggregation || n.Kind == cyplan.KWithAggregation {
		cols := aggCols(n)
		allAgg := true
		for _, c := range cols {
			if !isAggregateCol(c) {
				allAgg = false
				break
			}
		}
		if allAgg {
			b := rt.barrierFor(n)
			if len(b.aggs) == 0 {
				bucket := &pendingAgg{groupKey: make([]cyvalue.Value, len(cols)), accs: make([]Accumulator, len(cols))}
				for i, c := range cols {
					bucket.accs[i] = newAccumulatorFor(c)
				}
				b.aggs[0] = bucket
				b.aggKeys = append(b.aggKeys, 0)
			}
		}
	}
	for _, c := range n.Children {
		rt.seedAggregationBarriers(c)
	}
}

// flushAggRows materializes every bucket in a finished aggregation barrier
// into result rows, group-key columns verbatim and aggregate columns via
// their accumulator's Result.
func (rt *Runtime) flushAggRows(n *cyplan.Node, b *barrier) []Row {
	rows := make([]Row, 0, len(b.aggKeys))
	for _, h := range b.aggKeys {
		bucket := b.aggs[h]
		row := make(Row, len(bucket.groupKey))
		copy(row, bucket.groupKey)
		for i, acc := range bucket.accs {
			if acc != nil {
				row[i] = acc.Result()
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// sortSkipLimit applies a Return/With node's ORDER BY/SKIP/LIMIT to rows
// already produced. ORDER BY expressions are evaluated against each row's
// own output aliases (per validateClause, ORDER BY is validated under the
// post-projection alias scope, never the pre-projection one), so aliases
// are bound fresh for every row before its sort key is computed.
func (rt *Runtime) sortSkipLimit(n *cyplan.Node, rows []Row) ([]Row, error) {
	if n.OrderBy != nil {
		keys := make([]Row, len(rows))
		for i, row := range rows {
			rt.bindAliases(n.Aliases, row)
			key := make(Row, len(n.OrderBy))
			for j, ob := range n.OrderBy {
				v, err := rt.eval(ob)
				if err != nil {
					return nil, err
				}
				key[j] = v
			}
			keys[i] = key
		}
		idx := make([]int, len(rows))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool {
			ka, kb := keys[idx[a]], keys[idx[b]]
			for j := range ka {
				less, equal, ok := cyvalue.Compare(ka[j], kb[j])
				if !ok || equal {
					continue
				}
				if n.Descending[j] {
					return !less
				}
				return less
			}
			return false
		})
		sorted := make([]Row, len(rows))
		for i, j := range idx {
			sorted[i] = rows[j]
		}
		rows = sorted
	}
	if n.Skip != nil {
		v, err := rt.eval(n.Skip)
		if err != nil {
			return nil, err
		}
		skip := int(v.Int)
		if skip > len(rows) {
			skip = len(rows)
		}
		if skip > 0 {
			rows = rows[skip:]
		}
	}
	if n.Limit != nil {
		v, err := rt.eval(n.Limit)
		if err != nil {
			return nil, err
		}
		limit := int(v.Int)
		if limit < len(rows) {
			rows = rows[:limit]
		}
	}
	return rows, nil
}

package cyruntime

import "github.com/lucidgraph/lucid/pkg/cyvalue"

// Accumulator folds a stream of per-row values into one aggregate result
// (§4.5 "Aggregation handlers receive (value, accumulator) and return the
// new accumulator" — expressed here as a stateful object rather than a
// pure function, which is the idiomatic Go shape for the same contract).
type Accumulator interface {
	Add(v cyvalue.Value)
	Result() cyvalue.Value
}

// countAcc counts non-null values added to it; count(*) feeds it the
// always-non-null KStar sentinel so every row counts regardless of whether
// any particular column is null.
type countAcc struct{ n int64 }

func (a *countAcc) Add(v cyvalue.Value) {
	if !v.IsNull() {
		a.n++
	}
}
func (a *countAcc) Result() cyvalue.Value { return cyvalue.Int(a.n) }

// sumAcc accumulates numeric values, widening to float once any addend is
// a float; non-numeric, non-null values are ignored (Cypher's sum() only
// operates on numbers).
type sumAcc struct {
	isFloat  bool
	intSum   int64
	floatSum float64
}

func (a *sumAcc) Add(v cyvalue.Value) {
	switch v.Kind {
	case cyvalue.KindInt:
		if a.isFloat {
			a.floatSum += float64(v.Int)
		} else {
			a.intSum += v.Int
		}
	case cyvalue.KindFloat:
		if !a.isFloat {
			a.floatSum = float64(a.intSum)
			a.isFloat = true
		}
		a.floatSum += v.Float
	}
}
func (a *sumAcc) Result() cyvalue.Value {
	if a.isFloat {
		return cyvalue.Float(a.floatSum)
	}
	return cyvalue.Int(a.intSum)
}

// avgAcc tracks running sum and count, dividing at Result time so floats
// and ints both widen consistently with sumAcc.
type avgAcc struct {
	sum   sumAcc
	count int64
}

func (a *avgAcc) Add(v cyvalue.Value) {
	if v.Kind != cyvalue.KindInt && v.Kind != cyvalue.KindFloat {
		return
	}
	a.sum.Add(v)
	a.count++
}
func (a *avgAcc) Result() cyvalue.Value {
	if a.count == 0 {
		return cyvalue.Null
	}
	total := a.sum.Result()
	if total.Kind == cyvalue.KindInt {
		return cyvalue.Float(float64(total.Int) / float64(a.count))
	}
	return cyvalue.Float(total.Float / float64(a.count))
}

// extremeAcc implements both min() and max() by keeping the current
// extreme value under cyvalue.Compare's total order, skipping null.
type extremeAcc struct {
	want   bool // true selects the minimum, false the maximum
	have   bool
	cur    cyvalue.Value
}

func (a *extremeAcc) Add(v cyvalue.Value) {
	if v.IsNull() {
		return
	}
	if !a.have {
		a.cur, a.have = v, true
		return
	}
	less, _, ok := cyvalue.Compare(v, a.cur)
	if !ok {
		return
	}
	if (a.want && less) || (!a.want && !less) {
		a.cur = v
	}
}
func (a *extremeAcc) Result() cyvalue.Value {
	if !a.have {
		return cyvalue.Null
	}
	return a.cur
}

// collectAcc gathers every non-null value added, in arrival order.
type collectAcc struct{ items []cyvalue.Value }

func (a *collectAcc) Add(v cyvalue.Value) {
	if !v.IsNull() {
		a.items = append(a.items, v)
	}
}
func (a *collectAcc) Result() cyvalue.Value { return cyvalue.List(a.items) }

// distinctAcc wraps another accumulator, deduplicating (by cyvalue.Hash)
// before values reach it — the runtime's handling of count(DISTINCT x) and
// friends.
type distinctAcc struct {
	inner Accumulator
	seen  map[uint64]bool
}

func (a *distinctAcc) Add(v cyvalue.Value) {
	if v.IsNull() {
		return
	}
	h := cyvalue.Hash(v)
	if a.seen[h] {
		return
	}
	a.seen[h] = true
	a.inner.Add(v)
}
func (a *distinctAcc) Result() cyvalue.Value { return a.inner.Result() }

func registerAggregations() {
	register(entry{name: "count", min: 1, max: 1, kind: KindAggregation, accumulator: func() Accumulator { return &countAcc{} }})
	register(entry{name: "sum", min: 1, max: 1, kind: KindAggregation, accumulator: func() Accumulator { return &sumAcc{} }})
	register(entry{name: "avg", min: 1, max: 1, kind: KindAggregation, accumulator: func() Accumulator { return &avgAcc{} }})
	register(entry{name: "min", min: 1, max: 1, kind: KindAggregation, accumulator: func() Accumulator { return &extremeAcc{want: true} }})
	register(entry{name: "max", min: 1, max: 1, kind: KindAggregation, accumulator: func() Accumulator { return &extremeAcc{want: false} }})
	register(entry{name: "collect", min: 1, max: 1, kind: KindAggregation, accumulator: func() Accumulator { return &collectAcc{} }})
}

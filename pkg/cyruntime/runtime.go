package cyruntime

import (
	"fmt"

	"github.com/lucidgraph/lucid/pkg/cyerr"
	"github.com/lucidgraph/lucid/pkg/cyparse"
	"github.com/lucidgraph/lucid/pkg/cyplan"
	"github.com/lucidgraph/lucid/pkg/cyvalue"
	"github.com/lucidgraph/lucid/pkg/graphstore"
)

// Row is one emitted result row: one value per RETURN/WITH projection
// column.
type Row []cyvalue.Value

// Emit receives one result row per call, in emission order.
type Emit func(Row)

// pendingAgg holds one grouped accumulator bucket, keyed by the hash of its
// non-aggregate projection values.
type pendingAgg struct {
	groupKey []cyvalue.Value
	accs     []Accumulator
}

// barrier buffers what a KReturn/KReturnAggregation/KWithProject/
// KWithAggregation node has produced so far; it can only be drained once the
// loop(s) feeding it have finished (§4.5 "ReturnAggregation first evaluates
// the projection... then... emits... and clears the table").
type barrier struct {
	rows    []Row
	aggs    map[uint64]*pendingAgg
	aggKeys []uint64
	flushed bool
}

// Runtime interprets one compiled plan tree against a graph (§4.5). It owns
// the parameter table, read-only flag, pending write buffer, aggregation
// contexts, the open-iterator stack, and query statistics.
type Runtime struct {
	Graph    *graphstore.Graph
	Pending  *graphstore.Pending
	Params   map[string]cyvalue.Value
	ReadOnly bool
	Stats    *graphstore.Stats

	env *Env

	nodeIters []*nodeIter
	edgeIters []*edgeIter

	barriers map[*cyplan.Node]*barrier
}

// New returns a Runtime ready to interpret a plan against g.
func New(g *graphstore.Graph, params map[string]cyvalue.Value, readOnly bool) *Runtime {
	Init()
	if params == nil {
		params = map[string]cyvalue.Value{}
	}
	return &Runtime{
		Graph:    g,
		Pending:  graphstore.NewPending(g),
		Params:   params,
		ReadOnly: readOnly,
		Stats:    &graphstore.Stats{},
		env:      NewEnv(),
		barriers: make(map[*cyplan.Node]*barrier),
	}
}

// Run interprets root, invoking emit for every result row produced (by a
// streaming RETURN/WITH, or once rows are drained from a buffering one), and
// finally commits Pending to the graph if the runtime is not read-only.
func (rt *Runtime) Run(root *cyplan.Node, emit Emit) error {
	rt.seedAggregationBarriers(root)
	if err := rt.exec(root, emit); err != nil {
		return err
	}
	if err := rt.drain(emit); err != nil {
		return err
	}
	if !rt.ReadOnly {
		rt.Pending.Commit(rt.Stats)
	}
	return nil
}

func (rt *Runtime) barrierFor(n *cyplan.Node) *barrier {
	b, ok := rt.barriers[n]
	if !ok {
		b = &barrier{aggs: make(map[uint64]*pendingAgg)}
		rt.barriers[n] = b
	}
	return b
}

// drain repeatedly flushes any barrier not yet flushed, until a full pass
// produces no newly-flushed entries: replaying a barrier's rows through its
// successor can create further nested barriers, which the next pass catches.
// This converges because each replay only ever creates barriers strictly
// inside the one just flushed. A barrier that lies below another barrier not
// yet flushed waits for it, since replaying the outer one may still feed it
// rows.
func (rt *Runtime) drain(emit Emit) error {
	var below func(outer, n *cyplan.Node) bool
	below = func(outer, n *cyplan.Node) bool {
		for _, c := range outer.Children {
			if c == n || (c != nil && below(c, n)) {
				return true
			}
		}
		return false
	}
	for {
		progressed := false
		for node, b := range rt.barriers {
			blocked := false
			for outer, ob := range rt.barriers {
				blocked = blocked || (!ob.flushed && outer != node && below(outer, node))
			}
			if b.flushed || blocked {
				continue
			}
			b.flushed = true
			progressed = true
			if err := rt.flushBarrier(node, b, emit); err != nil {
				return err
			}
		}
		if !progressed {
			return nil
		}
	}
}

func (rt *Runtime) flushBarrier(node *cyplan.Node, b *barrier, emit Emit) error {
	switch node.Kind {
	case cyplan.KReturn:
		rows, err := rt.sortSkipLimit(node, b.rows)
		if err != nil {
			return err
		}
		for _, row := range rows {
			emit(row)
		}
		return nil
	case cyplan.KReturnAggregation:
		rows, err := rt.sortSkipLimit(node, rt.flushAggRows(node, b))
		if err != nil {
			return err
		}
		for _, row := range rows {
			emit(row)
		}
		return nil
	case cyplan.KWithProject:
		rows, err := rt.sortSkipLimit(node, b.rows)
		if err != nil {
			return err
		}
		successor := node.Children[len(node.Aliases)]
		for _, row := range rows {
			rt.bindAliases(node.Aliases, row)
			if err := rt.exec(successor, emit); err != nil {
				return err
			}
		}
		return nil
	case cyplan.KWithAggregation:
		rows, err := rt.sortSkipLimit(node, rt.flushAggRows(node, b))
		if err != nil {
			return err
		}
		successor := node.Children[len(node.Aliases)]
		for _, row := range rows {
			rt.bindAliases(node.Aliases, row)
			if err := rt.exec(successor, emit); err != nil {
				return err
			}
		}
		return nil
	default:
		return &cyerr.RuntimeError{Msg: fmt.Sprintf("unreachable: barrier on node kind %d", node.Kind)}
	}
}

func (rt *Runtime) bindAliases(aliases []cyparse.VarId, row Row) {
	for i, a := range aliases {
		if i < len(row) {
			rt.env.Set(a.ID, row[i])
		}
	}
}

// exec interprets a control-flow/statement node. Expression-kind nodes are
// only ever reached here as a bare statement (e.g. a write FuncInvocation
// used for its side effect); exec dispatches those to eval and discards the
// value.
func (rt *Runtime) exec(n *cyplan.Node, emit Emit) error {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case cyplan.KBlock:
		for _, c := range n.Children {
			if err := rt.exec(c, emit); err != nil {
				return err
			}
		}
		return nil

	case cyplan.KSet:
		v, err := rt.eval(n.Children[0])
		if err != nil {
			return err
		}
		rt.env.Set(n.VarID.ID, v)
		return nil

	case cyplan.KIf:
		cond, err := rt.eval(n.Children[0])
		if err != nil {
			return err
		}
		if cond.IsTrue() {
			return rt.exec(n.Children[1], emit)
		}
		if len(n.Children) > 2 {
			return rt.exec(n.Children[2], emit)
		}
		return nil

	case cyplan.KFor:
		init, cond, step, body := n.Children[0], n.Children[1], n.Children[2], n.Children[3]
		if err := rt.exec(init, emit); err != nil {
			return err
		}
		for {
			cv, err := rt.eval(cond)
			if err != nil {
				return err
			}
			if !cv.IsTrue() {
				return nil
			}
			if err := rt.exec(body, emit); err != nil {
				return err
			}
			if err := rt.exec(step, emit); err != nil {
				return err
			}
		}

	case cyplan.KReturn:
		row, err := rt.evalRow(n)
		if err != nil {
			return err
		}
		if n.OrderBy != nil || n.Skip != nil || n.Limit != nil {
			b := rt.barrierFor(n)
			b.rows = append(b.rows, row)
			return nil
		}
		emit(row)
		return nil

	case cyplan.KReturnAggregation:
		return rt.accumulate(n)

	case cyplan.KWithProject:
		if n.OrderBy != nil || n.Skip != nil || n.Limit != nil {
			row, err := rt.evalRow(n)
			if err != nil {
				return err
			}
			b := rt.barrierFor(n)
			b.rows = append(b.rows, row)
			return nil
		}
		row, err := rt.evalRow(n)
		if err != nil {
			return err
		}
		rt.bindAliases(n.Aliases, row)
		return rt.exec(n.Children[len(n.Aliases)], emit)

	case cyplan.KWithAggregation:
		return rt.accumulate(n)

	default:
		// A bare expression used as a statement (e.g. delete_entity(...)).
		_, err := rt.eval(n)
		return err
	}
}

// evalRow evaluates a Return/With node's projected columns in order.
func (rt *Runtime) evalRow(n *cyplan.Node) (Row, error) {
	cols := n.Children
	if n.Kind == cyplan.KWithProject || n.Kind == cyplan.KWithAggregation {
		cols = n.Children[:len(n.Aliases)]
	}
	row := make(Row, len(cols))
	for i, c := range cols {
		v, err := rt.eval(c)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

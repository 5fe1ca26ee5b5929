package cyplan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lucidgraph/lucid/pkg/cyparse"
)

// aggregationNames is the set of function names that mark a projection as
// grouping, mirroring the Aggregation-kind entries in cyruntime's function
// registry. The planner only needs to know their names to decide Return vs.
// ReturnAggregation; the actual accumulation logic lives in cyruntime.
var aggregationNames = map[string]bool{
	"collect": true, "count": true, "sum": true, "max": true, "min": true, "avg": true,
}

// Planner compiles one validated cyparse.Query into a single IR tree. A
// fresh Planner's variable counter starts above every VarId the parser
// already assigned, so its own temporaries (loop iterators, unwind
// temporaries) never collide with a query-text variable.
type Planner struct {
	nextID uint32
	anon   int
}

// NewPlanner returns a Planner whose temporaries start above every VarId
// used anywhere in q.
func NewPlanner(q *cyparse.Query) *Planner {
	return &Planner{nextID: maxVarID(q)}
}

// Plan compiles q into its execution IR tree.
func Plan(q *cyparse.Query) (*Node, error) {
	p := NewPlanner(q)
	return p.compileClauses(q.Clauses, 0)
}

func (p *Planner) freshVar(prefix string) cyparse.VarId {
	p.nextID++
	p.anon++
	return cyparse.VarId{Name: fmt.Sprintf("@%s%d", prefix, p.anon), ID: p.nextID}
}

func maxVarID(q *cyparse.Query) uint32 {
	var max uint32
	upd := func(v cyparse.VarId) {
		if v.ID > max {
			max = v.ID
		}
	}
	var walkExpr func(e *cyparse.Expr)
	walkExpr = func(e *cyparse.Expr) {
		if e == nil {
			return
		}
		upd(e.Var)
		for _, c := range e.Children {
			walkExpr(c)
		}
	}
	for _, c := range q.Clauses {
		for _, n := range c.Pattern.Nodes {
			upd(n.Alias)
			for _, v := range n.Attrs {
				walkExpr(v)
			}
		}
		for _, r := range c.Pattern.Relationships {
			upd(r.Alias)
			upd(r.From)
			upd(r.To)
			for _, v := range r.Attrs {
				walkExpr(v)
			}
		}
		for _, path := range c.Pattern.Paths {
			upd(path.Var)
			for _, v := range path.Vars {
				upd(v)
			}
		}
		upd(c.UnwindVar)
		walkExpr(c.UnwindList)
		walkExpr(c.Where)
		for _, e := range c.DeleteExprs {
			walkExpr(e)
		}
		for _, si := range c.SetItems {
			walkExpr(si.Target)
			walkExpr(si.Value)
		}
		for _, e := range c.RemoveExprs {
			walkExpr(e)
		}
		for _, e := range c.Projection.Exprs {
			walkExpr(e)
		}
		for _, ob := range c.Projection.OrderBy {
			walkExpr(ob.Expr)
		}
		walkExpr(c.Projection.Skip)
		walkExpr(c.Projection.Limit)
		for _, e := range c.CallArgs {
			walkExpr(e)
		}
	}
	for _, e := range q.Params {
		walkExpr(e)
	}
	return max
}

func (p *Planner) compileClauses(clauses []*cyparse.Clause, idx int) (*Node, error) {
	if idx >= len(clauses) {
		return &Node{Kind: KBlock}, nil
	}
	c := clauses[idx]
	switch c.Kind {
	case cyparse.ClauseMatch, cyparse.ClauseOptionalMatch:
		succ, err := p.compileClauses(clauses, idx+1)
		if err != nil {
			return nil, err
		}
		return p.compileMatch(c.Pattern, succ)
	case cyparse.ClauseMerge:
		succ, err := p.compileClauses(clauses, idx+1)
		if err != nil {
			return nil, err
		}
		return p.compileMerge(c.Pattern, succ)
	case cyparse.ClauseUnwind:
		succ, err := p.compileClauses(clauses, idx+1)
		if err != nil {
			return nil, err
		}
		return p.compileUnwind(c.UnwindList, c.UnwindVar, succ), nil
	case cyparse.ClauseCreate:
		succ, err := p.compileClauses(clauses, idx+1)
		if err != nil {
			return nil, err
		}
		return p.compileCreate(c.Pattern, succ), nil
	case cyparse.ClauseWhere:
		succ, err := p.compileClauses(clauses, idx+1)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KIf, Children: []*Node{compileExpr(c.Where), succ}}, nil
	case cyparse.ClauseDelete, cyparse.ClauseDetachDelete:
		succ, err := p.compileClauses(clauses, idx+1)
		if err != nil {
			return nil, err
		}
		detach := &Node{Kind: KBool, BoolV: c.Kind == cyparse.ClauseDetachDelete}
		args := append([]*Node{detach}, compileExprs(c.DeleteExprs)...)
		call := &Node{Kind: KFuncInvocation, Func: "delete_entity", Children: args}
		return &Node{Kind: KBlock, Children: []*Node{call, succ}}, nil
	case cyparse.ClauseSet:
		succ, err := p.compileClauses(clauses, idx+1)
		if err != nil {
			return nil, err
		}
		return p.compileSet(c.SetItems, succ), nil
	case cyparse.ClauseRemove:
		succ, err := p.compileClauses(clauses, idx+1)
		if err != nil {
			return nil, err
		}
		return p.compileRemove(c.RemoveExprs, succ), nil
	case cyparse.ClauseWith:
		succ, err := p.compileClauses(clauses, idx+1)
		if err != nil {
			return nil, err
		}
		return p.compileWith(c.Projection, succ), nil
	case cyparse.ClauseReturn:
		return p.compileReturn(c.Projection), nil
	case cyparse.ClauseCall:
		succ, err := p.compileClauses(clauses, idx+1)
		if err != nil {
			return nil, err
		}
		return p.compileCall(c, succ), nil
	default:
		return nil, fmt.Errorf("unhandled clause kind %d", c.Kind)
	}
}

// --- expressions ---

func compileExprs(in []*cyparse.Expr) []*Node {
	out := make([]*Node, len(in))
	for i, e := range in {
		out[i] = compileExpr(e)
	}
	return out
}

func compileExpr(e *cyparse.Expr) *Node {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case cyparse.ExprNull:
		return lit(KNull)
	case cyparse.ExprBool:
		return &Node{Kind: KBool, BoolV: e.Bool}
	case cyparse.ExprInteger:
		return &Node{Kind: KInt, IntV: e.Int}
	case cyparse.ExprFloat:
		return &Node{Kind: KFloat, FloatV: e.Float}
	case cyparse.ExprString:
		return &Node{Kind: KString, StrV: e.Str}
	case cyparse.ExprList:
		return &Node{Kind: KList, Children: compileExprs(e.Children)}
	case cyparse.ExprMap:
		return &Node{Kind: KMap, MapKeys: e.MapKeys, Children: compileExprs(e.Children)}
	case cyparse.ExprVar:
		return &Node{Kind: KVar, VarID: e.Var}
	case cyparse.ExprParameter:
		return &Node{Kind: KParameter, Param: e.Param}
	case cyparse.ExprProperty:
		return &Node{Kind: KFuncInvocation, Func: "property", Children: []*Node{compileExpr(e.Children[0]), {Kind: KString, StrV: e.Key}}}
	case cyparse.ExprLength:
		return &Node{Kind: KLength, Children: []*Node{compileExpr(e.Children[0])}}
	case cyparse.ExprGetElement:
		return &Node{Kind: KGetElement, Children: compileExprs(e.Children)}
	case cyparse.ExprGetElements:
		return &Node{Kind: KGetElements, HasStart: e.HasStart, HasEnd: e.HasEnd, Children: compileExprs(e.Children)}
	case cyparse.ExprIsNode:
		return &Node{Kind: KIsNode, Children: []*Node{compileExpr(e.Children[0])}}
	case cyparse.ExprIsRelationship:
		return &Node{Kind: KIsRelationship, Children: []*Node{compileExpr(e.Children[0])}}
	case cyparse.ExprIsNull:
		return &Node{Kind: KIsNull, Children: []*Node{compileExpr(e.Children[0])}}
	case cyparse.ExprOr:
		return &Node{Kind: KOr, Children: compileExprs(e.Children)}
	case cyparse.ExprXor:
		return &Node{Kind: KXor, Children: compileExprs(e.Children)}
	case cyparse.ExprAnd:
		return &Node{Kind: KAnd, Children: compileExprs(e.Children)}
	case cyparse.ExprNot:
		return &Node{Kind: KNot, Children: []*Node{compileExpr(e.Children[0])}}
	case cyparse.ExprNegate:
		return &Node{Kind: KNegate, Children: []*Node{compileExpr(e.Children[0])}}
	case cyparse.ExprEq:
		return &Node{Kind: KEq, Children: compileExprs(e.Children)}
	case cyparse.ExprNeq:
		return &Node{Kind: KNeq, Children: compileExprs(e.Children)}
	case cyparse.ExprLt:
		return &Node{Kind: KLt, Children: compileExprs(e.Children)}
	case cyparse.ExprGt:
		return &Node{Kind: KGt, Children: compileExprs(e.Children)}
	case cyparse.ExprLe:
		return &Node{Kind: KLe, Children: compileExprs(e.Children)}
	case cyparse.ExprGe:
		return &Node{Kind: KGe, Children: compileExprs(e.Children)}
	case cyparse.ExprIn:
		return &Node{Kind: KIn, Children: compileExprs(e.Children)}
	case cyparse.ExprAdd:
		return &Node{Kind: KAdd, Children: compileExprs(e.Children)}
	case cyparse.ExprSub:
		return &Node{Kind: KSub, Children: compileExprs(e.Children)}
	case cyparse.ExprMul:
		return &Node{Kind: KMul, Children: compileExprs(e.Children)}
	case cyparse.ExprDiv:
		return &Node{Kind: KDiv, Children: compileExprs(e.Children)}
	case cyparse.ExprPow:
		return &Node{Kind: KPow, Children: compileExprs(e.Children)}
	case cyparse.ExprModulo:
		return &Node{Kind: KModulo, Children: compileExprs(e.Children)}
	case cyparse.ExprDistinct:
		return &Node{Kind: KDistinct, VarID: e.Var, Children: []*Node{compileExpr(e.Children[0])}}
	case cyparse.ExprFuncInvocation:
		return &Node{Kind: KFuncInvocation, Func: e.Func, Children: compileExprs(e.Children)}
	case cyparse.ExprQuantifier:
		return &Node{Kind: KQuantifier, QuantType: e.Quant, VarID: e.Var, Children: compileExprs(e.Children)}
	case cyparse.ExprListComprehension:
		return &Node{Kind: KListComprehension, VarID: e.Var, Children: compileExprs(e.Children)}
	case cyparse.ExprNamed:
		return compileExpr(e.Children[0])
	case cyparse.ExprStar:
		return lit(KStar)
	default:
		return lit(KNull)
	}
}

func stringListNode(ss []string) *Node {
	children := make([]*Node, len(ss))
	for i, s := range ss {
		children[i] = &Node{Kind: KString, StrV: s}
	}
	return &Node{Kind: KList, Children: children}
}

func attrsMapNode(attrs map[string]*cyparse.Expr) *Node {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	children := make([]*Node, len(keys))
	for i, k := range keys {
		children[i] = compileExpr(attrs[k])
	}
	return &Node{Kind: KMap, MapKeys: keys, Children: children}
}

func attrsEqualExpr(alias cyparse.VarId, attrs map[string]*cyparse.Expr) *Node {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	conds := make([]*Node, 0, len(keys))
	for _, k := range keys {
		prop := &Node{Kind: KFuncInvocation, Func: "property", Children: []*Node{{Kind: KVar, VarID: alias}, {Kind: KString, StrV: k}}}
		conds = append(conds, &Node{Kind: KEq, Children: []*Node{prop, compileExpr(attrs[k])}})
	}
	if len(conds) == 1 {
		return conds[0]
	}
	return &Node{Kind: KAnd, Children: conds}
}

// --- MATCH / MERGE / CREATE ---

// compileMatch wraps successor in, from innermost to outermost: a For loop
// per relationship (binding the endpoints it introduces), then a For loop
// per node never touched by a relationship. A node already bound by an
// earlier clause never appears in pattern.Nodes (validateMatchPattern
// prunes it), so every remaining node here genuinely needs a fresh scan.
func (p *Planner) compileMatch(pattern cyparse.Pattern, successor *Node) (*Node, error) {
	freshNodes := make(map[uint32]*cyparse.NodePattern, len(pattern.Nodes))
	for _, n := range pattern.Nodes {
		freshNodes[n.Alias.ID] = n
	}
	endpoint := make(map[uint32]bool)
	for _, r := range pattern.Relationships {
		endpoint[r.From.ID] = true
		endpoint[r.To.ID] = true
	}

	type relPlan struct {
		rel                *cyparse.RelationshipPattern
		srcFresh, dstFresh bool
	}
	boundSoFar := make(map[uint32]bool)
	for id := range freshNodes {
		if !endpoint[id] {
			boundSoFar[id] = true
		}
	}
	plans := make([]relPlan, 0, len(pattern.Relationships))
	for _, r := range pattern.Relationships {
		plans = append(plans, relPlan{r, !boundSoFar[r.From.ID], !boundSoFar[r.To.ID]})
		boundSoFar[r.From.ID] = true
		boundSoFar[r.To.ID] = true
	}

	body := successor
	for i := len(plans) - 1; i >= 0; i-- {
		body = p.compileRelationshipScan(plans[i].rel, plans[i].srcFresh, plans[i].dstFresh, freshNodes, body)
	}
	for i := len(pattern.Nodes) - 1; i >= 0; i-- {
		n := pattern.Nodes[i]
		if endpoint[n.Alias.ID] {
			continue
		}
		body = p.compileNodeScan(n, body)
	}
	for _, path := range pattern.Paths {
		body = compilePathBinding(path, body)
	}
	return body, nil
}

func compilePathBinding(path *cyparse.PathPattern, body *Node) *Node {
	elems := make([]*Node, len(path.Vars))
	for i, v := range path.Vars {
		elems[i] = &Node{Kind: KVar, VarID: v}
	}
	set := &Node{Kind: KSet, VarID: path.Var, Children: []*Node{{Kind: KList, Children: elems}}}
	return &Node{Kind: KBlock, Children: []*Node{set, body}}
}

func (p *Planner) compileNodeScan(node *cyparse.NodePattern, body *Node) *Node {
	iterVar := p.freshVar("iter_" + node.Alias.Name)
	advance := func() *Node {
		next := &Node{Kind: KFuncInvocation, Func: "next_node", Children: []*Node{{Kind: KVar, VarID: iterVar}}}
		return &Node{Kind: KSet, VarID: node.Alias, Children: []*Node{next}}
	}
	initIter := &Node{Kind: KSet, VarID: iterVar, Children: []*Node{
		{Kind: KFuncInvocation, Func: "create_node_iter", Children: []*Node{stringListNode(node.Labels)}},
	}}
	init := &Node{Kind: KBlock, Children: []*Node{initIter, advance()}}
	cond := &Node{Kind: KIsNode, Children: []*Node{{Kind: KVar, VarID: node.Alias}}}
	inner := body
	if len(node.Attrs) > 0 {
		inner = &Node{Kind: KIf, Children: []*Node{attrsEqualExpr(node.Alias, node.Attrs), body}}
	}
	return &Node{Kind: KFor, Children: []*Node{init, cond, advance(), inner}}
}

func labelsFor(alias cyparse.VarId, freshNodes map[uint32]*cyparse.NodePattern) []string {
	if n, ok := freshNodes[alias.ID]; ok {
		return n.Labels
	}
	return nil
}

func anchorExpr(alias cyparse.VarId, fresh bool) *Node {
	if fresh {
		return lit(KNull)
	}
	return &Node{Kind: KVar, VarID: alias}
}

// compileRelationshipScan binds one relationship pattern's edge alias and
// any endpoint aliases it introduces. create_edge_iter/next_edge materialise
// the per-type tensor projection described in the matrix layer's relationship
// scan; already-bound endpoints are passed through as anchors so the
// iterator can filter to matching edges rather than binding a fresh value.
func (p *Planner) compileRelationshipScan(rel *cyparse.RelationshipPattern, srcFresh, dstFresh bool, freshNodes map[uint32]*cyparse.NodePattern, body *Node) *Node {
	srcAlias, dstAlias := rel.From, rel.To
	if !rel.Outgoing {
		srcAlias, dstAlias = rel.To, rel.From
		srcFresh, dstFresh = dstFresh, srcFresh
	}

	iterVar := p.freshVar("iter_" + rel.Alias.Name)
	makeIter := &Node{Kind: KFuncInvocation, Func: "create_edge_iter", Children: []*Node{
		stringListNode(rel.Types),
		stringListNode(labelsFor(srcAlias, freshNodes)),
		stringListNode(labelsFor(dstAlias, freshNodes)),
		anchorExpr(srcAlias, srcFresh),
		anchorExpr(dstAlias, dstFresh),
	}}
	advance := func() *Node {
		next := &Node{Kind: KFuncInvocation, Func: "next_edge", Children: []*Node{{Kind: KVar, VarID: iterVar}}}
		binds := []*Node{{Kind: KSet, VarID: rel.Alias, Children: []*Node{next}}}
		if srcFresh {
			binds = append(binds, &Node{Kind: KSet, VarID: srcAlias, Children: []*Node{
				{Kind: KFuncInvocation, Func: "edge_src", Children: []*Node{{Kind: KVar, VarID: rel.Alias}}},
			}})
		}
		if dstFresh {
			binds = append(binds, &Node{Kind: KSet, VarID: dstAlias, Children: []*Node{
				{Kind: KFuncInvocation, Func: "edge_dst", Children: []*Node{{Kind: KVar, VarID: rel.Alias}}},
			}})
		}
		return &Node{Kind: KBlock, Children: binds}
	}
	initIter := &Node{Kind: KSet, VarID: iterVar, Children: []*Node{makeIter}}
	init := &Node{Kind: KBlock, Children: []*Node{initIter, advance()}}
	cond := &Node{Kind: KIsRelationship, Children: []*Node{{Kind: KVar, VarID: rel.Alias}}}
	inner := body
	if len(rel.Attrs) > 0 {
		inner = &Node{Kind: KIf, Children: []*Node{attrsEqualExpr(rel.Alias, rel.Attrs), body}}
	}
	return &Node{Kind: KFor, Children: []*Node{init, cond, advance(), inner}}
}

// compileMerge pushes find-or-create entirely into the runtime's
// merge_node/merge_relationship write functions rather than compiling
// explicit "try match, fall back to create" control flow: each pattern
// element becomes one call that looks the element up by its exact
// label/attribute (or type/endpoint/attribute) signature and creates it
// only on a miss.
func (p *Planner) compileMerge(pattern cyparse.Pattern, successor *Node) (*Node, error) {
	var stmts []*Node
	for _, n := range pattern.Nodes {
		stmts = append(stmts, &Node{Kind: KSet, VarID: n.Alias, Children: []*Node{
			{Kind: KFuncInvocation, Func: "merge_node", Children: []*Node{stringListNode(n.Labels), attrsMapNode(n.Attrs)}},
		}})
	}
	for _, r := range pattern.Relationships {
		typ := ""
		if len(r.Types) > 0 {
			typ = r.Types[0]
		}
		from, to := r.From, r.To
		if !r.Outgoing {
			from, to = r.To, r.From
		}
		stmts = append(stmts, &Node{Kind: KSet, VarID: r.Alias, Children: []*Node{
			{Kind: KFuncInvocation, Func: "merge_relationship", Children: []*Node{
				{Kind: KString, StrV: typ}, {Kind: KVar, VarID: from}, {Kind: KVar, VarID: to}, attrsMapNode(r.Attrs),
			}},
		}})
	}
	stmts = append(stmts, successor)
	return &Node{Kind: KBlock, Children: stmts}, nil
}

func (p *Planner) compileCreate(pattern cyparse.Pattern, successor *Node) *Node {
	var stmts []*Node
	for _, n := range pattern.Nodes {
		stmts = append(stmts, &Node{Kind: KSet, VarID: n.Alias, Children: []*Node{
			{Kind: KFuncInvocation, Func: "create_node", Children: []*Node{stringListNode(n.Labels), attrsMapNode(n.Attrs)}},
		}})
	}
	for _, r := range pattern.Relationships {
		typ := ""
		if len(r.Types) > 0 {
			typ = r.Types[0]
		}
		from, to := r.From, r.To
		if !r.Outgoing {
			from, to = r.To, r.From
		}
		stmts = append(stmts, &Node{Kind: KSet, VarID: r.Alias, Children: []*Node{
			{Kind: KFuncInvocation, Func: "create_relationship", Children: []*Node{
				{Kind: KString, StrV: typ}, {Kind: KVar, VarID: from}, {Kind: KVar, VarID: to}, attrsMapNode(r.Attrs),
			}},
		}})
	}
	for _, path := range pattern.Paths {
		successor = compilePathBinding(path, successor)
	}
	stmts = append(stmts, successor)
	return &Node{Kind: KBlock, Children: stmts}
}

// --- UNWIND ---

func (p *Planner) compileUnwind(listExpr *cyparse.Expr, v cyparse.VarId, successor *Node) *Node {
	if listExpr.Kind == cyparse.ExprFuncInvocation && strings.EqualFold(listExpr.Func, "range") {
		args := listExpr.Children
		var from, to, step *Node
		switch len(args) {
		case 2:
			from, to = compileExpr(args[0]), compileExpr(args[1])
			step = &Node{Kind: KInt, IntV: 1}
		case 3:
			from, to, step = compileExpr(args[0]), compileExpr(args[1]), compileExpr(args[2])
		default:
			return p.compileUnwindList(listExpr, v, successor)
		}
		init := &Node{Kind: KSet, VarID: v, Children: []*Node{from}}
		cond := &Node{Kind: KLe, Children: []*Node{{Kind: KVar, VarID: v}, to}}
		stepNode := &Node{Kind: KSet, VarID: v, Children: []*Node{{Kind: KAdd, Children: []*Node{{Kind: KVar, VarID: v}, step}}}}
		return &Node{Kind: KFor, Children: []*Node{init, cond, stepNode, successor}}
	}
	return p.compileUnwindList(listExpr, v, successor)
}

func (p *Planner) compileUnwindList(listExpr *cyparse.Expr, v cyparse.VarId, successor *Node) *Node {
	tmp := p.freshVar("unwind")
	idx := p.freshVar("idx")
	init := &Node{Kind: KBlock, Children: []*Node{
		{Kind: KSet, VarID: tmp, Children: []*Node{compileExpr(listExpr)}},
		{Kind: KSet, VarID: idx, Children: []*Node{{Kind: KInt, IntV: 0}}},
	}}
	cond := &Node{Kind: KLt, Children: []*Node{{Kind: KVar, VarID: idx}, {Kind: KLength, Children: []*Node{{Kind: KVar, VarID: tmp}}}}}
	step := &Node{Kind: KSet, VarID: idx, Children: []*Node{{Kind: KAdd, Children: []*Node{{Kind: KVar, VarID: idx}, {Kind: KInt, IntV: 1}}}}}
	bind := &Node{Kind: KSet, VarID: v, Children: []*Node{{Kind: KGetElement, Children: []*Node{{Kind: KVar, VarID: tmp}, {Kind: KVar, VarID: idx}}}}}
	body := &Node{Kind: KBlock, Children: []*Node{bind, successor}}
	return &Node{Kind: KFor, Children: []*Node{init, cond, step, body}}
}

// --- SET / REMOVE / DELETE ---

func (p *Planner) compileSet(items []cyparse.SetItem, successor *Node) *Node {
	stmts := make([]*Node, 0, len(items)+1)
	for _, it := range items {
		fn := "set_property"
		if it.Merge {
			fn = "merge_property"
		}
		switch it.Target.Kind {
		case cyparse.ExprVar:
			stmts = append(stmts, &Node{Kind: KFuncInvocation, Func: fn + "_all", Children: []*Node{compileExpr(it.Target), compileExpr(it.Value)}})
		case cyparse.ExprProperty:
			entity := compileExpr(it.Target.Children[0])
			key := &Node{Kind: KString, StrV: it.Target.Key}
			stmts = append(stmts, &Node{Kind: KFuncInvocation, Func: fn, Children: []*Node{entity, key, compileExpr(it.Value)}})
		}
	}
	stmts = append(stmts, successor)
	return &Node{Kind: KBlock, Children: stmts}
}

func (p *Planner) compileRemove(exprs []*cyparse.Expr, successor *Node) *Node {
	stmts := make([]*Node, 0, len(exprs)+1)
	for _, e := range exprs {
		if e.Kind == cyparse.ExprProperty {
			entity := compileExpr(e.Children[0])
			key := &Node{Kind: KString, StrV: e.Key}
			stmts = append(stmts, &Node{Kind: KFuncInvocation, Func: "remove_property", Children: []*Node{entity, key}})
		}
	}
	stmts = append(stmts, successor)
	return &Node{Kind: KBlock, Children: stmts}
}

// --- WITH / RETURN ---

func projectionIsAggregate(exprs []*cyparse.Expr) bool {
	var has func(e *cyparse.Expr) bool
	has = func(e *cyparse.Expr) bool {
		if e == nil {
			return false
		}
		if e.Kind == cyparse.ExprFuncInvocation && aggregationNames[strings.ToLower(e.Func)] {
			return true
		}
		if e.Kind == cyparse.ExprDistinct {
			return has(e.Children[0])
		}
		for _, c := range e.Children {
			if has(c) {
				return true
			}
		}
		return false
	}
	for _, e := range exprs {
		if has(e) {
			return true
		}
	}
	return false
}

func projectionAliases(exprs []*cyparse.Expr) []cyparse.VarId {
	out := make([]cyparse.VarId, len(exprs))
	for i, e := range exprs {
		out[i] = e.Var
	}
	return out
}

func orderByNodes(items []cyparse.OrderItem) ([]*Node, []bool) {
	if len(items) == 0 {
		return nil, nil
	}
	nodes := make([]*Node, len(items))
	desc := make([]bool, len(items))
	for i, it := range items {
		nodes[i] = compileExpr(it.Expr)
		desc[i] = it.Descending
	}
	return nodes, desc
}

func (p *Planner) compileReturn(proj cyparse.Projection) *Node {
	kind := KReturn
	if projectionIsAggregate(proj.Exprs) {
		kind = KReturnAggregation
	}
	ob, desc := orderByNodes(proj.OrderBy)
	return &Node{
		Kind:       kind,
		Aliases:    projectionAliases(proj.Exprs),
		Children:   compileExprs(proj.Exprs),
		OrderBy:    ob,
		Descending: desc,
		Skip:       compileExpr(proj.Skip),
		Limit:      compileExpr(proj.Limit),
	}
}

func (p *Planner) compileWith(proj cyparse.Projection, successor *Node) *Node {
	kind := KWithProject
	if projectionIsAggregate(proj.Exprs) {
		kind = KWithAggregation
	}
	ob, desc := orderByNodes(proj.OrderBy)
	children := append(compileExprs(proj.Exprs), successor)
	return &Node{
		Kind:       kind,
		Aliases:    projectionAliases(proj.Exprs),
		Children:   children,
		OrderBy:    ob,
		Descending: desc,
		Skip:       compileExpr(proj.Skip),
		Limit:      compileExpr(proj.Limit),
	}
}

// --- CALL ---

func (p *Planner) compileCall(c *cyparse.Clause, successor *Node) *Node {
	rowsVar := p.freshVar("rows")
	idx := p.freshVar("call_idx")
	rowVar := p.freshVar("row")
	call := &Node{Kind: KFuncInvocation, Func: c.CallName, Children: compileExprs(c.CallArgs)}
	init := &Node{Kind: KBlock, Children: []*Node{
		{Kind: KSet, VarID: rowsVar, Children: []*Node{call}},
		{Kind: KSet, VarID: idx, Children: []*Node{{Kind: KInt, IntV: 0}}},
	}}
	cond := &Node{Kind: KLt, Children: []*Node{{Kind: KVar, VarID: idx}, {Kind: KLength, Children: []*Node{{Kind: KVar, VarID: rowsVar}}}}}
	step := &Node{Kind: KSet, VarID: idx, Children: []*Node{{Kind: KAdd, Children: []*Node{{Kind: KVar, VarID: idx}, {Kind: KInt, IntV: 1}}}}}
	bind := &Node{Kind: KSet, VarID: rowVar, Children: []*Node{{Kind: KGetElement, Children: []*Node{{Kind: KVar, VarID: rowsVar}, {Kind: KVar, VarID: idx}}}}}
	body := &Node{Kind: KBlock, Children: []*Node{bind, successor}}
	return &Node{Kind: KFor, Children: []*Node{init, cond, step, body}}
}

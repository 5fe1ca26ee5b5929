package cyruntime

import (
	"regexp"
	"strings"

	"github.com/lucidgraph/lucid/pkg/cyvalue"
)

func stringsFromList(v cyvalue.Value) []string {
	if v.Kind != cyvalue.KindList {
		return nil
	}
	out := make([]string, 0, len(v.List))
	for _, e := range v.List {
		if e.Kind == cyvalue.KindString {
			out = append(out, e.String)
		}
	}
	return out
}

func internalProperty(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	entity, key := args[0], args[1]
	if entity.IsNull() {
		return cyvalue.Null, nil
	}
	if key.Kind != cyvalue.KindString {
		return cyvalue.Null, typeMismatch("String", key)
	}
	attrID, ok := rt.Graph.LookupAttr(key.String)
	if !ok {
		return cyvalue.Null, nil
	}
	switch entity.Kind {
	case cyvalue.KindNode:
		return rt.Pending.NodeAttr(entity.Node, attrID), nil
	case cyvalue.KindRelationship:
		return rt.Pending.RelAttr(entity.RelID, attrID), nil
	default:
		return cyvalue.Null, typeMismatch("Node or Relationship", entity)
	}
}

func internalCreateNodeIter(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	labels := stringsFromList(args[0])
	sel := rt.Graph.ScanNodesByLabels(labels)
	rt.nodeIters = append(rt.nodeIters, newNodeIter(sel))
	return cyvalue.Int(int64(len(rt.nodeIters) - 1)), nil
}

func internalNextNode(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	idx := int(args[0].Int)
	if idx < 0 || idx >= len(rt.nodeIters) {
		return cyvalue.Null, nil
	}
	it := rt.nodeIters[idx]
	for {
		id, ok := it.next()
		if !ok {
			return cyvalue.Null, nil
		}
		if rt.Pending.IsLiveNode(id) {
			return cyvalue.Node(id), nil
		}
	}
}

func internalCreateEdgeIter(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	types := stringsFromList(args[0])
	srcLabels := stringsFromList(args[1])
	dstLabels := stringsFromList(args[2])
	srcAnchor, dstAnchor := args[3], args[4]
	triples := rt.Graph.ScanEdges(types, srcLabels, dstLabels)
	out := make([]edgeTriple, 0, len(triples))
	for _, t := range triples {
		if srcAnchor.Kind == cyvalue.KindNode && t.Src != srcAnchor.Node {
			continue
		}
		if dstAnchor.Kind == cyvalue.KindNode && t.Dst != dstAnchor.Node {
			continue
		}
		if !rt.Pending.IsLiveRelationship(t.ID) {
			continue
		}
		out = append(out, edgeTriple{src: t.Src, id: t.ID, dst: t.Dst})
	}
	rt.edgeIters = append(rt.edgeIters, &edgeIter{triples: out})
	return cyvalue.Int(int64(len(rt.edgeIters) - 1)), nil
}

func internalNextEdge(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	idx := int(args[0].Int)
	if idx < 0 || idx >= len(rt.edgeIters) {
		return cyvalue.Null, nil
	}
	t, ok := rt.edgeIters[idx].next()
	if !ok {
		return cyvalue.Null, nil
	}
	return cyvalue.Relationship(t.id, t.src, t.dst), nil
}

func internalEdgeSrc(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	if args[0].IsNull() {
		return cyvalue.Null, nil
	}
	if args[0].Kind != cyvalue.KindRelationship {
		return cyvalue.Null, typeMismatch("Relationship", args[0])
	}
	return cyvalue.Node(args[0].RelSrc), nil
}

func internalEdgeDst(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	if args[0].IsNull() {
		return cyvalue.Null, nil
	}
	if args[0].Kind != cyvalue.KindRelationship {
		return cyvalue.Null, typeMismatch("Relationship", args[0])
	}
	return cyvalue.Node(args[0].RelDst), nil
}

func internalStartsWith(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	a, b := args[0], args[1]
	if a.IsNull() || b.IsNull() {
		return cyvalue.Null, nil
	}
	if a.Kind != cyvalue.KindString || b.Kind != cyvalue.KindString {
		return cyvalue.Null, typeMismatch("String", a)
	}
	return cyvalue.Bool(strings.HasPrefix(a.String, b.String)), nil
}

func internalEndsWith(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	a, b := args[0], args[1]
	if a.IsNull() || b.IsNull() {
		return cyvalue.Null, nil
	}
	if a.Kind != cyvalue.KindString || b.Kind != cyvalue.KindString {
		return cyvalue.Null, typeMismatch("String", a)
	}
	return cyvalue.Bool(strings.HasSuffix(a.String, b.String)), nil
}

func internalContains(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	a, b := args[0], args[1]
	if a.IsNull() || b.IsNull() {
		return cyvalue.Null, nil
	}
	if a.Kind != cyvalue.KindString || b.Kind != cyvalue.KindString {
		return cyvalue.Null, typeMismatch("String", a)
	}
	return cyvalue.Bool(strings.Contains(a.String, b.String)), nil
}

func internalRegexMatches(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	a, b := args[0], args[1]
	if a.IsNull() || b.IsNull() {
		return cyvalue.Null, nil
	}
	if a.Kind != cyvalue.KindString || b.Kind != cyvalue.KindString {
		return cyvalue.Null, typeMismatch("String", a)
	}
	re, err := regexp.Compile(b.String)
	if err != nil {
		return cyvalue.Null, err
	}
	return cyvalue.Bool(re.MatchString(a.String)), nil
}

// internalCase implements a simple-CASE's value match: args[0] is the test
// value, followed by (when, then) pairs, with an optional trailing else.
func internalCase(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	test := args[0]
	i := 1
	for ; i+1 < len(args); i += 2 {
		eq := cyvalue.Equal(test, args[i])
		if eq.Kind == cyvalue.KindBool && eq.Bool {
			return args[i+1], nil
		}
	}
	if i < len(args) {
		return args[i], nil
	}
	return cyvalue.Null, nil
}

func registerInternalFunctions() {
	register(entry{name: "property", min: 2, max: 2, kind: KindInternal, handler: internalProperty})
	register(entry{name: "create_node_iter", min: 1, max: 1, kind: KindInternal, handler: internalCreateNodeIter})
	register(entry{name: "next_node", min: 1, max: 1, kind: KindInternal, handler: internalNextNode})
	register(entry{name: "create_edge_iter", min: 5, max: 5, kind: KindInternal, handler: internalCreateEdgeIter})
	register(entry{name: "next_edge", min: 1, max: 1, kind: KindInternal, handler: internalNextEdge})
	register(entry{name: "edge_src", min: 1, max: 1, kind: KindInternal, handler: internalEdgeSrc})
	register(entry{name: "edge_dst", min: 1, max: 1, kind: KindInternal, handler: internalEdgeDst})
	register(entry{name: "starts_with", min: 2, max: 2, kind: KindInternal, handler: internalStartsWith})
	register(entry{name: "ends_with", min: 2, max: 2, kind: KindInternal, handler: internalEndsWith})
	register(entry{name: "contains", min: 2, max: 2, kind: KindInternal, handler: internalContains})
	register(entry{name: "regex_matches", min: 2, max: 2, kind: KindInternal, handler: internalRegexMatches})
	register(entry{name: "case", min: 2, max: -1, kind: KindInternal, handler: internalCase})
}

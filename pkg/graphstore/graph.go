// Package graphstore owns the matrix-backed property graph a compiled plan
// runs against: label/type/attribute dictionaries, the diagonal label
// matrices and per-type Tensors described in SPEC_FULL §4.6, attribute
// tables keyed by node/relationship id, and the plan cache (§4.8). Grounded
// on original_source/graph/src/{graph.rs,pending.rs}.
package graphstore

import (
	"time"

	"github.com/lucidgraph/lucid/pkg/cyvalue"
	"github.com/lucidgraph/lucid/pkg/matrix"
)

// Stats accumulates the per-query write counters SPEC_FULL §4.5 and §4.7
// describe: every commit (or, for reads, every no-op Pending) adds into a
// fresh Stats the caller attaches to its reply.
type Stats struct {
	NodesCreated         int
	RelationshipsCreated int
	NodesDeleted         int
	RelationshipsDeleted int
	PropertiesSet        int
	PropertiesRemoved    int
	LabelsAdded          int
	LabelsRemoved        int
	IndicesCreated       int
	IndicesDeleted       int
}

// RelInfo records a live relationship's type and endpoints so a
// relationship id alone can answer type/edge_src/edge_dst queries without
// walking every per-type tensor. Attributes are kept in relAttrs.
type RelInfo struct {
	TypeID   int
	Src, Dst uint64
}

// Graph is one named graph key's entire in-memory state. Capacities grow by
// doubling (§4.6 "Resize invariant"); every per-label and per-type matrix
// resizes in lockstep whenever node/relationship capacity grows, and every
// projection matrix gains a column whenever a new label or type is defined.
type Graph struct {
	nodeCap, relCap uint64

	nodeCount, relCount uint64
	deletedNodes        idSet
	deletedRels         idSet
	reservedNodes       uint64
	reservedRels        uint64

	labelNames map[string]int
	labels     []string
	typeNames  map[string]int
	types      []string
	attrNames  map[string]int
	attrs      []string

	allNodes      *matrix.Matrix[bool]
	labelMatrices []*matrix.Matrix[bool]
	nodeLabels    *matrix.Matrix[bool]
	adjacency     *matrix.Matrix[bool]
	relTensors    []*matrix.Tensor
	relTypeMatrix *matrix.Matrix[bool]

	nodeAttrs map[uint64]map[int]cyvalue.Value
	relAttrs  map[uint64]map[int]cyvalue.Value
	relInfo   map[uint64]RelInfo

	cache *PlanCache
}

// ZeroMatrix is shared across callers needing an empty "no match" matrix
// (§4.6 zero_matrix); it is never mutated.
var ZeroMatrix = matrix.New[bool](0, 0)

// New creates a graph with the given initial node/relationship capacity
// (§6 default: 1024/1024 on first write through the host command surface),
// with a default-sized, non-expiring plan cache.
func New(initialNodes, initialRels uint64) *Graph {
	return NewWithCache(initialNodes, initialRels, 256, 0)
}

// NewWithCache is New plus an explicit plan cache size and TTL, for callers
// (pkg/engine) that derive these from configuration rather than accepting
// the built-in defaults.
func NewWithCache(initialNodes, initialRels uint64, cacheSize int, cacheTTL time.Duration) *Graph {
	if initialNodes == 0 {
		initialNodes = 1024
	}
	if initialRels == 0 {
		initialRels = 1024
	}
	g := &Graph{
		nodeCap:    initialNodes,
		relCap:     initialRels,
		labelNames: make(map[string]int),
		typeNames:  make(map[string]int),
		attrNames:  make(map[string]int),
		allNodes:   matrix.New[bool](initialNodes, initialNodes),
		nodeLabels: matrix.New[bool](initialNodes, 0),
		adjacency:  matrix.New[bool](initialNodes, initialNodes),
		relTypeMatrix: matrix.New[bool](initialRels, 0),
		nodeAttrs:  make(map[uint64]map[int]cyvalue.Value),
		relAttrs:   make(map[uint64]map[int]cyvalue.Value),
		relInfo:    make(map[uint64]RelInfo),
		cache:      NewPlanCacheWithTTL(cacheSize, cacheTTL),
	}
	return g
}

// NodeCount returns the number of live nodes.
func (g *Graph) NodeCount() uint64 { return g.nodeCount }

// RelationshipCount returns the number of live relationships.
func (g *Graph) RelationshipCount() uint64 { return g.relCount }

// Cache exposes the graph's plan cache (§4.8).
func (g *Graph) Cache() *PlanCache { return g.cache }

// --- dictionaries ---

// LabelID returns the dense id for name, creating it if unseen (append-only,
// §3 "Label / Attribute-key / Type"). Every per-label projection structure
// (labelMatrices, nodeLabels columns) widens to match.
func (g *Graph) LabelID(name string) int {
	if id, ok := g.labelNames[name]; ok {
		return id
	}
	id := len(g.labels)
	g.labelNames[name] = id
	g.labels = append(g.labels, name)
	g.labelMatrices = append(g.labelMatrices, matrix.New[bool](g.nodeCap, g.nodeCap))
	g.nodeLabels.Resize(g.nodeCap, uint64(len(g.labels)))
	return id
}

// LookupLabel returns the id for an existing label name, or false if it has
// never been defined in this graph.
func (g *Graph) LookupLabel(name string) (int, bool) {
	id, ok := g.labelNames[name]
	return id, ok
}

func (g *Graph) LabelName(id int) string { return g.labels[id] }

// TypeID returns the dense id for a relationship type name, creating it if
// unseen. relTensors and relTypeMatrix's column dimension grow to match.
func (g *Graph) TypeID(name string) int {
	if id, ok := g.typeNames[name]; ok {
		return id
	}
	id := len(g.types)
	g.typeNames[name] = id
	g.types = append(g.types, name)
	g.relTensors = append(g.relTensors, matrix.NewTensor(g.nodeCap, g.nodeCap))
	g.relTypeMatrix.Resize(g.relCap, uint64(len(g.types)))
	return id
}

func (g *Graph) LookupType(name string) (int, bool) {
	id, ok := g.typeNames[name]
	return id, ok
}

func (g *Graph) TypeName(id int) string { return g.types[id] }

// AttrID returns the dense id for an attribute key name, creating it if
// unseen.
func (g *Graph) AttrID(name string) int {
	if id, ok := g.attrNames[name]; ok {
		return id
	}
	id := len(g.attrs)
	g.attrNames[name] = id
	g.attrs = append(g.attrs, name)
	return id
}

func (g *Graph) LookupAttr(name string) (int, bool) {
	id, ok := g.attrNames[name]
	return id, ok
}

func (g *Graph) AttrName(id int) string { return g.attrs[id] }

// LabelCount returns how many distinct labels have ever been seen.
func (g *Graph) LabelCount() int { return len(g.labels) }

// Labels returns every known label name, in assignment order.
func (g *Graph) Labels() []string { return append([]string(nil), g.labels...) }

// Types returns every known relationship type name, in assignment order.
func (g *Graph) Types() []string { return append([]string(nil), g.types...) }

// Attrs returns every known attribute key name, in assignment order.
func (g *Graph) Attrs() []string { return append([]string(nil), g.attrs...) }

// --- capacity ---

func nextPow(min, cur uint64) uint64 {
	for cur <= min {
		cur *= 2
	}
	return cur
}

// ensureNodeCapacity doubles node-indexed matrices until id fits, resizing
// every per-label matrix, nodeLabels, allNodes and adjacency in lockstep
// (§4.6 "Resize invariant").
func (g *Graph) ensureNodeCapacity(id uint64) {
	if id < g.nodeCap {
		return
	}
	g.nodeCap = nextPow(id, g.nodeCap)
	g.allNodes.Resize(g.nodeCap, g.nodeCap)
	g.adjacency.Resize(g.nodeCap, g.nodeCap)
	g.nodeLabels.Resize(g.nodeCap, uint64(len(g.labels)))
	for _, lm := range g.labelMatrices {
		lm.Resize(g.nodeCap, g.nodeCap)
	}
	for _, t := range g.relTensors {
		t.Resize(g.nodeCap, g.nodeCap)
	}
}

func (g *Graph) ensureRelCapacity(id uint64) {
	if id < g.relCap {
		return
	}
	g.relCap = nextPow(id, g.relCap)
	g.relTypeMatrix.Resize(g.relCap, uint64(len(g.types)))
}

// --- reservation support ---
//
// Reservation itself is Pending-scoped (a query's cursor over the deleted-id
// set must reset to zero for the next query), so Graph only exposes the
// read-only facts Pending.ReserveNode/ReserveRelationship need: how many
// deleted ids exist, the k-th one by position, and the current live count
// (the base a fresh id counts up from).

// DeletedNodeLen returns how many node ids are currently deleted and
// available for reuse.
func (g *Graph) DeletedNodeLen() int { return g.deletedNodes.Len() }

// DeletedNodeNth returns the skip-th deleted node id by ascending value.
func (g *Graph) DeletedNodeNth(skip int) (uint64, bool) { return g.deletedNodes.NthFrom(skip) }

// DeletedRelLen returns how many relationship ids are currently deleted.
func (g *Graph) DeletedRelLen() int { return g.deletedRels.Len() }

// DeletedRelNth returns the skip-th deleted relationship id by ascending value.
func (g *Graph) DeletedRelNth(skip int) (uint64, bool) { return g.deletedRels.NthFrom(skip) }

// --- attribute access (graph-level; Pending overlays on top) ---

func (g *Graph) NodeAttr(id uint64, attrID int) (cyvalue.Value, bool) {
	m, ok := g.nodeAttrs[id]
	if !ok {
		return cyvalue.Null, false
	}
	v, ok := m[attrID]
	return v, ok
}

func (g *Graph) NodeAttrs(id uint64) map[int]cyvalue.Value { return g.nodeAttrs[id] }

func (g *Graph) RelAttr(id uint64, attrID int) (cyvalue.Value, bool) {
	m, ok := g.relAttrs[id]
	if !ok {
		return cyvalue.Null, false
	}
	v, ok := m[attrID]
	return v, ok
}

func (g *Graph) RelAttrs(id uint64) map[int]cyvalue.Value { return g.relAttrs[id] }

func (g *Graph) RelInfo(id uint64) (RelInfo, bool) {
	ri, ok := g.relInfo[id]
	return ri, ok
}

// NodeLabelIDs returns the set of label ids set on a live node.
func (g *Graph) NodeLabelIDs(id uint64) []int {
	var out []int
	g.nodeLabels.Row(id, func(j uint64, v bool) {
		if v {
			out = append(out, int(j))
		}
	})
	return out
}

func (g *Graph) HasLabel(id uint64, labelID int) bool {
	v, ok := g.nodeLabels.Get(id, uint64(labelID))
	return ok && v
}

func (g *Graph) IsLiveNode(id uint64) bool {
	v, ok := g.allNodes.Get(id, id)
	return ok && v
}

// --- commit-time mutation primitives; called only from Pending.Commit ---

func (g *Graph) createNode(id uint64, labelIDs []int) {
	g.ensureNodeCapacity(id)
	g.deletedNodes.Remove(id)
	g.allNodes.Set(id, id, true)
	for _, lid := range labelIDs {
		g.labelMatrices[lid].Set(id, id, true)
		g.nodeLabels.Set(id, uint64(lid), true)
	}
	g.nodeCount++
}

func (g *Graph) deleteNode(id uint64) {
	g.allNodes.Delete(id, id)
	g.nodeLabels.Row(id, func(j uint64, v bool) {
		if v {
			g.labelMatrices[j].Delete(id, id)
		}
	})
	for j := uint64(0); j < g.nodeLabels.Cols(); j++ {
		g.nodeLabels.Delete(id, j)
	}
	g.adjacency.Row(id, func(j uint64, _ bool) { g.adjacency.Delete(id, j) })
	delete(g.nodeAttrs, id)
	g.deletedNodes.Insert(id)
	g.nodeCount--
}

func (g *Graph) createRelationship(id uint64, typeID int, src, dst uint64) {
	g.ensureNodeCapacity(src)
	g.ensureNodeCapacity(dst)
	g.ensureRelCapacity(id)
	g.deletedRels.Remove(id)
	g.relTensors[typeID].Set(src, dst, id)
	g.adjacency.Set(src, dst, true)
	g.relTypeMatrix.Set(id, uint64(typeID), true)
	g.relInfo[id] = RelInfo{TypeID: typeID, Src: src, Dst: dst}
	g.relCount++
}

func (g *Graph) deleteRelationship(id uint64) {
	ri, ok := g.relInfo[id]
	if !ok {
		return
	}
	g.relTensors[ri.TypeID].Remove(ri.Src, ri.Dst, id)
	if _, more := g.relTensors[ri.TypeID].Get(ri.Src, ri.Dst); !more {
		// only drop adjacency if no other type still connects src->dst
		if !g.anyEdge(ri.Src, ri.Dst) {
			g.adjacency.Delete(ri.Src, ri.Dst)
		}
	}
	for j := uint64(0); j < g.relTypeMatrix.Cols(); j++ {
		g.relTypeMatrix.Delete(id, j)
	}
	delete(g.relAttrs, id)
	delete(g.relInfo, id)
	g.deletedRels.Insert(id)
	g.relCount--
}

func (g *Graph) anyEdge(src, dst uint64) bool {
	for _, t := range g.relTensors {
		if _, ok := t.Get(src, dst); ok {
			return true
		}
	}
	return false
}

func (g *Graph) setNodeAttr(id uint64, attrID int, v cyvalue.Value) (created bool) {
	m, ok := g.nodeAttrs[id]
	if !ok {
		m = make(map[int]cyvalue.Value)
		g.nodeAttrs[id] = m
	}
	_, existed := m[attrID]
	m[attrID] = v
	return !existed
}

func (g *Graph) removeNodeAttr(id uint64, attrID int) (removed bool) {
	m, ok := g.nodeAttrs[id]
	if !ok {
		return false
	}
	_, existed := m[attrID]
	delete(m, attrID)
	return existed
}

func (g *Graph) setRelAttr(id uint64, attrID int, v cyvalue.Value) (created bool) {
	m, ok := g.relAttrs[id]
	if !ok {
		m = make(map[int]cyvalue.Value)
		g.relAttrs[id] = m
	}
	_, existed := m[attrID]
	m[attrID] = v
	return !existed
}

func (g *Graph) removeRelAttr(id uint64, attrID int) (removed bool) {
	m, ok := g.relAttrs[id]
	if !ok {
		return false
	}
	_, existed := m[attrID]
	delete(m, attrID)
	return existed
}

func (g *Graph) addNodeLabel(id uint64, labelID int) (added bool) {
	if g.HasLabel(id, labelID) {
		return false
	}
	g.labelMatrices[labelID].Set(id, id, true)
	g.nodeLabels.Set(id, uint64(labelID), true)
	return true
}

func (g *Graph) removeNodeLabel(id uint64, labelID int) (removed bool) {
	if !g.HasLabel(id, labelID) {
		return false
	}
	g.labelMatrices[labelID].Delete(id, id)
	g.nodeLabels.Delete(id, uint64(labelID))
	return true
}

// --- scans (§4.6) ---

// ScanNodesByLabels returns the diagonal Boolean matrix selecting nodes
// that carry every one of labelNames. An unknown label yields ZeroMatrix;
// no labels at all yields allNodes.
func (g *Graph) ScanNodesByLabels(labelNames []string) *matrix.Matrix[bool] {
	if len(labelNames) == 0 {
		return g.allNodes
	}
	id, ok := g.LookupLabel(labelNames[0])
	if !ok {
		return ZeroMatrix
	}
	sel := g.labelMatrices[id].Clone()
	for _, name := range labelNames[1:] {
		id, ok := g.LookupLabel(name)
		if !ok {
			return ZeroMatrix
		}
		sel = matrix.EWiseAndBool(sel, g.labelMatrices[id])
	}
	return sel
}

// boolProjection casts a Tensor's cell matrix down to Boolean: any set cell
// (single-id or multi-edge handle) becomes true.
func boolProjection(t *matrix.Tensor) *matrix.Matrix[bool] {
	out := matrix.New[bool](t.Rows(), t.Cols())
	t.Matrix().ForEach(func(i, j uint64, _ uint64) { out.Set(i, j, true) })
	return out
}

// ScanEdgesByTypes returns the Boolean adjacency projection for the union
// of typeNames (or every known type, if empty), optionally restricted to
// edges whose source/destination carries every label in srcLabels/dstLabels.
// Unknown labels or types collapse to ZeroMatrix (§4.6).
func (g *Graph) ScanEdgesByTypes(typeNames, srcLabels, dstLabels []string) *matrix.Matrix[bool] {
	var proj *matrix.Matrix[bool]
	if len(typeNames) == 0 {
		proj = matrix.New[bool](g.nodeCap, g.nodeCap)
		for _, t := range g.relTensors {
			proj = matrix.EWiseOrBool(proj, boolProjection(t))
		}
	} else {
		for i, name := range typeNames {
			id, ok := g.LookupType(name)
			if !ok {
				return ZeroMatrix
			}
			p := boolProjection(g.relTensors[id])
			if i == 0 {
				proj = p
			} else {
				proj = matrix.EWiseOrBool(proj, p)
			}
		}
	}
	if len(srcLabels) > 0 {
		sel := g.ScanNodesByLabels(srcLabels)
		if sel == ZeroMatrix {
			return ZeroMatrix
		}
		proj = matrix.MulBoolBool(sel, proj)
	}
	if len(dstLabels) > 0 {
		sel := g.ScanNodesByLabels(dstLabels)
		if sel == ZeroMatrix {
			return ZeroMatrix
		}
		proj = matrix.MulBoolBool(proj, sel)
	}
	return proj
}

// EdgeTriple is one concrete (src, edgeID, dst) scan result.
type EdgeTriple struct {
	Src, ID, Dst uint64
}

// ScanEdges composes ScanEdgesByTypes' matrix projection with per-cell
// tensor lookups to produce concrete edge triples: the projection tells us
// which (src, dst) pairs qualify, EdgesBetween expands each surviving cell
// back into its individual edge ids (a cell may hold more than one under
// the tensor's multi-edge encoding, §3).
func (g *Graph) ScanEdges(typeNames, srcLabels, dstLabels []string) []EdgeTriple {
	proj := g.ScanEdgesByTypes(typeNames, srcLabels, dstLabels)
	if proj == ZeroMatrix {
		return nil
	}
	var out []EdgeTriple
	proj.ForEach(func(src, dst uint64, v bool) {
		if !v {
			return
		}
		for _, id := range g.EdgesBetween(src, dst, typeNames) {
			out = append(out, EdgeTriple{Src: src, ID: id, Dst: dst})
		}
	})
	return out
}

// EdgesBetween returns every edge id connecting src->dst whose type is one
// of typeNames (or any type, if empty).
func (g *Graph) EdgesBetween(src, dst uint64, typeNames []string) []uint64 {
	var out []uint64
	if len(typeNames) == 0 {
		for _, t := range g.relTensors {
			if ids, ok := t.Get(src, dst); ok {
				out = append(out, ids...)
			}
		}
		return out
	}
	for _, name := range typeNames {
		id, ok := g.LookupType(name)
		if !ok {
			continue
		}
		if ids, ok := g.relTensors[id].Get(src, dst); ok {
			out = append(out, ids...)
		}
	}
	return out
}

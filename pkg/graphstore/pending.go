package graphstore

import "github.com/lucidgraph/lucid/pkg/cyvalue"

// createdNode records the labels a newly-reserved node id was given.
type createdNode struct {
	labelIDs []int
}

// createdRel records a newly-reserved relationship id's type and endpoints.
type createdRel struct {
	typeID   int
	src, dst uint64
}

// deletedRel identifies a relationship staged for deletion, carrying enough
// of its identity to update adjacency/type bookkeeping on commit even if
// the graph's own relInfo has already been consulted once.
type deletedRel struct {
	id uint64
}

// attrWrite is one ordered attribute mutation; order matters because two
// writes to the same key in one query must apply in the order they were
// issued (§4.7: "ordered maps, since attribute mutations are order-sensitive
// for observable effects").
type attrWrite struct {
	entity uint64
	attrID int
	value  cyvalue.Value // Null marks a remove
}

type labelWrite struct {
	node    uint64
	labelID int
}

// Pending is the per-query staging area described in §4.7: every write a
// query performs lands here first, so later reads within the same query see
// their own writes (folded on top of the committed graph), and nothing is
// visible to other queries or durable until Commit runs.
type Pending struct {
	g *Graph

	createdNodes map[uint64]createdNode
	createdRels  map[uint64]createdRel
	deletedNodes map[uint64]bool
	deletedRels  map[uint64]deletedRel

	setNodeAttrs    []attrWrite
	setRelAttrs     []attrWrite
	setNodeLabels   []labelWrite
	removeNodeLabels []labelWrite

	// reservation cursors, reset fresh per query
	reuseNodeCursor int
	reuseRelCursor  int
	freshNodeCount  uint64
	freshRelCount   uint64
}

// NewPending opens a staging buffer over g for one query.
func NewPending(g *Graph) *Pending {
	return &Pending{
		g:            g,
		createdNodes: make(map[uint64]createdNode),
		createdRels:  make(map[uint64]createdRel),
		deletedNodes: make(map[uint64]bool),
		deletedRels:  make(map[uint64]deletedRel),
	}
}

// ReserveNode hands out the next NodeId: a previously-deleted id first, then
// a fresh id past every id ever assigned (§4.6 "Reservation").
func (p *Pending) ReserveNode() uint64 {
	if id, ok := p.g.DeletedNodeNth(p.reuseNodeCursor); ok {
		p.reuseNodeCursor++
		return id
	}
	id := p.g.NodeCount() + uint64(p.g.DeletedNodeLen()) + p.freshNodeCount
	p.freshNodeCount++
	return id
}

// ReserveRelationship mirrors ReserveNode for relationship ids.
func (p *Pending) ReserveRelationship() uint64 {
	if id, ok := p.g.DeletedRelNth(p.reuseRelCursor); ok {
		p.reuseRelCursor++
		return id
	}
	id := p.g.RelationshipCount() + uint64(p.g.DeletedRelLen()) + p.freshRelCount
	p.freshRelCount++
	return id
}

// CreateNode stages a new node with the given label ids, returning its id.
func (p *Pending) CreateNode(labelIDs []int) uint64 {
	id := p.ReserveNode()
	p.createdNodes[id] = createdNode{labelIDs: append([]int(nil), labelIDs...)}
	return id
}

// CreateRelationship stages a new relationship, returning its id.
func (p *Pending) CreateRelationship(typeID int, src, dst uint64) uint64 {
	id := p.ReserveRelationship()
	p.createdRels[id] = createdRel{typeID: typeID, src: src, dst: dst}
	return id
}

// DeleteNode stages id for deletion. Commit also deletes every relationship
// still touching the node; AnyEdgeTouching lets a caller reject a
// non-detaching delete before staging it.
func (p *Pending) DeleteNode(id uint64) {
	p.deletedNodes[id] = true
}

// DeleteRelationship stages id for deletion.
func (p *Pending) DeleteRelationship(id uint64) {
	p.deletedRels[id] = deletedRel{id: id}
}

// SetNodeAttr stages a node attribute write. Writing cyvalue.Null stages a
// removal (§3 "Attribute maps never contain Null; writing Null removes the
// key").
func (p *Pending) SetNodeAttr(id uint64, attrID int, v cyvalue.Value) {
	p.setNodeAttrs = append(p.setNodeAttrs, attrWrite{id, attrID, v})
}

func (p *Pending) SetRelAttr(id uint64, attrID int, v cyvalue.Value) {
	p.setRelAttrs = append(p.setRelAttrs, attrWrite{id, attrID, v})
}

func (p *Pending) AddNodeLabel(id uint64, labelID int) {
	p.setNodeLabels = append(p.setNodeLabels, labelWrite{id, labelID})
}

func (p *Pending) RemoveNodeLabel(id uint64, labelID int) {
	p.removeNodeLabels = append(p.removeNodeLabels, labelWrite{id, labelID})
}

// --- intra-query reads: fold Pending over the committed graph ---

// IsLiveNode reports whether id is a node as of this query's view: staged
// creations count as live, staged deletions as dead, otherwise defer to the
// committed graph.
func (p *Pending) IsLiveNode(id uint64) bool {
	if p.deletedNodes[id] {
		return false
	}
	if _, ok := p.createdNodes[id]; ok {
		return true
	}
	return p.g.IsLiveNode(id)
}

func (p *Pending) IsLiveRelationship(id uint64) bool {
	if _, gone := p.deletedRels[id]; gone {
		return false
	}
	if _, ok := p.createdRels[id]; ok {
		return true
	}
	_, ok := p.g.RelInfo(id)
	return ok
}

// NodeAttr reads a node attribute honoring every staged write in order,
// then falling back to the committed value.
func (p *Pending) NodeAttr(id uint64, attrID int) cyvalue.Value {
	v := cyvalue.Null
	found := false
	for _, w := range p.setNodeAttrs {
		if w.entity == id && w.attrID == attrID {
			v, found = w.value, true
		}
	}
	if found {
		return v
	}
	if gv, ok := p.g.NodeAttr(id, attrID); ok {
		return gv
	}
	return cyvalue.Null
}

func (p *Pending) RelAttr(id uint64, attrID int) cyvalue.Value {
	v := cyvalue.Null
	found := false
	for _, w := range p.setRelAttrs {
		if w.entity == id && w.attrID == attrID {
			v, found = w.value, true
		}
	}
	if found {
		return v
	}
	if gv, ok := p.g.RelAttr(id, attrID); ok {
		return gv
	}
	return cyvalue.Null
}

// NodeAttrKeys returns the attribute ids currently set (non-null) on id,
// folding staged writes over the committed set — used by callers that need
// to render a node's full property map rather than read one known key.
func (p *Pending) NodeAttrKeys(id uint64) []int {
	present := map[int]bool{}
	for attrID := range p.g.NodeAttrs(id) {
		present[attrID] = true
	}
	for _, w := range p.setNodeAttrs {
		if w.entity != id {
			continue
		}
		if w.value.IsNull() {
			delete(present, w.attrID)
		} else {
			present[w.attrID] = true
		}
	}
	out := make([]int, 0, len(present))
	for attrID := range present {
		out = append(out, attrID)
	}
	return out
}

// RelAttrKeys is NodeAttrKeys' relationship-attribute counterpart.
func (p *Pending) RelAttrKeys(id uint64) []int {
	present := map[int]bool{}
	for attrID := range p.g.RelAttrs(id) {
		present[attrID] = true
	}
	for _, w := range p.setRelAttrs {
		if w.entity != id {
			continue
		}
		if w.value.IsNull() {
			delete(present, w.attrID)
		} else {
			present[w.attrID] = true
		}
	}
	out := make([]int, 0, len(present))
	for attrID := range present {
		out = append(out, attrID)
	}
	return out
}

// HasLabel reports whether id currently carries labelID, honoring staged
// label additions/removals for both newly-created and pre-existing nodes.
func (p *Pending) HasLabel(id uint64, labelID int) bool {
	has := p.g.HasLabel(id, labelID)
	if cn, ok := p.createdNodes[id]; ok {
		for _, l := range cn.labelIDs {
			if l == labelID {
				has = true
			}
		}
	}
	for _, w := range p.setNodeLabels {
		if w.node == id && w.labelID == labelID {
			has = true
		}
	}
	for _, w := range p.removeNodeLabels {
		if w.node == id && w.labelID == labelID {
			has = false
		}
	}
	return has
}

// NodeLabelIDs returns every label id currently on node id, folding staged
// writes over the committed set.
func (p *Pending) NodeLabelIDs(id uint64, totalLabels int) []int {
	var out []int
	for lid := 0; lid < totalLabels; lid++ {
		if p.HasLabel(id, lid) {
			out = append(out, lid)
		}
	}
	return out
}

// RelEndpoints returns a relationship's (typeID, src, dst), checking staged
// creations before the committed graph.
func (p *Pending) RelEndpoints(id uint64) (typeID int, src, dst uint64, ok bool) {
	if cr, found := p.createdRels[id]; found {
		return cr.typeID, cr.src, cr.dst, true
	}
	if ri, found := p.g.RelInfo(id); found {
		return ri.TypeID, ri.Src, ri.Dst, true
	}
	return 0, 0, 0, false
}

// AnyEdgeTouching reports whether any live relationship (staged or
// committed) has id as its source or destination, honoring staged
// deletions — used to reject a non-detaching DELETE of a node that still
// has edges.
func (p *Pending) AnyEdgeTouching(id uint64) bool {
	for _, cr := range p.createdRels {
		if cr.src == id || cr.dst == id {
			return true
		}
	}
	for relID, ri := range p.g.relInfo {
		if _, gone := p.deletedRels[relID]; gone {
			continue
		}
		if ri.Src == id || ri.Dst == id {
			return true
		}
	}
	return false
}

// --- commit ---

// Commit applies every staged mutation to the graph in the fixed order
// §4.7 specifies: node creation, relationship creation, relationship
// deletion, node deletion, node-attribute updates, label additions, label
// removals, relationship-attribute updates. Each step updates stats and the
// staged section is then considered consumed (the Pending itself is
// discarded by the caller after Commit returns).
func (p *Pending) Commit(stats *Stats) {
	for id, cn := range p.createdNodes {
		p.g.createNode(id, cn.labelIDs)
		stats.NodesCreated++
		stats.LabelsAdded += len(cn.labelIDs)
	}
	for id, cr := range p.createdRels {
		p.g.createRelationship(id, cr.typeID, cr.src, cr.dst)
		stats.RelationshipsCreated++
	}
	for id := range p.deletedRels {
		if _, ok := p.g.RelInfo(id); ok {
			p.g.deleteRelationship(id)
			stats.RelationshipsDeleted++
		}
	}
	for id := range p.deletedNodes {
		if p.g.IsLiveNode(id) {
			// detach any relationship still touching this node.
			p.detachDeleteRelationships(id, stats)
			p.g.deleteNode(id)
			stats.NodesDeleted++
		}
	}
	for _, w := range p.setNodeAttrs {
		if !p.g.IsLiveNode(w.entity) {
			continue
		}
		if w.value.IsNull() {
			if p.g.removeNodeAttr(w.entity, w.attrID) {
				stats.PropertiesRemoved++
			}
			continue
		}
		p.g.setNodeAttr(w.entity, w.attrID, w.value)
		stats.PropertiesSet++
	}
	for _, w := range p.setNodeLabels {
		if p.g.addNodeLabel(w.node, w.labelID) {
			stats.LabelsAdded++
		}
	}
	for _, w := range p.removeNodeLabels {
		if p.g.removeNodeLabel(w.node, w.labelID) {
			stats.LabelsRemoved++
		}
	}
	for _, w := range p.setRelAttrs {
		if _, ok := p.g.RelInfo(w.entity); !ok {
			continue
		}
		if w.value.IsNull() {
			if p.g.removeRelAttr(w.entity, w.attrID) {
				stats.PropertiesRemoved++
			}
			continue
		}
		p.g.setRelAttr(w.entity, w.attrID, w.value)
		stats.PropertiesSet++
	}
}

// detachDeleteRelationships removes every live relationship touching id
// before the node itself is deleted, so the graph never holds a dangling
// edge endpoint.
func (p *Pending) detachDeleteRelationships(id uint64, stats *Stats) {
	var toDelete []uint64
	for relID, ri := range p.g.relInfo {
		if ri.Src == id || ri.Dst == id {
			toDelete = append(toDelete, relID)
		}
	}
	for _, relID := range toDelete {
		p.g.deleteRelationship(relID)
		stats.RelationshipsDeleted++
	}
}

package cyruntime

import "github.com/lucidgraph/lucid/pkg/matrix"

// nodeIter walks the diagonal of a label-selection matrix, handed out by
// create_node_iter and advanced by next_node (§4.5 "Iterators").
type nodeIter struct {
	ids []uint64
	pos int
}

func newNodeIter(sel *matrix.Matrix[bool]) *nodeIter {
	var ids []uint64
	sel.ForEach(func(i, j uint64, v bool) {
		if i == j && v {
			ids = append(ids, i)
		}
	})
	return &nodeIter{ids: ids}
}

func (it *nodeIter) next() (uint64, bool) {
	if it.pos >= len(it.ids) {
		return 0, false
	}
	id := it.ids[it.pos]
	it.pos++
	return id, true
}

// edgeTriple is one (src, edgeID, dst) result of an edge scan.
type edgeTriple struct {
	src, id, dst uint64
}

// edgeIter walks every edge selected by a relationship scan, expanding
// multi-edge tensor cells into one triple per id and filtering to a bound
// endpoint when the pattern already had it anchored.
type edgeIter struct {
	triples []edgeTriple
	pos     int
}

func (it *edgeIter) next() (edgeTriple, bool) {
	if it.pos >= len(it.triples) {
		return edgeTriple{}, false
	}
	t := it.triples[it.pos]
	it.pos++
	return t, true
}

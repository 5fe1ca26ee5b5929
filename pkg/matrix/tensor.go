package matrix

// Tensor is a per-relationship-type u64-valued matrix: a cell normally
// holds a single edge id, but when more than one edge shares the same
// (src, dst) pair under one relationship type, the cell's most-significant
// bit is set and the remaining 63 bits index into a side table of edge-id
// sets instead of holding an id directly. The native engine does this by
// stashing an opaque GraphBLAS vector pointer in the cell; a Go process
// can't point a uint64 at a heap object safely, so the side table here
// plays the same role under a synthetic handle.
type Tensor struct {
	m       *Matrix[uint64]
	multi   map[uint64]map[uint64]bool // handle -> set of edge ids
	handles uint64
}

const msb = uint64(1) << 63

func singleEdge(cell uint64) bool { return cell&msb == 0 }
func setMSB(h uint64) uint64      { return h | msb }
func clearMSB(cell uint64) uint64 { return cell &^ msb }

func NewTensor(rows, cols uint64) *Tensor {
	return &Tensor{m: New[uint64](rows, cols), multi: make(map[uint64]map[uint64]bool)}
}

func (t *Tensor) Rows() uint64 { return t.m.Rows() }
func (t *Tensor) Cols() uint64 { return t.m.Cols() }

// Set records that edge id connects src->dest under this tensor's
// relationship type, upgrading the cell to a multi-edge handle if it
// already held a different edge id.
func (t *Tensor) Set(src, dest, id uint64) {
	cell, ok := t.m.Get(src, dest)
	if !ok {
		t.m.Set(src, dest, id)
		return
	}
	if singleEdge(cell) {
		if cell == id {
			return
		}
		t.handles++
		h := t.handles
		t.multi[h] = map[uint64]bool{cell: true, id: true}
		t.m.Set(src, dest, setMSB(h))
		return
	}
	h := clearMSB(cell)
	t.multi[h][id] = true
}

// Get returns every edge id stored at (src, dest).
func (t *Tensor) Get(src, dest uint64) ([]uint64, bool) {
	cell, ok := t.m.Get(src, dest)
	if !ok {
		return nil, false
	}
	if singleEdge(cell) {
		return []uint64{cell}, true
	}
	set := t.multi[clearMSB(cell)]
	ids := make([]uint64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids, true
}

// Remove drops a single edge id from the (src, dest) cell, collapsing a
// multi-edge handle back to a bare id (or clearing the cell entirely) once
// only zero or one ids remain.
func (t *Tensor) Remove(src, dest, id uint64) {
	cell, ok := t.m.Get(src, dest)
	if !ok {
		return
	}
	if singleEdge(cell) {
		if cell == id {
			t.m.Delete(src, dest)
		}
		return
	}
	h := clearMSB(cell)
	set := t.multi[h]
	delete(set, id)
	switch len(set) {
	case 0:
		delete(t.multi, h)
		t.m.Delete(src, dest)
	case 1:
		for remaining := range set {
			t.m.Set(src, dest, remaining)
		}
		delete(t.multi, h)
	}
}

// Resize grows (or shrinks) the tensor's logical bounds in lockstep with
// the rest of a graph's per-type tensors.
func (t *Tensor) Resize(rows, cols uint64) {
	t.m.Resize(rows, cols)
}

// ForEach calls fn once per (src, dest, edgeID) triple, expanding any
// multi-edge cell into one call per id.
func (t *Tensor) ForEach(fn func(src, dest, id uint64)) {
	t.m.ForEach(func(i, j uint64, cell uint64) {
		if singleEdge(cell) {
			fn(i, j, cell)
			return
		}
		for id := range t.multi[clearMSB(cell)] {
			fn(i, j, id)
		}
	})
}

// Matrix exposes the underlying cell matrix for eWiseAdd/mxm-style
// composition with other tensors; callers must not interpret raw cell
// values directly, only pass the matrix to this package's combinators.
func (t *Tensor) Matrix() *Matrix[uint64] { return t.m }

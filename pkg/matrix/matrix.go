// Package matrix is a pure-Go, sparse-map substitute for the GraphBLAS
// matrix algebra the store is built on. The real engine binds a native
// GraphBLAS library through cgo for this; that binding (and the library
// itself) is treated as an external collaborator this module never links
// against, so the graph store here runs on a row/col sparse-map Matrix
// that supports the handful of operations the store actually needs:
// element get/set/delete, resize-by-doubling, element-wise add/multiply,
// transpose, and boolean-semiring matrix multiply.
package matrix

// Matrix is a sparse, growable rows x cols matrix. The zero value of T is
// never distinguished from "absent" — presence in the backing map is what
// marks a cell as set, so a Matrix[bool] can legitimately hold explicit
// false cells distinct from unset ones.
type Matrix[T any] struct {
	rows, cols uint64
	data       map[uint64]map[uint64]T
	nnz        int
}

// New creates an empty rows x cols matrix.
func New[T any](rows, cols uint64) *Matrix[T] {
	return &Matrix[T]{rows: rows, cols: cols, data: make(map[uint64]map[uint64]T)}
}

func (m *Matrix[T]) Rows() uint64 { return m.rows }
func (m *Matrix[T]) Cols() uint64 { return m.cols }
func (m *Matrix[T]) NNZ() int     { return m.nnz }

// Get returns the value at (i, j) and whether a value is present.
func (m *Matrix[T]) Get(i, j uint64) (T, bool) {
	var zero T
	row, ok := m.data[i]
	if !ok {
		return zero, false
	}
	v, ok := row[j]
	return v, ok
}

// Set stores a value at (i, j), growing nnz if the cell was previously unset.
func (m *Matrix[T]) Set(i, j uint64, v T) {
	row, ok := m.data[i]
	if !ok {
		row = make(map[uint64]T)
		m.data[i] = row
	}
	if _, existed := row[j]; !existed {
		m.nnz++
	}
	row[j] = v
}

// Delete removes any value at (i, j). It is a no-op if nothing was set.
func (m *Matrix[T]) Delete(i, j uint64) {
	row, ok := m.data[i]
	if !ok {
		return
	}
	if _, existed := row[j]; existed {
		delete(row, j)
		m.nnz--
		if len(row) == 0 {
			delete(m.data, i)
		}
	}
}

// Resize grows the matrix's logical bounds. Cells beyond the new bounds
// are dropped, matching GrB_Matrix_resize's shrink semantics; growth never
// touches existing data. Callers that keep a family of matrices in lockstep
// (per-label, per-type) call Resize on every member together.
func (m *Matrix[T]) Resize(rows, cols uint64) {
	if rows < m.rows || cols < m.cols {
		for i, row := range m.data {
			if i >= rows {
				m.nnz -= len(row)
				delete(m.data, i)
				continue
			}
			for j := range row {
				if j >= cols {
					delete(row, j)
					m.nnz--
				}
			}
		}
	}
	m.rows, m.cols = rows, cols
}

// Row calls fn for every set column in row i, in unspecified order.
func (m *Matrix[T]) Row(i uint64, fn func(j uint64, v T)) {
	for j, v := range m.data[i] {
		fn(j, v)
	}
}

// ForEach calls fn for every set cell, in unspecified order.
func (m *Matrix[T]) ForEach(fn func(i, j uint64, v T)) {
	for i, row := range m.data {
		for j, v := range row {
			fn(i, j, v)
		}
	}
}

// Clone makes a deep copy.
func (m *Matrix[T]) Clone() *Matrix[T] {
	out := New[T](m.rows, m.cols)
	m.ForEach(func(i, j uint64, v T) { out.Set(i, j, v) })
	return out
}

// Transpose returns a new matrix with rows and columns swapped.
func Transpose[T any](m *Matrix[T]) *Matrix[T] {
	out := New[T](m.cols, m.rows)
	m.ForEach(func(i, j uint64, v T) { out.Set(j, i, v) })
	return out
}

// Diag builds a square diagonal Boolean matrix with a true cell at (id, id)
// for each id in ids — the representation used for label and "all nodes"
// matrices.
func Diag(ids []uint64, n uint64) *Matrix[bool] {
	m := New[bool](n, n)
	for _, id := range ids {
		m.Set(id, id, true)
	}
	return m
}

// EWiseOrBool is the element-wise Boolean OR of two same-shaped matrices.
// Only true cells are ever stored, matching the sparse convention used
// throughout this package: absence means false.
func EWiseOrBool(a, b *Matrix[bool]) *Matrix[bool] {
	out := New[bool](a.rows, a.cols)
	a.ForEach(func(i, j uint64, v bool) {
		if v {
			out.Set(i, j, true)
		}
	})
	b.ForEach(func(i, j uint64, v bool) {
		if v {
			out.Set(i, j, true)
		}
	})
	return out
}

// EWiseAndBool is the element-wise Boolean AND (intersection) of two
// same-shaped matrices: used to filter a node set down to those holding
// every requested label.
func EWiseAndBool(a, b *Matrix[bool]) *Matrix[bool] {
	out := New[bool](a.rows, a.cols)
	a.ForEach(func(i, j uint64, v bool) {
		if v {
			if bv, ok := b.Get(i, j); ok && bv {
				out.Set(i, j, true)
			}
		}
	})
	return out
}

// EWiseAddUint64 unions two u64-valued matrices; where both have a value,
// a's wins (matching the "first writer" union semantics used to combine
// per-type tensors into a multi-type adjacency projection).
func EWiseAddUint64(a, b *Matrix[uint64]) *Matrix[uint64] {
	out := a.Clone()
	b.ForEach(func(i, j uint64, v uint64) {
		if _, ok := out.Get(i, j); !ok {
			out.Set(i, j, v)
		}
	})
	return out
}

// MulBoolDiagUint64 left-multiplies a diagonal Boolean selector matrix by a
// u64-valued matrix under the OR-AND semiring: row i of the result is row i
// of m if diag(i,i) is true, and empty otherwise. This is how a label
// selection projects down to only the relationships touching nodes that
// carry the label.
func MulBoolDiagUint64(diag *Matrix[bool], m *Matrix[uint64]) *Matrix[uint64] {
	out := New[uint64](m.rows, m.cols)
	m.ForEach(func(i, j uint64, v uint64) {
		if sel, ok := diag.Get(i, i); ok && sel {
			out.Set(i, j, v)
		}
	})
	return out
}

// MulUint64BoolDiag right-multiplies a u64-valued matrix by a diagonal
// Boolean selector: column j of the result survives only if diag(j,j) is
// true, projecting relationships down to those landing on a labeled node.
func MulUint64BoolDiag(m *Matrix[uint64], diag *Matrix[bool]) *Matrix[uint64] {
	out := New[uint64](m.rows, m.cols)
	m.ForEach(func(i, j uint64, v uint64) {
		if sel, ok := diag.Get(j, j); ok && sel {
			out.Set(i, j, v)
		}
	})
	return out
}

// MulBoolBool computes the OR-AND Boolean matrix product a x b: cell (i, k)
// is set iff there exists j with a(i,j) and b(j,k) both true. Used to walk
// the adjacency matrix one hop per label-restricted frontier.
func MulBoolBool(a, b *Matrix[bool]) *Matrix[bool] {
	out := New[bool](a.rows, b.cols)
	a.ForEach(func(i, j uint64, av bool) {
		if !av {
			return
		}
		b.Row(j, func(k uint64, bv bool) {
			if bv {
				out.Set(i, k, true)
			}
		})
	})
	return out
}

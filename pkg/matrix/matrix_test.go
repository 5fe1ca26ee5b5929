package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetDelete(t *testing.T) {
	m := New[bool](4, 4)
	m.Set(1, 2, true)
	v, ok := m.Get(1, 2)
	require.True(t, ok)
	assert.True(t, v)
	assert.Equal(t, 1, m.NNZ())

	m.Delete(1, 2)
	_, ok = m.Get(1, 2)
	assert.False(t, ok)
	assert.Equal(t, 0, m.NNZ())
}

func TestResizeDropsOutOfBoundsCells(t *testing.T) {
	m := New[bool](4, 4)
	m.Set(3, 3, true)
	m.Resize(2, 2)
	_, ok := m.Get(3, 3)
	assert.False(t, ok)
	assert.Equal(t, uint64(2), m.Rows())
}

func TestTransposeSwapsIndices(t *testing.T) {
	m := New[bool](2, 2)
	m.Set(0, 1, true)
	tr := Transpose(m)
	v, ok := tr.Get(1, 0)
	require.True(t, ok)
	assert.True(t, v)
}

func TestEWiseAndBoolIntersects(t *testing.T) {
	a := Diag([]uint64{1, 2, 3}, 4)
	b := Diag([]uint64{2, 3, 4}, 4)
	and := EWiseAndBool(a, b)
	_, ok := and.Get(1, 1)
	assert.False(t, ok)
	_, ok = and.Get(2, 2)
	assert.True(t, ok)
}

func TestMulBoolBoolOneHop(t *testing.T) {
	adj := New[bool](3, 3)
	adj.Set(0, 1, true)
	adj.Set(1, 2, true)
	result := MulBoolBool(adj, adj)
	_, ok := result.Get(0, 2)
	assert.True(t, ok)
}

func TestTensorSingleEdgeThenMultiEdge(t *testing.T) {
	tn := NewTensor(4, 4)
	tn.Set(0, 1, 100)
	ids, ok := tn.Get(0, 1)
	require.True(t, ok)
	assert.Equal(t, []uint64{100}, ids)

	tn.Set(0, 1, 200)
	ids, ok = tn.Get(0, 1)
	require.True(t, ok)
	assert.ElementsMatch(t, []uint64{100, 200}, ids)
}

func TestTensorRemoveCollapsesBackToSingle(t *testing.T) {
	tn := NewTensor(4, 4)
	tn.Set(0, 1, 100)
	tn.Set(0, 1, 200)
	tn.Remove(0, 1, 200)
	ids, ok := tn.Get(0, 1)
	require.True(t, ok)
	assert.Equal(t, []uint64{100}, ids)

	tn.Remove(0, 1, 100)
	_, ok = tn.Get(0, 1)
	assert.False(t, ok)
}

func TestTensorForEachExpandsMultiEdge(t *testing.T) {
	tn := NewTensor(4, 4)
	tn.Set(0, 1, 100)
	tn.Set(0, 1, 200)
	seen := map[uint64]bool{}
	tn.ForEach(func(src, dest, id uint64) {
		assert.Equal(t, uint64(0), src)
		assert.Equal(t, uint64(1), dest)
		seen[id] = true
	})
	assert.Len(t, seen, 2)
}

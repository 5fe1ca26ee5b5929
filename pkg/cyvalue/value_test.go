package cyvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreeValuedLogic(t *testing.T) {
	t.Run("true OR Null is true", func(t *testing.T) {
		v, err := Or(Bool(true), Null)
		require.NoError(t, err)
		assert.Equal(t, Bool(true), v)
	})

	t.Run("false AND Null is false", func(t *testing.T) {
		v, err := And(Bool(false), Null)
		require.NoError(t, err)
		assert.Equal(t, Bool(false), v)
	})

	t.Run("Null AND true is Null", func(t *testing.T) {
		v, err := And(Null, Bool(true))
		require.NoError(t, err)
		assert.Equal(t, Null, v)
	})

	t.Run("Null OR false is Null", func(t *testing.T) {
		v, err := Or(Null, Bool(false))
		require.NoError(t, err)
		assert.Equal(t, Null, v)
	})
}

func TestEqualWithNull(t *testing.T) {
	for _, v := range []Value{Int(1), Str("x"), Bool(true), List([]Value{Int(1)})} {
		assert.Equal(t, Null, Equal(v, Null), "v=%v", v)
	}
}

func TestEqualLists(t *testing.T) {
	a := List([]Value{Int(1), Int(2)})
	b := List([]Value{Int(1), Int(2)})
	assert.Equal(t, Bool(true), Equal(a, b))

	c := List([]Value{Int(1), Null})
	d := List([]Value{Int(1), Int(2)})
	assert.Equal(t, Null, Equal(c, d))

	e := List([]Value{Int(1), Int(3)})
	assert.Equal(t, Bool(false), Equal(a, e))
}

func TestAddRules(t *testing.T) {
	v, err := Add(Int(1), Int(2))
	require.NoError(t, err)
	assert.Equal(t, Int(3), v)

	v, err = Add(Int(1), Float(2.5))
	require.NoError(t, err)
	assert.Equal(t, Float(3.5), v)

	v, err = Add(Str("a"), Int(1))
	require.NoError(t, err)
	assert.Equal(t, Str("a1"), v)

	v, err = Add(List([]Value{Int(1)}), Int(2))
	require.NoError(t, err)
	assert.Equal(t, List([]Value{Int(1), Int(2)}), v)

	v, err = Add(Int(2), List([]Value{Int(1)}))
	require.NoError(t, err)
	assert.Equal(t, List([]Value{Int(2), Int(1)}), v)

	v, err = Add(Null, Int(1))
	require.NoError(t, err)
	assert.Equal(t, Null, v)
}

func TestDivisionByZero(t *testing.T) {
	_, err := Div(Int(1), Int(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Division by zero")

	_, err = Modulo(Int(1), Int(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Division by zero")
}

func TestFloatDivisionByZeroYieldsNullInsteadOfError(t *testing.T) {
	v, err := Div(Float(1.0), Float(0.0))
	require.NoError(t, err)
	assert.Equal(t, Null, v)

	v, err = Div(Int(1), Float(0.0))
	require.NoError(t, err)
	assert.Equal(t, Null, v)

	v, err = Modulo(Float(1.0), Float(0.0))
	require.NoError(t, err)
	assert.Equal(t, Null, v)
}

func TestTotalOrdering(t *testing.T) {
	lt, eq, ok := Compare(Str("a"), Bool(true))
	require.True(t, ok)
	assert.True(t, lt)
	assert.False(t, eq)

	lt, _, ok = Compare(Int(1), Float(1.5))
	require.True(t, ok)
	assert.True(t, lt)
}

func TestFloatHashingQuirk(t *testing.T) {
	assert.Equal(t, Hash(Float(2.0)), Hash(Int(2)))
	assert.NotEqual(t, Hash(Float(2.5)), Hash(Int(2)))
}

package domain

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoardIsEmpty(t *testing.T) {
	var b Board
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, b.EmptyIndices())
	assert.Empty(t, b.IndicesWithMark(X))
	assert.Empty(t, b.IndicesWithMark(O))
	assert.False(t, b.Full())
}

func TestPlaceInvalidIndex(t *testing.T) {
	var b Board
	for _, i := range []int{-1, 9, 42} {
		err := b.Place(X, i)
		require.ErrorIs(t, err, ErrInvalidIndex, "index %d", i)
	}
	assert.Equal(t, Board{}, b)
}

func TestPlaceOccupied(t *testing.T) {
	var b Board
	require.NoError(t, b.Place(X, 4))

	err := b.Place(O, 4)
	require.ErrorIs(t, err, ErrCellOccupied)
	assert.Equal(t, X, b.At(4))
}

func TestIndicesWithMarkAreOrdered(t *testing.T) {
	var b Board
	for _, i := range []int{8, 2, 5} {
		require.NoError(t, b.Place(O, i))
	}
	require.NoError(t, b.Place(X, 0))

	assert.Equal(t, []int{2, 5, 8}, b.IndicesWithMark(O))
	assert.Equal(t, []int{0}, b.IndicesWithMark(X))
	assert.Equal(t, []int{1, 3, 4, 6, 7}, b.EmptyIndices())
}

func TestResetIsIdempotent(t *testing.T) {
	var b Board
	require.NoError(t, b.Place(X, 0))
	require.NoError(t, b.Place(O, 1))

	b.Reset()
	b.Reset()

	assert.Len(t, b.EmptyIndices(), Size)
}

func TestIndexSetsPartitionBoard(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for round := 0; round < 50; round++ {
		var b Board
		mark := X
		for {
			empty := b.EmptyIndices()
			if len(empty) == 0 {
				break
			}
			require.NoError(t, b.Place(mark, empty[r.IntN(len(empty))]))
			if mark == X {
				mark = O
			} else {
				mark = X
			}

			seen := map[int]int{}
			for _, set := range [][]int{b.EmptyIndices(), b.IndicesWithMark(X), b.IndicesWithMark(O)} {
				for _, i := range set {
					seen[i]++
				}
			}
			require.Len(t, seen, Size)
			for i, n := range seen {
				require.Equal(t, 1, n, "index %d appears in %d sets", i, n)
			}
		}
		assert.True(t, b.Full())
	}
}

func TestCellText(t *testing.T) {
	for _, c := range []Cell{Empty, X, O} {
		b, err := c.MarshalText()
		require.NoError(t, err)
		var got Cell
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, c, got)
	}

	var c Cell
	assert.Error(t, c.UnmarshalText([]byte("z")))
}

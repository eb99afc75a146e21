package domain

import (
	"errors"
	"fmt"
)

// Cell represents a board cell state.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

// MarshalText encodes the cell as its symbol.
func (c Cell) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a symbol written by MarshalText.
func (c *Cell) UnmarshalText(b []byte) error {
	switch string(b) {
	case "x":
		*c = X
	case "o":
		*c = O
	case "":
		*c = Empty
	default:
		return fmt.Errorf("unknown cell %q", b)
	}
	return nil
}

// Size is the number of cells on the board.
const Size = 9

// String returns the symbol shown for the cell.
func (c Cell) String() string {
	switch c {
	case X:
		return "x"
	case O:
		return "o"
	default:
		return ""
	}
}

// Errors returned by board operations.
var (
	ErrInvalidIndex = errors.New("invalid cell index")
	ErrCellOccupied = errors.New("cell occupied")
)

// Board is a fixed 3x3 board stored row-major.
type Board [Size]Cell

// Reset empties every cell.
func (b *Board) Reset() {
	*b = Board{}
}

// Place puts mark on the cell at index. The board is unchanged on error.
func (b *Board) Place(mark Cell, index int) error {
	if index < 0 || index >= Size {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	if b[index] != Empty {
		return fmt.Errorf("%w: %d", ErrCellOccupied, index)
	}
	b[index] = mark
	return nil
}

// At returns the cell at index, Empty when index is out of range.
func (b *Board) At(index int) Cell {
	if index < 0 || index >= Size {
		return Empty
	}
	return b[index]
}

// EmptyIndices returns the indices of empty cells in ascending order.
func (b *Board) EmptyIndices() []int {
	return b.IndicesWithMark(Empty)
}

// IndicesWithMark returns the indices holding mark in ascending order.
func (b *Board) IndicesWithMark(mark Cell) []int {
	out := make([]int, 0, Size)
	for i, c := range b {
		if c == mark {
			out = append(out, i)
		}
	}
	return out
}

// Full reports whether no empty cell remains.
func (b *Board) Full() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

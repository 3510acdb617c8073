package segment

import (
	"github.com/pkg/errors"
)

// ErrShapeMismatch is returned when two grids used together have different dimensions.
var ErrShapeMismatch = errors.New("grid dimensions mismatch")

// Grid is a row-major 2D grid of fixed width and height.
type Grid[T any] struct {
	Width  int
	Height int
	Data   []T
}

// Mask holds a class value per pixel. Zero means background.
type Mask = Grid[uint8]

// DepthMap holds a distance in meters per pixel.
type DepthMap = Grid[float64]

// LabelGrid holds region labels. Zero means background.
type LabelGrid = Grid[int]

// NewGrid creates zero-filled grid of given size
func NewGrid[T any](width, height int) *Grid[T] {
	return &Grid[T]{
		Width:  width,
		Height: height,
		Data:   make([]T, width*height),
	}
}

// NewGridFrom creates grid from row slices. All rows must have the same length.
func NewGridFrom[T any](rows [][]T) (*Grid[T], error) {
	if len(rows) == 0 {
		return NewGrid[T](0, 0), nil
	}
	width := len(rows[0])
	grid := NewGrid[T](width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, errors.Wrapf(ErrShapeMismatch, "row %d has %d columns, expected %d", y, len(row), width)
		}
		copy(grid.Data[y*width:], row)
	}
	return grid, nil
}

// At returns value at (x, y)
func (g *Grid[T]) At(x, y int) T {
	return g.Data[y*g.Width+x]
}

// Set sets value at (x, y)
func (g *Grid[T]) Set(x, y int, v T) {
	g.Data[y*g.Width+x] = v
}

// In reports whether (x, y) lies inside the grid
func (g *Grid[T]) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// Clone returns deep copy of the grid
func (g *Grid[T]) Clone() *Grid[T] {
	data := make([]T, len(g.Data))
	copy(data, g.Data)
	return &Grid[T]{
		Width:  g.Width,
		Height: g.Height,
		Data:   data,
	}
}

// Rows returns grid content as row slices. Useful for debugging and tests.
func (g *Grid[T]) Rows() [][]T {
	rows := make([][]T, g.Height)
	for y := range g.Height {
		rows[y] = make([]T, g.Width)
		copy(rows[y], g.Data[y*g.Width:(y+1)*g.Width])
	}
	return rows
}

// SameShape checks that both grids share width and height
func SameShape[A, B any](a *Grid[A], b *Grid[B]) error {
	if a.Width != b.Width || a.Height != b.Height {
		return errors.Wrapf(ErrShapeMismatch, "%dx%d vs %dx%d", a.Width, a.Height, b.Width, b.Height)
	}
	return nil
}

// Select returns binary mask where pixels equal to classValue become 1 and everything else 0.
func Select(mask *Mask, classValue uint8) *Mask {
	out := NewGrid[uint8](mask.Width, mask.Height)
	for i, v := range mask.Data {
		if v == classValue {
			out.Data[i] = 1
		}
	}
	return out
}

// CountLabel returns number of pixels carrying the label
func CountLabel(labels *LabelGrid, label int) int {
	n := 0
	for _, v := range labels.Data {
		if v == label {
			n++
		}
	}
	return n
}

// Package features derives the per-turn boolean and integer layers every
// planning stage reads.
package features

import "github.com/nstehr/lantern/model"

// Matrix is a row-major integer layer: m[y][x].
type Matrix [][]int

// NewMatrix returns a zeroed w x h layer.
func NewMatrix(w, h int) Matrix {
	m := make(Matrix, h)
	for y := range m {
		m[y] = make([]int, w)
	}
	return m
}

func (m Matrix) Width() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

func (m Matrix) Height() int { return len(m) }

// At returns the value at p, or 0 off the grid.
func (m Matrix) At(p model.Pos) int {
	if p.Y < 0 || p.Y >= len(m) || p.X < 0 || p.X >= len(m[p.Y]) {
		return 0
	}
	return m[p.Y][p.X]
}

func (m Matrix) Set(p model.Pos, v int) { m[p.Y][p.X] = v }

// Positive returns the cells holding a value above zero.
func (m Matrix) Positive() PosSet {
	s := PosSet{}
	for y, row := range m {
		for x, v := range row {
			if v > 0 {
				s.Add(model.Pos{X: x, Y: y})
			}
		}
	}
	return s
}

// Convolve sums each cell with its four orthogonal neighbours. Cells off the
// grid contribute zero.
func Convolve(m Matrix) Matrix {
	out := NewMatrix(m.Width(), m.Height())
	for y, row := range m {
		for x, v := range row {
			p := model.Pos{X: x, Y: y}
			sum := v
			for _, n := range p.Neighbors() {
				sum += m.At(n)
			}
			out[y][x] = sum
		}
	}
	return out
}

// Or returns the cell-wise union of boolean layers as 0/1.
func Or(layers ...Matrix) Matrix {
	if len(layers) == 0 {
		return nil
	}
	out := NewMatrix(layers[0].Width(), layers[0].Height())
	for y := range out {
		for x := range out[y] {
			for _, l := range layers {
				if l[y][x] > 0 {
					out[y][x] = 1
					break
				}
			}
		}
	}
	return out
}

// PosSet is a coordinate set used for membership tests only. Never iterate it
// where order matters; use Sorted.
type PosSet map[model.Pos]struct{}

func (s PosSet) Add(p model.Pos) { s[p] = struct{}{} }

func (s PosSet) Has(p model.Pos) bool {
	_, ok := s[p]
	return ok
}

func (s PosSet) Remove(p model.Pos) { delete(s, p) }

// Sorted returns the members in row-major order.
func (s PosSet) Sorted() []model.Pos {
	out := make([]model.Pos, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sortPositions(out)
	return out
}

// Clone returns an independent copy.
func (s PosSet) Clone() PosSet {
	out := make(PosSet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}

package ml

import (
	"bytes"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(a *Arena, rows, cols int) Mat {
	m := NewMat(a, rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.Set(i, j, float32(i*cols+j))
		}
	}
	return m
}

func TestDotMatchesTextbook(t *testing.T) {
	a := NewMatFromSlice(2, 3, []float32{1, 2, 3, 4, 5, 6})
	b := NewMatFromSlice(3, 2, []float32{7, 8, 9, 10, 11, 12})
	dst := NewMat(nil, 2, 2)
	dst.Fill(100)

	Dot(dst, a, b)

	assert.Equal(t, []float32{58, 64, 139, 154}, []float32{dst.At(0, 0), dst.At(0, 1), dst.At(1, 0), dst.At(1, 1)})
}

func TestDotShapeMismatchPanics(t *testing.T) {
	assert.Panics(t, func() { Dot(NewMat(nil, 2, 2), NewMat(nil, 2, 3), NewMat(nil, 2, 2)) })
	assert.Panics(t, func() { Dot(NewMat(nil, 3, 2), NewMat(nil, 2, 3), NewMat(nil, 3, 2)) })
}

func TestDotOnStridedViews(t *testing.T) {
	wide := seq(nil, 2, 5)
	left := wide.SubCols(0, 2)  // [[0 1] [5 6]]
	right := wide.SubCols(3, 2) // [[3 4] [8 9]]
	dst := NewMat(nil, 2, 2)

	Dot(dst, left, right)

	assert.Equal(t, float32(0*3+1*8), dst.At(0, 0))
	assert.Equal(t, float32(5*4+6*9), dst.At(1, 1))
}

func TestSubViewsShareStorage(t *testing.T) {
	m := seq(nil, 4, 5)

	row := m.Row(2)
	assert.Equal(t, 5, row.Cols())
	assert.Equal(t, float32(10), row.At(0))

	in := row.Slice(0, 3)
	out := row.Slice(3, 2)
	assert.Equal(t, float32(13), out.At(0))
	out.Set(1, -1)
	assert.Equal(t, float32(-1), m.At(2, 4))
	in.Fill(7)
	assert.Equal(t, float32(7), m.At(2, 2))

	rows := m.SubRows(1, 2)
	assert.Equal(t, 2, rows.Rows())
	assert.Equal(t, float32(5), rows.At(0, 0))

	cols := m.SubCols(1, 3)
	assert.Equal(t, 5, cols.Stride())
	assert.Equal(t, float32(16), cols.At(3, 0))
	cols.Set(0, 0, 42)
	assert.Equal(t, float32(42), m.At(0, 1))

	assert.Equal(t, 0, m.SubRows(4, 0).Rows())
	assert.Panics(t, func() { m.SubRows(3, 2) })
	assert.Panics(t, func() { m.SubCols(4, 2) })
	assert.Panics(t, func() { row.Slice(4, 2) })
	assert.Panics(t, func() { m.At(4, 0) })
}

func TestRowAsMatRoundTrip(t *testing.T) {
	m := seq(nil, 3, 4)
	r := m.Row(1).AsMat()
	assert.Equal(t, 1, r.Rows())
	assert.Equal(t, 4, r.Cols())
	assert.Equal(t, float32(6), r.AsRow().At(2))
	assert.Panics(t, func() { m.AsRow() })
}

func TestSumAccumulates(t *testing.T) {
	dst := NewMatFromSlice(1, 3, []float32{1, 2, 3})
	Sum(dst, NewMatFromSlice(1, 3, []float32{10, 20, 30}))
	assert.Equal(t, []float32{11, 22, 33}, dst.AsRow().Data())
	assert.Panics(t, func() { Sum(dst, NewMat(nil, 1, 2)) })
}

func TestFillAndRandRespectStride(t *testing.T) {
	m := seq(nil, 3, 4)
	view := m.SubCols(1, 2)
	view.Fill(-5)
	assert.Equal(t, float32(0), m.At(0, 0))
	assert.Equal(t, float32(-5), m.At(2, 2))
	assert.Equal(t, float32(11), m.At(2, 3))

	r := rand.New(rand.NewPCG(1, 2))
	view.RandWith(r, 2, 3)
	for i := 0; i < 3; i++ {
		assert.Equal(t, float32(i*4), m.At(i, 0))
		for j := 0; j < 2; j++ {
			v := view.At(i, j)
			assert.GreaterOrEqual(t, v, float32(2))
			assert.Less(t, v, float32(3))
		}
	}
}

func TestActivateSigmoid(t *testing.T) {
	m := NewMatFromSlice(1, 3, []float32{0, 100, -100})
	m.Activate(ActSigmoid)
	assert.InDelta(t, 0.5, m.At(0, 0), 1e-7)
	assert.InDelta(t, 1, m.At(0, 1), 1e-6)
	assert.InDelta(t, 0, m.At(0, 2), 1e-6)
}

func TestShuffleRowsPreservesMultiset(t *testing.T) {
	const rows, cols = 50, 3
	m := NewMat(nil, rows, cols+2)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols+2; j++ {
			m.Set(i, j, float32(i*10+j))
		}
	}
	view := m.SubCols(1, cols)
	view.ShuffleRowsWith(rand.New(rand.NewPCG(7, 7)))

	var firsts []int
	moved := false
	for i := 0; i < rows; i++ {
		first := int(view.At(i, 0))
		firsts = append(firsts, first)
		for j := 1; j < cols; j++ {
			assert.Equal(t, float32(first+j), view.At(i, j), "rows must move as a whole")
		}
		assert.Equal(t, float32(i*10), m.At(i, 0), "columns outside the view stay put")
		if first != i*10+1 {
			moved = true
		}
	}
	assert.True(t, moved)

	sort.Ints(firsts)
	for i, f := range firsts {
		assert.Equal(t, i*10+1, f)
	}
}

func TestPrintUsesName(t *testing.T) {
	var buf bytes.Buffer
	NewMatFromSlice(2, 2, []float32{1, 2, 3, 4}).Print(&buf, "m")
	require.Contains(t, buf.String(), "m = ")
	assert.Contains(t, buf.String(), "4")
}

func TestGeneralSharesStorage(t *testing.T) {
	m := seq(nil, 3, 4).SubCols(1, 2)
	g := m.General()
	assert.Equal(t, 3, g.Rows)
	assert.Equal(t, 2, g.Cols)
	assert.Equal(t, 4, g.Stride)
	g.Data[g.Stride] = 99
	assert.Equal(t, float32(99), m.At(1, 0))
}

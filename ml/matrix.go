package ml

import (
	"fmt"
	"io"
	"math/rand/v2"

	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/mat"
)

// Mat is a dense row-major view. Element (i, j) lives at es[i*stride+j];
// stride may exceed cols when the view is a column range of a wider matrix.
type Mat struct {
	rows, cols int
	stride     int
	es         []float32

	// Allocation the view was carved from. owner is nil for heap matrices.
	owner *Arena
	end   int
}

// Row is a single row of cols elements.
type Row struct {
	cols int
	es   []float32

	owner *Arena
	end   int
}

// -------- CONSTRUCTORS ------- //

// NewMat allocates a rows x cols matrix from a, or from the heap when a is nil.
func NewMat(a *Arena, rows, cols int) Mat {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("Invalid matrix shape [%d, %d]", rows, cols))
	}
	n := rows * cols
	m := Mat{rows: rows, cols: cols, stride: cols}
	if a == nil {
		m.es = make([]float32, n)
		return m
	}
	off := a.Alloc(n)
	m.es = a.slice(off, n)
	m.owner = a
	m.end = off + n
	return m
}

func NewRow(a *Arena, cols int) Row {
	return NewMat(a, 1, cols).AsRow()
}

// NewMatFromSlice wraps data without copying.
func NewMatFromSlice(rows, cols int, data []float32) Mat {
	if len(data) != rows*cols {
		panic("Slice length mismatch")
	}
	return Mat{rows: rows, cols: cols, stride: cols, es: data}
}

// ------- MATRIX METHODS ------ //
func (m Mat) Rows() int   { return m.rows }
func (m Mat) Cols() int   { return m.cols }
func (m Mat) Stride() int { return m.stride }

// Valid reports whether the arena the view was carved from still holds it.
func (m Mat) Valid() bool {
	return m.owner == nil || m.end <= m.owner.used
}

func (m Mat) At(i, j int) float32 {
	m.check(i, j)
	return m.es[i*m.stride+j]
}

func (m Mat) Set(i, j int, v float32) {
	m.check(i, j)
	m.es[i*m.stride+j] = v
}

func (m Mat) check(i, j int) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("Index (%d, %d) out of range for [%d, %d]", i, j, m.rows, m.cols))
	}
}

// Row returns row i sharing m's storage.
func (m Mat) Row(i int) Row {
	if i < 0 || i >= m.rows {
		panic(fmt.Sprintf("Row %d out of range for %d rows", i, m.rows))
	}
	start := i * m.stride
	return Row{
		cols:  m.cols,
		es:    m.es[start : start+m.cols : start+m.cols],
		owner: m.owner,
		end:   m.end,
	}
}

// SubRows returns rows [begin, begin+n) without copying.
func (m Mat) SubRows(begin, n int) Mat {
	if begin < 0 || n < 0 || begin+n > m.rows {
		panic(fmt.Sprintf("Row range [%d, %d) out of range for %d rows", begin, begin+n, m.rows))
	}
	sub := m
	sub.rows = n
	if n == 0 {
		sub.es = nil
		return sub
	}
	sub.es = m.es[begin*m.stride:]
	return sub
}

// SubCols returns columns [begin, begin+n) of every row, keeping the stride.
func (m Mat) SubCols(begin, n int) Mat {
	if begin < 0 || n < 0 || begin+n > m.cols {
		panic(fmt.Sprintf("Column range [%d, %d) out of range for %d cols", begin, begin+n, m.cols))
	}
	sub := m
	sub.cols = n
	if m.rows == 0 {
		return sub
	}
	sub.es = m.es[begin:]
	return sub
}

// AsRow views a single-row matrix as a Row.
func (m Mat) AsRow() Row {
	if m.rows != 1 {
		panic(fmt.Sprintf("AsRow on a matrix with %d rows", m.rows))
	}
	return Row{cols: m.cols, es: m.es[:m.cols:m.cols], owner: m.owner, end: m.end}
}

func (m Mat) Fill(x float32) {
	for i := 0; i < m.rows; i++ {
		row := m.es[i*m.stride : i*m.stride+m.cols]
		for j := range row {
			row[j] = x
		}
	}
}

// Rand fills m with uniform values in [low, high).
func (m Mat) Rand(low, high float32) {
	for i := 0; i < m.rows; i++ {
		row := m.es[i*m.stride : i*m.stride+m.cols]
		for j := range row {
			row[j] = rand.Float32()*(high-low) + low
		}
	}
}

func (m Mat) RandWith(r *rand.Rand, low, high float32) {
	for i := 0; i < m.rows; i++ {
		row := m.es[i*m.stride : i*m.stride+m.cols]
		for j := range row {
			row[j] = r.Float32()*(high-low) + low
		}
	}
}

// Activate applies act to every element in place.
func (m Mat) Activate(act Activation) {
	for i := 0; i < m.rows; i++ {
		row := m.es[i*m.stride : i*m.stride+m.cols]
		for j, v := range row {
			row[j] = act.Apply(v)
		}
	}
}

// ShuffleRows permutes the rows of m in place (Fisher-Yates).
func (m Mat) ShuffleRows() {
	m.shuffleRows(rand.IntN)
}

func (m Mat) ShuffleRowsWith(r *rand.Rand) {
	m.shuffleRows(r.IntN)
}

func (m Mat) shuffleRows(intN func(int) int) {
	for i := 0; i < m.rows; i++ {
		j := i + intN(m.rows-i)
		if i == j {
			continue
		}
		a := m.es[i*m.stride : i*m.stride+m.cols]
		b := m.es[j*m.stride : j*m.stride+m.cols]
		for k := range a {
			a[k], b[k] = b[k], a[k]
		}
	}
}

// General exposes m to gonum's float32 BLAS without copying.
func (m Mat) General() blas32.General {
	return blas32.General{Rows: m.rows, Cols: m.cols, Stride: m.stride, Data: m.es}
}

// Dense copies m into a float64 gonum matrix.
func (m Mat) Dense() *mat.Dense {
	if m.rows == 0 || m.cols == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(m.rows, m.cols, nil)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			d.Set(i, j, float64(m.es[i*m.stride+j]))
		}
	}
	return d
}

func (m Mat) Print(w io.Writer, name string) {
	if m.rows == 0 || m.cols == 0 {
		fmt.Fprintf(w, "%s = []\n", name)
		return
	}
	fmt.Fprintf(w, "%s = %v\n", name, mat.Formatted(m.Dense(), mat.Prefix("    "), mat.Squeeze()))
}

// ------- ROW METHODS ------ //
func (r Row) Cols() int { return r.cols }

func (r Row) At(j int) float32 {
	return r.es[r.index(j)]
}

func (r Row) Set(j int, v float32) {
	r.es[r.index(j)] = v
}

func (r Row) index(j int) int {
	if j < 0 || j >= r.cols {
		panic(fmt.Sprintf("Column %d out of range for %d cols", j, r.cols))
	}
	return j
}

// Data returns the row's elements; writes go to the underlying storage.
func (r Row) Data() []float32 {
	return r.es[:r.cols]
}

// Slice returns columns [begin, begin+n) of the row.
func (r Row) Slice(begin, n int) Row {
	if begin < 0 || n < 0 || begin+n > r.cols {
		panic(fmt.Sprintf("Column range [%d, %d) out of range for %d cols", begin, begin+n, r.cols))
	}
	return Row{cols: n, es: r.es[begin : begin+n : begin+n], owner: r.owner, end: r.end}
}

func (r Row) AsMat() Mat {
	return Mat{rows: 1, cols: r.cols, stride: r.cols, es: r.es, owner: r.owner, end: r.end}
}

func (r Row) Fill(x float32) { r.AsMat().Fill(x) }

func (r Row) Rand(low, high float32) { r.AsMat().Rand(low, high) }

func (r Row) Copy(src Row) { Copy(r.AsMat(), src.AsMat()) }

// ------ UTILITY FUNCTIONS ------

// Dot computes dst = a·b with a plain triple loop.
func Dot(dst, a, b Mat) {
	if a.cols != b.rows || dst.rows != a.rows || dst.cols != b.cols {
		panic(fmt.Sprintf("Shape mismatch: [%d, %d] = [%d, %d] x [%d, %d]",
			dst.rows, dst.cols, a.rows, a.cols, b.rows, b.cols))
	}
	n := a.cols
	for i := 0; i < dst.rows; i++ {
		for j := 0; j < dst.cols; j++ {
			var acc float32
			for k := 0; k < n; k++ {
				acc += a.es[i*a.stride+k] * b.es[k*b.stride+j]
			}
			dst.es[i*dst.stride+j] = acc
		}
	}
}

// Sum computes dst += a.
func Sum(dst, a Mat) {
	if dst.rows != a.rows || dst.cols != a.cols {
		panic(fmt.Sprintf("Shape mismatch: [%d, %d] += [%d, %d]", dst.rows, dst.cols, a.rows, a.cols))
	}
	for i := 0; i < dst.rows; i++ {
		d := dst.es[i*dst.stride : i*dst.stride+dst.cols]
		s := a.es[i*a.stride : i*a.stride+a.cols]
		for j := range d {
			d[j] += s[j]
		}
	}
}

func Copy(dst, src Mat) {
	if dst.rows != src.rows || dst.cols != src.cols {
		panic(fmt.Sprintf("Shape mismatch: copy [%d, %d] into [%d, %d]", src.rows, src.cols, dst.rows, dst.cols))
	}
	for i := 0; i < dst.rows; i++ {
		copy(dst.es[i*dst.stride:i*dst.stride+dst.cols], src.es[i*src.stride:i*src.stride+src.cols])
	}
}

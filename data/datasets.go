package data

import (
	"github.com/b0tShaman/neuro-arena/ml"
)

// XOR returns the 4x3 truth table of a xor b: columns a, b, a^b.
func XOR(a *ml.Arena) ml.Mat {
	t := ml.NewMat(a, 4, 3)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			row := i*2 + j
			t.Set(row, 0, float32(i))
			t.Set(row, 1, float32(j))
			t.Set(row, 2, float32(i^j))
		}
	}
	return t
}

// Adder returns every (x, y) pair of bits-wide operands, one per row.
// Inputs are the bits of x then the bits of y, least significant first.
// Labels are the low bits of x+y followed by an overflow flag (x+y >= 2^bits).
func Adder(a *ml.Arena, bits int) ml.Mat {
	if bits <= 0 || bits > 16 {
		panic("Adder width must be in [1, 16] bits")
	}
	n := 1 << bits
	t := ml.NewMat(a, n*n, 2*bits+bits+1)
	for i := 0; i < t.Rows(); i++ {
		x, y := i/n, i%n
		z := x + y
		for j := 0; j < bits; j++ {
			t.Set(i, j, float32((x>>j)&1))
			t.Set(i, j+bits, float32((y>>j)&1))
			t.Set(i, 2*bits+j, float32((z>>j)&1))
		}
		if z >= n {
			t.Set(i, 3*bits, 1)
		}
	}
	return t
}

// AdderArch is the architecture the adder demo trains: 2*bits inputs,
// a hidden layer of hidden neurons and bits+1 outputs.
func AdderArch(bits, hidden int) []int {
	return []int{2 * bits, hidden, bits + 1}
}

// DecodeAdder reads the sum and overflow flag from an adder network output,
// treating every value above 0.5 as a set bit.
func DecodeAdder(out ml.Row, bits int) (sum int, overflow bool) {
	for i := 0; i < bits; i++ {
		if out.At(i) > 0.5 {
			sum |= 1 << i
		}
	}
	return sum, out.At(bits) > 0.5
}

// AdderMismatches counts rows of t whose decoded prediction differs from
// x+y, either in the low bits or in the overflow flag.
func AdderMismatches(nw *ml.NeuralNetwork, t ml.Mat, bits int) int {
	n := 1 << bits
	in := nw.Input.Cols()
	mismatches := 0
	for i := 0; i < t.Rows(); i++ {
		row := t.Row(i)
		x, y := 0, 0
		for j := 0; j < bits; j++ {
			if row.At(j) > 0.5 {
				x |= 1 << j
			}
			if row.At(j+bits) > 0.5 {
				y |= 1 << j
			}
		}
		nw.Input.Copy(row.Slice(0, in))
		nw.Forward()
		sum, overflow := DecodeAdder(nw.Output(), bits)
		if sum != (x+y)%n || overflow != (x+y >= n) {
			mismatches++
		}
	}
	return mismatches
}

// SplitInOut views the input and label column blocks of a training tensor.
func SplitInOut(t ml.Mat, in, out int) (ml.Mat, ml.Mat) {
	if t.Cols() != in+out {
		panic("Tensor columns do not match inputs + outputs")
	}
	return t.SubCols(0, in), t.SubCols(in, out)
}

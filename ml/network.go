package ml

import (
	"fmt"
	"io"
	"math/rand/v2"
)

// NeuralNetwork is a stack of fully connected layers. Every matrix and row
// in it is carved from the arena passed to NewNetwork.
type NeuralNetwork struct {
	Input  Row
	Layers []*Layer

	arch []int
	act  Activation
	conv BackpropConvention
}

// Layer maps the previous activation row to A = f(prev·Weights + Biases).
type Layer struct {
	Weights Mat
	Biases  Row
	A       Row
}

type NetworkOption func(*NeuralNetwork)

func WithActivation(act Activation) NetworkOption {
	return func(nw *NeuralNetwork) {
		nw.act = act
	}
}

func WithBackprop(conv BackpropConvention) NetworkOption {
	return func(nw *NeuralNetwork) {
		nw.conv = conv
	}
}

// Neural Network Builder
func NewNetwork(a *Arena, arch []int, opts ...NetworkOption) *NeuralNetwork {
	if len(arch) < 2 {
		panic(ErrArchTooShort)
	}

	nw := &NeuralNetwork{
		arch: append([]int(nil), arch...),
		act:  ActSigmoid,
	}
	for _, opt := range opts {
		opt(nw)
	}

	nw.Input = NewRow(a, arch[0])
	prevOutputSize := arch[0]
	for i := 1; i < len(arch); i++ {
		nw.Layers = append(nw.Layers, &Layer{
			Weights: NewMat(a, prevOutputSize, arch[i]),
			Biases:  NewRow(a, arch[i]),
			A:       NewRow(a, arch[i]),
		})
		prevOutputSize = arch[i]
	}
	return nw
}

// -------- NEURAL NETWORK METHODS -------- //
func (nw *NeuralNetwork) Arch() []int                    { return nw.arch }
func (nw *NeuralNetwork) Activation() Activation         { return nw.act }
func (nw *NeuralNetwork) Convention() BackpropConvention { return nw.conv }

func (nw *NeuralNetwork) Output() Row {
	return nw.Layers[len(nw.Layers)-1].A
}

// Activations returns activation row l, where row 0 is the input.
func (nw *NeuralNetwork) Activations(l int) Row {
	if l == 0 {
		return nw.Input
	}
	return nw.Layers[l-1].A
}

func (nw *NeuralNetwork) Zero() {
	nw.Input.Fill(0)
	for _, layer := range nw.Layers {
		layer.Weights.Fill(0)
		layer.Biases.Fill(0)
		layer.A.Fill(0)
	}
}

// Rand fills weights and biases with uniform values in [low, high).
func (nw *NeuralNetwork) Rand(low, high float32) {
	for _, layer := range nw.Layers {
		layer.Weights.Rand(low, high)
		layer.Biases.Rand(low, high)
	}
}

func (nw *NeuralNetwork) RandWith(r *rand.Rand, low, high float32) {
	for _, layer := range nw.Layers {
		layer.Weights.RandWith(r, low, high)
		layer.Biases.AsMat().RandWith(r, low, high)
	}
}

// Forward propagates Input through every layer, overwriting each A.
func (nw *NeuralNetwork) Forward() {
	prev := nw.Input
	for _, layer := range nw.Layers {
		out := layer.A.AsMat()
		Dot(out, prev.AsMat(), layer.Weights)
		Sum(out, layer.Biases.AsMat())
		out.Activate(nw.act)
		prev = layer.A
	}
}

// ValidateTensor checks that t's columns split into the network's inputs
// followed by its outputs.
func (nw *NeuralNetwork) ValidateTensor(t Mat) error {
	in, out := nw.Input.Cols(), nw.Output().Cols()
	if t.Cols() != in+out {
		return fmt.Errorf("%w: tensor has %d columns, network expects %d inputs + %d outputs",
			ErrShapeMismatch, t.Cols(), in, out)
	}
	return nil
}

func (nw *NeuralNetwork) CheckTensor(t Mat) {
	if err := nw.ValidateTensor(t); err != nil {
		panic(err)
	}
}

// Cost is the mean over rows of the summed squared output error.
// It runs Forward on every row, so the activations end up holding the last sample.
func (nw *NeuralNetwork) Cost(t Mat) float32 {
	nw.CheckTensor(t)
	n := t.Rows()
	if n == 0 {
		return 0
	}
	in, out := nw.Input.Cols(), nw.Output().Cols()
	output := nw.Output()

	var c float32
	for i := 0; i < n; i++ {
		row := t.Row(i)
		nw.Input.Copy(row.Slice(0, in))
		nw.Forward()
		y := row.Slice(in, out)
		for j := 0; j < out; j++ {
			d := output.es[j] - y.es[j]
			c += d * d
		}
	}
	return c / float32(n)
}

// Predict runs one sample through the network and returns the output row.
func (nw *NeuralNetwork) Predict(input []float32) Row {
	if len(input) != nw.Input.Cols() {
		panic(fmt.Sprintf("Input size mismatch. Expected %d, got %d", nw.Input.Cols(), len(input)))
	}
	copy(nw.Input.Data(), input)
	nw.Forward()
	return nw.Output()
}

func (nw *NeuralNetwork) Print(w io.Writer, name string) {
	fmt.Fprintf(w, "%s = [\n", name)
	for i, layer := range nw.Layers {
		layer.Weights.Print(w, fmt.Sprintf("    ws%d", i))
		layer.Biases.AsMat().Print(w, fmt.Sprintf("    bs%d", i))
	}
	fmt.Fprintln(w, "]")
}

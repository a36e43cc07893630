package ml

import (
	"math"

	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
)

// BackpropConvention selects where the factor 2 of d(residual²) is applied.
// Both give the same descent direction within a layer.
type BackpropConvention int

const (
	// BackpropDoubled seeds the output gradient with (output - label) and
	// doubles every layer's error term, so layer l of L is scaled by
	// 2^(L-1-l) relative to dCost.
	BackpropDoubled BackpropConvention = iota
	// BackpropTraditional seeds it with 2*(output - label) and leaves the
	// error terms alone, which is exactly dCost.
	BackpropTraditional
)

// SeedScale multiplies the output residual.
func (c BackpropConvention) SeedScale() float32 {
	if c == BackpropTraditional {
		return 2
	}
	return 1
}

// LayerScale multiplies every per-neuron error term.
func (c BackpropConvention) LayerScale() float32 {
	if c == BackpropTraditional {
		return 1
	}
	return 2
}

// GradientScale is the ratio between the gradient Backprop reports for
// layer l (0-based, out of layers) and the true dCost.
func (c BackpropConvention) GradientScale(l, layers int) float64 {
	q := float64(c.LayerScale())
	r := float64(c.SeedScale()) * q / 2
	for i := l + 1; i < layers; i++ {
		r *= q
	}
	return r
}

func (c BackpropConvention) String() string {
	if c == BackpropTraditional {
		return "traditional"
	}
	return "doubled"
}

// Backprop returns the batch-mean gradient of nw over t. The gradient has the
// same shape as nw and is carved from a; its activation rows hold the
// per-sample error terms of the last row processed.
func Backprop(a *Arena, nw *NeuralNetwork, t Mat) *NeuralNetwork {
	nw.CheckTensor(t)

	g := NewNetwork(a, nw.arch, WithActivation(nw.act), WithBackprop(nw.conv))
	g.Zero()

	n := t.Rows()
	in, out := nw.Input.Cols(), nw.Output().Cols()
	s, q := nw.conv.SeedScale(), nw.conv.LayerScale()

	// i - current sample
	// l - current layer
	// j - current activation
	// k - previous activation
	for i := 0; i < n; i++ {
		row := t.Row(i)
		nw.Input.Copy(row.Slice(0, in))
		nw.Forward()

		for l := 0; l <= len(g.Layers); l++ {
			g.Activations(l).Fill(0)
		}

		y := row.Slice(in, out)
		output, dOutput := nw.Output(), g.Output()
		for j := 0; j < out; j++ {
			dOutput.es[j] = s * (output.es[j] - y.es[j])
		}

		for l := len(nw.Layers); l > 0; l-- {
			layer, grad := nw.Layers[l-1], g.Layers[l-1]
			prev, dPrev := nw.Activations(l-1), g.Activations(l-1)
			ws, dws := layer.Weights, grad.Weights

			for j := 0; j < layer.A.cols; j++ {
				e := q * grad.A.es[j] * nw.act.Derivative(layer.A.es[j])
				grad.Biases.es[j] += e
				for k := 0; k < prev.cols; k++ {
					pa := prev.es[k]
					w := ws.es[k*ws.stride+j]
					dws.es[k*dws.stride+j] += e * pa
					dPrev.es[k] += e * w
				}
			}
		}
	}

	if n > 0 {
		for _, layer := range g.Layers {
			divide(layer.Weights, float32(n))
			divide(layer.Biases.AsMat(), float32(n))
		}
	}
	return g
}

func divide(m Mat, n float32) {
	for i := 0; i < m.rows; i++ {
		row := blas32.Vector{N: m.cols, Inc: 1, Data: m.es[i*m.stride : i*m.stride+m.cols]}
		blas32.Scal(1/n, row)
	}
}

// Params flattens every weight matrix and bias row, layer by layer.
func Params(nw *NeuralNetwork) []float32 {
	var p []float32
	for _, layer := range nw.Layers {
		w := layer.Weights
		for i := 0; i < w.rows; i++ {
			p = append(p, w.es[i*w.stride:i*w.stride+w.cols]...)
		}
		p = append(p, layer.Biases.Data()...)
	}
	return p
}

// SetParams is the inverse of Params.
func SetParams(nw *NeuralNetwork, p []float64) {
	idx := 0
	for _, layer := range nw.Layers {
		w := layer.Weights
		for i := 0; i < w.rows; i++ {
			for j := 0; j < w.cols; j++ {
				w.es[i*w.stride+j] = float32(p[idx])
				idx++
			}
		}
		for j := range layer.Biases.Data() {
			layer.Biases.es[j] = float32(p[idx])
			idx++
		}
	}
	if idx != len(p) {
		panic("Parameter count mismatch")
	}
}

// FiniteDiff estimates dCost/dparam for every parameter in Params order
// with central differences. The network's parameters are restored on return.
func FiniteDiff(nw *NeuralNetwork, t Mat, step float64) []float64 {
	params := Params(nw)
	x := make([]float64, len(params))
	for i, v := range params {
		x[i] = float64(v)
	}

	cost := func(p []float64) float64 {
		SetParams(nw, p)
		return float64(nw.Cost(t))
	}
	grad := fd.Gradient(nil, cost, x, &fd.Settings{
		Formula: fd.Central,
		Step:    step,
	})

	SetParams(nw, x)
	return grad
}

// GradCheck returns the largest absolute difference between the backprop
// gradient, rescaled per layer to dCost, and its finite-difference estimate.
func GradCheck(a *Arena, nw *NeuralNetwork, t Mat, step float64) float64 {
	if a != nil {
		cp := a.Save()
		defer a.Rewind(cp)
	}

	g := Backprop(a, nw, t)
	var analytic []float64
	for l, layer := range g.Layers {
		p := make([]float64, 0, (layer.Weights.rows+1)*layer.Weights.cols)
		for i := 0; i < layer.Weights.rows; i++ {
			for _, v := range layer.Weights.es[i*layer.Weights.stride : i*layer.Weights.stride+layer.Weights.cols] {
				p = append(p, float64(v))
			}
		}
		for _, v := range layer.Biases.Data() {
			p = append(p, float64(v))
		}
		floats.Scale(1/nw.conv.GradientScale(l, len(g.Layers)), p)
		analytic = append(analytic, p...)
	}

	numeric := FiniteDiff(nw, t, step)
	return floats.Distance(analytic, numeric, math.Inf(1))
}

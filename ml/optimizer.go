package ml

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas32"
)

// Learn applies one gradient descent step: W = W - (rate * gradient).
func Learn(nw, g *NeuralNetwork, rate float32) {
	if len(nw.Layers) != len(g.Layers) {
		panic(fmt.Sprintf("Shape mismatch: network has %d layers, gradient has %d", len(nw.Layers), len(g.Layers)))
	}
	for i, layer := range nw.Layers {
		descend(layer.Weights, g.Layers[i].Weights, rate)
		descend(layer.Biases.AsMat(), g.Layers[i].Biases.AsMat(), rate)
	}
}

func descend(params, grads Mat, rate float32) {
	if params.rows != grads.rows || params.cols != grads.cols {
		panic(fmt.Sprintf("Shape mismatch: [%d, %d] vs gradient [%d, %d]",
			params.rows, params.cols, grads.rows, grads.cols))
	}
	for i := 0; i < params.rows; i++ {
		x := blas32.Vector{N: grads.cols, Inc: 1, Data: grads.es[i*grads.stride : i*grads.stride+grads.cols]}
		y := blas32.Vector{N: params.cols, Inc: 1, Data: params.es[i*params.stride : i*params.stride+params.cols]}
		blas32.Axpy(-rate, x, y)
	}
}

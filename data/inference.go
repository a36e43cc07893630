package data

import (
	"github.com/b0tShaman/neuro-arena/ml"
)

// greedySample finds the index of the maximum output.
func greedySample(probs []float32) int {
	maxProb := float32(-1)
	maxIdx := 0
	for i, p := range probs {
		if i == 0 || p > maxProb {
			maxProb = p
			maxIdx = i
		}
	}
	return maxIdx
}

// Classify runs one sample through nw and returns the index of the largest
// output together with its value, for networks trained on one-hot labels.
func Classify(nw *ml.NeuralNetwork, input []float32) (int, float32) {
	out := nw.Predict(input).Data()
	best := greedySample(out)
	return best, out[best]
}

// Accuracy is the share of rows in t whose largest output matches the
// largest label column.
func Accuracy(nw *ml.NeuralNetwork, t ml.Mat) float64 {
	if t.Rows() == 0 {
		return 0
	}
	nw.CheckTensor(t)
	in, out := nw.Input.Cols(), nw.Output().Cols()
	correct := 0
	for i := 0; i < t.Rows(); i++ {
		row := t.Row(i)
		predicted, _ := Classify(nw, row.Slice(0, in).Data())
		if predicted == greedySample(row.Slice(in, out).Data()) {
			correct++
		}
	}
	return float64(correct) / float64(t.Rows())
}

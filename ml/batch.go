package ml

import "fmt"

// Batch is the cursor of an epoch that is trained one batch per call.
// After the call that finishes an epoch, Cost holds the epoch's mean batch cost.
type Batch struct {
	Begin    int
	Cost     float32
	Finished bool
}

// Process trains nw on the next batchSize rows of t: one Backprop and one
// Learn step. The gradient is allocated from a; callers rewind a afterwards.
func (b *Batch) Process(a *Arena, batchSize int, nw *NeuralNetwork, t Mat, rate float32) {
	if batchSize <= 0 {
		panic(fmt.Sprintf("Batch size must be positive, got %d", batchSize))
	}
	if t.Rows() == 0 {
		panic("Cannot train on an empty tensor")
	}
	if b.Finished {
		b.Finished = false
		b.Begin = 0
		b.Cost = 0
	}

	size := batchSize
	if b.Begin+size >= t.Rows() {
		size = t.Rows() - b.Begin
	}

	batchT := t.SubRows(b.Begin, size)
	g := Backprop(a, nw, batchT)
	Learn(nw, g, rate)
	b.Cost += nw.Cost(batchT)
	b.Begin += batchSize

	if b.Begin >= t.Rows() {
		b.Cost /= float32(BatchCount(t.Rows(), batchSize))
		b.Finished = true
	}
}

// BatchCount is the number of Process calls in one epoch.
func BatchCount(rows, batchSize int) int {
	return (rows + batchSize - 1) / batchSize
}

package ml

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCostHistory(t *testing.T) {
	var h CostHistory
	lo, hi := h.MinMax()
	assert.Zero(t, lo)
	assert.Zero(t, hi)
	assert.Zero(t, h.Last())

	h.Append(0.5)
	h.Append(0.25)
	h.Append(0.75)
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 0.75, h.Last())

	lo, hi = h.MinMax()
	assert.Equal(t, 0.0, lo, "min is clamped to the zero baseline")
	assert.Equal(t, 0.75, hi)
}

func TestNetworkWords(t *testing.T) {
	assert.Equal(t, 2+(2*2+2*2)+(2*1+2*1), NetworkWords([]int{2, 2, 1}))
	assert.Equal(t, 8+(8*16+32)+(16*5+10), NetworkWords([]int{8, 16, 5}))
}

func TestValidateConfigDefaults(t *testing.T) {
	nw := NewNetwork(nil, []int{2, 2, 1})
	cfg := validateConfig(nw, xorTensor(), TrainingConfig{Epochs: 1})
	assert.Equal(t, 4, cfg.BatchSize)
	assert.Equal(t, 100, cfg.VerboseEvery)
	assert.Equal(t, NetworkWords([]int{2, 2, 1}), cfg.ScratchWords)

	assert.Panics(t, func() { validateConfig(nw, xorTensor(), TrainingConfig{Epochs: -1}) })
	assert.Panics(t, func() { validateConfig(nw, xorTensor(), TrainingConfig{BatchSize: -1}) })
	assert.Panics(t, func() { validateConfig(nw, NewMat(nil, 0, 3), TrainingConfig{}) })
	assert.Panics(t, func() { validateConfig(nw, NewMat(nil, 4, 2), TrainingConfig{}) })
}

func TestTrainRecordsEveryEpoch(t *testing.T) {
	arch := []int{2, 4, 1}
	nw := NewNetwork(nil, arch, WithBackprop(BackpropTraditional))
	nw.RandWith(rand.New(rand.NewPCG(8, 9)), -1, 1)
	tensor := xorTensor()
	path := filepath.Join(t.TempDir(), "xor.model")

	history := Train(nw, tensor, TrainingConfig{
		Epochs:       200,
		BatchSize:    2,
		LearningRate: 1,
		ModelPath:    path,
		NoShuffle:    true,
	})

	require.Equal(t, 200, history.Len())
	assert.Less(t, history.Last(), history.Costs[0])

	saved := NewNetwork(nil, arch)
	require.NoError(t, saved.LoadFromFile(path))
	assert.Equal(t, Params(nw), Params(saved))
}

func TestTrainShufflesRows(t *testing.T) {
	nw := NewNetwork(nil, []int{2, 1})
	tensor := NewMat(nil, 40, 3)
	for i := 0; i < tensor.Rows(); i++ {
		tensor.Set(i, 0, float32(i))
	}
	Train(nw, tensor, TrainingConfig{Epochs: 1, LearningRate: 0})

	moved := false
	var total float32
	for i := 0; i < tensor.Rows(); i++ {
		if tensor.At(i, 0) != float32(i) {
			moved = true
		}
		total += tensor.At(i, 0)
	}
	assert.True(t, moved)
	assert.Equal(t, float32(39*40/2), total)
}

func TestTrainStopsOnInterrupt(t *testing.T) {
	arch := []int{2, 2, 1}
	nw := NewNetwork(nil, arch)
	nw.RandWith(rand.New(rand.NewPCG(4, 5)), -1, 1)
	path := filepath.Join(t.TempDir(), "xor.model")

	interrupt := make(chan os.Signal, 1)
	interrupt <- os.Interrupt
	history := train(nw, xorTensor(), TrainingConfig{
		Epochs:       1000,
		BatchSize:    1,
		LearningRate: 1,
		ModelPath:    path,
	}, interrupt)

	// the first batch runs, then the loop saves and returns mid-epoch
	assert.Zero(t, history.Len())
	saved := NewNetwork(nil, arch)
	require.NoError(t, saved.LoadFromFile(path))
	assert.Equal(t, Params(nw), Params(saved))
}

func TestSignalHandlerNeedsModelPath(t *testing.T) {
	interrupt, stop := setupSignalHandler("")
	assert.Nil(t, interrupt)
	stop()

	interrupt, stop = setupSignalHandler(filepath.Join(t.TempDir(), "m.model"))
	assert.NotNil(t, interrupt)
	stop()
}

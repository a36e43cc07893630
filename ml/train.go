package ml

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gonum.org/v1/gonum/floats"
)

type TrainingConfig struct {
	Epochs       int
	BatchSize    int // Rows per Batch.Process call; 0 trains on the whole tensor
	LearningRate float32
	ModelPath    string // Saved after training and on interrupt when set
	VerboseEvery int    // How often to log progress (in epochs)

	// Words reserved for the scratch arena that holds gradients.
	// Zero sizes it to one gradient network.
	ScratchWords int

	// Rows are reshuffled after every epoch unless NoShuffle is set.
	NoShuffle bool
}

// CostHistory records the mean cost of every finished epoch.
type CostHistory struct {
	Costs []float64
}

func (h *CostHistory) Append(cost float32) {
	h.Costs = append(h.Costs, float64(cost))
}

func (h *CostHistory) Len() int { return len(h.Costs) }

func (h *CostHistory) Last() float64 {
	if len(h.Costs) == 0 {
		return 0
	}
	return h.Costs[len(h.Costs)-1]
}

// MinMax returns the range of recorded costs, with min clamped to at most 0
// so plots keep a zero baseline.
func (h *CostHistory) MinMax() (lo, hi float64) {
	if len(h.Costs) == 0 {
		return 0, 0
	}
	lo, hi = floats.Min(h.Costs), floats.Max(h.Costs)
	if lo > 0 {
		lo = 0
	}
	return lo, hi
}

// Train runs cfg.Epochs epochs of mini-batch gradient descent over t.
// Every batch is one Batch.Process call against a scratch arena that is
// rewound right after it, the same tick a redraw loop would use.
// When ModelPath is set, SIGINT/SIGTERM stops training after the current
// batch and saves the model.
func Train(nw *NeuralNetwork, t Mat, cfg TrainingConfig) *CostHistory {
	interrupt, stop := setupSignalHandler(cfg.ModelPath)
	defer stop()
	return train(nw, t, cfg, interrupt)
}

func train(nw *NeuralNetwork, t Mat, cfg TrainingConfig, interrupt <-chan os.Signal) *CostHistory {
	fmt.Printf("TrainingConfig: %+v\n", cfg)
	cfg = validateConfig(nw, t, cfg)

	scratch := NewArena(cfg.ScratchWords)
	history := &CostHistory{}

	start := time.Now()
	fmt.Println("Starting Training...")

	var batch Batch
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		for {
			cp := scratch.Save()
			batch.Process(scratch, cfg.BatchSize, nw, t, cfg.LearningRate)
			scratch.Rewind(cp)

			select {
			case <-interrupt:
				fmt.Println("\nInterrupt! Saving model...")
				saveModel(nw, cfg.ModelPath)
				return history
			default:
			}

			if batch.Finished {
				break
			}
		}
		history.Append(batch.Cost)
		if !cfg.NoShuffle {
			t.ShuffleRows()
		}

		if epoch%cfg.VerboseEvery == 0 || epoch == 1 {
			fmt.Printf("Epoch %d | Cost: %.6f | Time: %v\n", epoch, batch.Cost, time.Since(start))
		}
	}

	saveModel(nw, cfg.ModelPath)
	fmt.Printf("Training Complete. Total Time: %v\n\n", time.Since(start))
	return history
}

func saveModel(nw *NeuralNetwork, path string) {
	if path == "" {
		return
	}
	if err := nw.SaveToFile(path); err != nil {
		fmt.Printf("⚠️ Could not save model to %s: %v\n", path, err)
	}
}

func validateConfig(nw *NeuralNetwork, t Mat, cfg TrainingConfig) TrainingConfig {
	nw.CheckTensor(t)
	if t.Rows() == 0 {
		panic("Training tensor has no rows")
	}
	if cfg.Epochs < 0 {
		panic("Epochs must be non-negative")
	}
	if cfg.BatchSize < 0 {
		panic("BatchSize must be non-negative")
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = t.Rows()
	}
	if cfg.VerboseEvery <= 0 {
		cfg.VerboseEvery = 100
	}
	if cfg.ScratchWords == 0 {
		cfg.ScratchWords = NetworkWords(nw.arch)
	}
	return cfg
}

// NetworkWords is the arena space NewNetwork needs for arch.
func NetworkWords(arch []int) int {
	words := arch[0]
	for i := 1; i < len(arch); i++ {
		words += arch[i-1]*arch[i] + 2*arch[i]
	}
	return words
}

// setupSignalHandler captures SIGINT/SIGTERM so the training loop can save
// the model between batches. Nothing is captured without a model path.
func setupSignalHandler(modelPath string) (<-chan os.Signal, func()) {
	if modelPath == "" {
		return nil, func() {}
	}
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	return sigChan, func() { signal.Stop(sigChan) }
}

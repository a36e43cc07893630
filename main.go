package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/b0tShaman/neuro-arena/data"
	. "github.com/b0tShaman/neuro-arena/ml"
)

const (
	assetsDir = "assets"
	adderBits = 4
)

// -------- MAIN -------- //
func main() {
	if err := run(assetsDir); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func run(dir string) error {
	archPath := filepath.Join(dir, "adder.arch")
	dataPath := filepath.Join(dir, "adder.mat")
	modelFile := filepath.Join(dir, "adder.model")

	// 1. Load Data
	fmt.Println("Loading dataset...")
	if err := ensureAssets(dir, archPath, dataPath); err != nil {
		return err
	}

	arch, err := ParseArchFile(archPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", archPath, err)
	}

	// Persistent arena: network weights + activations + training tensor.
	tensorWords, err := matWords(dataPath)
	if err != nil {
		return err
	}
	persistent := NewArena(NetworkWords(arch) + tensorWords)

	t, err := LoadMatFile(dataPath, persistent)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dataPath, err)
	}
	fmt.Printf("Loaded dataset: %d samples, %d columns\n", t.Rows(), t.Cols())

	// 2. Initialize Network
	nw := NewNetwork(persistent, arch)
	if err := nw.ValidateTensor(t); err != nil {
		return err
	}
	nw.Rand(-1, 1)

	// Auto-Load weights if they exist
	if _, err := os.Stat(modelFile); err == nil {
		fmt.Println("Found existing model. Loading weights...")
		if err := nw.LoadFromFile(modelFile); err != nil {
			fmt.Printf("⚠️ Model mismatch (%v). Starting training from scratch.\n", err)
		}
	}
	fmt.Printf("Arena: %d of %d words in use (%d bytes)\n", persistent.Used(), persistent.Capacity(), persistent.OccupiedBytes())

	// 3. Configure & Train
	config := TrainingConfig{
		Epochs:       5000,
		BatchSize:    28,
		LearningRate: 1,
		ModelPath:    modelFile,
		VerboseEvery: 500,
	}
	history := Train(nw, t, config)
	lo, hi := history.MinMax()
	fmt.Printf("Cost range over %d epochs: [%.6f, %.6f], final %.6f\n", history.Len(), lo, hi, history.Last())

	// 4. Inference
	printPredictions(nw, adderBits)
	fmt.Printf("Mismatches: %d of %d\n", data.AdderMismatches(nw, t, adderBits), t.Rows())
	return nil
}

// ensureAssets writes the adder architecture and training tensor on first run.
func ensureAssets(dir, archPath, dataPath string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if _, err := os.Stat(archPath); errors.Is(err, fs.ErrNotExist) {
		arch := data.AdderArch(adderBits, 4*adderBits)
		line := fmt.Sprintf("%d %d %d\n", arch[0], arch[1], arch[2])
		if err := os.WriteFile(archPath, []byte(line), 0o644); err != nil {
			return err
		}
		fmt.Printf("Generated %s\n", archPath)
	}
	if _, err := os.Stat(dataPath); errors.Is(err, fs.ErrNotExist) {
		if err := SaveMatFile(dataPath, data.Adder(nil, adderBits)); err != nil {
			return err
		}
		fmt.Printf("Generated %s\n", dataPath)
	}
	return nil
}

// matWords is the arena space a matrix file needs once loaded, taken from
// its size on disk.
func matWords(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	payload := info.Size() - int64(len(MatMagic)+16)
	if payload < 0 {
		return 0, fmt.Errorf("%s: %w", path, ErrTruncated)
	}
	return int(payload / 4), nil
}

func printPredictions(nw *NeuralNetwork, bits int) {
	n := 1 << bits
	input := make([]float32, 2*bits)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for j := 0; j < bits; j++ {
				input[j] = float32((x >> j) & 1)
				input[bits+j] = float32((y >> j) & 1)
			}
			sum, overflow := data.DecodeAdder(nw.Predict(input), bits)
			mark := ""
			if sum != (x+y)%n || overflow != (x+y >= n) {
				mark = "  ✗"
			}
			fmt.Printf("%2d + %2d = %2d (overflow: %v)%s\n", x, y, sum, overflow, mark)
		}
	}
}

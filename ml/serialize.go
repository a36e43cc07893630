package ml

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Matrix files start with this tag, followed by rows and cols as
// little-endian uint64 words and rows*cols little-endian float32 values.
const (
	MatMagic    = "nn.h.mat"
	MatMagicU64 = uint64(0x74616d2e682e6e6e)
	headerWord  = 8
)

// SaveMat writes m in the binary matrix format. Short writes are retried
// until the payload is out or the writer reports an error.
func SaveMat(w io.Writer, m Mat) error {
	header := make([]byte, len(MatMagic)+2*headerWord)
	copy(header, MatMagic)
	binary.LittleEndian.PutUint64(header[8:], uint64(m.rows))
	binary.LittleEndian.PutUint64(header[16:], uint64(m.cols))
	if err := writeAll(w, header); err != nil {
		return fmt.Errorf("failed to write matrix header: %w", err)
	}

	buf := make([]byte, 4*m.cols)
	for i := 0; i < m.rows; i++ {
		row := m.es[i*m.stride : i*m.stride+m.cols]
		for j, v := range row {
			binary.LittleEndian.PutUint32(buf[4*j:], math.Float32bits(v))
		}
		if err := writeAll(w, buf); err != nil {
			return fmt.Errorf("failed to write matrix row %d of %d: %w", i, m.rows, err)
		}
	}
	return nil
}

func writeAll(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

// LoadMat reads a matrix written by SaveMat into storage carved from a
// (or the heap when a is nil). A wrong file tag panics; a stream that ends
// early yields an error wrapping ErrTruncated and gives the space back to a.
func LoadMat(r io.Reader, a *Arena) (Mat, error) {
	header := make([]byte, len(MatMagic)+2*headerWord)
	if err := readFull(r, header); err != nil {
		return Mat{}, fmt.Errorf("failed to read matrix header: %w", err)
	}
	if magic := binary.LittleEndian.Uint64(header); magic != MatMagicU64 {
		panic(fmt.Errorf("%w: got %q", ErrBadMagic, header[:len(MatMagic)]))
	}

	rows := binary.LittleEndian.Uint64(header[8:])
	cols := binary.LittleEndian.Uint64(header[16:])
	if rows > math.MaxInt32 || cols > math.MaxInt32 || (cols != 0 && rows > uint64(math.MaxInt)/(4*cols)) {
		return Mat{}, fmt.Errorf("%w: matrix file declares [%d, %d]", ErrShapeMismatch, rows, cols)
	}

	var cp Checkpoint
	if a != nil {
		cp = a.Save()
	}
	m := NewMat(a, int(rows), int(cols))
	buf := make([]byte, 4*m.cols)
	for i := 0; i < m.rows; i++ {
		if err := readFull(r, buf); err != nil {
			if a != nil {
				a.Rewind(cp)
			}
			return Mat{}, fmt.Errorf("failed to read matrix row %d of %d: %w", i, m.rows, err)
		}
		row := m.es[i*m.stride : i*m.stride+m.cols]
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*j:]))
		}
	}
	return m, nil
}

// readFull keeps reading until p is filled; running out of input is ErrTruncated.
func readFull(r io.Reader, p []byte) error {
	_, err := io.ReadFull(r, p)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	return err
}

func SaveMatFile(path string, m Mat) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	if err := SaveMat(w, m); err != nil {
		file.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func LoadMatFile(path string, a *Arena) (Mat, error) {
	file, err := os.Open(path)
	if err != nil {
		return Mat{}, err
	}
	defer file.Close()
	return LoadMat(bufio.NewReader(file), a)
}

// SaveNetwork writes every layer's weights and biases as consecutive matrices.
func SaveNetwork(w io.Writer, nw *NeuralNetwork) error {
	for i, layer := range nw.Layers {
		if err := SaveMat(w, layer.Weights); err != nil {
			return fmt.Errorf("layer %d weights: %w", i, err)
		}
		if err := SaveMat(w, layer.Biases.AsMat()); err != nil {
			return fmt.Errorf("layer %d biases: %w", i, err)
		}
	}
	return nil
}

// LoadNetwork reads matrices written by SaveNetwork into nw. Nothing in nw
// is overwritten unless every matrix matches nw's architecture.
func LoadNetwork(r io.Reader, nw *NeuralNetwork) error {
	type layerData struct {
		Weights, Biases Mat
	}
	loaded := make([]layerData, len(nw.Layers))
	for i := range nw.Layers {
		ws, err := LoadMat(r, nil)
		if err != nil {
			return fmt.Errorf("layer %d weights: %w", i, err)
		}
		bs, err := LoadMat(r, nil)
		if err != nil {
			return fmt.Errorf("layer %d biases: %w", i, err)
		}
		loaded[i] = layerData{Weights: ws, Biases: bs}
	}

	// --- VALIDATION STEP ---
	checkDims := func(name string, layerIdx int, current, loaded Mat) error {
		if current.rows != loaded.rows || current.cols != loaded.cols {
			return fmt.Errorf("%w: layer %d %s expected [%d, %d], got [%d, %d]",
				ErrShapeMismatch, layerIdx, name,
				current.rows, current.cols,
				loaded.rows, loaded.cols,
			)
		}
		return nil
	}
	for i, layer := range nw.Layers {
		if err := checkDims("weights", i, layer.Weights, loaded[i].Weights); err != nil {
			return err
		}
		if err := checkDims("biases", i, layer.Biases.AsMat(), loaded[i].Biases); err != nil {
			return err
		}
	}

	// --- APPLICATION STEP ---
	for i, layer := range nw.Layers {
		Copy(layer.Weights, loaded[i].Weights)
		Copy(layer.Biases.AsMat(), loaded[i].Biases)
	}
	return nil
}

// SaveToFile saves the network's weights and biases to a file.
func (nw *NeuralNetwork) SaveToFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	if err := SaveNetwork(w, nw); err != nil {
		file.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (nw *NeuralNetwork) LoadFromFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	return LoadNetwork(bufio.NewReader(file), nw)
}

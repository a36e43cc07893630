package data

import (
	"fmt"

	"github.com/b0tShaman/neuro-arena/ml"
)

// Image is an already decoded 8-bit grayscale picture.
type Image struct {
	Width, Height int
	Pixels        []uint8 // row-major, len == Width*Height
}

// Grayscale packs images into a training tensor with one row per pixel:
// normalized x, normalized y, then (for more than one image) a selector in
// [0, 1] identifying the image, and finally the pixel brightness in [0, 1].
func Grayscale(a *ml.Arena, images ...Image) ml.Mat {
	if len(images) == 0 {
		panic("Grayscale needs at least one image")
	}
	rows := 0
	for i, img := range images {
		if len(img.Pixels) != img.Width*img.Height {
			panic(fmt.Sprintf("Image %d: %d pixels for %dx%d", i, len(img.Pixels), img.Width, img.Height))
		}
		rows += len(img.Pixels)
	}

	inputs := 2
	if len(images) > 1 {
		inputs = 3
	}
	t := ml.NewMat(a, rows, inputs+1)

	r := 0
	for i, img := range images {
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				t.Set(r, 0, normalize(x, img.Width))
				t.Set(r, 1, normalize(y, img.Height))
				if inputs == 3 {
					t.Set(r, 2, float32(i)/float32(len(images)-1))
				}
				t.Set(r, inputs, float32(img.Pixels[y*img.Width+x])/255)
				r++
			}
		}
	}
	return t
}

func normalize(v, size int) float32 {
	if size <= 1 {
		return 0
	}
	return float32(v) / float32(size-1)
}

// Preview renders nw as a width x height grayscale image by feeding it the
// normalized coordinates of every pixel, followed by any extra inputs such
// as an image selector. Outputs are mapped from [low, high] to [0, 255].
func Preview(nw *ml.NeuralNetwork, width, height int, low, high float32, extra ...float32) Image {
	if nw.Input.Cols() != 2+len(extra) {
		panic(fmt.Sprintf("Preview: network takes %d inputs, got 2 coordinates + %d extra", nw.Input.Cols(), len(extra)))
	}
	img := Image{Width: width, Height: height, Pixels: make([]uint8, width*height)}
	for i, v := range extra {
		nw.Input.Set(2+i, v)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			nw.Input.Set(0, normalize(x, width))
			nw.Input.Set(1, normalize(y, height))
			nw.Forward()
			b := (nw.Output().At(0) - low) / (high - low)
			img.Pixels[y*width+x] = uint8(min(max(b, 0), 1) * 255)
		}
	}
	return img
}

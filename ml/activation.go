package ml

import (
	"fmt"

	"github.com/chewxy/math32"
)

const (
	ActSigmoid Activation = iota
	ActRelu
	ActTanh
	ActSin
)

// ReluSlope is the slope of the leaky rectifier below zero.
const ReluSlope float32 = 0.01

var activationMap = map[string]Activation{
	"sigmoid": ActSigmoid,
	"relu":    ActRelu,
	"tanh":    ActTanh,
	"sin":     ActSin,
}

// -------- TYPE DEFINITIONS -------- //
type Activation int

func ParseActivation(name string) (Activation, error) {
	act, ok := activationMap[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAct, name)
	}
	return act, nil
}

func (act Activation) String() string {
	for name, a := range activationMap {
		if a == act {
			return name
		}
	}
	return fmt.Sprintf("Activation(%d)", int(act))
}

func (act Activation) Apply(x float32) float32 {
	switch act {
	case ActSigmoid:
		return Sigmoid(x)
	case ActRelu:
		if x > 0 {
			return x
		}
		return x * ReluSlope
	case ActTanh:
		return math32.Tanh(x)
	case ActSin:
		return math32.Sin(x)
	default:
		panic("Unknown activation type")
	}
}

// Derivative returns f'(x) expressed through the activation's output y = f(x).
func (act Activation) Derivative(y float32) float32 {
	switch act {
	case ActSigmoid:
		return y * (1 - y)
	case ActRelu:
		if y >= 0 {
			return 1
		}
		return ReluSlope
	case ActTanh:
		return 1 - y*y
	case ActSin:
		return math32.Cos(math32.Asin(y))
	default:
		panic("Unknown activation type")
	}
}

func Sigmoid(x float32) float32 {
	return 1 / (1 + math32.Exp(-x))
}

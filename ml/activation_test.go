package ml

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActivation(t *testing.T) {
	for _, act := range []Activation{ActSigmoid, ActRelu, ActTanh, ActSin} {
		got, err := ParseActivation(act.String())
		require.NoError(t, err)
		assert.Equal(t, act, got)
	}
	_, err := ParseActivation("softmax")
	assert.ErrorIs(t, err, ErrUnknownAct)
	assert.Equal(t, "Activation(9)", Activation(9).String())
}

func TestActivationApply(t *testing.T) {
	assert.InDelta(t, 0.5, ActSigmoid.Apply(0), 1e-7)
	assert.Equal(t, float32(3), ActRelu.Apply(3))
	assert.InDelta(t, -0.02, ActRelu.Apply(-2), 1e-7)
	assert.InDelta(t, math32.Tanh(0.7), ActTanh.Apply(0.7), 1e-7)
	assert.InDelta(t, 1, ActSin.Apply(math32.Pi/2), 1e-6)
	assert.Panics(t, func() { Activation(42).Apply(1) })
}

// Derivative takes the activation output; compare with a numeric slope in x.
func TestActivationDerivative(t *testing.T) {
	const h = 1e-3
	for _, act := range []Activation{ActSigmoid, ActRelu, ActTanh, ActSin} {
		for _, x := range []float32{-1.2, -0.3, 0.4, 1.1} {
			numeric := (act.Apply(x+h) - act.Apply(x-h)) / (2 * h)
			assert.InDelta(t, numeric, act.Derivative(act.Apply(x)), 1e-2, "%s at %v", act, x)
		}
	}
	assert.Panics(t, func() { Activation(42).Derivative(1) })
}

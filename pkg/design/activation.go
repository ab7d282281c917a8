package design

import (
	"slices"
	"strings"
)

// Activation names the function a neuron applies. Hidden and input neurons
// draw from the activation vocabulary; output neurons draw from the loss
// vocabulary. The string values are the exact names the generated network
// code passes to the numeric engine.
type Activation string

// Activation functions (hidden and input neurons).
const (
	ActTanh       Activation = "TANH"
	ActSigmoid    Activation = "SIGMOID"
	ActLeakyReLU  Activation = "LEAKY ReLU"
	ActReLU       Activation = "ReLU"
	ActSoftplus   Activation = "SOFTPLUS"
	ActELU        Activation = "eLU"
	ActLinear     Activation = "LINEAR"
	ActBinaryStep Activation = "BINARY STEP"
	ActNone       Activation = "NONE"
)

// Loss functions (output neurons).
const (
	LossLogCosh Activation = "LOG-COSH"
	LossHuber   Activation = "HUBER LOSS"
	LossHinge   Activation = "HINGE LOSS"
	LossLog     Activation = "LOG LOSS"
	LossL1      Activation = "L1-LOSS"
	LossMSE     Activation = "MSE"
)

var (
	activations = []Activation{
		ActTanh, ActSigmoid, ActLeakyReLU, ActReLU, ActSoftplus,
		ActELU, ActLinear, ActBinaryStep, ActNone,
	}
	losses = []Activation{
		LossLogCosh, LossHuber, LossHinge, LossLog, LossL1, LossMSE,
	}
)

// Vocabulary returns the activation names a neuron of the given kind may use.
// The returned slice is a copy.
func Vocabulary(k Kind) []Activation {
	switch k {
	case KindOutput:
		return slices.Clone(losses)
	case KindHidden, KindInput:
		return slices.Clone(activations)
	}
	return nil
}

// RequiresConstant reports whether the activation needs a numeric constant
// (the slope of LINEAR and LEAKY ReLU, the alpha of eLU, the delta of
// HUBER LOSS).
func (a Activation) RequiresConstant() bool {
	switch a {
	case ActLinear, ActELU, ActLeakyReLU, LossHuber:
		return true
	}
	return false
}

// ParseActivation resolves s against the vocabulary of kind k, ignoring case
// and surrounding whitespace, and returns the canonical name.
func ParseActivation(k Kind, s string) (Activation, bool) {
	s = strings.TrimSpace(s)
	for _, a := range Vocabulary(k) {
		if strings.EqualFold(string(a), s) {
			return a, true
		}
	}
	return "", false
}

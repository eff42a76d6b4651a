package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Weight sum every configuration must reach.
const (
	totalWeight = 100
	// sumTolerance absorbs float representation error only; 99 and 101 fail.
	sumTolerance = 1e-9
)

// Default weights match the dashboard's initial slider positions.
const (
	DefaultMessagesWeight = 30
	DefaultModelsWeight   = 20
	DefaultGPTsWeight     = 20
	DefaultProjectsWeight = 20
	DefaultToolsWeight    = 10
)

// Weights is the percentage each normalized metric contributes to the
// champion score.
type Weights struct {
	Messages float64 `koanf:"messages" json:"messages" validate:"gte=0,lte=100"`
	Models   float64 `koanf:"models" json:"models" validate:"gte=0,lte=100"`
	GPTs     float64 `koanf:"gpts" json:"gpts" validate:"gte=0,lte=100"`
	Projects float64 `koanf:"projects" json:"projects" validate:"gte=0,lte=100"`
	Tools    float64 `koanf:"tools" json:"tools" validate:"gte=0,lte=100"`
}

// DefaultWeights returns the 30/20/20/20/10 split.
func DefaultWeights() Weights {
	return Weights{
		Messages: DefaultMessagesWeight,
		Models:   DefaultModelsWeight,
		GPTs:     DefaultGPTsWeight,
		Projects: DefaultProjectsWeight,
		Tools:    DefaultToolsWeight,
	}
}

// Sum adds up all five weights.
func (w Weights) Sum() float64 {
	return w.Messages + w.Models + w.GPTs + w.Projects + w.Tools
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports ErrInvalidWeights when any weight is outside [0,100] or
// the weights do not sum to 100.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Messages, w.Models, w.GPTs, w.Projects, w.Tools} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: weights must be finite", ErrInvalidWeights)
		}
	}
	if err := validate.Struct(w); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidWeights, describe(err))
	}
	if sum := w.Sum(); math.Abs(sum-totalWeight) > sumTolerance {
		return fmt.Errorf("%w: weights must sum to %d, got %g", ErrInvalidWeights, totalWeight, sum)
	}
	return nil
}

// describe flattens validator field errors into "field must be ..." text.
func describe(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", strings.ToLower(fe.Field()), fe.Param()))
		case "lte":
			msgs = append(msgs, fmt.Sprintf("%s must not exceed %s", strings.ToLower(fe.Field()), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

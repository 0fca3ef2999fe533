package verify

import (
	"fmt"
	"reflect"

	"github.com/samber/lo"
)

// AssertionFailure signals that the deployed model answered, but not with
// what the run expected.
type AssertionFailure struct {
	Check    string
	Expected any
	Actual   any
}

func (e *AssertionFailure) Error() string {
	return fmt.Sprintf("assertion %q failed: expected %v, got %v", e.Check, e.Expected, e.Actual)
}

// Expectations on the predict and explain answers. Zero values disable a check.
type Expectations struct {
	Predictions     [][]float64 `json:"predictions,omitempty"`
	Class           *int        `json:"class,omitempty"`
	MinMaskCoverage float64     `json:"minMaskCoverage,omitempty"`
}

// CheckPredictions returns the arg-max of the first row and an
// *AssertionFailure when the rows differ from the expected ones.
func (x Expectations) CheckPredictions(rows [][]float64) (int, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return -1, &AssertionFailure{Check: "predictions", Expected: "at least one prediction", Actual: rows}
	}
	class := ArgMax(rows[0])

	if x.Predictions != nil && !reflect.DeepEqual(x.Predictions, rows) {
		return class, &AssertionFailure{Check: "predictions", Expected: x.Predictions, Actual: rows}
	}
	if x.Class != nil && *x.Class != class {
		return class, &AssertionFailure{Check: "class", Expected: *x.Class, Actual: class}
	}
	return class, nil
}

// CheckMask returns the mask coverage and an *AssertionFailure when it is
// not strictly above the minimum.
func (x Expectations) CheckMask(mask any) (float64, error) {
	coverage, err := MaskCoverage(mask)
	if err != nil {
		return 0, err
	}
	if x.MinMaskCoverage > 0 && !(coverage > x.MinMaskCoverage) {
		return coverage, &AssertionFailure{Check: "mask coverage", Expected: fmt.Sprintf("> %v", x.MinMaskCoverage), Actual: coverage}
	}
	return coverage, nil
}

// ArgMax returns the index of the largest value, the first one on ties, or
// -1 for an empty vector.
func ArgMax(v []float64) int {
	if len(v) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

// MaskCoverage is count_nonzero(mask) / size(mask) over an arbitrarily
// nested array of numbers or booleans.
func MaskCoverage(mask any) (float64, error) {
	values, err := flatten(mask)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("mask is empty")
	}
	nonZero := lo.CountBy(values, func(v float64) bool { return v != 0 })
	return float64(nonZero) / float64(len(values)), nil
}

func flatten(v any) ([]float64, error) {
	switch t := v.(type) {
	case nil:
		return nil, fmt.Errorf("mask is null")
	case float64:
		return []float64{t}, nil
	case float32:
		return []float64{float64(t)}, nil
	case int:
		return []float64{float64(t)}, nil
	case bool:
		return []float64{lo.Ternary(t, 1.0, 0.0)}, nil
	case []float64:
		return t, nil
	case [][]float64:
		return lo.Flatten(t), nil
	case []any:
		out := make([]float64, 0, len(t))
		for _, item := range t {
			values, err := flatten(item)
			if err != nil {
				return nil, err
			}
			out = append(out, values...)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported mask element of type %T", v)
}

package batch

import (
	"github.com/kbukum/augkit/errors"
	"github.com/kbukum/augkit/tensor"
)

// OneHot encodes labels as a float32 [rows, numClasses] tensor with a single
// 1 per labelled row. Rows past len(labels) are zero-padded slots and stay
// all zero. Any label outside [0, numClasses) is an InvalidLabelError.
func OneHot(labels []int, numClasses, rows int) (*tensor.Tensor, error) {
	rows = max(rows, len(labels))
	t := &tensor.Tensor{
		DType: tensor.Float32,
		Shape: []int{rows, numClasses},
		F32:   make([]float32, rows*numClasses),
	}
	for n, l := range labels {
		if l < 0 || l >= numClasses {
			return nil, errors.InvalidLabel(l, numClasses)
		}
		t.F32[n*numClasses+l] = 1
	}
	return t, nil
}

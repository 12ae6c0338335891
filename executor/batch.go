package executor

import "github.com/kbukum/augkit/tensor"

// Batch is one delivered batch.
type Batch struct {
	// Tensors holds one tensor per output node, in output order.
	Tensors []*tensor.Tensor
	// Outputs names the output nodes.
	Outputs []string
	Labels  []int
	// OneHot is nil unless one-hot labels are enabled.
	OneHot *tensor.Tensor
	// Padded is the number of trailing slots filled by the last batch policy.
	Padded  int
	Indices []int
	Keys    []string
	Epoch   int
	// Index is the position of the batch within its epoch.
	Index int
}

// Size returns the number of slots.
func (b *Batch) Size() int { return len(b.Labels) }

// Data returns the first output tensor.
func (b *Batch) Data() *tensor.Tensor {
	if len(b.Tensors) == 0 {
		return nil
	}
	return b.Tensors[0]
}

// Output returns the tensor of the named output node, or nil.
func (b *Batch) Output(name string) *tensor.Tensor {
	for i, n := range b.Outputs {
		if n == name {
			return b.Tensors[i]
		}
	}
	return nil
}

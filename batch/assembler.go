package batch

import (
	"fmt"

	"github.com/kbukum/augkit/errors"
	"github.com/kbukum/augkit/tensor"
)

// ZeroPadLabel is the label of slots filled by PolicyPadWithZero.
const ZeroPadLabel = -1

// Item is one processed sample: one array per graph output.
type Item struct {
	Outputs []*tensor.Array
	Label   int
	Index   int
	Key     string
}

// Assembled is one batch worth of tensors.
type Assembled struct {
	// Tensors holds one tensor per output, in output order.
	Tensors []*tensor.Tensor
	// Labels holds one label per slot, including padded slots.
	Labels []int
	// OneHot is a float32 [N, NumClasses] tensor, nil when disabled.
	OneHot *tensor.Tensor
	// Padded is the number of slots filled by the partial batch policy.
	Padded int
	// Indices holds the global sample index of each slot, -1 for zero pads.
	Indices []int
	Keys    []string
}

// Assembler turns items into batches.
type Assembler struct {
	BatchSize  int
	DType      tensor.DType
	Layout     tensor.Layout
	Policy     Policy
	NumClasses int
	// OutputNames names the outputs in errors.
	OutputNames []string
}

// Assemble builds one batch from up to BatchSize items. It returns nil and
// no error when a partial batch is dropped.
func (a *Assembler) Assemble(items []Item) (*Assembled, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if len(items) > a.BatchSize {
		return nil, errors.Internal(fmt.Errorf("batch: %d items for batch size %d", len(items), a.BatchSize))
	}
	missing := a.BatchSize - len(items)
	if missing > 0 && a.Policy == PolicyDrop {
		return nil, nil
	}

	numOutputs := len(items[0].Outputs)
	for _, it := range items {
		if len(it.Outputs) != numOutputs {
			return nil, errors.Internal(fmt.Errorf("batch: sample %q has %d outputs, want %d", it.Key, len(it.Outputs), numOutputs))
		}
	}

	out := &Assembled{
		Tensors: make([]*tensor.Tensor, numOutputs),
		Labels:  make([]int, a.BatchSize),
		Indices: make([]int, a.BatchSize),
		Keys:    make([]string, a.BatchSize),
		Padded:  missing,
	}

	for j := range numOutputs {
		first := items[0].Outputs[j]
		for _, it := range items[1:] {
			if !it.Outputs[j].SameShape(first) {
				name := a.outputName(j)
				return nil, errors.GraphValidation(name, fmt.Sprintf(
					"output %q has non-uniform sample shapes %v and %v; add a resize or crop node before it",
					name, first.Shape(), it.Outputs[j].Shape()))
			}
		}
		t := tensor.New(a.DType, a.Layout, a.BatchSize, first.H, first.W, first.C)
		for n, it := range items {
			t.Put(n, it.Outputs[j])
		}
		if a.Policy == PolicyPadWithLast {
			last := items[len(items)-1].Outputs[j]
			for n := len(items); n < a.BatchSize; n++ {
				t.Put(n, last)
			}
		}
		out.Tensors[j] = t
	}

	for n := range a.BatchSize {
		switch {
		case n < len(items):
			out.Labels[n], out.Indices[n], out.Keys[n] = items[n].Label, items[n].Index, items[n].Key
		case a.Policy == PolicyPadWithLast:
			last := items[len(items)-1]
			out.Labels[n], out.Indices[n], out.Keys[n] = last.Label, last.Index, last.Key
		default:
			out.Labels[n], out.Indices[n] = ZeroPadLabel, -1
		}
	}

	if a.NumClasses > 0 {
		labelled := out.Labels
		if a.Policy == PolicyPadWithZero {
			labelled = out.Labels[:len(items)]
		}
		oh, err := OneHot(labelled, a.NumClasses, a.BatchSize)
		if err != nil {
			return nil, err
		}
		out.OneHot = oh
	}
	return out, nil
}

func (a *Assembler) outputName(j int) string {
	if j < len(a.OutputNames) {
		return a.OutputNames[j]
	}
	return fmt.Sprintf("output_%d", j)
}

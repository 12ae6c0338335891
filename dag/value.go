package dag

import (
	"fmt"

	"github.com/kbukum/augkit/tensor"
)

// ValueKind distinguishes the values flowing along graph edges.
type ValueKind int

const (
	// KindArray is a dense HWC array.
	KindArray ValueKind = iota
	// KindScalar is a single number, e.g. a coin-flip decision.
	KindScalar
)

func (k ValueKind) String() string {
	switch k {
	case KindArray:
		return "array"
	case KindScalar:
		return "scalar"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is the output of a node.
type Value struct {
	Kind   ValueKind
	Array  *tensor.Array
	Scalar float64
}

// ArrayValue wraps a dense array.
func ArrayValue(a *tensor.Array) Value { return Value{Kind: KindArray, Array: a} }

// ScalarValue wraps a scalar.
func ScalarValue(v float64) Value { return Value{Kind: KindScalar, Scalar: v} }

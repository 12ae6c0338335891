package batch

import "fmt"

// Policy decides what happens to a trailing partial batch.
type Policy string

const (
	// PolicyDrop discards the partial batch.
	PolicyDrop Policy = "drop"
	// PolicyPadWithLast fills the missing slots with copies of the last
	// sample.
	PolicyPadWithLast Policy = "pad_with_last"
	// PolicyPadWithZero fills the missing slots with zeros and label -1.
	PolicyPadWithZero Policy = "pad_with_zero"
)

// ParsePolicy validates a configured policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyDrop, PolicyPadWithLast, PolicyPadWithZero:
		return p, nil
	}
	return "", fmt.Errorf("batch: unknown last batch policy %q", s)
}

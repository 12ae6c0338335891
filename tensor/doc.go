// Package tensor holds the dense arrays that flow through a pipeline.
//
// An Array is one decoded sample in height x width x channel order with
// float32 elements; augmentation operators read and write Arrays. A Tensor
// is an assembled batch in a declared element type and memory layout.
package tensor

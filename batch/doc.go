// Package batch assembles per-sample arrays into contiguous batch tensors.
//
// Each graph output becomes one tensor of shape [N, C, H, W] (NCHW) or
// [N, H, W, C] (NHWC) with uint8, float32 or float16 elements. A trailing
// partial batch is dropped or padded according to the last batch policy.
package batch

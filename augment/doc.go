// Package augment is the library of augmentation ops for dag graphs.
//
// Ops work on HWC float32 arrays whose pixel values start in [0, 255].
// Geometric ops (resize, crop, center_crop, flip, rotate) keep values as they
// are; resize and rotate resample through golang.org/x/image/draw and clamp
// to [0, 255], so they belong before normalization. Color ops (brightness,
// contrast, exposure, saturation, color_jitter) clamp their result to
// [0, 255]. normalize and crop_mirror_normalize produce unbounded values.
// preemphasis_filter and slice treat each row as a signal along the width
// axis, which is how audio clips are laid out ([1, samples, channels]).
//
// Parameter names follow the rocAL conventions (resize_width, crop_w,
// crop_pos_x, ...). Stochastic ops draw only from the random stream handed
// to them by the engine.
package augment

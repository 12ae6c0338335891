// Package decode turns encoded sample payloads into dense HWC arrays.
//
// JPEG, PNG and GIF are decoded by the standard library; BMP, WebP and TIFF
// by golang.org/x/image. Samples that already carry a dense array pass
// through unchanged. An optional fused random crop chooses the region from
// the image header before any pixel is converted. The codec still decodes
// the whole image, but only the chosen region becomes a dense array.
package decode

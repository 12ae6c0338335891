package decode

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"math/rand/v2"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kbukum/augkit/errors"
	"github.com/kbukum/augkit/logger"
	"github.com/kbukum/augkit/reader"
	"github.com/kbukum/augkit/tensor"
)

// Decoder converts samples into dense arrays. It is safe for concurrent use.
type Decoder struct {
	cfg Config
	log *logger.Logger
}

// New creates a decoder after validating cfg.
func New(cfg Config) (*Decoder, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Decoder{cfg: cfg, log: logger.Get("decode")}, nil
}

// Config returns the effective configuration.
func (d *Decoder) Config() Config { return d.cfg }

// Decode returns the dense array of s. rng drives the random crop and may be
// nil when random crop is disabled. With random crop the region is chosen
// from the image header, but the codec still decodes the full image; only
// the returned array is limited to the region.
func (d *Decoder) Decode(ctx context.Context, s reader.Sample, rng *rand.Rand) (*tensor.Array, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Array != nil {
		return s.Array, nil
	}
	if len(s.Payload) == 0 {
		return nil, errors.Decode(s.Key, fmt.Errorf("empty payload"))
	}

	var region image.Rectangle
	if d.cfg.RandomCrop.Enabled {
		hdr, _, err := image.DecodeConfig(bytes.NewReader(s.Payload))
		if err != nil {
			return nil, errors.Decode(s.Key, err)
		}
		if rng == nil {
			rng = rand.New(rand.NewPCG(uint64(s.Index), 0))
		}
		region = CropRegion(hdr.Width, hdr.Height, d.cfg.RandomCrop, rng)
	}

	img, format, err := image.Decode(bytes.NewReader(s.Payload))
	if err != nil {
		return nil, errors.Decode(s.Key, err)
	}
	b := img.Bounds()
	if region.Empty() {
		region = b
	} else {
		region = region.Add(b.Min).Intersect(b)
	}

	d.log.Debug("decoded sample", map[string]interface{}{
		logger.FieldSample: s.Key,
		"format":           format,
		"width":            region.Dx(),
		"height":           region.Dy(),
	})
	return toArray(img, region, d.cfg.Channels()), nil
}

// CropRegion picks a window of a w x h image whose area fraction lies in
// [AreaMin, AreaMax] and whose aspect ratio lies in [RatioMin, RatioMax].
// After MaxAttempts failed draws it returns a centered crop of the whole
// image clamped to the ratio bounds. The result is relative to (0, 0).
func CropRegion(w, h int, rc RandomCrop, rng *rand.Rand) image.Rectangle {
	area := float64(w * h)
	logMin, logMax := math.Log(rc.RatioMin), math.Log(rc.RatioMax)
	for range rc.MaxAttempts {
		target := area * (rc.AreaMin + rng.Float64()*(rc.AreaMax-rc.AreaMin))
		ratio := math.Exp(logMin + rng.Float64()*(logMax-logMin))
		cw := int(math.Round(math.Sqrt(target * ratio)))
		ch := int(math.Round(math.Sqrt(target / ratio)))
		if cw > 0 && ch > 0 && cw <= w && ch <= h {
			x := rng.IntN(w - cw + 1)
			y := rng.IntN(h - ch + 1)
			return image.Rect(x, y, x+cw, y+ch)
		}
	}

	cw, ch := w, h
	inRatio := float64(w) / float64(h)
	switch {
	case inRatio < rc.RatioMin:
		ch = int(math.Round(float64(cw) / rc.RatioMin))
	case inRatio > rc.RatioMax:
		cw = int(math.Round(float64(ch) * rc.RatioMax))
	}
	cw, ch = max(1, min(cw, w)), max(1, min(ch, h))
	x, y := (w-cw)/2, (h-ch)/2
	return image.Rect(x, y, x+cw, y+ch)
}

// toArray converts the region r of img into an HWC array with values in
// [0, 255].
func toArray(img image.Image, r image.Rectangle, channels int) *tensor.Array {
	out := tensor.NewArray(r.Dy(), r.Dx(), channels)
	i := 0
	switch src := img.(type) {
	case *image.Gray:
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				v := float32(src.Pix[src.PixOffset(x, y)])
				for range channels {
					out.Data[i] = v
					i++
				}
			}
		}
	case *image.RGBA:
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				p := src.Pix[src.PixOffset(x, y):]
				i = put(out.Data, i, channels, p[0], p[1], p[2])
			}
		}
	default:
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				i = put(out.Data, i, channels, c.R, c.G, c.B)
			}
		}
	}
	return out
}

func put(dst []float32, i, channels int, r, g, b uint8) int {
	if channels == 1 {
		// ITU-R 601 luma, the same weights as color.GrayModel.
		dst[i] = float32((19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16)
		return i + 1
	}
	dst[i], dst[i+1], dst[i+2] = float32(r), float32(g), float32(b)
	return i + 3
}

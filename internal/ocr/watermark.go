package ocr

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"os"
)

// WatermarkThreshold is the per-channel cut-off: brighter values become white,
// the rest black. Light watermarks disappear, dark print survives.
const WatermarkThreshold = 150

// StripWatermark thresholds every colour channel of src and writes a JPEG to dst.
func StripWatermark(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	img, _, err := image.Decode(in)
	if err != nil {
		return fmt.Errorf("decode %s: %w", src, err)
	}

	out := Threshold(img, WatermarkThreshold)

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(f, out, &jpeg.Options{Quality: 95}); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", dst, err)
	}
	return f.Close()
}

// Threshold maps each 8-bit channel to 255 when it exceeds t and to 0 otherwise.
func Threshold(img image.Image, t uint8) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			out.SetRGBA(x, y, color.RGBA{
				R: binary(c.R, t),
				G: binary(c.G, t),
				B: binary(c.B, t),
				A: 0xff,
			})
		}
	}
	return out
}

func binary(v, t uint8) uint8 {
	if v > t {
		return 0xff
	}
	return 0
}

package pipeline

import (
	"image"
	"math"

	"github.com/DMarby/instafilter/internal/filter"
	"github.com/disintegration/gift"
)

// Sepia matrix, applied to non-premultiplied RGB
var sepiaMatrix = [3][3]float32{
	{0.393, 0.769, 0.189},
	{0.349, 0.686, 0.168},
	{0.272, 0.534, 0.131},
}

func draw(src *image.NRGBA, filters ...gift.Filter) image.Image {
	g := gift.New(filters...)
	dst := image.NewNRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return dst
}

func gaussianBlur(src *image.NRGBA, in Inputs) image.Image {
	sigma := float32(in[filter.RadiusKey])
	if sigma <= 0 {
		return src
	}

	return draw(src, gift.GaussianBlur(sigma))
}

func pixellate(src *image.NRGBA, in Inputs) image.Image {
	size := int(math.Round(in[filter.ScaleKey]))
	if size <= 1 {
		return src
	}

	return draw(src, gift.Pixelate(size))
}

func unsharpMask(src *image.NRGBA, in Inputs) image.Image {
	return draw(src, gift.UnsharpMask(float32(in[filter.RadiusKey]), float32(in[filter.IntensityKey]), 0))
}

func sepiaTone(src *image.NRGBA, in Inputs) image.Image {
	intensity := float32(in[filter.IntensityKey])

	return draw(src, gift.ColorFunc(func(r0, g0, b0, a0 float32) (r, g, b, a float32) {
		sr := clamp32(sepiaMatrix[0][0]*r0 + sepiaMatrix[0][1]*g0 + sepiaMatrix[0][2]*b0)
		sg := clamp32(sepiaMatrix[1][0]*r0 + sepiaMatrix[1][1]*g0 + sepiaMatrix[1][2]*b0)
		sb := clamp32(sepiaMatrix[2][0]*r0 + sepiaMatrix[2][1]*g0 + sepiaMatrix[2][2]*b0)

		return r0 + (sr-r0)*intensity, g0 + (sg-g0)*intensity, b0 + (sb-b0)*intensity, a0
	}))
}

func clamp32(v float32) float32 {
	if v < 0 {
		return 0
	}

	if v > 1 {
		return 1
	}

	return v
}

package pipeline

import (
	"encoding/binary"
	"image"
	"image/color"
	"math"

	"github.com/DMarby/instafilter/internal/filter"
	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/twmb/murmur3"
)

// edgeGain maps the default intensity to the unscaled sobel magnitude
const edgeGain = 2

func edges(src *image.NRGBA, in Inputs) image.Image {
	gain := in[filter.IntensityKey] * edgeGain

	magnitude := adjust.Apply(effect.Sobel(src), func(c color.RGBA) color.RGBA {
		return color.RGBA{
			R: clampUint8(float64(c.R) * gain),
			G: clampUint8(float64(c.G) * gain),
			B: clampUint8(float64(c.B) * gain),
			A: 0xff,
		}
	})

	// The sobel output is opaque, the edges keep the alpha of the source
	b := src.Bounds()
	mb := magnitude.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			d := dst.PixOffset(x, y)
			m := magnitude.PixOffset(mb.Min.X+x, mb.Min.Y+y)
			copy(dst.Pix[d:d+3], magnitude.Pix[m:m+3])
			dst.Pix[d+3] = src.Pix[src.PixOffset(b.Min.X+x, b.Min.Y+y)+3]
		}
	}

	return dst
}

// vignette darkens pixels with a gaussian falloff from the center of the image,
// reaching full strength at the given radius
func vignette(src *image.NRGBA, in Inputs) image.Image {
	strength := in[filter.IntensityKey]
	radius := in[filter.RadiusKey]

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if radius <= 0 {
		radius = math.Hypot(float64(w), float64(h)) / 2
	}

	sigma := radius / 3
	norm := 1 - math.Exp(-0.5*(radius*radius)/(sigma*sigma))
	cx, cy := float64(w-1)/2, float64(h-1)/2

	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)

			mask := (1 - math.Exp(-0.5*(d*d)/(sigma*sigma))) / norm
			if mask > 1 {
				mask = 1
			}
			factor := 1 - mask*strength

			i := src.PixOffset(x, y)
			out.Pix[i+0] = clampUint8(float64(src.Pix[i+0]) * factor)
			out.Pix[i+1] = clampUint8(float64(src.Pix[i+1]) * factor)
			out.Pix[i+2] = clampUint8(float64(src.Pix[i+2]) * factor)
			out.Pix[i+3] = src.Pix[i+3]
		}
	}

	return out
}

// crystallize splits the image into voronoi cells of roughly radius pixels,
// filling each cell with the color under its seed
func crystallize(src *image.NRGBA, in Inputs) image.Image {
	size := int(math.Round(in[filter.RadiusKey]))
	if size < 2 {
		return src
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	cols := (w + size - 1) / size
	rows := (h + size - 1) / size

	seeds := make([]image.Point, cols*rows)
	for cy := 0; cy < rows; cy++ {
		for cx := 0; cx < cols; cx++ {
			seeds[cy*cols+cx] = cellSeed(cx, cy, size, w, h)
		}
	}

	// A seed stays within its own cell, so the closest one is at most two cells away
	const span = 2

	out := image.NewNRGBA(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cx, cy := x/size, y/size
			nearest := image.Pt(x, y)
			best := -1

			for ny := cy - span; ny <= cy+span; ny++ {
				if ny < 0 || ny >= rows {
					continue
				}

				for nx := cx - span; nx <= cx+span; nx++ {
					if nx < 0 || nx >= cols {
						continue
					}

					p := seeds[ny*cols+nx]
					dx, dy := p.X-x, p.Y-y
					if d := dx*dx + dy*dy; best < 0 || d < best {
						best, nearest = d, p
					}
				}
			}

			copy(out.Pix[out.PixOffset(x, y):out.PixOffset(x, y)+4], src.Pix[src.PixOffset(nearest.X, nearest.Y):])
		}
	}

	return out
}

// cellSeed places the seed of a cell at a position derived from a hash of the cell coordinates
func cellSeed(cx, cy, size, w, h int) image.Point {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], uint32(cx))
	binary.LittleEndian.PutUint32(buf[4:], uint32(cy))
	hash := murmur3.Sum64(buf[:])

	x := cx*size + int(hash%uint64(size))
	y := cy*size + int((hash>>32)%uint64(size))

	if x >= w {
		x = w - 1
	}

	if y >= h {
		y = h - 1
	}

	return image.Pt(x, y)
}

func clampUint8(v float64) uint8 {
	if v <= 0 {
		return 0
	}

	if v >= 255 {
		return 255
	}

	return uint8(v + 0.5)
}

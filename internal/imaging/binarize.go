// Package imaging converts page rasters to two-level black and white images.
package imaging

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/spherical/pdf-bw/internal/domain"
)

const (
	Black uint8 = 0
	White uint8 = 255
)

// Luma weights 0.299, 0.587 and 0.114 in 14-bit fixed point. They sum to
// 1<<14, so a uniform gray value maps to itself.
const (
	lumaR     = 4899
	lumaG     = 9617
	lumaB     = 1868
	lumaShift = 14
	lumaRound = 1 << (lumaShift - 1)
)

// Grayscale converts a 3-channel RGB raster to an 8-bit gray image of the
// same size.
func Grayscale(r domain.PageRaster) (*image.Gray, error) {
	if r.Channels != 3 {
		return nil, domain.ValidationError(fmt.Sprintf("page %d has %d channels, want 3", r.Index+1, r.Channels), nil)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	gray := image.NewGray(image.Rect(0, 0, r.Width, r.Height))
	src := r.Pix
	for i, j := 0, 0; j < len(gray.Pix); i, j = i+3, j+1 {
		v := uint32(src[i])*lumaR + uint32(src[i+1])*lumaG + uint32(src[i+2])*lumaB
		gray.Pix[j] = uint8((v + lumaRound) >> lumaShift)
	}
	return gray, nil
}

// Threshold maps every pixel of gray to White when it is strictly greater
// than threshold and to Black otherwise. The input is not modified.
func Threshold(gray *image.Gray, threshold uint8) *image.Gray {
	out := image.NewGray(gray.Bounds())
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	for y := 0; y < h; y++ {
		src := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		dst := out.Pix[y*out.Stride : y*out.Stride+w]
		for x, v := range src {
			if v > threshold {
				dst[x] = White
			} else {
				dst[x] = Black
			}
		}
	}
	return out
}

// Binarize converts an RGB raster to grayscale and applies a global
// threshold.
func Binarize(r domain.PageRaster, threshold uint8) (*image.Gray, error) {
	gray, err := Grayscale(r)
	if err != nil {
		return nil, err
	}
	return Threshold(gray, threshold), nil
}

// IsBinary reports whether every pixel of img is Black or White.
func IsBinary(img *image.Gray) bool {
	for _, v := range img.Pix {
		if v != Black && v != White {
			return false
		}
	}
	return true
}

// EncodePNG writes img as an 8-bit grayscale PNG.
func EncodePNG(w io.Writer, img *image.Gray) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}

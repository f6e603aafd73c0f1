package pdf

import (
	"context"
	"fmt"
	"image"
	"iter"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"

	"github.com/spherical/pdf-bw/internal/domain"
	"github.com/spherical/pdf-bw/internal/observability"
)

// DefaultDPI is the fixed rasterization resolution.
const DefaultDPI = 300.0

// Rasterizer implements page rendering using go-fitz
type Rasterizer struct {
	dpi    float64
	logger *observability.Logger
}

// NewRasterizer creates a rasterizer rendering at dpi. A non-positive dpi
// selects DefaultDPI.
func NewRasterizer(dpi float64, logger *observability.Logger) *Rasterizer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Rasterizer{dpi: dpi, logger: logger.WithOperation("rasterize")}
}

// DPI returns the rendering resolution.
func (r *Rasterizer) DPI() float64 {
	return r.dpi
}

// open decodes the PDF at path and returns it with its page count. The
// caller owns the returned document.
func (r *Rasterizer) open(path string) (*fitz.Document, int, error) {
	name := filepath.Base(path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, domain.IOError(fmt.Sprintf("cannot access %s", name), err)
	}
	if info.Size() == 0 {
		return nil, 0, domain.DecodeError(fmt.Sprintf("%s is empty", name), nil)
	}

	fdoc, err := fitz.New(path)
	if err != nil {
		return nil, 0, domain.DecodeError(fmt.Sprintf("failed to open %s", name), err)
	}

	pageCount := fdoc.NumPage()
	if pageCount <= 0 {
		fdoc.Close()
		return nil, 0, domain.EmptyDocumentError(fmt.Sprintf("%s has no pages", name), nil)
	}
	return fdoc, pageCount, nil
}

// PageCount opens the PDF at path and returns its number of pages
func (r *Rasterizer) PageCount(path string) (int, error) {
	fdoc, n, err := r.open(path)
	if err != nil {
		return 0, err
	}
	fdoc.Close()
	return n, nil
}

// Pages renders every page of the PDF at path in order, opening it once.
// Every raster carries the page count. The document stays open while the
// sequence is iterated and is closed when iteration ends,
// including when the consumer stops early. Each call re-opens the document.
func (r *Rasterizer) Pages(ctx context.Context, path string) iter.Seq2[domain.PageRaster, error] {
	return func(yield func(domain.PageRaster, error) bool) {
		fdoc, pageCount, err := r.open(path)
		if err != nil {
			yield(domain.PageRaster{}, err)
			return
		}
		defer fdoc.Close()

		r.logger.Debug().
			Str("document", filepath.Base(path)).
			Int("pages", pageCount).
			Float64("dpi", r.dpi).
			Msg("Rendering document")

		for pageNum := 0; pageNum < pageCount; pageNum++ {
			if err := ctx.Err(); err != nil {
				yield(domain.PageRaster{Index: pageNum}, err)
				return
			}

			img, err := fdoc.ImageDPI(pageNum, r.dpi)
			if err != nil {
				yield(domain.PageRaster{Index: pageNum},
					domain.DecodeError(fmt.Sprintf("failed to render page %d of %s", pageNum+1, filepath.Base(path)), err))
				return
			}

			raster := RasterFromImage(pageNum, img)
			raster.PageCount = pageCount
			if !yield(raster, nil) {
				return
			}
		}
	}
}

// RasterFromImage copies img into a 3-channel RGB raster. Alpha is dropped
// without blending.
func RasterFromImage(index int, img image.Image) domain.PageRaster {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]byte, w*h*3)

	switch src := img.(type) {
	case *image.RGBA:
		dropAlpha(pix, src.Pix, src.Stride, w, h)
	case *image.NRGBA:
		dropAlpha(pix, src.Pix, src.Stride, w, h)
	default:
		i := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				cr, cg, cb, _ := img.At(x, y).RGBA()
				pix[i] = uint8(cr >> 8)
				pix[i+1] = uint8(cg >> 8)
				pix[i+2] = uint8(cb >> 8)
				i += 3
			}
		}
	}

	return domain.PageRaster{
		Index:    index,
		Width:    w,
		Height:   h,
		Channels: 3,
		Pix:      pix,
	}
}

// dropAlpha packs 4-channel rows of src into 3-channel dst.
func dropAlpha(dst, src []byte, stride, w, h int) {
	i := 0
	for y := 0; y < h; y++ {
		row := src[y*stride : y*stride+w*4]
		for x := 0; x < w*4; x += 4 {
			dst[i] = row[x]
			dst[i+1] = row[x+1]
			dst[i+2] = row[x+2]
			i += 3
		}
	}
}

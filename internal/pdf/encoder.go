package pdf

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"os"

	"github.com/jung-kurt/gofpdf"

	"github.com/spherical/pdf-bw/internal/domain"
	"github.com/spherical/pdf-bw/internal/observability"
)

const producer = "pdf-bw"

// Encoder packs page PNGs into a PDF using gofpdf. PNG streams are embedded
// as FlateDecode data without lossy recompression.
type Encoder struct {
	dpi    float64
	logger *observability.Logger
}

// NewEncoder creates an encoder sizing pages for images rendered at dpi.
func NewEncoder(dpi float64, logger *observability.Logger) *Encoder {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Encoder{dpi: dpi, logger: logger.WithOperation("encode")}
}

// PageSize returns the page size in points for an image of the given
// pixel dimensions.
func (e *Encoder) PageSize(widthPx, heightPx int) gofpdf.SizeType {
	return gofpdf.SizeType{
		Wd: float64(widthPx) * 72 / e.dpi,
		Ht: float64(heightPx) * 72 / e.dpi,
	}
}

// Encode writes a PDF with one full-page image per entry of pages, in order.
func (e *Encoder) Encode(pages []string, w io.Writer) error {
	if len(pages) == 0 {
		return domain.EmptyDocumentError("cannot encode a PDF with zero pages", nil)
	}

	doc := gofpdf.New("P", "pt", "A4", "")
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.SetProducer(producer, false)
	doc.SetCreator(producer, false)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	for i, path := range pages {
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.IOError(fmt.Sprintf("failed to read page %d image", i+1), err)
		}

		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return domain.EncodingError(fmt.Sprintf("page %d image is not decodable", i+1), err)
		}
		if format != "png" {
			return domain.EncodingError(fmt.Sprintf("page %d image is %s, want png", i+1, format), nil)
		}

		name := fmt.Sprintf("page-%d", i+1)
		doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		if doc.Err() {
			return domain.EncodingError(fmt.Sprintf("failed to embed page %d", i+1), doc.Error())
		}

		size := e.PageSize(cfg.Width, cfg.Height)
		doc.AddPageFormat("P", size)
		doc.ImageOptions(name, 0, 0, size.Wd, size.Ht, false, opts, 0, "")

		e.logger.Debug().
			Int("page", i+1).
			Int("width_px", cfg.Width).
			Int("height_px", cfg.Height).
			Msg("Embedded page")
	}

	if err := doc.Output(w); err != nil {
		return domain.EncodingError("failed to write PDF", err)
	}
	return nil
}

// EncodeFile encodes pages into a new file at outPath and checks that the
// written PDF has one page per input. It returns the file size. On failure
// no file is left at outPath.
func (e *Encoder) EncodeFile(pages []string, outPath string) (int64, error) {
	f, err := os.Create(outPath)
	if err != nil {
		return 0, domain.IOError(fmt.Sprintf("failed to create %s", outPath), err)
	}

	if err := e.Encode(pages, f); err != nil {
		f.Close()
		os.Remove(outPath)
		return 0, err
	}
	if err := f.Close(); err != nil {
		os.Remove(outPath)
		return 0, domain.IOError(fmt.Sprintf("failed to close %s", outPath), err)
	}

	n, err := PageCountFile(outPath)
	if err != nil {
		os.Remove(outPath)
		return 0, domain.EncodingError("written PDF does not parse", err)
	}
	if n != len(pages) {
		os.Remove(outPath)
		return 0, domain.EncodingError(fmt.Sprintf("written PDF has %d pages, want %d", n, len(pages)), nil)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return 0, domain.IOError(fmt.Sprintf("failed to stat %s", outPath), err)
	}
	return info.Size(), nil
}

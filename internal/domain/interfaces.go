package domain

import (
	"context"
	"io"
	"iter"
)

// Rasterizer renders PDF pages to pixel buffers
type Rasterizer interface {
	// Pages lazily renders every page of the PDF at path in page order.
	// Each raster carries the document's page count.
	Pages(ctx context.Context, path string) iter.Seq2[PageRaster, error]
}

// Encoder packs ordered page images into a single PDF
type Encoder interface {
	Encode(pages []string, w io.Writer) error
	EncodeFile(pages []string, outPath string) (int64, error)
}

// Archiver bundles output documents into one archive
type Archiver interface {
	Write(w io.Writer, paths []string) error
}

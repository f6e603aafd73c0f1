package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/spherical/pdf-bw/internal/domain"
)

var configOnce sync.Once

// pdfcpuConfig returns a relaxed pdfcpu configuration that never touches
// the user's config directory.
func pdfcpuConfig() *model.Configuration {
	configOnce.Do(func() {
		model.ConfigPath = "disable"
	})
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PageCount returns the number of pages of the PDF read from rs.
func PageCount(rs io.ReadSeeker) (int, error) {
	n, err := api.PageCount(rs, pdfcpuConfig())
	if err != nil {
		return 0, domain.DecodeError("failed to read PDF page count", err)
	}
	return n, nil
}

// PageCountBytes returns the number of pages of an in-memory PDF.
func PageCountBytes(data []byte) (int, error) {
	return PageCount(bytes.NewReader(data))
}

// PageCountFile returns the number of pages of the PDF at path.
func PageCountFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, domain.IOError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()
	return PageCount(f)
}

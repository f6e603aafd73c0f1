package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spherical/pdf-bw/internal/domain"
	"github.com/spherical/pdf-bw/internal/observability"
)

// maxInputSize is the size above which a warning is logged.
const maxInputSize = 100 * 1024 * 1024

// Validator provides input validation for PDF files and conversion settings
type Validator struct {
	logger *observability.Logger
}

// NewValidator creates a new validator instance
func NewValidator(logger *observability.Logger) *Validator {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Validator{logger: logger}
}

// ValidatePDFPath validates that a file path is valid and points to a PDF
func (v *Validator) ValidatePDFPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return domain.ValidationError("file path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ValidationError(fmt.Sprintf("file does not exist: %s", path), err)
		}
		return domain.ValidationError(fmt.Sprintf("cannot access file: %s", path), err)
	}

	if info.IsDir() {
		return domain.ValidationError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".pdf" {
		return domain.ValidationError(fmt.Sprintf("file is not a PDF (has extension %s)", ext), nil)
	}

	// Large files are allowed, only noted.
	if info.Size() > maxInputSize {
		v.logger.Warn().
			Str("path", path).
			Int64("size_mb", info.Size()/(1024*1024)).
			Msg("PDF file is very large, processing may take a while")
	}

	file, err := os.Open(path)
	if err != nil {
		return domain.ValidationError(fmt.Sprintf("cannot open file: %s", path), err)
	}
	file.Close()

	return nil
}

// ValidateDocumentName checks that name can be used as a flat archive entry.
func (v *Validator) ValidateDocumentName(name string) error {
	if strings.TrimSpace(name) == "" {
		return domain.ValidationError("document name cannot be empty", nil)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return domain.ValidationError(fmt.Sprintf("document name must be a plain file name, got %q", name), nil)
	}
	return nil
}

// ValidateThreshold validates the operator-facing binarization threshold
func (v *Validator) ValidateThreshold(threshold int) error {
	if threshold < domain.MinThreshold || threshold > domain.MaxThreshold {
		return domain.ValidationError(fmt.Sprintf("threshold must be between %d and %d, got %d",
			domain.MinThreshold, domain.MaxThreshold, threshold), nil)
	}
	return nil
}

// ValidateDPI validates the rasterization resolution
func (v *Validator) ValidateDPI(dpi float64) error {
	if dpi < 36 || dpi > 1200 {
		return domain.ValidationError(fmt.Sprintf("dpi must be between 36 and 1200, got %g", dpi), nil)
	}
	return nil
}

// Package archive bundles converted documents into a single ZIP file.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spherical/pdf-bw/internal/domain"
)

// ZipArchiver writes output documents into a flat ZIP archive.
type ZipArchiver struct{}

// NewZipArchiver creates a ZipArchiver.
func NewZipArchiver() *ZipArchiver {
	return &ZipArchiver{}
}

// Write stores each file of paths in w under its base name, deflated.
// Base names must be unique.
func (a *ZipArchiver) Write(w io.Writer, paths []string) error {
	if len(paths) == 0 {
		return domain.NoOutputError("no converted documents to archive", nil)
	}

	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		name := filepath.Base(p)
		if seen[name] {
			return domain.ValidationError(fmt.Sprintf("duplicate archive entry %s", name), nil)
		}
		seen[name] = true
	}

	zw := zip.NewWriter(w)
	for _, p := range paths {
		if err := addFile(zw, p); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return domain.IOError("failed to finish archive", err)
	}
	return nil
}

// WriteFile creates the archive at dest. On failure dest is removed.
func (a *ZipArchiver) WriteFile(dest string, paths []string) error {
	f, err := os.Create(dest)
	if err != nil {
		return domain.IOError(fmt.Sprintf("failed to create %s", dest), err)
	}
	if err := a.Write(f, paths); err != nil {
		f.Close()
		os.Remove(dest)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return domain.IOError(fmt.Sprintf("failed to close %s", dest), err)
	}
	return nil
}

func addFile(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return domain.IOError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return domain.IOError(fmt.Sprintf("failed to stat %s", path), err)
	}

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return domain.IOError(fmt.Sprintf("failed to build header for %s", path), err)
	}
	hdr.Name = filepath.Base(path)
	hdr.Method = zip.Deflate

	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return domain.IOError(fmt.Sprintf("failed to add %s", hdr.Name), err)
	}
	if _, err := io.Copy(dst, f); err != nil {
		return domain.IOError(fmt.Sprintf("failed to write %s", hdr.Name), err)
	}
	return nil
}

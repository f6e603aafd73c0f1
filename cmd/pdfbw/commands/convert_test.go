package commands

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/pdf-bw/cmd/pdfbw/ui"
	"github.com/spherical/pdf-bw/internal/domain"
	"github.com/spherical/pdf-bw/internal/pdf/pdftest"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	ui.SetOutput(&bytes.Buffer{}, &bytes.Buffer{})
	t.Cleanup(func() { ui.SetOutput(os.Stdout, os.Stderr) })

	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestArchivePath(t *testing.T) {
	dir := t.TempDir()

	got, err := archivePath(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, domain.ArchiveName), got)

	nested := filepath.Join(dir, "new", "out.zip")
	got, err = archivePath(nested)
	require.NoError(t, err)
	assert.Equal(t, nested, got)
	assert.DirExists(t, filepath.Join(dir, "new"))

	trailing := filepath.Join(dir, "fresh") + string(filepath.Separator)
	got, err = archivePath(trailing)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "fresh", domain.ArchiveName), got)
	assert.DirExists(t, filepath.Join(dir, "fresh"))
}

func TestConvertCommand_OutputDirectoryWithSlash(t *testing.T) {
	dir := t.TempDir()
	in := pdftest.WriteFile(t, dir, "scan.pdf", pdftest.Build(t, pdftest.Pages(1)...))
	missing := filepath.Join(dir, "missing.pdf")

	err := execute(t, "convert", in, missing,
		"--output", filepath.Join(dir, "out")+"/",
		"--temp-dir", filepath.Join(dir, "tmp"),
		"--report", "",
		"--log-level", "disabled")
	require.NoError(t, err)

	zr, err := zip.OpenReader(filepath.Join(dir, "out", domain.ArchiveName))
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	assert.Equal(t, "bw_scan.pdf", zr.File[0].Name)
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	in := pdftest.WriteFile(t, dir, "scan.pdf", pdftest.Build(t, pdftest.Pages(2)...))
	bad := pdftest.WriteFile(t, dir, "bad.pdf", pdftest.Corrupt())
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(outDir, 0o755))
	reportPath := filepath.Join(dir, "report.yaml")

	err := execute(t, "convert", in, bad,
		"--output", outDir,
		"--threshold", "150",
		"--temp-dir", filepath.Join(dir, "tmp"),
		"--report", reportPath,
		"--no-color",
		"--log-level", "disabled")
	require.NoError(t, err)

	archive := filepath.Join(outDir, domain.ArchiveName)
	zr, err := zip.OpenReader(archive)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	assert.Equal(t, "bw_scan.pdf", zr.File[0].Name)

	leftovers, err := filepath.Glob(filepath.Join(outDir, ".bw_pdfs-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)

	report, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(report), "threshold: 150")
	assert.Contains(t, string(report), "source: bad.pdf")
	assert.Contains(t, string(report), "archive: "+archive)
}

func TestConvertCommand_AllFailed(t *testing.T) {
	dir := t.TempDir()
	bad := pdftest.WriteFile(t, dir, "bad.pdf", pdftest.Corrupt())
	out := filepath.Join(dir, "result.zip")

	err := execute(t, "convert", bad,
		"--output", out,
		"--temp-dir", filepath.Join(dir, "tmp"),
		"--report", "",
		"--log-level", "disabled")
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeNoOutput))
	assert.NoFileExists(t, out)

	leftovers, err := filepath.Glob(filepath.Join(dir, ".bw_pdfs-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestConvertCommand_NoInput(t *testing.T) {
	err := execute(t, "convert", "--log-level", "disabled")
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeNoInput))
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	t.Cleanup(func() { rootCmd.SetOut(nil) })

	require.NoError(t, execute(t, "version"))
	assert.Equal(t, "pdfbw version dev\n", buf.String())
}

package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/spherical/pdf-bw/internal/domain"
)

func sampleResult() *domain.BatchResult {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &domain.BatchResult{
		RunID:      "run-42",
		Threshold:  150,
		DPI:        300,
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Outputs: []domain.OutputDocument{
			{Source: "a.pdf", ArchiveName: "bw_a.pdf", Pages: 3, Bytes: 2048},
		},
		Failures: []domain.DocumentFailure{
			{Source: "b.pdf", Stage: domain.StateRasterizing, Err: errors.New("corrupt xref")},
		},
	}
}

func TestFromResult(t *testing.T) {
	r := FromResult(sampleResult(), "/out/bw_pdfs.zip")

	assert.Equal(t, "run-42", r.RunID)
	assert.Equal(t, 150, r.Threshold)
	assert.Equal(t, "/out/bw_pdfs.zip", r.Archive)
	assert.Equal(t, 1, r.Succeeded)
	assert.Equal(t, 1, r.Failed)
	require.Len(t, r.Documents, 2)

	assert.Equal(t, Document{Source: "a.pdf", Status: "done", Output: "bw_a.pdf", Pages: 3, Bytes: 2048}, r.Documents[0])
	assert.Equal(t, Document{Source: "b.pdf", Status: "failed", Stage: "rasterizing", Error: "corrupt xref"}, r.Documents[1])
}

func TestReport_Write(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FromResult(sampleResult(), "").Write(&buf))

	var decoded Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-42", decoded.RunID)
	assert.Empty(t, decoded.Archive)
	assert.Len(t, decoded.Documents, 2)
	assert.NotContains(t, buf.String(), "archive:")
	assert.Contains(t, buf.String(), "error: corrupt xref")
}

func TestReport_WriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, FromResult(sampleResult(), "x.zip").WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run_id: run-42")

	err = FromResult(sampleResult(), "").WriteFile(filepath.Join(t.TempDir(), "missing", "r.yaml"))
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeIO))
}

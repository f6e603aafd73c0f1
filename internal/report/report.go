// Package report writes a YAML summary of a batch run.
package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spherical/pdf-bw/internal/domain"
)

// Report is the serialized form of a domain.BatchResult.
type Report struct {
	RunID      string     `yaml:"run_id"`
	Threshold  int        `yaml:"threshold"`
	DPI        float64    `yaml:"dpi"`
	StartedAt  time.Time  `yaml:"started_at"`
	FinishedAt time.Time  `yaml:"finished_at"`
	Archive    string     `yaml:"archive,omitempty"`
	Succeeded  int        `yaml:"succeeded"`
	Failed     int        `yaml:"failed"`
	Documents  []Document `yaml:"documents"`
}

// Document is one line of the report.
type Document struct {
	Source string `yaml:"source"`
	Status string `yaml:"status"`
	Output string `yaml:"output,omitempty"`
	Pages  int    `yaml:"pages,omitempty"`
	Bytes  int64  `yaml:"bytes,omitempty"`
	Stage  string `yaml:"stage,omitempty"`
	Error  string `yaml:"error,omitempty"`
}

// FromResult builds a Report. archive is the delivered archive path, empty
// when none was delivered.
func FromResult(res *domain.BatchResult, archive string) *Report {
	r := &Report{
		RunID:      res.RunID,
		Threshold:  res.Threshold,
		DPI:        res.DPI,
		StartedAt:  res.StartedAt.UTC(),
		FinishedAt: res.FinishedAt.UTC(),
		Archive:    archive,
		Succeeded:  len(res.Outputs),
		Failed:     len(res.Failures),
		Documents:  make([]Document, 0, len(res.Outputs)+len(res.Failures)),
	}
	for _, out := range res.Outputs {
		r.Documents = append(r.Documents, Document{
			Source: out.Source,
			Status: string(domain.StateDone),
			Output: out.ArchiveName,
			Pages:  out.Pages,
			Bytes:  out.Bytes,
		})
	}
	for _, f := range res.Failures {
		d := Document{
			Source: f.Source,
			Status: string(domain.StateFailed),
			Stage:  string(f.Stage),
		}
		if f.Err != nil {
			d.Error = f.Err.Error()
		}
		r.Documents = append(r.Documents, d)
	}
	return r
}

// Write encodes r as YAML to w.
func (r *Report) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}

// WriteFile writes r to path.
func (r *Report) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return domain.IOError(fmt.Sprintf("failed to create report %s", path), err)
	}
	if err := r.Write(f); err != nil {
		f.Close()
		return domain.IOError("failed to write report", err)
	}
	if err := f.Close(); err != nil {
		return domain.IOError("failed to close report", err)
	}
	return nil
}

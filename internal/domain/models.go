package domain

import (
	"fmt"
	"time"
)

const (
	// DefaultThreshold is the global binarization cutoff used when none is given.
	DefaultThreshold = 180
	// MinThreshold and MaxThreshold bound the operator-facing threshold.
	MinThreshold = 50
	MaxThreshold = 255

	// OutputPrefix is prepended to every output document name.
	OutputPrefix = "bw_"
	// ArchiveName is the default file name of the delivered archive.
	ArchiveName = "bw_pdfs.zip"
)

// Document is one input PDF of a batch. A document whose LoadErr is set
// could not be read and is recorded as failed without being processed.
type Document struct {
	Name    string
	Content []byte
	LoadErr error
}

// OutputName returns the name of the black-and-white copy of the document.
func (d Document) OutputName() string {
	return OutputPrefix + d.Name
}

// PageRaster is a rendered page: Height×Width pixels, Channels bytes per
// pixel, 8-bit depth, rows packed without padding.
type PageRaster struct {
	Index     int // 0-based page index
	PageCount int // pages in the document the raster came from
	Width     int
	Height    int
	Channels  int
	Pix       []byte
}

// Validate checks that the buffer matches the declared geometry.
func (r PageRaster) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return ValidationError(fmt.Sprintf("page %d has invalid size %dx%d", r.Index+1, r.Width, r.Height), nil)
	}
	if want := r.Width * r.Height * r.Channels; len(r.Pix) != want {
		return ValidationError(fmt.Sprintf("page %d buffer has %d bytes, want %d", r.Index+1, len(r.Pix), want), nil)
	}
	return nil
}

// OutputDocument describes one successfully converted document.
type OutputDocument struct {
	Source      string `yaml:"source"`
	ArchiveName string `yaml:"archive_name"`
	Pages       int    `yaml:"pages"`
	Bytes       int64  `yaml:"bytes"`
}

// DocumentState is a step of the per-document state machine.
type DocumentState string

const (
	StatePending     DocumentState = "pending"
	StateRasterizing DocumentState = "rasterizing"
	StateBinarizing  DocumentState = "binarizing"
	StateEncoding    DocumentState = "encoding"
	StateDone        DocumentState = "done"
	StateFailed      DocumentState = "failed"
)

// DocumentFailure records why a document was skipped.
type DocumentFailure struct {
	Source string        `yaml:"source"`
	Stage  DocumentState `yaml:"stage"`
	Err    error         `yaml:"-"`
}

func (f DocumentFailure) Error() string {
	return fmt.Sprintf("%s (%s): %v", f.Source, f.Stage, f.Err)
}

// BatchResult is the outcome of one batch run.
type BatchResult struct {
	RunID      string
	Threshold  int
	DPI        float64
	StartedAt  time.Time
	FinishedAt time.Time
	Outputs    []OutputDocument
	Failures   []DocumentFailure
}

// EventType represents the type of progress event
type EventType string

const (
	EventBatchStart       EventType = "batch_start"
	EventDocumentStart    EventType = "document_start"
	EventPageDone         EventType = "page_done"
	EventDocumentComplete EventType = "document_complete"
	EventDocumentFailed   EventType = "document_failed"
	EventArchiveStart     EventType = "archive_start"
	EventBatchComplete    EventType = "batch_complete"
)

// Event represents a progress notification emitted during a batch run
type Event struct {
	Type          EventType     `json:"type"`
	DocumentIndex int           `json:"document_index"` // 1-based
	DocumentCount int           `json:"document_count"`
	DocumentName  string        `json:"document_name,omitempty"`
	PageNumber    int           `json:"page_number,omitempty"` // 1-based
	TotalPages    int           `json:"total_pages,omitempty"`
	Stage         DocumentState `json:"stage,omitempty"`
	Message       string        `json:"message"`
	Err           error         `json:"-"`
	Timestamp     time.Time     `json:"timestamp"`
}

// Progress returns pages done over total pages for page events, else 0.
func (e Event) Progress() float64 {
	if e.TotalPages == 0 {
		return 0
	}
	return float64(e.PageNumber) / float64(e.TotalPages)
}

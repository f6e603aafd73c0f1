// Package converter is the public API of pdf-bw: it turns PDFs into
// high-contrast black-and-white PDFs and bundles them into a ZIP.
package converter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spherical/pdf-bw/internal/convert"
	"github.com/spherical/pdf-bw/internal/domain"
	"github.com/spherical/pdf-bw/internal/observability"
	"github.com/spherical/pdf-bw/internal/pdf"
)

// Re-export domain types for the public API
type (
	Document        = domain.Document
	Event           = domain.Event
	EventType       = domain.EventType
	BatchResult     = domain.BatchResult
	OutputDocument  = domain.OutputDocument
	DocumentFailure = domain.DocumentFailure
	ErrorType       = domain.ErrorType
)

// Event type constants
const (
	EventBatchStart       = domain.EventBatchStart
	EventDocumentStart    = domain.EventDocumentStart
	EventPageDone         = domain.EventPageDone
	EventDocumentComplete = domain.EventDocumentComplete
	EventDocumentFailed   = domain.EventDocumentFailed
	EventArchiveStart     = domain.EventArchiveStart
	EventBatchComplete    = domain.EventBatchComplete
)

// Error type constants, for use with IsErrorType
const (
	ErrorTypeDecode        = domain.ErrorTypeDecode
	ErrorTypeEmptyDocument = domain.ErrorTypeEmptyDocument
	ErrorTypeIO            = domain.ErrorTypeIO
	ErrorTypeNoInput       = domain.ErrorTypeNoInput
	ErrorTypeNoOutput      = domain.ErrorTypeNoOutput
)

const (
	DefaultThreshold = domain.DefaultThreshold
	DefaultDPI       = pdf.DefaultDPI
	ArchiveName      = domain.ArchiveName
)

// IsErrorType reports whether err carries the given error type.
func IsErrorType(err error, t ErrorType) bool {
	return domain.IsType(err, t)
}

// Client is the main entry point for the converter library
type Client struct {
	service *convert.Service
	config  Config
}

// Config holds configuration options for the client
type Config struct {
	Threshold int    // 0 selects DefaultThreshold
	TempDir   string // parent of the per-run workspace
	Logger    *observability.Logger
}

// Outcome is delivered once on the Done channel of a Run.
type Outcome struct {
	Result *BatchResult
	Err    error
}

// Run is an in-flight batch. Events is closed after the last event; Done
// then receives the outcome.
type Run struct {
	Events <-chan Event
	Done   <-chan Outcome
}

// NewClient creates a client with default settings
func NewClient() *Client {
	c, _ := NewClientWithConfig(Config{})
	return c
}

// NewClientWithConfig creates a client with custom configuration
func NewClientWithConfig(cfg Config) (*Client, error) {
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if err := pdf.NewValidator(cfg.Logger).ValidateThreshold(cfg.Threshold); err != nil {
		return nil, err
	}
	return &Client{
		service: convert.New(DefaultDPI, cfg.Logger),
		config:  cfg,
	}, nil
}

// Convert runs the batch synchronously, writing the archive to w. handler
// may be nil.
func (c *Client) Convert(ctx context.Context, docs []Document, w io.Writer, handler func(Event)) (*BatchResult, error) {
	return c.service.Run(ctx, convert.Request{
		Documents: docs,
		Threshold: c.config.Threshold,
		TempDir:   c.config.TempDir,
		Archive:   w,
		OnEvent:   handler,
	})
}

// Process runs the batch in a goroutine and streams its events. Documents
// are still converted one at a time. The caller must drain Events until
// it cancels ctx; events sent after cancellation are dropped.
func (c *Client) Process(ctx context.Context, docs []Document, w io.Writer) *Run {
	eventCh := make(chan Event, 100)
	doneCh := make(chan Outcome, 1)

	go func() {
		res, err := c.Convert(ctx, docs, w, func(e Event) {
			select {
			case eventCh <- e:
			case <-ctx.Done():
			}
		})
		close(eventCh)
		doneCh <- Outcome{Result: res, Err: err}
		close(doneCh)
	}()

	return &Run{Events: eventCh, Done: doneCh}
}

// LoadFiles reads PDFs from disk, naming each document after its base name.
// A path that is missing, not a PDF or unreadable yields a document with
// LoadErr set, so the batch records it as failed and carries on.
func LoadFiles(paths []string) []Document {
	validator := pdf.NewValidator(nil)
	docs := make([]Document, 0, len(paths))
	for _, p := range paths {
		doc := Document{Name: filepath.Base(p)}
		if err := validator.ValidatePDFPath(p); err != nil {
			doc.LoadErr = err
			docs = append(docs, doc)
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			doc.LoadErr = domain.IOError(fmt.Sprintf("failed to read %s", p), err)
		} else {
			doc.Content = data
		}
		docs = append(docs, doc)
	}
	return docs
}

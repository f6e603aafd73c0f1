// Package convert runs a batch of PDFs through the black-and-white pipeline:
// rasterize, binarize, re-encode, archive.
package convert

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/spherical/pdf-bw/internal/archive"
	"github.com/spherical/pdf-bw/internal/domain"
	"github.com/spherical/pdf-bw/internal/imaging"
	"github.com/spherical/pdf-bw/internal/observability"
	"github.com/spherical/pdf-bw/internal/pdf"
)

// EventHandler receives progress events synchronously, in order.
type EventHandler func(domain.Event)

// Request describes one batch run.
type Request struct {
	Documents []domain.Document
	Threshold int
	// TempDir is the parent of the run's workspace; empty means the OS default.
	TempDir string
	// Archive receives the ZIP of all converted documents.
	Archive io.Writer
	OnEvent EventHandler
}

// Service orchestrates the conversion of a batch of documents
type Service struct {
	rasterizer domain.Rasterizer
	encoder    domain.Encoder
	archiver   domain.Archiver
	validator  *pdf.Validator
	dpi        float64
	logger     *observability.Logger
}

// New creates a Service wired to the go-fitz rasterizer, the gofpdf
// encoder and the ZIP archiver, all at the same dpi. An out-of-range dpi
// selects pdf.DefaultDPI.
func New(dpi float64, logger *observability.Logger) *Service {
	if logger == nil {
		logger = observability.Nop()
	}
	if err := pdf.NewValidator(logger).ValidateDPI(dpi); err != nil {
		logger.Warn().Err(err).Float64("dpi", pdf.DefaultDPI).Msg("Falling back to default DPI")
		dpi = pdf.DefaultDPI
	}
	return NewService(
		pdf.NewRasterizer(dpi, logger),
		pdf.NewEncoder(dpi, logger),
		archive.NewZipArchiver(),
		dpi,
		logger,
	)
}

// NewService creates a Service from explicit components
func NewService(rasterizer domain.Rasterizer, encoder domain.Encoder, archiver domain.Archiver, dpi float64, logger *observability.Logger) *Service {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Service{
		rasterizer: rasterizer,
		encoder:    encoder,
		archiver:   archiver,
		validator:  pdf.NewValidator(logger),
		dpi:        dpi,
		logger:     logger.WithOperation("convert"),
	}
}

// batch carries the per-run state shared by the documents of one run.
type batch struct {
	req    Request
	ws     *Workspace
	logger *observability.Logger
	names  map[string]bool
}

// Run converts every document of req in order and writes the archive.
// A failing document is recorded and skipped. The returned result is
// non-nil whenever the run got past input validation, even on error.
func (s *Service) Run(ctx context.Context, req Request) (*domain.BatchResult, error) {
	if len(req.Documents) == 0 {
		return nil, domain.NoInputError("no PDF documents were provided", nil)
	}
	if err := s.validator.ValidateThreshold(req.Threshold); err != nil {
		return nil, err
	}
	if req.Archive == nil {
		return nil, domain.ValidationError("no archive destination given", nil)
	}

	result := &domain.BatchResult{
		RunID:     uuid.NewString(),
		Threshold: req.Threshold,
		DPI:       s.dpi,
		StartedAt: time.Now(),
	}
	logger := s.logger.WithRun(result.RunID)

	ws, err := NewWorkspace(req.TempDir)
	if err != nil {
		return result, err
	}
	defer func() {
		if err := ws.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to remove workspace")
		}
	}()

	b := &batch{req: req, ws: ws, logger: logger, names: make(map[string]bool)}
	total := len(req.Documents)

	logger.Info().
		Int("documents", total).
		Int("threshold", req.Threshold).
		Str("workspace", ws.Root()).
		Msg("Starting batch")
	s.emit(req.OnEvent, domain.Event{
		Type:          domain.EventBatchStart,
		DocumentCount: total,
		Message:       fmt.Sprintf("Converting %d PDF(s) at threshold %d", total, req.Threshold),
	})

	var outputPaths []string
	for i, doc := range req.Documents {
		if err := ctx.Err(); err != nil {
			result.FinishedAt = time.Now()
			return result, fmt.Errorf("batch cancelled: %w", err)
		}

		out, path, stage, err := s.processDocument(ctx, b, i, doc)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				result.FinishedAt = time.Now()
				return result, fmt.Errorf("batch cancelled: %w", ctxErr)
			}

			failure := domain.DocumentFailure{Source: doc.Name, Stage: stage, Err: err}
			result.Failures = append(result.Failures, failure)
			logger.Warn().
				Str("document", doc.Name).
				Str("stage", string(stage)).
				Str("error_type", string(domain.TypeOf(err))).
				Err(err).
				Msg("Document failed")
			s.emit(req.OnEvent, domain.Event{
				Type:          domain.EventDocumentFailed,
				DocumentIndex: i + 1,
				DocumentCount: total,
				DocumentName:  doc.Name,
				Stage:         stage,
				Message:       fmt.Sprintf("PDF failed: %s: %v", doc.Name, err),
				Err:           err,
			})
			continue
		}

		result.Outputs = append(result.Outputs, out)
		outputPaths = append(outputPaths, path)
	}

	if leftovers, _ := ws.PageFiles(); len(leftovers) > 0 {
		logger.Warn().Int("files", len(leftovers)).Msg("Removing leftover page images")
		if err := ws.RemoveFiles(leftovers); err != nil {
			result.FinishedAt = time.Now()
			return result, domain.IOError("failed to remove page images", err)
		}
	}

	if len(outputPaths) > 0 {
		s.emit(req.OnEvent, domain.Event{
			Type:          domain.EventArchiveStart,
			DocumentCount: total,
			Message:       fmt.Sprintf("Archiving %d PDF(s)", len(outputPaths)),
		})
	}
	if err := s.archiver.Write(req.Archive, outputPaths); err != nil {
		result.FinishedAt = time.Now()
		if domain.IsType(err, domain.ErrorTypeNoOutput) {
			logger.Error().Int("failed", len(result.Failures)).Msg("Every document failed")
			return result, domain.NoOutputError(fmt.Sprintf("all %d document(s) failed", total), errors.Join(failureErrors(result.Failures)...))
		}
		return result, err
	}

	result.FinishedAt = time.Now()
	duration := result.FinishedAt.Sub(result.StartedAt)

	message := "All PDFs processed successfully!"
	if len(result.Failures) > 0 {
		message = fmt.Sprintf("Processed %d of %d PDFs, %d failed", len(result.Outputs), total, len(result.Failures))
	}
	s.emit(req.OnEvent, domain.Event{
		Type:          domain.EventBatchComplete,
		DocumentCount: total,
		Message:       message,
	})

	logger.Info().
		Int("succeeded", len(result.Outputs)).
		Int("failed", len(result.Failures)).
		Dur("duration", duration).
		Msg("Batch complete")

	return result, nil
}

// processDocument runs one document through rasterize, binarize and encode.
// On failure it returns the stage the document was in. Page images are
// removed before it returns, whatever the outcome.
func (s *Service) processDocument(ctx context.Context, b *batch, index int, doc domain.Document) (domain.OutputDocument, string, domain.DocumentState, error) {
	stage := domain.StatePending
	total := len(b.req.Documents)
	logger := b.logger.With().Str("document", doc.Name).Logger()

	if doc.LoadErr != nil {
		return domain.OutputDocument{}, "", stage, doc.LoadErr
	}
	if err := s.validator.ValidateDocumentName(doc.Name); err != nil {
		return domain.OutputDocument{}, "", stage, err
	}
	if b.names[doc.Name] {
		return domain.OutputDocument{}, "", stage, domain.ValidationError(fmt.Sprintf("duplicate document name %s", doc.Name), nil)
	}
	b.names[doc.Name] = true

	s.emit(b.req.OnEvent, domain.Event{
		Type:          domain.EventDocumentStart,
		DocumentIndex: index + 1,
		DocumentCount: total,
		DocumentName:  doc.Name,
		Stage:         stage,
		Message:       fmt.Sprintf("Processing PDF %d/%d: %s", index+1, total, doc.Name),
	})

	inputPath, err := b.ws.SaveInput(doc)
	if err != nil {
		return domain.OutputDocument{}, "", stage, err
	}
	defer os.Remove(inputPath)

	stage = domain.StateRasterizing
	pageCount := 0
	var pages []string
	defer func() {
		if err := b.ws.RemoveFiles(pages); err != nil {
			logger.Warn().Err(err).Msg("Failed to remove page images")
		}
	}()

	threshold := uint8(b.req.Threshold)
	for raster, err := range s.rasterizer.Pages(ctx, inputPath) {
		if err != nil {
			return domain.OutputDocument{}, "", domain.StateRasterizing, err
		}
		if pageCount == 0 {
			pageCount = raster.PageCount
			logger.Info().Int("pages", pageCount).Msg("Converting document")
		}

		stage = domain.StateBinarizing
		bw, err := imaging.Binarize(raster, threshold)
		if err != nil {
			return domain.OutputDocument{}, "", stage, err
		}

		pagePath := b.ws.PagePath(raster.Index + 1)
		if err := writePNG(pagePath, bw); err != nil {
			return domain.OutputDocument{}, "", stage, err
		}
		pages = append(pages, pagePath)

		logger.Debug().Int("page", raster.Index+1).Str("image", pagePath).Msg("Page binarized")
		s.emit(b.req.OnEvent, domain.Event{
			Type:          domain.EventPageDone,
			DocumentIndex: index + 1,
			DocumentCount: total,
			DocumentName:  doc.Name,
			PageNumber:    raster.Index + 1,
			TotalPages:    pageCount,
			Stage:         stage,
			Message:       fmt.Sprintf("  Page %d/%d processed", raster.Index+1, pageCount),
		})
	}

	stage = domain.StateEncoding
	if len(pages) != pageCount {
		return domain.OutputDocument{}, "", stage,
			domain.EncodingError(fmt.Sprintf("rendered %d of %d pages", len(pages), pageCount), nil)
	}

	outPath := b.ws.OutputPath(doc.OutputName())
	size, err := s.encoder.EncodeFile(pages, outPath)
	if err != nil {
		return domain.OutputDocument{}, "", stage, err
	}

	s.emit(b.req.OnEvent, domain.Event{
		Type:          domain.EventDocumentComplete,
		DocumentIndex: index + 1,
		DocumentCount: total,
		DocumentName:  doc.Name,
		TotalPages:    pageCount,
		PageNumber:    pageCount,
		Stage:         domain.StateDone,
		Message:       fmt.Sprintf("PDF saved: %s", doc.OutputName()),
	})
	logger.Info().Str("output", doc.OutputName()).Int64("bytes", size).Msg("Document converted")

	return domain.OutputDocument{
		Source:      doc.Name,
		ArchiveName: doc.OutputName(),
		Pages:       pageCount,
		Bytes:       size,
	}, outPath, domain.StateDone, nil
}

// writePNG writes a binarized page to path.
func writePNG(path string, img *image.Gray) error {
	f, err := os.Create(path)
	if err != nil {
		return domain.IOError("failed to create page image", err)
	}
	if err := imaging.EncodePNG(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return domain.IOError("failed to write page image", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return domain.IOError("failed to close page image", err)
	}
	return nil
}

// emit delivers an event to the handler, if any
func (s *Service) emit(h EventHandler, event domain.Event) {
	if h == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	h(event)
}

func failureErrors(failures []domain.DocumentFailure) []error {
	errs := make([]error, 0, len(failures))
	for _, f := range failures {
		errs = append(errs, f)
	}
	return errs
}

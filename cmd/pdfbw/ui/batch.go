package ui

import (
	"github.com/spherical/pdf-bw/internal/domain"
)

// BatchView renders conversion events. Interactive views draw a progress
// bar per document and a spinner while archiving; plain views print one
// line per event.
type BatchView struct {
	interactive bool
	bar         *ProgressBar
	spinner     *Spinner
	completion  string
}

// NewBatchView creates a view. Pass interactive=false for logs and pipes.
func NewBatchView(interactive bool) *BatchView {
	return &BatchView{interactive: interactive}
}

// Handle renders one event. It is a convert.EventHandler.
func (v *BatchView) Handle(e domain.Event) {
	switch e.Type {
	case domain.EventBatchStart:
		Section("PDF to Black & White")
		Info("%s", e.Message)

	case domain.EventDocumentStart:
		Newline()
		Step("%s", e.Message)

	case domain.EventPageDone:
		if !v.interactive {
			Message("%s (%.0f%%)", e.Message, e.Progress()*100)
			return
		}
		if v.bar == nil {
			v.bar = NewProgressBar(int64(e.TotalPages), e.DocumentName)
		}
		v.bar.Set(int64(e.PageNumber))

	case domain.EventDocumentComplete:
		v.finishBar()
		Success("%s", e.Message)

	case domain.EventDocumentFailed:
		v.finishBar()
		Error("%s", e.Message)

	case domain.EventArchiveStart:
		if !v.interactive {
			Message("%s", e.Message)
			return
		}
		v.spinner = NewSpinner(e.Message)
		v.spinner.Start()

	case domain.EventBatchComplete:
		v.Stop()
		v.completion = e.Message
	}
}

// Stop ends any running bar or spinner. Safe to call at any time.
func (v *BatchView) Stop() {
	v.finishBar()
	if v.spinner != nil {
		v.spinner.Stop()
		v.spinner = nil
	}
}

// Completion returns the final batch message, empty until the batch ends.
func (v *BatchView) Completion() string {
	return v.completion
}

func (v *BatchView) finishBar() {
	if v.bar != nil {
		v.bar.Finish()
		v.bar = nil
	}
}

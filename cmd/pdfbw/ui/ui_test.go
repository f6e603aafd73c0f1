package ui

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/spherical/pdf-bw/internal/domain"
)

// capture redirects UI output to buffers for the duration of the test.
func capture(t *testing.T) (out, errOut *bytes.Buffer) {
	t.Helper()
	out, errOut = &bytes.Buffer{}, &bytes.Buffer{}
	prevNoColor := color.NoColor
	color.NoColor = true
	SetOutput(out, errOut)
	t.Cleanup(func() {
		SetOutput(os.Stdout, os.Stderr)
		color.NoColor = prevNoColor
	})
	return out, errOut
}

func TestBatchView_Plain(t *testing.T) {
	out, errOut := capture(t)
	v := NewBatchView(false)

	events := []domain.Event{
		{Type: domain.EventBatchStart, DocumentCount: 2, Message: "Converting 2 PDF(s) at threshold 180"},
		{Type: domain.EventDocumentStart, DocumentIndex: 1, Message: "Processing PDF 1/2: a.pdf"},
		{Type: domain.EventPageDone, PageNumber: 1, TotalPages: 1, Message: "  Page 1/1 processed"},
		{Type: domain.EventDocumentComplete, Message: "PDF saved: bw_a.pdf"},
		{Type: domain.EventDocumentStart, DocumentIndex: 2, Message: "Processing PDF 2/2: b.pdf"},
		{Type: domain.EventDocumentFailed, Message: "PDF failed: b.pdf: corrupt", Err: errors.New("corrupt")},
		{Type: domain.EventArchiveStart, Message: "Archiving 1 PDF(s)"},
		{Type: domain.EventBatchComplete, Message: "Processed 1 of 2 PDFs, 1 failed"},
	}
	for _, e := range events {
		v.Handle(e)
	}
	v.Stop()

	stdout := out.String()
	assert.Contains(t, stdout, "PDF to Black & White")
	assert.Contains(t, stdout, "→ Processing PDF 1/2: a.pdf")
	assert.Contains(t, stdout, "  Page 1/1 processed")
	assert.Contains(t, stdout, "✓ PDF saved: bw_a.pdf")
	assert.Contains(t, stdout, "Archiving 1 PDF(s)")
	assert.Contains(t, errOut.String(), "✗ PDF failed: b.pdf: corrupt")
	assert.Equal(t, "Processed 1 of 2 PDFs, 1 failed", v.Completion())
}

func TestBatchView_Interactive(t *testing.T) {
	_, errOut := capture(t)
	v := NewBatchView(true)

	v.Handle(domain.Event{Type: domain.EventDocumentStart, Message: "Processing PDF 1/1: a.pdf"})
	for p := 1; p <= 3; p++ {
		v.Handle(domain.Event{Type: domain.EventPageDone, DocumentName: "a.pdf", PageNumber: p, TotalPages: 3})
	}
	v.Handle(domain.Event{Type: domain.EventDocumentComplete, Message: "PDF saved: bw_a.pdf"})
	v.Handle(domain.Event{Type: domain.EventArchiveStart, Message: "Archiving 1 PDF(s)"})
	v.Handle(domain.Event{Type: domain.EventBatchComplete, Message: "All PDFs processed successfully!"})

	assert.Contains(t, errOut.String(), "a.pdf")
	assert.Contains(t, errOut.String(), "3/3")
	assert.Nil(t, v.bar)
	assert.Nil(t, v.spinner)
	assert.Equal(t, "All PDFs processed successfully!", v.Completion())

	assert.NotPanics(t, v.Stop)
}

func TestMessages(t *testing.T) {
	out, errOut := capture(t)

	Success("done %d", 1)
	Warning("careful")
	Info("fyi")
	Error("bad %s", "thing")
	KeyValue("Threshold", "180")

	assert.Equal(t, "✓ done 1\n⚠ careful\nℹ fyi\n  Threshold: 180\n", out.String())
	assert.Equal(t, "✗ bad thing\n", errOut.String())
}

func TestTable(t *testing.T) {
	out, _ := capture(t)

	Table([]string{"Input", "Status"}, [][]string{{"a.pdf", "ok"}, {"long-name.pdf", "failed"}})

	assert.Equal(t,
		"Input          Status\n"+
			"-----          ------\n"+
			"a.pdf          ok\n"+
			"long-name.pdf  failed\n",
		out.String())
}

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		250 * time.Millisecond:                    "250ms",
		3 * time.Second:                           "3s",
		90 * time.Second:                          "1m 30s",
		2*time.Hour + 5*time.Minute + time.Second: "2h 5m 1s",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatDuration(in))
	}
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.0 KiB", FormatBytes(1024))
	assert.Equal(t, "1.5 MiB", FormatBytes(1536*1024))
}

func TestIsTerminal_Buffer(t *testing.T) {
	capture(t)
	assert.False(t, IsTerminal())
}

func TestInitUI(t *testing.T) {
	prev := color.NoColor
	t.Cleanup(func() { color.NoColor = prev; verboseFlag = false })

	InitUI(true, true)
	assert.True(t, color.NoColor)
	assert.True(t, Verbose())
}

package ui

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	outWriter io.Writer = os.Stdout
	errWriter io.Writer = os.Stderr

	verboseFlag bool
)

// InitUI initializes the UI with color and verbose settings.
func InitUI(noColor, verbose bool) {
	verboseFlag = verbose
	if noColor {
		color.NoColor = true
	}
}

// SetOutput redirects regular and error output, for tests and embedding.
func SetOutput(out, errOut io.Writer) {
	outWriter = out
	errWriter = errOut
}

// Verbose reports whether verbose output was requested.
func Verbose() bool {
	return verboseFlag
}

// IsTerminal checks if error output, where progress is drawn, is a terminal.
func IsTerminal() bool {
	f, ok := errWriter.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

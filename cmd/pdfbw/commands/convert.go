package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical/pdf-bw/cmd/pdfbw/ui"
	"github.com/spherical/pdf-bw/internal/config"
	"github.com/spherical/pdf-bw/internal/convert"
	"github.com/spherical/pdf-bw/internal/domain"
	"github.com/spherical/pdf-bw/internal/pdf"
	"github.com/spherical/pdf-bw/internal/report"
	"github.com/spherical/pdf-bw/pkg/converter"
)

var convertCmd = &cobra.Command{
	Use:   "convert <file.pdf>...",
	Short: "Convert PDFs to black & white and bundle them into a ZIP",
	Long: `Convert renders each PDF, thresholds every page to pure black and white and
writes bw_<name>.pdf for each input into one ZIP archive (bw_pdfs.zip by
default). A PDF that cannot be converted is reported and skipped.

Examples:
  pdfbw convert scan.pdf
  pdfbw convert a.pdf b.pdf --threshold 150 --output out/
  pdfbw convert *.pdf --report report.yaml`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().IntP(config.KeyThreshold, "t", domain.DefaultThreshold,
		fmt.Sprintf("threshold %d-%d (lower = darker, higher = lighter)", domain.MinThreshold, domain.MaxThreshold))
	convertCmd.Flags().StringP(config.KeyOutput, "o", domain.ArchiveName, "archive path, or a directory to write "+domain.ArchiveName+" into")
	convertCmd.Flags().String(config.KeyTempDir, "", "parent directory for temporary files (default: OS temp dir)")
	convertCmd.Flags().String(config.KeyReport, "", "write a YAML run report to this path")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(args) == 0 {
		return domain.NoInputError("no input: pass at least one PDF file", nil)
	}

	docs := converter.LoadFiles(args)

	dest, err := archivePath(cfg.Output)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".bw_pdfs-*.zip.tmp")
	if err != nil {
		return domain.IOError("failed to create archive", err)
	}
	tmpPath := tmp.Name()
	delivered := false
	defer func() {
		if !delivered {
			os.Remove(tmpPath)
		}
	}()

	view := ui.NewBatchView(ui.IsTerminal() && !ui.Verbose())
	defer view.Stop()

	service := convert.New(pdf.DefaultDPI, logger)
	result, runErr := service.Run(ctx, convert.Request{
		Documents: docs,
		Threshold: cfg.Threshold,
		TempDir:   cfg.TempDir,
		Archive:   tmp,
		OnEvent:   view.Handle,
	})
	view.Stop()

	if err := tmp.Close(); err != nil && runErr == nil {
		runErr = domain.IOError("failed to finish archive", err)
	}
	if runErr == nil {
		if err := os.Rename(tmpPath, dest); err != nil {
			runErr = domain.IOError(fmt.Sprintf("failed to deliver archive to %s", dest), err)
		} else {
			delivered = true
		}
	}

	if result != nil {
		if cfg.Report != "" {
			archive := ""
			if delivered {
				archive = dest
			}
			if err := report.FromResult(result, archive).WriteFile(cfg.Report); err != nil {
				ui.Warning("Could not write report: %v", err)
			}
		}
		printSummary(result)
	}

	if runErr != nil {
		return runErr
	}

	ui.Newline()
	ui.Success("%s", view.Completion())
	ui.Success("Archive saved to: %s", dest)
	return nil
}

// archivePath resolves the --output value. An existing directory, or a
// path ending in a separator, receives the default archive name.
func archivePath(output string) (string, error) {
	if strings.HasSuffix(output, "/") || strings.HasSuffix(output, string(filepath.Separator)) {
		if err := os.MkdirAll(output, 0o755); err != nil {
			return "", domain.IOError(fmt.Sprintf("failed to create %s", output), err)
		}
		return filepath.Join(output, domain.ArchiveName), nil
	}

	info, err := os.Stat(output)
	if err == nil && info.IsDir() {
		return filepath.Join(output, domain.ArchiveName), nil
	}
	if err != nil && !os.IsNotExist(err) {
		return "", domain.IOError(fmt.Sprintf("cannot access %s", output), err)
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", domain.IOError(fmt.Sprintf("failed to create %s", dir), err)
		}
	}
	return output, nil
}

func printSummary(result *domain.BatchResult) {
	ui.Section("Summary")

	rows := make([][]string, 0, len(result.Outputs)+len(result.Failures))
	for _, out := range result.Outputs {
		rows = append(rows, []string{out.Source, "ok", out.ArchiveName, strconv.Itoa(out.Pages), ui.FormatBytes(out.Bytes)})
	}
	for _, f := range result.Failures {
		rows = append(rows, []string{f.Source, "failed (" + string(f.Stage) + ")", "-", "-", "-"})
	}
	ui.Table([]string{"Input", "Status", "Output", "Pages", "Size"}, rows)

	ui.Newline()
	ui.KeyValue("Threshold", strconv.Itoa(result.Threshold))
	if !result.FinishedAt.IsZero() {
		ui.KeyValue("Duration", ui.FormatDuration(result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond)))
	}
	for _, f := range result.Failures {
		ui.Error("%s: %v", f.Source, f.Err)
	}
}

package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spherical/pdf-bw/cmd/pdfbw/ui"
	"github.com/spherical/pdf-bw/internal/config"
	"github.com/spherical/pdf-bw/internal/observability"
)

var (
	v      = config.New()
	cfg    *config.Config
	logger *observability.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pdfbw",
	Short: "pdfbw - convert PDFs to high-contrast black & white",
	Long: `pdfbw renders every page of each input PDF at 300 DPI, applies a global
black/white threshold, reassembles the pages into a new PDF per input and
bundles all results into one ZIP archive.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadDotEnv()
		if err := bindFlags(v, cmd); err != nil {
			return err
		}

		loaded, err := config.Load(v)
		if err != nil {
			return err
		}
		cfg = loaded

		ui.InitUI(cfg.NoColor, cfg.Verbose)
		logger = observability.NewLogger(cfg.LogConfig())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP(config.KeyVerbose, "v", false, "enable verbose output and debug logs")
	rootCmd.PersistentFlags().Bool(config.KeyNoColor, false, "disable colored output")
	rootCmd.PersistentFlags().String(config.KeyLogLevel, "info", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().String(config.KeyLogFormat, "console", "log format (console or json)")
}

// bindFlags binds every flag of cmd, inherited ones included, to the viper
// key of the same name. Unset flags fall back to env and defaults.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	return v.BindPFlags(cmd.Flags())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

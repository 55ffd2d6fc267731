package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/browserify/uglifyify/pkg/logging"
	"github.com/browserify/uglifyify/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// RootCmd is the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "uglifyify",
	Short: "Uglifyify minifies JavaScript files and keeps their source maps",
	Long: `Uglifyify runs each file through a minifier, strips the minifier's placeholder
source map reference and appends an inline source map pointing at the original file.
Files can be skipped with ignore globs and extension filters; JSON files are never minified.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogger,
}

var (
	// v holds settings from flags and UGLIFYIFY_* environment variables.
	v = viper.New()

	logger = zap.NewNop()
)

func init() {
	RootCmd.PersistentFlags().String("config", "", "YAML or JSON file with minifier options")
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	v.SetEnvPrefix("UGLIFYIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(RootCmd.PersistentFlags()); err != nil {
		panic(fmt.Sprintf("bind root flags: %v", err))
	}
}

func setupLogger(cmd *cobra.Command, _ []string) error {
	l, err := logging.Setup(logging.Config{
		AppName:    "uglifyify",
		AppVersion: version.Version,
		Verbose:    v.GetBool("verbose"),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	return nil
}

// Execute runs the root command. The returned logger is the one built for the
// run, so the caller can flush it.
func Execute(ctx context.Context) (*zap.Logger, error) {
	err := RootCmd.ExecuteContext(ctx)
	return logger, err
}

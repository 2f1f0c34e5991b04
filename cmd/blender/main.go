package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gcbaptista/go-recommendation-blender/config"
)

var version = "dev"

// cli holds the flag values and shared state of one invocation
type cli struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	verbose    bool

	externalPath string
	forkedPath   string
	forkedLimit  int
	resultLimit  int

	logger *zap.Logger
}

func newCLI(stdout, stderr io.Writer) *cli {
	return &cli{stdout: stdout, stderr: stderr}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "blender",
		Short: "Blend forked and external recommendation files",
		Long: `blender merges two recommendation files line by line.

Each line has the form key:v1,v2,...,vN. For line i the first forked values
are placed in front, followed by the external values they do not already
contain, and the result is truncated.

Run without a subcommand to blend results-filled-20.txt with
all_unwatched_sources.txt and print the merged lines to stdout.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.logger != nil {
				return nil
			}
			cfg := zap.NewProductionConfig()
			if c.verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
		RunE: c.runBlendCmd,
	}
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Config file (default: blender.yml in the working directory, if present)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&c.externalPath, "external", config.DefaultExternalPath, "External recommendations file")
	root.PersistentFlags().StringVar(&c.forkedPath, "forked", config.DefaultForkedPath, "Forked recommendations file")
	root.PersistentFlags().IntVar(&c.forkedLimit, "forked-limit", config.DefaultForkedLimit, "Forked values placed in front of each line")
	root.PersistentFlags().IntVar(&c.resultLimit, "limit", config.DefaultResultLimit, "Maximum values per merged line")

	root.AddCommand(c.blendCmd(), c.serveCmd(), c.versionCmd())
	return root
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the blender version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "blender %s\n", version)
			return err
		},
	}
}

// loadSettings resolves configuration: flags over config file over defaults
func (c *cli) loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	var (
		settings *config.Settings
		err      error
	)
	if c.configPath != "" {
		settings, err = config.LoadFile(c.configPath)
	} else {
		settings, err = config.Load(".")
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("external") {
		settings.Blend.ExternalPath = c.externalPath
	}
	if flags.Changed("forked") {
		settings.Blend.ForkedPath = c.forkedPath
	}
	if flags.Changed("forked-limit") {
		settings.Blend.ForkedLimit = c.forkedLimit
	}
	if flags.Changed("limit") {
		settings.Blend.ResultLimit = c.resultLimit
	}
	return settings, nil
}

func main() {
	if err := newCLI(os.Stdout, os.Stderr).rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "blender: %v\n", err)
		os.Exit(1)
	}
}

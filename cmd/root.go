package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/x0000ff/pocket-tags/config"
	"github.com/x0000ff/pocket-tags/pocket"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// SetVersion records build information shown by the version command.
func SetVersion(v, built string) {
	version = v
	buildTime = built
}

// app carries what PersistentPreRunE prepared for the subcommands.
type app struct {
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger zerolog.Logger
	client *pocket.Client
}

// NewRootCmd builds the pockettags command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "pockettags",
		Short: "Authorize against Pocket and summarize the tags of saved items",
		Long: `pockettags walks through Pocket's authorization flow and prints how
many saved items carry each tag.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./pockettags.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newAuthCmd(a))
	rootCmd.AddCommand(newTagsCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initialize loads the configuration and creates the Pocket client
func (a *app) initialize(cmd *cobra.Command) error {
	if skipsInitialization(cmd) {
		return nil
	}

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return errors.WithMessage(err, "failed to load config")
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	a.cfg = cfg

	a.logger = setupLogger(cfg.Logging, cmd.ErrOrStderr())

	if cfg.Pocket.ConsumerKey == "" {
		a.logger.Warn().Msg("No consumer key configured, Pocket will reject requests")
	}

	a.client = pocket.NewClient(cfg.Pocket.ConsumerKey,
		pocket.WithBaseURL(cfg.Pocket.BaseURL),
		pocket.WithSiteURL(cfg.Pocket.SiteURL),
		pocket.WithTimeout(cfg.Pocket.Timeout),
		pocket.WithUserAgent("pockettags/"+version),
		pocket.WithLogger(a.logger),
	)

	return nil
}

// skipsInitialization reports whether cmd runs without config or client:
// version, help and completion (including its shell subcommands).
func skipsInitialization(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "version", "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return true
		}
	}
	return false
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	if cfg.Format == "json" {
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color,
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pockettags %s (built %s)\n", version, buildTime)
		},
	}
}

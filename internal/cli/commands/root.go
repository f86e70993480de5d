package commands

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/conduit-lang/vardump/internal/cli/ui"
	"github.com/conduit-lang/vardump/pkg/vardump"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile string
	sourceDir  string
	noSource   bool
	verbose    bool
	noColor    bool
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "vardump",
		Short: "Render Go values as interactive HTML debug trees",
		Long: color.CyanString(`vardump - Go value introspection

vardump walks any Go value and renders it as a collapsible HTML tree with
cycle detection, getters, iterators, doc comments and a copy-ready access
expression for every node.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				color.NoColor = true
			}
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "config file (default ./vardump.yml)")
	pf.StringVar(&flags.sourceDir, "source-dir", "", "directory packages are loaded from for doc comments and constants")
	pf.BoolVar(&flags.noSource, "no-source", false, "skip source discovery")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log engine diagnostics to stderr")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newDemoCommand(flags))
	rootCmd.AddCommand(newConfigCommand(flags))
	rootCmd.AddCommand(newServeCommand(flags))

	return rootCmd
}

// logger returns a development logger with --verbose and a no-op logger
// otherwise.
func (f *globalFlags) logger() *zap.Logger {
	if !f.verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// inspector builds an Inspector from the global flags plus opts.
func (f *globalFlags) inspector(opts ...vardump.Option) (*vardump.Inspector, error) {
	base := []vardump.Option{vardump.WithLogger(f.logger())}
	if f.configFile != "" {
		base = append(base, vardump.WithConfigFile(f.configFile))
	}
	if f.noSource {
		base = append(base, vardump.WithoutSource())
	} else if f.sourceDir != "" {
		base = append(base, vardump.WithSourceDir(f.sourceDir))
	}

	vd, err := vardump.New(append(base, opts...)...)
	if err != nil {
		return nil, &configError{err: err}
	}
	return vd, nil
}

// configError marks errors that Execute formats as configuration problems.
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the vardump version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			table := ui.NewKeyValueTable(cmd.OutOrStdout(), color.NoColor)
			table.AddRow("vardump version", Version)
			table.AddRow("Git commit", GitCommit)
			table.AddRow("Build date", BuildDate)
			table.AddRow("Go version", goVer)
			table.Render()
		},
	}
}

// Execute runs the root command
func Execute() error {
	return execute(NewRootCommand())
}

func execute(rootCmd *cobra.Command) error {
	if err := rootCmd.Execute(); err != nil {
		var cfgErr *configError
		if errors.As(err, &cfgErr) {
			fmt.Fprint(rootCmd.ErrOrStderr(), ui.ConfigError(cfgErr.Error(), color.NoColor))
			return err
		}
		ui.WriteError(rootCmd.ErrOrStderr(), ui.ErrorOptions{
			Level:        ui.ErrorLevelError,
			Problem:      err.Error(),
			HelpCommands: []string{"Usage: vardump --help"},
			NoColor:      color.NoColor,
		})
		return err
	}
	return nil
}

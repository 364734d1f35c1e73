// Package app wires configuration, the orchestrator and the presenter into
// the cmpnc command.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dchandan/cmpnc/internal/config"
	"github.com/dchandan/cmpnc/internal/dataset"
	apperrors "github.com/dchandan/cmpnc/internal/errors"
)

// Application represents the cmpnc application instance.
type Application struct {
	Opener    dataset.Opener
	Out       io.Writer
	ErrWriter io.Writer
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithOpener sets the dataset opener, for tests that compare in-memory
// datasets.
func WithOpener(o dataset.Opener) AppOption {
	return func(a *Application) { a.Opener = o }
}

// New creates a new Application writing results to out and diagnostics to
// errWriter.
func New(out, errWriter io.Writer, opts ...AppOption) *Application {
	app := &Application{Out: out, ErrWriter: errWriter}
	for _, opt := range opts {
		opt(app)
	}
	if app.Opener == nil {
		app.Opener = dataset.NetCDFOpener{}
	}
	return app
}

// Run executes the command line args (without the program name) and returns
// the process exit code.
func (a *Application) Run(ctx context.Context, args []string) int {
	code := apperrors.ExitSuccess
	root := a.newRootCommand(&code)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		var cfgErr apperrors.ConfigError
		if !errors.As(err, &cfgErr) {
			fmt.Fprintf(a.ErrWriter, "Run '%s --help' for usage.\n", root.CommandPath())
		}
		return apperrors.ExitErrorConfig
	}
	return code
}

func (a *Application) newRootCommand(code *int) *cobra.Command {
	root := &cobra.Command{
		Use:   "cmpnc",
		Short: "Compare two netCDF datasets within a floating-point tolerance",
		Long: `cmpnc checks whether two netCDF files hold the same scientific content:
identical dimensions, global attributes and variable sets, and variable data
equal within an absolute and relative tolerance. Variables along the
unlimited dimension are split across parallel workers.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.Out)
	root.SetErr(a.ErrWriter)
	root.SetVersionTemplate("{{.Name}} " + VersionString() + "\n")
	root.AddCommand(a.newCompareCommand(code), newVersionCommand())
	return root
}

func (a *Application) newCompareCommand(code *int) *cobra.Command {
	flags := config.Default()
	cmd := &cobra.Command{
		Use:   "compare <file1> <file2>",
		Short: "Compare two datasets",
		Example: `  cmpnc compare run1/out.nc run2/out.nc
  cmpnc compare -v -p 8 a.nc b.nc
  cmpnc compare --continue-on-error --report diff.json a.nc.gz b.nc.zst`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Resolve(cmd.Flags(), args)
			if err != nil {
				return err
			}
			*code = a.runCompare(cmd.Context(), cfg)
			return nil
		},
	}
	config.RegisterFlags(cmd.Flags(), &flags)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			PrintVersion(cmd.OutOrStdout())
		},
	}
}

// Main runs the application against the process environment.
func Main() int {
	return New(os.Stdout, os.Stderr).Run(context.Background(), os.Args[1:])
}

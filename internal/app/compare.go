package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dchandan/cmpnc/internal/cli"
	"github.com/dchandan/cmpnc/internal/config"
	apperrors "github.com/dchandan/cmpnc/internal/errors"
	"github.com/dchandan/cmpnc/internal/logging"
	"github.com/dchandan/cmpnc/internal/metrics"
	"github.com/dchandan/cmpnc/internal/orchestration"
	"github.com/dchandan/cmpnc/internal/ui"
)

// runCompare executes one comparison and returns the exit code.
func (a *Application) runCompare(ctx context.Context, cfg config.AppConfig) int {
	// Setup lifecycle (signals)
	ctx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	logger := logging.New(a.ErrWriter, cfg.LogOptions())
	palette := ui.NewPalette(a.Out, ui.ThemeByName(cfg.Theme), ui.ColorEnabled(a.Out, cfg.NoColor))
	presenter := cli.NewPresenter(a.Out, palette, cli.PresentationOptions{
		Verbose: cfg.Verbose,
		Summary: cfg.Summary,
	})

	opts := []orchestration.Option{
		orchestration.WithLogger(logger),
		orchestration.WithObserver(presenter),
	}
	// Choose progress reporter; the spinner only draws on a terminal.
	if cfg.Progress && ui.IsTerminal(a.ErrWriter) {
		opts = append(opts, orchestration.WithProgress(cli.CLIProgressReporter{}, a.ErrWriter))
	}
	var recorder *metrics.Recorder
	if cfg.MetricsFile != "" {
		recorder = metrics.NewRecorder()
		opts = append(opts, orchestration.WithRecorder(recorder))
	}

	logger.Debug("starting comparison",
		logging.String("file1", cfg.Files[0]),
		logging.String("file2", cfg.Files[1]),
		logging.Int("parallelism", cfg.Parallelism),
		logging.Bool("continue_on_error", cfg.ContinueOnError),
	)
	report, err := orchestration.New(a.Opener, cfg.ToOptions(), opts...).Run(ctx, cfg.Files[0], cfg.Files[1])

	code := apperrors.ExitSuccess
	if err != nil {
		code = presenter.HandleError(err, a.ErrWriter)
	} else {
		presenter.DisplayResult(report)
		if !report.Pass() {
			code = apperrors.ExitFailure
		}
	}

	if recorder != nil {
		if werr := recorder.WriteTextfile(cfg.MetricsFile); werr != nil {
			logger.Error("writing metrics failed", werr, logging.String("path", cfg.MetricsFile))
			fmt.Fprintf(a.ErrWriter, "Error: %v\n", werr)
			code = max(code, apperrors.ExitFailure)
		}
	}
	if werr := cli.WriteReport(cfg.ReportFile, report, err); werr != nil {
		logger.Error("writing report failed", werr, logging.String("path", cfg.ReportFile))
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", werr)
		code = max(code, apperrors.ExitFailure)
	}
	return code
}

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sangkips/fixdesk-api/internal/application/service"
	"github.com/sangkips/fixdesk-api/internal/domain/entity"
)

// Exit codes for posctl.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the job ran but some sessions failed
	ExitCommandError = 2 // bad flags, no database, ...
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// GetExitCode extracts the exit code from an error.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// DailyCloser runs the end-of-day sweep.
type DailyCloser interface {
	AutoDailyClose(ctx context.Context) (*service.AutoCloseResult, error)
}

// ReportGenerator refreshes a session's Z report.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, sessionID uuid.UUID) (*entity.DailyReport, error)
}

// ReportExporter renders a stored Z report.
type ReportExporter interface {
	PDF(ctx context.Context, sessionID uuid.UUID) ([]byte, *entity.DailyReport, error)
}

// Backend is what the commands operate on.
type Backend struct {
	Closer  DailyCloser
	Reports ReportGenerator
	Exports ReportExporter
}

// Opener connects a Backend. The returned func releases it.
type Opener func(ctx context.Context) (*Backend, func(), error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "text"
	open   Opener
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the posctl root command.
func NewRootCommand(open Opener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "posctl",
		Short: "posctl - POS maintenance jobs",
		Long:  "Operational commands for the POS engine: end-of-day close and Z reports.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewCloseDayCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))

	return cmd
}

func (o *RootOptions) backend(ctx context.Context) (*Backend, func(), error) {
	b, release, err := o.open(ctx)
	if err != nil {
		return nil, nil, &ExitError{Code: ExitCommandError, Message: "failed to connect", Err: err}
	}
	return b, release, nil
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

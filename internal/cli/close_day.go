package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sangkips/fixdesk-api/internal/application/service"
)

// NewCloseDayCommand creates the close-day command.
func NewCloseDayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "close-day",
		Short: "Close every open register session of a past or current business day",
		Long: `Run the end-of-day sweep now. Every OPEN session dated today or earlier is
closed with its expected cash as the counted cash and gets a final Z report.

Exit codes:
  0 - all sessions closed
  1 - some sessions failed (see output)
  2 - command error`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCloseDay(cmd.Context(), rootOpts, cmd.OutOrStdout())
		},
	}
}

func runCloseDay(ctx context.Context, opts *RootOptions, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	b, release, err := opts.backend(ctx)
	if err != nil {
		return err
	}
	defer release()

	result, err := b.Closer.AutoDailyClose(ctx)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "daily close failed", Err: err}
	}

	if err := printResult(w, opts.Format, result, func(w io.Writer) { printCloseResult(w, result) }); err != nil {
		return err
	}
	if len(result.Failed) > 0 {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d session(s) failed to close", len(result.Failed))}
	}
	return nil
}

func printCloseResult(w io.Writer, result *service.AutoCloseResult) {
	printf(w, "closed: %d  skipped: %d  failed: %d\n", len(result.Closed), result.Skipped, len(result.Failed))
	for _, id := range result.Closed {
		printf(w, "  closed  %s\n", id)
	}
	for _, f := range result.Failed {
		printf(w, "  failed  %s: %s\n", f.SessionID, f.Error)
	}
}

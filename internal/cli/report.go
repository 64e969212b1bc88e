package cli

import (
	"context"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"github.com/sangkips/fixdesk-api/internal/domain/repository"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Tenant  string
	Session string
	Output  string // PDF path; empty prints the totals
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the Z report of a register session",
		Long: `Recompute a session's daily report and print it, or write it as PDF.

Examples:
  posctl report --tenant <uuid> --session <uuid>
  posctl report --tenant <uuid> --session <uuid> --pdf z-report.pdf
  posctl report --tenant <uuid> --session <uuid> --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Tenant, "tenant", "", "tenant id (required)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "register session id (required)")
	cmd.Flags().StringVar(&opts.Output, "pdf", "", "write the report as PDF to this path")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func runReport(ctx context.Context, opts *ReportOptions, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	tenantID, err := uuid.Parse(opts.Tenant)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "invalid --tenant", Err: err}
	}
	sessionID, err := uuid.Parse(opts.Session)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "invalid --session", Err: err}
	}
	ctx = repository.WithTenant(ctx, tenantID)

	b, release, err := opts.backend(ctx)
	if err != nil {
		return err
	}
	defer release()

	report, err := b.Reports.GenerateReport(ctx, sessionID)
	if err != nil {
		return &ExitError{Code: ExitFailure, Message: "failed to generate report", Err: err}
	}

	if opts.Output != "" {
		data, _, err := b.Exports.PDF(ctx, sessionID)
		if err != nil {
			return &ExitError{Code: ExitFailure, Message: "failed to render report", Err: err}
		}
		if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
			return &ExitError{Code: ExitCommandError, Message: "failed to write " + opts.Output, Err: err}
		}
		printf(w, "wrote %s\n", opts.Output)
		return nil
	}

	return printResult(w, opts.Format, report, func(w io.Writer) { printReport(w, report) })
}

func printReport(w io.Writer, r *entity.DailyReport) {
	state := "provisional"
	if r.IsFinal {
		state = "final"
	}
	printf(w, "Z report %s (%s)\n", r.BusinessDate.Format("2006-01-02"), state)
	printf(w, "  revenue     %12s\n", r.TotalRevenue.StringFixed(2))
	printf(w, "  cost        %12s\n", r.TotalCost.StringFixed(2))
	printf(w, "  profit      %12s\n", r.TotalProfit.StringFixed(2))
	printf(w, "  discounts   %12s\n", r.TotalDiscount.StringFixed(2))
	printf(w, "  refunds     %12s\n", r.RefundTotal.StringFixed(2))
	printf(w, "  cash        %12s\n", r.CashTotal.StringFixed(2))
	printf(w, "  card        %12s\n", r.CardTotal.StringFixed(2))
	printf(w, "  transfer    %12s\n", r.TransferTotal.StringFixed(2))
	printf(w, "  expected    %12s\n", r.ExpectedCash.StringFixed(2))
	printf(w, "  receipts %d  refunds %d  voided %d\n", r.ReceiptCount, r.RefundCount, r.VoidedCount)
}

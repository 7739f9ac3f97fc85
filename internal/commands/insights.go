package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"expensify/internal/cli"
	"expensify/internal/insights"
)

func newInsightsCommand(root *rootOptions) *cobra.Command {
	var (
		userID int64
		month  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Print a user's monthly insights report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := cli.Bootstrap(root.envFiles...)
			if err != nil {
				return err
			}

			res, err := cli.OpenStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer res.Cleanup()

			svc := insights.NewService(res.Store, insights.WithFetchTimeout(cfg.FetchTimeout))
			report, err := svc.ComputeInsights(cmd.Context(), userID, month)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return printReport(out, month, report)
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user id (required)")
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("month")

	return cmd
}

func printReport(w io.Writer, month string, r insights.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	top := "-"
	if r.TopCategory != nil {
		top = *r.TopCategory
		if top == "" {
			top = "(uncategorized)"
		}
	}

	fmt.Fprintf(tw, "Month\t%s\n", month)
	fmt.Fprintf(tw, "Total spent\t%s\n", r.TotalSpent)
	fmt.Fprintf(tw, "Highest expense\t%s\n", r.HighestExpense)
	fmt.Fprintf(tw, "Top category\t%s\n", top)
	fmt.Fprintf(tw, "Average daily\t%s\n", r.AverageDaily)

	if len(r.CategoryBreakdown) > 0 {
		fmt.Fprintln(tw, "\nCategory\tTotal")
		for _, c := range r.CategoryBreakdown {
			fmt.Fprintf(tw, "%s\t%s\n", c.Category, c.Value)
		}
	}
	if len(r.DailyTrends) > 0 {
		fmt.Fprintln(tw, "\nDate\tTotal")
		for _, d := range r.DailyTrends {
			fmt.Fprintf(tw, "%s\t%s\n", d.Date, d.Amount)
		}
	}
	return tw.Flush()
}

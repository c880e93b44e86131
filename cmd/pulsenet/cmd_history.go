package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/db47h/pulsenet/internal/history"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [FILE]",
		Short: "List recorded runs",
		Long: `List the runs recorded in the history ledger, most recent first.

If FILE is given, only the runs of the network it describes are listed.
Runs are recorded when the --record flag is set or history is enabled in
the configuration.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")

			f := history.Filter{Limit: limit}
			if len(args) > 0 {
				specs, err := loadNetlist(cmd, args[0])
				if err != nil {
					return err
				}
				if f.Digest, err = history.Digest(specs); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			l, err := history.Open(ctx, e.cfg.History.Path)
			if err != nil {
				return err
			}
			defer l.Close()
			runs, err := l.List(ctx, f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if e.jsonOut {
				if runs == nil {
					runs = []history.Run{}
				}
				return writeJSON(out, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTIME\tSOURCE\tDIGEST\tMODE\tDETAIL\tRESULT")
			for _, r := range runs {
				detail := fmt.Sprintf("presses=%d", r.Presses)
				if r.Mode == history.ModeExtrapolate {
					detail = fmt.Sprintf("target=%s method=%s simulated=%d", r.Target, r.Method, r.Simulated)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n",
					r.ID, r.Time.Local().Format(time.DateTime), r.Source, r.Digest, r.Mode, detail, r.Result)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntP("limit", "l", 20, "Maximum number of runs to list (0: all)")
	return cmd
}

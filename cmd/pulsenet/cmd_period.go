package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/db47h/pulsenet"
	"github.com/db47h/pulsenet/internal/history"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newPeriodCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "period FILE",
		Short: "Find the first press during which a module receives a Low pulse",
		Long: `Find the first button press during which the target module receives a
Low pulse.

The target must be fed by a single conjunction, the gate, or be a
conjunction itself. The periods at which the gate inputs send High pulses
are detected by simulation and the answer is computed from them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			target := e.cfg.Simulation.Target
			if cmd.Flags().Changed("target") {
				target, _ = cmd.Flags().GetString("target")
			}
			opts := &pulsenet.PeriodOptions{
				MaxPresses: e.cfg.Simulation.MaxPresses,
				MinCycles:  e.cfg.Simulation.MinCycles,
				Logger:     e.log,
			}
			if cmd.Flags().Changed("max-presses") {
				opts.MaxPresses, _ = cmd.Flags().GetUint64("max-presses")
			}
			if cmd.Flags().Changed("min-cycles") {
				opts.MinCycles, _ = cmd.Flags().GetInt("min-cycles")
			}
			verbose, _ := cmd.Flags().GetBool("verbose")

			specs, n, err := loadNetwork(cmd, args[0])
			if err != nil {
				return err
			}
			r, err := n.DetectPeriods(target, opts)
			if err != nil {
				return errors.WithMessagef(err, "%s: target %q", args[0], target)
			}

			if err := e.record(cmd, specs, &history.Run{
				Source:    args[0],
				Mode:      history.ModeExtrapolate,
				Target:    target,
				Method:    r.Method.String(),
				Simulated: r.Simulated,
				Result:    r.Press,
			}); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case e.jsonOut:
				return writeJSON(out, r)
			case verbose:
				fmt.Fprintf(out, "target:    %s\ngate:      %s\nmethod:    %v\nsimulated: %d\n\n", r.Target, r.Gate, r.Method, r.Simulated)
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "FEEDER\tOFFSET\tPERIOD\tPRESSES")
				for i := range r.Feeders {
					f := &r.Feeders[i]
					fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", f.Name, f.Offset(), f.Period, joinPresses(f.Presses))
				}
				tw.Flush()
				fmt.Fprintf(out, "\npress: %d\n", r.Press)
			default:
				fmt.Fprintln(out, r.Press)
			}
			return nil
		},
	}

	cmd.Flags().StringP("target", "t", "", "Target module (default from config, rx)")
	cmd.Flags().Uint64("max-presses", 0, "Maximum number of presses to simulate (0: proportional to the network size)")
	cmd.Flags().Int("min-cycles", 0, "Consecutive equal intervals needed to accept a period (default from config, 2)")
	cmd.Flags().BoolP("verbose", "v", false, "Print the period report")
	return cmd
}

func joinPresses(ps []uint64) string {
	const maxShown = 8
	var b strings.Builder
	for i, p := range ps {
		if i == maxShown {
			fmt.Fprintf(&b, " ... (%d more)", len(ps)-maxShown)
			break
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprint(&b, p)
	}
	return b.String()
}

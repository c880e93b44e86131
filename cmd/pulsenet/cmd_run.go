package main

import (
	"context"
	"fmt"
	"os"

	"github.com/db47h/pulsenet"
	"github.com/db47h/pulsenet/internal/history"
	"github.com/db47h/pulsenet/internal/logging"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type runResult struct {
	Presses int    `json:"presses"`
	Low     uint64 `json:"low"`
	High    uint64 `json:"high"`
	Product uint64 `json:"product"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Count the pulses sent over a number of button presses",
		Long: `Press the button of the network described in FILE a number of times and
print the product of the total Low and High pulse counts.

Use "-" to read the netlist from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			presses := e.cfg.Simulation.Presses
			if cmd.Flags().Changed("presses") {
				presses, _ = cmd.Flags().GetInt("presses")
			}
			if presses < 0 {
				return errors.Errorf("invalid number of presses %d", presses)
			}
			tracePath, _ := cmd.Flags().GetString("trace")
			verbose, _ := cmd.Flags().GetBool("verbose")

			specs, n, err := loadNetwork(cmd, args[0])
			if err != nil {
				return err
			}

			var c pulsenet.Counts
			if tracePath != "" {
				c, err = tracePresses(cmd.Context(), e, n, presses, tracePath)
				if err != nil {
					return err
				}
			} else {
				c = pulsenet.BulkCount(n, presses)
			}
			e.log.Debug("bulk count", "presses", presses, "low", c.Low, "high", c.High)

			if err := e.record(cmd, specs, &history.Run{
				Source:  args[0],
				Mode:    history.ModeBulk,
				Presses: uint64(presses),
				Low:     c.Low,
				High:    c.High,
				Result:  c.Product(),
			}); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case e.jsonOut:
				return writeJSON(out, runResult{presses, c.Low, c.High, c.Product()})
			case verbose:
				fmt.Fprintf(out, "presses: %d\nlow:     %d\nhigh:    %d\nproduct: %d\n", presses, c.Low, c.High, c.Product())
			default:
				fmt.Fprintln(out, c.Product())
			}
			return nil
		},
	}

	cmd.Flags().IntP("presses", "n", 0, "Number of button presses (default from config, 1000)")
	cmd.Flags().String("trace", "", "Write every delivered pulse as JSON lines to this file")
	cmd.Flags().BoolP("verbose", "v", false, "Print the Low and High counts")
	return cmd
}

// tracePresses is like pulsenet.BulkCount but writes every pulse to the file
// at path.
func tracePresses(ctx context.Context, e *env, n *pulsenet.Network, presses int, path string) (pulsenet.Counts, error) {
	f, err := os.Create(path)
	if err != nil {
		return pulsenet.Counts{}, errors.Wrap(err, "create trace file")
	}
	defer f.Close()

	var (
		c     pulsenet.Counts
		trace []pulsenet.Pulse
		pl    = logging.NewPulseLog(f)
	)
	for i := 0; i < presses; i++ {
		var pc pulsenet.Counts
		pc, trace = n.PressTrace(trace[:0])
		press := n.Presses()
		for _, p := range trace {
			pl.Log(logging.PulseEvent{
				Press: press,
				From:  n.Name(p.From),
				To:    n.Name(p.To),
				Level: p.Level.String(),
			})
		}
		e.log.Log(ctx, logging.LevelTrace, "press", "press", press, "low", pc.Low, "high", pc.High)
		c = c.Add(pc)
	}
	if err := pl.Err(); err != nil {
		return c, err
	}
	return c, errors.Wrap(f.Close(), "close trace file")
}

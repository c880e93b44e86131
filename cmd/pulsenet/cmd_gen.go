package main

import (
	"github.com/db47h/pulsenet"
	"github.com/db47h/pulsenet/netlib"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a network of binary counters",
		Long: `Generate the netlist of a network with one binary counter per period.
The counters feed the conjunction gate, which feeds output.

  pulsenet gen --period 3761 --period 3767 > input.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			periods, _ := cmd.Flags().GetIntSlice("period")
			gate, _ := cmd.Flags().GetString("gate")
			output, _ := cmd.Flags().GetString("output")
			if len(periods) == 0 {
				return errors.New("at least one --period is required")
			}
			for _, p := range periods {
				if p < 1 {
					return errors.Errorf("invalid period %d", p)
				}
			}
			if gate == "" || output == "" {
				return errors.New("gate and output names must not be empty")
			}
			return pulsenet.Format(cmd.OutOrStdout(), netlib.Machine(periods, gate, output))
		},
	}

	cmd.Flags().IntSliceP("period", "p", nil, "Counter period (repeatable)")
	cmd.Flags().String("gate", "gate", "Name of the gate conjunction")
	cmd.Flags().String("output", "rx", "Name of the module fed by the gate")
	return cmd
}

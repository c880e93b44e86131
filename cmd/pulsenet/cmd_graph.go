package main

import (
	"fmt"

	"github.com/db47h/pulsenet/internal/dot"
	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph FILE",
		Short: "Visualize the wiring of a network",
		Long:  `Output the wiring of the network described in FILE in DOT (Graphviz) or JSON format.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("format")
			if e.jsonOut && !cmd.Flags().Changed("format") {
				name = string(dot.FormatJSON)
			}
			format, err := dot.ParseFormat(name)
			if err != nil {
				return err
			}

			_, n, err := loadNetwork(cmd, args[0])
			if err != nil {
				return err
			}

			switch format {
			case dot.FormatDOT:
				fmt.Fprint(cmd.OutOrStdout(), dot.RenderDOT(n))
			case dot.FormatJSON:
				return writeJSON(cmd.OutOrStdout(), dot.RenderJSON(n))
			}
			return nil
		},
	}

	cmd.Flags().String("format", "dot", "Output format: dot or json")
	return cmd
}

// Command pulsenet simulates pulse networks.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/db47h/pulsenet"
	"github.com/db47h/pulsenet/internal/config"
	"github.com/db47h/pulsenet/internal/history"
	"github.com/db47h/pulsenet/internal/logging"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pulsenet:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pulsenet",
		Short: "Pulse network simulator",
		Long: `pulsenet simulates networks of flip-flops and conjunctions exchanging
Low and High pulses.

It counts the pulses sent over many button presses and extrapolates the
first press during which a module receives a Low pulse.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.pulsenet/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: error, warn, info, debug or trace")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().Bool("record", false, "Record the run in the history ledger")

	rootCmd.AddCommand(
		newRunCmd(),
		newPeriodCmd(),
		newGraphCmd(),
		newGenCmd(),
		newHistoryCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// env holds the settings shared by all commands.
type env struct {
	cfg     *config.Config
	log     *slog.Logger
	jsonOut bool
}

// setup loads the configuration and applies the global flags.
func setup(cmd *cobra.Command) (*env, error) {
	var (
		cfg *config.Config
		err error
	)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if cmd.Flags().Changed("record") {
		cfg.History.Enabled, _ = cmd.Flags().GetBool("record")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	jsonOut, _ := cmd.Flags().GetBool("json")
	return &env{
		cfg:     cfg,
		log:     logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr()),
		jsonOut: jsonOut,
	}, nil
}

// loadNetlist reads the netlist in file, or standard input if file is "-".
func loadNetlist(cmd *cobra.Command, file string) ([]pulsenet.ModuleSpec, error) {
	var r io.Reader = cmd.InOrStdin()
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, errors.Wrap(err, "open netlist")
		}
		defer f.Close()
		r = f
	}
	specs, err := pulsenet.Parse(r)
	if err != nil {
		return nil, errors.WithMessage(err, file)
	}
	return specs, nil
}

// loadNetwork builds the network described by the netlist in file.
func loadNetwork(cmd *cobra.Command, file string) ([]pulsenet.ModuleSpec, *pulsenet.Network, error) {
	specs, err := loadNetlist(cmd, file)
	if err != nil {
		return nil, nil, err
	}
	n, err := pulsenet.New(specs)
	if err != nil {
		return nil, nil, errors.WithMessage(err, file)
	}
	return specs, n, nil
}

// record adds r to the history ledger if recording is enabled.
func (e *env) record(cmd *cobra.Command, specs []pulsenet.ModuleSpec, r *history.Run) error {
	if !e.cfg.History.Enabled {
		return nil
	}
	digest, err := history.Digest(specs)
	if err != nil {
		return err
	}
	r.Digest = digest
	r.Modules = len(specs)

	ctx := cmd.Context()
	l, err := history.Open(ctx, e.cfg.History.Path)
	if err != nil {
		return err
	}
	defer l.Close()
	if err := l.Record(ctx, r); err != nil {
		return err
	}
	e.log.Debug("run recorded", "id", r.ID, "path", e.cfg.History.Path)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "encode JSON")
}

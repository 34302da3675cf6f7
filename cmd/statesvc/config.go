package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/vango-dev/statesvc/internal/config"
	"github.com/vango-dev/statesvc/internal/errors"
)

func configCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the statesvc configuration",
		Long: `Inspect the effective configuration or write a default statesvc.json.

The effective configuration merges, in order: built-in defaults, the config
file, STATESVC_* environment variables and command-line flags.`,
	}

	cmd.AddCommand(configShowCmd(g), configInitCmd())

	return cmd
}

func configShowCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeConfig(cmd.OutOrStdout(), g.cfg)
		},
	}
}

func configInitCmd() *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a statesvc.json with default values.

Examples:
  statesvc config init
  statesvc config init --path=conf/statesvc.json --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New("E120").
					WithDetailf("%s already exists", path).
					WithSuggestion("Pass --force to overwrite it")
			}
			if err := config.New().SaveTo(path); err != nil {
				return err
			}
			success("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", config.ConfigFileName, "Destination file")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}

func writeConfig(w io.Writer, cfg *config.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

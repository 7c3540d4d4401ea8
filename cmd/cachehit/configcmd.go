package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var configOpts struct {
	settingsFlags

	out string
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print or save the effective configuration.",
	Long: "`config` resolves the defaults, the config file, .env files, " +
		"CACHEHIT_* variables and flags, and prints the resulting JSON. " +
		"`config --out cachehit.json` saves it instead.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := configOpts.load(cmd)
		if err != nil {
			return err
		}

		if configOpts.out != "" {
			return cfg.SaveConfig(configOpts.out)
		}

		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configOpts.register(configCmd)
	configCmd.Flags().StringVar(&configOpts.out, "out", "", "write the config to this file")
}

// Package main provides the skirmish command line: it plays scripted encounters
// through the combat engine and inspects the condition library.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/skirmish/internal/config"
)

var (
	configPath string
	// v collects defaults, SKIRMISH_ environment, the config file and bound flags.
	v = config.NewViper()
)

var rootCmd = &cobra.Command{
	Use:   "skirmish",
	Short: "Tabletop combat resolution engine",
	Long:  `skirmish resolves attacks, damage, conditions and death saves for turn-based tabletop encounters.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			return nil
		}
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to configuration file")
	flags.String("log-level", "info", "minimum log level: debug, info, warn, error")
	flags.String("conditions-dir", "", "directory of condition YAML files; empty uses the built-in library")
	mustBind("logging.level", flags.Lookup("log-level"))
	mustBind("rules.conditions_dir", flags.Lookup("conditions-dir"))

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(conditionsCmd)
}

package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:           "vision-inspector",
		Short:         "Transformer inspections with an anomaly audit log",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cfgFile != "" {
				_ = os.Setenv("CONFIG_FILE", cfgFile)
			}
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (overrides CONFIG_FILE)")

	root.AddCommand(botCmd())
	root.AddCommand(newCmd())
	root.AddCommand(importCmd())
	root.AddCommand(anomaliesCmd())
	root.AddCommand(logCmd())

	if err := root.Execute(); err != nil {
		log.Fatalf("vision-inspector: %v", err)
	}
}

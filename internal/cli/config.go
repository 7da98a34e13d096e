// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

package cli

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/certnode/certnode-go/internal/config"
)

var configPath string

// configCmd prints the effective server configuration: defaults merged
// with the given file and CERTNODE_ environment overrides.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective server configuration",
	Long: `Resolve the receipt server configuration the same way
certnode-server does (defaults, then the config file, then CERTNODE_
environment variables) and print the result. Useful for checking what
a deployment will actually run with.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		printer := NewPrinter(globalOptions.OutputFormat, os.Stdout)
		if printer.JSON() {
			return printer.PrintJSON(cfg)
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		printer.Printf("%s", out)
		return nil
	},
}

func init() {
	configCmd.Flags().StringVarP(&configPath, "config", "c", "", "configuration file (optional)")
}

// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Options holds global CLI configuration shared by all commands.
type Options struct {
	// OutputFormat controls output formatting (text, json)
	OutputFormat string

	// Verbose enables verbose output on stderr
	Verbose bool
}

var globalOptions = &Options{}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "certnode",
	Short: "certnode CLI - sign, verify, and inspect tamper-evident receipts",
	Long: `certnode provides a command-line interface for working with
CertNode receipts: tamper-evident, signed envelopes attached to JSON
payloads.

Receipts are signed with ES256 (ECDSA P-256) or EdDSA (Ed25519) over a
deterministic canonicalization of the payload, and verified against a
JSON Web Key Set resolved by RFC 7638 thumbprint or key ID.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globalOptions.OutputFormat, "output", "o", "text",
		"output format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&globalOptions.Verbose, "verbose", "v", false,
		"verbose output")

	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(thumbprintCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(vectorsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func printVerbose(format string, args ...any) {
	if globalOptions.Verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

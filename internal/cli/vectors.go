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

	"github.com/certnode/certnode-go/pkg/conformance"
)

// vectorsCmd runs a conformance corpus directory.
var vectorsCmd = &cobra.Command{
	Use:   "vectors <dir>",
	Short: "Run a conformance corpus",
	Long: `Run every fixture in a directory through all available
verifier implementations (the native engine plus the go-jose and
golang-jwt backends) and report disagreements with the fixtures'
expected results.

Exits 0 when all implementations agree with every fixture, 1 on any
conformance mismatch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fixtures, err := conformance.LoadDir(args[0])
		if err != nil {
			return err
		}
		if len(fixtures) == 0 {
			return fmt.Errorf("no fixtures found in %s", args[0])
		}

		printVerbose("loaded %d fixture(s)", len(fixtures))
		report := conformance.Run(fixtures, conformance.DefaultVerifiers())

		printer := NewPrinter(globalOptions.OutputFormat, os.Stdout)
		if printer.JSON() {
			if err := printer.PrintJSON(report); err != nil {
				return err
			}
		} else {
			printer.Printf("fixtures: %d\n", report.Fixtures)
			for _, c := range report.Counts {
				printer.Printf("%s: valid %d/%d, invalid %d/%d\n",
					c.Implementation,
					c.ValidPassed, c.ValidPassed+c.ValidFailed,
					c.InvalidPassed, c.InvalidPassed+c.InvalidFailed)
			}
			for _, m := range report.Mismatches {
				printer.Printf("MISMATCH %s\n", m.String())
			}
		}

		if !report.OK() {
			os.Exit(1)
		}
		return nil
	},
}

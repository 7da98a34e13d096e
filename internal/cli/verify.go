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

	"github.com/certnode/certnode-go/pkg/receipt"
)

var (
	verifyReceiptSource string
	verifyJWKSSource    string
)

// verifyCmd verifies a receipt against a JWKS.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a receipt against a JWKS",
	Long: `Verify a receipt against a JSON Web Key Set. Both arguments
accept a file path or an inline JSON string; the JWKS additionally
accepts an http(s) URL.

Exits 0 when the receipt is valid, 1 when it is not.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadReceipt(verifyReceiptSource)
		if err != nil {
			return err
		}
		keys, err := loadKeySet(verifyJWKSSource)
		if err != nil {
			return err
		}

		printVerbose("verifying receipt with kid %s against %d key(s)", r.Kid, len(keys.Keys))

		result := receipt.Verify(r, keys)
		printer := NewPrinter(globalOptions.OutputFormat, os.Stdout)
		if printer.JSON() {
			if err := printer.PrintJSON(result); err != nil {
				return err
			}
		} else if result.OK {
			printer.Printf("receipt verification: VALID\n")
		} else {
			printer.Printf("receipt verification: INVALID\nreason: %s\n", result.Reason)
		}

		if !result.OK {
			// Distinguishable from usage errors; cobra prints nothing.
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyReceiptSource, "receipt", "r", "", "receipt file or JSON string (required)")
	verifyCmd.Flags().StringVarP(&verifyJWKSSource, "jwks", "k", "", "JWKS file, URL, or JSON string (required)")
	if err := verifyCmd.MarkFlagRequired("receipt"); err != nil {
		panic(fmt.Sprintf("cli: %v", err))
	}
	if err := verifyCmd.MarkFlagRequired("jwks"); err != nil {
		panic(fmt.Sprintf("cli: %v", err))
	}
}

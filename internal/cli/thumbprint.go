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
)

// thumbprintCmd prints the RFC 7638 thumbprint of every key in a JWKS.
var thumbprintCmd = &cobra.Command{
	Use:   "thumbprint <jwks>",
	Short: "Print key thumbprints for a JWKS",
	Long: `Compute the RFC 7638 SHA-256 thumbprint of every key in a
JSON Web Key Set. The argument accepts a file path, an http(s) URL, or
an inline JSON string. Keys outside the EC P-256 / OKP Ed25519 profile
are reported as unsupported.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := loadKeySet(args[0])
		if err != nil {
			return err
		}

		printer := NewPrinter(globalOptions.OutputFormat, os.Stdout)
		type entry struct {
			Index      int    `json:"index"`
			Kid        string `json:"kid,omitempty"`
			Thumbprint string `json:"thumbprint,omitempty"`
			Error      string `json:"error,omitempty"`
		}
		entries := make([]entry, 0, len(keys.Keys))
		for i := range keys.Keys {
			e := entry{Index: i, Kid: keys.Keys[i].Kid}
			thumb, err := keys.Keys[i].Thumbprint()
			if err != nil {
				e.Error = "unsupported key"
			} else {
				e.Thumbprint = thumb
			}
			entries = append(entries, e)
		}

		if printer.JSON() {
			return printer.PrintJSON(entries)
		}
		for _, e := range entries {
			if e.Error != "" {
				printer.Printf("key %d: %s\n", e.Index, e.Error)
				continue
			}
			printer.Printf("key %d: %s\n", e.Index, e.Thumbprint)
		}
		return nil
	},
}

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
	"strings"

	"github.com/spf13/cobra"

	"github.com/certnode/certnode-go/pkg/jwk"
)

var keygenAlgorithm string

// keygenCmd generates a private signing JWK.
var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a private signing JWK",
	Long: `Generate a fresh private JWK for receipt signing. The kid is
set to the key's RFC 7638 thumbprint. The JSON is written to stdout;
keep it secret.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			key *jwk.Key
			err error
		)
		switch strings.ToUpper(keygenAlgorithm) {
		case "ES256":
			key, err = jwk.GenerateES256()
		case "EDDSA":
			key, err = jwk.GenerateEd25519()
		default:
			return fmt.Errorf("unsupported algorithm %q (use ES256 or EdDSA)", keygenAlgorithm)
		}
		if err != nil {
			return err
		}
		return NewPrinter("json", os.Stdout).PrintJSON(key)
	},
}

func init() {
	keygenCmd.Flags().StringVarP(&keygenAlgorithm, "algorithm", "a", "ES256", "signature algorithm (ES256, EdDSA)")
}

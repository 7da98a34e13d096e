// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/certnode/certnode-go/pkg/jwk"
	"github.com/certnode/certnode-go/pkg/receipt"
)

var (
	signPayloadSource string
	signKeySource     string
)

// signCmd signs a JSON payload into a receipt.
var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign a JSON payload into a receipt",
	Long: `Canonicalize a JSON payload and sign it with a private JWK,
producing a complete receipt including the payload digest and receipt
ID. The key must be an EC P-256 or OKP Ed25519 private JWK, for
example one produced by "certnode keygen".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		payloadData, err := readSource(signPayloadSource)
		if err != nil {
			return err
		}
		var payload any
		if err := json.Unmarshal(payloadData, &payload); err != nil {
			return fmt.Errorf("invalid payload JSON: %w", err)
		}

		keyData, err := readSource(signKeySource)
		if err != nil {
			return err
		}
		key, err := jwk.Unmarshal(keyData)
		if err != nil {
			return err
		}

		signed, err := receipt.Sign(payload, key)
		if err != nil {
			return err
		}

		printVerbose("signed payload with kid %s", signed.Kid)
		return NewPrinter("json", os.Stdout).PrintJSON(signed)
	},
}

func init() {
	signCmd.Flags().StringVarP(&signPayloadSource, "payload", "p", "", "payload file or JSON string (required)")
	signCmd.Flags().StringVarP(&signKeySource, "key", "k", "", "private JWK file or JSON string (required)")
	if err := signCmd.MarkFlagRequired("payload"); err != nil {
		panic(fmt.Sprintf("cli: %v", err))
	}
	if err := signCmd.MarkFlagRequired("key"); err != nil {
		panic(fmt.Sprintf("cli: %v", err))
	}
}

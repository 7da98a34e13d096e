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

	"github.com/certnode/certnode-go/pkg/encoding"
	"github.com/certnode/certnode-go/pkg/jwks"
	"github.com/certnode/certnode-go/pkg/receipt"
	"github.com/spf13/cobra"
)

// inspectCmd describes a receipt or JWKS file without verifying it.
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Inspect a receipt or JWKS",
	Long: `Describe the structure of a receipt or a JSON Web Key Set.
The file type is detected from its members: a "keys" array means JWKS,
"protected" plus "signature" means receipt.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readSource(args[0])
		if err != nil {
			return err
		}

		var probe map[string]json.RawMessage
		if err := json.Unmarshal(data, &probe); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}

		printer := NewPrinter(globalOptions.OutputFormat, os.Stdout)
		switch {
		case probe["keys"] != nil:
			set, err := jwks.Parse(data)
			if err != nil {
				return err
			}
			return inspectJWKS(printer, set)
		case probe["protected"] != nil && probe["signature"] != nil:
			r, err := receipt.Unmarshal(data)
			if err != nil {
				return err
			}
			return inspectReceipt(printer, r)
		default:
			return fmt.Errorf("unrecognized document: expected a receipt or a JWKS")
		}
	},
}

func inspectJWKS(printer *Printer, set *jwks.Set) error {
	if printer.JSON() {
		return printer.PrintJSON(set)
	}
	printer.Printf("JWKS with %d key(s)\n", len(set.Keys))
	for i := range set.Keys {
		k := &set.Keys[i]
		printer.Printf("  key %d: kty=%s crv=%s kid=%s\n", i, k.Kty, k.Crv, k.Kid)
	}
	return nil
}

func inspectReceipt(printer *Printer, r *receipt.Receipt) error {
	var header receipt.Header
	headerErr := decodeHeader(r.Protected, &header)

	if printer.JSON() {
		out := map[string]any{
			"kid":         r.Kid,
			"receipt_id":  r.ReceiptID,
			"payload_jcs": r.PayloadJCSSHA256,
		}
		if headerErr == nil {
			out["header"] = header
		}
		return printer.PrintJSON(out)
	}

	printer.Printf("receipt\n")
	printer.Printf("  kid: %s\n", r.Kid)
	if headerErr == nil {
		printer.Printf("  alg: %s\n", header.Alg)
		printer.Printf("  typ: %s\n", header.Typ)
	} else {
		printer.Printf("  protected header: not decodable (%v)\n", headerErr)
	}
	if r.PayloadJCSSHA256 != "" {
		printer.Printf("  payload_jcs_sha256: %s\n", r.PayloadJCSSHA256)
	}
	if r.ReceiptID != "" {
		printer.Printf("  receipt_id: %s\n", r.ReceiptID)
	}
	return nil
}

func decodeHeader(protected string, header *receipt.Header) error {
	raw, err := encoding.DecodeBase64URL(protected)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, header)
}

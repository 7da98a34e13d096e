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
	"io"
)

// Printer renders command output as text or JSON.
type Printer struct {
	format string
	out    io.Writer
}

// NewPrinter creates a printer for the given format.
func NewPrinter(format string, out io.Writer) *Printer {
	return &Printer{format: format, out: out}
}

// JSON reports whether the printer is in JSON mode.
func (p *Printer) JSON() bool {
	return p.format == "json"
}

// PrintJSON writes v as indented JSON.
func (p *Printer) PrintJSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Printf writes formatted text output.
func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

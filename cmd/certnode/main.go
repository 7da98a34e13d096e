// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

package main

import (
	"fmt"
	"os"

	"github.com/certnode/certnode-go/internal/cli"
)

var (
	// Version information (set during build)
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = date
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

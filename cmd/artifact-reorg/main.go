// artifact-reorg - reorganise release archives for docker buildx
//
// artifact-reorg extracts platform release archives such as
// app-1.2.linux-armv6.tar.gz into the TARGETPLATFORM directory tree
// (linux/arm/v6) expected by multi-platform Dockerfiles.
//
// Copyright (c) 2025 John Mylchreest
// Licensed under the MIT License
package main

import (
	"os"

	"github.com/jmylchreest/artifact-reorg/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

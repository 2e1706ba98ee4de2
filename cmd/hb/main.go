// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sentinel-hb/hb/internal/cli"
	hblog "github.com/sentinel-hb/hb/log"
)

func main() {
	app := cli.NewApp()

	ctx := context.Background()
	if err := hblog.Configure(os.Getenv("HB_LOG_LEVEL")); err != nil {
		// An unrecognized level falls back to the default logger; not fatal.
		_ = err
	}

	err := app.Run(ctx, os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(cli.ExitCode(err))
}

// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// RuntimeCommand exposes runtime metric-name lookups against the registry's
// alias index (spec §4.1 "unknown metric in runtime lookup -> warning, not
// error").
func RuntimeCommand() *cli.Command {
	return &cli.Command{
		Name:  "runtime",
		Usage: "runtime registry lookups",
		Commands: []*cli.Command{
			runtimeResolveCommand(),
		},
	}
}

func runtimeResolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "resolve a raw metric name or alias to its canonical name",
		ArgsUsage: "<name>",
		Action: func(ctx context.Context, c *cli.Command) error {
			raw, err := requireArg(c, 0, "metric name")
			if err != nil {
				return err
			}
			reg, _, err := loadRegistry(c)
			if err != nil {
				return err
			}
			canonical := reg.Resolve(raw)
			if canonical == "" {
				fmt.Printf("unknown metric: %s\n", raw)
				return nil
			}
			fmt.Println(canonical)
			return nil
		},
	}
}

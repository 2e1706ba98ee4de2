// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// RunsCommand groups run registry inspection commands.
func RunsCommand() *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "run registry inspection",
		Commands: []*cli.Command{
			runsListCommand(),
		},
	}
}

func runsListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list recent runs",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 20},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			runs, err := openRunRegistry(c)
			if err != nil {
				return err
			}
			rows, err := runs.ListRecent(c.Int("limit"))
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println("no runs found")
				return nil
			}
			fmt.Println("run_id | status | program | subsystem | test_name | created_at")
			fmt.Println("-------+--------+---------+-----------+-----------+-----------")
			for _, r := range rows {
				fmt.Printf("%s | %s | %s | %s | %s | %s\n",
					r.RunID, r.Status, r.Program, r.Subsystem, r.TestName, r.CreatedAt)
			}
			return nil
		},
	}
}

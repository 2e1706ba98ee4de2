// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/sentinel-hb/hb/internal/apperr"
	"github.com/sentinel-hb/hb/internal/baseline"
)

// BaselineCommand groups the baseline governance workflow (spec §4.3):
// direct tagging, request/approve for governed tags, and listing.
func BaselineCommand() *cli.Command {
	return &cli.Command{
		Name:  "baseline",
		Usage: "baseline tag governance",
		Commands: []*cli.Command{
			baselineSetCommand(),
			baselineRequestCommand(),
			baselineApproveCommand(),
			baselineListCommand(),
		},
	}
}

func baselineSetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "directly set a baseline tag (ungoverned)",
		ArgsUsage: "<run-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tag", Value: "golden"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			runID, err := requireArg(c, 0, "run id")
			if err != nil {
				return err
			}
			reg, _, err := loadRegistry(c)
			if err != nil {
				return err
			}
			runs, err := openRunRegistry(c)
			if err != nil {
				return err
			}
			if err := runs.SetTag(c.String("tag"), runID, reg.Hash); err != nil {
				return err
			}
			fmt.Printf("baseline tag set: %s -> %s\n", c.String("tag"), runID)
			return nil
		},
	}
}

func baselineRequestCommand() *cli.Command {
	return &cli.Command{
		Name:      "request",
		Usage:     "open a governed baseline tagging request",
		ArgsUsage: "<run-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tag", Value: "golden"},
			&cli.StringFlag{Name: "requested-by", Required: true},
			&cli.StringFlag{Name: "reason"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			runID, err := requireArg(c, 0, "run id")
			if err != nil {
				return err
			}
			runs, err := openRunRegistry(c)
			if err != nil {
				return err
			}
			requestID, err := baseline.RequestTag(runs, runID, c.String("tag"), c.String("requested-by"), c.String("reason"))
			if err != nil {
				return err
			}
			fmt.Printf("baseline request opened: %s\n", requestID)
			return nil
		},
	}
}

func baselineApproveCommand() *cli.Command {
	return &cli.Command{
		Name:      "approve",
		Usage:     "record an approval for a baseline tagging request",
		ArgsUsage: "<request-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "approved-by", Required: true},
			&cli.StringFlag{Name: "reason"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			requestID, err := requireArg(c, 0, "request id")
			if err != nil {
				return err
			}
			policy, err := loadBaselinePolicy(c)
			if err != nil {
				return err
			}
			runs, err := openRunRegistry(c)
			if err != nil {
				return err
			}
			if err := baseline.Approve(runs, policy, requestID, c.String("approved-by"), c.String("reason")); err != nil {
				return err
			}
			fmt.Printf("approval recorded for request %s\n", requestID)
			return nil
		},
	}
}

func baselineListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list baseline tags",
		Action: func(ctx context.Context, c *cli.Command) error {
			runs, err := openRunRegistry(c)
			if err != nil {
				return err
			}
			tags, err := runs.ListTags()
			if err != nil {
				return apperr.Registry("baseline list", err)
			}
			if len(tags) == 0 {
				fmt.Println("no baseline tags found")
				return nil
			}
			fmt.Println("tag | run_id | registry_hash | created_at")
			fmt.Println("----+--------+---------------+-----------")
			for _, t := range tags {
				fmt.Printf("%s | %s | %s | %s\n", t.Tag, t.RunID, t.RegistryHash, t.CreatedAt)
			}
			return nil
		},
	}
}

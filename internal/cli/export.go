// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/sentinel-hb/hb/internal/apperr"
	"github.com/sentinel-hb/hb/internal/evidence"
)

// ExportCommand groups export operations; currently just evidence-pack
// (spec §4.7 "optionally archive as a single deflate-compressed archive").
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "export artifacts",
		Commands: []*cli.Command{
			exportEvidencePackCommand(),
		},
	}
}

func exportEvidencePackCommand() *cli.Command {
	return &cli.Command{
		Name:      "evidence-pack",
		Usage:     "bundle a run's report directory into a hashed, optionally zipped evidence pack",
		ArgsUsage: "<run-dir> <case-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "destination directory; defaults to evidence_<case-id>"},
			&cli.BoolFlag{Name: "zip", Usage: "also produce a single .zip archive"},
			&cli.StringFlag{Name: "code-version"},
			&cli.StringFlag{Name: "sbom-hash"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			runDir, err := requireArg(c, 0, "run directory")
			if err != nil {
				return err
			}
			caseID, err := requireArg(c, 1, "case id")
			if err != nil {
				return err
			}

			destDir := c.String("out")
			if destDir == "" {
				destDir = "evidence_" + caseID
			}

			artifacts, err := collectArtifacts(runDir)
			if err != nil {
				return err
			}

			manifest, err := evidence.BuildPack(destDir, caseID, c.String("code-version"), c.String("sbom-hash"), time.Now().UTC(), artifacts)
			if err != nil {
				return err
			}
			fmt.Printf("evidence pack: %s (%d artifacts)\n", destDir, len(manifest.Artifacts))

			if c.Bool("zip") {
				zipPath := destDir + ".zip"
				if err := evidence.Archive(destDir, zipPath); err != nil {
					return err
				}
				fmt.Printf("evidence archive: %s\n", zipPath)
			}
			return nil
		},
	}
}

func collectArtifacts(runDir string) (map[string][]byte, error) {
	entries, err := os.ReadDir(runDir)
	if err != nil {
		return nil, apperr.TransientIO("collectArtifacts", err)
	}

	artifacts := map[string][]byte{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(runDir, e.Name()))
		if err != nil {
			return nil, apperr.TransientIO("collectArtifacts", err)
		}
		artifacts[e.Name()] = content
	}
	return artifacts, nil
}

// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package evidence

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sentinel-hb/hb/internal/apperr"
	"github.com/sentinel-hb/hb/internal/telemetry"
)

// ManifestEntry is one artifact listed in manifest.json.
type ManifestEntry struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

// Manifest is the evidence pack manifest (spec §4.7).
type Manifest struct {
	CaseID       string          `json:"case_id"`
	GeneratedUTC time.Time       `json:"generated_utc"`
	SBOMHash     string          `json:"sbom_hash,omitempty"`
	CodeVersion  string          `json:"code_version,omitempty"`
	Artifacts    []ManifestEntry `json:"artifacts"`
}

// BuildPack writes each artifact (name -> contents) into destDir, hashes
// them, and writes manifest.json. Artifact names become the written file
// names; callers are responsible for any redaction before calling this.
func BuildPack(destDir, caseID, codeVersion, sbomHash string, generatedUTC time.Time, artifacts map[string][]byte) (Manifest, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return Manifest{}, apperr.TransientIO("BuildPack", err)
	}

	names := make([]string, 0, len(artifacts))
	for name := range artifacts {
		names = append(names, name)
	}
	sort.Strings(names)

	manifest := Manifest{CaseID: caseID, GeneratedUTC: generatedUTC, SBOMHash: sbomHash, CodeVersion: codeVersion}
	for _, name := range names {
		content := artifacts[name]
		path := filepath.Join(destDir, name)
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return Manifest{}, apperr.TransientIO("BuildPack", err)
		}

		sum := sha256.Sum256(content)
		manifest.Artifacts = append(manifest.Artifacts, ManifestEntry{Path: name, SHA256: hex.EncodeToString(sum[:])})
	}

	manifestBytes, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return Manifest{}, apperr.Schema("BuildPack", err)
	}
	if err := os.WriteFile(filepath.Join(destDir, "manifest.json"), manifestBytes, 0o644); err != nil {
		return Manifest{}, apperr.TransientIO("BuildPack", err)
	}

	return manifest, nil
}

// Archive deflate-compresses every file under srcDir into a single zip
// archive at archivePath (spec §4.7 "optionally archive as a single
// deflate-compressed archive").
func Archive(srcDir, archivePath string) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return apperr.TransientIO("Archive", err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	defer w.Close()

	return filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		f, err := w.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()

		_, err = io.Copy(f, src)
		return err
	})
}

// metricsCSVHeader is the fixed header (spec §6 "Metrics CSV").
var metricsCSVHeader = []string{"metric", "value", "unit", "tags"}

// WriteMetricsCSV writes metrics sorted by canonical name with the fixed
// header columns metric, value, unit, tags.
func WriteMetricsCSV(path string, metrics map[string]telemetry.Metric) error {
	f, err := os.Create(path)
	if err != nil {
		return apperr.TransientIO("WriteMetricsCSV", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(metricsCSVHeader); err != nil {
		return apperr.TransientIO("WriteMetricsCSV", err)
	}

	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m := metrics[name]
		value := ""
		if m.Value != nil {
			value = strconv.FormatFloat(*m.Value, 'g', -1, 64)
		}
		tagsJSON := "{}"
		if len(m.Tags) > 0 {
			b, err := json.Marshal(m.Tags)
			if err != nil {
				return apperr.Schema("WriteMetricsCSV", err)
			}
			tagsJSON = string(b)
		}
		if err := w.Write([]string{name, value, m.Unit, tagsJSON}); err != nil {
			return apperr.TransientIO("WriteMetricsCSV", err)
		}
	}

	return w.Error()
}

// ReadMetricsCSV reads a metrics CSV written by WriteMetricsCSV back into
// raw metric rows.
func ReadMetricsCSV(path string) ([]telemetry.RawMetric, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.TransientIO("ReadMetricsCSV", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, apperr.Parse("ReadMetricsCSV", err)
	}
	if len(rows) == 0 {
		return nil, apperr.Parse("ReadMetricsCSV", fmt.Errorf("empty metrics CSV"))
	}

	header := rows[0]
	if strings.Join(header, ",") != strings.Join(metricsCSVHeader, ",") {
		return nil, apperr.Schema("ReadMetricsCSV", fmt.Errorf("unexpected header %v", header))
	}

	raw := make([]telemetry.RawMetric, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != 4 {
			continue
		}
		var value any
		if row[1] != "" {
			value = row[1]
		}
		var tags telemetry.Tags
		if row[3] != "" {
			if err := json.Unmarshal([]byte(row[3]), &tags); err != nil {
				return nil, apperr.Parse("ReadMetricsCSV", err)
			}
		}
		raw = append(raw, telemetry.RawMetric{Name: row[0], Value: value, Unit: row[2], Tags: tags})
	}

	return raw, nil
}

// WriteBaselineSnapshot writes the selected baseline's metrics as JSON.
func WriteBaselineSnapshot(path string, metrics map[string]telemetry.Metric) error {
	b, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return apperr.Schema("WriteBaselineSnapshot", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return apperr.TransientIO("WriteBaselineSnapshot", err)
	}
	return nil
}

// ReadBaselineSnapshot reads a baseline_snapshot.json written by
// WriteBaselineSnapshot.
func ReadBaselineSnapshot(path string) (map[string]telemetry.Metric, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.TransientIO("ReadBaselineSnapshot", err)
	}
	var metrics map[string]telemetry.Metric
	if err := json.Unmarshal(b, &metrics); err != nil {
		return nil, apperr.Parse("ReadBaselineSnapshot", err)
	}
	return metrics, nil
}

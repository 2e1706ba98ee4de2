// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package evidence

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sentinel-hb/hb/internal/apperr"
)

// AuditEntry is one line of audit_log.jsonl (spec §6), grounded on
// original_source/hb/audit.py's append_audit_log.
type AuditEntry struct {
	TsUTC     string         `json:"ts_utc"`
	RunID     string         `json:"run_id"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details"`
	PrevHash  string         `json:"prev_hash,omitempty"`
	EntryHash string         `json:"entry_hash"`
}

// AuditLog is an append-only, hash-chained JSONL log. Each entry's
// entry_hash is SHA-256 over the canonical JSON of the entry without
// entry_hash itself (spec §6).
type AuditLog struct {
	mu       sync.Mutex
	path     string
	prevHash string
}

// OpenAuditLog opens (or creates) the audit log at path, recovering the
// chain's tip hash from the last line if the file already exists.
func OpenAuditLog(path string) (*AuditLog, error) {
	log := &AuditLog{path: path}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return log, nil
	}
	if err != nil {
		return nil, apperr.TransientIO("OpenAuditLog", err)
	}
	defer f.Close()

	var last string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		last = line
	}
	if err := scanner.Err(); err != nil {
		return nil, apperr.TransientIO("OpenAuditLog", err)
	}

	if last != "" {
		var entry AuditEntry
		if err := json.Unmarshal([]byte(last), &entry); err == nil {
			log.prevHash = entry.EntryHash
		}
	}

	return log, nil
}

// Append writes a new hash-chained entry and returns it.
func (l *AuditLog) Append(runID, action string, details map[string]any) (AuditEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := AuditEntry{
		TsUTC:    time.Now().UTC().Format(time.RFC3339Nano),
		RunID:    runID,
		Action:   action,
		Details:  details,
		PrevHash: l.prevHash,
	}
	entry.EntryHash = computeEntryHash(entry)

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return AuditEntry{}, apperr.TransientIO("Append", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return AuditEntry{}, apperr.TransientIO("Append", err)
	}
	defer f.Close()

	line, err := json.Marshal(entry)
	if err != nil {
		return AuditEntry{}, apperr.Schema("Append", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return AuditEntry{}, apperr.TransientIO("Append", err)
	}

	l.prevHash = entry.EntryHash
	return entry, nil
}

// computeEntryHash mirrors audit.py's _entry_hash: canonical JSON over the
// entry's fields excluding entry_hash, keyed in sorted order (Go's
// json.Marshal of a map already sorts string keys).
func computeEntryHash(entry AuditEntry) string {
	payload := map[string]any{
		"ts_utc":    entry.TsUTC,
		"run_id":    entry.RunID,
		"action":    entry.Action,
		"details":   entry.Details,
		"prev_hash": entry.PrevHash,
	}
	b, _ := json.Marshal(payload)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// VerifyAuditLog walks the chain at path and returns any integrity issues
// found (empty slice means the chain is intact), mirroring
// original_source/hb/audit.py's verify_audit_log.
func VerifyAuditLog(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return []string{"audit log not found"}, nil
	}
	if err != nil {
		return nil, apperr.TransientIO("VerifyAuditLog", err)
	}
	defer f.Close()

	var issues []string
	var prevHash string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		var entry AuditEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			issues = append(issues, "invalid JSON entry")
			continue
		}
		if entry.EntryHash == "" {
			issues = append(issues, "entry missing entry_hash")
			prevHash = ""
			continue
		}

		expectEntry := entry
		expectEntry.PrevHash = prevHash
		computed := computeEntryHash(expectEntry)
		if computed != entry.EntryHash || entry.PrevHash != prevHash {
			issues = append(issues, fmt.Sprintf("audit hash mismatch at run_id=%s action=%s", entry.RunID, entry.Action))
		}
		prevHash = entry.EntryHash
	}

	return issues, nil
}

// FileHash computes the SHA-256 of a file's contents (spec's
// artifact-manifest hashing, grounded on audit.py's file_hash).
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", apperr.TransientIO("FileHash", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", apperr.TransientIO("FileHash", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

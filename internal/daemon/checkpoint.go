// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package daemon

import (
	"encoding/json"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/sentinel-hb/hb/internal/apperr"
)

const (
	checkpointBucket        = "checkpoint"
	checkpointCurrentKey    = "current"
	checkpointHistoryBucket = "checkpoint_history"
)

// Checkpoint is the daemon's resumable cycle position (spec §4.8 "update a
// checkpoint file, rotate checkpoint history").
type Checkpoint struct {
	CycleIndex    int       `json:"cycle_index"`
	LastRunID     string    `json:"last_run_id"`
	LastEventTime float64   `json:"last_event_time"`
	UpdatedUTC    time.Time `json:"updated_utc"`
}

// CheckpointStore is a bbolt-backed checkpoint with a bounded, rotated
// history, translated from original_source/hb/resilience.py's
// save_checkpoint_to_history/load_checkpoint_history and the embedded-KV
// wrapper idiom of db/bolt.go (DB wraps *bolt.DB with JSON helpers).
type CheckpointStore struct {
	db         *bolt.DB
	maxHistory int
}

// OpenCheckpointStore opens (or creates) a checkpoint database at path.
func OpenCheckpointStore(path string, maxHistory int) (*CheckpointStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, apperr.TransientIO("OpenCheckpointStore", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(checkpointBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(checkpointHistoryBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, apperr.TransientIO("OpenCheckpointStore", err)
	}

	return &CheckpointStore{db: db, maxHistory: maxHistory}, nil
}

// Save writes cp as the current checkpoint and appends it to history,
// rotating the history to at most maxHistory entries (oldest dropped).
func (c *CheckpointStore) Save(cp Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return apperr.Schema("CheckpointStore.Save", err)
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(checkpointBucket)).Put([]byte(checkpointCurrentKey), data); err != nil {
			return err
		}

		hist := tx.Bucket([]byte(checkpointHistoryBucket))
		key := []byte(cp.UpdatedUTC.Format(time.RFC3339Nano))
		if err := hist.Put(key, data); err != nil {
			return err
		}

		return rotateHistoryLocked(hist, c.maxHistory)
	})
}

// rotateHistoryLocked deletes the oldest keys (bbolt buckets iterate keys in
// sorted byte order; RFC3339Nano timestamps sort chronologically) past
// maxHistory entries.
func rotateHistoryLocked(hist *bolt.Bucket, maxHistory int) error {
	count := 0
	counter := hist.Cursor()
	for k, _ := counter.First(); k != nil; k, _ = counter.Next() {
		count++
	}
	if count <= maxHistory {
		return nil
	}

	toDelete := count - maxHistory
	cur := hist.Cursor()
	k, _ := cur.First()
	for i := 0; i < toDelete && k != nil; i++ {
		if err := hist.Delete(k); err != nil {
			return err
		}
		k, _ = cur.Next()
	}
	return nil
}

// Load returns the current checkpoint, or ok=false if none has been saved.
func (c *CheckpointStore) Load() (Checkpoint, bool, error) {
	var cp Checkpoint
	var found bool

	err := c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(checkpointBucket)).Get([]byte(checkpointCurrentKey))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &cp)
	})
	if err != nil {
		return Checkpoint{}, false, apperr.Schema("CheckpointStore.Load", err)
	}
	return cp, found, nil
}

// History returns up to limit most recent checkpoints, oldest first.
func (c *CheckpointStore) History(limit int) ([]Checkpoint, error) {
	var out []Checkpoint

	err := c.db.View(func(tx *bolt.Tx) error {
		hist := tx.Bucket([]byte(checkpointHistoryBucket))
		var all []Checkpoint
		err := hist.ForEach(func(_, v []byte) error {
			var cp Checkpoint
			if err := json.Unmarshal(v, &cp); err != nil {
				return err
			}
			all = append(all, cp)
			return nil
		})
		if err != nil {
			return err
		}
		if limit > 0 && len(all) > limit {
			all = all[len(all)-limit:]
		}
		out = all
		return nil
	})
	if err != nil {
		return nil, apperr.Schema("CheckpointStore.History", err)
	}
	return out, nil
}

// Close releases the underlying bbolt file handle.
func (c *CheckpointStore) Close() error {
	return c.db.Close()
}

package cognify

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// processedBucket holds one key per doc_id this consumer has already run
// to completion — restarting the worker must not re-materialize a document
// whose trigger is still sitting, unacked, on TriggerSubject.
var processedBucket = []byte("processed_docs")

// Dedupe tracks which trigger doc_ids StartConsumer has already completed,
// so a redelivered or duplicate trigger is skipped instead of re-running
// the pipeline and double-writing graph/vector state.
type Dedupe interface {
	Seen(docID string) (bool, error)
	MarkSeen(docID string) error
}

// BoltDedupe is a Dedupe backed by a local bbolt file — durable across
// worker restarts, unlike an in-memory set.
type BoltDedupe struct {
	db *bolt.DB
}

// OpenBoltDedupe opens (or creates) the bbolt file at path.
func OpenBoltDedupe(path string) (*BoltDedupe, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("cognify: open dedupe store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(processedBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cognify: create dedupe bucket: %w", err)
	}
	return &BoltDedupe{db: db}, nil
}

// Close releases the underlying bbolt file.
func (d *BoltDedupe) Close() error {
	return d.db.Close()
}

func (d *BoltDedupe) Seen(docID string) (bool, error) {
	var seen bool
	err := d.db.View(func(tx *bolt.Tx) error {
		seen = tx.Bucket(processedBucket).Get([]byte(docID)) != nil
		return nil
	})
	return seen, err
}

func (d *BoltDedupe) MarkSeen(docID string) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(processedBucket).Put([]byte(docID), []byte(time.Now().UTC().Format(time.RFC3339)))
	})
}

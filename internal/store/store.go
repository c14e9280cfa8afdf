// Package store persists confirmed fall events in a local bbolt database
// so alerts survive restarts and the web API can serve history.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/relabs-tech/fall_detector/internal/alert"
)

var bucketEvents = []byte("events")

// Store is a bbolt-backed event log. Keys are fixed-width event times
// plus a bucket sequence number, so a cursor scan returns events in time
// order and two events sharing a timestamp never collide.
type Store struct {
	db *bolt.DB
}

// keyTimeLayout is RFC3339 with a fixed-width nanosecond fraction, so
// the lexicographic key order matches time order.
const keyTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open event db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEvents)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create events bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Append stores one fall alert.
func (s *Store) Append(a alert.FallAlert) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEvents)
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		key := fmt.Sprintf("%s#%016x", a.Time.UTC().Format(keyTimeLayout), seq)
		return b.Put([]byte(key), payload)
	})
}

// Recent returns up to n most recent events, newest first.
func (s *Store) Recent(n int) ([]alert.FallAlert, error) {
	var out []alert.FallAlert
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()
		for k, v := c.Last(); k != nil && len(out) < n; k, v = c.Prev() {
			var a alert.FallAlert
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("decode event %s: %w", k, err)
			}
			out = append(out, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of stored events.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketEvents).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Package nodedb provides a BoltDB-backed registry of mesh nodes seen by
// the radio session, used for name-based destination resolution and the
// `nodes` subcommand.
package nodedb

import (
	"encoding/binary"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"
)

var nodesBucket = []byte("nodes")

// Record describes one mesh node the radio has told us about.
type Record struct {
	Num       uint32    `msgpack:"num"`
	ID        string    `msgpack:"id"` // "!hex" form reported by the node
	LongName  string    `msgpack:"long_name"`
	ShortName string    `msgpack:"short_name"`
	Battery   int       `msgpack:"battery"` // last reported percent, -1 unknown
	FirstSeen time.Time `msgpack:"first_seen"`
	LastSeen  time.Time `msgpack:"last_seen"`
}

// Store wraps a bbolt database of node records.
type Store struct {
	db  *bolt.DB
	mu  sync.RWMutex
	log zerolog.Logger
}

// Open opens or creates a BoltDB file at the given path.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(nodesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

// Upsert inserts or refreshes a node record, preserving FirstSeen and the
// last known battery level when the update carries none.
func (s *Store) Upsert(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(nodesBucket)
		key := nodeKey(rec.Num)

		now := time.Now()
		rec.LastSeen = now
		rec.FirstSeen = now

		if prev := b.Get(key); prev != nil {
			var old Record
			if err := msgpack.Unmarshal(prev, &old); err == nil {
				rec.FirstSeen = old.FirstSeen
				if rec.Battery < 0 {
					rec.Battery = old.Battery
				}
				if rec.LongName == "" {
					rec.LongName = old.LongName
				}
				if rec.ShortName == "" {
					rec.ShortName = old.ShortName
				}
			}
		}

		data, err := msgpack.Marshal(&rec)
		if err != nil {
			return fmt.Errorf("marshaling record: %w", err)
		}
		return b.Put(key, data)
	})
}

// List returns all known nodes.
func (s *Store) List() ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(nodesBucket).ForEach(func(_, v []byte) error {
			var rec Record
			if err := msgpack.Unmarshal(v, &rec); err != nil {
				s.log.Warn().Err(err).Msg("Skipping undecodable node record")
				return nil
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ResolveName finds a node number by long or short name,
// case-insensitively.
func (s *Store) ResolveName(name string) (uint32, bool) {
	records, err := s.List()
	if err != nil {
		return 0, false
	}
	for _, rec := range records {
		if strings.EqualFold(rec.LongName, name) || strings.EqualFold(rec.ShortName, name) {
			return rec.Num, true
		}
	}
	return 0, false
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func nodeKey(num uint32) []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, num)
	return key
}

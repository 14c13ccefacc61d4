// pins/pins.go

// Package pins persists the set of pinned note ids on the client side, as a
// JSON array under a single key in an embedded badger database.
package pins

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// Key holds the pinned note ids.
const Key = "pinnedNotes"

type Store struct {
	db  *badger.DB
	log zerolog.Logger
}

// Open opens the pin database at dir. An empty dir keeps everything in memory.
func Open(dir string, log zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open pin store: %w", err)
	}
	log.Debug().Str("dir", dir).Msg("pin store opened")
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the pinned ids. A missing key is an empty set; a corrupt value
// is logged and treated as empty so the client stays usable.
func (s *Store) Load() ([]int64, error) {
	var ids []int64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(Key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &ids)
		})
	})

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return []int64{}, nil
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		s.log.Warn().Err(err).Msg("discarding unreadable pinned notes")
		return []int64{}, nil
	case err != nil:
		return nil, fmt.Errorf("load pinned notes: %w", err)
	}
	return ids, nil
}

// Save replaces the stored set. Ids are written sorted so equal sets produce
// equal values.
func (s *Store) Save(ids []int64) error {
	sorted := make([]int64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	data, err := json.Marshal(sorted)
	if err != nil {
		return fmt.Errorf("encode pinned notes: %w", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(Key), data)
	}); err != nil {
		return fmt.Errorf("save pinned notes: %w", err)
	}
	return nil
}

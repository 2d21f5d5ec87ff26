package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/reelvault/reelvault-server/internal/domain"
	"github.com/reelvault/reelvault-server/internal/id"
)

// Key prefixes for collection storage. The name index is per user and
// case-sensitive: "Cooking" and "cooking" are distinct collections.
const (
	collectionPrefix       = "col:"          // col:{id} → Collection JSON
	collectionByNamePrefix = "idx:cols:name" // idx:cols:name:{userID}:{name} → collectionID
	collectionByUserPrefix = "idx:cols:user" // idx:cols:user:{userID}:{collectionID} → empty
)

func collectionKey(collectionID string) []byte {
	return []byte(collectionPrefix + collectionID)
}

func collectionNameKey(userID, name string) []byte {
	return []byte(collectionByNamePrefix + ":" + userID + ":" + name)
}

func collectionUserKey(userID, collectionID string) []byte {
	return []byte(collectionByUserPrefix + ":" + userID + ":" + collectionID)
}

// GetCollection retrieves a collection by ID.
func (s *Store) GetCollection(ctx context.Context, collectionID string) (*domain.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var col domain.Collection
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(collectionKey(collectionID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrCollectionNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &col)
		})
	})

	if err != nil {
		return nil, err
	}

	return &col, nil
}

// GetCollectionByName retrieves a user's collection by exact name match.
func (s *Store) GetCollectionByName(ctx context.Context, userID, name string) (*domain.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var collectionID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(collectionNameKey(userID, name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrCollectionNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			collectionID = string(val)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return s.GetCollection(ctx, collectionID)
}

// FindOrCreateCollection atomically finds a user's collection by exact name
// or creates it in the same transaction. Returns (collection, created, error).
func (s *Store) FindOrCreateCollection(ctx context.Context, userID, name string) (*domain.Collection, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	collectionID, err := id.Generate(id.PrefixCollection)
	if err != nil {
		return nil, false, err
	}

	col := &domain.Collection{
		ID:        collectionID,
		Name:      name,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	created := false

	upsert := func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			nameKey := collectionNameKey(userID, name)
			item, err := txn.Get(nameKey)
			if err == nil {
				// Exists: load it inside the same transaction.
				var existingID string
				if err := item.Value(func(val []byte) error {
					existingID = string(val)
					return nil
				}); err != nil {
					return err
				}
				existing, err := txn.Get(collectionKey(existingID))
				if err != nil {
					return err
				}
				return existing.Value(func(val []byte) error {
					return json.Unmarshal(val, col)
				})
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			created = true
			data, err := json.Marshal(col)
			if err != nil {
				return err
			}
			if err := txn.Set(collectionKey(col.ID), data); err != nil {
				return err
			}
			if err := txn.Set(nameKey, []byte(col.ID)); err != nil {
				return err
			}
			return txn.Set(collectionUserKey(userID, col.ID), []byte{})
		})
	}

	// Concurrent saves of the same new name conflict at commit; the retry
	// re-reads the winner's record.
	err = upsert()
	for errors.Is(err, badger.ErrConflict) {
		created = false
		err = upsert()
	}
	if err != nil {
		return nil, false, err
	}

	return col, created, nil
}

// ListCollectionsByUser returns a user's collections sorted by name.
func (s *Store) ListCollectionsByUser(ctx context.Context, userID string) ([]*domain.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(collectionByUserPrefix + ":" + userID + ":")
	var collectionIDs []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			collectionIDs = append(collectionIDs, key[len(prefix):])
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	collections := make([]*domain.Collection, 0, len(collectionIDs))
	for _, collectionID := range collectionIDs {
		col, err := s.GetCollection(ctx, collectionID)
		if err != nil {
			continue
		}
		collections = append(collections, col)
	}

	sort.Slice(collections, func(i, j int) bool {
		return collections[i].Name < collections[j].Name
	})

	return collections, nil
}

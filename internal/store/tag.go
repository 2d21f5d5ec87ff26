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

// Key prefixes for tag storage. Tags are per user and keyed by their
// normalized name, so "Funny" and "funny" resolve to the same tag.
const (
	tagPrefix       = "tag:"          // tag:{id} → Tag JSON
	tagByNamePrefix = "idx:tags:name" // idx:tags:name:{userID}:{name} → tagID
	tagByUserPrefix = "idx:tags:user" // idx:tags:user:{userID}:{tagID} → empty
)

func tagKey(tagID string) []byte {
	return []byte(tagPrefix + tagID)
}

func tagNameKey(userID, name string) []byte {
	return []byte(tagByNamePrefix + ":" + userID + ":" + name)
}

func tagUserKey(userID, tagID string) []byte {
	return []byte(tagByUserPrefix + ":" + userID + ":" + tagID)
}

// GetTag retrieves a tag by ID.
func (s *Store) GetTag(ctx context.Context, tagID string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var t domain.Tag
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tagKey(tagID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTagNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &t)
		})
	})

	if err != nil {
		return nil, err
	}

	return &t, nil
}

// GetTagByName retrieves a user's tag by normalized name.
func (s *Store) GetTagByName(ctx context.Context, userID, name string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tagID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tagNameKey(userID, name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTagNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			tagID = string(val)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return s.GetTag(ctx, tagID)
}

// FindOrCreateTag atomically finds a user's tag by normalized name or
// creates it in the same transaction. Returns (tag, created, error).
// The caller is responsible for normalizing the name first.
func (s *Store) FindOrCreateTag(ctx context.Context, userID, name string) (*domain.Tag, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	tagID, err := id.Generate(id.PrefixTag)
	if err != nil {
		return nil, false, err
	}

	t := &domain.Tag{
		ID:        tagID,
		Name:      name,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	created := false

	upsert := func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			nameKey := tagNameKey(userID, name)
			item, err := txn.Get(nameKey)
			if err == nil {
				var existingID string
				if err := item.Value(func(val []byte) error {
					existingID = string(val)
					return nil
				}); err != nil {
					return err
				}
				existing, err := txn.Get(tagKey(existingID))
				if err != nil {
					return err
				}
				return existing.Value(func(val []byte) error {
					return json.Unmarshal(val, t)
				})
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			created = true
			data, err := json.Marshal(t)
			if err != nil {
				return err
			}
			if err := txn.Set(tagKey(t.ID), data); err != nil {
				return err
			}
			if err := txn.Set(nameKey, []byte(t.ID)); err != nil {
				return err
			}
			return txn.Set(tagUserKey(userID, t.ID), []byte{})
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

	return t, created, nil
}

// ListTagsByUser returns a user's tags sorted by name.
func (s *Store) ListTagsByUser(ctx context.Context, userID string) ([]*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(tagByUserPrefix + ":" + userID + ":")
	var tagIDs []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			tagIDs = append(tagIDs, key[len(prefix):])
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	tags := make([]*domain.Tag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		t, err := s.GetTag(ctx, tagID)
		if err != nil {
			continue
		}
		tags = append(tags, t)
	}

	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})

	return tags, nil
}

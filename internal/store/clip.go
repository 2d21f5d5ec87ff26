package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/reelvault/reelvault-server/internal/domain"
)

// Key prefixes for clip storage. Clips are owned by a single user, so the
// URL uniqueness index is scoped per user.
const (
	clipPrefix       = "clip:"          // clip:{id} → Clip JSON
	clipByUserPrefix = "idx:clips:user" // idx:clips:user:{userID}:{clipID} → empty
	clipByURLPrefix  = "idx:clips:url"  // idx:clips:url:{userID}:{url} → clipID
)

func clipKey(clipID string) []byte {
	return []byte(clipPrefix + clipID)
}

func clipUserKey(userID, clipID string) []byte {
	return []byte(clipByUserPrefix + ":" + userID + ":" + clipID)
}

func clipURLKey(userID, url string) []byte {
	return []byte(clipByURLPrefix + ":" + userID + ":" + url)
}

// CreateClip stores a new clip. Fails with ErrClipURLExists if the user
// already saved the same URL.
func (s *Store) CreateClip(ctx context.Context, c *domain.Clip) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		urlKey := clipURLKey(c.UserID, c.URL)
		if _, err := txn.Get(urlKey); err == nil {
			return ErrClipURLExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		if err := txn.Set(clipKey(c.ID), data); err != nil {
			return err
		}
		if err := txn.Set(clipUserKey(c.UserID, c.ID), []byte{}); err != nil {
			return err
		}
		return txn.Set(urlKey, []byte(c.ID))
	})
}

// GetClip retrieves a clip by ID.
func (s *Store) GetClip(ctx context.Context, clipID string) (*domain.Clip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var c domain.Clip
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(clipKey(clipID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrClipNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &c)
		})
	})

	if err != nil {
		return nil, err
	}

	return &c, nil
}

// ClipURLExists reports whether the user already saved a clip with this URL.
func (s *Store) ClipURLExists(ctx context.Context, userID, url string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	exists := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(clipURLKey(userID, url))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})

	return exists, err
}

// ListClipsByUser returns all clips owned by a user, newest first.
func (s *Store) ListClipsByUser(ctx context.Context, userID string) ([]*domain.Clip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(clipByUserPrefix + ":" + userID + ":")
	var clipIDs []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			clipIDs = append(clipIDs, key[len(prefix):])
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	clips := make([]*domain.Clip, 0, len(clipIDs))
	for _, clipID := range clipIDs {
		c, err := s.GetClip(ctx, clipID)
		if err != nil {
			continue // Skip dangling index entries.
		}
		clips = append(clips, c)
	}

	// Newest first, ID as tiebreak for stability.
	sort.Slice(clips, func(i, j int) bool {
		if !clips[i].CreatedAt.Equal(clips[j].CreatedAt) {
			return clips[i].CreatedAt.After(clips[j].CreatedAt)
		}
		return clips[i].ID < clips[j].ID
	})

	return clips, nil
}

// DeleteClip removes a clip, its indexes, and all of its tag associations.
func (s *Store) DeleteClip(ctx context.Context, clipID string) error {
	c, err := s.GetClip(ctx, clipID)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(clipKey(clipID)); err != nil {
			return err
		}
		if err := txn.Delete(clipUserKey(c.UserID, clipID)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Delete(clipURLKey(c.UserID, c.URL)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return s.deleteClipAssociationsInTxn(txn, clipID)
	})
}

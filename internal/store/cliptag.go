package store

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/reelvault/reelvault-server/internal/domain"
)

// Key prefixes for clip/tag associations. Both directions are indexed so
// clip deletion and tag filtering stay prefix scans.
const (
	clipTagsPrefix = "idx:clips:tags:" // idx:clips:tags:{clipID}:{tagID} → empty
	tagClipsPrefix = "idx:tags:clips:" // idx:tags:clips:{tagID}:{clipID} → empty
)

// AddTagToClip links a tag to a clip. Idempotent.
func (s *Store) AddTagToClip(ctx context.Context, clipID, tagID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		ctKey := []byte(clipTagsPrefix + clipID + ":" + tagID)
		_, err := txn.Get(ctKey)
		if err == nil {
			return nil // Already linked.
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := txn.Set(ctKey, []byte{}); err != nil {
			return err
		}
		return txn.Set([]byte(tagClipsPrefix+tagID+":"+clipID), []byte{})
	})
}

// GetTagsForClip returns all tags linked to a clip, sorted by name.
func (s *Store) GetTagsForClip(ctx context.Context, clipID string) ([]*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tagIDs, err := s.getTagIDsForClip(clipID)
	if err != nil {
		return nil, err
	}

	tags := make([]*domain.Tag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		t, err := s.GetTag(ctx, tagID)
		if err != nil {
			continue // Skip dangling links.
		}
		tags = append(tags, t)
	}

	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})

	return tags, nil
}

// GetClipIDsForTag returns all clip IDs linked to a tag.
func (s *Store) GetClipIDsForTag(ctx context.Context, tagID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := tagClipsPrefix + tagID + ":"
	var clipIDs []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			key := string(it.Item().Key())
			clipIDs = append(clipIDs, strings.TrimPrefix(key, prefix))
		}
		return nil
	})

	return clipIDs, err
}

// ListAssociationsByUser returns the flat clip/tag association triples for
// all of a user's clips. The client joins these locally.
func (s *Store) ListAssociationsByUser(ctx context.Context, userID string) ([]*domain.Association, error) {
	clips, err := s.ListClipsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var assocs []*domain.Association
	for _, c := range clips {
		tags, err := s.GetTagsForClip(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		for _, t := range tags {
			assocs = append(assocs, &domain.Association{
				ClipID:  c.ID,
				TagID:   t.ID,
				TagName: t.Name,
			})
		}
	}

	return assocs, nil
}

func (s *Store) getTagIDsForClip(clipID string) ([]string, error) {
	prefix := clipTagsPrefix + clipID + ":"
	var tagIDs []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			key := string(it.Item().Key())
			tagIDs = append(tagIDs, strings.TrimPrefix(key, prefix))
		}
		return nil
	})

	return tagIDs, err
}

// deleteClipAssociationsInTxn removes both association directions for a clip
// within an existing transaction.
func (s *Store) deleteClipAssociationsInTxn(txn *badger.Txn, clipID string) error {
	prefix := []byte(clipTagsPrefix + clipID + ":")
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	var keysToDelete [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keyCopy := make([]byte, len(it.Item().Key()))
		copy(keyCopy, it.Item().Key())
		keysToDelete = append(keysToDelete, keyCopy)

		tagID := strings.TrimPrefix(string(keyCopy), string(prefix))
		keysToDelete = append(keysToDelete, []byte(tagClipsPrefix+tagID+":"+clipID))
	}

	for _, k := range keysToDelete {
		if err := txn.Delete(k); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
	}

	return nil
}

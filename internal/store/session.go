package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/reelvault/reelvault-server/internal/domain"
)

// Key prefixes for session storage.
const (
	sessionPrefix        = "session:"            // session:{id} → Session JSON
	sessionByTokenPrefix = "idx:sessions:token:" // idx:sessions:token:{refreshTokenHash} → sessionID
	sessionByUserPrefix  = "idx:sessions:user:"  // idx:sessions:user:{userID}:{sessionID} → empty
)

func sessionKey(sessionID string) []byte {
	return []byte(sessionPrefix + sessionID)
}

// CreateSession stores a new session with its refresh token index.
func (s *Store) CreateSession(ctx context.Context, sess *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(sess)
		if err != nil {
			return err
		}
		if err := txn.Set(sessionKey(sess.ID), data); err != nil {
			return err
		}
		if err := txn.Set([]byte(sessionByTokenPrefix+sess.RefreshTokenHash), []byte(sess.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(sessionByUserPrefix+sess.UserID+":"+sess.ID), []byte{})
	})
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sess domain.Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(sessionID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		})
	})

	if err != nil {
		return nil, err
	}

	return &sess, nil
}

// GetSessionByRefreshTokenHash retrieves a session by the hash of its refresh token.
func (s *Store) GetSessionByRefreshTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sessionID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionByTokenPrefix + tokenHash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			sessionID = string(val)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return s.GetSession(ctx, sessionID)
}

// RotateSessionToken swaps the session's refresh token hash atomically.
func (s *Store) RotateSessionToken(ctx context.Context, sessionID, oldHash, newHash string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(sessionID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}

		var sess domain.Session
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		}); err != nil {
			return err
		}

		sess.RefreshTokenHash = newHash
		sess.ExpiresAt = expiresAt
		sess.Touch()

		data, err := json.Marshal(&sess)
		if err != nil {
			return err
		}
		if err := txn.Set(sessionKey(sessionID), data); err != nil {
			return err
		}

		if err := txn.Delete([]byte(sessionByTokenPrefix + oldHash)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set([]byte(sessionByTokenPrefix+newHash), []byte(sessionID))
	})
}

// DeleteSession removes a session and its indexes.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(sessionKey(sessionID)); err != nil {
			return err
		}
		if err := txn.Delete([]byte(sessionByTokenPrefix + sess.RefreshTokenHash)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Delete([]byte(sessionByUserPrefix + sess.UserID + ":" + sessionID))
	})
}

// DeleteUserSessions removes all sessions for a user. Used on logout-everywhere.
func (s *Store) DeleteUserSessions(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	prefix := []byte(sessionByUserPrefix + userID + ":")
	var sessionIDs []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			sessionIDs = append(sessionIDs, key[len(prefix):])
		}
		return nil
	})

	if err != nil {
		return err
	}

	for _, sessionID := range sessionIDs {
		if err := s.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
			return err
		}
	}

	return nil
}

// DeleteExpiredSessions removes all sessions past their expiry. Returns the count removed.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	prefix := []byte(sessionPrefix)
	now := time.Now()
	var expired []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var sess domain.Session
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &sess)
			})
			if err != nil {
				continue
			}
			if sess.ExpiresAt.Before(now) {
				expired = append(expired, sess.ID)
			}
		}
		return nil
	})

	if err != nil {
		return 0, err
	}

	removed := 0
	for _, sessionID := range expired {
		if err := s.DeleteSession(ctx, sessionID); err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				continue
			}
			return removed, err
		}
		removed++
	}

	return removed, nil
}

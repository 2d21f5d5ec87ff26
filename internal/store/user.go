package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/reelvault/reelvault-server/internal/domain"
)

// Key prefixes for user storage.
const (
	userPrefix        = "user:"           // user:{id} → User JSON
	userByEmailPrefix = "idx:users:email" // idx:users:email:{email} → userID
)

func userKey(userID string) []byte {
	return []byte(userPrefix + userID)
}

func userEmailKey(email string) []byte {
	return []byte(userByEmailPrefix + ":" + strings.ToLower(email))
}

// CreateUser creates a new user. Fails if the email is already registered.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		emailKey := userEmailKey(u.Email)
		if _, err := txn.Get(emailKey); err == nil {
			return ErrEmailExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		data, err := json.Marshal(u)
		if err != nil {
			return err
		}
		if err := txn.Set(userKey(u.ID), data); err != nil {
			return err
		}

		return txn.Set(emailKey, []byte(u.ID))
	})
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var u domain.User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &u)
		})
	})

	if err != nil {
		return nil, err
	}

	return &u, nil
}

// GetUserByEmail retrieves a user by email. Lookup is case-insensitive.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var userID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userEmailKey(email))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return s.GetUser(ctx, userID)
}

// UpdateUser persists changes to an existing user.
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userKey(u.ID)); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		} else if err != nil {
			return err
		}

		u.Touch()
		data, err := json.Marshal(u)
		if err != nil {
			return err
		}
		return txn.Set(userKey(u.ID), data)
	})
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelvault/reelvault-server/internal/domain"
)

func TestCreateUser(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	u := &domain.User{
		ID:           "user-001",
		Email:        "sam@example.com",
		PasswordHash: "hash",
		DisplayName:  "Sam",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(t, store.CreateUser(ctx, u))

	retrieved, err := store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, retrieved.Email)

	byEmail, err := store.GetUserByEmail(ctx, "SAM@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, &domain.User{
		ID: "user-001", Email: "sam@example.com", CreatedAt: time.Now(),
	}))

	err := store.CreateUser(ctx, &domain.User{
		ID: "user-002", Email: "sam@example.com", CreatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestSessionLifecycle(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	sess := &domain.Session{
		ID:               "sess-001",
		UserID:           "user-001",
		RefreshTokenHash: "hash-a",
		ExpiresAt:        time.Now().Add(time.Hour),
		CreatedAt:        time.Now(),
	}
	require.NoError(t, store.CreateSession(ctx, sess))

	found, err := store.GetSessionByRefreshTokenHash(ctx, "hash-a")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, found.ID)

	// Rotation invalidates the old hash and installs the new one.
	newExpiry := time.Now().Add(2 * time.Hour)
	require.NoError(t, store.RotateSessionToken(ctx, sess.ID, "hash-a", "hash-b", newExpiry))

	_, err = store.GetSessionByRefreshTokenHash(ctx, "hash-a")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	rotated, err := store.GetSessionByRefreshTokenHash(ctx, "hash-b")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, rotated.ID)

	require.NoError(t, store.DeleteSession(ctx, sess.ID))
	_, err = store.GetSession(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteExpiredSessions(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, &domain.Session{
		ID: "sess-old", UserID: "user-001", RefreshTokenHash: "old",
		ExpiresAt: time.Now().Add(-time.Hour), CreatedAt: time.Now(),
	}))
	require.NoError(t, store.CreateSession(ctx, &domain.Session{
		ID: "sess-live", UserID: "user-001", RefreshTokenHash: "live",
		ExpiresAt: time.Now().Add(time.Hour), CreatedAt: time.Now(),
	}))

	removed, err := store.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.GetSession(ctx, "sess-old")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.GetSession(ctx, "sess-live")
	require.NoError(t, err)
}

func TestDeleteUserSessions(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	for i, hash := range []string{"h1", "h2"} {
		require.NoError(t, store.CreateSession(ctx, &domain.Session{
			ID: "sess-" + hash, UserID: "user-001", RefreshTokenHash: hash,
			ExpiresAt: time.Now().Add(time.Duration(i+1) * time.Hour), CreatedAt: time.Now(),
		}))
	}
	require.NoError(t, store.CreateSession(ctx, &domain.Session{
		ID: "sess-other", UserID: "user-002", RefreshTokenHash: "h3",
		ExpiresAt: time.Now().Add(time.Hour), CreatedAt: time.Now(),
	}))

	require.NoError(t, store.DeleteUserSessions(ctx, "user-001"))

	_, err := store.GetSession(ctx, "sess-h1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.GetSession(ctx, "sess-other")
	require.NoError(t, err)
}

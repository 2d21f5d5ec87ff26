package client

import (
	"context"
	"encoding/json/v2"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelvault/reelvault-server/internal/dto"
)

// fakeAuthServer is a minimal credential backend for controller tests.
type fakeAuthServer struct {
	refreshToken string // current valid refresh token
	logoutCalls  int
}

func (f *fakeAuthServer) handler(t *testing.T) http.Handler {
	t.Helper()

	sessionBody := func(refresh string) map[string]any {
		return map[string]any{
			"access_token":  "access-" + refresh,
			"refresh_token": refresh,
			"session_id":    "sess_1",
			"token_type":    "Bearer",
			"expires_in":    900,
			"user":          map[string]any{"id": "user_1", "email": "ana@example.com"},
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.refreshToken = "refresh-1"
		writeJSON(t, w, http.StatusOK, sessionBody(f.refreshToken))
	})
	mux.HandleFunc("POST /api/v1/auth/register", func(w http.ResponseWriter, r *http.Request) {
		f.refreshToken = "refresh-1"
		writeJSON(t, w, http.StatusOK, sessionBody(f.refreshToken))
	})
	mux.HandleFunc("POST /api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.UnmarshalRead(r.Body, &body))
		if f.refreshToken == "" || body["refresh_token"] != f.refreshToken {
			writeJSON(t, w, http.StatusUnauthorized, map[string]string{
				"code": "UNAUTHORIZED", "message": "invalid refresh token",
			})
			return
		}
		f.refreshToken += "x"
		writeJSON(t, w, http.StatusOK, sessionBody(f.refreshToken))
	})
	mux.HandleFunc("POST /api/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.logoutCalls++
		f.refreshToken = ""
		writeJSON(t, w, http.StatusOK, map[string]string{"message": "session revoked"})
	})
	return mux
}

func setupController(t *testing.T) (*Controller, *SyncStore, *fakeAuthServer, string) {
	t.Helper()

	fake := &fakeAuthServer{}
	gateway := newTestGateway(t, fake.handler(t))
	store := NewSyncStore()
	credsPath := filepath.Join(t.TempDir(), "credentials.json")
	controller := NewController(gateway, store, NewFileCredentialsStore(credsPath), nil)
	return controller, store, fake, credsPath
}

func TestControllerSignIn(t *testing.T) {
	controller, _, _, _ := setupController(t)

	var transitions []SessionInfo
	controller.OnChange(func(info SessionInfo) {
		transitions = append(transitions, info)
	})

	assert.Equal(t, StateAnonymous, controller.Current().State)

	require.NoError(t, controller.SignIn(context.Background(), "ana@example.com", "password"))

	current := controller.Current()
	assert.Equal(t, StateAuthenticated, current.State)
	assert.Equal(t, "user_1", current.UserID)
	assert.Equal(t, "ana@example.com", current.Email)

	require.Len(t, transitions, 1)
	assert.Equal(t, StateAuthenticated, transitions[0].State)
}

func TestControllerSignOut(t *testing.T) {
	controller, store, fake, _ := setupController(t)
	require.NoError(t, controller.SignIn(context.Background(), "ana@example.com", "password"))

	store.ReplaceAll([]dto.ClipView{clipView("clip_1", "leftover", time.Now())})

	var transitions []SessionInfo
	controller.OnChange(func(info SessionInfo) {
		transitions = append(transitions, info)
	})

	require.NoError(t, controller.SignOut(context.Background()))

	assert.Equal(t, StateAnonymous, controller.Current().State)
	assert.Equal(t, 1, fake.logoutCalls)
	// Cached clips never survive a sign-out.
	assert.Equal(t, 0, store.Len())
	require.Len(t, transitions, 1)
	assert.Equal(t, StateAnonymous, transitions[0].State)
}

func TestControllerRestore(t *testing.T) {
	controller, _, fake, credsPath := setupController(t)
	require.NoError(t, controller.SignIn(context.Background(), "ana@example.com", "password"))
	firstToken := controller.RefreshToken()

	// A fresh controller over the same credentials file resumes the session.
	gateway := newTestGateway(t, fake.handler(t))
	// Reuse the original fake so the server still knows the stored token.
	restored := NewController(gateway, NewSyncStore(), NewFileCredentialsStore(credsPath), nil)

	ok, err := restored.Restore(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, StateAuthenticated, restored.Current().State)
	// Restore rotates the refresh token.
	assert.NotEqual(t, firstToken, restored.RefreshToken())
}

func TestControllerRestore_NothingPersisted(t *testing.T) {
	controller, _, _, _ := setupController(t)

	ok, err := controller.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, StateAnonymous, controller.Current().State)
}

func TestControllerRestore_RevokedTokenClearsCredentials(t *testing.T) {
	controller, _, fake, credsPath := setupController(t)
	require.NoError(t, controller.SignIn(context.Background(), "ana@example.com", "password"))

	// Revoke server-side behind the controller's back.
	fake.refreshToken = ""

	restored := NewController(newTestGateway(t, fake.handler(t)), nil, NewFileCredentialsStore(credsPath), nil)
	ok, err := restored.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	// The dead token was dropped, so the next restore short-circuits.
	creds, err := NewFileCredentialsStore(credsPath).Load()
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestControllerRefresh(t *testing.T) {
	controller, _, _, _ := setupController(t)
	require.NoError(t, controller.SignIn(context.Background(), "ana@example.com", "password"))
	before := controller.RefreshToken()

	require.NoError(t, controller.Refresh(context.Background()))
	assert.NotEqual(t, before, controller.RefreshToken())
	assert.Equal(t, StateAuthenticated, controller.Current().State)
}

func TestControllerRefresh_Anonymous(t *testing.T) {
	controller, _, _, _ := setupController(t)

	err := controller.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
}

func TestFileCredentialsStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	store := NewFileCredentialsStore(path)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)

	require.NoError(t, store.Save(&Credentials{Email: "ana@example.com", RefreshToken: "refresh-1"}))

	loaded, err = store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "refresh-1", loaded.RefreshToken)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())

	loaded, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

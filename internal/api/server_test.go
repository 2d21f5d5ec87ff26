package api

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelvault/reelvault-server/internal/auth"
	"github.com/reelvault/reelvault-server/internal/ratelimit"
	"github.com/reelvault/reelvault-server/internal/search"
	"github.com/reelvault/reelvault-server/internal/service"
	"github.com/reelvault/reelvault-server/internal/sse"
	"github.com/reelvault/reelvault-server/internal/store"
)

// testKeyHex is a fixed 32-byte key for test tokens.
const testKeyHex = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

type testServer struct {
	*Server
	api     humatest.TestAPI
	cleanup func()
}

// setupTestServer creates a test server with a real store and search index.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "reelvault-api-test-*")
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)

	st, err := store.New(filepath.Join(tmpDir, "db"), logger)
	require.NoError(t, err)

	index, err := search.NewClipIndex(search.Options{
		DataPath: tmpDir,
		Logger:   logger,
	})
	require.NoError(t, err)

	sseManager := sse.NewManager(logger)

	tokenService, err := auth.NewTokenService(testKeyHex, 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	sessionService := service.NewSessionService(st, tokenService, logger)
	authService := service.NewAuthService(st, tokenService, sessionService, ratelimit.New(100, 100), logger)
	resolver := service.NewResolverService(st, sseManager, logger)
	clipService := service.NewClipService(st, resolver, sseManager, index, nil, logger)

	server := NewServer(st, &Services{
		Auth:     authService,
		Session:  sessionService,
		Clip:     clipService,
		Resolver: resolver,
		Title:    service.NewTitleService(logger),
	}, sseManager, logger)

	return &testServer{
		Server: server,
		api:    humatest.Wrap(t, server.api),
		cleanup: func() {
			_ = index.Close()
			_ = st.Close()
			_ = os.RemoveAll(tmpDir)
		},
	}
}

// registerTestUser registers a user and returns the auth response.
func (ts *testServer) registerTestUser(t *testing.T, email string) AuthResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        email,
		"password":     "correct-horse-battery",
		"display_name": "Test User",
	})
	require.Equal(t, http.StatusOK, resp.Code, "register failed: %s", resp.Body.String())

	var body AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Components["database"].Status)
	assert.Equal(t, "healthy", body.Components["search"].Status)
}

func TestRegisterAndLogin(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	registered := ts.registerTestUser(t, "ana@example.com")
	assert.NotEmpty(t, registered.AccessToken)
	assert.NotEmpty(t, registered.RefreshToken)
	assert.Equal(t, "Bearer", registered.TokenType)
	assert.Equal(t, "ana@example.com", registered.User.Email)

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "ana@example.com",
		"password": "correct-horse-battery",
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	var body AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, registered.User.ID, body.User.ID)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.registerTestUser(t, "ana@example.com")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "ana@example.com",
		"password": "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &apiErr))
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	registered := ts.registerTestUser(t, "ana@example.com")

	resp := ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": registered.RefreshToken,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var refreshed AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &refreshed))
	assert.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)
	assert.Equal(t, registered.SessionID, refreshed.SessionID)

	// The old refresh token was rotated out.
	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": registered.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// Logout with the current token, then it stops working.
	resp = ts.api.Post("/api/v1/auth/logout", map[string]any{
		"refresh_token": refreshed.RefreshToken,
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": refreshed.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestGetCurrentUser(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	registered := ts.registerTestUser(t, "ana@example.com")

	resp := ts.api.Get("/api/v1/users/me", "Authorization: Bearer "+registered.AccessToken)
	assert.Equal(t, http.StatusOK, resp.Code)

	var body UserResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "ana@example.com", body.Email)
	assert.Equal(t, "Test User", body.DisplayName)
}

func TestAuthRequired(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/clips")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/api/v1/clips", "Authorization: Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/reelvault/reelvault-server/internal/auth"
	"github.com/reelvault/reelvault-server/internal/domain"
	domainerrors "github.com/reelvault/reelvault-server/internal/errors"
	"github.com/reelvault/reelvault-server/internal/id"
	"github.com/reelvault/reelvault-server/internal/store"
)

// SessionService handles refresh-token session lifecycle.
// Access tokens are stateless PASETO; sessions exist so refresh tokens can
// be rotated and revoked.
type SessionService struct {
	store        *store.Store
	tokenService *auth.TokenService
	logger       *slog.Logger
}

// NewSessionService creates a new session management service.
func NewSessionService(
	store *store.Store,
	tokenService *auth.TokenService,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		store:        store,
		tokenService: tokenService,
		logger:       logger,
	}
}

// SessionResponse contains the token pair issued for a session.
type SessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // Access token lifetime in seconds
	SessionID    string `json:"session_id"`
}

// CreateSession generates a token pair and persists a new session for a user.
func (s *SessionService) CreateSession(
	ctx context.Context,
	user *domain.User,
	clientName, ipAddress string,
) (*SessionResponse, error) {
	accessToken, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	sessionID, err := id.Generate(id.PrefixSession)
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	now := time.Now()
	session := &domain.Session{
		ID:               sessionID,
		UserID:           user.ID,
		RefreshTokenHash: auth.HashRefreshToken(refreshToken),
		ExpiresAt:        now.Add(s.tokenService.RefreshTokenDuration()),
		CreatedAt:        now,
		LastSeenAt:       now,
		IPAddress:        ipAddress,
		ClientName:       clientName,
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokenService.AccessTokenDuration().Seconds()),
		SessionID:    sessionID,
	}, nil
}

// RefreshSession rotates the token pair for an existing session.
// The old refresh token is invalidated in the same store transaction.
func (s *SessionService) RefreshSession(
	ctx context.Context,
	refreshToken string,
) (*SessionResponse, *domain.User, error) {
	oldHash := auth.HashRefreshToken(refreshToken)
	session, err := s.store.GetSessionByRefreshTokenHash(ctx, oldHash)
	if err != nil {
		return nil, nil, domainerrors.TokenExpired("invalid or expired refresh token").WithCause(err)
	}

	if session.IsExpired() {
		_ = s.store.DeleteSession(ctx, session.ID)
		return nil, nil, domainerrors.TokenExpired("invalid or expired refresh token")
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		// User was deleted, clean up the orphaned session.
		_ = s.store.DeleteSession(ctx, session.ID)
		return nil, nil, domainerrors.NotFound("user not found").WithCause(err)
	}

	accessToken, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate access token: %w", err)
	}

	newRefreshToken, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, nil, fmt.Errorf("generate refresh token: %w", err)
	}

	newExpiry := time.Now().Add(s.tokenService.RefreshTokenDuration())
	newHash := auth.HashRefreshToken(newRefreshToken)
	if err := s.store.RotateSessionToken(ctx, session.ID, oldHash, newHash, newExpiry); err != nil {
		return nil, nil, fmt.Errorf("rotate session token: %w", err)
	}

	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokenService.AccessTokenDuration().Seconds()),
		SessionID:    session.ID,
	}, user, nil
}

// RevokeSession deletes the session matching a refresh token. Used on logout.
// Unknown tokens succeed silently so logout is idempotent.
func (s *SessionService) RevokeSession(ctx context.Context, refreshToken string) error {
	session, err := s.store.GetSessionByRefreshTokenHash(ctx, auth.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil
		}
		return fmt.Errorf("lookup session: %w", err)
	}

	if err := s.store.DeleteSession(ctx, session.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.logger.Info("session revoked",
		slog.String("session_id", session.ID),
		slog.String("user_id", session.UserID))
	return nil
}

// RevokeAllSessions deletes every session for a user (logout everywhere).
func (s *SessionService) RevokeAllSessions(ctx context.Context, userID string) error {
	if err := s.store.DeleteUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}

	s.logger.Info("all sessions revoked", slog.String("user_id", userID))
	return nil
}

// StartCleanup removes expired sessions on an interval until the context is
// canceled. Run in a goroutine at startup.
func (s *SessionService) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := s.store.DeleteExpiredSessions(ctx)
			if err != nil {
				s.logger.Warn("session cleanup failed", slog.String("error", err.Error()))
				continue
			}
			if removed > 0 {
				s.logger.Info("expired sessions removed", slog.Int("count", removed))
			}
		case <-ctx.Done():
			return
		}
	}
}

package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// SessionState names the two session phases.
type SessionState string

const (
	// StateAnonymous means no account is signed in.
	StateAnonymous SessionState = "anonymous"
	// StateAuthenticated means a user session is established.
	StateAuthenticated SessionState = "authenticated"
)

// SessionInfo is a snapshot of the current session for subscribers.
type SessionInfo struct {
	State  SessionState
	UserID string
	Email  string
}

// ChangeFunc observes session transitions.
type ChangeFunc func(SessionInfo)

// Controller owns the session lifecycle: anonymous to authenticated and
// back. It installs tokens on the gateway, persists the refresh token so a
// restart can resume the session, and clears the sync store on sign-out so
// one account's clips never bleed into the next.
type Controller struct {
	gateway *Gateway
	store   *SyncStore
	creds   CredentialsStore
	logger  *slog.Logger

	mu       sync.RWMutex
	session  *Session
	onChange []ChangeFunc
}

// NewController creates a controller in the anonymous state.
// creds may be nil for sessions that should not survive a restart.
func NewController(gateway *Gateway, store *SyncStore, creds CredentialsStore, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		gateway: gateway,
		store:   store,
		creds:   creds,
		logger:  logger,
	}
}

// OnChange registers a subscriber invoked on every session transition,
// including sign-in, token refresh, and sign-out.
func (c *Controller) OnChange(fn ChangeFunc) {
	c.mu.Lock()
	c.onChange = append(c.onChange, fn)
	c.mu.Unlock()
}

// Current returns the session snapshot.
func (c *Controller) Current() SessionInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return SessionInfo{State: StateAnonymous}
	}
	return SessionInfo{
		State:  StateAuthenticated,
		UserID: c.session.User.ID,
		Email:  c.session.User.Email,
	}
}

// RefreshToken returns the current refresh token, empty when anonymous.
func (c *Controller) RefreshToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.RefreshToken
}

// SignUp registers a new account and establishes its session.
func (c *Controller) SignUp(ctx context.Context, email, password, displayName string) error {
	session, err := c.gateway.Register(ctx, email, password, displayName)
	if err != nil {
		return err
	}
	c.establish(session)
	return nil
}

// SignIn authenticates credentials and establishes the session.
func (c *Controller) SignIn(ctx context.Context, email, password string) error {
	session, err := c.gateway.Login(ctx, email, password)
	if err != nil {
		return err
	}
	c.establish(session)
	return nil
}

// Restore resumes the previously persisted session, rotating its refresh
// token. Returns false without error when nothing was persisted.
func (c *Controller) Restore(ctx context.Context) (bool, error) {
	if c.creds == nil {
		return false, nil
	}

	saved, err := c.creds.Load()
	if err != nil {
		return false, fmt.Errorf("load credentials: %w", err)
	}
	if saved == nil || saved.RefreshToken == "" {
		return false, nil
	}

	session, err := c.gateway.Refresh(ctx, saved.RefreshToken)
	if err != nil {
		if IsUnauthorized(err) {
			// The persisted session was revoked or expired. Drop it so the
			// next start does not retry a dead token.
			_ = c.creds.Clear()
			return false, nil
		}
		return false, err
	}

	c.establish(session)
	return true, nil
}

// Refresh rotates the current session's tokens in place.
func (c *Controller) Refresh(ctx context.Context) error {
	current := c.RefreshToken()
	if current == "" {
		return &Error{Status: 401, Code: "UNAUTHORIZED", Message: "no active session"}
	}

	session, err := c.gateway.Refresh(ctx, current)
	if err != nil {
		return err
	}
	c.establish(session)
	return nil
}

// SignOut revokes the session remotely, forgets the persisted token, and
// empties the sync store. The local teardown happens even when the remote
// revocation fails, so a dead server cannot pin a session on this machine.
func (c *Controller) SignOut(ctx context.Context) error {
	refreshToken := c.RefreshToken()

	var revokeErr error
	if refreshToken != "" {
		revokeErr = c.gateway.Logout(ctx, refreshToken)
	}

	c.gateway.SetAccessToken("")
	if c.creds != nil {
		if err := c.creds.Clear(); err != nil {
			c.logger.Warn("failed to clear persisted credentials", slog.String("error", err.Error()))
		}
	}
	if c.store != nil {
		c.store.ReplaceAll(nil)
	}

	c.mu.Lock()
	c.session = nil
	subscribers := append([]ChangeFunc(nil), c.onChange...)
	c.mu.Unlock()

	c.notify(subscribers, SessionInfo{State: StateAnonymous})
	return revokeErr
}

func (c *Controller) establish(session *Session) {
	c.gateway.SetAccessToken(session.AccessToken)

	if c.creds != nil {
		err := c.creds.Save(&Credentials{
			Email:        session.User.Email,
			RefreshToken: session.RefreshToken,
		})
		if err != nil {
			c.logger.Warn("failed to persist credentials", slog.String("error", err.Error()))
		}
	}

	c.mu.Lock()
	c.session = session
	subscribers := append([]ChangeFunc(nil), c.onChange...)
	c.mu.Unlock()

	c.logger.Debug("session established",
		slog.String("user_id", session.User.ID),
		slog.String("session_id", session.SessionID))

	c.notify(subscribers, SessionInfo{
		State:  StateAuthenticated,
		UserID: session.User.ID,
		Email:  session.User.Email,
	})
}

func (c *Controller) notify(subscribers []ChangeFunc, info SessionInfo) {
	for _, fn := range subscribers {
		fn(info)
	}
}

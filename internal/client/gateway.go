// Package client implements the consumer side of the vault API: a typed
// HTTP/SSE gateway, snapshot assembly, an in-memory synchronized list with
// optimistic updates, session lifecycle, and an offline cache.
package client

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/reelvault/reelvault-server/internal/dto"
	"github.com/reelvault/reelvault-server/internal/id"
)

const (
	defaultRequestTimeout = 15 * time.Second
	maxErrorBodySize      = 64 * 1024
	maxEventLineSize      = 1024 * 1024
)

// User is an account as returned by the API.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// Session is an authenticated token pair plus the account it belongs to.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	SessionID    string `json:"session_id"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

// Collection is a named group of clips.
type Collection struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Tag is a normalized label shared across clips.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Association is a flat clip-to-tag link with the tag name denormalized in.
type Association struct {
	ClipID  string `json:"clip_id"`
	TagID   string `json:"tag_id"`
	TagName string `json:"tag_name"`
}

// ClipRow is a raw clip row from the sync snapshot, before assembly.
type ClipRow struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	CollectionID string `json:"collection_id"`
	CreatedAt    int64  `json:"created_at"` // Unix milliseconds
}

// Snapshot is a user's full dataset as normalized rows.
type Snapshot struct {
	Clips        []ClipRow     `json:"clips"`
	Collections  []Collection  `json:"collections"`
	Tags         []Tag         `json:"tags"`
	Associations []Association `json:"associations"`
}

// SaveClipRequest carries the fields for saving a clip.
type SaveClipRequest struct {
	URL        string   `json:"url"`
	Title      string   `json:"title,omitempty"`
	Collection string   `json:"collection,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// Gateway is the typed HTTP/SSE consumer of the vault API. All remote calls
// go through it; nothing else in the client knows about wire formats.
//
// The access token is mutable because the session controller rotates it on
// refresh while other goroutines keep issuing requests.
type Gateway struct {
	baseURL  string
	clientID string
	http     *http.Client
	logger   *slog.Logger

	mu          sync.RWMutex
	accessToken string
}

// GatewayOptions configures a Gateway.
type GatewayOptions struct {
	// BaseURL is the server root, e.g. "http://localhost:8080".
	BaseURL string
	// ClientID identifies this client instance on the change feed so its own
	// writes can be recognized and skipped. Generated when empty.
	ClientID string
	// HTTPClient overrides the default client. Streaming requests use a copy
	// without the timeout.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewGateway creates a gateway for the server at opts.BaseURL.
func NewGateway(opts GatewayOptions) (*Gateway, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	clientID := opts.ClientID
	if clientID == "" {
		generated, err := id.Generate(id.PrefixClient)
		if err != nil {
			return nil, fmt.Errorf("generate client ID: %w", err)
		}
		clientID = generated
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Gateway{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		clientID: clientID,
		http:     httpClient,
		logger:   logger,
	}, nil
}

// ClientID returns the identifier this gateway stamps on mutating requests.
func (g *Gateway) ClientID() string {
	return g.clientID
}

// SetAccessToken installs the token used on subsequent requests.
// An empty token returns the gateway to anonymous calls.
func (g *Gateway) SetAccessToken(token string) {
	g.mu.Lock()
	g.accessToken = token
	g.mu.Unlock()
}

func (g *Gateway) currentToken() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.accessToken
}

// === Auth ===

// Register creates an account and returns its first session.
func (g *Gateway) Register(ctx context.Context, email, password, displayName string) (*Session, error) {
	var session Session
	err := g.do(ctx, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":        email,
		"password":     password,
		"display_name": displayName,
	}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Login authenticates with credentials and returns a new session.
func (g *Gateway) Login(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	err := g.do(ctx, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Refresh rotates a refresh token into a fresh session.
func (g *Gateway) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	var session Session
	err := g.do(ctx, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Logout revokes the session behind refreshToken.
func (g *Gateway) Logout(ctx context.Context, refreshToken string) error {
	return g.do(ctx, http.MethodPost, "/api/v1/auth/logout", map[string]string{
		"refresh_token": refreshToken,
	}, nil)
}

// CurrentUser fetches the account behind the installed access token.
func (g *Gateway) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := g.do(ctx, http.MethodGet, "/api/v1/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// === Clips ===

// SaveClip saves a bookmark and returns the assembled view the server built.
func (g *Gateway) SaveClip(ctx context.Context, req SaveClipRequest) (*dto.ClipView, error) {
	var view dto.ClipView
	if err := g.do(ctx, http.MethodPost, "/api/v1/clips", req, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// ListClips fetches all of the user's clips, newest first.
func (g *Gateway) ListClips(ctx context.Context) ([]dto.ClipView, error) {
	var body struct {
		Clips []dto.ClipView `json:"clips"`
	}
	if err := g.do(ctx, http.MethodGet, "/api/v1/clips", nil, &body); err != nil {
		return nil, err
	}
	return body.Clips, nil
}

// DeleteClip removes a clip by ID.
func (g *Gateway) DeleteClip(ctx context.Context, clipID string) error {
	return g.do(ctx, http.MethodDelete, "/api/v1/clips/"+clipID, nil, nil)
}

// === Collections and tags ===

// ListCollections fetches the user's collections sorted by name.
func (g *Gateway) ListCollections(ctx context.Context) ([]Collection, error) {
	var body struct {
		Collections []Collection `json:"collections"`
	}
	if err := g.do(ctx, http.MethodGet, "/api/v1/collections", nil, &body); err != nil {
		return nil, err
	}
	return body.Collections, nil
}

// CreateCollection creates a collection, or fetches the one already named name.
func (g *Gateway) CreateCollection(ctx context.Context, name string) (*Collection, error) {
	var col Collection
	err := g.do(ctx, http.MethodPost, "/api/v1/collections", map[string]string{"name": name}, &col)
	if err != nil {
		return nil, err
	}
	return &col, nil
}

// ListTags fetches the user's tags sorted by name.
func (g *Gateway) ListTags(ctx context.Context) ([]Tag, error) {
	var body struct {
		Tags []Tag `json:"tags"`
	}
	if err := g.do(ctx, http.MethodGet, "/api/v1/tags", nil, &body); err != nil {
		return nil, err
	}
	return body.Tags, nil
}

// CreateTag creates a tag under its normalized name, or fetches the existing one.
func (g *Gateway) CreateTag(ctx context.Context, name string) (*Tag, error) {
	var tag Tag
	err := g.do(ctx, http.MethodPost, "/api/v1/tags", map[string]string{"name": name}, &tag)
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// ListAssociations fetches all clip-to-tag links for the user.
func (g *Gateway) ListAssociations(ctx context.Context) ([]Association, error) {
	var body struct {
		Associations []Association `json:"associations"`
	}
	if err := g.do(ctx, http.MethodGet, "/api/v1/clips/associations", nil, &body); err != nil {
		return nil, err
	}
	return body.Associations, nil
}

// === Search, titles, sync ===

// SearchHit is a single full-text search result.
type SearchHit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	URL        string            `json:"url"`
	Collection string            `json:"collection"`
	Tags       []string          `json:"tags"`
	Highlights map[string]string `json:"highlights"`
}

// SearchClips runs a full-text query over the user's clips.
func (g *Gateway) SearchClips(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	path := fmt.Sprintf("/api/v1/search?q=%s&limit=%d", url.QueryEscape(query), limit)
	var body struct {
		Hits []SearchHit `json:"hits"`
	}
	if err := g.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return nil, err
	}
	return body.Hits, nil
}

// FetchTitle asks the server to resolve a page title for prefill.
func (g *Gateway) FetchTitle(ctx context.Context, pageURL string) (string, error) {
	var body struct {
		Title string `json:"title"`
	}
	path := "/api/v1/title?url=" + url.QueryEscape(pageURL)
	if err := g.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return "", err
	}
	return body.Title, nil
}

// FetchSnapshot downloads the user's full dataset for local assembly.
func (g *Gateway) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	var snapshot Snapshot
	if err := g.do(ctx, http.MethodGet, "/api/v1/sync/snapshot", nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// === Request plumbing ===

func (g *Gateway) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Client-ID", g.clientID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := g.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return g.decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (g *Gateway) decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err == nil {
		_ = json.Unmarshal(data, apiErr)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

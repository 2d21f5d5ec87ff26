package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/reelvault/reelvault-server/internal/domain"
	"github.com/reelvault/reelvault-server/internal/dto"
	"github.com/reelvault/reelvault-server/internal/id"
)

const (
	localIDPrefix      = "local-"
	streamRetryBackoff = 2 * time.Second
)

// Vault is the high-level client facade: it coordinates the gateway, the
// sync store, the session controller, and the optional offline cache into
// the workflows a UI calls.
type Vault struct {
	gateway *Gateway
	store   *SyncStore
	session *Controller
	cache   *Cache
	logger  *slog.Logger
}

// VaultOptions configures a Vault.
type VaultOptions struct {
	Gateway *Gateway
	Store   *SyncStore
	Session *Controller
	// Cache enables the offline fallback. Nil disables it.
	Cache  *Cache
	Logger *slog.Logger
}

// NewVault assembles a vault from its parts.
func NewVault(opts VaultOptions) (*Vault, error) {
	if opts.Gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if opts.Store == nil {
		opts.Store = NewSyncStore()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Vault{
		gateway: opts.Gateway,
		store:   opts.Store,
		session: opts.Session,
		cache:   opts.Cache,
		logger:  opts.Logger,
	}, nil
}

// Store exposes the underlying sync store for direct reads.
func (v *Vault) Store() *SyncStore {
	return v.store
}

// Session exposes the session controller, nil when the vault was built
// without one.
func (v *Vault) Session() *Controller {
	return v.session
}

// Sync refetches the full snapshot, assembles it, and reconciles the sync
// store. fromCache reports that the server was unreachable and the list was
// restored from the offline cache instead.
func (v *Vault) Sync(ctx context.Context) (fromCache bool, err error) {
	snapshot, err := v.gateway.FetchSnapshot(ctx)
	if err != nil {
		if v.cache == nil || isRemoteError(err) {
			return false, err
		}
		cached, cacheErr := v.cache.LoadAll(ctx)
		if cacheErr != nil {
			return false, fmt.Errorf("server unreachable and cache failed: %w", cacheErr)
		}
		v.store.ReplaceAll(cached)
		v.logger.Warn("serving clips from offline cache", slog.String("error", err.Error()))
		return true, nil
	}

	views := AssembleSnapshot(snapshot)
	v.store.ReplaceAll(views)

	if v.cache != nil {
		if err := v.cache.StoreSnapshot(ctx, views); err != nil {
			v.logger.Warn("failed to update offline cache", slog.String("error", err.Error()))
		}
	}
	return false, nil
}

// SaveClip runs the optimistic save workflow: validate, check for a local
// duplicate, insert a placeholder, then confirm against the server. On
// remote failure the placeholder is rolled back, except when the server is
// unreachable and a cache is configured, in which case the clip is kept
// under a local ID for the next reconcile.
func (v *Vault) SaveClip(ctx context.Context, req SaveClipRequest) (*dto.ClipView, error) {
	if err := validateClipURL(req.URL); err != nil {
		return nil, err
	}
	if v.hasURL(req.URL) {
		return nil, &Error{Status: http.StatusConflict, Code: "ALREADY_EXISTS", Message: "clip already saved"}
	}

	placeholder, err := buildPlaceholder(req)
	if err != nil {
		return nil, err
	}
	undo := v.store.InsertOptimistic(placeholder)

	confirmed, err := v.gateway.SaveClip(ctx, req)
	if err != nil {
		if v.cache != nil && !isRemoteError(err) {
			local, cacheErr := v.cache.StoreLocal(ctx, placeholder)
			if cacheErr == nil {
				v.store.Replace(placeholder.ID, local)
				v.logger.Warn("saved clip offline", slog.String("url", req.URL))
				return &local, nil
			}
			v.logger.Warn("offline save failed", slog.String("error", cacheErr.Error()))
		}
		undo()
		return nil, err
	}

	v.store.Replace(placeholder.ID, *confirmed)
	return confirmed, nil
}

// DeleteClip removes a clip remotely and from the local list. Local-only
// clips are dropped without a server round trip.
func (v *Vault) DeleteClip(ctx context.Context, clipID string) error {
	if strings.HasPrefix(clipID, localIDPrefix) {
		v.store.RemoveByID(clipID)
		return nil
	}

	if err := v.gateway.DeleteClip(ctx, clipID); err != nil {
		return err
	}
	v.store.RemoveByID(clipID)
	return nil
}

// List returns the filtered, sorted clip list from the sync store.
func (v *Vault) List(query, sortKey string) []dto.ClipView {
	return v.store.View(query, sortKey)
}

// Watch applies the change feed to the sync store until the context is
// canceled, reconnecting after connection drops. onEvent, when non-nil, is
// called for every applied event after the store is updated. Events echoing
// this client's own writes are skipped entirely.
func (v *Vault) Watch(ctx context.Context, onEvent func(RemoteEvent)) error {
	for {
		events, err := v.gateway.StreamEvents(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if isRemoteError(err) {
				// Auth or protocol failures will not fix themselves.
				return err
			}
			v.logger.Warn("change feed connection failed, retrying",
				slog.String("error", err.Error()))
		} else {
			for event := range events {
				if event.FromSelf(v.gateway.ClientID()) {
					continue
				}
				v.applyEvent(event)
				if onEvent != nil {
					onEvent(event)
				}
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(streamRetryBackoff):
		}
	}
}

func (v *Vault) applyEvent(event RemoteEvent) {
	switch event.Type {
	case EventClipCreated:
		v.store.ApplyRemoteInsert(*event.Clip, event.OriginClient, v.gateway.ClientID())
	case EventClipDeleted:
		v.store.RemoveByID(event.ClipID)
	}
	// Collection and tag events carry no list changes; subscribers that
	// render pickers refetch on them via onEvent.
}

func (v *Vault) hasURL(clipURL string) bool {
	for _, clip := range v.store.View("", SortByDate) {
		if strings.EqualFold(clip.URL, clipURL) {
			return true
		}
	}
	return false
}

// buildPlaceholder makes the optimistic view shown before the server
// confirms a save.
func buildPlaceholder(req SaveClipRequest) (dto.ClipView, error) {
	pendingID, err := id.Generate("pending")
	if err != nil {
		return dto.ClipView{}, fmt.Errorf("generate placeholder ID: %w", err)
	}

	collection := strings.TrimSpace(req.Collection)
	if collection == "" {
		collection = domain.DefaultCollectionName
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	return dto.ClipView{
		ID:         pendingID,
		URL:        req.URL,
		Title:      req.Title,
		Collection: collection,
		Tags:       tags,
		CreatedAt:  time.Now(),
	}, nil
}

// validateClipURL rejects URLs the server would refuse, before any
// optimistic state is created.
func validateClipURL(clipURL string) error {
	parsed, err := url.Parse(clipURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return &Error{Status: http.StatusBadRequest, Code: "VALIDATION", Message: "a valid http or https URL is required"}
	}
	return nil
}

// isRemoteError distinguishes API rejections from transport failures. Only
// transport failures trigger offline fallbacks.
func isRemoteError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr)
}

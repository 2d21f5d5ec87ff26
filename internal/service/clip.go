package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/reelvault/reelvault-server/internal/domain"
	"github.com/reelvault/reelvault-server/internal/dto"
	domainerrors "github.com/reelvault/reelvault-server/internal/errors"
	"github.com/reelvault/reelvault-server/internal/id"
	"github.com/reelvault/reelvault-server/internal/search"
	"github.com/reelvault/reelvault-server/internal/sse"
	"github.com/reelvault/reelvault-server/internal/store"
)

// ClipService implements the save, browse, and delete flows for clips.
type ClipService struct {
	store    *store.Store
	resolver *ResolverService
	events   *sse.Manager
	index    *search.ClipIndex
	titles   *TitleService
	logger   *slog.Logger
}

// NewClipService creates a new clip service.
func NewClipService(
	store *store.Store,
	resolver *ResolverService,
	events *sse.Manager,
	index *search.ClipIndex,
	titles *TitleService,
	logger *slog.Logger,
) *ClipService {
	return &ClipService{
		store:    store,
		resolver: resolver,
		events:   events,
		index:    index,
		titles:   titles,
		logger:   logger,
	}
}

// SaveClipRequest contains the data for saving a new clip.
type SaveClipRequest struct {
	URL          string   `json:"url" validate:"required,url,max=2048"`
	Title        string   `json:"title" validate:"max=500"`
	Collection   string   `json:"collection" validate:"max=100"`
	Tags         []string `json:"tags" validate:"max=50,dive,max=100"`
	UserID       string   `json:"-"` // From the access token
	OriginClient string   `json:"-"` // From the X-Client-ID header
}

// SaveClip runs the full save workflow: reject duplicates, resolve the
// collection and tags (creating them on first use), persist the clip and its
// associations, then index and broadcast the assembled view.
func (s *ClipService) SaveClip(ctx context.Context, req SaveClipRequest) (*dto.ClipView, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	// Duplicate pre-check. The store re-checks inside the write transaction,
	// so this exists to fail fast before any resolution side effects.
	exists, err := s.store.ClipURLExists(ctx, req.UserID, req.URL)
	if err != nil {
		return nil, fmt.Errorf("check clip URL: %w", err)
	}
	if exists {
		return nil, domainerrors.AlreadyExists("clip already saved")
	}

	title := req.Title
	if title == "" && s.titles != nil {
		// Best effort: a failed fetch just leaves the title empty.
		if fetched, err := s.titles.FetchTitle(ctx, req.URL); err == nil {
			title = fetched
		}
	}

	col, err := s.resolver.ResolveCollection(ctx, req.UserID, req.Collection, req.OriginClient)
	if err != nil {
		return nil, err
	}

	tags, err := s.resolver.ResolveTags(ctx, req.UserID, req.Tags, req.OriginClient)
	if err != nil {
		return nil, err
	}

	clipID, err := id.Generate(id.PrefixClip)
	if err != nil {
		return nil, fmt.Errorf("generate clip ID: %w", err)
	}

	clip := &domain.Clip{
		ID:     clipID,
		URL:    req.URL,
		Title:  title,
		UserID: req.UserID,
	}
	if col != nil {
		clip.CollectionID = col.ID
	}
	clip.CreatedAt = time.Now()

	if err := s.store.CreateClip(ctx, clip); err != nil {
		if errors.Is(err, store.ErrClipURLExists) {
			return nil, domainerrors.AlreadyExists("clip already saved")
		}
		return nil, fmt.Errorf("create clip: %w", err)
	}

	tagNames := make([]string, 0, len(tags))
	for _, tag := range tags {
		if err := s.store.AddTagToClip(ctx, clip.ID, tag.ID); err != nil {
			return nil, fmt.Errorf("link tag %s: %w", tag.ID, err)
		}
		tagNames = append(tagNames, tag.Name)
	}

	collectionName := ""
	if col != nil {
		collectionName = col.Name
	}
	view := dto.NewClipView(clip, collectionName, tagNames)

	if s.index != nil {
		if err := s.index.IndexClip(&view); err != nil {
			// Search lags behind, but the save itself succeeded.
			s.logger.Warn("failed to index clip",
				slog.String("clip_id", clip.ID),
				slog.String("error", err.Error()))
		}
	}

	if s.events != nil {
		s.events.Emit(sse.NewClipCreatedEvent(req.UserID, req.OriginClient, &view))
	}

	s.logger.Info("clip saved",
		slog.String("clip_id", clip.ID),
		slog.String("user_id", req.UserID),
		slog.Int("tags", len(tagNames)))

	return &view, nil
}

// DeleteClip removes a clip owned by the user, along with its associations.
func (s *ClipService) DeleteClip(ctx context.Context, userID, clipID, originClient string) error {
	clip, err := s.store.GetClip(ctx, clipID)
	if err != nil {
		if errors.Is(err, store.ErrClipNotFound) {
			return domainerrors.NotFound("clip not found")
		}
		return fmt.Errorf("get clip: %w", err)
	}
	if clip.UserID != userID {
		// Existence of another user's clip is not disclosed.
		return domainerrors.NotFound("clip not found")
	}

	if err := s.store.DeleteClip(ctx, clipID); err != nil {
		return fmt.Errorf("delete clip: %w", err)
	}

	if s.index != nil {
		if err := s.index.DeleteClip(clipID); err != nil {
			s.logger.Warn("failed to deindex clip",
				slog.String("clip_id", clipID),
				slog.String("error", err.Error()))
		}
	}

	if s.events != nil {
		s.events.Emit(sse.NewClipDeletedEvent(userID, originClient, clipID))
	}

	s.logger.Info("clip deleted",
		slog.String("clip_id", clipID),
		slog.String("user_id", userID))

	return nil
}

// ListClips returns all of a user's clips as assembled views, newest first.
func (s *ClipService) ListClips(ctx context.Context, userID string) ([]dto.ClipView, error) {
	clips, err := s.store.ListClipsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}

	collectionNames, err := s.collectionNamesByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]dto.ClipView, 0, len(clips))
	for _, clip := range clips {
		tags, err := s.store.GetTagsForClip(ctx, clip.ID)
		if err != nil {
			return nil, fmt.Errorf("get tags for clip %s: %w", clip.ID, err)
		}
		tagNames := make([]string, 0, len(tags))
		for _, tag := range tags {
			tagNames = append(tagNames, tag.Name)
		}
		views = append(views, dto.NewClipView(clip, collectionNames[clip.CollectionID], tagNames))
	}

	return views, nil
}

// GetClip returns one assembled clip view, enforcing ownership.
func (s *ClipService) GetClip(ctx context.Context, userID, clipID string) (*dto.ClipView, error) {
	clip, err := s.store.GetClip(ctx, clipID)
	if err != nil {
		if errors.Is(err, store.ErrClipNotFound) {
			return nil, domainerrors.NotFound("clip not found")
		}
		return nil, fmt.Errorf("get clip: %w", err)
	}
	if clip.UserID != userID {
		return nil, domainerrors.NotFound("clip not found")
	}

	collectionName := ""
	if clip.CollectionID != "" {
		if col, err := s.store.GetCollection(ctx, clip.CollectionID); err == nil {
			collectionName = col.Name
		}
	}

	tags, err := s.store.GetTagsForClip(ctx, clip.ID)
	if err != nil {
		return nil, fmt.Errorf("get tags: %w", err)
	}
	tagNames := make([]string, 0, len(tags))
	for _, tag := range tags {
		tagNames = append(tagNames, tag.Name)
	}

	view := dto.NewClipView(clip, collectionName, tagNames)
	return &view, nil
}

// Snapshot returns the user's full normalized state for client sync.
func (s *ClipService) Snapshot(ctx context.Context, userID string) (*dto.Snapshot, error) {
	clips, err := s.store.ListClipsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	collections, err := s.store.ListCollectionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	tags, err := s.store.ListTagsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	assocs, err := s.store.ListAssociationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list associations: %w", err)
	}

	// Never nil so clients can rely on empty slices.
	if clips == nil {
		clips = []*domain.Clip{}
	}
	if collections == nil {
		collections = []*domain.Collection{}
	}
	if tags == nil {
		tags = []*domain.Tag{}
	}
	if assocs == nil {
		assocs = []*domain.Association{}
	}

	return &dto.Snapshot{
		Clips:        clips,
		Collections:  collections,
		Tags:         tags,
		Associations: assocs,
	}, nil
}

// Search runs a full-text search over the user's clips.
func (s *ClipService) Search(ctx context.Context, userID, query string, limit, offset int) (*search.Result, error) {
	if s.index == nil {
		return nil, domainerrors.Internal("search is not available")
	}

	params := search.DefaultParams()
	params.UserID = userID
	params.Query = query
	if limit > 0 {
		params.Limit = limit
	}
	if offset > 0 {
		params.Offset = offset
	}

	result, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search clips: %w", err)
	}
	return result, nil
}

// IndexDocCount reports the number of documents in the search index.
// ok=false means no index is configured.
func (s *ClipService) IndexDocCount() (count uint64, ok bool, err error) {
	if s.index == nil {
		return 0, false, nil
	}
	count, err = s.index.DocCount()
	return count, true, err
}

// Reindex rebuilds the search index from the store for one user.
// Used after an index mapping rebuild.
func (s *ClipService) Reindex(ctx context.Context, userID string) (int, error) {
	if s.index == nil {
		return 0, nil
	}

	views, err := s.ListClips(ctx, userID)
	if err != nil {
		return 0, err
	}

	for i := range views {
		if err := s.index.IndexClip(&views[i]); err != nil {
			return i, fmt.Errorf("index clip %s: %w", views[i].ID, err)
		}
	}

	return len(views), nil
}

func (s *ClipService) collectionNamesByID(ctx context.Context, userID string) (map[string]string, error) {
	collections, err := s.store.ListCollectionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	names := make(map[string]string, len(collections))
	for _, col := range collections {
		names[col.ID] = col.Name
	}
	return names, nil
}

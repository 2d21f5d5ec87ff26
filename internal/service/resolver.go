package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/reelvault/reelvault-server/internal/domain"
	"github.com/reelvault/reelvault-server/internal/normalize"
	"github.com/reelvault/reelvault-server/internal/sse"
	"github.com/reelvault/reelvault-server/internal/store"
)

// ResolverService turns free-form collection and tag input into stored
// entities, creating them on first use. Resolution is atomic per entity:
// concurrent saves of the same new name converge on one record.
type ResolverService struct {
	store  *store.Store
	events *sse.Manager
	logger *slog.Logger
}

// NewResolverService creates a new resolver service.
func NewResolverService(store *store.Store, events *sse.Manager, logger *slog.Logger) *ResolverService {
	return &ResolverService{
		store:  store,
		events: events,
		logger: logger,
	}
}

// ResolveCollection maps a raw collection name to a collection record,
// creating it if the user has never used the name. Blank input resolves to
// no collection at all (the client renders those under "None").
//
// Returns the collection, or nil for blank input.
func (s *ResolverService) ResolveCollection(ctx context.Context, userID, rawName, originClient string) (*domain.Collection, error) {
	name := normalize.Collection(rawName)
	if name == "" || name == domain.DefaultCollectionName {
		// "None" is a display label, not a stored collection.
		return nil, nil
	}

	col, created, err := s.store.FindOrCreateCollection(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("find or create collection %q: %w", name, err)
	}

	if created {
		s.logger.Debug("collection created",
			slog.String("user_id", userID),
			slog.String("collection_id", col.ID),
			slog.String("name", col.Name))
		if s.events != nil {
			s.events.Emit(sse.NewCollectionCreatedEvent(userID, originClient, col.ID, col.Name))
		}
	}

	return col, nil
}

// ResolveTags maps raw tag input to tag records, normalizing each name,
// dropping entries that normalize to nothing, and deduplicating the rest.
// Tags the user has never used are created.
//
// The returned slice preserves first-occurrence order of the input.
func (s *ResolverService) ResolveTags(ctx context.Context, userID string, rawTags []string, originClient string) ([]*domain.Tag, error) {
	seen := make(map[string]bool, len(rawTags))
	tags := make([]*domain.Tag, 0, len(rawTags))

	for _, raw := range rawTags {
		name := normalize.Tag(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		tag, created, err := s.store.FindOrCreateTag(ctx, userID, name)
		if err != nil {
			return nil, fmt.Errorf("find or create tag %q: %w", name, err)
		}

		if created {
			s.logger.Debug("tag created",
				slog.String("user_id", userID),
				slog.String("tag_id", tag.ID),
				slog.String("name", tag.Name))
			if s.events != nil {
				s.events.Emit(sse.NewTagCreatedEvent(userID, originClient, tag.ID, tag.Name))
			}
		}

		tags = append(tags, tag)
	}

	return tags, nil
}

// SplitTagInput splits comma-separated tag input into raw entries.
// Clients may send tags either as a list or one comma-joined string.
func SplitTagInput(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	return strings.Split(input, ",")
}

// Package search provides full-text search over saved clips using Bleve.
// Clips are indexed with their title, tag names, and collection name so a
// single query matches any of the three.
package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/reelvault/reelvault-server/internal/dto"
)

// mappingVersion is incremented whenever the index mapping changes.
// A mismatch on startup triggers an automatic rebuild.
const mappingVersion = "1"

// ClipIndex wraps a Bleve index with clip-specific operations.
//
// Thread safety: all public methods are safe for concurrent use. The mutex
// protects against index swaps during rebuild.
type ClipIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the clip index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Logger for operations (uses stderr if nil)
}

// NewClipIndex creates or opens the clip search index. An existing index with
// an outdated mapping version is removed and recreated; callers should reindex
// from the store when that happens.
func NewClipIndex(opts Options) (*ClipIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	indexPath := filepath.Join(opts.DataPath, "search.bleve")
	versionPath := filepath.Join(opts.DataPath, "search.version")

	if _, err := os.Stat(indexPath); err == nil {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil || string(existingVersion) != mappingVersion {
			logger.Info("search index mapping outdated, rebuilding",
				"new_version", mappingVersion)
			if err := os.RemoveAll(indexPath); err != nil {
				return nil, fmt.Errorf("remove outdated index: %w", err)
			}
		}
	}

	var index bleve.Index
	index, err := bleve.Open(indexPath)
	if err != nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create search index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o600); err != nil {
			return nil, fmt.Errorf("write index version: %w", err)
		}
	}

	return &ClipIndex{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// IndexClip adds or updates a clip in the index. The assembled view is used
// so tag and collection names are denormalized into the document.
func (s *ClipIndex) IndexClip(view *dto.ClipView) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := clipToDocument(view)
	if err := s.index.Index(view.ID, doc.ToMap()); err != nil {
		return fmt.Errorf("index clip %s: %w", view.ID, err)
	}
	return nil
}

// DeleteClip removes a clip from the index.
func (s *ClipIndex) DeleteClip(clipID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.index.Delete(clipID); err != nil {
		return fmt.Errorf("delete clip %s from index: %w", clipID, err)
	}
	return nil
}

// DocCount returns the number of indexed clips.
func (s *ClipIndex) DocCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Close closes the underlying index.
func (s *ClipIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

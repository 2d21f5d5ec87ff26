package dto

import (
	"github.com/reelvault/reelvault-server/internal/domain"
)

// Snapshot is the full normalized state of one user's vault, as served by
// the sync endpoint. Clients join the four row sets locally into views;
// shipping raw rows keeps the payload small and lets clients rebuild their
// cache in one round trip.
type Snapshot struct {
	Clips        []*domain.Clip        `json:"clips"`
	Collections  []*domain.Collection  `json:"collections"`
	Tags         []*domain.Tag         `json:"tags"`
	Associations []*domain.Association `json:"associations"`
}

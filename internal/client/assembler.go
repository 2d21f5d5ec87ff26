package client

import (
	"time"

	"github.com/reelvault/reelvault-server/internal/domain"
	"github.com/reelvault/reelvault-server/internal/dto"
)

// Assembler joins normalized snapshot rows into renderable clip views.
// It holds the collection name index so the per-clip join stays a pure
// function of clips and associations.
type Assembler struct {
	collectionNames map[string]string
}

// NewAssembler builds an assembler over the given collections.
func NewAssembler(collections []Collection) *Assembler {
	names := make(map[string]string, len(collections))
	for _, c := range collections {
		names[c.ID] = c.Name
	}
	return &Assembler{collectionNames: names}
}

// Assemble maps every clip row to a flat view, joining in its tag names and
// collection display name. Output preserves input order and length: a clip
// with no matching collection or tags still yields a view, with the "None"
// label and an empty tag list. Tag names keep the order associations arrive
// in, first appearance wins on duplicates.
func (a *Assembler) Assemble(clips []ClipRow, associations []Association) []dto.ClipView {
	tagsByClip := make(map[string][]string, len(clips))
	seen := make(map[string]map[string]bool)
	for _, assoc := range associations {
		if assoc.TagName == "" {
			continue
		}
		if seen[assoc.ClipID] == nil {
			seen[assoc.ClipID] = make(map[string]bool)
		}
		if seen[assoc.ClipID][assoc.TagName] {
			continue
		}
		seen[assoc.ClipID][assoc.TagName] = true
		tagsByClip[assoc.ClipID] = append(tagsByClip[assoc.ClipID], assoc.TagName)
	}

	views := make([]dto.ClipView, len(clips))
	for i, clip := range clips {
		collection := a.collectionNames[clip.CollectionID]
		if collection == "" {
			collection = domain.DefaultCollectionName
		}

		tags := tagsByClip[clip.ID]
		if tags == nil {
			tags = []string{}
		}

		views[i] = dto.ClipView{
			ID:           clip.ID,
			URL:          clip.URL,
			Title:        clip.Title,
			CollectionID: clip.CollectionID,
			Collection:   collection,
			Tags:         tags,
			CreatedAt:    time.UnixMilli(clip.CreatedAt),
		}
	}
	return views
}

// AssembleSnapshot is the single-call form over a full snapshot.
func AssembleSnapshot(snapshot *Snapshot) []dto.ClipView {
	return NewAssembler(snapshot.Collections).Assemble(snapshot.Clips, snapshot.Associations)
}

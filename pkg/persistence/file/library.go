package file

import (
	"context"
	"sort"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
)

const (
	knowledgeDir = "knowledge"
	mediaDir     = "media"
)

// KnowledgeRepository stores knowledge-base entries as JSON files.
type KnowledgeRepository struct {
	root string
}

func NewKnowledgeRepository(root string) *KnowledgeRepository {
	return &KnowledgeRepository{root: root}
}

func (kr *KnowledgeRepository) List(_ context.Context) ([]*models.KnowledgeBaseEntry, error) {
	entries, err := listEntities[models.KnowledgeBaseEntry](kr.root, knowledgeDir)
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})

	return entries, nil
}

func (kr *KnowledgeRepository) GetByID(_ context.Context, id string) (*models.KnowledgeBaseEntry, error) {
	return loadEntity[models.KnowledgeBaseEntry](kr.root, knowledgeDir, id, persistence.ErrKnowledgeNotFound)
}

func (kr *KnowledgeRepository) Save(_ context.Context, entry *models.KnowledgeBaseEntry) error {
	return saveEntity(kr.root, knowledgeDir, entry.ID, entry)
}

func (kr *KnowledgeRepository) Delete(_ context.Context, id string) error {
	return deleteEntity(kr.root, knowledgeDir, id)
}

// MediaRepository stores media asset metadata as JSON files.
type MediaRepository struct {
	root string
}

func NewMediaRepository(root string) *MediaRepository {
	return &MediaRepository{root: root}
}

func (mr *MediaRepository) List(_ context.Context, folder string) ([]*models.MediaAsset, error) {
	assets, err := listEntities[models.MediaAsset](mr.root, mediaDir)
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.MediaAsset, 0, len(assets))

	for _, asset := range assets {
		if folder != "" && asset.Folder != folder {
			continue
		}

		filtered = append(filtered, asset)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Name < filtered[j].Name
	})

	return filtered, nil
}

func (mr *MediaRepository) GetByID(_ context.Context, id string) (*models.MediaAsset, error) {
	return loadEntity[models.MediaAsset](mr.root, mediaDir, id, persistence.ErrMediaNotFound)
}

func (mr *MediaRepository) Save(_ context.Context, asset *models.MediaAsset) error {
	return saveEntity(mr.root, mediaDir, asset.ID, asset)
}

func (mr *MediaRepository) Delete(_ context.Context, id string) error {
	return deleteEntity(mr.root, mediaDir, id)
}

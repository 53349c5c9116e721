package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
)

// KnowledgeRepository handles knowledge-base database operations.
type KnowledgeRepository struct {
	db *sql.DB
}

func NewKnowledgeRepository(db *sql.DB) *KnowledgeRepository {
	return &KnowledgeRepository{db: db}
}

func (r *KnowledgeRepository) List(ctx context.Context) ([]*models.KnowledgeBaseEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, title, content, tags FROM knowledge_entries ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge entries: %w", err)
	}

	defer func() { _ = rows.Close() }()

	entries := make([]*models.KnowledgeBaseEntry, 0)

	for rows.Next() {
		entry, err := scanKnowledgeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan knowledge entry: %w", err)
		}

		entries = append(entries, entry)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating knowledge entries: %w", err)
	}

	return entries, nil
}

func (r *KnowledgeRepository) GetByID(ctx context.Context, id string) (*models.KnowledgeBaseEntry, error) {
	entry, err := scanKnowledgeEntry(r.db.QueryRowContext(ctx,
		"SELECT id, title, content, tags FROM knowledge_entries WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrKnowledgeNotFound, id)
		}

		return nil, fmt.Errorf("failed to scan knowledge entry: %w", err)
	}

	return entry, nil
}

func (r *KnowledgeRepository) Save(ctx context.Context, entry *models.KnowledgeBaseEntry) error {
	query := `
		INSERT INTO knowledge_entries (id, title, content, tags)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			tags = EXCLUDED.tags
	`

	_, err := r.db.ExecContext(ctx, query, entry.ID, entry.Title, entry.Content, pq.Array(entry.Tags))
	if err != nil {
		return fmt.Errorf("failed to save knowledge entry %s: %w", entry.ID, err)
	}

	return nil
}

func (r *KnowledgeRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM knowledge_entries WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete knowledge entry %s: %w", id, err)
	}

	return nil
}

func scanKnowledgeEntry(row rowScanner) (*models.KnowledgeBaseEntry, error) {
	var (
		entry models.KnowledgeBaseEntry
		tags  pq.StringArray
	)

	err := row.Scan(&entry.ID, &entry.Title, &entry.Content, &tags)
	if err != nil {
		return nil, err
	}

	entry.Tags = tags

	return &entry, nil
}

// MediaRepository handles media asset metadata database operations.
type MediaRepository struct {
	db *sql.DB
}

func NewMediaRepository(db *sql.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

const mediaColumns = "id, name, folder, mime_type, url"

func (r *MediaRepository) List(ctx context.Context, folder string) ([]*models.MediaAsset, error) {
	query := "SELECT " + mediaColumns + " FROM media_assets"
	args := []any{}

	if folder != "" {
		query += " WHERE folder = $1"
		args = append(args, folder)
	}

	query += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query media assets: %w", err)
	}

	defer func() { _ = rows.Close() }()

	assets := make([]*models.MediaAsset, 0)

	for rows.Next() {
		var asset models.MediaAsset

		err := rows.Scan(&asset.ID, &asset.Name, &asset.Folder, &asset.MimeType, &asset.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media asset: %w", err)
		}

		assets = append(assets, &asset)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating media assets: %w", err)
	}

	return assets, nil
}

func (r *MediaRepository) GetByID(ctx context.Context, id string) (*models.MediaAsset, error) {
	var asset models.MediaAsset

	err := r.db.QueryRowContext(ctx,
		"SELECT "+mediaColumns+" FROM media_assets WHERE id = $1", id).
		Scan(&asset.ID, &asset.Name, &asset.Folder, &asset.MimeType, &asset.URL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrMediaNotFound, id)
		}

		return nil, fmt.Errorf("failed to scan media asset: %w", err)
	}

	return &asset, nil
}

func (r *MediaRepository) Save(ctx context.Context, asset *models.MediaAsset) error {
	query := `
		INSERT INTO media_assets (id, name, folder, mime_type, url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			folder = EXCLUDED.folder,
			mime_type = EXCLUDED.mime_type,
			url = EXCLUDED.url
	`

	_, err := r.db.ExecContext(ctx, query, asset.ID, asset.Name, asset.Folder, asset.MimeType, asset.URL)
	if err != nil {
		return fmt.Errorf("failed to save media asset %s: %w", asset.ID, err)
	}

	return nil
}

func (r *MediaRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM media_assets WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete media asset %s: %w", id, err)
	}

	return nil
}

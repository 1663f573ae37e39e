package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Aramushaa/LingoDojo/pkg/models"
)

// ItemRepository handles database operations for packs and their items
type ItemRepository struct{}

// NewItemRepository creates a new repository instance
func NewItemRepository() *ItemRepository {
	return &ItemRepository{}
}

// GetItem returns an item by id, or nil if it no longer exists
func (r *ItemRepository) GetItem(ctx context.Context, itemID int64) (*models.Item, error) {
	var item models.Item
	query := rebind(`SELECT * FROM pack_items WHERE item_id = ?`)
	err := DB.GetContext(ctx, &item, query, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %v", err)
	}
	return &item, nil
}

// GetPack returns a pack by id, or nil if unknown
func (r *ItemRepository) GetPack(ctx context.Context, packID string) (*models.Pack, error) {
	var pack models.Pack
	query := rebind(`SELECT * FROM packs WHERE pack_id = ?`)
	err := DB.GetContext(ctx, &pack, query, packID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pack: %v", err)
	}
	return &pack, nil
}

// AllPacks returns every imported pack, easiest level first
func (r *ItemRepository) AllPacks(ctx context.Context) ([]models.Pack, error) {
	var packs []models.Pack
	query := `SELECT * FROM packs ORDER BY level ASC, title ASC`
	if err := DB.SelectContext(ctx, &packs, query); err != nil {
		return nil, fmt.Errorf("failed to get packs: %v", err)
	}
	return packs, nil
}

// ActivePacks returns the packs the user has activated, easiest level first
func (r *ItemRepository) ActivePacks(ctx context.Context, userID int64) ([]models.Pack, error) {
	var packs []models.Pack
	query := rebind(`
		SELECT p.* FROM packs p
		JOIN user_packs up ON up.pack_id = p.pack_id
		WHERE up.user_id = ?
		ORDER BY p.level ASC, p.title ASC
	`)
	if err := DB.SelectContext(ctx, &packs, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get active packs: %v", err)
	}
	return packs, nil
}

// ActivatePack subscribes the user to a pack; repeat calls are no-ops
func (r *ItemRepository) ActivatePack(ctx context.Context, userID int64, packID string) error {
	query := rebind(`
		INSERT INTO user_packs (user_id, pack_id)
		VALUES (?, ?)
		ON CONFLICT(user_id, pack_id) DO NOTHING
	`)
	if _, err := DB.ExecContext(ctx, query, userID, packID); err != nil {
		return fmt.Errorf("failed to activate pack: %v", err)
	}
	return nil
}

// DeactivatePack unsubscribes the user from a pack
func (r *ItemRepository) DeactivatePack(ctx context.Context, userID int64, packID string) error {
	query := rebind(`DELETE FROM user_packs WHERE user_id = ? AND pack_id = ?`)
	if _, err := DB.ExecContext(ctx, query, userID, packID); err != nil {
		return fmt.Errorf("failed to deactivate pack: %v", err)
	}
	return nil
}

// NextNewItem picks the next item the user has never seen, across their
// active packs: easiest pack level first, then pack title, then item id.
// Returns nil when nothing new remains.
func (r *ItemRepository) NextNewItem(ctx context.Context, userID int64) (*models.Item, error) {
	var item models.Item
	query := rebind(`
		SELECT i.* FROM pack_items i
		JOIN packs p ON p.pack_id = i.pack_id
		JOIN user_packs up ON up.pack_id = i.pack_id AND up.user_id = ?
		WHERE NOT EXISTS (
			SELECT 1 FROM reviews rv WHERE rv.user_id = ? AND rv.item_id = i.item_id
		)
		ORDER BY p.level ASC, p.title ASC, i.item_id ASC
		LIMIT 1
	`)
	err := DB.GetContext(ctx, &item, query, userID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pick next new item: %v", err)
	}
	return &item, nil
}

// IsItemActive reports whether the item still exists and belongs to one of
// the user's active packs. Used to prune stale review rows.
func (r *ItemRepository) IsItemActive(ctx context.Context, userID, itemID int64) (bool, error) {
	var n int
	query := rebind(`
		SELECT COUNT(*) FROM pack_items i
		JOIN user_packs up ON up.pack_id = i.pack_id AND up.user_id = ?
		WHERE i.item_id = ?
	`)
	if err := DB.GetContext(ctx, &n, query, userID, itemID); err != nil {
		return false, fmt.Errorf("failed to check item: %v", err)
	}
	return n > 0, nil
}

// SiblingTranslations returns up to limit distinct translations of other
// items in the same pack, in random order. Quiz distractor source.
func (r *ItemRepository) SiblingTranslations(ctx context.Context, item *models.Item, limit int) ([]string, error) {
	var out []string
	query := rebind(`
		SELECT DISTINCT translation FROM pack_items
		WHERE pack_id = ? AND item_id != ? AND translation != '' AND translation != ?
		ORDER BY RANDOM()
		LIMIT ?
	`)
	if err := DB.SelectContext(ctx, &out, query, item.PackID, item.ID, item.Translation, limit); err != nil {
		return nil, fmt.Errorf("failed to get sibling translations: %v", err)
	}
	return out, nil
}

// LearnedTerms returns the terms of pack items the user already has review
// rows for. Feeds scenario prerequisite matching.
func (r *ItemRepository) LearnedTerms(ctx context.Context, userID int64, packID string) ([]string, error) {
	var terms []string
	query := rebind(`
		SELECT i.term FROM pack_items i
		JOIN reviews rv ON rv.item_id = i.item_id AND rv.user_id = ?
		WHERE i.pack_id = ?
	`)
	if err := DB.SelectContext(ctx, &terms, query, userID, packID); err != nil {
		return nil, fmt.Errorf("failed to get learned terms: %v", err)
	}
	return terms, nil
}

// PackProgress returns per-pack introduced/total counts for the user's
// active packs. Derived on demand, never cached.
func (r *ItemRepository) PackProgress(ctx context.Context, userID int64) ([]models.PackProgress, error) {
	var rows []models.PackProgress
	query := rebind(`
		SELECT p.pack_id AS pack_id, p.title AS title,
			COUNT(i.item_id) AS total,
			COUNT(rv.item_id) AS introduced
		FROM packs p
		JOIN user_packs up ON up.pack_id = p.pack_id AND up.user_id = ?
		LEFT JOIN pack_items i ON i.pack_id = p.pack_id
		LEFT JOIN reviews rv ON rv.item_id = i.item_id AND rv.user_id = ?
		GROUP BY p.pack_id, p.title
		ORDER BY p.level ASC, p.title ASC
	`)
	if err := DB.SelectContext(ctx, &rows, query, userID, userID); err != nil {
		return nil, fmt.Errorf("failed to get pack progress: %v", err)
	}
	return rows, nil
}

// UpsertPack inserts or replaces a pack definition during import
func (r *ItemRepository) UpsertPack(ctx context.Context, pack *models.Pack) error {
	query := rebind(`
		INSERT INTO packs (pack_id, target_language, level, title, description, chunk_size)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(pack_id) DO UPDATE SET
			target_language = excluded.target_language,
			level = excluded.level,
			title = excluded.title,
			description = excluded.description,
			chunk_size = excluded.chunk_size
	`)
	_, err := DB.ExecContext(ctx, query,
		pack.ID, pack.TargetLanguage, pack.Level, pack.Title, pack.Description, pack.ChunkSize)
	if err != nil {
		return fmt.Errorf("failed to upsert pack: %v", err)
	}
	return nil
}

// UpsertItem inserts a pack item, updating its fields if the (pack, term)
// pair already exists. Item ids stay stable across re-imports.
func (r *ItemRepository) UpsertItem(ctx context.Context, item *models.Item) error {
	query := rebind(`
		INSERT INTO pack_items (
			pack_id, term, translation, focus, phase, register,
			risk, cultural_note, scenario_prompt, context_sentence
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pack_id, term) DO UPDATE SET
			translation = excluded.translation,
			focus = excluded.focus,
			phase = excluded.phase,
			register = excluded.register,
			risk = excluded.risk,
			cultural_note = excluded.cultural_note,
			scenario_prompt = excluded.scenario_prompt,
			context_sentence = excluded.context_sentence
	`)
	_, err := DB.ExecContext(ctx, query,
		item.PackID, item.Term, item.Translation, item.Focus, item.Phase, item.Register,
		item.Risk, item.CulturalNote, item.ScenarioPrompt, item.ContextSentence)
	if err != nil {
		return fmt.Errorf("failed to upsert item: %v", err)
	}
	return nil
}

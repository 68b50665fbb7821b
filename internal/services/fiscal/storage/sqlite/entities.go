package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/cabinet/internal/services/fiscal/storage"
)

// PutEntity inserts or updates an entity. CreatedAt is kept on update. A
// changed snapshot marks the entity's runs stale in the same transaction.
func (s *Store) PutEntity(ctx context.Context, entity storage.EntityRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	entity.ID = strings.TrimSpace(entity.ID)
	entity.Name = strings.TrimSpace(entity.Name)
	if entity.ID == "" {
		return fmt.Errorf("entity id is required")
	}
	if entity.Name == "" {
		return fmt.Errorf("entity name is required")
	}
	now := s.now().UTC()
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = now
	}
	if entity.UpdatedAt.IsZero() {
		entity.UpdatedAt = now
	}
	payload, err := json.Marshal(entity.Snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	return s.inTx(ctx, "put entity", func(tx *sql.Tx) error {
		var previous string
		err := tx.QueryRowContext(ctx, `SELECT snapshot_json FROM entities WHERE id = ?`, entity.ID).Scan(&previous)
		existed := err == nil
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("load entity snapshot: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO entities (id, name, snapshot_json, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	snapshot_json = excluded.snapshot_json,
	updated_at = excluded.updated_at
`,
			entity.ID,
			entity.Name,
			string(payload),
			toMillis(entity.CreatedAt),
			toMillis(entity.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("put entity: %w", err)
		}
		if !existed || previous == string(payload) {
			return nil
		}
		// Runs were generated from the old snapshot.
		if _, err := tx.ExecContext(ctx, `UPDATE runs SET stale_at = ? WHERE entity_id = ?`, toMillis(now), entity.ID); err != nil {
			return fmt.Errorf("mark entity runs stale: %w", err)
		}
		return nil
	})
}

// GetEntity loads one entity.
func (s *Store) GetEntity(ctx context.Context, id string) (storage.EntityRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.EntityRecord{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.EntityRecord{}, fmt.Errorf("entity id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, name, snapshot_json, created_at, updated_at
FROM entities
WHERE id = ?
`, id)
	entity, err := scanEntity(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.EntityRecord{}, storage.ErrNotFound
		}
		return storage.EntityRecord{}, fmt.Errorf("get entity: %w", err)
	}
	return entity, nil
}

// ListEntities lists entities by name.
func (s *Store) ListEntities(ctx context.Context) ([]storage.EntityRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, name, snapshot_json, created_at, updated_at
FROM entities
ORDER BY name, id
`)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var entities []storage.EntityRecord
	for rows.Next() {
		entity, err := scanEntity(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}
	return entities, nil
}

func scanEntity(scan scanner) (storage.EntityRecord, error) {
	var entity storage.EntityRecord
	var payload string
	var createdAt, updatedAt int64
	if err := scan(&entity.ID, &entity.Name, &payload, &createdAt, &updatedAt); err != nil {
		return storage.EntityRecord{}, err
	}
	if err := json.Unmarshal([]byte(payload), &entity.Snapshot); err != nil {
		return storage.EntityRecord{}, fmt.Errorf("decode snapshot for entity %s: %w", entity.ID, err)
	}
	entity.CreatedAt = fromMillis(createdAt)
	entity.UpdatedAt = fromMillis(updatedAt)
	return entity, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/decisiongraph"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/rules"
	"github.com/louisbranch/cabinet/internal/services/fiscal/storage"
)

// ReplaceRules stores list as the complete rule set and marks runs stale.
func (s *Store) ReplaceRules(ctx context.Context, list []rules.Rule) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	payloads := make([]string, len(list))
	for i, rule := range list {
		encoded, err := json.Marshal(rule)
		if err != nil {
			return fmt.Errorf("encode rule %q: %w", rule.Name, err)
		}
		payloads[i] = string(encoded)
	}
	now := s.now().UTC()

	return s.inTx(ctx, "replace rules", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM rules`); err != nil {
			return fmt.Errorf("clear rules: %w", err)
		}
		for i, payload := range payloads {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO rules (position, rule_json, updated_at) VALUES (?, ?, ?)
`, i, payload, toMillis(now)); err != nil {
				return fmt.Errorf("insert rule %d: %w", i, err)
			}
		}
		return markStale(ctx, tx, now)
	})
}

// ListRules loads the rule set in stored order.
func (s *Store) ListRules(ctx context.Context) ([]rules.Rule, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT rule_json FROM rules ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var list []rules.Rule
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		var rule rules.Rule
		if err := json.Unmarshal([]byte(payload), &rule); err != nil {
			return nil, fmt.Errorf("decode rule: %w", err)
		}
		list = append(list, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return list, nil
}

// PutGraph stores g as the decision graph and marks runs stale.
func (s *Store) PutGraph(ctx context.Context, g decisiongraph.Graph) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	payload, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	now := s.now().UTC()

	return s.inTx(ctx, "put graph", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO decision_graph (id, graph_json, updated_at) VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	graph_json = excluded.graph_json,
	updated_at = excluded.updated_at
`, string(payload), toMillis(now)); err != nil {
			return fmt.Errorf("put graph: %w", err)
		}
		return markStale(ctx, tx, now)
	})
}

// GetGraph loads the decision graph. A missing graph yields an empty record.
func (s *Store) GetGraph(ctx context.Context) (storage.GraphRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.GraphRecord{}, err
	}
	var payload string
	var updatedAt int64
	err := s.sqlDB.QueryRowContext(ctx, `SELECT graph_json, updated_at FROM decision_graph WHERE id = 1`).Scan(&payload, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.GraphRecord{}, nil
		}
		return storage.GraphRecord{}, fmt.Errorf("get graph: %w", err)
	}
	record := storage.GraphRecord{UpdatedAt: fromMillis(updatedAt)}
	if err := json.Unmarshal([]byte(payload), &record.Graph); err != nil {
		return storage.GraphRecord{}, fmt.Errorf("decode graph: %w", err)
	}
	return record, nil
}

// ClearGraph removes the decision graph and marks runs stale.
func (s *Store) ClearGraph(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	now := s.now().UTC()
	return s.inTx(ctx, "clear graph", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM decision_graph`)
		if err != nil {
			return fmt.Errorf("clear graph: %w", err)
		}
		if removed, _ := result.RowsAffected(); removed == 0 {
			return nil
		}
		return markStale(ctx, tx, now)
	})
}

func markStale(ctx context.Context, execer sqlExecer, at time.Time) error {
	if _, err := execer.ExecContext(ctx, `UPDATE runs SET stale_at = ?`, toMillis(at)); err != nil {
		return fmt.Errorf("mark runs stale: %w", err)
	}
	return nil
}

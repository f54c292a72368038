package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// StrategyRecord is a named strategy source that passed validation before
// it was stored.
type StrategyRecord struct {
	Name    string
	Dialect string
	Source  string
	Created time.Time
	Updated time.Time
}

// SaveStrategy inserts or replaces a strategy by name.
func (j *SQLite) SaveStrategy(ctx context.Context, s StrategyRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now().UTC()
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO strategies (name, dialect, source, created, updated)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			dialect = excluded.dialect,
			source = excluded.source,
			updated = excluded.updated`,
		s.Name, s.Dialect, s.Source, now, now,
	)
	if err != nil {
		return fmt.Errorf("journal: save strategy %q: %w", s.Name, err)
	}
	return nil
}

func (j *SQLite) GetStrategy(ctx context.Context, name string) (StrategyRecord, error) {
	var s StrategyRecord
	err := j.db.QueryRowContext(ctx, `
		SELECT name, dialect, source, created, updated
		FROM strategies WHERE name = ?`, name).Scan(
		&s.Name, &s.Dialect, &s.Source, &s.Created, &s.Updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return StrategyRecord{}, fmt.Errorf("strategy %q: %w", name, ErrNotFound)
	}
	return s, err
}

// ListStrategies returns stored strategies ordered by name.
func (j *SQLite) ListStrategies(ctx context.Context) ([]StrategyRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT name, dialect, source, created, updated
		FROM strategies ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StrategyRecord
	for rows.Next() {
		var s StrategyRecord
		if err := rows.Scan(&s.Name, &s.Dialect, &s.Source, &s.Created, &s.Updated); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (j *SQLite) DeleteStrategy(ctx context.Context, name string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	res, err := j.db.ExecContext(ctx, `DELETE FROM strategies WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("strategy %q: %w", name, ErrNotFound)
	}
	return nil
}

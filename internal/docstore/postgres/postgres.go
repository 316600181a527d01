// Package postgres implements docstore.Store on a single JSONB table.
// Documents are addressed by (collection, id); merge-writes are performed
// read-modify-write inside a transaction so field deletes and nested
// merges behave identically to the in-memory store.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/dayhubapp/dayhub/internal/common"
	"github.com/dayhubapp/dayhub/internal/dbx"
	"github.com/dayhubapp/dayhub/internal/docstore"
	"github.com/dayhubapp/dayhub/internal/docstore/postgres/migrations"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL via the pgx stdlib driver, applies pending
// migrations and returns a ready Store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing connection without running migrations.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	query := `SELECT data FROM documents WHERE collection = $1 AND id = $2`

	var raw []byte
	err := s.db.QueryRowContext(ctx, query, collection, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	var doc docstore.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	// Merge into an empty map first so Delete sentinels never get
	// marshaled.
	raw, err := json.Marshal(docstore.MergeInto(nil, doc))
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	query := `INSERT INTO documents (collection, id, data)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data`

	if _, err := s.db.ExecContext(ctx, query, collection, id, raw); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *Store) Merge(ctx context.Context, collection, id string, patch docstore.Document) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query := `SELECT data FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`

		var current map[string]any
		var raw []byte
		err := tx.QueryRowContext(ctx, query, collection, id).Scan(&raw)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// upsert: merge into a fresh document
		case err != nil:
			return fmt.Errorf("db error: %w", err)
		default:
			if err := json.Unmarshal(raw, &current); err != nil {
				return fmt.Errorf("decode document: %w", err)
			}
		}

		merged, err := json.Marshal(docstore.MergeInto(current, patch))
		if err != nil {
			return fmt.Errorf("encode document: %w", err)
		}

		upsert := `INSERT INTO documents (collection, id, data)
		           VALUES ($1, $2, $3)
		           ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data`

		if _, err := tx.ExecContext(ctx, upsert, collection, id, merged); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`

	if _, err := s.db.ExecContext(ctx, query, collection, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

var fieldNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func (s *Store) Query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	query := `SELECT data FROM documents WHERE collection = $1`
	args := []any{collection}

	if q.OrderBy != "" {
		if !fieldNamePattern.MatchString(q.OrderBy) {
			return nil, fmt.Errorf("invalid order field: %q", q.OrderBy)
		}

		// Only documents carrying the sort field participate.
		query += fmt.Sprintf(` AND data ? '%s'`, q.OrderBy)

		if q.StartAfter != nil {
			cursor, err := json.Marshal(q.StartAfter)
			if err != nil {
				return nil, fmt.Errorf("encode cursor: %w", err)
			}
			op := ">"
			if q.Descending {
				op = "<"
			}
			args = append(args, cursor)
			query += fmt.Sprintf(` AND data -> '%s' %s $%d::jsonb`, q.OrderBy, op, len(args))
		}

		dir := "ASC"
		if q.Descending {
			dir = "DESC"
		}
		query += fmt.Sprintf(` ORDER BY data -> '%s' %s`, q.OrderBy, dir)
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []docstore.Document
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var doc docstore.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		result = append(result, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

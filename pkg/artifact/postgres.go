package artifact

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lesotho-health/cost-api/pkg/database"
)

// PostgresSchema creates the tables PostgresSource reads from
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS model_artifacts (
	name       TEXT NOT NULL,
	version    TEXT NOT NULL,
	manifest   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (name, version)
);

CREATE TABLE IF NOT EXISTS model_artifact_files (
	name      TEXT NOT NULL,
	version   TEXT NOT NULL,
	file_name TEXT NOT NULL,
	content   BYTEA NOT NULL,
	PRIMARY KEY (name, version, file_name),
	FOREIGN KEY (name, version) REFERENCES model_artifacts (name, version) ON DELETE CASCADE
);
`

// PostgresSource reads the latest version of a named artifact from PostgreSQL
type PostgresSource struct {
	db *database.DB
}

func NewPostgresSource(db *database.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) String() string {
	return "postgres"
}

func (s *PostgresSource) Fetch(ctx context.Context, name string) (*Bundle, error) {
	var version, manifest string
	err := s.db.QueryRow(ctx, `
		SELECT version, manifest
		FROM model_artifacts
		WHERE name = $1
		ORDER BY created_at DESC
		LIMIT 1`, name).Scan(&version, &manifest)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no %q artifact in database", ErrArtifactNotFound, name)
		}
		return nil, fmt.Errorf("failed to query artifact %q: %w", name, err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT file_name, content
		FROM model_artifact_files
		WHERE name = $1 AND version = $2`, name, version)
	if err != nil {
		return nil, fmt.Errorf("failed to query artifact files: %w", err)
	}
	defer rows.Close()

	files := make(map[string][]byte)
	for rows.Next() {
		var fileName string
		var content []byte
		if err := rows.Scan(&fileName, &content); err != nil {
			return nil, fmt.Errorf("failed to scan artifact file: %w", err)
		}
		files[fileName] = content
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read artifact files: %w", err)
	}

	return NewBundle(fmt.Sprintf("postgres:%s@%s", name, version), []byte(manifest), files), nil
}

// Publish stores a bundle's manifest and files as a new artifact version
func Publish(ctx context.Context, db *database.DB, name, version string, manifest []byte, files map[string][]byte) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `INSERT INTO model_artifacts (name, version, manifest) VALUES ($1, $2, $3)`,
		name, version, string(manifest)); err != nil {
		return fmt.Errorf("failed to insert artifact: %w", err)
	}
	for fileName, content := range files {
		if _, err := tx.Exec(ctx, `INSERT INTO model_artifact_files (name, version, file_name, content) VALUES ($1, $2, $3, $4)`,
			name, version, fileName, content); err != nil {
			return fmt.Errorf("failed to insert %s: %w", fileName, err)
		}
	}
	return tx.Commit(ctx)
}

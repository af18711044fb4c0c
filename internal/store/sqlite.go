package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/kanunlaw/kanun/internal/segment"
)

// chunkSchema is the flat record set produced by segmentation. chunk_id is
// the primary key, so a cross-document id collision fails the insert
// instead of silently overwriting an earlier act's chunk.
const chunkSchema = `
CREATE TABLE IF NOT EXISTS chunks (
	chunk_id       TEXT PRIMARY KEY,
	act_name       TEXT NOT NULL,
	act_number     INTEGER NOT NULL,
	part           TEXT NOT NULL DEFAULT '',
	section_number TEXT NOT NULL DEFAULT '',
	section_title  TEXT NOT NULL DEFAULT '',
	content        TEXT NOT NULL,
	token_count    INTEGER NOT NULL,
	start_position INTEGER NOT NULL
);
`

// SQLiteStore persists chunk records in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the chunk database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open chunk database: %w", err)
	}

	if _, err := db.Exec(chunkSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create chunk schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// SaveChunks inserts chunk records in one transaction. Duplicate chunk
// ids abort the whole batch.
func (s *SQLiteStore) SaveChunks(ctx context.Context, chunks []segment.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (chunk_id, act_name, act_number, part,
			section_number, section_title, content, token_count, start_position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range chunks {
		_, err := stmt.ExecContext(ctx,
			c.ChunkID, c.ActName, c.ActNumber, c.Part,
			c.SectionNumber, c.SectionTitle, c.Content, c.TokenCount, c.StartPosition)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint") {
				return fmt.Errorf("chunk id %s already exists in corpus: %w", c.ChunkID, err)
			}
			return fmt.Errorf("insert chunk %s: %w", c.ChunkID, err)
		}
	}

	return tx.Commit()
}

// LoadChunks returns the whole corpus ordered by act number and source
// position.
func (s *SQLiteStore) LoadChunks(ctx context.Context) ([]segment.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, act_name, act_number, part,
			section_number, section_title, content, token_count, start_position
		FROM chunks
		ORDER BY act_number, start_position`)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chunks []segment.Chunk
	for rows.Next() {
		var c segment.Chunk
		err := rows.Scan(&c.ChunkID, &c.ActName, &c.ActNumber, &c.Part,
			&c.SectionNumber, &c.SectionTitle, &c.Content, &c.TokenCount, &c.StartPosition)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	return chunks, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ ChunkStore = (*SQLiteStore)(nil)

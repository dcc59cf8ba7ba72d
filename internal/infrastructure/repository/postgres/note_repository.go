package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mzolotarev/notegraph/internal/core/domain"
)

type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *NoteRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS notes (
	id TEXT PRIMARY KEY,
	source_type TEXT NOT NULL,
	source_path TEXT NOT NULL,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	tags JSONB NOT NULL DEFAULT '[]'::jsonb,
	vector_ids JSONB NOT NULL DEFAULT '[]'::jsonb,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_status ON notes(status);
CREATE INDEX IF NOT EXISTS idx_notes_created_at ON notes(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *NoteRepository) Upsert(ctx context.Context, note *domain.Note) error {
	metadataJSON, err := json.Marshal(note.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	tagsJSON, err := json.Marshal(note.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	vectorIDsJSON, err := json.Marshal(note.VectorIDs)
	if err != nil {
		return fmt.Errorf("marshal vector ids: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO notes (
	id, source_type, source_path, title, content, metadata, tags, vector_ids, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
	source_type = EXCLUDED.source_type,
	source_path = EXCLUDED.source_path,
	title = EXCLUDED.title,
	content = EXCLUDED.content,
	metadata = EXCLUDED.metadata,
	tags = EXCLUDED.tags,
	status = EXCLUDED.status,
	error_message = EXCLUDED.error_message,
	updated_at = EXCLUDED.updated_at
`,
		note.ID, string(note.SourceType), note.SourcePath, note.Title, note.Content,
		metadataJSON, tagsJSON, vectorIDsJSON, string(note.Status), note.Error,
		note.CreatedAt, note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert note: %w", err)
	}
	return nil
}

const noteColumns = `id, source_type, source_path, title, content, metadata, tags, vector_ids, status, error_message, created_at, updated_at`

func (r *NoteRepository) GetByID(ctx context.Context, id string) (*domain.Note, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+noteColumns+`
FROM notes
WHERE id = $1
`, id)

	note, err := scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoteNotFound
		}
		return nil, err
	}
	return note, nil
}

func (r *NoteRepository) List(ctx context.Context) ([]domain.Note, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+noteColumns+`
FROM notes
ORDER BY created_at DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

func (r *NoteRepository) UpdateStatus(ctx context.Context, id string, status domain.NoteStatus, errMessage string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE notes
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update note status: %w", err)
	}
	return nil
}

func (r *NoteRepository) SaveIndexing(ctx context.Context, id string, vectorIDs []string) error {
	vectorIDsJSON, err := json.Marshal(vectorIDs)
	if err != nil {
		return fmt.Errorf("marshal vector ids: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
UPDATE notes
SET vector_ids = $2, updated_at = $3
WHERE id = $1
`, id, vectorIDsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save indexing: %w", err)
	}
	return nil
}

func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

func (r *NoteRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*domain.Note, error) {
	var note domain.Note
	var metadataRaw, tagsRaw, vectorIDsRaw []byte
	var sourceType, status string

	err := row.Scan(
		&note.ID, &sourceType, &note.SourcePath, &note.Title, &note.Content,
		&metadataRaw, &tagsRaw, &vectorIDsRaw, &status, &note.Error,
		&note.CreatedAt, &note.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan note: %w", err)
	}

	if err := json.Unmarshal(metadataRaw, &note.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	if err := json.Unmarshal(tagsRaw, &note.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if err := json.Unmarshal(vectorIDsRaw, &note.VectorIDs); err != nil {
		return nil, fmt.Errorf("unmarshal vector ids: %w", err)
	}
	note.SourceType = domain.SourceType(sourceType)
	note.Status = domain.NoteStatus(status)
	return &note, nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/sketchsync/internal/common"
	"github.com/dmitrijs2005/sketchsync/internal/cryptox"
	"github.com/dmitrijs2005/sketchsync/internal/dbx"
	"github.com/dmitrijs2005/sketchsync/internal/models"
	"github.com/dmitrijs2005/sketchsync/internal/store/migrations"
)

const saltKey = "encryption_salt"

// OpenSQLite opens the document database and applies pending migrations.
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db     dbx.DBTX
	sealer *sealer
}

// NewSQLiteRepository returns a repository bound to the given DBTX. A
// non-empty passphrase enables sealing of drawing and thumbnail blobs at
// rest; the key-derivation salt is created on first use and kept in
// store_meta.
func NewSQLiteRepository(ctx context.Context, db dbx.DBTX, passphrase string) (*SQLiteRepository, error) {
	r := &SQLiteRepository{db: db}
	if passphrase != "" {
		salt, err := loadOrCreateSalt(ctx, db)
		if err != nil {
			return nil, err
		}
		r.sealer = newSealer(passphrase, salt)
	}
	return r, nil
}

func loadOrCreateSalt(ctx context.Context, db dbx.DBTX) ([]byte, error) {
	var salt []byte
	err := db.QueryRowContext(ctx, `SELECT value FROM store_meta WHERE key = ?`, saltKey).Scan(&salt)
	if err == nil {
		return salt, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to load encryption salt: %w", err)
	}

	salt = common.GenerateRandByteArray(cryptox.SaltSize)
	if _, err := db.ExecContext(ctx, `INSERT INTO store_meta (key, value) VALUES (?, ?)`, saltKey, salt); err != nil {
		return nil, fmt.Errorf("failed to store encryption salt: %w", err)
	}
	return salt, nil
}

// encodeFields serializes a document into column values, in the order
// title, drawing, record_id, embed_block_id, created_at, last_synced_at,
// thumbnail, linked_ids, linked_info.
func (r *SQLiteRepository) encodeFields(doc *models.Document) (string, []any, error) {
	dto := toDTO(doc)

	drawing, err := r.sealer.seal(dto.Drawing)
	if err != nil {
		return "", nil, fmt.Errorf("failed to seal drawing: %w", err)
	}
	thumbnail, err := r.sealer.seal(dto.Thumbnail)
	if err != nil {
		return "", nil, fmt.Errorf("failed to seal thumbnail: %w", err)
	}

	linkedIDs, err := json.Marshal(dto.LinkedIDs)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal linked ids: %w", err)
	}
	linkedInfo, err := json.Marshal(dto.LinkedInfo)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal linked info: %w", err)
	}

	var lastSynced any
	if !dto.LastSyncedAt.IsZero() {
		lastSynced = dto.LastSyncedAt
	}

	fields := []any{
		dto.Title, drawing, dto.RecordID, dto.EmbedBlockID,
		dto.CreatedAt, lastSynced, thumbnail, string(linkedIDs), string(linkedInfo),
	}
	return dto.ID, fields, nil
}

// Insert stores a new document.
func (r *SQLiteRepository) Insert(ctx context.Context, doc *models.Document) error {
	id, fields, err := r.encodeFields(doc)
	if err != nil {
		return err
	}

	query := `INSERT INTO documents
		(id, title, drawing, record_id, embed_block_id, created_at, last_synced_at, thumbnail, linked_ids, linked_info)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	args := append([]any{id}, fields...)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// InsertAll stores a batch of documents in one transaction when the
// repository is bound to a *sql.DB; inside an existing transaction the
// inserts run on it directly.
func (r *SQLiteRepository) InsertAll(ctx context.Context, docs []*models.Document) error {
	insert := func(ctx context.Context, tx dbx.DBTX) error {
		txr := &SQLiteRepository{db: tx, sealer: r.sealer}
		for _, doc := range docs {
			if err := txr.Insert(ctx, doc); err != nil {
				return err
			}
		}
		return nil
	}

	if db, ok := r.db.(*sql.DB); ok {
		return dbx.WithTx(ctx, db, nil, insert)
	}
	return insert(ctx, r.db)
}

// Update rewrites an existing document by ID.
func (r *SQLiteRepository) Update(ctx context.Context, doc *models.Document) error {
	id, fields, err := r.encodeFields(doc)
	if err != nil {
		return err
	}

	query := `UPDATE documents SET
		title=?, drawing=?, record_id=?, embed_block_id=?, created_at=?, last_synced_at=?, thumbnail=?, linked_ids=?, linked_info=?
		WHERE id=?`
	args := append(fields, id)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("%w: document %q", common.ErrorNotFound, id)
	}
	return nil
}

// Delete removes a document. Absent IDs are not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id=?`, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// FetchAll loads every stored document.
func (r *SQLiteRepository) FetchAll(ctx context.Context) ([]*models.Document, error) {
	query := `SELECT id, title, drawing, record_id, embed_block_id, created_at, last_synced_at, thumbnail, linked_ids, linked_info
		FROM documents ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	var result []*models.Document
	for rows.Next() {
		doc, err := r.scanDocument(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) scanDocument(rows *sql.Rows) (*models.Document, error) {
	var dto documentDTO
	var lastSynced sql.NullTime
	var linkedIDs, linkedInfo []byte

	err := rows.Scan(&dto.ID, &dto.Title, &dto.Drawing, &dto.RecordID, &dto.EmbedBlockID,
		&dto.CreatedAt, &lastSynced, &dto.Thumbnail, &linkedIDs, &linkedInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to scan document row: %w", err)
	}

	if lastSynced.Valid {
		dto.LastSyncedAt = lastSynced.Time
	}
	if dto.Drawing, err = r.sealer.open(dto.Drawing); err != nil {
		return nil, fmt.Errorf("failed to open drawing for %q: %w", dto.ID, err)
	}
	if dto.Thumbnail, err = r.sealer.open(dto.Thumbnail); err != nil {
		return nil, fmt.Errorf("failed to open thumbnail for %q: %w", dto.ID, err)
	}
	if err := json.Unmarshal(linkedIDs, &dto.LinkedIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal linked ids for %q: %w", dto.ID, err)
	}
	if err := json.Unmarshal(linkedInfo, &dto.LinkedInfo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal linked info for %q: %w", dto.ID, err)
	}

	return dto.model(), nil
}

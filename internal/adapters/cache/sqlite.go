package cache

// sqlite.go: caché persistente de búsquedas del catálogo.
//
//   - `catalog_cache`: una fila por query normalizada (UPSERT), entradas en JSON.
//   - La frescura la decide quien lee (maxAge); aquí solo se guarda fetched_at.
//   - Prune al arrancar: filas más antiguas que la retención.

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/cardbot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS catalog_cache (
    query_key  TEXT    PRIMARY KEY,
    entries    TEXT    NOT NULL,
    count      INTEGER NOT NULL DEFAULT 0,
    fetched_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_catalog_fetched ON catalog_cache(fetched_at);
`

const defaultRetention = 7 * 24 * time.Hour

// SQLiteStore implementa ports.CatalogStore usando SQLite (pure Go, sin CGo).
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore abre (o crea) la base de datos en la ruta dada, aplica el
// schema y borra las filas más antiguas que retention (7 días si es 0).
func NewSQLiteStore(path string, retention time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer; con :memory: además cada conexión es otra DB
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache.NewSQLiteStore: apply schema: %w", err)
	}

	if retention <= 0 {
		retention = defaultRetention
	}
	s := &SQLiteStore{db: db, now: time.Now}
	s.pruneOld(context.Background(), retention)
	return s, nil
}

// Get devuelve las entradas de la key si fetched_at no es más antiguo que maxAge.
func (s *SQLiteStore) Get(ctx context.Context, key string, maxAge time.Duration) ([]domain.CatalogEntry, time.Time, bool, error) {
	var raw string
	var fetchedMillis int64
	err := s.db.QueryRowContext(ctx,
		`SELECT entries, fetched_at FROM catalog_cache WHERE query_key = ?`, key,
	).Scan(&raw, &fetchedMillis)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("cache.Get: query %q: %w", key, err)
	}

	fetchedAt := time.UnixMilli(fetchedMillis).UTC()
	if maxAge > 0 && s.now().Sub(fetchedAt) > maxAge {
		return nil, time.Time{}, false, nil
	}

	var entries []domain.CatalogEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("cache.Get: decode %q: %w", key, err)
	}
	return entries, fetchedAt, true, nil
}

// Put guarda o reemplaza las entradas de la key con fetched_at = ahora.
func (s *SQLiteStore) Put(ctx context.Context, key string, entries []domain.CatalogEntry) error {
	if entries == nil {
		entries = []domain.CatalogEntry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("cache.Put: encode %q: %w", key, err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO catalog_cache (query_key, entries, count, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(query_key) DO UPDATE SET
			entries    = excluded.entries,
			count      = excluded.count,
			fetched_at = excluded.fetched_at
	`, key, string(raw), len(entries), s.now().UnixMilli()); err != nil {
		return fmt.Errorf("cache.Put: upsert %q: %w", key, err)
	}
	return nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// pruneOld elimina filas viejas para mantener la DB ligera.
func (s *SQLiteStore) pruneOld(ctx context.Context, retention time.Duration) {
	cutoff := s.now().Add(-retention).UnixMilli()
	s.db.ExecContext(ctx, `DELETE FROM catalog_cache WHERE fetched_at < ?`, cutoff)
}

package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/cardbot/internal/domain"
	"github.com/alejandrodnm/cardbot/internal/ports"
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultLRUSize = 256

type cachedSearch struct {
	entries   []domain.CatalogEntry
	fetchedAt time.Time
}

// CachedCatalog envuelve un ports.CatalogProvider con una LRU en memoria
// y, opcionalmente, un ports.CatalogStore persistente. Ambos niveles
// respetan el mismo TTL.
type CachedCatalog struct {
	inner ports.CatalogProvider
	store ports.CatalogStore // nil = solo memoria
	lru   *lru.Cache[string, cachedSearch]
	ttl   time.Duration
	now   func() time.Time
}

// NewCachedCatalog crea el decorador. size <= 0 usa 256 entradas.
func NewCachedCatalog(inner ports.CatalogProvider, store ports.CatalogStore, size int, ttl time.Duration) (*CachedCatalog, error) {
	if size <= 0 {
		size = defaultLRUSize
	}
	l, err := lru.New[string, cachedSearch](size)
	if err != nil {
		return nil, fmt.Errorf("cache.NewCachedCatalog: %w", err)
	}
	return &CachedCatalog{
		inner: inner,
		store: store,
		lru:   l,
		ttl:   ttl,
		now:   time.Now,
	}, nil
}

// WithClock sustituye el reloj usado para el TTL de la LRU.
func (c *CachedCatalog) WithClock(now func() time.Time) *CachedCatalog {
	c.now = now
	return c
}

// SearchCatalog devuelve la búsqueda cacheada si sigue fresca; si no,
// consulta la fuente y guarda el resultado. Los errores no se cachean.
func (c *CachedCatalog) SearchCatalog(ctx context.Context, query string, limit int) ([]domain.CatalogEntry, error) {
	key := cacheKey(query, limit)

	if hit, ok := c.lru.Get(key); ok {
		if c.fresh(hit.fetchedAt) {
			slog.Debug("catalog cache hit", "key", key, "level", "memory")
			return clone(hit.entries), nil
		}
		c.lru.Remove(key)
	}

	if c.store != nil {
		entries, fetchedAt, ok, err := c.store.Get(ctx, key, c.ttl)
		if err != nil {
			slog.Warn("catalog store read failed", "key", key, "err", err)
		} else if ok {
			slog.Debug("catalog cache hit", "key", key, "level", "sqlite")
			// la fila conserva su edad: la LRU no alarga el TTL
			c.lru.Add(key, cachedSearch{entries: entries, fetchedAt: fetchedAt})
			return clone(entries), nil
		}
	}

	entries, err := c.inner.SearchCatalog(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	c.lru.Add(key, cachedSearch{entries: clone(entries), fetchedAt: c.now()})
	if c.store != nil {
		if err := c.store.Put(ctx, key, entries); err != nil {
			slog.Warn("catalog store write failed", "key", key, "err", err)
		}
	}
	return entries, nil
}

func (c *CachedCatalog) fresh(fetchedAt time.Time) bool {
	return c.ttl <= 0 || c.now().Sub(fetchedAt) <= c.ttl
}

// cacheKey normaliza la query; el límite forma parte de la key.
func cacheKey(query string, limit int) string {
	q := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	return q + "|" + strconv.Itoa(limit)
}

// clone copia el slice para que ApplyTierPolicy del llamador no toque
// la copia cacheada. Los mapas de precios se comparten: son de solo lectura.
func clone(entries []domain.CatalogEntry) []domain.CatalogEntry {
	if entries == nil {
		return nil
	}
	out := make([]domain.CatalogEntry, len(entries))
	copy(out, entries)
	return out
}

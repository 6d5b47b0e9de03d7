// internal/catalog/loader.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"counsel-workers/internal/common/database"
	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/common/metrics"
	"counsel-workers/internal/models"
)

var ErrCatalogUnavailable = errors.New("CATALOG_UNAVAILABLE")

const (
	SourceCache         = "cache"
	SourceElasticsearch = "elasticsearch"
	SourcePostgres      = "postgres"

	cachePrefix = "catalog:"
)

// Source returns program records, optionally limited to countries.
type Source interface {
	Programs(ctx context.Context, countries []string) ([]models.ProgramRecord, error)
}

// Loader reads the catalog through a Redis cache. On a miss the search index
// and the database are queried concurrently; the index wins when it returns
// rows, otherwise the database result is used.
type Loader struct {
	cache  *database.RedisClient
	search Source
	db     Source
	ttl    time.Duration
	logger logger.Logger
}

func NewLoader(cache *database.RedisClient, search, db Source, ttl time.Duration, log logger.Logger) *Loader {
	return &Loader{
		cache:  cache,
		search: search,
		db:     db,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "catalog-loader"}),
	}
}

// CacheKey is stable for any ordering of countries.
func CacheKey(countries []string) string {
	if len(countries) == 0 {
		return cachePrefix + "_all"
	}
	sorted := append([]string(nil), countries...)
	sort.Strings(sorted)
	return cachePrefix + strings.Join(sorted, ",")
}

// Load returns the catalog and the name of the source that served it.
func (l *Loader) Load(ctx context.Context, countries []string) ([]models.ProgramRecord, string, error) {
	key := CacheKey(countries)

	if l.cache != nil {
		var cached []models.ProgramRecord
		err := l.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			metrics.CatalogSource.WithLabelValues(SourceCache).Inc()
			return cached, SourceCache, nil
		}
		if !errors.Is(err, database.ErrCacheMiss) {
			l.logger.Warn("catalog cache read failed", map[string]interface{}{"error": err, "key": key})
		}
	}

	var (
		fromSearch, fromDB []models.ProgramRecord
		searchErr, dbErr   error
		g                  errgroup.Group
	)
	if l.search != nil {
		g.Go(func() error {
			fromSearch, searchErr = l.search.Programs(ctx, countries)
			return nil
		})
	}
	if l.db != nil {
		g.Go(func() error {
			fromDB, dbErr = l.db.Programs(ctx, countries)
			return nil
		})
	}
	_ = g.Wait()

	var (
		records []models.ProgramRecord
		source  string
	)
	switch {
	case l.search != nil && searchErr == nil && len(fromSearch) > 0:
		records, source = fromSearch, SourceElasticsearch
	case l.db != nil && dbErr == nil:
		records, source = fromDB, SourcePostgres
	default:
		return nil, "", fmt.Errorf("%w: search: %v, database: %v", ErrCatalogUnavailable, searchErr, dbErr)
	}
	if searchErr != nil {
		l.logger.Warn("catalog search failed, served from database", map[string]interface{}{"error": searchErr})
	}
	records = sortPrograms(records)
	metrics.CatalogSource.WithLabelValues(source).Inc()

	if l.cache != nil && len(records) > 0 {
		if err := l.cache.SetJSON(ctx, key, records, l.ttl); err != nil {
			l.logger.Warn("catalog cache write failed", map[string]interface{}{"error": err, "key": key})
		}
	}
	return records, source, nil
}

// sortPrograms orders a copy of records by country, institution and program
// name using byte comparison, whatever collation the source applied.
func sortPrograms(records []models.ProgramRecord) []models.ProgramRecord {
	out := append([]models.ProgramRecord(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Country != b.Country {
			return a.Country < b.Country
		}
		if a.Institution != b.Institution {
			return a.Institution < b.Institution
		}
		return a.ProgramName < b.ProgramName
	})
	return out
}

// Invalidate drops every cached catalog slice.
func (l *Loader) Invalidate(ctx context.Context) error {
	if l.cache == nil {
		return nil
	}
	var keys []string
	iter := l.cache.Client.Scan(ctx, 0, cachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan catalog keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return l.cache.Del(ctx, keys...)
}

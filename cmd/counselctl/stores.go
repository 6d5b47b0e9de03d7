// cmd/counselctl/stores.go
package main

import (
	"context"
	"time"

	"counsel-workers/internal/catalog"
	"counsel-workers/internal/common/config"
	"counsel-workers/internal/common/database"
	"counsel-workers/internal/store"
)

// stores holds the connections maintenance commands need. Elasticsearch is
// optional; the rest must answer a ping.
type stores struct {
	cfg   *config.Config
	pg    *database.PostgresClient
	es    *database.ElasticsearchClient
	redis *database.RedisClient
}

func openStores(ctx context.Context) (*stores, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, err
	}
	if err := pg.Ping(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	if err := store.Migrate(ctx, pg.DB); err != nil {
		pg.Close()
		return nil, err
	}

	s := &stores{cfg: cfg, pg: pg}
	if r, err := database.NewRedis(cfg.Database.Redis); err == nil {
		if err := r.Ping(ctx); err == nil {
			s.redis = r
		} else {
			log.Warn("redis unavailable", map[string]interface{}{"error": err})
			r.Close()
		}
	}
	if cfg.Database.Elasticsearch.URL != "" {
		if es, err := database.NewElasticsearch(cfg.Database.Elasticsearch); err == nil && es.Ping() == nil {
			s.es = es
		} else {
			log.Warn("elasticsearch unavailable, catalog index not updated", nil)
		}
	}
	return s, nil
}

func (s *stores) Close() {
	s.pg.Close()
	if s.redis != nil {
		s.redis.Close()
	}
}

func (s *stores) importer() *catalog.Importer {
	repo := catalog.NewPostgresRepository(s.pg.DB)
	ttl := time.Duration(s.cfg.Catalog.CacheTTL) * time.Second
	if s.es == nil {
		return catalog.NewImporter(repo, nil, catalog.NewLoader(s.redis, nil, repo, ttl, log), log)
	}
	index := catalog.NewElasticIndex(s.es.Client, s.cfg.Catalog.Index)
	return catalog.NewImporter(repo, index, catalog.NewLoader(s.redis, index, repo, ttl, log), log)
}

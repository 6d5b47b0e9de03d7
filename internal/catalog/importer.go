// internal/catalog/importer.go
package catalog

import (
	"context"
	"fmt"

	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/models"
)

type upserter interface {
	Upsert(ctx context.Context, records []models.ProgramRecord) (int, error)
}

type bulkIndexer interface {
	EnsureIndex(ctx context.Context) error
	BulkIndex(ctx context.Context, records []models.ProgramRecord) error
}

// Importer writes a decoded catalog to Postgres, mirrors it into the search
// index and clears cached slices. Postgres is the system of record; an index
// failure is reported but does not undo the database write.
type Importer struct {
	db     upserter
	index  bulkIndexer
	loader *Loader
	logger logger.Logger
}

func NewImporter(db upserter, index bulkIndexer, loader *Loader, log logger.Logger) *Importer {
	return &Importer{db: db, index: index, loader: loader, logger: log}
}

type ImportSummary struct {
	Upserted     int      `json:"upserted"`
	Indexed      bool     `json:"indexed"`
	IndexError   string   `json:"indexError,omitempty"`
	SkippedLines []string `json:"skippedLines,omitempty"`
}

func (i *Importer) Import(ctx context.Context, res *ImportResult) (*ImportSummary, error) {
	n, err := i.db.Upsert(ctx, res.Records)
	if err != nil {
		return nil, fmt.Errorf("upsert catalog: %w", err)
	}
	summary := &ImportSummary{Upserted: n, SkippedLines: res.Skipped}

	if i.index != nil {
		if err := i.index.EnsureIndex(ctx); err != nil {
			summary.IndexError = err.Error()
		} else if err := i.index.BulkIndex(ctx, res.Records); err != nil {
			summary.IndexError = err.Error()
		} else {
			summary.Indexed = true
		}
		if summary.IndexError != "" {
			i.logger.Warn("catalog index sync failed", map[string]interface{}{"error": summary.IndexError})
		}
	}

	if i.loader != nil {
		if err := i.loader.Invalidate(ctx); err != nil {
			i.logger.Warn("catalog cache invalidation failed", map[string]interface{}{"error": err})
		}
	}

	i.logger.Info("catalog imported", map[string]interface{}{
		"upserted": n,
		"skipped":  len(res.Skipped),
		"indexed":  summary.Indexed,
	})
	return summary, nil
}

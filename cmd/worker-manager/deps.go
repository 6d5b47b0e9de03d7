// cmd/worker-manager/deps.go
package main

import (
	"context"
	"time"

	"counsel-workers/internal/catalog"
	"counsel-workers/internal/common/aws"
	"counsel-workers/internal/common/config"
	"counsel-workers/internal/common/database"
	"counsel-workers/internal/common/genai"
	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/common/zoho"
	"counsel-workers/internal/store"
)

type dependencies struct {
	cases     *store.CaseStore
	users     *store.UserStore
	audit     *store.AuditLog
	cache     *database.RedisClient
	loader    *catalog.Loader
	importer  *catalog.Importer
	generator genai.Generator
	crm       *zoho.CRMClient
	ses       *aws.SESClient
	sns       *aws.SNSClient
}

func buildDependencies(ctx context.Context, cfg *config.Config, pg *database.PostgresClient, es *database.ElasticsearchClient, cache *database.RedisClient, log logger.Logger) (*dependencies, error) {
	d := &dependencies{
		cases:     store.NewCaseStore(pg.DB, log),
		users:     store.NewUserStore(pg.DB, log),
		audit:     store.NewAuditLog(pg.DB, log),
		cache:     cache,
		generator: genai.New(cfg.APIs.GenAI, log),
	}

	repo := catalog.NewPostgresRepository(pg.DB)
	ttl := time.Duration(cfg.Catalog.CacheTTL) * time.Second
	if es != nil {
		index := catalog.NewElasticIndex(es.Client, cfg.Catalog.Index)
		d.loader = catalog.NewLoader(cache, index, repo, ttl, log)
		d.importer = catalog.NewImporter(repo, index, d.loader, log)
	} else {
		d.loader = catalog.NewLoader(cache, nil, repo, ttl, log)
		d.importer = catalog.NewImporter(repo, nil, d.loader, log)
	}

	if cfg.Integrations.Zoho.Enabled {
		d.crm = zoho.NewCRMClient(cfg.Integrations.Zoho.BaseURL, cfg.Integrations.Zoho.AuthToken)
	}

	awsCfg := cfg.Integrations.AWS
	if awsCfg.SES.Enabled {
		ses, err := aws.NewSESClient(ctx, awsCfg.Region, awsCfg.SES.FromEmail)
		if err != nil {
			return nil, err
		}
		d.ses = ses
	}
	if awsCfg.SNS.Enabled {
		sns, err := aws.NewSNSClient(ctx, awsCfg.Region, awsCfg.SNS.SenderID)
		if err != nil {
			return nil, err
		}
		d.sns = sns
	}
	return d, nil
}

// emailSender and smsSender keep a nil client from becoming a non-nil
// interface value inside the notification worker.
func (d *dependencies) emailSender() notifyEmail {
	if d.ses == nil {
		return nil
	}
	return d.ses
}

func (d *dependencies) smsSender() notifySMS {
	if d.sns == nil {
		return nil
	}
	return d.sns
}

// cmd/worker-manager/workers.go
package main

import (
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"counsel-workers/internal/common/camunda"
	"counsel-workers/internal/common/config"
	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/common/observability"
	"counsel-workers/pkg/registry"

	synccrmlead "counsel-workers/internal/workers/crm/sync-crm-lead"
	createcase "counsel-workers/internal/workers/intake/create-case"
	rankprograms "counsel-workers/internal/workers/matching/rank-programs"
	notifycounsellor "counsel-workers/internal/workers/notification/notify-counsellor"
	routecase "counsel-workers/internal/workers/pipeline/route-case"
	updatecasestatus "counsel-workers/internal/workers/pipeline/update-case-status"
	scorelead "counsel-workers/internal/workers/qualification/score-lead"
	generatereport "counsel-workers/internal/workers/reporting/generate-report"
)

type notifyEmail = notifycounsellor.EmailSender
type notifySMS = notifycounsellor.SMSSender

// timeoutOr converts a worker timeout in milliseconds, keeping the handler
// default when the config leaves it unset.
func timeoutOr(wcfg config.WorkerConfig, def time.Duration) time.Duration {
	if wcfg.Timeout <= 0 {
		return def
	}
	return config.GetDuration(wcfg.Timeout)
}

// workerTimeout prefers the worker config, then the activity registry, then
// the handler default.
func workerTimeout(cfg *config.Config, reg *registry.ActivityRegistry, taskType string, def time.Duration) time.Duration {
	if reg != nil {
		if a, ok := reg.Find(taskType); ok {
			def = a.TimeoutDuration(def)
		}
	}
	return timeoutOr(cfg.Workers[taskType], def)
}

func taskTypes() []string {
	return []string{
		createcase.TaskType,
		scorelead.TaskType,
		rankprograms.TaskType,
		generatereport.TaskType,
		routecase.TaskType,
		updatecasestatus.TaskType,
		notifycounsellor.TaskType,
		synccrmlead.TaskType,
	}
}

func registerWorkers(zeebe *camunda.Client, cfg *config.Config, reg *registry.ActivityRegistry, d *dependencies, obs *observability.Observability, log logger.Logger) []*camunda.Worker {
	client := zeebe.Zeebe()
	var workers []*camunda.Worker
	start := func(client zbc.Client, taskType string, handler camunda.HandlerFunc) {
		if w := camunda.StartWorker(client, taskType, cfg.Workers[taskType], handler, obs, log); w != nil {
			workers = append(workers, w)
		}
	}

	// --- Intake & qualification ---
	{
		c := createcase.LoadConfig()
		c.Timeout = workerTimeout(cfg, reg, createcase.TaskType, c.Timeout)
		h := createcase.NewHandler(c, d.cases, d.audit, d.crm, log)
		start(client, createcase.TaskType, h.Handle)
	}
	{
		c := scorelead.LoadConfig()
		c.Timeout = workerTimeout(cfg, reg, scorelead.TaskType, c.Timeout)
		h := scorelead.NewHandler(c, d.cases, d.audit, d.cache, log)
		start(client, scorelead.TaskType, h.Handle)
	}

	// --- Matching & reporting ---
	{
		c := rankprograms.LoadConfig()
		c.Timeout = workerTimeout(cfg, reg, rankprograms.TaskType, c.Timeout)
		if cfg.Pipeline.DefaultTopN > 0 {
			c.DefaultTopN = cfg.Pipeline.DefaultTopN
		}
		h := rankprograms.NewHandler(c, d.cases, d.loader, log)
		start(client, rankprograms.TaskType, h.Handle)
	}
	{
		c := generatereport.LoadConfig()
		c.Timeout = workerTimeout(cfg, reg, generatereport.TaskType, c.Timeout)
		if cfg.APIs.GenAI.Timeout > 0 {
			c.NarrativeTimeout = config.GetDuration(cfg.APIs.GenAI.Timeout)
		}
		h := generatereport.NewHandler(c, d.cases, d.audit, d.loader, d.generator, log)
		start(client, generatereport.TaskType, h.Handle)
	}

	// --- Pipeline ---
	{
		c := routecase.LoadConfig()
		c.Timeout = workerTimeout(cfg, reg, routecase.TaskType, c.Timeout)
		if cfg.Pipeline.SLAHours > 0 {
			c.FollowupSLA[routecase.PriorityMedium] = time.Duration(cfg.Pipeline.SLAHours) * time.Hour
		}
		h := routecase.NewHandler(c, d.cases, d.users, d.audit, d.cache, log)
		start(client, routecase.TaskType, h.Handle)
	}
	{
		c := updatecasestatus.LoadConfig()
		c.Timeout = workerTimeout(cfg, reg, updatecasestatus.TaskType, c.Timeout)
		h := updatecasestatus.NewHandler(c, d.cases, d.users, d.audit, log)
		start(client, updatecasestatus.TaskType, h.Handle)
	}

	// --- Outbound integrations ---
	{
		c := notifycounsellor.LoadConfig()
		c.Timeout = workerTimeout(cfg, reg, notifycounsellor.TaskType, c.Timeout)
		c.EmailEnabled = cfg.Integrations.AWS.SES.Enabled
		c.SMSEnabled = cfg.Integrations.AWS.SNS.Enabled && cfg.Pipeline.HotLeadSMSEnabled
		c.TeamInbox = cfg.Integrations.AWS.SES.TeamInbox
		c.HotLeadPhone = cfg.Integrations.AWS.SNS.HotLeadPhone
		h := notifycounsellor.NewHandler(c, d.cases, d.users, d.emailSender(), d.smsSender(), log)
		start(client, notifycounsellor.TaskType, h.Handle)
	}
	{
		c := synccrmlead.LoadConfig()
		c.Timeout = workerTimeout(cfg, reg, synccrmlead.TaskType, c.Timeout)
		h := synccrmlead.NewHandler(c, d.cases, d.crm, log)
		start(client, synccrmlead.TaskType, h.Handle)
	}

	return workers
}

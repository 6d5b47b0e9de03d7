// internal/workers/crm/sync-crm-lead/config.go
package synccrmlead

import "time"

type Config struct {
	Timeout    time.Duration
	LeadSource string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    10 * time.Second,
		LeadSource: "Website Intake",
	}
}

// internal/workers/reporting/generate-report/config.go
package generatereport

import "time"

type Config struct {
	Timeout time.Duration
	// NarrativeTimeout bounds the generative-text call inside Timeout.
	NarrativeTimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:          30 * time.Second,
		NarrativeTimeout: 20 * time.Second,
	}
}

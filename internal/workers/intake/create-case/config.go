// internal/workers/intake/create-case/config.go
package createcase

import "time"

type Config struct {
	Timeout time.Duration
	// LeadSource is written to the CRM when the intake does not name one.
	LeadSource string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    10 * time.Second,
		LeadSource: "Website Intake",
	}
}

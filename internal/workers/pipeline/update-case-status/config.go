// internal/workers/pipeline/update-case-status/config.go
package updatecasestatus

import "time"

type Config struct {
	Timeout time.Duration
	// DefaultActor is recorded in the audit log when the process does not
	// name the staff member behind the change.
	DefaultActor string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      5 * time.Second,
		DefaultActor: "system:workflow",
	}
}

// internal/workers/qualification/score-lead/config.go
package scorelead

import "time"

type Config struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  5 * time.Second,
		CacheTTL: 24 * time.Hour,
	}
}

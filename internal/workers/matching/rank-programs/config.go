// internal/workers/matching/rank-programs/config.go
package rankprograms

import "time"

type Config struct {
	Timeout     time.Duration
	DefaultTopN int
	MaxTopN     int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     10 * time.Second,
		DefaultTopN: 3,
		MaxTopN:     20,
	}
}

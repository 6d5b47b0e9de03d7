// internal/workers/pipeline/route-case/config.go
package routecase

import "time"

type Config struct {
	Timeout time.Duration
	// FollowupSLA is the first-contact window per priority tier.
	FollowupSLA map[string]time.Duration
	CounterKey  string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
		FollowupSLA: map[string]time.Duration{
			PriorityHigh:   2 * time.Hour,
			PriorityMedium: 24 * time.Hour,
			PriorityLow:    72 * time.Hour,
		},
		CounterKey: "route:agent-rr",
	}
}

// internal/workers/notification/notify-counsellor/config.go
package notifycounsellor

import "time"

type Config struct {
	Timeout      time.Duration
	EmailEnabled bool
	SMSEnabled   bool
	// TeamInbox receives the email when the case has no assignee yet.
	TeamInbox string
	// HotLeadPhone is the sales desk number paged for HIGH priority leads.
	HotLeadPhone string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		EmailEnabled: true,
		SMSEnabled:   false,
	}
}

// internal/common/config/config.go
package config

import "fmt"

// Config is the root configuration for the counselling workers and the counselctl tool.
type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Camunda      CamundaConfig           `mapstructure:"camunda"`
	Database     DatabaseConfig          `mapstructure:"database"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	Integrations IntegrationConfig       `mapstructure:"integrations"`
	APIs         APIsConfig              `mapstructure:"apis"`
	Catalog      CatalogConfig           `mapstructure:"catalog"`
	Pipeline     PipelineConfig          `mapstructure:"pipeline"`
	Staff        StaffConfig             `mapstructure:"staff"`
	Logging      LoggingConfig           `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	HTTPAddr    string `mapstructure:"http_addr"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

// GetURL returns the explicit URL or the first configured address.
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the settings shared by every job worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// IntegrationConfig holds CRM and AWS messaging settings.
type IntegrationConfig struct {
	Zoho struct {
		Enabled   bool   `mapstructure:"enabled"`
		BaseURL   string `mapstructure:"base_url"`
		AuthToken string `mapstructure:"oauth_token"`
	} `mapstructure:"zoho"`

	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
			TeamInbox string `mapstructure:"team_inbox"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled      bool   `mapstructure:"enabled"`
			SenderID     string `mapstructure:"sender_id"`
			HotLeadPhone string `mapstructure:"hot_lead_phone"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// APIsConfig holds settings for the generative-text collaborator.
type APIsConfig struct {
	GenAI GenAIConfig `mapstructure:"genai"`
}

type GenAIConfig struct {
	Provider  string `mapstructure:"provider"` // anthropic | http
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int64  `mapstructure:"max_tokens"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds
}

// CatalogConfig controls where program records are read from.
type CatalogConfig struct {
	CSVPath  string `mapstructure:"csv_path"`
	Index    string `mapstructure:"index"`
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds
}

// PipelineConfig holds case-handling policy.
type PipelineConfig struct {
	SLAHours          int    `mapstructure:"sla_hours"`
	SweepSchedule     string `mapstructure:"sweep_schedule"`
	HotLeadSMSEnabled bool   `mapstructure:"hot_lead_sms_enabled"`
	DefaultTopN       int    `mapstructure:"default_top_n"`
}

// StaffConfig seeds the first admin account when the users table is empty.
type StaffConfig struct {
	BootstrapAdminEmail    string `mapstructure:"bootstrap_admin_email"`
	BootstrapAdminPassword string `mapstructure:"bootstrap_admin_password"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top,
// expands ${VAR} placeholders and applies defaults.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	candidates := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		candidates = append(candidates, filepath.Join(root, ".env"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
			v.Set(key, expanded)
		}
	}
}

// overrideEmptyConfig fills secrets that are commonly supplied only through the environment.
func overrideEmptyConfig(cfg *Config) {
	envOverrides := []struct {
		target *string
		name   string
	}{
		{&cfg.APIs.GenAI.APIKey, "GENAI_API_KEY"},
		{&cfg.APIs.GenAI.APIKey, "ANTHROPIC_API_KEY"},
		{&cfg.Integrations.Zoho.AuthToken, "ZOHO_CRM_OAUTH_TOKEN"},
		{&cfg.Database.Postgres.User, "DB_USER"},
		{&cfg.Database.Postgres.Password, "DB_PASSWORD"},
		{&cfg.Staff.BootstrapAdminPassword, "BOOTSTRAP_ADMIN_PASSWORD"},
		{&cfg.Integrations.AWS.SNS.HotLeadPhone, "HOT_LEAD_PHONE"},
	}

	for _, o := range envOverrides {
		if *o.target != "" {
			continue
		}
		if val := os.Getenv(o.name); val != "" {
			*o.target = val
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "counsel-workers"
	}
	if cfg.App.HTTPAddr == "" {
		cfg.App.HTTPAddr = ":8080"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	if cfg.APIs.GenAI.Provider == "" {
		cfg.APIs.GenAI.Provider = "anthropic"
	}
	if cfg.APIs.GenAI.Model == "" {
		cfg.APIs.GenAI.Model = "claude-haiku-4-5-20251001"
	}
	if cfg.APIs.GenAI.MaxTokens == 0 {
		cfg.APIs.GenAI.MaxTokens = 1024
	}
	if cfg.APIs.GenAI.Timeout == 0 {
		cfg.APIs.GenAI.Timeout = 20000
	}

	if cfg.Catalog.Index == "" {
		cfg.Catalog.Index = "programs"
	}
	if cfg.Catalog.CacheTTL == 0 {
		cfg.Catalog.CacheTTL = 600
	}

	if cfg.Pipeline.SLAHours == 0 {
		cfg.Pipeline.SLAHours = 24
	}
	if cfg.Pipeline.SweepSchedule == "" {
		cfg.Pipeline.SweepSchedule = "@every 15m"
	}
	if cfg.Pipeline.DefaultTopN == 0 {
		cfg.Pipeline.DefaultTopN = 3
	}

	if cfg.Staff.BootstrapAdminEmail == "" {
		cfg.Staff.BootstrapAdminEmail = "admin@counsel.local"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}
	switch cfg.APIs.GenAI.Provider {
	case "anthropic", "http":
	default:
		return fmt.Errorf("apis.genai.provider %q is not supported", cfg.APIs.GenAI.Provider)
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig returns the worker's settings, or the defaults when it is not listed.
func GetWorkerConfig(cfg *Config, taskType string) WorkerConfig {
	if worker, exists := cfg.Workers[taskType]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled reports whether a worker should be registered. Unlisted workers are enabled.
func IsWorkerEnabled(cfg *Config, taskType string) bool {
	return GetWorkerConfig(cfg, taskType).Enabled
}

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Fees      FeesConfig      `yaml:"fees"`
	Sequences SequencesConfig `yaml:"sequences"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	Templates TemplatesConfig `yaml:"templates"`
	Notify    NotifyConfig    `yaml:"notify"`
	Renderer  RendererConfig  `yaml:"renderer"`
	Outbox    OutboxConfig    `yaml:"outbox"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// StorageConfig selects the record store backend
type StorageConfig struct {
	Driver   string `yaml:"driver"` // "postgres" or "bolt"
	BoltPath string `yaml:"bolt_path"`
}

// JWTConfig contains bearer token settings
type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// FeesConfig contains pricing settings. Percentages are plain numbers (5 means 5%).
type FeesConfig struct {
	DefaultServicePercent string `yaml:"default_service_percent"`
	SaleDepositPercent    string `yaml:"sale_deposit_percent"`
	InvoiceDueDays        int    `yaml:"invoice_due_days"`
}

type NamespaceConfig struct {
	Prefix string `yaml:"prefix"`
	Width  int    `yaml:"width"`
}

// SequencesConfig contains serial number settings
type SequencesConfig struct {
	Namespaces     map[string]NamespaceConfig `yaml:"namespaces"`
	RetryAttempts  int                        `yaml:"retry_attempts"`
	RetryBackoffMs int                        `yaml:"retry_backoff_ms"`
}

// WorkflowConfig contains signature workflow settings
type WorkflowConfig struct {
	RejectEarlyAdmin bool `yaml:"reject_early_admin"`
	MaxCASRetries    int  `yaml:"max_cas_retries"`
}

// TemplatesConfig contains contract template settings
type TemplatesConfig struct {
	DefaultTemplateID string `yaml:"default_template_id"`
}

// NotifyConfig contains notification channel settings. Empty credentials disable a channel.
// AdminDeviceToken is the FCM registration token of the admin's device.
type NotifyConfig struct {
	SendGridAPIKey          string `yaml:"sendgrid_api_key"`
	FromEmail               string `yaml:"from_email"`
	FromName                string `yaml:"from_name"`
	FirebaseCredentialsFile string `yaml:"firebase_credentials_file"`
	AdminEmail              string `yaml:"admin_email"`
	AdminName               string `yaml:"admin_name"`
	AdminDeviceToken        string `yaml:"admin_device_token"`
}

// RendererConfig contains receipt rendering settings
type RendererConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// OutboxConfig contains outbox dispatcher settings
type OutboxConfig struct {
	BatchSize      int `yaml:"batch_size"`
	MaxAttempts    int `yaml:"max_attempts"`
	BaseBackoffSec int `yaml:"base_backoff_seconds"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	DispatchOutbox   string `yaml:"dispatch_outbox"`
	RefreshFeeConfig string `yaml:"refresh_fee_config"`
	RequestReceipts  string `yaml:"request_receipts"`
}

// Load reads configuration from a YAML file. A .env file in the working
// directory, if present, is loaded into the environment first.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse builds a Config from YAML bytes, applying env overrides and defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Storage
	if val := os.Getenv("STORAGE_DRIVER"); val != "" {
		c.Storage.Driver = val
	}
	if val := os.Getenv("BOLT_PATH"); val != "" {
		c.Storage.BoltPath = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Notify
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Notify.SendGridAPIKey = val
	}
	if val := os.Getenv("FIREBASE_CREDENTIALS_FILE"); val != "" {
		c.Notify.FirebaseCredentialsFile = val
	}
	if val := os.Getenv("ADMIN_EMAIL"); val != "" {
		c.Notify.AdminEmail = val
	}
	if val := os.Getenv("ADMIN_DEVICE_TOKEN"); val != "" {
		c.Notify.AdminDeviceToken = val
	}

	// Renderer
	if val := os.Getenv("RENDERER_URL"); val != "" {
		c.Renderer.URL = val
	}

	// Fees
	if val := os.Getenv("FEES_DEFAULT_SERVICE_PERCENT"); val != "" {
		c.Fees.DefaultServicePercent = val
	}

	// Workflow
	if val := os.Getenv("WORKFLOW_REJECT_EARLY_ADMIN"); val != "" {
		c.Workflow.RejectEarlyAdmin = strings.EqualFold(val, "true") || val == "1"
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Storage validation
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	switch c.Storage.Driver {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case "bolt":
		if c.Storage.BoltPath == "" {
			c.Storage.BoltPath = "contracts.db"
		}
	default:
		return fmt.Errorf("unknown storage driver: %s", c.Storage.Driver)
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}

	// Fee defaults
	if c.Fees.DefaultServicePercent == "" {
		c.Fees.DefaultServicePercent = "5"
	}
	if c.Fees.SaleDepositPercent == "" {
		c.Fees.SaleDepositPercent = "10"
	}
	if _, err := decimal.NewFromString(c.Fees.DefaultServicePercent); err != nil {
		return fmt.Errorf("invalid default service percent %q: %w", c.Fees.DefaultServicePercent, err)
	}
	if _, err := decimal.NewFromString(c.Fees.SaleDepositPercent); err != nil {
		return fmt.Errorf("invalid sale deposit percent %q: %w", c.Fees.SaleDepositPercent, err)
	}
	if c.Fees.InvoiceDueDays == 0 {
		c.Fees.InvoiceDueDays = 7
	}

	// Sequence defaults
	if c.Sequences.Namespaces == nil {
		c.Sequences.Namespaces = map[string]NamespaceConfig{}
	}
	if _, ok := c.Sequences.Namespaces["invoice"]; !ok {
		c.Sequences.Namespaces["invoice"] = NamespaceConfig{Prefix: "INV", Width: 6}
	}
	if _, ok := c.Sequences.Namespaces["contract"]; !ok {
		c.Sequences.Namespaces["contract"] = NamespaceConfig{Prefix: "CTR", Width: 6}
	}
	if c.Sequences.RetryAttempts == 0 {
		c.Sequences.RetryAttempts = 3
	}
	if c.Sequences.RetryBackoffMs == 0 {
		c.Sequences.RetryBackoffMs = 50
	}

	// Workflow defaults
	if c.Workflow.MaxCASRetries == 0 {
		c.Workflow.MaxCASRetries = 5
	}

	// Templates
	if c.Templates.DefaultTemplateID == "" {
		c.Templates.DefaultTemplateID = "default"
	}

	// Notify defaults
	if c.Notify.FromName == "" {
		c.Notify.FromName = "Contracts"
	}
	if c.Notify.SendGridAPIKey != "" && c.Notify.FromEmail == "" {
		return fmt.Errorf("notify from_email is required when sendgrid is enabled")
	}

	// Renderer defaults
	if c.Renderer.TimeoutSeconds == 0 {
		c.Renderer.TimeoutSeconds = 10
	}

	// Outbox defaults
	if c.Outbox.BatchSize == 0 {
		c.Outbox.BatchSize = 50
	}
	if c.Outbox.MaxAttempts == 0 {
		c.Outbox.MaxAttempts = 8
	}
	if c.Outbox.BaseBackoffSec == 0 {
		c.Outbox.BaseBackoffSec = 30
	}

	// Scheduler defaults
	if c.Scheduler.DispatchOutbox == "" {
		c.Scheduler.DispatchOutbox = "*/30 * * * * *" // every 30 seconds
	}
	if c.Scheduler.RefreshFeeConfig == "" {
		c.Scheduler.RefreshFeeConfig = "0 */5 * * * *" // every 5 minutes
	}
	if c.Scheduler.RequestReceipts == "" {
		c.Scheduler.RequestReceipts = "0 */10 * * * *" // every 10 minutes
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DefaultServicePercent returns the configured fee percent as a decimal.
func (c *Config) DefaultServicePercent() decimal.Decimal {
	return decimal.RequireFromString(c.Fees.DefaultServicePercent)
}

func (c *Config) SaleDepositPercent() decimal.Decimal {
	return decimal.RequireFromString(c.Fees.SaleDepositPercent)
}

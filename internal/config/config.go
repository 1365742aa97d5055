package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Environment variables carrying credentials. Credentials never live in the
// yaml file; their absence is fatal at startup.
const (
	EnvDBPassword         = "DB_PASSWORD"
	EnvRedditClientID     = "REDDIT_CLIENT_ID"
	EnvRedditClientSecret = "REDDIT_CLIENT_SECRET"
	EnvRedditUserAgent    = "REDDIT_USER_AGENT"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Reddit   RedditConfig   `yaml:"reddit"`
	Logging  LoggingConfig  `yaml:"logging"`
	App      AppConfig      `yaml:"app"`
	Worker   WorkerConfig   `yaml:"worker"`
}

// ServerConfig holds the status API server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"-"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// RabbitMQConfig holds the optional job-ready notification channel settings
type RabbitMQConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	User          string        `yaml:"user"`
	Password      string        `yaml:"password"`
	VHost         string        `yaml:"vhost"`
	Exchange      string        `yaml:"exchange"`
	Queue         string        `yaml:"queue"`
	RoutingKey    string        `yaml:"routing_key"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	Heartbeat     time.Duration `yaml:"heartbeat"`
}

// RedditConfig holds Reddit API settings; credentials come from the environment
type RedditConfig struct {
	ClientID     string        `yaml:"-"`
	ClientSecret string        `yaml:"-"`
	UserAgent    string        `yaml:"user_agent"`
	Timeout      time.Duration `yaml:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// WorkerConfig holds the scheduler configuration
type WorkerConfig struct {
	Mode         string        `yaml:"mode"` // queue or watermark
	PollInterval time.Duration `yaml:"poll_interval"`
	CallTimeout  time.Duration `yaml:"call_timeout"`
	MaxPosts     int           `yaml:"max_posts"`
	MaxComments  int           `yaml:"max_comments"`
	BatchSize    int           `yaml:"batch_size"`
	MaxAttempts  int           `yaml:"max_attempts"`
}

// Load reads and parses the configuration file, applies documented defaults,
// and pulls credentials from the environment.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	config.applyEnv()

	return &config, nil
}

// applyDefaults fills in every documented default.
func (c *Config) applyDefaults() {
	if c.Worker.Mode == "" {
		c.Worker.Mode = "queue"
	}
	if c.Worker.PollInterval <= 0 {
		c.Worker.PollInterval = 300 * time.Second
	}
	if c.Worker.CallTimeout <= 0 {
		c.Worker.CallTimeout = 30 * time.Second
	}
	if c.Worker.MaxPosts <= 0 {
		c.Worker.MaxPosts = 20
	}
	if c.Worker.MaxComments <= 0 {
		c.Worker.MaxComments = 50
	}
	if c.Worker.BatchSize <= 0 {
		c.Worker.BatchSize = 10
	}
	if c.Worker.MaxAttempts <= 0 {
		c.Worker.MaxAttempts = 5
	}
	if c.Reddit.UserAgent == "" {
		c.Reddit.UserAgent = "campus-pulse/0.1"
	}
	if c.Reddit.Timeout <= 0 {
		c.Reddit.Timeout = 15 * time.Second
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// applyEnv pulls credentials and credential-adjacent overrides from the
// environment.
func (c *Config) applyEnv() {
	c.Database.Password = os.Getenv(EnvDBPassword)
	c.Reddit.ClientID = os.Getenv(EnvRedditClientID)
	c.Reddit.ClientSecret = os.Getenv(EnvRedditClientSecret)
	if ua := os.Getenv(EnvRedditUserAgent); ua != "" {
		c.Reddit.UserAgent = ua
	}
}

// MissingCredentials lists every required credential variable that is unset.
// A non-empty result is a fatal startup condition.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.Database.Password == "" {
		missing = append(missing, EnvDBPassword)
	}
	if c.Reddit.ClientID == "" {
		missing = append(missing, EnvRedditClientID)
	}
	if c.Reddit.ClientSecret == "" {
		missing = append(missing, EnvRedditClientSecret)
	}
	return missing
}

// ValidateWorkerConfig checks everything the worker service needs to start.
func (c *Config) ValidateWorkerConfig() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port < MinPort || c.Database.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Worker.Mode != "queue" && c.Worker.Mode != "watermark" {
		return fmt.Errorf("invalid worker mode: %q (must be queue or watermark)", c.Worker.Mode)
	}
	if c.RabbitMQ.Enabled {
		if c.RabbitMQ.Host == "" {
			return fmt.Errorf("rabbitmq host is required when rabbitmq is enabled")
		}
		if c.RabbitMQ.Queue == "" {
			return fmt.Errorf("rabbitmq queue name is required when rabbitmq is enabled")
		}
	}
	if missing := c.MissingCredentials(); len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateAPIConfig checks everything the status API service needs to start.
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("missing required environment variables: %s", EnvDBPassword)
	}
	return nil
}

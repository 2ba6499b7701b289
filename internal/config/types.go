package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Detection  DetectionConfig  `yaml:"detection" mapstructure:"detection"`
	Advisory   AdvisoryConfig   `yaml:"advisory" mapstructure:"advisory"`
	Compliance ComplianceConfig `yaml:"compliance" mapstructure:"compliance"`
	Audit      AuditConfig      `yaml:"audit" mapstructure:"audit"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Storage    StorageConfig    `yaml:"storage" mapstructure:"storage"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
	Events     EventsConfig     `yaml:"events" mapstructure:"events"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	RateLimit    struct {
		Enabled        bool `yaml:"enabled" mapstructure:"enabled"`
		RequestsPerMin int  `yaml:"requests_per_min" mapstructure:"requests_per_min"`
		Burst          int  `yaml:"burst" mapstructure:"burst"`
	} `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// DetectionConfig contains PII detection configuration
type DetectionConfig struct {
	Enabled   bool     `yaml:"enabled" mapstructure:"enabled"`
	Detectors []string `yaml:"detectors" mapstructure:"detectors"`
	NER       struct {
		Enabled             bool          `yaml:"enabled" mapstructure:"enabled"`
		ModelPath           string        `yaml:"model_path" mapstructure:"model_path"`
		ConfidenceThreshold float64       `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
		// MaxChars bounds how much text the recognizer sees. Entities past
		// this window are only found by the pattern detectors, which always
		// scan the full document.
		MaxChars int           `yaml:"max_chars" mapstructure:"max_chars"`
		Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
	} `yaml:"ner" mapstructure:"ner"`
}

// AdvisoryConfig contains the compliance advisory LLM configuration
type AdvisoryConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
	// APIKeyEnv names the environment variable holding the API key. The key
	// itself never appears in config files.
	APIKeyEnv string        `yaml:"api_key_env" mapstructure:"api_key_env"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// MaxChars bounds how much redacted text is sent for assessment.
	MaxChars int `yaml:"max_chars" mapstructure:"max_chars"`
	Cache    struct {
		Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
		RedisURL       string        `yaml:"redis_url" mapstructure:"redis_url"`
		KeyPrefix      string        `yaml:"key_prefix" mapstructure:"key_prefix"`
		DefaultTTL     time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
		MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
		MinIdleConns   int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	} `yaml:"cache" mapstructure:"cache"`
}

// ComplianceConfig contains compliance regime configuration
type ComplianceConfig struct {
	DefaultRegime string `yaml:"default_regime" mapstructure:"default_regime"`
	// StrictFilter makes the regime filter gate redaction itself. By default
	// the filter is used for reporting only and everything detected is
	// redacted.
	StrictFilter bool `yaml:"strict_filter" mapstructure:"strict_filter"`
}

// AuditConfig contains audit record persistence configuration
type AuditConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	Postgres struct {
		Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
		DatabaseURL     string        `yaml:"database_url" mapstructure:"database_url"`
		MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
		MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	} `yaml:"postgres" mapstructure:"postgres"`
}

// BatchConfig contains multi-file processing configuration
type BatchConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// StorageConfig contains working-directory configuration
type StorageConfig struct {
	WorkDir        string `yaml:"work_dir" mapstructure:"work_dir"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
		Path     string `yaml:"path" mapstructure:"path"`
		MaxSize  int    `yaml:"max_size" mapstructure:"max_size"`
		MaxAge   int    `yaml:"max_age" mapstructure:"max_age"`
		Compress bool   `yaml:"compress" mapstructure:"compress"`
	} `yaml:"file" mapstructure:"file"`
}

// EventsConfig contains the WebSocket processing-feed configuration
type EventsConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	Path            string        `yaml:"path" mapstructure:"path"`
	ReadBufferSize  int           `yaml:"read_buffer_size" mapstructure:"read_buffer_size"`
	WriteBufferSize int           `yaml:"write_buffer_size" mapstructure:"write_buffer_size"`
	PingInterval    time.Duration `yaml:"ping_interval" mapstructure:"ping_interval"`
	PongTimeout     time.Duration `yaml:"pong_timeout" mapstructure:"pong_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	Broadcast       struct {
		Transitions bool `yaml:"transitions" mapstructure:"transitions"`
		Batches     bool `yaml:"batches" mapstructure:"batches"`
		Connections bool `yaml:"connections" mapstructure:"connections"`
	} `yaml:"broadcast" mapstructure:"broadcast"`
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Detection: DetectionConfig{
			Enabled:   true,
			Detectors: []string{"all"},
		},
		Advisory: AdvisoryConfig{
			Enabled:   false,
			BaseURL:   "https://generativelanguage.googleapis.com/v1",
			Model:     "gemini-1.5-flash",
			APIKeyEnv: "GEMINI_API_KEY",
			Timeout:   30 * time.Second,
			MaxChars:  1000,
		},
		Compliance: ComplianceConfig{
			DefaultRegime: "GDPR",
			StrictFilter:  false,
		},
		Audit: AuditConfig{
			Dir: "audit_logs",
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		Storage: StorageConfig{
			WorkDir:        "",
			MaxUploadBytes: 64 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Events: EventsConfig{
			Enabled:         true,
			Path:            "/ws",
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingInterval:    54 * time.Second,
			PongTimeout:     60 * time.Second,
			WriteTimeout:    10 * time.Second,
		},
	}

	cfg.Server.RateLimit.Enabled = false
	cfg.Server.RateLimit.RequestsPerMin = 60
	cfg.Server.RateLimit.Burst = 10

	cfg.Detection.NER.Enabled = false
	cfg.Detection.NER.ConfidenceThreshold = 0.4
	cfg.Detection.NER.MaxChars = 5000
	cfg.Detection.NER.Timeout = 30 * time.Second

	cfg.Advisory.Cache.KeyPrefix = "docveil"
	cfg.Advisory.Cache.DefaultTTL = 24 * time.Hour
	cfg.Advisory.Cache.MaxConnections = 10
	cfg.Advisory.Cache.MinIdleConns = 2

	cfg.Audit.Postgres.MaxOpenConns = 10
	cfg.Audit.Postgres.MaxIdleConns = 2
	cfg.Audit.Postgres.ConnMaxLifetime = time.Hour

	cfg.Logging.File.Path = "logs/docveil.log"
	cfg.Logging.File.MaxSize = 100 // MB
	cfg.Logging.File.MaxAge = 30   // days
	cfg.Logging.File.Compress = true

	cfg.Events.Broadcast.Transitions = true
	cfg.Events.Broadcast.Batches = true
	cfg.Events.Broadcast.Connections = true

	return cfg
}

package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Providers   ProvidersConfig `toml:"providers"`
	Tasks       TasksConfig     `toml:"tasks"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Content     ContentConfig   `toml:"content"`
	WebSocket   WebSocketConfig `toml:"websocket"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// ProvidersConfig contains configuration for the external backlink data providers
type ProvidersConfig struct {
	MockMode    bool             `toml:"mock_mode"`    // Start in mock mode (no live provider calls)
	MockDataDir string           `toml:"mockdata_dir"` // Directory containing curated mock datasets (YAML)
	Ahrefs      AhrefsConfig     `toml:"ahrefs"`
	DataForSEO  DataForSEOConfig `toml:"dataforseo"`
	Retry       RetryConfig      `toml:"retry"`
}

// AhrefsConfig contains Ahrefs API configuration
type AhrefsConfig struct {
	APIKey         string        `toml:"api_key"`          // Ahrefs API key
	BaseURL        string        `toml:"base_url"`         // API base URL
	RatePerMinute  int           `toml:"rate_per_minute"`  // Token budget per minute
	RequestTimeout time.Duration `toml:"request_timeout"`  // HTTP request timeout
	ResultLimit    int           `toml:"result_limit"`     // Max backlink rows per query
}

// DataForSEOConfig contains DataForSEO API configuration
type DataForSEOConfig struct {
	Username       string        `toml:"username"`        // DataForSEO login
	Password       string        `toml:"password"`        // DataForSEO password
	BaseURL        string        `toml:"base_url"`        // API base URL
	RatePerMinute  int           `toml:"rate_per_minute"` // Token budget per minute
	RequestTimeout time.Duration `toml:"request_timeout"` // HTTP request timeout
	ResultLimit    int           `toml:"result_limit"`    // Max backlink rows per query
	SerpTopN       int           `toml:"serp_top_n"`      // SERP positions fetched per keyword
}

// RetryConfig controls retry behavior for transient provider failures
type RetryConfig struct {
	MaxAttempts int           `toml:"max_attempts"` // Total attempts including the first call
	BaseBackoff time.Duration `toml:"base_backoff"` // First retry delay, doubled per attempt
}

// TasksConfig contains configuration for the task orchestrator
type TasksConfig struct {
	Workers               int           `toml:"workers"`                 // Concurrent task workers
	QueueSize             int           `toml:"queue_size"`              // Buffered task queue capacity
	DefaultTimeoutMinutes int           `toml:"default_timeout_minutes"` // Per-task deadline when the task carries no estimate
	RetentionDays         int           `toml:"retention_days"`          // Terminal tasks older than this are pruned
	JanitorInterval       time.Duration `toml:"janitor_interval"`        // How often the retention janitor runs
}

// SchedulerConfig contains configuration for scheduled campaign monitoring
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule format
}

// ContentConfig contains configuration for source page fetching during
// content verification
type ContentConfig struct {
	UserAgent      string        `toml:"user_agent"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	MaxBodySize    int           `toml:"max_body_size"` // Maximum response body size in bytes
	MaxPages       int           `toml:"max_pages"`     // Max source pages fetched per verification task
}

// WebSocketConfig contains configuration for WebSocket event/log streaming
type WebSocketConfig struct {
	MinLevel        string   `toml:"min_level"`        // Minimum log level to broadcast ("debug", "info", "warn", "error")
	ExcludePatterns []string `toml:"exclude_patterns"` // Log message patterns to exclude from broadcasting
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in linklens.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Providers: ProvidersConfig{
			MockMode:    true, // Live calls require an explicit runtime toggle
			MockDataDir: "./mockdata",
			Ahrefs: AhrefsConfig{
				BaseURL:        "https://api.ahrefs.com/v3",
				RatePerMinute:  30,
				RequestTimeout: 30 * time.Second,
				ResultLimit:    100,
			},
			DataForSEO: DataForSEOConfig{
				BaseURL:        "https://api.dataforseo.com/v3",
				RatePerMinute:  30,
				RequestTimeout: 30 * time.Second,
				ResultLimit:    50,
				SerpTopN:       20,
			},
			Retry: RetryConfig{
				MaxAttempts: 3,
				BaseBackoff: 250 * time.Millisecond,
			},
		},
		Tasks: TasksConfig{
			Workers:               3,
			QueueSize:             100,
			DefaultTimeoutMinutes: 10,
			RetentionDays:         7,
			JanitorInterval:       1 * time.Hour,
		},
		Scheduler: SchedulerConfig{
			Enabled:  false, // Disabled by default - user must explicitly opt-in
			Schedule: "0 0 * * * *",
		},
		Content: ContentConfig{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			RequestTimeout: 20 * time.Second,
			MaxBodySize:    5 * 1024 * 1024, // 5MB
			MaxPages:       25,
		},
		WebSocket: WebSocketConfig{
			MinLevel: "info",
			ExcludePatterns: []string{
				"WebSocket client connected",
				"WebSocket client disconnected",
				"HTTP request",
				"HTTP response",
			},
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Apply environment variables (overrides all file configs)
	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: LINKLENS_ENV, fallback: GO_ENV)
	if env := os.Getenv("LINKLENS_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("LINKLENS_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("LINKLENS_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("LINKLENS_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("LINKLENS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("LINKLENS_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("LINKLENS_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			trimmed := strings.TrimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Provider configuration
	if mockMode := os.Getenv("LINKLENS_MOCK_MODE"); mockMode != "" {
		if mm, err := strconv.ParseBool(mockMode); err == nil {
			config.Providers.MockMode = mm
		}
	}
	if mockDir := os.Getenv("LINKLENS_MOCKDATA_DIR"); mockDir != "" {
		config.Providers.MockDataDir = mockDir
	}
	if apiKey := os.Getenv("LINKLENS_AHREFS_API_KEY"); apiKey != "" {
		config.Providers.Ahrefs.APIKey = apiKey
	}
	if baseURL := os.Getenv("LINKLENS_AHREFS_BASE_URL"); baseURL != "" {
		config.Providers.Ahrefs.BaseURL = baseURL
	}
	if rpm := os.Getenv("LINKLENS_AHREFS_RATE_PER_MINUTE"); rpm != "" {
		if r, err := strconv.Atoi(rpm); err == nil {
			config.Providers.Ahrefs.RatePerMinute = r
		}
	}
	if username := os.Getenv("LINKLENS_DATAFORSEO_USERNAME"); username != "" {
		config.Providers.DataForSEO.Username = username
	}
	if password := os.Getenv("LINKLENS_DATAFORSEO_PASSWORD"); password != "" {
		config.Providers.DataForSEO.Password = password
	}
	if baseURL := os.Getenv("LINKLENS_DATAFORSEO_BASE_URL"); baseURL != "" {
		config.Providers.DataForSEO.BaseURL = baseURL
	}
	if rpm := os.Getenv("LINKLENS_DATAFORSEO_RATE_PER_MINUTE"); rpm != "" {
		if r, err := strconv.Atoi(rpm); err == nil {
			config.Providers.DataForSEO.RatePerMinute = r
		}
	}
	if maxAttempts := os.Getenv("LINKLENS_RETRY_MAX_ATTEMPTS"); maxAttempts != "" {
		if ma, err := strconv.Atoi(maxAttempts); err == nil {
			config.Providers.Retry.MaxAttempts = ma
		}
	}
	if baseBackoff := os.Getenv("LINKLENS_RETRY_BASE_BACKOFF"); baseBackoff != "" {
		if bb, err := time.ParseDuration(baseBackoff); err == nil {
			config.Providers.Retry.BaseBackoff = bb
		}
	}

	// Task orchestrator configuration
	if workers := os.Getenv("LINKLENS_TASK_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			config.Tasks.Workers = w
		}
	}
	if queueSize := os.Getenv("LINKLENS_TASK_QUEUE_SIZE"); queueSize != "" {
		if qs, err := strconv.Atoi(queueSize); err == nil {
			config.Tasks.QueueSize = qs
		}
	}
	if timeout := os.Getenv("LINKLENS_TASK_TIMEOUT_MINUTES"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			config.Tasks.DefaultTimeoutMinutes = t
		}
	}
	if retention := os.Getenv("LINKLENS_TASK_RETENTION_DAYS"); retention != "" {
		if rd, err := strconv.Atoi(retention); err == nil {
			config.Tasks.RetentionDays = rd
		}
	}

	// Scheduler configuration
	if enabled := os.Getenv("LINKLENS_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}
	if schedule := os.Getenv("LINKLENS_SCHEDULER_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}

	// Content fetcher configuration
	if userAgent := os.Getenv("LINKLENS_CONTENT_USER_AGENT"); userAgent != "" {
		config.Content.UserAgent = userAgent
	}
	if requestTimeout := os.Getenv("LINKLENS_CONTENT_REQUEST_TIMEOUT"); requestTimeout != "" {
		if rt, err := time.ParseDuration(requestTimeout); err == nil {
			config.Content.RequestTimeout = rt
		}
	}
	if maxBodySize := os.Getenv("LINKLENS_CONTENT_MAX_BODY_SIZE"); maxBodySize != "" {
		if mbs, err := strconv.Atoi(maxBodySize); err == nil {
			config.Content.MaxBodySize = mbs
		}
	}

	// WebSocket configuration
	if minLevel := os.Getenv("LINKLENS_WEBSOCKET_MIN_LEVEL"); minLevel != "" {
		config.WebSocket.MinLevel = minLevel
	}
}

// IsProduction returns true when the service runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// HasAhrefsCredentials reports whether live Ahrefs calls are possible
func (c *Config) HasAhrefsCredentials() bool {
	return c.Providers.Ahrefs.APIKey != ""
}

// HasDataForSEOCredentials reports whether live DataForSEO calls are possible
func (c *Config) HasDataForSEOCredentials() bool {
	return c.Providers.DataForSEO.Username != "" && c.Providers.DataForSEO.Password != ""
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Analysis   AnalysisConfig   `yaml:"analysis" envconfig:"ANALYSIS"`
	Checkpoint CheckpointConfig `yaml:"checkpoint" envconfig:"CHECKPOINT"`
	WebSocket  WebSocketConfig  `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RunTimeout      time.Duration `yaml:"run_timeout" envconfig:"RUN_TIMEOUT" default:"1h"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/ecomlens.log"`
}

// PathsConfig contains file system paths configuration.
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data_storage"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"complete_analysis"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// AnalysisConfig contains the tunable statistical parameters of the pipeline.
type AnalysisConfig struct {
	// QualityThreshold is the aggregate quality score below which the run
	// raises a quality advisory. The run still proceeds; halting is a human
	// decision at the first checkpoint.
	QualityThreshold float64 `yaml:"quality_threshold" envconfig:"QUALITY_THRESHOLD" default:"75"`

	// CorrelationThreshold is the minimum |r| for a correlation finding.
	CorrelationThreshold float64 `yaml:"correlation_threshold" envconfig:"CORRELATION_THRESHOLD" default:"0.3"`

	// IQRMultiplier sets the Tukey fence width for outlier detection.
	IQRMultiplier float64 `yaml:"iqr_multiplier" envconfig:"IQR_MULTIPLIER" default:"1.5"`

	// AnalysisDate anchors the timeliness score. Empty means today.
	AnalysisDate string `yaml:"analysis_date" envconfig:"ANALYSIS_DATE"`
}

// CheckpointConfig controls the human-in-the-loop pause points.
type CheckpointConfig struct {
	Enabled bool          `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"300s"`
}

// WebSocketConfig contains WebSocket configuration for the progress hub.
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// configFileEnv names the environment variable that overrides the default
// config file location.
const configFileEnv = "ECOMLENS_CONFIG"

// Load loads configuration from environment variables and the optional
// YAML config file. Environment variables take precedence.
func Load() (*Config, error) {
	var cfg Config

	// File first, then env on top so env wins.
	configFile := configFilePath()
	if _, err := os.Stat(configFile); err == nil {
		if err := loadFromFile(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process("ECOMLENS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// WithDefaults returns a Config populated with defaults only, for tests and
// for the CLI entry points that run without a config file.
func WithDefaults() *Config {
	var cfg Config
	// envconfig fills struct defaults even with no variables set.
	if err := envconfig.Process("ECOMLENS", &cfg); err != nil {
		// Defaults never fail to parse; keep the zero value as fallback.
		return &Config{}
	}
	return &cfg
}

func configFilePath() string {
	if path := os.Getenv(configFileEnv); path != "" {
		return path
	}
	return "ecomlens.yaml"
}

func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Analysis.QualityThreshold < 0 || c.Analysis.QualityThreshold > 100 {
		return fmt.Errorf("quality threshold must be in [0,100], got %v", c.Analysis.QualityThreshold)
	}
	if c.Analysis.CorrelationThreshold < 0 || c.Analysis.CorrelationThreshold > 1 {
		return fmt.Errorf("correlation threshold must be in [0,1], got %v", c.Analysis.CorrelationThreshold)
	}
	if c.Analysis.IQRMultiplier <= 0 {
		return fmt.Errorf("iqr multiplier must be positive, got %v", c.Analysis.IQRMultiplier)
	}
	if c.Analysis.AnalysisDate != "" {
		if _, err := time.Parse("2006-01-02", c.Analysis.AnalysisDate); err != nil {
			return fmt.Errorf("invalid analysis date %q: %w", c.Analysis.AnalysisDate, err)
		}
	}
	if c.Checkpoint.Timeout <= 0 {
		return fmt.Errorf("checkpoint timeout must be positive, got %v", c.Checkpoint.Timeout)
	}
	return nil
}

// AnalysisTime returns the configured analysis date, or now when unset.
func (c *Config) AnalysisTime() time.Time {
	if c.Analysis.AnalysisDate == "" {
		return time.Now()
	}
	t, err := time.Parse("2006-01-02", c.Analysis.AnalysisDate)
	if err != nil {
		return time.Now()
	}
	return t
}

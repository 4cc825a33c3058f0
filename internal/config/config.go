// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Scoring() ScoringConfig
	Memory() MemoryConfig
	Streaming() StreamingConfig
	Writer() WriterConfig
	Report() ReportConfig
	History() HistoryConfig
	Generate() GenerateConfig
	SetGenerateConfig(gc GenerateConfig)
}

// Config holds the entire application configuration. It uses private fields
// to enforce access through the Interface's getter methods.
type Config struct {
	logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	scoring   ScoringConfig   `mapstructure:"scoring" yaml:"scoring"`
	memory    MemoryConfig    `mapstructure:"memory" yaml:"memory"`
	streaming StreamingConfig `mapstructure:"streaming" yaml:"streaming"`
	writer    WriterConfig    `mapstructure:"writer" yaml:"writer"`
	report    ReportConfig    `mapstructure:"report" yaml:"report"`
	history   HistoryConfig   `mapstructure:"history" yaml:"history"`
	// generate gets its marching orders from CLI flags, not the config file.
	generate GenerateConfig `mapstructure:"-" yaml:"-"`
}

// -- Interface Method Implementations --

func (c *Config) Logger() LoggerConfig       { return c.logger }
func (c *Config) Scoring() ScoringConfig     { return c.scoring }
func (c *Config) Memory() MemoryConfig       { return c.memory }
func (c *Config) Streaming() StreamingConfig { return c.streaming }
func (c *Config) Writer() WriterConfig       { return c.writer }
func (c *Config) Report() ReportConfig       { return c.report }
func (c *Config) History() HistoryConfig     { return c.history }
func (c *Config) Generate() GenerateConfig   { return c.generate }

func (c *Config) SetGenerateConfig(gc GenerateConfig) { c.generate = gc }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// ScoringConfig parameterizes the shared priority-scoring formula. Every
// template consumes the same formula; only these constants are tunable.
type ScoringConfig struct {
	// CapTime bounds the time contribution (totalMs / 1000, capped).
	CapTime float64 `mapstructure:"cap_time" yaml:"cap_time"`
	// CapBytes bounds the byte contribution (totalBytes / 100000, capped).
	CapBytes float64 `mapstructure:"cap_bytes" yaml:"cap_bytes"`

	WeightTime  float64 `mapstructure:"weight_time" yaml:"weight_time"`
	WeightBytes float64 `mapstructure:"weight_bytes" yaml:"weight_bytes"`
	WeightPages float64 `mapstructure:"weight_pages" yaml:"weight_pages"`

	// SeverityWeights maps severity names to multipliers (critical/high/medium/low).
	SeverityWeights map[string]float64 `mapstructure:"severity_weights" yaml:"severity_weights"`
}

// MemoryConfig tunes the memory monitor.
type MemoryConfig struct {
	// MaxHeapBytes is the heap budget report generation tries to stay under.
	MaxHeapBytes uint64 `mapstructure:"max_heap_bytes" yaml:"max_heap_bytes"`

	WarningFraction   float64 `mapstructure:"warning_fraction" yaml:"warning_fraction"`
	EmergencyFraction float64 `mapstructure:"emergency_fraction" yaml:"emergency_fraction"`

	SampleInterval time.Duration `mapstructure:"sample_interval" yaml:"sample_interval"`
	MinGCInterval  time.Duration `mapstructure:"min_gc_interval" yaml:"min_gc_interval"`
}

// StreamingConfig controls the streaming-vs-standard decision and chunking.
type StreamingConfig struct {
	// PageThreshold is the page count above which streaming is selected.
	PageThreshold int `mapstructure:"page_threshold" yaml:"page_threshold"`

	// BudgetFraction of MaxHeapBytes the estimated dataset may occupy before
	// streaming is selected regardless of page count.
	BudgetFraction float64 `mapstructure:"budget_fraction" yaml:"budget_fraction"`

	// ChunkSize is the number of pages folded per streaming chunk.
	ChunkSize int `mapstructure:"chunk_size" yaml:"chunk_size"`

	// NormalizeConcurrency bounds parallel per-page normalization.
	NormalizeConcurrency int `mapstructure:"normalize_concurrency" yaml:"normalize_concurrency"`
}

// WriterConfig tunes the batch file writer.
type WriterConfig struct {
	MaxConcurrent    int64 `mapstructure:"max_concurrent" yaml:"max_concurrent"`
	Compress         bool  `mapstructure:"compress" yaml:"compress"`
	CompressMinBytes int64 `mapstructure:"compress_min_bytes" yaml:"compress_min_bytes"`
}

// ReportConfig holds report-level presentation knobs.
type ReportConfig struct {
	// TopIssues bounds the number of issues shown in ranked markdown views.
	TopIssues int `mapstructure:"top_issues" yaml:"top_issues"`
	// WorstPages bounds the number of pages shown in "worst pages" views.
	WorstPages int `mapstructure:"worst_pages" yaml:"worst_pages"`
	// CICD pass/fail gates.
	MinAveragePerformance float64 `mapstructure:"min_average_performance" yaml:"min_average_performance"`
	MaxCriticalIssues     int     `mapstructure:"max_critical_issues" yaml:"max_critical_issues"`
}

// HistoryConfig configures the append-only run summary.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// GenerateConfig holds settings populated from CLI flags for one run.
type GenerateConfig struct {
	InputPath string
	OutputDir string
	Formats   []string
	Templates []string
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	return &Config{
		logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "signaler",
			MaxSize:     100,
			MaxBackups:  5,
			MaxAge:      30,
			Compress:    true,
		},
		scoring: ScoringConfig{
			CapTime:     30.0,
			CapBytes:    20.0,
			WeightTime:  1.0,
			WeightBytes: 0.5,
			WeightPages: 2.0,
			SeverityWeights: map[string]float64{
				"critical": 4, "high": 3, "medium": 2, "low": 1,
			},
		},
		memory: MemoryConfig{
			MaxHeapBytes:      1 << 30,
			WarningFraction:   0.70,
			EmergencyFraction: 0.90,
			SampleInterval:    250 * time.Millisecond,
			MinGCInterval:     2 * time.Second,
		},
		streaming: StreamingConfig{
			PageThreshold:        50,
			BudgetFraction:       0.80,
			ChunkSize:            50,
			NormalizeConcurrency: 8,
		},
		writer: WriterConfig{
			MaxConcurrent:    4,
			Compress:         false,
			CompressMinBytes: 1 << 20,
		},
		report: ReportConfig{
			TopIssues:         10,
			WorstPages:        10,
			MaxCriticalIssues: -1,
		},
		history: HistoryConfig{Enabled: true},
	}
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "signaler")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Scoring --
	v.SetDefault("scoring.cap_time", 30.0)
	v.SetDefault("scoring.cap_bytes", 20.0)
	v.SetDefault("scoring.weight_time", 1.0)
	v.SetDefault("scoring.weight_bytes", 0.5)
	v.SetDefault("scoring.weight_pages", 2.0)
	v.SetDefault("scoring.severity_weights", map[string]float64{
		"critical": 4, "high": 3, "medium": 2, "low": 1,
	})

	// -- Memory --
	v.SetDefault("memory.max_heap_bytes", uint64(1<<30)) // 1 GiB budget
	v.SetDefault("memory.warning_fraction", 0.70)
	v.SetDefault("memory.emergency_fraction", 0.90)
	v.SetDefault("memory.sample_interval", "250ms")
	v.SetDefault("memory.min_gc_interval", "2s")

	// -- Streaming --
	v.SetDefault("streaming.page_threshold", 50)
	v.SetDefault("streaming.budget_fraction", 0.80)
	v.SetDefault("streaming.chunk_size", 50)
	v.SetDefault("streaming.normalize_concurrency", 8)

	// -- Writer --
	v.SetDefault("writer.max_concurrent", 4)
	v.SetDefault("writer.compress", false)
	v.SetDefault("writer.compress_min_bytes", 1<<20)

	// -- Report --
	v.SetDefault("report.top_issues", 10)
	v.SetDefault("report.worst_pages", 10)
	v.SetDefault("report.min_average_performance", 0)
	v.SetDefault("report.max_critical_issues", -1)

	// -- History --
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.streaming.PageThreshold <= 0 {
		return fmt.Errorf("streaming.page_threshold must be a positive integer")
	}
	if c.streaming.ChunkSize <= 0 {
		return fmt.Errorf("streaming.chunk_size must be a positive integer")
	}
	if c.streaming.NormalizeConcurrency <= 0 {
		return fmt.Errorf("streaming.normalize_concurrency must be a positive integer")
	}
	if c.streaming.BudgetFraction <= 0 || c.streaming.BudgetFraction > 1 {
		return fmt.Errorf("streaming.budget_fraction must be in (0, 1]")
	}
	if c.memory.MaxHeapBytes == 0 {
		return fmt.Errorf("memory.max_heap_bytes must be non-zero")
	}
	if c.memory.WarningFraction <= 0 || c.memory.WarningFraction >= c.memory.EmergencyFraction {
		return fmt.Errorf("memory.warning_fraction must be positive and below memory.emergency_fraction")
	}
	if c.memory.EmergencyFraction > 1 {
		return fmt.Errorf("memory.emergency_fraction must not exceed 1.0")
	}
	if c.writer.MaxConcurrent <= 0 {
		return fmt.Errorf("writer.max_concurrent must be a positive integer")
	}
	if err := c.scoring.Validate(); err != nil {
		return fmt.Errorf("scoring configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the scoring constants.
func (s *ScoringConfig) Validate() error {
	if s.CapTime <= 0 || s.CapBytes <= 0 {
		return fmt.Errorf("cap_time and cap_bytes must be positive")
	}
	if s.WeightTime < 0 || s.WeightBytes < 0 || s.WeightPages < 0 {
		return fmt.Errorf("scoring weights must be non-negative")
	}
	for _, name := range []string{"critical", "high", "medium", "low"} {
		if _, ok := s.SeverityWeights[name]; !ok {
			return fmt.Errorf("severity_weights missing entry for %q", name)
		}
	}
	return nil
}

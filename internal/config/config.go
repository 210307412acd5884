package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Agents       []AgentDefinition  `yaml:"agents"`
	Limits       LimitsConfig       `yaml:"limits"`
	Health       HealthConfig       `yaml:"health"`
	Coordination CoordinationConfig `yaml:"coordination"`
	NATS         NATSConfig         `yaml:"nats"`
	Store        StoreConfig        `yaml:"store"`
	Web          WebConfig          `yaml:"web"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
}

type OrchestratorConfig struct {
	Mode      string `yaml:"mode"`       // collaborative, competitive or hybrid
	BatchSize int    `yaml:"batch_size"` // max assignments per cycle
	Seed      int64  `yaml:"seed"`       // 0 means time-seeded
}

// AgentDefinition describes an agent created at startup.
type AgentDefinition struct {
	Type         string   `yaml:"type"`
	Capabilities []string `yaml:"capabilities"`
}

// ResourceLimits bounds a single agent. Zero fields inherit the base limits.
type ResourceLimits struct {
	MaxMemoryMB        float64       `yaml:"max_memory_mb"`
	MaxProcessingTime  time.Duration `yaml:"max_processing_time"`
	MaxConcurrentTasks int           `yaml:"max_concurrent_tasks"`
	MaxBandwidthMBs    float64       `yaml:"max_bandwidth_mbs"`
}

type LimitsConfig struct {
	Base    ResourceLimits            `yaml:"base"`
	PerType map[string]ResourceLimits `yaml:"per_type"`
}

type HealthConfig struct {
	Interval         time.Duration `yaml:"interval"`
	HeartbeatTimeout time.Duration `yaml:"heartbeat_timeout"`
	SelfHeartbeat    bool          `yaml:"self_heartbeat"`
}

type CoordinationConfig struct {
	Window     time.Duration `yaml:"window"`
	MaxHistory int           `yaml:"max_history"`
	Retention  time.Duration `yaml:"retention"`
}

type NATSConfig struct {
	Port    int    `yaml:"port"`
	DataDir string `yaml:"data_dir"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type WebConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type SchedulerConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

func defaults() Config {
	return Config{
		Orchestrator: OrchestratorConfig{
			Mode:      "hybrid",
			BatchSize: 10,
		},
		Limits: LimitsConfig{
			Base: ResourceLimits{
				MaxMemoryMB:        1024,
				MaxProcessingTime:  60 * time.Second,
				MaxConcurrentTasks: 5,
				MaxBandwidthMBs:    100,
			},
			PerType: map[string]ResourceLimits{
				"decision":   {MaxMemoryMB: 2048, MaxConcurrentTasks: 3},
				"detection":  {MaxConcurrentTasks: 8, MaxProcessingTime: 30 * time.Second},
				"execution":  {MaxConcurrentTasks: 10, MaxProcessingTime: 10 * time.Second},
				"risk":       {MaxMemoryMB: 512, MaxConcurrentTasks: 15},
				"monitoring": {MaxConcurrentTasks: 20, MaxProcessingTime: 5 * time.Second},
			},
		},
		Health: HealthConfig{
			Interval:         10 * time.Second,
			HeartbeatTimeout: 300 * time.Second,
			SelfHeartbeat:    true,
		},
		Coordination: CoordinationConfig{
			Window:     10 * time.Second,
			MaxHistory: 1000,
			Retention:  24 * time.Hour,
		},
		NATS: NATSConfig{
			Port:    4222,
			DataDir: "data/nats",
		},
		Store: StoreConfig{
			Path: "data/nexord.db",
		},
		Web: WebConfig{
			Enabled: true,
			Port:    8080,
		},
		Scheduler: SchedulerConfig{
			PollInterval: 30 * time.Second,
		},
	}
}

func Load() (*Config, error) {
	cfg := defaults()

	path := os.Getenv("NEXORD_CONFIG")
	if path == "" {
		path = "config/nexord.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults + env
	} else {
		// Expand environment variables in YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("NEXORD_MODE"); v != "" {
		cfg.Orchestrator.Mode = v
	}
	if v := os.Getenv("NEXORD_WEB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Web.Port = port
		}
	}
	if v := os.Getenv("NEXORD_NATS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.NATS.Port = port
		}
	}
	if v := os.Getenv("NEXORD_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
}

func validate(cfg *Config) error {
	switch cfg.Orchestrator.Mode {
	case "collaborative", "competitive", "hybrid":
	default:
		return fmt.Errorf("invalid orchestrator mode %q", cfg.Orchestrator.Mode)
	}
	if cfg.Orchestrator.BatchSize <= 0 {
		cfg.Orchestrator.BatchSize = 10
	}
	if cfg.Coordination.Window <= 0 {
		cfg.Coordination.Window = 10 * time.Second
	}
	return nil
}

// LimitsFor resolves the resource limits for an agent type: the base
// limits with per-type overrides applied for any non-zero field.
func (c LimitsConfig) LimitsFor(agentType string) ResourceLimits {
	limits := c.Base
	override, ok := c.PerType[agentType]
	if !ok {
		return limits
	}
	if override.MaxMemoryMB > 0 {
		limits.MaxMemoryMB = override.MaxMemoryMB
	}
	if override.MaxProcessingTime > 0 {
		limits.MaxProcessingTime = override.MaxProcessingTime
	}
	if override.MaxConcurrentTasks > 0 {
		limits.MaxConcurrentTasks = override.MaxConcurrentTasks
	}
	if override.MaxBandwidthMBs > 0 {
		limits.MaxBandwidthMBs = override.MaxBandwidthMBs
	}
	return limits
}

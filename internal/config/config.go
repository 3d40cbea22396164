package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/theatre-rota/pkg/core/lifecycle"
	"github.com/jakechorley/theatre-rota/pkg/core/model"
	"github.com/jakechorley/theatre-rota/pkg/core/roster"
)

const configFileName = "roster_config"

// SolverConfig overrides the default solver options. Unset fields keep their defaults.
type SolverConfig struct {
	Mode           model.Mode    `yaml:"mode,omitempty" validate:"omitempty,oneof=greedy exact"`
	TimeBudget     time.Duration `yaml:"timeBudget,omitempty" validate:"gte=0"`
	SkillMatchHard *bool         `yaml:"skillMatchHard,omitempty"`
	CoverageWeight *float64      `yaml:"coverageWeight,omitempty" validate:"omitempty,gte=0"`
	FairnessWeight *float64      `yaml:"fairnessWeight,omitempty" validate:"omitempty,gte=0"`
	MismatchWeight *float64      `yaml:"mismatchWeight,omitempty" validate:"omitempty,gte=0"`
	RotationWeight *float64      `yaml:"rotationWeight,omitempty" validate:"omitempty,gte=0"`
	Workers        int           `yaml:"workers,omitempty" validate:"gte=0"`
	CheckEvery     int           `yaml:"checkEvery,omitempty" validate:"gte=0"`
	LPMaxCells     *int          `yaml:"lpMaxCells,omitempty" validate:"omitempty,gte=0"`
}

// PublishingConfig controls which drafts may be published
type PublishingConfig struct {
	AllowPartialHeuristic bool `yaml:"allowPartialHeuristic"`
}

// DatabaseConfig holds the PostgreSQL connection string
type DatabaseConfig struct {
	URL string `yaml:"url" validate:"required"`
}

// ArtifactsConfig selects where rendered schedules are stored
type ArtifactsConfig struct {
	Store         string `yaml:"store" validate:"required,oneof=local drive"`
	LocalDir      string `yaml:"localDir,omitempty" validate:"required_if=Store local"`
	DriveFolderID string `yaml:"driveFolderID,omitempty" validate:"required_if=Store drive"`
}

// MetricsConfig controls the Prometheus textfile written after each solve
type MetricsConfig struct {
	TextfilePath string `yaml:"textfilePath,omitempty"`
}

// Config represents the application configuration
type Config struct {
	TenantID   string `yaml:"tenantID" validate:"required"`
	HospitalID string `yaml:"hospitalID" validate:"required"`

	// SharedUnavailability is applied to every professional on top of their own
	// recurring blocks, e.g. a weekly departmental teaching afternoon
	SharedUnavailability []model.RecurringBlock `yaml:"sharedUnavailability,omitempty" validate:"dive"`

	Solver     SolverConfig     `yaml:"solver"`
	Publishing PublishingConfig `yaml:"publishing"`
	Database   DatabaseConfig   `yaml:"database"`
	Artifacts  ArtifactsConfig  `yaml:"artifacts"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from roster_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration for an environment
// For example, env="test" will look for "roster_config.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, block := range cfg.SharedUnavailability {
		if _, err := rrule.StrToRRule(block.RRule); err != nil {
			return fmt.Errorf("invalid rrule in sharedUnavailability[%d]: %w", i, err)
		}
	}

	return nil
}

// Options returns the default solver options with the configured overrides applied
func (s SolverConfig) Options() roster.Options {
	opts := roster.DefaultOptions()
	if s.TimeBudget > 0 {
		opts.TimeBudget = s.TimeBudget
	}
	if s.SkillMatchHard != nil {
		opts.SkillMatchHard = *s.SkillMatchHard
	}
	if s.CoverageWeight != nil {
		opts.CoverageWeight = *s.CoverageWeight
	}
	if s.FairnessWeight != nil {
		opts.FairnessWeight = *s.FairnessWeight
	}
	if s.MismatchWeight != nil {
		opts.MismatchWeight = *s.MismatchWeight
	}
	if s.RotationWeight != nil {
		opts.RotationWeight = *s.RotationWeight
	}
	if s.Workers > 0 {
		opts.Workers = s.Workers
	}
	if s.CheckEvery > 0 {
		opts.CheckEvery = s.CheckEvery
	}
	if s.LPMaxCells != nil {
		opts.LPMaxCells = *s.LPMaxCells
	}
	return opts
}

// DefaultMode returns the configured solve mode, exact when unset
func (s SolverConfig) DefaultMode() model.Mode {
	if s.Mode == "" {
		return model.ModeExact
	}
	return s.Mode
}

// Policy returns the lifecycle publishing policy
func (p PublishingConfig) Policy() lifecycle.Policy {
	return lifecycle.Policy{AllowPartialHeuristic: p.AllowPartialHeuristic}
}

// findConfigFile searches for the config file in current directory and home directory
// If env is provided, it adds it as an extension (e.g., "roster_config.test.yaml")
func findConfigFile(env string) (string, error) {
	fileName := configFileName + ".yaml"
	if env != "" {
		fileName = configFileName + "." + env + ".yaml"
	}
	return findInWorkingOrHomeDir(fileName)
}

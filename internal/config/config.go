// Package config loads the pipeline's configuration: an optional YAML file
// supplies file paths and tuning knobs, a `.env` file supplies secrets, and
// a small set of environment flags always take precedence over both.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config is the fully-resolved configuration the CLI entrypoint builds the
// registry and pipeline from.
type Config struct {
	SchemaPath      string `yaml:"schemaPath"`
	CatalogPath     string `yaml:"catalogPath"`
	SemanticIndex   string `yaml:"semanticIndexPath"`
	ReloadInterval  int    `yaml:"reloadIntervalSeconds"`
	NCandidates     int    `yaml:"nCandidates"`
	MaxLimit        int    `yaml:"maxLimit"`

	LLM LLMConfig `yaml:"llm"`

	Debug            bool
	PermissiveMode   bool
	PermittedAliases string
}

// LLMConfig is the OpenAI-compatible provider this codebase's Planner and
// Generator flows call through.
type LLMConfig struct {
	Provider     string `yaml:"provider"` // "openai" or a raw/ollama-style variant sharing its request shape
	PlannerModel string `yaml:"plannerModel"`
	GeneratorModel string `yaml:"generatorModel"`
	BaseURL      string `yaml:"baseUrl"`
	ApiKey       string `yaml:"apiKey"`
}

func defaults() *Config {
	return &Config{
		SchemaPath:     "m_schema.json",
		CatalogPath:    "kb_catalog.json",
		ReloadInterval: 0,
		NCandidates:    3,
		MaxLimit:       200,
		LLM: LLMConfig{
			Provider: "openai",
		},
	}
}

// Load reads configPath (if non-empty and present) as YAML, loads a
// `.env` file for secrets, then overlays the environment flags that always
// win, and fails fast if a required LLM setting is still missing.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", configPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.ApiKey = v
	}
	if v := os.Getenv("LLM_PLANNER_MODEL"); v != "" {
		cfg.LLM.PlannerModel = v
	}
	if v := os.Getenv("LLM_GENERATOR_MODEL"); v != "" {
		cfg.LLM.GeneratorModel = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("N_CANDIDATES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.NCandidates = n
		}
	}
	if v := os.Getenv("SQL_MAX_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxLimit = n
		}
	}

	cfg.Debug = os.Getenv("T2SQL_DEBUG") == "1"
	cfg.PermissiveMode = os.Getenv("SQL_PERMISSIVE_MODE") == "1"
	cfg.PermittedAliases = os.Getenv("SQL_PERMITTED_ALIASES")
}

func validate(cfg *Config) error {
	if cfg.LLM.BaseURL == "" {
		return errors.New("config: LLM_BASE_URL is required but not set")
	}
	if cfg.LLM.ApiKey == "" {
		return errors.New("config: LLM_API_KEY is required but not set")
	}
	if cfg.LLM.PlannerModel == "" {
		return errors.New("config: LLM_PLANNER_MODEL is required but not set")
	}
	if cfg.LLM.GeneratorModel == "" {
		return errors.New("config: LLM_GENERATOR_MODEL is required but not set")
	}
	if cfg.NCandidates <= 0 {
		return fmt.Errorf("config: nCandidates must be positive, got %d", cfg.NCandidates)
	}
	if cfg.MaxLimit <= 0 {
		return fmt.Errorf("config: maxLimit must be positive, got %d", cfg.MaxLimit)
	}
	return nil
}

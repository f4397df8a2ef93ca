// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Env   string `yaml:"env"`
	Debug bool   `yaml:"debug"`
	Port  string `yaml:"port"`

	Coach       CoachConfig       `yaml:"coach"`
	LLM         LLMConfig         `yaml:"llm"`
	Persistence PersistenceConfig `yaml:"persistence"`

	PromptTemplateDir string `yaml:"prompt_template_dir"`
	CriteriaPath      string `yaml:"criteria_path"`
}

// CoachConfig is the coach persona and turn limits.
type CoachConfig struct {
	Name            string `yaml:"name"`
	DefaultUserID   string `yaml:"default_user_id"`
	DefaultLanguage string `yaml:"default_language"`
	MaxHistory      int    `yaml:"max_history_messages"`
}

// LLMConfig selects the provider and call parameters.
type LLMConfig struct {
	Provider       string  `yaml:"provider"`
	APIKey         string  `yaml:"-"` // env only
	Model          string  `yaml:"model"`
	BaseURL        string  `yaml:"base_url"`
	Temperature    float32 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	MaxConcurrency int     `yaml:"max_concurrency"`
	MaxRetries     int     `yaml:"max_retries"`
}

// PersistenceConfig selects the session store.
type PersistenceConfig struct {
	Backend     string `yaml:"backend"`
	DataDir     string `yaml:"data_dir"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"-"` // env only
	CacheSize   int    `yaml:"cache_size"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Env:  "development",
		Port: "8080",
		Coach: CoachConfig{
			Name:            "Coach Majkel Bagieta",
			DefaultUserID:   "default_user",
			DefaultLanguage: "pl",
			MaxHistory:      10,
		},
		LLM: LLMConfig{
			Provider:       "openai",
			Temperature:    0.0,
			MaxTokens:      10000,
			MaxConcurrency: 10,
			MaxRetries:     3,
		},
		Persistence: PersistenceConfig{
			Backend:    "file",
			DataDir:    "./data/sessions",
			SQLitePath: "./data/coach.db",
		},
		CriteriaPath: "./criteria/leaderboard_card_coach.md",
	}
}

// Load reads .env (if present), the optional YAML file named by
// COACH_CONFIG_FILE and then environment variables, which win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("COACH_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config yaml: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Env = getEnv("COACH_ENV", c.Env)
	c.Debug = getEnvBool("DEBUG", c.Debug)
	c.Port = getEnv("PORT", c.Port)

	c.Coach.Name = getEnv("COACH_NAME", c.Coach.Name)
	c.Coach.DefaultUserID = getEnv("DEFAULT_USER_ID", c.Coach.DefaultUserID)
	c.Coach.DefaultLanguage = getEnv("DEFAULT_LANGUAGE", c.Coach.DefaultLanguage)
	c.Coach.MaxHistory = getEnvInt("MAX_HISTORY_MESSAGES", c.Coach.MaxHistory)

	c.LLM.Provider = strings.ToLower(getEnv("LLM_PROVIDER", c.LLM.Provider))
	prefix := strings.ToUpper(c.LLM.Provider)
	c.LLM.APIKey = getEnv(prefix+"_API_KEY", c.LLM.APIKey)
	if c.LLM.APIKey == "" && c.LLM.Provider == "openrouter" {
		c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	c.LLM.Model = getEnv(prefix+"_MODEL", c.LLM.Model)
	c.LLM.BaseURL = getEnv(prefix+"_BASE_URL", c.LLM.BaseURL)
	c.LLM.Temperature = getEnvFloat("LLM_TEMPERATURE", c.LLM.Temperature)
	c.LLM.MaxTokens = getEnvInt("LLM_MAX_TOKENS", c.LLM.MaxTokens)
	c.LLM.MaxConcurrency = getEnvInt("LLM_MAX_CONCURRENCY", c.LLM.MaxConcurrency)
	c.LLM.MaxRetries = getEnvInt("LLM_MAX_RETRIES", c.LLM.MaxRetries)

	c.Persistence.Backend = strings.ToLower(getEnv("PERSISTENCE_BACKEND", c.Persistence.Backend))
	c.Persistence.DataDir = getEnv("DATA_DIR", c.Persistence.DataDir)
	c.Persistence.SQLitePath = getEnv("SQLITE_PATH", c.Persistence.SQLitePath)
	c.Persistence.PostgresDSN = getEnv("POSTGRES_DSN", c.Persistence.PostgresDSN)
	c.Persistence.CacheSize = getEnvInt("STATE_CACHE_SIZE", c.Persistence.CacheSize)

	c.PromptTemplateDir = getEnv("PROMPT_TEMPLATE_DIR", c.PromptTemplateDir)
	c.CriteriaPath = getEnv("CRITERIA_PATH", c.CriteriaPath)
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if strings.TrimSpace(c.Coach.Name) == "" {
		return fmt.Errorf("COACH_NAME cannot be empty")
	}
	if strings.TrimSpace(c.Coach.DefaultUserID) == "" {
		return fmt.Errorf("DEFAULT_USER_ID cannot be empty")
	}
	if c.Coach.MaxHistory <= 0 {
		return fmt.Errorf("MAX_HISTORY_MESSAGES must be > 0")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be between 0 and 2")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be > 0")
	}
	if c.LLM.MaxConcurrency <= 0 {
		return fmt.Errorf("LLM_MAX_CONCURRENCY must be > 0")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("LLM_MAX_RETRIES cannot be negative")
	}
	if c.Persistence.CacheSize < 0 {
		return fmt.Errorf("STATE_CACHE_SIZE cannot be negative")
	}

	switch c.Persistence.Backend {
	case "memory", "in_memory":
	case "file":
		if c.Persistence.DataDir == "" {
			return fmt.Errorf("DATA_DIR cannot be empty for the file backend")
		}
	case "sqlite":
		if c.Persistence.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH cannot be empty for the sqlite backend")
		}
	case "postgres":
		if c.Persistence.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN cannot be empty for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown PERSISTENCE_BACKEND %q", c.Persistence.Backend)
	}
	return nil
}

// IsDevelopment reports whether the development logger should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float32) float32 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 32)
	if err != nil {
		return fallback
	}
	return float32(f)
}

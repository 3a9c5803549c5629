package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for BankAssist. Defaults embed the product
// endpoints so the binary runs with no config file at all.
type Config struct {
	General    GeneralConfig    `yaml:"general"`
	Endpoints  EndpointsConfig  `yaml:"endpoints"`
	Statistics StatisticsConfig `yaml:"statistics"`
	Voice      VoiceConfig      `yaml:"voice"`
	Channels   ChannelsConfig   `yaml:"channels"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

type GeneralConfig struct {
	LogLevel string `yaml:"logLevel" env:"BANKASSIST_LOG_LEVEL"`
	LogFile  string `yaml:"logFile,omitempty" env:"BANKASSIST_LOG_FILE"`
}

// EndpointsConfig holds the external workflow and backend URLs.
type EndpointsConfig struct {
	ChatWebhook      string `yaml:"chatWebhook" env:"BANKASSIST_CHAT_WEBHOOK"`
	AudioWebhook     string `yaml:"audioWebhook" env:"BANKASSIST_AUDIO_WEBHOOK"`
	GoalWebhook      string `yaml:"goalWebhook" env:"BANKASSIST_GOAL_WEBHOOK"`
	ImageWebhook     string `yaml:"imageWebhook" env:"BANKASSIST_IMAGE_WEBHOOK"`
	StatisticsBase   string `yaml:"statisticsBase" env:"BANKASSIST_STATISTICS_BASE"`
	StatementAnalyze string `yaml:"statementAnalyze" env:"BANKASSIST_STATEMENT_ANALYZE"`
	FileUpload       string `yaml:"fileUpload" env:"BANKASSIST_FILE_UPLOAD"`
}

type StatisticsConfig struct {
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	DefaultUserID  string `yaml:"defaultUserId" env:"BANKASSIST_STATS_USER"`
	MockFallback   bool   `yaml:"mockFallback"`
}

type VoiceConfig struct {
	Recognizer          RecognizerConfig `yaml:"recognizer"`
	StatusRevertSeconds int              `yaml:"statusRevertSeconds"`
}

// RecognizerConfig configures the Whisper-compatible transcription engine
// used for inline dictation. An empty apiKey means no engine is available.
type RecognizerConfig struct {
	APIBase  string `yaml:"apiBase" env:"BANKASSIST_WHISPER_BASE"`
	APIKey   string `yaml:"apiKey" env:"BANKASSIST_WHISPER_KEY"`
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
}

type ChannelsConfig struct {
	CLI CLIConfig `yaml:"cli"`
	Web WebConfig `yaml:"web"`
}

type CLIConfig struct {
	Enabled bool `yaml:"enabled"`
}

type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host" env:"BANKASSIST_WEB_HOST"`
	Port    int    `yaml:"port" env:"BANKASSIST_WEB_PORT"`
}

type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// DefaultConfigDir returns the default config directory (~/.bankassist).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bankassist"
	}
	return filepath.Join(home, ".bankassist")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Load reads the YAML config at path on top of Defaults, expands ${VAR}
// references, applies environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// LoadOrDefaults is Load, falling back to Defaults (plus env overrides) when
// the file does not exist.
func LoadOrDefaults(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	cfg = Defaults()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match
		}
		return val
	})
}

// Save writes the config as YAML, creating the directory when needed.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has usable values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Endpoints.ChatWebhook == "" {
		errs = append(errs, "endpoints.chatWebhook is required")
	}
	if cfg.Endpoints.AudioWebhook == "" {
		errs = append(errs, "endpoints.audioWebhook is required")
	}
	if cfg.Endpoints.GoalWebhook == "" {
		errs = append(errs, "endpoints.goalWebhook is required")
	}
	if cfg.Endpoints.StatisticsBase == "" {
		errs = append(errs, "endpoints.statisticsBase is required")
	}
	if cfg.Statistics.TimeoutSeconds < 1 {
		errs = append(errs, "statistics.timeoutSeconds must be >= 1")
	}
	if cfg.Voice.StatusRevertSeconds < 1 {
		errs = append(errs, "voice.statusRevertSeconds must be >= 1")
	}
	if cfg.Channels.Web.Port < 0 || cfg.Channels.Web.Port > 65535 {
		errs = append(errs, "channels.web.port must be between 0 and 65535")
	}
	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

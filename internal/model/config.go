package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// AIConfig holds settings for the voice-command parsing model.
type AIConfig struct {
	// BaseURL is the OpenAI-compatible chat completions endpoint root.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	Model       string  `mapstructure:"model" yaml:"model"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
}

// SpeechConfig holds settings for audio capture and transcription.
type SpeechConfig struct {
	// BaseURL is the root of the transcription API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Model is the transcription model name.
	Model string `mapstructure:"model" yaml:"model"`

	// RecordCommand is the external capture command and its arguments.
	// The final argument is appended by the recorder: the output file path.
	RecordCommand []string `mapstructure:"record_command" yaml:"record_command"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	// UserID is the local owner of all tasks and events.
	UserID string `mapstructure:"user_id" yaml:"user_id"`

	// UserName is the display name collected during setup.
	UserName string `mapstructure:"user_name" yaml:"user_name"`

	// DBPath is where the local SQLite database lives.
	// Empty means the default location next to the config file.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	AI      AIConfig      `mapstructure:"ai" yaml:"ai"`
	Speech  SpeechConfig  `mapstructure:"speech" yaml:"speech"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/voiceflow/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "voiceflow", "config.yaml")
}

// DefaultDBPath returns the default path for the local database.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "voiceflow.db")
	}
	return filepath.Join(home, ".config", "voiceflow", "voiceflow.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		AI: AIConfig{
			BaseURL:     "https://openrouter.ai/api/v1",
			Model:       "google/gemini-2.0-flash-001",
			MaxTokens:   1024,
			Temperature: 0.1,
		},
		Speech: SpeechConfig{
			BaseURL:       "https://api.openai.com/v1",
			Model:         "whisper-1",
			RecordCommand: []string{"arecord", "-f", "cd", "-t", "wav"},
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("ai.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("ai.model", "google/gemini-2.0-flash-001")
	v.SetDefault("ai.max_tokens", 1024)
	v.SetDefault("ai.temperature", 0.1)
	v.SetDefault("speech.base_url", "https://api.openai.com/v1")
	v.SetDefault("speech.model", "whisper-1")
	v.SetDefault("display.theme", "default")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if len(cfg.Speech.RecordCommand) == 0 {
		cfg.Speech.RecordCommand = []string{"arecord", "-f", "cd", "-t", "wav"}
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("user_id", cfg.UserID)
	v.Set("user_name", cfg.UserName)
	v.Set("db_path", cfg.DBPath)
	v.Set("ai", cfg.AI)
	v.Set("speech", cfg.Speech)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

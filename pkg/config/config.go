package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for bandgrab
type Config struct {
	// Bandcamp session settings
	Bandcamp BandcampConfig `yaml:"bandcamp" json:"bandcamp"`

	// Browser automation settings for the login flow
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BandcampConfig holds Bandcamp-specific configuration
type BandcampConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	CookieFile     string        `yaml:"cookie_file" json:"cookie_file"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// BrowserConfig holds settings for the browser used during login
type BrowserConfig struct {
	Headless    bool          `yaml:"headless" json:"headless"`
	WaitTimeout time.Duration `yaml:"wait_timeout" json:"wait_timeout"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	MusicDirectory string `yaml:"music_directory" json:"music_directory"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Bandcamp: BandcampConfig{
			BaseURL:        "https://bandcamp.com",
			CookieFile:     ".cookies",
			UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			RequestTimeout: 5 * time.Minute,
		},
		Browser: BrowserConfig{
			Headless:    true,
			WaitTimeout: 30 * time.Second,
		},
		Output: OutputConfig{
			MusicDirectory: "Music",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("BANDGRAB_BASE_URL"); baseURL != "" {
		c.Bandcamp.BaseURL = baseURL
	}
	if cookieFile := os.Getenv("BANDGRAB_COOKIE_FILE"); cookieFile != "" {
		c.Bandcamp.CookieFile = cookieFile
	}
	if userAgent := os.Getenv("BANDGRAB_USER_AGENT"); userAgent != "" {
		c.Bandcamp.UserAgent = userAgent
	}
	if musicDir := os.Getenv("BANDGRAB_MUSIC_DIR"); musicDir != "" {
		c.Output.MusicDirectory = musicDir
	}
	if headless := os.Getenv("BANDGRAB_BROWSER_HEADLESS"); headless != "" {
		c.Browser.Headless = strings.ToLower(headless) != "false"
	}
	if logLevel := os.Getenv("BANDGRAB_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".bandgrab.yaml",
		".bandgrab.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "bandgrab", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "bandgrab", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".bandgrab.yaml"),
		filepath.Join(os.Getenv("HOME"), ".bandgrab.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Bandcamp.BaseURL == "" {
		errs = append(errs, errors.New("base URL is required"))
	}
	if c.Bandcamp.CookieFile == "" {
		errs = append(errs, errors.New("cookie file path is required"))
	}
	if c.Bandcamp.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Browser.WaitTimeout <= 0 {
		errs = append(errs, errors.New("browser wait timeout must be positive"))
	}

	if c.Output.MusicDirectory == "" {
		errs = append(errs, errors.New("music directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if musicDir, ok := flags["music-dir"].(string); ok && musicDir != "" {
		c.Output.MusicDirectory = musicDir
	}
	if cookieFile, ok := flags["cookie-file"].(string); ok && cookieFile != "" {
		c.Bandcamp.CookieFile = cookieFile
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".bandgrab.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

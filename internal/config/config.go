package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	AppName     = "upcycle-connect"
	EnvFileName = "config.env"
)

// Defaults for optional settings.
const (
	DefaultDBPath   = "upcycle.db"
	DefaultHTTPAddr = ":8080"
	DefaultCacheTTL = 168 * time.Hour
)

// Environment variable names.
const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvSecret       = "UPCYCLE_SECRET"
	EnvBotToken     = "BOT_TOKEN"
	EnvAdminID      = "ADMIN_TELEGRAM_ID"
	EnvDBPath       = "UPCYCLE_DB_PATH"
	EnvHTTPAddr     = "HTTP_ADDR"
	EnvGeminiModel  = "GEMINI_MODEL"
	EnvCacheTTL     = "ANALYSIS_CACHE_TTL"
)

// RequiredEnvVars lists the variables that must be set before anything runs.
var RequiredEnvVars = []string{EnvGeminiAPIKey, EnvSecret}

// knownEnvVars are the variables WriteEnvFile persists.
var knownEnvVars = []string{EnvBotToken, EnvGeminiAPIKey, EnvAdminID, EnvSecret, EnvDBPath, EnvHTTPAddr, EnvGeminiModel, EnvCacheTTL}

// Config is the process configuration read from the environment.
type Config struct {
	GeminiAPIKey string
	Secret       string // Passphrase for the store encryption key
	BotToken     string
	AdminID      int64
	DBPath       string
	HTTPAddr     string
	GeminiModel  string // Empty uses the client default
	CacheTTL     time.Duration
}

// BotEnabled reports whether the Telegram bot should run.
func (c *Config) BotEnabled() bool {
	return c.BotToken != "" && c.AdminID != 0
}

// Dir returns the application's config directory path.
// Creates the directory if it doesn't exist.
func Dir() (string, error) {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	configDir := filepath.Join(configBase, AppName)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// FilePath returns the full path to the config file.
func FilePath() (string, error) {
	configDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, EnvFileName), nil
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Errors are ignored since the file may not exist.
// Variables already set in the environment win.
func LoadEnvFile() {
	configPath, err := FilePath()
	if err != nil {
		return
	}
	_ = godotenv.Load(configPath)
}

// Missing returns the names of required variables that are not set.
func Missing() []string {
	var missing []string
	for _, v := range RequiredEnvVars {
		if os.Getenv(v) == "" {
			missing = append(missing, v)
		}
	}
	return missing
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		GeminiAPIKey: os.Getenv(EnvGeminiAPIKey),
		Secret:       os.Getenv(EnvSecret),
		BotToken:     os.Getenv(EnvBotToken),
		DBPath:       getenvDefault(EnvDBPath, DefaultDBPath),
		HTTPAddr:     getenvDefault(EnvHTTPAddr, DefaultHTTPAddr),
		GeminiModel:  os.Getenv(EnvGeminiModel),
		CacheTTL:     DefaultCacheTTL,
	}

	if s := os.Getenv(EnvAdminID); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a valid integer: %w", EnvAdminID, err)
		}
		cfg.AdminID = id
	}

	if s := os.Getenv(EnvCacheTTL); s != "" {
		ttl, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("%s must be a duration such as 168h: %w", EnvCacheTTL, err)
		}
		if ttl <= 0 {
			return nil, fmt.Errorf("%s must be positive", EnvCacheTTL)
		}
		cfg.CacheTTL = ttl
	}

	return cfg, nil
}

func getenvDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// WriteEnvFile writes the given variables to the config file. Unknown and
// empty values are skipped. The file contains secrets so it is made 0600.
// Returns the path where the config was written.
func WriteEnvFile(values map[string]string) (string, error) {
	configPath, err := FilePath()
	if err != nil {
		return "", err
	}

	env := make(map[string]string, len(values))
	for _, key := range knownEnvVars {
		if val := values[key]; val != "" {
			env[key] = val
		}
	}

	if err := godotenv.Write(env, configPath); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Chmod(configPath, 0600); err != nil {
		return "", fmt.Errorf("failed to restrict config file permissions: %w", err)
	}

	return configPath, nil
}

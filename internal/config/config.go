package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DataDir     string
	DBPath      string
	ProfilePath string
	HooksPath   string
	InputDir    string

	Database   DatabaseConfig
	Generation GenerationConfig
	Defaults   ProfileDefaults
	LogLevel   string
}

// DatabaseConfig holds the connection parameters for the lab database.
type DatabaseConfig struct {
	Type     string
	User     string
	Password string
	Host     string
	Port     int
	Service  string
	SID      string
	Name     string
	Socket   string
	Path     string
}

// GenerationConfig holds model provider settings.
type GenerationConfig struct {
	Provider        string
	APIKeys         []string
	OpenAIKey       string
	OpenAIBaseURL   string
	Models          []string
	MaxAttempts     int
	RetryDelay      time.Duration
	RequestInterval time.Duration
}

// ProfileDefaults fill in the student fields that rarely change per user.
type ProfileDefaults struct {
	Faculty string
	Slot    string
	ClassNo string
}

var defaultGeminiModels = []string{
	"gemini-2.0-flash",
	"gemini-2.0-flash-lite",
	"gemini-2.5-flash",
}

const defaultOpenAIModel = "gpt-4o-mini"

func New() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	dataDir := getEnv("TADA_DATA_DIR", filepath.Join(homeDir, ".tada"))
	dbType := strings.ToLower(getEnv("DB_TYPE", "oracle"))
	provider := strings.ToLower(getEnv("TADA_PROVIDER", "gemini"))

	c := &Config{
		DataDir:     dataDir,
		DBPath:      filepath.Join(dataDir, "tada.db"),
		ProfilePath: filepath.Join(dataDir, "profile.yaml"),
		HooksPath:   filepath.Join(dataDir, "hooks.lua"),
		InputDir:    getEnv("LAB_DIR", "."),
		Database: DatabaseConfig{
			Type:     dbType,
			User:     getEnv("DB_USER", "system"),
			Password: getEnv("DB_PASSWORD", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", defaultPort(dbType)),
			Service:  getEnv("DB_SERVICE", "xe"),
			SID:      getEnv("DB_SID", "XE"),
			Name:     getEnv("DB_NAME", ""),
			Socket:   getEnv("DB_SOCKET", "/var/run/mysqld/mysqld.sock"),
			Path:     getEnv("DB_PATH", filepath.Join(dataDir, "lab.db")),
		},
		Generation: GenerationConfig{
			Provider:        provider,
			APIKeys:         geminiKeys(),
			OpenAIKey:       getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
			Models:          getEnvList("TADA_MODELS", defaultModels(provider)),
			MaxAttempts:     getEnvInt("TADA_MAX_ATTEMPTS", 5),
			RetryDelay:      getEnvDuration("TADA_RETRY_DELAY", 5*time.Second),
			RequestInterval: getEnvDuration("TADA_REQUEST_INTERVAL", time.Second),
		},
		Defaults: ProfileDefaults{
			Faculty: getEnv("FACULTY", ""),
			Slot:    getEnv("LAB_SLOT", ""),
			ClassNo: getEnv("CLASS_NO", ""),
		},
		LogLevel: getEnv("TADA_LOG_LEVEL", "warn"),
	}

	return c, nil
}

func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}

// Credentials returns the API keys for the configured provider, or an error
// naming the variable to set.
func (c *Config) Credentials() ([]string, error) {
	switch c.Generation.Provider {
	case "gemini":
		if len(c.Generation.APIKeys) == 0 {
			return nil, fmt.Errorf("GEMINI_API_KEY not set (add it to .env; get a key at https://aistudio.google.com/app/apikey)")
		}
		return c.Generation.APIKeys, nil
	case "openai":
		if c.Generation.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set")
		}
		return []string{c.Generation.OpenAIKey}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want gemini or openai)", c.Generation.Provider)
	}
}

func defaultPort(dbType string) int {
	switch dbType {
	case "mysql":
		return 3306
	default:
		return 1521
	}
}

func defaultModels(provider string) []string {
	if provider == "openai" {
		return []string{defaultOpenAIModel}
	}
	return defaultGeminiModels
}

// geminiKeys collects GEMINI_API_KEY followed by GEMINI_API_KEY_2..9.
func geminiKeys() []string {
	var keys []string
	if key := getEnv("GEMINI_API_KEY", ""); key != "" {
		keys = append(keys, key)
	}
	for i := 2; i < 10; i++ {
		if key := getEnv(fmt.Sprintf("GEMINI_API_KEY_%d", i), ""); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := getEnv(key, ""); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := getEnv(key, ""); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

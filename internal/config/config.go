package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"logLevel"`
	Timezone    string `mapstructure:"timezone"` // IANA name used for stored timestamps
	Server      struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`
	Ops struct {
		Port int `mapstructure:"port"` // health/ready/metrics server
	} `mapstructure:"ops"`
	Database struct {
		Path        string `mapstructure:"path"`
		AutoMigrate bool   `mapstructure:"autoMigrate"`
	} `mapstructure:"database"`
	Bland struct {
		APIKey        string        `mapstructure:"apiKey"`
		BaseURL       string        `mapstructure:"baseURL"`
		WebhookSecret string        `mapstructure:"webhookSecret"`
		Timeout       time.Duration `mapstructure:"timeout"`
	} `mapstructure:"bland"`
	Sheets struct {
		AppsScriptURL   string        `mapstructure:"appsScriptURL"`
		AppsScriptToken string        `mapstructure:"appsScriptToken"`
		Timeout         time.Duration `mapstructure:"timeout"`
	} `mapstructure:"sheets"`
	Tools struct {
		SharedSecret string `mapstructure:"sharedSecret"`
	} `mapstructure:"tools"`
	Queue struct {
		ItemTimeout   time.Duration `mapstructure:"itemTimeout"`   // Per-item processing deadline
		StopDrainWait time.Duration `mapstructure:"stopDrainWait"` // Best-effort drain window on shutdown
	} `mapstructure:"queue"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
}

// LoadConfig reads configuration from file or environment variables
func LoadConfig(path string) (*Config, error) {
	// Load a local .env first so it can feed the env-var overrides below.
	_ = godotenv.Load()

	// Create new viper instance
	v := viper.New()

	// Set defaults
	v.SetDefault("environment", "development")
	v.SetDefault("logLevel", "info")
	v.SetDefault("timezone", "America/Los_Angeles")
	v.SetDefault("server.port", 3000)
	v.SetDefault("ops.port", 2112)
	v.SetDefault("database.path", "data/app.db")
	v.SetDefault("database.autoMigrate", true)
	v.SetDefault("bland.baseURL", "https://api.bland.ai")
	v.SetDefault("bland.timeout", 30*time.Second)
	v.SetDefault("sheets.timeout", 15*time.Second)
	v.SetDefault("metrics.enabled", true)

	// Queue defaults
	v.SetDefault("queue.itemTimeout", time.Minute)
	v.SetDefault("queue.stopDrainWait", 10*time.Second)

	// Config file settings
	v.SetConfigName("default") // name of config file (without extension)
	v.SetConfigType("yaml")    // REQUIRED if the config file does not have the extension in the name

	// Add lookup paths
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath("/etc/rive-voice-intake")

	// Try to read from config file
	if err := v.ReadInConfig(); err != nil {
		// It's ok if config file is not found, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map environment variables to config fields
	bindEnvs(v, Config{})

	// Read directly from ENV for critical values
	if dbPath := os.Getenv("SQLITE_PATH"); dbPath != "" {
		v.Set("database.path", dbPath)
	}
	if lgLevel := os.Getenv("LOG_LEVEL"); lgLevel != "" {
		v.Set("logLevel", lgLevel)
	}
	if key := os.Getenv("BLAND_API_KEY"); key != "" {
		v.Set("bland.apiKey", key)
	}
	if base := os.Getenv("BLAND_BASE_URL"); base != "" {
		v.Set("bland.baseURL", base)
	}
	if secret := os.Getenv("BLAND_WEBHOOK_SECRET"); secret != "" {
		v.Set("bland.webhookSecret", secret)
	}
	if url := os.Getenv("SHEETS_APPS_SCRIPT_URL"); url != "" {
		v.Set("sheets.appsScriptURL", url)
	}
	if token := os.Getenv("SHEETS_APPS_SCRIPT_TOKEN"); token != "" {
		v.Set("sheets.appsScriptToken", token)
	}
	if secret := os.Getenv("TOOLS_SHARED_SECRET"); secret != "" {
		v.Set("tools.sharedSecret", secret)
	}

	// Unmarshal config
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &config, nil
}

// bindEnvs recursively binds environment variables to config struct fields
func bindEnvs(v *viper.Viper, cfg interface{}, parts ...string) {
	ifv := reflect.ValueOf(cfg)
	ift := reflect.TypeOf(cfg)
	for i := 0; i < ift.NumField(); i++ {
		fieldVal := ifv.Field(i)
		fieldType := ift.Field(i)

		// Get the field tag value (mapstructure)
		tag := fieldType.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		// Build the env var path
		path := append(parts, tag)
		key := strings.Join(path, ".")

		// If it's a struct, recursively bind its fields
		if fieldType.Type.Kind() == reflect.Struct {
			bindEnvs(v, fieldVal.Interface(), path...)
			continue
		}

		// Bind the env var
		_ = v.BindEnv(key)
	}
}

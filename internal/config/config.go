package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	DataPath      string         `yaml:"data_path,omitempty" env:"POWERPAL_DATA_PATH"`   // Usage log (default: data/usage_log.csv)
	ModelPath     string         `yaml:"model_path,omitempty" env:"POWERPAL_MODEL_PATH"` // Forecast model artifact (default: data/model.json)
	LogLevel      string         `yaml:"log_level,omitempty" env:"POWERPAL_LOG_LEVEL"`
	Storage       StorageConfig  `yaml:"storage,omitempty"`
	Meter         MeterConfig    `yaml:"meter,omitempty"`
	Twilio        TwilioConfig   `yaml:"twilio,omitempty"`
	MQTT          MQTTConfig     `yaml:"mqtt,omitempty"`
	HomeAssistant HAConfig       `yaml:"home_assistant,omitempty"`
	Redis         RedisConfig    `yaml:"redis,omitempty"`
	Schedule      ScheduleConfig `yaml:"schedule,omitempty"`
	Server        ServerConfig   `yaml:"server,omitempty"`
}

// StorageConfig selects where usage records live
type StorageConfig struct {
	Backend string `yaml:"backend,omitempty" env:"POWERPAL_STORAGE"` // "csv" (default) or "sqlite"
	DBPath  string `yaml:"db_path,omitempty" env:"POWERPAL_DB_PATH"` // SQLite file (default: data/powerpal.db)
}

// MeterConfig selects and configures the meter reading source
type MeterConfig struct {
	Source          string   `yaml:"source,omitempty" env:"POWERPAL_METER_SOURCE"` // "simulated" (default), "api" or "portal"
	APIURL          string   `yaml:"api_url,omitempty" env:"DISCO_API_URL"`
	MeterID         string   `yaml:"meter_id,omitempty" env:"METER_ID"`
	APIToken        string   `yaml:"api_token,omitempty" env:"DISCO_API_TOKEN"`
	PortalURL       string   `yaml:"portal_url,omitempty" env:"POWERPAL_PORTAL_URL"`
	BalanceSelector string   `yaml:"balance_selector,omitempty"` // CSS selector of the balance element on the portal
	Cookies         []Cookie `yaml:"cookies,omitempty"`
}

// Cookie represents a browser cookie
type Cookie struct {
	Name     string  `yaml:"name"`
	Value    string  `yaml:"value"`
	Domain   string  `yaml:"domain"`
	Path     string  `yaml:"path"`
	Expires  float64 `yaml:"expires,omitempty"`
	HTTPOnly bool    `yaml:"httpOnly,omitempty"`
	Secure   bool    `yaml:"secure,omitempty"`
	SameSite string  `yaml:"sameSite,omitempty"`
}

// TwilioConfig holds WhatsApp/SMS delivery credentials
type TwilioConfig struct {
	Enabled    bool   `yaml:"enabled" env:"TWILIO_ENABLED"`
	AccountSID string `yaml:"account_sid,omitempty" env:"TWILIO_SID"`
	AuthToken  string `yaml:"auth_token,omitempty" env:"TWILIO_TOKEN"`
	From       string `yaml:"from,omitempty" env:"TWILIO_WHATSAPP"` // e.g., "whatsapp:+14155238886"
	To         string `yaml:"to,omitempty" env:"USER_WHATSAPP"`
	BaseURL    string `yaml:"base_url,omitempty"` // Override for testing (default: https://api.twilio.com)
}

// MQTTConfig holds MQTT broker configuration
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled" env:"MQTT_ENABLED"`
	Broker      string `yaml:"broker" env:"MQTT_BROKER"` // host:port
	Username    string `yaml:"username,omitempty" env:"MQTT_USERNAME"`
	Password    string `yaml:"password,omitempty" env:"MQTT_PASSWORD"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"`
}

// HAConfig holds Home Assistant HTTP API configuration
type HAConfig struct {
	Enabled      bool   `yaml:"enabled" env:"HA_ENABLED"`
	URL          string `yaml:"url" env:"HA_URL"`     // e.g., "http://homeassistant.local:8123"
	Token        string `yaml:"token" env:"HA_TOKEN"` // Long-lived access token
	EntityPrefix string `yaml:"entity_prefix,omitempty"`
}

// RedisConfig enables sharing the forecast model through Redis
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED"`
	Addr     string `yaml:"addr,omitempty" env:"REDIS_ADDR"`
	Password string `yaml:"password,omitempty" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db,omitempty"`
	Key      string `yaml:"key,omitempty"`
}

// ScheduleConfig controls the daily report job
type ScheduleConfig struct {
	At       string `yaml:"at,omitempty" env:"POWERPAL_SCHEDULE_AT"` // HH:MM local time
	Timeout  string `yaml:"timeout,omitempty"`                       // Per-run timeout, e.g. "2m"
	Timezone string `yaml:"timezone,omitempty" env:"TZ"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty" env:"POWERPAL_ADDR"`
}

// Load reads the config file and applies environment overrides
func Load(configPath string) (*Config, error) {
	cfg, err := LoadFile(configPath)
	if err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	return cfg, nil
}

// LoadFile reads the config file only. Use it when the config will be saved
// back, so values from the environment are not written to disk.
func LoadFile(configPath string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case os.IsNotExist(err):
		// Fall through with an empty config if file doesn't exist
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return &cfg, nil
}

// LoadEnvFiles loads variables from the given dotenv files, skipping ones that don't exist
func LoadEnvFiles(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// GetDataPath returns the usage log path
func (c *Config) GetDataPath() string {
	if c.DataPath == "" {
		return filepath.Join("data", "usage_log.csv")
	}
	return c.DataPath
}

// GetModelPath returns the model artifact path
func (c *Config) GetModelPath() string {
	if c.ModelPath == "" {
		return filepath.Join("data", "model.json")
	}
	return c.ModelPath
}

// GetStorageBackend returns the record store backend, defaulting to csv
func (c *Config) GetStorageBackend() string {
	if c.Storage.Backend == "" {
		return "csv"
	}
	return c.Storage.Backend
}

// GetDBPath returns the SQLite database path
func (c *Config) GetDBPath() string {
	if c.Storage.DBPath == "" {
		return filepath.Join("data", "powerpal.db")
	}
	return c.Storage.DBPath
}

// GetMeterSource returns the configured meter source, defaulting to simulated
func (c *Config) GetMeterSource() string {
	if c.Meter.Source == "" {
		return "simulated"
	}
	return c.Meter.Source
}

// GetScheduleAt returns the daily run time, defaulting to 07:00
func (c *Config) GetScheduleAt() string {
	if c.Schedule.At == "" {
		return "07:00"
	}
	return c.Schedule.At
}

// GetScheduleTimeout returns the per-run timeout, defaulting to 2 minutes
func (c *Config) GetScheduleTimeout() time.Duration {
	d, err := time.ParseDuration(c.Schedule.Timeout)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

// GetLocation returns the scheduler time zone, defaulting to local time
func (c *Config) GetLocation() *time.Location {
	if c.Schedule.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// GetServerAddr returns the HTTP listen address
func (c *Config) GetServerAddr() string {
	if c.Server.Addr == "" {
		return ":8080"
	}
	return c.Server.Addr
}

// GetLogLevel returns the log level, defaulting to info
func (c *Config) GetLogLevel() string {
	if c.LogLevel == "" {
		return "info"
	}
	return c.LogLevel
}

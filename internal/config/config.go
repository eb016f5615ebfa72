package config

import (
	"errors"
	"fmt"
	"os"

	"turnero/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig                  `yaml:"app"`
	Database   DatabaseConfig             `yaml:"database"`
	Redis      RedisConfig                `yaml:"redis"`
	Backup     BackupConfig               `yaml:"backup"`
	Monitoring MonitoringConfig           `yaml:"monitoring"`
	Logging    LoggingConfig              `yaml:"logging"`
	API        APIConfig                  `yaml:"api"`
	Booking    BookingConfig              `yaml:"booking"`
	Exports    ExportConfig               `yaml:"exports"`
	Clinic     models.ProfessionalProfile `yaml:"clinic"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Interval      string `yaml:"interval"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Port      int                `yaml:"port"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type BookingConfig struct {
	MaxBookingDays    int      `yaml:"max_booking_days"`
	SessionTTLSeconds int      `yaml:"session_ttl_seconds"`
	DefaultCost       float64  `yaml:"default_cost"`
	ExtraHolidays     []string `yaml:"extra_holidays"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; env vars may come from the environment directly.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid api port %d", c.API.Port)
	}
	if c.Booking.MaxBookingDays < 1 {
		return fmt.Errorf("booking.max_booking_days must be positive, got %d", c.Booking.MaxBookingDays)
	}
	for _, d := range c.Booking.ExtraHolidays {
		if _, err := calendarDate(d); err != nil {
			return fmt.Errorf("invalid extra holiday %q", d)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "turnero"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Booking.MaxBookingDays == 0 {
		c.Booking.MaxBookingDays = models.DefaultMaxBookingDays
	}
	if c.Booking.SessionTTLSeconds == 0 {
		c.Booking.SessionTTLSeconds = models.DefaultSessionTTL
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
	if c.Clinic.Name == "" {
		c.Clinic.Name = "Lic. Gabriel Medina"
	}
	if c.Clinic.Specialty == "" {
		c.Clinic.Specialty = "Psicología Clínica"
	}
	if c.Clinic.Address == "" {
		c.Clinic.Address = "Av. Corrientes 1234, Piso 5, CABA"
	}
}

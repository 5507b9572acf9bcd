package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Data sources for the start-up snapshot.
const (
	SourceFixtures = "fixtures"
	SourcePostgres = "postgres"
)

// Config holds the configuration for the application.
type Config struct {
	Environment   string `mapstructure:"environment"`
	DevModeBypass bool   `mapstructure:"dev_mode_bypass"`
	Server        struct {
		Addr         string        `mapstructure:"addr"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
		IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	} `mapstructure:"server"`
	Dev struct {
		Email string `mapstructure:"email"`
		Role  string `mapstructure:"role"`
	} `mapstructure:"dev"`
	Data struct {
		Source string `mapstructure:"source"`
	} `mapstructure:"data"`
	DB struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"db"`
	Timings struct {
		BannerTTL         time.Duration `mapstructure:"banner_ttl"`
		UploadMin         time.Duration `mapstructure:"upload_min"`
		UploadJitter      time.Duration `mapstructure:"upload_jitter"`
		UploadFailureRate float64       `mapstructure:"upload_failure_rate"`
		SubmitDelay       time.Duration `mapstructure:"submit_delay"`
	} `mapstructure:"timings"`
	TLS struct {
		Enable    bool     `mapstructure:"enable"`
		CertFile  string   `mapstructure:"cert_file"`
		KeyFile   string   `mapstructure:"key_file"`
		Hostnames []string `mapstructure:"hostnames"`
	} `mapstructure:"tls"`
	Log struct {
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"log"`
}

// IsDev reports whether the environment is DEV.
func (c *Config) IsDev() bool {
	return strings.EqualFold(c.Environment, "DEV")
}

// BypassAuth reports whether sign-in is skipped. It requires both the DEV
// environment and the explicit bypass flag.
func (c *Config) BypassAuth() bool {
	return c.IsDev() && c.DevModeBypass
}

// DSN returns the pgx connection string for the DB section.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode,
	)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "PROD")
	v.SetDefault("dev_mode_bypass", false)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("dev.email", "dev@localhost")
	v.SetDefault("dev.role", "developer")
	v.SetDefault("data.source", SourceFixtures)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "dmp")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "dmp")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("timings.banner_ttl", 5000*time.Millisecond)
	v.SetDefault("timings.upload_min", 1000*time.Millisecond)
	v.SetDefault("timings.upload_jitter", 2000*time.Millisecond)
	v.SetDefault("timings.upload_failure_rate", 0.1)
	v.SetDefault("timings.submit_delay", 2000*time.Millisecond)
	v.SetDefault("tls.enable", false)
	v.SetDefault("tls.cert_file", "")
	v.SetDefault("tls.key_file", "")
	v.SetDefault("tls.hostnames", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// LoadConfig loads the configuration from a file and the environment. With
// an empty path, config.yaml is looked up in . and ./config and may be
// absent. Environment variables use the DMP_ prefix, e.g. DMP_DB_HOST.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvPrefix("DMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	switch c.Data.Source {
	case SourceFixtures, SourcePostgres:
	default:
		return fmt.Errorf("data.source must be %q or %q, got %q", SourceFixtures, SourcePostgres, c.Data.Source)
	}
	if c.Timings.UploadFailureRate < 0 || c.Timings.UploadFailureRate > 1 {
		return fmt.Errorf("timings.upload_failure_rate must be within [0,1], got %v", c.Timings.UploadFailureRate)
	}
	if c.TLS.Enable && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		return errors.New("tls.enable requires tls.cert_file and tls.key_file")
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env       string   `mapstructure:"env"`        // current application environment (local, dev, production etc)
	JWTSecret string   `mapstructure:"-"`          // HS256 signing key loaded from environment
	DB        DB       `mapstructure:"database"`   // database configuration section
	HTTP      HTTP     `mapstructure:"http"`       // per-service HTTP configuration section
	CORS      []string `mapstructure:"cors_origins"` // allowed browser origins
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`     // per-statement timeout applied by services
}

// HTTP contains the listen ports of the four services.
type HTTP struct {
	UserPort    int `mapstructure:"user_port"`
	AdminPort   int `mapstructure:"admin_port"`
	TeacherPort int `mapstructure:"teacher_port"`
	StudentPort int `mapstructure:"student_port"`
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	// Set default values for configuration keys.
	v.SetDefault("env", "local")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")
	v.SetDefault("database.query_timeout", "5s")
	v.SetDefault("http.user_port", 5000)
	v.SetDefault("http.admin_port", 5001)
	v.SetDefault("http.teacher_port", 5002)
	v.SetDefault("http.student_port", 5003)
	v.SetDefault("cors_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.JWTSecret = v.GetString("jwt_secret")
	if cfg.JWTSecret == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	cfg.DB.URL = v.GetString("database_url")
	if cfg.DB.URL == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	return &cfg, nil
}

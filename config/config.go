package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"livenotes/pkg/logger"
)

// Config holds application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
}

type ServerConfig struct {
	Port  string
	Debug bool
}

type DatabaseConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret   string
	TokenTTL time.Duration
}

// Load reads configuration from a .env file (if present) and the environment.
func Load() *Config {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_DEBUG", false)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "require")
	viper.SetDefault("JWT_TOKEN_TTL_MINUTES", 60)

	cfg := &Config{
		Server: ServerConfig{
			Port:  viper.GetString("SERVER_PORT"),
			Debug: viper.GetBool("SERVER_DEBUG"),
		},
		Database: DatabaseConfig{
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		JWT: JWTConfig{
			Secret:   viper.GetString("JWT_SECRET"),
			TokenTTL: time.Duration(viper.GetInt("JWT_TOKEN_TTL_MINUTES")) * time.Minute,
		},
	}

	if cfg.JWT.Secret == "" {
		logger.Sugar.Warn("JWT_SECRET is not set; tokens cannot be issued or verified")
	}

	return cfg
}

package config

import (
	"errors"
	"fmt"

	"lessonfolders/internal/logger"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion        string `mapstructure:"GENERAL_VERSION"`
	Environment           string `mapstructure:"ENVIRONMENT"              validate:"omitempty,oneof=development test staging production"`
	ServerPort            int    `mapstructure:"SERVER_PORT"              validate:"required,min=1,max=65535"`
	DatabaseDriver        string `mapstructure:"DB_DRIVER"                validate:"required,oneof=postgres sqlite"`
	DatabaseHost          string `mapstructure:"DB_HOST"                  validate:"required_if=DatabaseDriver postgres"`
	DatabasePort          int    `mapstructure:"DB_PORT"                  validate:"omitempty,min=1,max=65535"`
	DatabaseName          string `mapstructure:"DB_NAME"                  validate:"required_if=DatabaseDriver postgres"`
	DatabaseUser          string `mapstructure:"DB_USER"                  validate:"required_if=DatabaseDriver postgres"`
	DatabasePassword      string `mapstructure:"DB_PASSWORD"`
	DatabaseSQLitePath    string `mapstructure:"DB_SQLITE_PATH"           validate:"required_if=DatabaseDriver sqlite"`
	DatabaseCacheAddress  string `mapstructure:"DB_CACHE_ADDRESS"`
	DatabaseCachePort     int    `mapstructure:"DB_CACHE_PORT"            validate:"required_with=DatabaseCacheAddress,max=65535"`
	DatabaseCacheReset    int    `mapstructure:"DB_CACHE_RESET"           validate:"min=-1,max=2"`
	CorsAllowOrigins      string `mapstructure:"CORS_ALLOW_ORIGINS"`
	JWTSecret             string `mapstructure:"JWT_SECRET"               validate:"required,min=16"`
	JWTIssuer             string `mapstructure:"JWT_ISSUER"`
	FolderCacheTTLSeconds int    `mapstructure:"FOLDER_CACHE_TTL_SECONDS" validate:"min=0"`
}

var ConfigInstance Config

var envVars = []string{
	"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT",
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_SQLITE_PATH",
	"DB_CACHE_ADDRESS", "DB_CACHE_PORT", "DB_CACHE_RESET",
	"CORS_ALLOW_ORIGINS",
	"JWT_SECRET", "JWT_ISSUER",
	"FOLDER_CACHE_TTL_SECONDS",
}

var validate = validator.New()

func New() (Config, error) {
	log := logger.New("config").Function("New")
	log.Info("Initializing config")

	viper.AutomaticEnv()

	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_CACHE_RESET", -1)
	viper.SetDefault("FOLDER_CACHE_TTL_SECONDS", 300)

	for _, env := range envVars {
		if err := viper.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	envVarsSet := viper.IsSet("SERVER_PORT") && viper.IsSet("JWT_SECRET")

	if envVarsSet {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		log.Info("Environment variables not found, attempting to load from files")

		viper.SetConfigFile(".env")
		viper.SetConfigType("env")

		if err := viper.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		} else {
			log.Info("Loaded .env file")
		}

		viper.SetConfigFile(".env.local")
		if err := viper.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		} else {
			log.Info("Loaded .env.local overrides")
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, log.Err("Fatal error: could not unmarshal config", err)
	}

	if err := validateConfig(config); err != nil {
		return Config{}, log.Err("Fatal error: invalid config", err)
	}

	log.Info(
		"Successfully initialized config",
		"environment", config.Environment,
		"port", config.ServerPort,
		"driver", config.DatabaseDriver,
	)
	ConfigInstance = config
	return config, nil
}

func GetConfig() Config {
	return ConfigInstance
}

func validateConfig(config Config) error {
	if err := validate.Struct(config); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag", e.Namespace(), e.Tag())
	}
	return err
}

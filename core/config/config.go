package config

import (
	"fmt"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret        string
	TokenExpiryHours int
}

// FieldServiceConfig targets the scheduling backend (jobs, teams, quotes).
type FieldServiceConfig struct {
	BaseURL string
}

// CRMConfig targets the CRM calendar API.
type CRMConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	TokenURL     string
}

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Auth         AuthConfig
	FieldService FieldServiceConfig
	CRM          CRMConfig
}

var (
	instance *Config
	once     sync.Once
)

// Load reads .env (if present) and environment variables into the config singleton.
func Load() (*Config, error) {
	var loadErr error
	once.Do(func() {
		_ = godotenv.Load()

		v := viper.New()
		v.AutomaticEnv()

		v.SetDefault("SERVER_HOST", "0.0.0.0")
		v.SetDefault("SERVER_PORT", 7070)
		v.SetDefault("DB_HOST", "localhost")
		v.SetDefault("DB_PORT", 5432)
		v.SetDefault("DB_USER", "postgres")
		v.SetDefault("DB_NAME", "fieldsync")
		v.SetDefault("REDIS_ADDR", "localhost:6379")
		v.SetDefault("REDIS_DB", 0)
		v.SetDefault("TOKEN_EXPIRY_HOURS", 24)

		cfg := &Config{
			Server: ServerConfig{
				Host: v.GetString("SERVER_HOST"),
				Port: v.GetInt("SERVER_PORT"),
			},
			Database: DatabaseConfig{
				Host:     v.GetString("DB_HOST"),
				Port:     v.GetInt("DB_PORT"),
				User:     v.GetString("DB_USER"),
				Password: v.GetString("DB_PASSWORD"),
				DBName:   v.GetString("DB_NAME"),
			},
			Redis: RedisConfig{
				Addr:     v.GetString("REDIS_ADDR"),
				Password: v.GetString("REDIS_PASSWORD"),
				DB:       v.GetInt("REDIS_DB"),
			},
			Auth: AuthConfig{
				JWTSecret:        v.GetString("JWT_SECRET"),
				TokenExpiryHours: v.GetInt("TOKEN_EXPIRY_HOURS"),
			},
			FieldService: FieldServiceConfig{
				BaseURL: v.GetString("FIELD_SERVICE_BASE_URL"),
			},
			CRM: CRMConfig{
				BaseURL:      v.GetString("CRM_BASE_URL"),
				ClientID:     v.GetString("CRM_CLIENT_ID"),
				ClientSecret: v.GetString("CRM_CLIENT_SECRET"),
				TokenURL:     v.GetString("CRM_TOKEN_URL"),
			},
		}

		if cfg.Auth.JWTSecret == "" {
			loadErr = fmt.Errorf("JWT_SECRET is required")
			return
		}

		instance = cfg
	})

	if loadErr != nil {
		return nil, loadErr
	}
	return instance, nil
}

// Get returns the config singleton. Panics if Load was never called.
func Get() *Config {
	if instance == nil {
		panic("config: Load must be called before Get")
	}
	return instance
}

// GetSafe returns the config singleton and whether it is initialized.
func GetSafe() (*Config, bool) {
	if instance == nil {
		return nil, false
	}
	return instance, true
}

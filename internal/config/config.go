package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Auth      AuthConfig
	SMTP      SMTPConfig
	Mail      MailConfig
	Redis     RedisConfig
	MQTT      MQTTConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	AutoMigrate     bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	Secret              string
	Issuer              string
	AccessTTL           time.Duration
	RefreshTTL          time.Duration
	RotateRefreshTokens bool
}

type AuthConfig struct {
	BcryptCost                     int
	ResetTokenTTL                  time.Duration
	RevokeSessionsOnPasswordChange bool
	FrontendURL                    string
	CleanupInterval                time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// MailConfig selects how outgoing email leaves the process: "log" writes it to
// the logger, "smtp" sends inline, "queue" hands it to the asynq worker.
type MailConfig struct {
	Transport string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

func (c MQTTConfig) Enabled() bool {
	return c.Broker != ""
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second for general endpoints
	GeneralBurst int     // Burst size for general endpoints
	AuthRPS      float64 // Requests per second for credential endpoints
	AuthBurst    int
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")

	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 5*time.Minute)

	v.SetDefault("JWT_ISSUER", "account-service")
	v.SetDefault("JWT_ACCESS_TTL", 5*time.Minute)
	v.SetDefault("JWT_REFRESH_TTL", 24*time.Hour)
	v.SetDefault("JWT_ROTATE_REFRESH_TOKENS", false)

	v.SetDefault("AUTH_BCRYPT_COST", 12)
	v.SetDefault("AUTH_RESET_TOKEN_TTL", 24*time.Hour)
	v.SetDefault("AUTH_REVOKE_SESSIONS_ON_PASSWORD_CHANGE", false)
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("AUTH_CLEANUP_INTERVAL", time.Hour)

	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_TRANSPORT", "log")

	v.SetDefault("REDIS_ADDR", "localhost:6379")

	v.SetDefault("MQTT_CLIENT_ID", "account-service")
	v.SetDefault("MQTT_TOPIC_PREFIX", "accounts/events")

	v.SetDefault("RATE_LIMIT_GENERAL_RPS", 20.0)
	v.SetDefault("RATE_LIMIT_GENERAL_BURST", 40)
	v.SetDefault("RATE_LIMIT_AUTH_RPS", 1.0)
	v.SetDefault("RATE_LIMIT_AUTH_BURST", 5)

	v.SetDefault("CORS_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "OPTIONS"})
	v.SetDefault("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"})
	v.SetDefault("CORS_EXPOSED_HEADERS", []string{"X-Request-ID"})
	v.SetDefault("CORS_MAX_AGE", 12*time.Hour)
}

func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = ".env"
	}
	v.SetConfigFile(configFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file %s not found. Falling back to environment variables only.", configFile)
	}

	config := &Config{
		Server: ServerConfig{
			Port:        v.GetString("SERVER_PORT"),
			Host:        v.GetString("SERVER_HOST"),
			Environment: v.GetString("ENVIRONMENT"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetString("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		JWT: JWTConfig{
			Secret:              v.GetString("JWT_SECRET"),
			Issuer:              v.GetString("JWT_ISSUER"),
			AccessTTL:           v.GetDuration("JWT_ACCESS_TTL"),
			RefreshTTL:          v.GetDuration("JWT_REFRESH_TTL"),
			RotateRefreshTokens: v.GetBool("JWT_ROTATE_REFRESH_TOKENS"),
		},
		Auth: AuthConfig{
			BcryptCost:                     v.GetInt("AUTH_BCRYPT_COST"),
			ResetTokenTTL:                  v.GetDuration("AUTH_RESET_TOKEN_TTL"),
			RevokeSessionsOnPasswordChange: v.GetBool("AUTH_REVOKE_SESSIONS_ON_PASSWORD_CHANGE"),
			FrontendURL:                    strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
			CleanupInterval:                v.GetDuration("AUTH_CLEANUP_INTERVAL"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Mail: MailConfig{
			Transport: strings.ToLower(v.GetString("MAIL_TRANSPORT")),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		MQTT: MQTTConfig{
			Broker:      v.GetString("MQTT_BROKER"),
			ClientID:    v.GetString("MQTT_CLIENT_ID"),
			Username:    v.GetString("MQTT_USERNAME"),
			Password:    v.GetString("MQTT_PASSWORD"),
			TopicPrefix: v.GetString("MQTT_TOPIC_PREFIX"),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   v.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: v.GetInt("RATE_LIMIT_GENERAL_BURST"),
			AuthRPS:      v.GetFloat64("RATE_LIMIT_AUTH_RPS"),
			AuthBurst:    v.GetInt("RATE_LIMIT_AUTH_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   stringList(v, "CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   stringList(v, "CORS_ALLOWED_METHODS"),
			AllowedHeaders:   stringList(v, "CORS_ALLOWED_HEADERS"),
			ExposedHeaders:   stringList(v, "CORS_EXPOSED_HEADERS"),
			AllowCredentials: v.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           v.GetDuration("CORS_MAX_AGE"),
		},
	}

	return config, nil
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	var problems []string
	if c.Database.Host == "" || c.Database.DBName == "" {
		problems = append(problems, "DB_HOST and DB_NAME must be set")
	}
	if c.JWT.Secret == "" {
		problems = append(problems, "JWT_SECRET must be set")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		problems = append(problems, "JWT_ACCESS_TTL and JWT_REFRESH_TTL must be positive")
	}
	if c.Auth.CleanupInterval <= 0 {
		problems = append(problems, "AUTH_CLEANUP_INTERVAL must be positive")
	}
	switch c.Mail.Transport {
	case "log", "smtp", "queue":
	default:
		problems = append(problems, fmt.Sprintf("unknown MAIL_TRANSPORT %q", c.Mail.Transport))
	}
	if c.Mail.Transport == "queue" && c.Redis.Addr == "" {
		problems = append(problems, "REDIS_ADDR must be set when MAIL_TRANSPORT=queue")
	}
	if c.Mail.Transport == "smtp" && c.SMTP.Host == "" {
		problems = append(problems, "SMTP_HOST must be set when MAIL_TRANSPORT=smtp")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// stringList accepts both native lists and comma separated env values.
func stringList(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

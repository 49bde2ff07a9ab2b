package config

import (
	"os"
	"strconv"
)

type Config struct {
	// Telegram
	BotToken    string
	BotUsername string
	AdminID     int64

	// Webhook
	WebhookPort   int
	WebhookSecret string

	// Database
	DBPath string

	// Maintenance
	SweepIntervalSeconds int
}

func Load() *Config {
	return &Config{
		// Telegram
		BotToken:    getEnv("BOT_TOKEN", ""),
		BotUsername: getEnv("BOT_USERNAME", "filegate_bot"),
		AdminID:     getEnvInt64("ADMIN_ID", 0),

		// Webhook
		WebhookPort:   getEnvInt("WEBHOOK_PORT", 8080),
		WebhookSecret: getEnv("WEBHOOK_SECRET", ""),

		// Database
		DBPath: getEnv("DB_PATH", "./filegate.db"),

		// Maintenance
		SweepIntervalSeconds: getEnvInt("SWEEP_INTERVAL_SECONDS", 60),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	Database   DatabaseConfig
	JWT        JWTConfig
	Notifier   NotifierConfig
	Telegram   TelegramConfig
	RabbitMQ   RabbitMQConfig
	PubSub     PubSubConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

type JWTConfig struct {
	// Secret is the server-side signing secret. The effective signing
	// key is derived from it together with the caller's session key.
	Secret string

	// TokenLifetimeDays is the access token validity period in days.
	TokenLifetimeDays int
}

// NotifierConfig selects the outbound notification backend.
// Supported values: "telegram", "rabbitmq", "pubsub", "none".
type NotifierConfig struct {
	Backend string
}

type TelegramConfig struct {
	BotToken       string
	APIBaseURL     string
	TimeoutSeconds int
}

type RabbitMQConfig struct {
	URL             string
	Queue           string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID       string
	CredentialsFile string
	Topic           string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "chatrelay"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "chatrelay_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		Database:   dbConfig,
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			TokenLifetimeDays: getEnvInt("JWT_TOKEN_LIFETIME_DAYS", 7),
		},
		Notifier: NotifierConfig{
			Backend: getEnv("NOTIFIER_BACKEND", "telegram"),
		},
		Telegram: TelegramConfig{
			BotToken:       getEnv("BOT_TOKEN", ""),
			APIBaseURL:     getEnv("BOT_API_BASE_URL", "https://api.telegram.org"),
			TimeoutSeconds: getEnvInt("BOT_TIMEOUT_SECONDS", 10),
		},
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			Queue:           getEnv("RABBITMQ_QUEUE", "chat-notifications"),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTODELETE", false),
			PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 0),
		},
		PubSub: PubSubConfig{
			ProjectID:       getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile: getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			Topic:           getEnv("PUBSUB_TOPIC", "chat-notifications"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		return valueStr == "true" || valueStr == "1"
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	ServerPort int

	// Хранилище записей: postgres (DATABASE_URL) или sqlite (SQLITE_PATH).
	// По умолчанию — sqlite, как в первоначальном развёртывании.
	DatabaseDriver string
	DatabaseURL    string
	SQLitePath     string

	// Файловые области для аватаров и QR-кодов (локальный бэкенд).
	UploadDir string
	QRDir     string

	// Максимальный размер тела запроса регистрации (байты).
	MaxUploadBytes int64

	CORSOrigins []string

	// Метаданные события, зашиваемые в полезную нагрузку QR-кода.
	EventName     string
	EventLocation string
	EventDate     string

	// DevMode открывает destructive-эндпоинт сброса базы.
	DevMode bool

	// Опциональный бэкенд Cloudflare R2 для файлов. Если AccountID пуст,
	// используется локальная файловая система.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	portStr := envOrDefault("SERVER_PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	maxUpload := int64(500 * 1024)
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES environment variable: %q", v)
		}
		maxUpload = parsed
	}

	driver := DriverSQLite
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL != "" {
		driver = DriverPostgres
	}

	origins := strings.Split(envOrDefault("CORS_ORIGINS", "http://localhost:5173"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	cfg := &Config{
		ServerPort:     port,
		DatabaseDriver: driver,
		DatabaseURL:    dbURL,
		SQLitePath:     envOrDefault("SQLITE_PATH", "conference.db"),
		UploadDir:      envOrDefault("UPLOAD_DIR", "uploads"),
		QRDir:          envOrDefault("QR_DIR", "qr_codes"),
		MaxUploadBytes: maxUpload,
		CORSOrigins:    origins,
		EventName:      envOrDefault("EVENT_NAME", "Coding Conf 2025"),
		EventLocation:  envOrDefault("EVENT_LOCATION", "Austin, TX"),
		EventDate:      envOrDefault("EVENT_DATE", "2025-08-23"),
		DevMode:        os.Getenv("DEV_MODE") == "true",

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
	}

	return cfg, nil
}

// UseR2 сообщает, настроен ли удалённый бэкенд файлов.
func (c *Config) UseR2() bool {
	return c.R2AccountID != ""
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

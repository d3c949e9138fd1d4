package configs

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver string
	DBSource string
	Port     string

	JWTSecret string
	JWTTTL    time.Duration

	// Photo storage: local disk by default, remote media API when
	// MEDIA_UPLOAD_URL is set.
	UploadDir      string
	MediaUploadURL string
	MediaAPIKey    string

	// Optional: cross-replica job lock for the confirmation sweep.
	RedisAddr string

	AppEnv string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}

	return &Config{
		DBDriver:       getEnv("DB_DRIVER", "sqlite"),
		DBSource:       getEnv("DB_SOURCE", "cleanmboka.db"),
		Port:           getEnv("PORT", "8000"),
		JWTSecret:      getEnv("JWT_SECRET", "changeme"),
		JWTTTL:         time.Duration(24) * time.Hour,
		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		MediaUploadURL: os.Getenv("MEDIA_UPLOAD_URL"),
		MediaAPIKey:    os.Getenv("MEDIA_API_KEY"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		AppEnv:         getEnv("APP_ENV", "dev"),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

// Helper in case other files need a hard requirement (e.g. seed)
func MustGetEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		log.Fatalf("missing env: %s", key)
	}
	return v
}

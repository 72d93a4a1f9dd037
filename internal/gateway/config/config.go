package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       string
	Env        string
	LogLevel   string
	LogFormat  string
	SessionTTL time.Duration

	DatabaseURL string

	Upload     UploadConfig
	Classifier ClassifierConfig
	Fact       FactConfig
}

type UploadConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func (c UploadConfig) CanUseS3() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

type ClassifierConfig struct {
	BaseURL string
	Timeout time.Duration
}

type FactConfig struct {
	Model   string
	Timeout time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8080", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:        *port,
		Env:         env,
		LogLevel:    firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_LEVEL")), "info"),
		LogFormat:   firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_FORMAT")), "text"),
		SessionTTL:  durationFromEnv("SESSION_TTL", 24*time.Hour),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Upload:      loadUploadConfig(env),
		Classifier: ClassifierConfig{
			BaseURL: strings.TrimSpace(os.Getenv("CLASSIFIER_URL")),
			Timeout: durationFromEnv("CLASSIFIER_TIMEOUT", 30*time.Second),
		},
		Fact: FactConfig{
			Model:   firstNonEmpty(strings.TrimSpace(os.Getenv("FACT_MODEL")), "gemini-2.5-flash"),
			Timeout: durationFromEnv("FACT_TIMEOUT", 10*time.Second),
		},
	}, nil
}

func loadUploadConfig(env string) UploadConfig {
	endpoint := resolveUploadEndpoint(env)
	return UploadConfig{
		Enabled:   strings.EqualFold(strings.TrimSpace(env), "local") || endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("UPLOAD_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("UPLOAD_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("UPLOAD_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("UPLOAD_S3_BUCKET")), "animaldex-uploads"),
		UseSSL:    resolveUploadUseSSL(env),
	}
}

func resolveUploadEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return firstNonEmpty(strings.TrimSpace(os.Getenv("UPLOAD_MINIO_ENDPOINT")), "minio:9000")
	}
	return strings.TrimSpace(os.Getenv("UPLOAD_S3_ENDPOINT"))
}

func resolveUploadUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("UPLOAD_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

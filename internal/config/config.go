package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeDev  Mode = "dev"
	ModeProd Mode = "prod"
)

type Config struct {
	Mode      Mode
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	RedisAddr     string
	RedisPassword string

	BlobBasePath string

	JWTSecret   string
	OTPTTLMin   int
	AdminEmail  string
	CORSOrigins []string

	SendgridAPIKey string
	EmailFrom      string
	EmailFromName  string

	// Generative-language API used by the quiz generator.
	GenAIBaseURL string
	GenAIAPIKey  string
	GenAIModel   string
}

// FromEnv loads .env if present, then reads configuration from the
// environment with dev-friendly defaults.
func FromEnv() Config {
	_ = godotenv.Load()

	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeDev
	}
	return Config{
		Mode:      mode,
		HTTPAddr:  envOr("HTTP_ADDR", ":8080"),
		PublicURL: os.Getenv("PUBLIC_URL"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		BlobBasePath: envOr("BLOB_BASE_PATH", "./data"),

		JWTSecret:   envOr("JWT_SECRET", "coursekit-dev-secret"),
		OTPTTLMin:   envInt("OTP_TTL_MIN", 10),
		AdminEmail:  envOr("ADMIN_EMAIL", "admin@coursekit.local"),
		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000"),

		SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		EmailFrom:      envOr("EMAIL_FROM", "no-reply@coursekit.local"),
		EmailFromName:  envOr("EMAIL_FROM_NAME", "CourseKit"),

		GenAIBaseURL: envOr("GENAI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GenAIAPIKey:  os.Getenv("GENAI_API_KEY"),
		GenAIModel:   envOr("GENAI_MODEL", "gemini-1.5-flash"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

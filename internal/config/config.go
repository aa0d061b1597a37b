package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Env string

const (
	EnvDev        Env = "dev"
	EnvProduction Env = "production"
)

type Config struct {
	Env      Env
	HTTPAddr string

	DBDriver string
	DBDSN    string

	JWTSecret string

	BlobBasePath string

	CORSOrigins []string
}

// FromEnv reads configuration from the environment. A .env file in the
// working directory is loaded first when present.
func FromEnv() Config {
	_ = godotenv.Load()

	env := Env(os.Getenv("ENV"))
	if env == "" {
		env = EnvDev
	}
	return Config{
		Env:          env,
		HTTPAddr:     envOr("HTTP_ADDR", ":3001"),
		DBDriver:     envOr("DB_DRIVER", "sqlite"),
		DBDSN:        envOr("DB_DSN", ""),
		JWTSecret:    envOr("JWT_SECRET", "your_jwt_secret_key"),
		BlobBasePath: envOr("BLOB_BASE_PATH", "./data"),
		CORSOrigins:  csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
	}
}

func (c Config) IsProduction() bool { return c.Env == EnvProduction }

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
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

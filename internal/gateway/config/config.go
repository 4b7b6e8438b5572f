// Package config loads gateway settings from flags, .env and environment
// variables, in that order of increasing precedence for the port.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string

	// Gemini holds the server-side model defaults. API keys arrive with
	// each request; GEMINI_API_KEY is only a local-development fallback.
	Gemini GeminiConfig

	// StorePath is the JSON file backing project persistence when no
	// Postgres DSN is configured.
	StorePath   string
	DatabaseDSN string

	Artifact ArtifactConfig

	// MaxRounds caps writer/critic rounds per stage. Zero means default.
	MaxRounds int

	// LLMRatePerSecond caps outbound model calls. Zero disables the limiter.
	LLMRatePerSecond int
}

type GeminiConfig struct {
	Model      string
	Endpoint   string
	DefaultKey string
	// UseSDK switches the client backend from the REST implementation to
	// the official SDK.
	UseSDK bool
}

type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
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
		Port: *port,
		Env:  env,
		Gemini: GeminiConfig{
			Model:      firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_MODEL")), "gemini-2.0-flash"),
			Endpoint:   strings.TrimSpace(os.Getenv("GEMINI_ENDPOINT")),
			DefaultKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			UseSDK:     parseBool(os.Getenv("GEMINI_USE_SDK"), false),
		},
		StorePath:        firstNonEmpty(strings.TrimSpace(os.Getenv("PROJECT_STORE_PATH")), "data/projects.json"),
		DatabaseDSN:      strings.TrimSpace(os.Getenv("PROJECT_STORE_PG_DSN")),
		Artifact:         loadArtifactConfig(env),
		MaxRounds:        parseInt(os.Getenv("DEBATE_MAX_ROUNDS"), 0),
		LLMRatePerSecond: parseInt(os.Getenv("LLM_RATE_PER_SECOND"), 2),
	}, nil
}

func loadArtifactConfig(env string) ArtifactConfig {
	endpoint := resolveArtifactEndpoint(env)
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "proposalforge-exports"),
		UseSSL:    resolveArtifactUseSSL(env),
	}
}

func resolveArtifactEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
}

func resolveArtifactUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	return parseBool(os.Getenv("ARTIFACT_S3_USE_SSL"), true)
}

func parseBool(raw string, fallback bool) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func parseInt(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Package config loads service configuration from the environment, with
// an optional YAML overlay pointed at by CONFIG_FILE. Environment values
// are the base; the overlay overrides whatever keys it carries.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Service       ServiceConfig       `yaml:"service"`
	HTTP          HTTPConfig          `yaml:"http"`
	Workers       WorkerConfig        `yaml:"workers"`
	Crypto        CryptoConfig        `yaml:"crypto"`
	Storage       StorageConfig       `yaml:"storage"`
	Limits        LimitConfig         `yaml:"limits"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Providers     ProviderConfig      `yaml:"providers"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type ServiceConfig struct {
	Principal string `yaml:"principal"`
}

type HTTPConfig struct {
	Port        string `yaml:"port"`
	MetricsPort string `yaml:"metrics_port"`
}

type WorkerConfig struct {
	// Count is the number of concurrent executors. Zero is valid:
	// submissions queue up and nothing drains them.
	Count      int           `yaml:"count"`
	JobTimeout time.Duration `yaml:"job_timeout"`
	WorkRoot   string        `yaml:"work_root"`
}

type CryptoConfig struct {
	// KeyHex is the hex-encoded 32-byte AES key protecting media and
	// transcripts at rest. Empty means a volatile key is generated on
	// startup, which is only useful for local runs.
	KeyHex string `yaml:"key_hex"`
}

type StorageConfig struct {
	// Backend selects the blob store: "fs" or "minio".
	Backend string `yaml:"backend"`
	FSRoot  string `yaml:"fs_root"`

	MinioEndpoint  string `yaml:"minio_endpoint"`
	MinioAccessKey string `yaml:"minio_access_key"`
	MinioSecretKey string `yaml:"minio_secret_key"`
	MinioBucket    string `yaml:"minio_bucket"`
	MinioUseSSL    bool   `yaml:"minio_use_ssl"`
}

type LimitConfig struct {
	// MaxActivePerOwner caps QUEUED+PROCESSING jobs per owner on the
	// LOW tier. HIGH-tier owners are uncapped.
	MaxActivePerOwner int   `yaml:"max_active_per_owner"`
	MaxUploadBytes    int64 `yaml:"max_upload_bytes"`
}

type KafkaConfig struct {
	Enabled         bool     `yaml:"enabled"`
	Brokers         []string `yaml:"brokers"`
	TopicStatus     string   `yaml:"topic_status"`
	TopicTranscript string   `yaml:"topic_transcript"`
	Principal       string   `yaml:"principal"`
}

type ProviderConfig struct {
	// Transcriber names the backend; "sim" is the only built-in.
	Transcriber string `yaml:"transcriber"`

	// Capability toggles. A disabled capability is absent, not an
	// error: requesting it on a job degrades gracefully.
	Diarization bool `yaml:"diarization"`
	Translation bool `yaml:"translation"`
	Restoration bool `yaml:"restoration"`

	// SimDelay adds per-job latency to the simulated transcriber so
	// local runs resemble real model timing.
	SimDelay time.Duration `yaml:"sim_delay"`
}

type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load builds the configuration. A .env file in the working directory
// is honored when present; CONFIG_FILE, when set, names a YAML overlay
// applied on top of the environment.
func Load() *Config {
	_ = godotenv.Load()

	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-media-transcription")

	cfg := &Config{
		Service: ServiceConfig{
			Principal: principal,
		},
		HTTP: HTTPConfig{
			Port:        envOrDefault("HTTP_PORT", "8080"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
		Workers: WorkerConfig{
			Count:      envOrDefaultInt("WORKER_COUNT", 4),
			JobTimeout: envOrDefaultDuration("WORKER_JOB_TIMEOUT", 30*time.Minute),
			WorkRoot:   envOrDefault("WORKER_WORK_ROOT", ""),
		},
		Crypto: CryptoConfig{
			KeyHex: envOrDefault("CRYPTO_KEY_HEX", ""),
		},
		Storage: StorageConfig{
			Backend:        envOrDefault("STORAGE_BACKEND", "fs"),
			FSRoot:         envOrDefault("STORAGE_FS_ROOT", "./data/blobs"),
			MinioEndpoint:  envOrDefault("MINIO_ENDPOINT", "localhost:9000"),
			MinioAccessKey: envOrDefault("MINIO_ACCESS_KEY", ""),
			MinioSecretKey: envOrDefault("MINIO_SECRET_KEY", ""),
			MinioBucket:    envOrDefault("MINIO_BUCKET", "transcription-media"),
			MinioUseSSL:    envOrDefaultBool("MINIO_USE_SSL", false),
		},
		Limits: LimitConfig{
			MaxActivePerOwner: envOrDefaultInt("LIMIT_MAX_ACTIVE_PER_OWNER", 3),
			MaxUploadBytes:    envOrDefaultInt64("LIMIT_MAX_UPLOAD_BYTES", 500*1024*1024),
		},
		Kafka: KafkaConfig{
			Enabled:         envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:         splitList(envOrDefault("KAFKA_BROKERS", "")),
			TopicStatus:     envOrDefault("KAFKA_TOPIC_STATUS", "transcription.job.status"),
			TopicTranscript: envOrDefault("KAFKA_TOPIC_TRANSCRIPT", "transcription.transcript.ready"),
			Principal:       envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Providers: ProviderConfig{
			Transcriber: envOrDefault("PROVIDER_TRANSCRIBER", "sim"),
			Diarization: envOrDefaultBool("PROVIDER_DIARIZATION", true),
			Translation: envOrDefaultBool("PROVIDER_TRANSLATION", true),
			Restoration: envOrDefaultBool("PROVIDER_RESTORATION", true),
			SimDelay:    envOrDefaultDuration("PROVIDER_SIM_DELAY", 0),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
		},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyOverlay(cfg, path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Config overlay not applied")
		}
	}
	return cfg
}

// applyOverlay unmarshals the YAML file over cfg. Keys absent from the
// file keep their environment-derived values.
func applyOverlay(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.ToLower(v)); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/yungbote/knowledgemap-backend/internal/data/db"
	"github.com/yungbote/knowledgemap-backend/internal/jobs/pipeline/course_build"
	"github.com/yungbote/knowledgemap-backend/internal/jobs/worker"
	"github.com/yungbote/knowledgemap-backend/internal/observability"
	"github.com/yungbote/knowledgemap-backend/internal/platform/envutil"
	"github.com/yungbote/knowledgemap-backend/internal/platform/llm"
	"github.com/yungbote/knowledgemap-backend/internal/platform/neo4jdb"
	"github.com/yungbote/knowledgemap-backend/internal/realtime/bus"
)

type Config struct {
	HTTPAddr    string
	LogMode     string
	CORSOrigins []string

	DB     db.Config
	LLM    llm.Config
	Worker worker.Config
	Policy course_build.Policy

	Redis bus.RedisConfig
	Neo4j neo4jdb.Config
	Otel  observability.OtelConfig

	MetricsEnabled bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8000")
	v.SetDefault("log_mode", "development")
	v.SetDefault("database_path", "data/knowledgemap.db")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_channel", bus.DefaultRedisChannel)
	v.SetDefault("neo4j_uri", "")
	v.SetDefault("neo4j_user", "")
	v.SetDefault("neo4j_password", "")
	v.SetDefault("neo4j_database", "")
	v.SetDefault("otel_enabled", false)
	v.SetDefault("otel_service_name", "knowledgemap-backend")
	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("otel_exporter_otlp_insecure", true)
	v.SetDefault("otel_exporter_otlp_headers", "")
	v.SetDefault("otel_sampler_ratio", 0.1)
	v.SetDefault("environment", "development")
	v.SetDefault("metrics_enabled", false)
	v.SetDefault("cors_allowed_origins", "")
}

// LoadConfig reads the environment and, when path is set, a YAML file.
// Environment variables win. Values that only come from the file are exported
// to the process environment so packages reading their own LLM_* and TASK_*
// knobs see them too.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := exportFileValues(v); err != nil {
			return Config{}, err
		}
	}

	return Config{
		HTTPAddr:    v.GetString("http_addr"),
		LogMode:     v.GetString("log_mode"),
		CORSOrigins: splitList(v.GetString("cors_allowed_origins")),
		DB: db.Config{
			PostgresDSN: v.GetString("postgres_dsn"),
			SQLitePath:  v.GetString("database_path"),
		},
		LLM:    llm.ConfigFromEnv(),
		Worker: worker.ConfigFromEnv(),
		Policy: course_build.PolicyFromEnv(),
		Redis: bus.RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
			Channel:  v.GetString("redis_channel"),
		},
		Neo4j: neo4jdb.Config{
			URI:      v.GetString("neo4j_uri"),
			User:     v.GetString("neo4j_user"),
			Password: v.GetString("neo4j_password"),
			Database: v.GetString("neo4j_database"),
		},
		Otel: observability.OtelConfig{
			Enabled:     v.GetBool("otel_enabled"),
			ServiceName: v.GetString("otel_service_name"),
			Environment: v.GetString("environment"),
			Endpoint:    v.GetString("otel_exporter_otlp_endpoint"),
			Insecure:    v.GetBool("otel_exporter_otlp_insecure"),
			Headers:     observability.ParseHeaders(v.GetString("otel_exporter_otlp_headers")),
			SampleRatio: v.GetFloat64("otel_sampler_ratio"),
		},
		MetricsEnabled: v.GetBool("metrics_enabled"),
	}, nil
}

func exportFileValues(v *viper.Viper) error {
	for _, key := range v.AllKeys() {
		if !v.InConfig(key) {
			continue
		}
		name := strings.ToUpper(key)
		if envutil.String(name, "") != "" {
			continue
		}
		var val string
		switch raw := v.Get(key).(type) {
		case []any:
			val = strings.Join(v.GetStringSlice(key), ",")
		default:
			val = fmt.Sprint(raw)
		}
		if err := os.Setenv(name, val); err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

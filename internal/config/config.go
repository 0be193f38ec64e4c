// README: Config loader: defaults, optional .env, TABI_* env overrides and provider API keys.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type PlannerConfig struct {
	MaxLocations int
	Concurrency  int
	// MonthlyQuota is the number of plan syntheses a client may request per month.
	MonthlyQuota int
}

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		DSN string
	}
	Redis struct {
		Addr string
	}
	Session struct {
		TTL time.Duration
	}
	AI struct {
		Provider    string
		GeminiKey   string
		OpenAIKey   string
		Model       string
		MaxTokens   int
		Temperature float64
	}
	Maps struct {
		APIKey   string
		EmbedKey string
	}
	Upstream struct {
		Timeout time.Duration
	}
	Planner PlannerConfig
	Log     struct {
		Level  string
		Format string
	}
}

// Load reads configuration from defaults, an optional .env file and the
// environment. TABI_HTTP_ADDR overrides http.addr and so on; the provider keys
// use their conventional unprefixed names.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("TABI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.Redis.Addr = v.GetString("redis.addr")
	cfg.Session.TTL = v.GetDuration("session.ttl")
	cfg.AI.Provider = strings.ToLower(v.GetString("ai.provider"))
	cfg.AI.GeminiKey = firstNonEmpty(v.GetString("ai.gemini_key"), os.Getenv("GEMINI_API_KEY"))
	cfg.AI.OpenAIKey = firstNonEmpty(v.GetString("ai.openai_key"), os.Getenv("OPENAI_API_KEY"))
	cfg.AI.Model = v.GetString("ai.model")
	cfg.AI.MaxTokens = v.GetInt("ai.max_tokens")
	cfg.AI.Temperature = v.GetFloat64("ai.temperature")
	cfg.Maps.APIKey = firstNonEmpty(v.GetString("maps.api_key"), os.Getenv("GOOGLE_MAPS_API_KEY"))
	cfg.Maps.EmbedKey = firstNonEmpty(v.GetString("maps.embed_key"), cfg.Maps.APIKey)
	cfg.Upstream.Timeout = v.GetDuration("upstream.timeout")
	cfg.Planner.MaxLocations = v.GetInt("planner.max_locations")
	cfg.Planner.Concurrency = v.GetInt("planner.concurrency")
	cfg.Planner.MonthlyQuota = v.GetInt("planner.monthly_quota")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")

	if err := validate(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("db.dsn", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.gemini_key", "")
	v.SetDefault("ai.openai_key", "")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.max_tokens", 800)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("maps.api_key", "")
	v.SetDefault("maps.embed_key", "")
	v.SetDefault("upstream.timeout", 30*time.Second)
	v.SetDefault("planner.max_locations", 10)
	v.SetDefault("planner.concurrency", 4)
	v.SetDefault("planner.monthly_quota", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

func validate(cfg Config) error {
	switch cfg.AI.Provider {
	case "openai":
		if cfg.AI.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for provider openai")
		}
	case "gemini":
		if cfg.AI.GeminiKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for provider gemini")
		}
	default:
		return fmt.Errorf("unknown ai provider %q", cfg.AI.Provider)
	}
	if cfg.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	if cfg.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 比對模型供應商
const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// 比對歷史儲存後端
const (
	HistoryBackendMemory = "memory"
	HistoryBackendRedis  = "redis"
)

// Config 應用配置
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	OpenRouter  OpenRouterConfig `mapstructure:"openrouter"`
	Gemini      GeminiConfig     `mapstructure:"gemini"`
	Match       MatchConfig      `mapstructure:"match"`
	History     HistoryConfig    `mapstructure:"history"`
	Catalog     CatalogConfig    `mapstructure:"catalog"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBodySize  int64         `mapstructure:"max_body_size"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// GeminiConfig Google Gemini 配置
type GeminiConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// MatchConfig 比對引擎設定
type MatchConfig struct {
	Provider         string        `mapstructure:"provider"`
	MaxCandidates    int           `mapstructure:"max_candidates"`
	Temperature      float64       `mapstructure:"temperature"`
	BasicIngredients []string      `mapstructure:"basic_ingredients"`
	Workers          int           `mapstructure:"workers"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
}

// HistoryConfig 比對歷史設定
type HistoryConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Redis           RedisConfig   `mapstructure:"redis"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CatalogConfig 商品與食譜資料檔
type CatalogConfig struct {
	ProductsPath string `mapstructure:"products_path"`
	RecipesPath  string `mapstructure:"recipes_path"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 不存在時直接使用環境變數
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	bindings := map[string]string{
		"openrouter.api_key":     "OPENROUTER_API_KEY",
		"openrouter.model":       "OPENROUTER_MODEL",
		"openrouter.base_url":    "OPENROUTER_BASE_URL",
		"openrouter.enabled":     "OPENROUTER_ENABLED",
		"openrouter.max_tokens":  "MODEL_MAX_TOKENS",
		"gemini.api_key":         "GEMINI_API_KEY",
		"gemini.model":           "GEMINI_MODEL",
		"match.provider":         "MATCH_PROVIDER",
		"match.max_candidates":   "MATCH_MAX_CANDIDATES",
		"match.temperature":      "MATCH_TEMPERATURE",
		"match.workers":          "MATCH_WORKERS",
		"history.enabled":        "HISTORY_ENABLED",
		"history.backend":        "HISTORY_BACKEND",
		"history.redis.addr":     "REDIS_ADDR",
		"history.redis.password": "REDIS_PASSWORD",
		"catalog.products_path":  "PRODUCTS_PATH",
		"catalog.recipes_path":   "RECIPES_PATH",
		"rate_limit.enabled":     "RATE_LIMIT_ENABLED",
		"rate_limit.requests":    "RATE_LIMIT_REQUESTS",
		"rate_limit.window":      "RATE_LIMIT_WINDOW",
		"dedup_window":           "DEDUP_WINDOW",
		"log_level":              "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "APP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	// 設定設定檔名稱和路徑
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// 讀取設定檔
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 解析設定
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 未明確指定時，有 OpenRouter 金鑰就啟用
	if !v.IsSet("openrouter.enabled") {
		config.OpenRouter.Enabled = config.OpenRouter.APIKey != ""
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// ModelMaxTokens 目前比對供應商的輸出 token 上限
func (c *Config) ModelMaxTokens() int {
	if c.Match.Provider == ProviderGemini {
		return c.Gemini.MaxTokens
	}
	return c.OpenRouter.MaxTokens
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-matcher")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_body_size", 10<<20) // 10MB

	// OpenRouter 設定
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "openai/gpt-4o-mini")
	v.SetDefault("openrouter.max_tokens", 1200)
	v.SetDefault("openrouter.timeout", "60s")

	// Gemini 設定
	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("gemini.max_tokens", 1200)
	v.SetDefault("gemini.timeout", "60s")

	// 比對設定
	v.SetDefault("match.provider", ProviderOpenRouter)
	v.SetDefault("match.max_candidates", 20)
	v.SetDefault("match.temperature", 0.2)
	v.SetDefault("match.basic_ingredients", []string{"water", "salt", "sugar"})
	v.SetDefault("match.workers", 5)
	v.SetDefault("match.request_timeout", "120s")

	// 比對歷史設定
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.backend", HistoryBackendMemory)
	v.SetDefault("history.max_size", 1000)
	v.SetDefault("history.ttl", "168h")
	v.SetDefault("history.cleanup_interval", "10m")
	v.SetDefault("history.redis.addr", "localhost:6379")
	v.SetDefault("history.redis.db", 0)

	// 資料檔
	v.SetDefault("catalog.products_path", "data/products.json")
	v.SetDefault("catalog.recipes_path", "data/recipes.json")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	switch config.Match.Provider {
	case ProviderOpenRouter, ProviderGemini:
	default:
		return fmt.Errorf("unsupported match provider %q", config.Match.Provider)
	}
	if config.Match.Workers <= 0 {
		return fmt.Errorf("invalid match workers")
	}
	if config.Match.Temperature < 0 || config.Match.Temperature > 2 {
		return fmt.Errorf("invalid match temperature")
	}

	if config.History.Enabled {
		switch config.History.Backend {
		case HistoryBackendMemory:
			if config.History.MaxSize <= 0 {
				return fmt.Errorf("invalid history max size")
			}
			if config.History.CleanupInterval <= 0 {
				return fmt.Errorf("invalid history cleanup interval")
			}
		case HistoryBackendRedis:
			if config.History.Redis.Addr == "" {
				return fmt.Errorf("redis address is required for redis history backend")
			}
		default:
			return fmt.Errorf("unsupported history backend %q", config.History.Backend)
		}
		if config.History.TTL <= 0 {
			return fmt.Errorf("invalid history ttl")
		}
	}

	if config.RateLimit.Enabled {
		if config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0 {
			return fmt.Errorf("invalid rate limit settings")
		}
	}

	return nil
}

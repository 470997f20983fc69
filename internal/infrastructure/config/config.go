package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Model       ModelConfig     `mapstructure:"model"`
	Store       StoreConfig     `mapstructure:"store"`
	Auth        AuthConfig      `mapstructure:"auth"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Queue       QueueConfig     `mapstructure:"queue"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Image       ImageConfig     `mapstructure:"image"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
	LogDir      string          `mapstructure:"log_dir"`
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
	Port           int           `mapstructure:"port"`
	RoutePrefix    string        `mapstructure:"route_prefix"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// ModelConfig 模型服務設定（OpenAI 相容 API）
type ModelConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	VisionModel     string        `mapstructure:"vision_model"`
	TextModel       string        `mapstructure:"text_model"`
	RecipeModel     string        `mapstructure:"recipe_model"`
	VisionTimeout   time.Duration `mapstructure:"vision_timeout"`
	TextTimeout     time.Duration `mapstructure:"text_timeout"`
	RecipeTimeout   time.Duration `mapstructure:"recipe_timeout"`
	RecipeTemp      float64       `mapstructure:"recipe_temperature"`
	VisionTokens    int           `mapstructure:"vision_max_tokens"`
	ReceiptTokens   int           `mapstructure:"receipt_max_tokens"`
	TextTokens      int           `mapstructure:"text_max_tokens"`
	LookupTokens    int           `mapstructure:"lookup_max_tokens"`
	RecommendTokens int           `mapstructure:"recommend_max_tokens"`
	DetailTokens    int           `mapstructure:"detail_max_tokens"`
}

// StoreConfig 鍵值儲存設定
type StoreConfig struct {
	Driver        string `mapstructure:"driver"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	SQLitePath    string `mapstructure:"sqlite_path"`
}

// AuthConfig Bearer 驗證設定
type AuthConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	JWTSecret   string `mapstructure:"jwt_secret"`
	StaticToken string `mapstructure:"static_token"`
}

// CacheConfig 食譜詳情快取設定
type CacheConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	MaxSize        int  `mapstructure:"max_size"`
	PreloadEnabled bool `mapstructure:"preload_enabled"`
	PreloadCount   int  `mapstructure:"preload_count"`
}

// QueueConfig 模型呼叫併發設定
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ImageConfig 圖片配置
type ImageConfig struct {
	MaxSizeBytes      int64 `mapstructure:"max_size_bytes"`
	PlaceholderWidth  int   `mapstructure:"placeholder_width"`
	PlaceholderHeight int   `mapstructure:"placeholder_height"`
}

var envBindings = map[string]string{
	"model.api_key":        "OPENAI_API_KEY",
	"model.base_url":       "OPENAI_BASE_URL",
	"model.vision_model":   "OPENAI_VISION_MODEL",
	"model.recipe_model":   "OPENAI_RECIPE_MODEL",
	"store.driver":         "STORE_DRIVER",
	"store.redis_addr":     "REDIS_ADDR",
	"store.redis_password": "REDIS_PASSWORD",
	"store.sqlite_path":    "SQLITE_PATH",
	"auth.enabled":         "AUTH_ENABLED",
	"auth.jwt_secret":      "JWT_SECRET",
	"auth.static_token":    "API_TOKEN",
	"cache.enabled":        "CACHE_ENABLED",
	"rate_limit.enabled":   "RATE_LIMIT_ENABLED",
	"rate_limit.requests":  "RATE_LIMIT_REQUESTS",
	"rate_limit.window":    "RATE_LIMIT_WINDOW",
	"server.port":          "PORT",
	"dedup_window":         "DEDUP_WINDOW",
	"log_level":            "LOG_LEVEL",
	"log_dir":              "LOG_DIR",
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 不存在時只使用環境變數
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envBindings {
		if err := v.BindEnv(key, "APP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// logger 尚未初始化，改用 fmt.Println
	fmt.Println("Loading configuration", "model_api_key:", maskAPIKey(v.GetString("model.api_key")), "store_driver:", v.GetString("store.driver"))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "smart-fridge")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.route_prefix", "/make-server-1aa0d6ee")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.idle_timeout", "120s")
	// 收據需要兩次模型呼叫
	v.SetDefault("server.request_timeout", "150s")
	v.SetDefault("server.max_body_bytes", 16<<20)

	v.SetDefault("model.base_url", "https://api.openai.com/v1")
	v.SetDefault("model.vision_model", "gpt-4o")
	v.SetDefault("model.text_model", "gpt-4o")
	v.SetDefault("model.recipe_model", "gpt-4o-mini")
	v.SetDefault("model.vision_timeout", "60s")
	v.SetDefault("model.text_timeout", "30s")
	v.SetDefault("model.recipe_timeout", "60s")
	v.SetDefault("model.recipe_temperature", 0.7)
	v.SetDefault("model.vision_max_tokens", 1000)
	v.SetDefault("model.receipt_max_tokens", 1500)
	v.SetDefault("model.text_max_tokens", 1000)
	v.SetDefault("model.lookup_max_tokens", 800)
	v.SetDefault("model.recommend_max_tokens", 2000)
	v.SetDefault("model.detail_max_tokens", 3000)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("store.sqlite_path", "data/smart-fridge.db")

	v.SetDefault("auth.enabled", true)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_size", 500)
	v.SetDefault("cache.preload_enabled", true)
	v.SetDefault("cache.preload_count", 3)

	v.SetDefault("queue.workers", 5)
	v.SetDefault("queue.max_size", 100)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("image.max_size_bytes", 10*1024*1024)
	v.SetDefault("image.placeholder_width", 400)
	v.SetDefault("image.placeholder_height", 200)

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")
}

func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}
	if !strings.HasPrefix(config.Server.RoutePrefix, "/") {
		return fmt.Errorf("route prefix must start with /")
	}

	switch config.Store.Driver {
	case "memory":
	case "redis":
		if config.Store.RedisAddr == "" {
			return fmt.Errorf("redis address is required")
		}
	case "sqlite":
		if config.Store.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("unknown store driver %q", config.Store.Driver)
	}

	if config.Auth.Enabled && config.Auth.JWTSecret == "" && config.Auth.StaticToken == "" {
		return fmt.Errorf("auth enabled but neither jwt secret nor static token is set")
	}

	if config.Cache.Enabled && config.Cache.MaxSize < 0 {
		return fmt.Errorf("invalid cache max size")
	}

	if config.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}

	for name, d := range map[string]time.Duration{
		"vision": config.Model.VisionTimeout,
		"text":   config.Model.TextTimeout,
		"recipe": config.Model.RecipeTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("invalid %s timeout", name)
		}
	}

	return nil
}

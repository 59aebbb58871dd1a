package config

import (
	"fmt"
	"strings"

	"github.com/voyago-next/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Queue      QueueConfig      `mapstructure:"queue"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Security   SecurityConfig   `mapstructure:"security"`
	Pricing    PricingConfig    `mapstructure:"pricing"`
	Allocation AllocationConfig `mapstructure:"allocation"`
	Refund     RefundConfig     `mapstructure:"refund"`
	Booking    BookingConfig    `mapstructure:"booking"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// RateLimitConfig 接口限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	ConfirmRateLimit RateLimitConfig `mapstructure:"confirm_rate_limit"`
	UploadRateLimit  RateLimitConfig `mapstructure:"upload_rate_limit"`
}

// PricingConfig 加价定价配置
type PricingConfig struct {
	DefaultMarkupPercent float64 `mapstructure:"default_markup_percent"`
	MinMarkupPercent     float64 `mapstructure:"min_markup_percent"`
	MaxMarkupPercent     float64 `mapstructure:"max_markup_percent"`
}

// AllocationConfig 资金分账配置
type AllocationConfig struct {
	ProviderFeePercent        float64 `mapstructure:"provider_fee_percent"`
	OfflinePlatformFeePercent float64 `mapstructure:"offline_platform_fee_percent"`
	OfflineAgentFeePercent    float64 `mapstructure:"offline_agent_fee_percent"`
}

// RefundConfig 退款策略配置
type RefundConfig struct {
	ServiceFeePercent  float64 `mapstructure:"service_fee_percent"`
	CommissionHoldDays int     `mapstructure:"commission_hold_days"`
}

// BookingConfig 预订派发配置
type BookingConfig struct {
	ProviderTimeoutSeconds int `mapstructure:"provider_timeout_seconds"`
	BookTaskDueDays        int `mapstructure:"book_task_due_days"`
	ConfirmationDueDays    int `mapstructure:"confirmation_due_days"`
}

// Load 加载配置（支持环境变量覆盖，前缀 VOYAGO）
func Load() *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/voyago")

	v.SetEnvPrefix("VOYAGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.Warnw("config_file_not_found_use_defaults")
		} else {
			logger.Errorw("config_read_failed", "error", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config unmarshal failed: %v", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "voyago.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "voyago.db")
	v.SetDefault("database.pool.max_open_conns", 20)
	v.SetDefault("database.pool.max_idle_conns", 5)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 1800)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 600)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "vg")

	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)

	v.SetDefault("security.confirm_rate_limit.window_seconds", 60)
	v.SetDefault("security.confirm_rate_limit.max_requests", 10)
	v.SetDefault("security.upload_rate_limit.window_seconds", 60)
	v.SetDefault("security.upload_rate_limit.max_requests", 30)

	v.SetDefault("pricing.default_markup_percent", 15)
	v.SetDefault("pricing.min_markup_percent", 5)
	v.SetDefault("pricing.max_markup_percent", 100)

	v.SetDefault("allocation.provider_fee_percent", 5)
	v.SetDefault("allocation.offline_platform_fee_percent", 8)
	v.SetDefault("allocation.offline_agent_fee_percent", 0)

	v.SetDefault("refund.service_fee_percent", 5)
	v.SetDefault("refund.commission_hold_days", 7)

	v.SetDefault("booking.provider_timeout_seconds", 15)
	v.SetDefault("booking.book_task_due_days", 1)
	v.SetDefault("booking.confirmation_due_days", 2)
}

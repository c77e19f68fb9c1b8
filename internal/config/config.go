package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/bookstore-next/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	UserJWT   JWTConfig       `mapstructure:"user_jwt"`
	AdminJWT  JWTConfig       `mapstructure:"admin_jwt"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Queue     QueueConfig     `mapstructure:"queue"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Security  SecurityConfig  `mapstructure:"security"`
	Checkout  CheckoutConfig  `mapstructure:"checkout"`
	Inventory InventoryConfig `mapstructure:"inventory"`
	Payment   PaymentConfig   `mapstructure:"payment"`
	Shipping  ShippingConfig  `mapstructure:"shipping"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Outbox    OutboxConfig    `mapstructure:"outbox"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host                string `mapstructure:"host"`
	Port                string `mapstructure:"port"`
	Mode                string `mapstructure:"mode"` // debug / release
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
	IdleTimeoutSeconds  int    `mapstructure:"idle_timeout_seconds"`
}

// Addr 监听地址
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// ReadTimeout 读取超时
func (c ServerConfig) ReadTimeout() time.Duration {
	return secondsOrDefault(c.ReadTimeoutSeconds, 15)
}

// WriteTimeout 写超时，需覆盖结算中的支付调用
func (c ServerConfig) WriteTimeout() time.Duration {
	return secondsOrDefault(c.WriteTimeoutSeconds, 30)
}

// IdleTimeout 空闲连接超时
func (c ServerConfig) IdleTimeout() time.Duration {
	return secondsOrDefault(c.IdleTimeoutSeconds, 60)
}

func secondsOrDefault(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
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
		Level:      c.Level,
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

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
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

// SecurityConfig 安全配置
type SecurityConfig struct {
	CheckoutRateLimit RateLimitConfig `mapstructure:"checkout_rate_limit"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// CheckoutConfig 结算配置
type CheckoutConfig struct {
	Currency                  string `mapstructure:"currency"`
	ReservationTTLSeconds     int    `mapstructure:"reservation_ttl_seconds"`
	ReservationSweepSeconds   int    `mapstructure:"reservation_sweep_seconds"`
	ReservationSweepBatchSize int    `mapstructure:"reservation_sweep_batch_size"`
}

// ReservationTTL 库存预占有效期
func (c CheckoutConfig) ReservationTTL() time.Duration {
	if c.ReservationTTLSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.ReservationTTLSeconds) * time.Second
}

// InventoryConfig 库存台账配置
type InventoryConfig struct {
	CASMaxAttempts   int `mapstructure:"cas_max_attempts"`
	CASBackoffMillis int `mapstructure:"cas_backoff_ms"`
	SnapshotTTL      int `mapstructure:"snapshot_ttl_seconds"`
}

// PaymentConfig 支付网关配置
type PaymentConfig struct {
	Provider       string            `mapstructure:"provider"` // mock / http
	TimeoutMillis  int               `mapstructure:"timeout_ms"`
	Mock           MockPaymentConfig `mapstructure:"mock"`
	HTTP           HTTPPaymentConfig `mapstructure:"http"`
	RefundMaxRetry int               `mapstructure:"refund_max_retry"`
}

// Timeout 支付调用超时
func (c PaymentConfig) Timeout() time.Duration {
	if c.TimeoutMillis <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

// MockPaymentConfig 模拟网关配置
type MockPaymentConfig struct {
	DeclineAbove string `mapstructure:"decline_above"` // 超过该金额拒付，空表示不限制
	DeclineToken string `mapstructure:"decline_token"` // 命中该 token 拒付
}

// HTTPPaymentConfig HTTP 网关配置
type HTTPPaymentConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	SecretKey string `mapstructure:"secret_key"`
}

// ShippingConfig 运费配置
type ShippingConfig struct {
	Provider    string                `mapstructure:"provider"` // table / http
	DefaultRate string                `mapstructure:"default_rate"`
	FreeOver    string                `mapstructure:"free_over"` // 全局包邮门槛，空表示不包邮
	Regions     map[string]RegionRate `mapstructure:"regions"`
	HTTP        HTTPShippingConfig    `mapstructure:"http"`
}

// RegionRate 区域运费
type RegionRate struct {
	Rate     string `mapstructure:"rate"`
	FreeOver string `mapstructure:"free_over"`
}

// HTTPShippingConfig 远程运费服务配置
type HTTPShippingConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	TimeoutMillis int    `mapstructure:"timeout_ms"`
}

// KafkaConfig 事件总线配置
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"` // 逗号分隔
}

// OutboxConfig 事件发件箱配置
type OutboxConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalSeconds int  `mapstructure:"interval_seconds"`
	BatchSize       int  `mapstructure:"batch_size"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	return LoadFile("")
}

// LoadFile 从指定文件加载配置，path 为空时按默认路径查找 config.yml
func LoadFile(path string) *Config {
	if path = strings.TrimSpace(path); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("../")
		viper.AddConfigPath("./etc")
	}

	setDefaults(viper.GetViper())

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // checkout.currency -> CHECKOUT_CURRENCY

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.idle_timeout_seconds", 60)
	v.SetDefault("log.level", "")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "bookstore.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/bookstore.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("user_jwt.secret", "user-change-me-in-production")
	v.SetDefault("user_jwt.expire_hours", 24)
	v.SetDefault("admin_jwt.secret", "admin-change-me-in-production")
	v.SetDefault("admin_jwt.expire_hours", 12)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "bk")
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Accept-Language",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.checkout_rate_limit.window_seconds", 60)
	v.SetDefault("security.checkout_rate_limit.max_requests", 10)
	v.SetDefault("checkout.currency", "USD")
	v.SetDefault("checkout.reservation_ttl_seconds", 600)
	v.SetDefault("checkout.reservation_sweep_seconds", 60)
	v.SetDefault("checkout.reservation_sweep_batch_size", 100)
	v.SetDefault("inventory.cas_max_attempts", 3)
	v.SetDefault("inventory.cas_backoff_ms", 5)
	v.SetDefault("inventory.snapshot_ttl_seconds", 30)
	v.SetDefault("payment.provider", "mock")
	v.SetDefault("payment.timeout_ms", 10000)
	v.SetDefault("payment.mock.decline_above", "")
	v.SetDefault("payment.mock.decline_token", "tok_decline")
	v.SetDefault("payment.http.base_url", "")
	v.SetDefault("payment.http.secret_key", "")
	v.SetDefault("payment.refund_max_retry", 10)
	v.SetDefault("shipping.provider", "table")
	v.SetDefault("shipping.default_rate", "5.99")
	v.SetDefault("shipping.free_over", "")
	v.SetDefault("shipping.http.base_url", "")
	v.SetDefault("shipping.http.api_key", "")
	v.SetDefault("shipping.http.timeout_ms", 3000)
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("outbox.enabled", false)
	v.SetDefault("outbox.interval_seconds", 2)
	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

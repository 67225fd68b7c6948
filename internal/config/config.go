package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	IGDB     IGDBConfig     `mapstructure:"igdb"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Tasks    TasksConfig    `mapstructure:"tasks"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug / release / test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // postgres / sqlite
	DSN          string `mapstructure:"dsn"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	LogLevel     string `mapstructure:"log_level"` // silent / error / warn / info
}

// IGDBConfig 上游目录与凭证配置
type IGDBConfig struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	BaseURL      string        `mapstructure:"base_url"`
	TokenURL     string        `mapstructure:"token_url"`
	ProxyURL     string        `mapstructure:"proxy_url"`
	PageSize     int           `mapstructure:"page_size"`
	RequestDelay time.Duration `mapstructure:"request_delay"`
	RatePerSec   float64       `mapstructure:"rate_per_second"`
	Timeout      time.Duration `mapstructure:"timeout"`

	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

type SyncConfig struct {
	SubBatchSize      int           `mapstructure:"sub_batch_size"`
	UpdateConcurrency int           `mapstructure:"update_concurrency"`
	LockTTL           time.Duration `mapstructure:"lock_ttl"`
	Cooldown          time.Duration `mapstructure:"cooldown"`
	MaxWarnings       int           `mapstructure:"max_warnings"`
}

type TasksConfig struct {
	CatalogEnabled  bool   `mapstructure:"catalog_enabled"`
	CatalogSchedule string `mapstructure:"catalog_schedule"`
	TokenEnabled    bool   `mapstructure:"token_enabled"`
	TokenSchedule   string `mapstructure:"token_schedule"`
}

// RedisConfig Addr 为空时使用进程内锁
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Encoding    string `mapstructure:"encoding"`
	Development bool   `mapstructure:"development"`
}

// ==================== 限值 ====================

const (
	MaxPageSize     = 500
	MinRequestDelay = 250 * time.Millisecond
	MaxSubBatchSize = 100
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=igdb_mirror port=5432 sslmode=disable TimeZone=UTC")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("igdb.client_id", "")
	v.SetDefault("igdb.client_secret", "")
	v.SetDefault("igdb.proxy_url", "")
	v.SetDefault("igdb.base_url", "https://api.igdb.com/v4")
	v.SetDefault("igdb.token_url", "https://id.twitch.tv/oauth2/token")
	v.SetDefault("igdb.page_size", MaxPageSize)
	v.SetDefault("igdb.request_delay", MinRequestDelay)
	v.SetDefault("igdb.rate_per_second", 4.0)
	v.SetDefault("igdb.timeout", 30*time.Second)
	v.SetDefault("igdb.breaker_failures", 5)
	v.SetDefault("igdb.breaker_timeout", time.Minute)

	v.SetDefault("sync.sub_batch_size", MaxSubBatchSize)
	v.SetDefault("sync.update_concurrency", 4)
	v.SetDefault("sync.lock_ttl", 30*time.Minute)
	v.SetDefault("sync.cooldown", time.Minute)
	v.SetDefault("sync.max_warnings", 20)

	v.SetDefault("tasks.catalog_enabled", true)
	v.SetDefault("tasks.catalog_schedule", "0 0 3 * * *") // 每天 03:00
	v.SetDefault("tasks.token_enabled", true)
	v.SetDefault("tasks.token_schedule", "0 */30 * * * *")

	// 无默认值的 key 也需注册，AutomaticEnv 才能在 Unmarshal 时生效
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "igdb-mirror")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
}

// Load 加载配置
// 优先级：环境变量 > 配置文件 > 默认值；path 为空时只读环境变量
// 环境变量名为 key 大写并以 _ 连接，如 IGDB_CLIENT_ID、SYNC_SUB_BATCH_SIZE
func Load(path string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

// normalize 把超出上游限制的值收敛到合法范围
func (c *Config) normalize() {
	if c.IGDB.PageSize <= 0 || c.IGDB.PageSize > MaxPageSize {
		c.IGDB.PageSize = MaxPageSize
	}
	if c.IGDB.RequestDelay < MinRequestDelay {
		c.IGDB.RequestDelay = MinRequestDelay
	}
	if c.Sync.SubBatchSize <= 0 || c.Sync.SubBatchSize > MaxSubBatchSize {
		c.Sync.SubBatchSize = MaxSubBatchSize
	}
	if c.Sync.UpdateConcurrency <= 0 {
		c.Sync.UpdateConcurrency = 1
	}
	c.IGDB.BaseURL = strings.TrimRight(c.IGDB.BaseURL, "/")
}

// HasCredentials 是否配置了上游凭证
func (c IGDBConfig) HasCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

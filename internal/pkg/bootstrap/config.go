// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"context"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"storefront/internal/pkg/logger"
)

const defaultConfigPath = "configs/config.yaml"

// Config 是所有服务共享的配置结构，对应 configs/config.yaml。
type Config struct {
	App      AppConfig      `yaml:"app"`
	Infra    InfraConfig    `yaml:"infra"`
	Currency CurrencyConfig `yaml:"currency"`
	Reward   RewardConfig   `yaml:"reward"`
	Cart     CartConfig     `yaml:"cart"`
}

type AppConfig struct {
	Name   string `yaml:"name"`
	Port   int    `yaml:"port"`
	Locale string `yaml:"locale"` // 例如 "en-US"，用于金额格式化
}

type InfraConfig struct {
	Jaeger struct {
		Endpoint string `yaml:"endpoint"` // 为空时不上报 trace
	} `yaml:"jaeger"`
	Nacos struct {
		Enabled   bool   `yaml:"enabled"`
		Addrs     string `yaml:"addrs"` // "ip1:port1,ip2:port2"
		Namespace string `yaml:"namespace"`
		Group     string `yaml:"group"`
	} `yaml:"nacos"`
	Redis struct {
		Enabled bool   `yaml:"enabled"`
		Addrs   string `yaml:"addrs"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled   bool     `yaml:"enabled"`
		Brokers   []string `yaml:"brokers"`
		CartTopic string   `yaml:"cart_topic"`
	} `yaml:"kafka"`
	MySQL struct {
		Enabled bool   `yaml:"enabled"`
		DSN     string `yaml:"dsn"`
	} `yaml:"mysql"`
}

// EndpointConfig 描述一个下游 HTTP 接口。
// Service 不为空且启用了 Nacos 时通过服务发现解析，否则直接使用 URL。
type EndpointConfig struct {
	URL     string        `yaml:"url"`
	Service string        `yaml:"service"`
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
}

type CurrencyConfig struct {
	TTL      time.Duration  `yaml:"ttl"`
	Provider EndpointConfig `yaml:"provider"`
	// RedisTTL 是共享汇率缓存在 Redis 中的存活时间
	RedisTTL time.Duration `yaml:"redis_ttl"`
}

type RewardConfig struct {
	DefaultPercentage float64        `yaml:"default_percentage"`
	CoolingOffDays    map[string]int `yaml:"cooling_off_days"`
	Lookup            EndpointConfig `yaml:"lookup"`
	LookupConcurrency int            `yaml:"lookup_concurrency"`
	Rules             []RewardRule   `yaml:"rules"`
}

// RewardRule 是本地奖励比例覆盖规则，When 为 CEL 表达式。
type RewardRule struct {
	Name       string  `yaml:"name"`
	When       string  `yaml:"when"`
	Percentage float64 `yaml:"percentage"`
}

type CartConfig struct {
	// IdleTTL 之后内存中的购物车被淘汰，下次访问时从仓储重新加载
	IdleTTL time.Duration `yaml:"idle_ttl"`
}

var currentConfig atomic.Pointer[Config]

// DefaultConfig 返回不依赖任何外部设施即可运行的默认配置。
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = "valuation-service"
	cfg.App.Port = 8090
	cfg.App.Locale = "en-US"
	cfg.Infra.Nacos.Addrs = "localhost:8848"
	cfg.Infra.Nacos.Group = "DEFAULT_GROUP"
	cfg.Infra.Redis.Addrs = "localhost:6379"
	cfg.Infra.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Infra.Kafka.CartTopic = "cart-events"
	cfg.Currency.TTL = time.Hour
	cfg.Currency.RedisTTL = 10 * time.Minute
	cfg.Currency.Provider.Timeout = 5 * time.Second
	cfg.Reward.DefaultPercentage = 3
	cfg.Reward.CoolingOffDays = map[string]int{"instant": 0, "deferred": 45, "standard": 3}
	cfg.Reward.Lookup.Timeout = 2 * time.Second
	cfg.Reward.LookupConcurrency = 8
	cfg.Cart.IdleTTL = 30 * time.Minute
	return cfg
}

// LoadConfig 从 YAML 文件加载配置，未出现的字段保留默认值。
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides 允许通过环境变量覆盖基础设施地址，便于容器部署。
func applyEnvOverrides(cfg *Config) {
	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Infra.Jaeger.Endpoint)
	cfg.Infra.Nacos.Addrs = getEnv("NACOS_SERVER_ADDRS", cfg.Infra.Nacos.Addrs)
	cfg.Infra.Nacos.Namespace = getEnv("NACOS_NAMESPACE", cfg.Infra.Nacos.Namespace)
	cfg.Infra.Nacos.Group = getEnv("NACOS_GROUP", cfg.Infra.Nacos.Group)
	cfg.Infra.Redis.Addrs = getEnv("REDIS_ADDRS", cfg.Infra.Redis.Addrs)
	cfg.Infra.MySQL.DSN = getEnv("MYSQL_DSN", cfg.Infra.MySQL.DSN)
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.Infra.Kafka.Brokers = strings.Split(brokers, ",")
	}
	cfg.Currency.Provider.URL = getEnv("RATE_PROVIDER_URL", cfg.Currency.Provider.URL)
	cfg.Reward.Lookup.URL = getEnv("REWARD_LOOKUP_URL", cfg.Reward.Lookup.URL)
}

// Init 加载配置文件。文件不存在时使用默认配置，服务依然可以启动。
func Init() {
	path := getEnv("CONFIG_PATH", defaultConfigPath)
	cfg, err := LoadConfig(path)
	if err != nil {
		logger.Ctx(context.Background()).Warn().Err(err).Msg("config file not loaded, using defaults")
		cfg = DefaultConfig()
		applyEnvOverrides(cfg)
	}
	currentConfig.Store(cfg)
}

// GetCurrentConfig 返回当前生效的配置，未初始化时返回默认配置。
func GetCurrentConfig() *Config {
	if cfg := currentConfig.Load(); cfg != nil {
		return cfg
	}
	return DefaultConfig()
}

// getEnv 是一个内部辅助函数，从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

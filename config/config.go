package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Log       LogConfig       `mapstructure:"log"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Credits   CreditsConfig   `mapstructure:"credits"`
	Tasks     TasksConfig     `mapstructure:"tasks"`
	Payment   PaymentConfig   `mapstructure:"payment"`
	Rates     RatesConfig     `mapstructure:"rates"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Upload    UploadConfig    `mapstructure:"upload"`
	OSS       OSSConfig       `mapstructure:"oss"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql, sqlite
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SQLitePath   string `mapstructure:"sqlite_path"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`       // debug, info, warn, error
	Development bool   `mapstructure:"development"` // console 输出
}

// LLMConfig 文本生成服务（OpenAI 兼容接口）
type LLMConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	Model          string  `mapstructure:"model"`
	Temperature    float32 `mapstructure:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

type CreditsConfig struct {
	PremiumMonthly int    `mapstructure:"premium_monthly"` // 高级会员每月额度
	ResetCron      string `mapstructure:"reset_cron"`
}

type TasksConfig struct {
	FreeKinds []string `mapstructure:"free_kinds"` // 不经过额度校验的任务类型
}

type PaymentConfig struct {
	IntentTTLMinutes int                       `mapstructure:"intent_ttl_minutes"`
	QRCodeBaseURL    string                    `mapstructure:"qr_code_base_url"`
	Plans            map[string]PlanConfig     `mapstructure:"plans"`
	Currencies       map[string]CurrencyConfig `mapstructure:"currencies"`
}

type PlanConfig struct {
	PriceUSD     float64 `mapstructure:"price_usd"`
	DurationDays int     `mapstructure:"duration_days"`
}

type CurrencyConfig struct {
	Address string  `mapstructure:"address"`
	Network string  `mapstructure:"network"`
	Chain   string  `mapstructure:"chain"` // btc, evm, tron
	RateUSD float64 `mapstructure:"rate_usd"`
	FeedID  string  `mapstructure:"feed_id"` // 行情源中的币种 ID
}

// RatesConfig 实时汇率（可选），feed_url 为空时只使用静态汇率
type RatesConfig struct {
	FeedURL         string  `mapstructure:"feed_url"`
	CacheTTLSeconds int     `mapstructure:"cache_ttl_seconds"`
	RequestsPerSec  float64 `mapstructure:"requests_per_sec"`
	Retries         int     `mapstructure:"retries"`
	TimeoutSeconds  int     `mapstructure:"timeout_seconds"`
}

type RateLimitConfig struct {
	TasksPerMinute int `mapstructure:"tasks_per_minute"`
	Burst          int `mapstructure:"burst"`
}

type UploadConfig struct {
	MaxSize           int64    `mapstructure:"max_size"`           // 最大文件大小（字节）
	TempDir           string   `mapstructure:"temp_dir"`           // 临时目录
	ExpireHours       int      `mapstructure:"expire_hours"`       // 过期时间（小时）
	AllowedExtensions []string `mapstructure:"allowed_extensions"` // 允许的扩展名
	MaxContentChars   int      `mapstructure:"max_content_chars"`  // 返回给前端的正文长度
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

// Default 返回带默认值的配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080, Mode: "debug"},
		Database: DatabaseConfig{
			Driver:       "mysql",
			Port:         3306,
			SQLitePath:   "prep.db",
			MaxIdleConns: 10,
			MaxOpenConns: 50,
		},
		Redis: RedisConfig{Host: "127.0.0.1", Port: 6379, PoolSize: 10},
		JWT:   JWTConfig{ExpireHours: 72},
		CORS: CORSConfig{
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Origin", "Content-Type", "Authorization"},
		},
		Log: LogConfig{Level: "info"},
		LLM: LLMConfig{
			Model:          "gpt-4o",
			Temperature:    0.7,
			MaxTokens:      4000,
			TimeoutSeconds: 120,
		},
		Credits: CreditsConfig{PremiumMonthly: 50, ResetCron: "0 0 1 * *"},
		Payment: PaymentConfig{
			IntentTTLMinutes: 30,
			QRCodeBaseURL:    "https://api.qrserver.com/v1/create-qr-code/?size=300x300&data=",
			Plans: map[string]PlanConfig{
				"monthly": {PriceUSD: 29.99, DurationDays: 30},
				"yearly":  {PriceUSD: 299.99, DurationDays: 365},
			},
			Currencies: map[string]CurrencyConfig{
				"BTC":        {Address: "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh", Network: "Bitcoin (BTC)", Chain: "btc", RateUSD: 43000, FeedID: "bitcoin"},
				"ETH":        {Address: "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb", Network: "Ethereum (ERC20)", Chain: "evm", RateUSD: 2300, FeedID: "ethereum"},
				"BNB":        {Address: "bnb1grpf0955h0ykzq3ar5nmum7y6gdfl6lxfn46h2", Network: "BNB Smart Chain (BEP20)", Chain: "evm", RateUSD: 310, FeedID: "binancecoin"},
				"USDT":       {Address: "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb", Network: "Ethereum (ERC20) / BSC (BEP20)", Chain: "evm", RateUSD: 1},
				"USDT-TRC20": {Address: "TGe2KwSvygmxwh1z61GCuCRnNGebn3gk99", Network: "TRON (TRC20)", Chain: "tron", RateUSD: 1},
				"USDC":       {Address: "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb", Network: "Ethereum (ERC20)", Chain: "evm", RateUSD: 1},
			},
		},
		Rates: RatesConfig{
			CacheTTLSeconds: 300,
			RequestsPerSec:  1,
			Retries:         3,
			TimeoutSeconds:  10,
		},
		RateLimit: RateLimitConfig{TasksPerMinute: 10, Burst: 5},
		Upload: UploadConfig{
			MaxSize:           5 << 20,
			TempDir:           filepath.Join(os.TempDir(), "prep_uploads"),
			ExpireHours:       24,
			AllowedExtensions: []string{".txt", ".md", ".csv", ".html"},
			MaxContentChars:   10000,
		},
	}
}

func Load(configPath string) (*Config, error) {
	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PlanNames 返回已配置的套餐名
func (c *Config) PlanNames() []string {
	names := make([]string, 0, len(c.Payment.Plans))
	for name := range c.Payment.Plans {
		names = append(names, name)
	}
	return names
}

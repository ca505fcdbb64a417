package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-mem-account/pkg/logger"
)

// LedgerMode 帳本的同步方式
const (
	LedgerModeMutex  = "mutex"
	LedgerModeSerial = "serial"
)

// Config 服務設定
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Account   AccountConfig   `yaml:"account"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       logger.Config   `yaml:"log"`
}

type ServerConfig struct {
	GRPCAddr    string `yaml:"grpc_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
}

type AccountConfig struct {
	StartingBalance int64 `yaml:"starting_balance"`
}

type LedgerConfig struct {
	Mode        string `yaml:"mode"`         // "mutex" 或 "serial"
	JournalPath string `yaml:"journal_path"` // 空字串表示不寫日誌
	QueueSize   int    `yaml:"queue_size"`   // serial 模式的 channel buffer
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"` // 0 表示不限流
	Burst int     `yaml:"burst"`
}

// Load 讀取 YAML 設定檔，補上預設值並套用環境變數
//
// 參數:
//
//	path: 設定檔路徑
//
// 回傳:
//
//	*Config: 設定
//	error: 讀取、解析或驗證錯誤
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse 解析 YAML 內容
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 回傳全部使用預設值的設定 (仍會套用環境變數)
func Default() (*Config, error) {
	return Parse(nil)
}

// LoadEnvFile 載入 .env 檔到環境變數，檔案不存在時忽略
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.GRPCAddr == "" {
		c.Server.GRPCAddr = ":50051"
	}
	if c.Server.MetricsAddr == "" {
		c.Server.MetricsAddr = ":9090"
	}
	if c.Ledger.Mode == "" {
		c.Ledger.Mode = LedgerModeMutex
	}
	if c.Ledger.QueueSize == 0 {
		c.Ledger.QueueSize = 1000
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 10 * time.Minute
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = int(c.RateLimit.RPS)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// applyEnv 環境變數優先於設定檔
func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("ACCOUNT_GRPC_ADDR"); ok {
		c.Server.GRPCAddr = v
	}
	if v, ok := os.LookupEnv("ACCOUNT_METRICS_ADDR"); ok {
		c.Server.MetricsAddr = v
	}
	if v, ok := os.LookupEnv("ACCOUNT_STARTING_BALANCE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("ACCOUNT_STARTING_BALANCE: %w", err)
		}
		c.Account.StartingBalance = n
	}
	if v, ok := os.LookupEnv("ACCOUNT_REDIS_ADDR"); ok {
		c.Redis.Addr = v
		c.Redis.Enabled = v != ""
	}
	if v, ok := os.LookupEnv("ACCOUNT_REDIS_PASSWORD"); ok {
		c.Redis.Password = v
	}
	if v, ok := os.LookupEnv("ACCOUNT_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	return nil
}

// Validate 檢查設定值
func (c *Config) Validate() error {
	switch c.Ledger.Mode {
	case LedgerModeMutex, LedgerModeSerial:
	default:
		return fmt.Errorf("ledger.mode: unknown mode %q", c.Ledger.Mode)
	}
	if c.Ledger.QueueSize < 0 {
		return errors.New("ledger.queue_size: must not be negative")
	}
	if c.RateLimit.RPS < 0 {
		return errors.New("rate_limit.rps: must not be negative")
	}
	return nil
}

package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	GPM     GPMConfig     `yaml:"gpm"`
	Proxy   ProxyConfig   `yaml:"proxy"`
	Limits  LimitsConfig  `yaml:"limits"`
	Flow    FlowConfig    `yaml:"flow"`
}

type ServerConfig struct {
	Addr string     `yaml:"addr"`
	Cors CorsConfig `yaml:"cors"`
}

type CorsConfig struct {
	AllowOrigins     []string `yaml:"allowOrigins"`
	AllowCredentials bool     `yaml:"allowCredentials"`
}

type StorageConfig struct {
	SQLitePath      string `yaml:"sqlitePath"`
	PortCounterPath string `yaml:"portCounterPath"`
	ExportCSVPath   string `yaml:"exportCsvPath"`
}

// GPMConfig 对应本机的 GPM 指纹浏览器服务。
// mode=local 时不走 GPM，直接用本地无头浏览器（开发调试用）。
type GPMConfig struct {
	BaseURL       string `yaml:"baseURL"`
	Mode          string `yaml:"mode"`
	TimeoutMs     int    `yaml:"timeoutMs"`
	RetryCount    int    `yaml:"retryCount"`
	SettleDelayMs int    `yaml:"settleDelayMs"`
	WinWidth      int    `yaml:"winWidth"`
	WinHeight     int    `yaml:"winHeight"`
	WinX          int    `yaml:"winX"`
	WinY          int    `yaml:"winY"`
	QPS           float64 `yaml:"qps"`
	Burst         int     `yaml:"burst"`
}

func (c GPMConfig) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// SettleDelay 是 profile 启动后到 CDP 连接前的固定等待。
// GPM 返回 remote_debugging_address 时浏览器往往还没就绪，直连会报 ECONNREFUSED。
func (c GPMConfig) SettleDelay() time.Duration {
	if c.SettleDelayMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.SettleDelayMs) * time.Millisecond
}

type ProxyConfig struct {
	BaseURL       string `yaml:"baseURL"`
	Country       string `yaml:"country"`
	Protocol      string `yaml:"protocol"`
	TimeoutMs     int    `yaml:"timeoutMs"`
	LocalPortBase int    `yaml:"localPortBase"`
}

func (c ProxyConfig) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

type LimitsConfig struct {
	// MaxWorkers 是所有动作共享的任务并发上限（唯一的全局并发约束）。
	MaxWorkers int `yaml:"maxWorkers"`
}

type FlowConfig struct {
	BaseURL           string `yaml:"baseURL"`
	SelectorTimeoutMs int    `yaml:"selectorTimeoutMs"`
	DetectTimeoutMs   int    `yaml:"detectTimeoutMs"`
	DetectIdleLimit   int    `yaml:"detectIdleLimit"`
	DetectGraceMs     int    `yaml:"detectGraceMs"`
	SurveyMaxSteps    int    `yaml:"surveyMaxSteps"`
	SurveyIdleLimit   int    `yaml:"surveyIdleLimit"`
	PopupBudgetMs     int    `yaml:"popupBudgetMs"`
	// FastDelays 置 true 时把所有拟人延迟压到接近零（只用于本地联调，线上千万别开）。
	FastDelays bool `yaml:"fastDelays"`
}

func (c FlowConfig) SelectorTimeout() time.Duration {
	if c.SelectorTimeoutMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.SelectorTimeoutMs) * time.Millisecond
}

func (c FlowConfig) DetectTimeout() time.Duration {
	if c.DetectTimeoutMs <= 0 {
		return 180 * time.Second
	}
	return time.Duration(c.DetectTimeoutMs) * time.Millisecond
}

func (c FlowConfig) DetectGrace() time.Duration {
	if c.DetectGraceMs <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.DetectGraceMs) * time.Millisecond
}

func (c FlowConfig) PopupBudget() time.Duration {
	if c.PopupBudgetMs <= 0 {
		return 8 * time.Second
	}
	return time.Duration(c.PopupBudgetMs) * time.Millisecond
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8090"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "./data/accounts.db"
	}
	if c.Storage.PortCounterPath == "" {
		c.Storage.PortCounterPath = "./data/port_counter"
	}
	if c.Storage.ExportCSVPath == "" {
		c.Storage.ExportCSVPath = "./data/registered_accounts.csv"
	}
	if c.GPM.BaseURL == "" {
		c.GPM.BaseURL = "http://127.0.0.1:19995"
	}
	if c.GPM.Mode == "" {
		c.GPM.Mode = "gpm"
	}
	if c.GPM.WinWidth <= 0 {
		c.GPM.WinWidth = 925
	}
	if c.GPM.WinHeight <= 0 {
		c.GPM.WinHeight = 925
	}
	if c.GPM.WinX <= 0 {
		c.GPM.WinX = 100
	}
	if c.GPM.WinY <= 0 {
		c.GPM.WinY = 100
	}
	if c.GPM.QPS <= 0 {
		c.GPM.QPS = 2
	}
	if c.GPM.Burst <= 0 {
		c.GPM.Burst = 4
	}
	if c.Proxy.BaseURL == "" {
		c.Proxy.BaseURL = "http://127.0.0.1:10101"
	}
	if c.Proxy.Country == "" {
		c.Proxy.Country = "US"
	}
	if c.Proxy.Protocol == "" {
		c.Proxy.Protocol = "socks5"
	}
	if c.Proxy.LocalPortBase <= 0 {
		c.Proxy.LocalPortBase = 40000
	}
	if c.Limits.MaxWorkers <= 0 {
		c.Limits.MaxWorkers = 5
	}
	if c.Flow.BaseURL == "" {
		c.Flow.BaseURL = "https://www.printful.com"
	}
	if c.Flow.DetectIdleLimit <= 0 {
		c.Flow.DetectIdleLimit = 15
	}
	if c.Flow.SurveyMaxSteps <= 0 {
		c.Flow.SurveyMaxSteps = 50
	}
	if c.Flow.SurveyIdleLimit <= 0 {
		c.Flow.SurveyIdleLimit = 15
	}
}

func (c Config) validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.GPM.Mode != "gpm" && c.GPM.Mode != "local" {
		return errors.New("gpm.mode must be gpm or local")
	}
	if c.Flow.BaseURL == "" {
		return errors.New("flow.baseURL is required")
	}
	return nil
}

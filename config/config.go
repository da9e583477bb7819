package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
		Mode string `yaml:"mode"` // debug / release
	} `yaml:"server"`
	MySQL struct {
		DSN string `yaml:"dsn"`
	} `yaml:"mysql"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
	} `yaml:"redis"`
	MinIO struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		UseSSL    bool   `yaml:"use_ssl"`
	} `yaml:"minio"`
	AI struct {
		TextAPI    string `yaml:"text_api"`
		TextKey    string `yaml:"text_key"`
		TextModel  string `yaml:"text_model"`
		ImageAPI   string `yaml:"image_api"`
		ImageModel string `yaml:"image_model"`
		VoiceAPI   string `yaml:"voice_api"`
		VoiceKey   string `yaml:"voice_key"`
		StockAPI   string `yaml:"stock_api"`
		StockKey   string `yaml:"stock_key"`
	} `yaml:"ai"`
	Limits struct {
		WindowSeconds int `yaml:"window_seconds"` // 通用限流窗口
		MaxRequests   int `yaml:"max_requests"`
		AIPerMinute   int `yaml:"ai_per_minute"` // AI 接口单独的每分钟上限
	} `yaml:"limits"`
	Render struct {
		SimulatedSeconds int `yaml:"simulated_seconds"` // 模拟渲染耗时
		Concurrency      int `yaml:"concurrency"`
	} `yaml:"render"`
}

// LoadConfig 读取并解析 YAML 配置，由 main 调用后显式注入各组件
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("配置文件读取失败: %w", err)
	}
	defer f.Close()

	cfg := &Config{}
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("配置文件解析失败: %w", err)
	}

	// 缺省值
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Limits.WindowSeconds <= 0 {
		cfg.Limits.WindowSeconds = 15 * 60
	}
	if cfg.Limits.MaxRequests <= 0 {
		cfg.Limits.MaxRequests = 100
	}
	if cfg.Limits.AIPerMinute <= 0 {
		cfg.Limits.AIPerMinute = 10
	}
	if cfg.Render.SimulatedSeconds <= 0 {
		cfg.Render.SimulatedSeconds = 5
	}
	if cfg.Render.Concurrency <= 0 {
		cfg.Render.Concurrency = 5
	}
	return cfg, nil
}

// RenderDelay 模拟渲染的等待时长
func (c *Config) RenderDelay() time.Duration {
	return time.Duration(c.Render.SimulatedSeconds) * time.Second
}

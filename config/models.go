package config

import "time"

// ModelConfigEntry represents the configuration for a single model.
type ModelConfigEntry struct {
	Size int `mapstructure:"size"`
}

// CacheConfig selects where whole-call replies are remembered.
type CacheConfig struct {
	Backend   string        `mapstructure:"backend"` // file, redis or none
	Dir       string        `mapstructure:"dir"`
	RedisAddr string        `mapstructure:"redis_addr"`
	TTL       time.Duration `mapstructure:"ttl"` // 0 keeps entries forever
}

// Config holds the agent server configuration.
type Config struct {
	ListenAddress   string                      `mapstructure:"listen_address"`
	APIRoot         string                      `mapstructure:"api_root"`
	APIKey          string                      `mapstructure:"api_key"`
	DefaultModel    string                      `mapstructure:"default_model"`
	DefaultSize     int                         `mapstructure:"default_size"`
	QueueTimeout    time.Duration               `mapstructure:"queue_timeout"`
	UpstreamTimeout time.Duration               `mapstructure:"upstream_timeout"`
	LogLevel        string                      `mapstructure:"log_level"`
	CORSOrigins     []string                    `mapstructure:"cors_origins"`
	Models          map[string]ModelConfigEntry `mapstructure:"models"`
	Cache           CacheConfig                 `mapstructure:"cache"`
}

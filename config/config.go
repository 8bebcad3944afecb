package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultListenAddress = "0.0.0.0:8889"
	DefaultModel         = "gpt-4-turbo-preview"
	defaultModelSize     = 10
)

// The global, read-only config variable.
var (
	cfg  *Config
	once sync.Once
)

// LoadConfig reads the config file, parses it, and initializes the global cfg variable.
// It ensures that the configuration is set only once.
func LoadConfig(v *viper.Viper, configFile string) (*Config, error) {
	var err error
	once.Do(func() {
		var configuration *Config
		configuration, err = Load(v, configFile)
		if err != nil {
			return
		}
		cfg = configuration
	})

	if err != nil {
		return nil, err
	}

	if cfg == nil {
		return nil, errors.New("configuration was not set")
	}

	return cfg, nil
}

// Load builds a Config from defaults, an optional YAML file, the environment
// (RUNAGENT_* plus OPENAI_API_KEY, .env included) and whatever flags were
// bound to v.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	// A missing .env is fine.
	_ = godotenv.Load()

	setDefaults(v)
	v.SetEnvPrefix("RUNAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api_key", "RUNAGENT_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("binding api_key: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")

		// Read in the config file
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal the config into the Config struct
	var configuration Config
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	listen, err := listenAddress(v, configuration.ListenAddress)
	if err != nil {
		return nil, err
	}
	configuration.ListenAddress = listen

	if err := validate(&configuration); err != nil {
		return nil, err
	}

	return &configuration, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_address", DefaultListenAddress)
	v.SetDefault("api_root", "https://api.openai.com/v1")
	v.SetDefault("default_model", DefaultModel)
	v.SetDefault("default_size", 100)
	v.SetDefault("queue_timeout", 75*time.Second)
	v.SetDefault("upstream_timeout", 10*time.Minute)
	v.SetDefault("log_level", "debug")
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("models", map[string]ModelConfigEntry{})
	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.dir", "./agent_cache")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.ttl", time.Duration(0))
}

// listenAddress applies the --host and --port flags on top of listen_address.
func listenAddress(v *viper.Viper, configured string) (string, error) {
	host, port, err := net.SplitHostPort(configured)
	if err != nil {
		return "", fmt.Errorf("invalid listen_address %q: %w", configured, err)
	}
	if h := v.GetString("host"); h != "" {
		host = h
	}
	if p := v.GetInt("port"); p != 0 {
		port = strconv.Itoa(p)
	}
	return net.JoinHostPort(host, port), nil
}

func validate(c *Config) error {
	if c.APIRoot == "" {
		return errors.New("api_root is required")
	}
	if c.DefaultModel == "" {
		c.DefaultModel = DefaultModel
	}
	if c.DefaultSize <= 0 {
		return fmt.Errorf("default_size must be positive, got %d", c.DefaultSize)
	}
	if c.Models == nil {
		c.Models = map[string]ModelConfigEntry{}
	}
	for name, entry := range c.Models {
		if entry.Size <= 0 {
			log.Warnf("Model '%s' has invalid size %d. Setting to default size %d.", name, entry.Size, defaultModelSize)
			entry.Size = defaultModelSize
			c.Models[name] = entry
		}
	}

	switch c.Cache.Backend {
	case "file", "redis", "none":
	case "":
		c.Cache.Backend = "none"
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative, got %s", c.Cache.TTL)
	}
	return nil
}

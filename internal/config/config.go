package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// NetworkConfig is one RPC endpoint in the ordered fallback list. Order in
// the config file is the probe order.
type NetworkConfig struct {
	Name       string `yaml:"name"`
	URL        string `yaml:"url"`
	Commitment string `yaml:"commitment"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type ClientConfig struct {
	RequestTimeout          time.Duration   `yaml:"request_timeout"`
	MaxRetries              int             `yaml:"max_retries"`
	RetryDelay              time.Duration   `yaml:"retry_delay"`
	AccountFetchConcurrency int             `yaml:"account_fetch_concurrency"`
	RateLimit               RateLimitConfig `yaml:"rate_limit"`
}

type SchemaConfig struct {
	Dir        string `yaml:"dir"`
	LabelsFile string `yaml:"labels_file"`
}

type CacheConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Directory string `yaml:"directory"`
}

type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type Config struct {
	Networks []NetworkConfig `yaml:"networks"`
	Client   ClientConfig    `yaml:"client"`
	Schema   SchemaConfig    `yaml:"schema"`
	Cache    CacheConfig     `yaml:"cache"`
	NATS     NATSConfig      `yaml:"nats"`
}

// Default returns the configuration used when no config file is present:
// the well-known public endpoints in fallback order.
func Default() *Config {
	cfg := &Config{
		Networks: []NetworkConfig{
			{Name: "mainnet-beta", URL: "https://api.mainnet-beta.solana.com"},
			{Name: "devnet", URL: "https://api.devnet.solana.com"},
			{Name: "testnet", URL: "https://api.testnet.solana.com"},
		},
	}
	cfg.fillDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	config.fillDefaults()

	if len(config.Networks) == 0 {
		return nil, fmt.Errorf("config %s declares no networks", path)
	}
	for i, n := range config.Networks {
		if n.URL == "" {
			return nil, fmt.Errorf("network %q (index %d) has no url", n.Name, i)
		}
	}
	return &config, nil
}

func (c *Config) fillDefaults() {
	if c.Client.RequestTimeout == 0 {
		c.Client.RequestTimeout = 30 * time.Second
	}
	if c.Client.MaxRetries == 0 {
		c.Client.MaxRetries = 3
	}
	if c.Client.RetryDelay == 0 {
		c.Client.RetryDelay = time.Second
	}
	if c.Client.AccountFetchConcurrency == 0 {
		c.Client.AccountFetchConcurrency = 4
	}
	if c.Client.RateLimit.RequestsPerSecond == 0 {
		c.Client.RateLimit.RequestsPerSecond = 10
	}
	if c.Client.RateLimit.BurstSize == 0 {
		c.Client.RateLimit.BurstSize = 20
	}
	if c.Schema.Dir == "" {
		c.Schema.Dir = "schemas"
	}
	if c.Cache.Directory == "" {
		c.Cache.Directory = ".soltrace/cache"
	}
	if c.NATS.URL == "" {
		c.NATS.URL = "nats://127.0.0.1:4222"
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = "soltrace.trace"
	}
	for i := range c.Networks {
		if c.Networks[i].Commitment == "" {
			c.Networks[i].Commitment = "confirmed"
		}
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/fanpei91/hostsed/system"
)

const (
	ResolverAuto  = "auto"
	ResolverHTTPS = "https"
	ResolverUDP   = "udp"
	ResolverChain = "chain"
)

type Config struct {
	HostsPath      string        `env:"HOSTSED_HOSTS"`
	LookupEndpoint string        `env:"HOSTSED_LOOKUP_ENDPOINT"`
	Resolver       string        `env:"HOSTSED_RESOLVER" envDefault:"auto"`
	DNSUpstream    string        `env:"HOSTSED_DNS_UPSTREAM" envDefault:"1.1.1.1:53"`
	Timeout        time.Duration `env:"HOSTSED_TIMEOUT" envDefault:"10s"`
	CacheTTL       time.Duration `env:"HOSTSED_CACHE_TTL" envDefault:"1m"`
	RateLimit      float64       `env:"HOSTSED_RATE_LIMIT" envDefault:"10"`
	Debounce       time.Duration `env:"HOSTSED_DEBOUNCE" envDefault:"250ms"`
	LogLevel       string        `env:"HOSTSED_LOG_LEVEL" envDefault:"INFO"`
	LogFile        string        `env:"HOSTSED_LOG_FILE"`
	RenewEvery     string        `env:"HOSTSED_RENEW_EVERY"`
	Direct         bool          `env:"HOSTSED_DIRECT"`
}

// Load reads the configuration from HOSTSED_* environment variables. It does
// not validate: callers apply their overrides first and then call Validate.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.HostsPath == "" {
		cfg.HostsPath = system.DefaultHostsPath()
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(os.TempDir(), "hostsed.log")
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.HostsPath == "" {
		return fmt.Errorf("hosts path must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache ttl must not be negative, got %s", c.CacheTTL)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative, got %s", c.Debounce)
	}

	switch c.Resolver {
	case ResolverAuto, ResolverUDP:
	case ResolverHTTPS, ResolverChain:
		if c.LookupEndpoint == "" {
			return fmt.Errorf("resolver %q needs a lookup endpoint", c.Resolver)
		}
	default:
		return fmt.Errorf("unknown resolver %q", c.Resolver)
	}

	if c.Resolver != ResolverHTTPS && c.DNSUpstream == "" {
		return fmt.Errorf("dns upstream must not be empty")
	}
	return nil
}

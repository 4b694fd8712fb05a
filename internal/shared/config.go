package shared

import (
	_ "embed"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	SoundCloud SoundCloudConfig `toml:"soundcloud"`
	Cache      CacheConfig      `toml:"cache"`
	Proxy      ProxyConfig      `toml:"proxy"`
	Logging    LoggingConfig    `toml:"logging"`
}

// SoundCloudConfig contains credentials and request policy for the remote API.
type SoundCloudConfig struct {
	AuthToken      string         `toml:"auth_token"`
	ClientID       string         `toml:"client_id"`
	ExploreSongs   int            `toml:"explore_songs"` // result-size limit for listings
	UserAgent      string         `toml:"user_agent"`
	TimeoutSeconds int            `toml:"timeout_seconds"`
	HTTPMaxRetries int            `toml:"http_max_retries"`
	BatchWorkers   int            `toml:"batch_workers"`
	BatchRateLimit float64        `toml:"batch_rate_limit"` // requests per second, 0 = unlimited
	APIURL         string         `toml:"api_url"`
	APIV2URL       string         `toml:"api_v2_url"`
	WebURL         string         `toml:"web_url"`
	Throttle       ThrottleConfig `toml:"throttle"`
}

// ThrottleConfig describes the client-side burst policy, windows in seconds.
type ThrottleConfig struct {
	BurstLength int     `toml:"burst_length"`
	BurstWindow float64 `toml:"burst_window"`
	WaitWindow  float64 `toml:"wait_window"`
}

// CacheConfig contains memoization bounds.
type CacheConfig struct {
	CTL               int `toml:"ctl"`
	TTLSeconds        int `toml:"ttl_seconds"`
	ListingTTLSeconds int `toml:"listing_ttl_seconds"`
}

// ProxyConfig mirrors the host player's proxy section.
type ProxyConfig struct {
	Scheme   string `toml:"scheme"`
	Hostname string `toml:"hostname"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// LoggingConfig contains log settings.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path as TOML, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Validate checks the settings the client cannot run without.
func (c *Config) Validate() error {
	if c.SoundCloud.AuthToken == "" {
		return fmt.Errorf("%w: soundcloud.auth_token is required", ErrMissingCredentials)
	}
	if c.SoundCloud.ExploreSongs < 0 {
		return fmt.Errorf("%w: soundcloud.explore_songs must not be negative", ErrInvalidConfig)
	}
	if c.SoundCloud.Throttle.BurstLength < 0 {
		return fmt.Errorf("%w: soundcloud.throttle.burst_length must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Proxy.URL(); err != nil {
		return err
	}
	return nil
}

// Timeout returns the per-request timeout, 15s when unset.
func (c SoundCloudConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Limit returns the result-size limit for listings, 25 when unset.
func (c SoundCloudConfig) Limit() int {
	if c.ExploreSongs <= 0 {
		return 25
	}
	return c.ExploreSongs
}

// Workers returns the batch resolution concurrency, 16 when unset.
func (c SoundCloudConfig) Workers() int {
	if c.BatchWorkers <= 0 {
		return 16
	}
	return c.BatchWorkers
}

// Windows converts the throttle windows to durations.
func (t ThrottleConfig) Windows() (burst, wait time.Duration) {
	burst = time.Duration(t.BurstWindow * float64(time.Second))
	wait = time.Duration(t.WaitWindow * float64(time.Second))
	return burst, wait
}

// TTL returns the default cache lifetime.
func (c CacheConfig) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

// ListingTTL returns the lifetime for frequently changing listings.
func (c CacheConfig) ListingTTL() time.Duration {
	if c.ListingTTLSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ListingTTLSeconds) * time.Second
}

// URL builds the proxy URL or returns nil when no proxy hostname is configured.
func (p ProxyConfig) URL() (*url.URL, error) {
	if p.Hostname == "" {
		return nil, nil
	}

	scheme := p.Scheme
	if scheme == "" {
		scheme = "http"
	}

	host := p.Hostname
	if p.Port > 0 {
		host = net.JoinHostPort(p.Hostname, strconv.Itoa(p.Port))
	}

	u := &url.URL{Scheme: scheme, Host: host}
	if p.Username != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}

	if _, err := url.Parse(u.String()); err != nil {
		return nil, fmt.Errorf("%w: proxy: %v", ErrInvalidConfig, err)
	}
	return u, nil
}

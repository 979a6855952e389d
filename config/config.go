package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy names for handling per-channel resolution failures
const (
	PolicySkip  = "skip"
	PolicyAbort = "abort"
)

// Duration is a time.Duration that decodes from YAML duration strings
// like "15s" or "1m"
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// Config holds the complete application configuration
type Config struct {
	// HTTP server settings for the redirect proxy
	HTTP struct {
		Address string `yaml:"address"`
		Port    string `yaml:"port"`
	} `yaml:"http"`

	// Registry settings
	Registry struct {
		Path string `yaml:"path"`
	} `yaml:"registry"`

	// Output settings for the generated playlist
	Output struct {
		Path      string `yaml:"path"`
		LogosURL  string `yaml:"logos_url"`
		UserAgent string `yaml:"user_agent"`
	} `yaml:"output"`

	// Build settings
	Build struct {
		Policy      string `yaml:"policy"`
		Concurrency int    `yaml:"concurrency"`
	} `yaml:"build"`

	// Upstream settings for provider API calls
	Upstream struct {
		Timeout   Duration `yaml:"timeout"`
		RateLimit float64  `yaml:"rate_limit"`
	} `yaml:"upstream"`

	// Provider endpoints
	Providers struct {
		RaiPlayURL           string `yaml:"raiplay_url"`
		MediasetCDN          string `yaml:"mediaset_cdn"`
		SkyAPIURL            string `yaml:"sky_api_url"`
		RelinkerURL          string `yaml:"relinker_url"`
		ParamountManifestURL string `yaml:"paramount_manifest_url"`
		LocalStreamURL       string `yaml:"local_stream_url"`
		ProxyURL             string `yaml:"proxy_url"`
	} `yaml:"providers"`

	// Log level: DEBUG, INFO, WARN or ERROR
	LogLevel string `yaml:"log_level"`
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	var errors []string

	if c.HTTP.Address == "" {
		errors = append(errors, "HTTP address is required")
	}
	if c.HTTP.Port == "" {
		errors = append(errors, "HTTP port is required")
	}

	if c.Registry.Path == "" {
		errors = append(errors, "Registry path is required")
	}
	if c.Output.Path == "" {
		errors = append(errors, "Output path is required")
	}

	if c.Build.Policy != PolicySkip && c.Build.Policy != PolicyAbort {
		errors = append(errors, fmt.Sprintf("Build policy must be %q or %q", PolicySkip, PolicyAbort))
	}
	if c.Build.Concurrency <= 0 {
		errors = append(errors, "Build concurrency must be positive")
	}

	if c.Upstream.Timeout <= 0 {
		errors = append(errors, "Upstream timeout must be positive")
	}
	if c.Upstream.RateLimit <= 0 {
		errors = append(errors, "Upstream rate limit must be positive")
	}

	if c.Providers.RaiPlayURL == "" {
		errors = append(errors, "RaiPlay URL is required")
	}
	if c.Providers.MediasetCDN == "" {
		errors = append(errors, "Mediaset CDN host is required")
	}
	if c.Providers.SkyAPIURL == "" {
		errors = append(errors, "Sky API URL is required")
	}
	if c.Providers.RelinkerURL == "" {
		errors = append(errors, "Relinker URL is required")
	}
	if c.Providers.ProxyURL == "" {
		errors = append(errors, "Proxy URL is required")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// Default returns a Config with sensible default values
func Default() *Config {
	cfg := &Config{}

	// Proxy server defaults, matching the address players expect
	cfg.HTTP.Address = "127.0.0.1"
	cfg.HTTP.Port = "10293"

	cfg.Registry.Path = "channels.yaml"

	cfg.Output.Path = "iptv-italy.m3u"
	cfg.Output.LogosURL = ""
	cfg.Output.UserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:94.0) Gecko/20100101 Firefox/94.0"

	cfg.Build.Policy = PolicySkip
	cfg.Build.Concurrency = 4

	cfg.Upstream.Timeout = Duration(15 * time.Second)
	cfg.Upstream.RateLimit = 10

	cfg.Providers.RaiPlayURL = "https://www.raiplay.it"
	cfg.Providers.MediasetCDN = "live3-mediaset-it.akamaized.net"
	cfg.Providers.SkyAPIURL = "https://apid.sky.it"
	cfg.Providers.RelinkerURL = "https://mediapolis.rai.it/relinker/relinkerServlet.htm"
	cfg.Providers.ParamountManifestURL = "http://viacomitalytest-lh.akamaihd.net/i/sbshdlive_1@195657/master.m3u8"
	cfg.Providers.LocalStreamURL = "http://wms.shared.streamshow.it/telenorba/telenorba/playlist.m3u8"
	cfg.Providers.ProxyURL = "http://127.0.0.1:10293"

	cfg.LogLevel = "INFO"

	return cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Load loads configuration from a file (if present) and applies environment
// variable overrides
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_FILE")
	}
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); err == nil {
		cfg, err = LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg = Default()
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv("HTTP_ADDRESS"); val != "" {
		cfg.HTTP.Address = val
	}
	if val := os.Getenv("HTTP_PORT"); val != "" {
		cfg.HTTP.Port = val
	}

	if val := os.Getenv("REGISTRY_PATH"); val != "" {
		cfg.Registry.Path = val
	}
	if val := os.Getenv("OUTPUT_PATH"); val != "" {
		cfg.Output.Path = val
	}
	if val := os.Getenv("LOGOS_URL"); val != "" {
		cfg.Output.LogosURL = val
	}

	if val := os.Getenv("BUILD_POLICY"); val != "" {
		cfg.Build.Policy = val
	}
	if val := os.Getenv("BUILD_CONCURRENCY"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid BUILD_CONCURRENCY: %w", err)
		}
		if n <= 0 {
			return fmt.Errorf("BUILD_CONCURRENCY must be positive")
		}
		cfg.Build.Concurrency = n
	}

	if val := os.Getenv("UPSTREAM_TIMEOUT"); val != "" {
		duration, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid UPSTREAM_TIMEOUT format (expected duration like '15s', '1m'): %w", err)
		}
		if duration <= 0 {
			return fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got: %s", val)
		}
		cfg.Upstream.Timeout = Duration(duration)
	}

	if val := os.Getenv("PROXY_URL"); val != "" {
		cfg.Providers.ProxyURL = val
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}

	return nil
}

// ListenAddr returns the proxy listen address in host:port form
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Address, c.HTTP.Port)
}

// Print outputs the configuration to stdout
func (c *Config) Print() {
	fmt.Printf("httpAddress: %v\n", c.HTTP.Address)
	fmt.Printf("httpPort: %v\n", c.HTTP.Port)
	fmt.Printf("registryPath: %v\n", c.Registry.Path)
	fmt.Printf("outputPath: %v\n", c.Output.Path)
	fmt.Printf("logosUrl: %v\n", c.Output.LogosURL)
	fmt.Printf("buildPolicy: %v\n", c.Build.Policy)
	fmt.Printf("buildConcurrency: %v\n", c.Build.Concurrency)
	fmt.Printf("upstreamTimeout: %v\n", c.Upstream.Timeout)
	fmt.Printf("upstreamRateLimit: %v req/s\n", c.Upstream.RateLimit)
	fmt.Printf("proxyUrl: %v\n", c.Providers.ProxyURL)
	fmt.Printf("logLevel: %v\n", c.LogLevel)
}

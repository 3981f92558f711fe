// Package config handles mybot configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/mybot/config.yaml, /etc/mybot/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "mybot", "config.yaml"))
	}

	paths = append(paths, "/etc/mybot/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all mybot configuration.
type Config struct {
	Listen   ListenConfig `yaml:"listen"`
	LLM      LLMConfig    `yaml:"llm"`
	Engine   EngineConfig `yaml:"engine"`
	Search   SearchConfig `yaml:"search"`
	Remote   RemoteConfig `yaml:"remote"`
	BotName  string       `yaml:"bot_name"`
	DataDir  string       `yaml:"data_dir"`
	LogLevel string       `yaml:"log_level"`
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// LLMConfig defines the OpenAI-compatible model endpoint settings.
type LLMConfig struct {
	// BaseURL is the root of an OpenAI-compatible API
	// (e.g., a LocalAI instance at http://localhost:8080/v1).
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// Model drives the reasoning steps.
	Model string `yaml:"model"`
	// AuxModel is the lighter model used for folding (summarization and
	// relevance filtering). Defaults to Model when empty.
	AuxModel    string  `yaml:"aux_model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// EngineConfig defines the reason/act/fold loop tunables. Zero values
// take the engine defaults.
type EngineConfig struct {
	// MaxCycles bounds the number of reason→act→fold cycles per turn.
	MaxCycles int `yaml:"max_cycles"`
	// Concurrency bounds simultaneous tool executions within one batch.
	Concurrency int `yaml:"concurrency"`
	// FoldThreshold is the payload length (chars) above which scrape-like
	// tool output is summarized in place.
	FoldThreshold int `yaml:"fold_threshold"`
	// FoldInputCap truncates summarizer input to this many chars.
	FoldInputCap int `yaml:"fold_input_cap"`
	// TimeoutSec is the wall-clock deadline for one full turn.
	TimeoutSec int `yaml:"timeout_sec"`
}

// Timeout returns the turn deadline as a duration, or zero if unset.
func (e EngineConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSec) * time.Second
}

// SearchConfig defines web search provider settings.
type SearchConfig struct {
	// SearxURL is the root URL of a SearxNG instance. When empty,
	// search_web falls back to the public DuckDuckGo HTML frontend.
	SearxURL string `yaml:"searx_url"`
}

// RemoteConfig defines the SSH target for the run_cmd and check_temps tools.
type RemoteConfig struct {
	// Host is the default SSH host (host or host:port). Empty disables
	// the remote tools.
	Host string `yaml:"host"`
	User string `yaml:"user"`
	// KeyFile is the path to a private key for auth.
	KeyFile string `yaml:"key_file"`
	// IPMIHost is the BMC address queried by check_temps. When empty,
	// ipmitool reads the local sensors of Host.
	IPMIHost string `yaml:"ipmi_host"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{Port: 8333},
		LLM: LLMConfig{
			BaseURL:   "http://localhost:8080/v1",
			Model:     "qwen3-235b-a22b-instruct-2507",
			MaxTokens: 102400,
		},
		BotName:  "Assistant",
		DataDir:  ".",
		LogLevel: "info",
	}
}

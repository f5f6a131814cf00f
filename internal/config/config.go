// Package config provides configuration for the pagelens server, loaded
// from a .pagelens.kdl file (searched upward from the working directory),
// overridden by PAGELENS_* environment variables, overridden in turn by
// command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	kdl "github.com/sblinch/kdl-go"
)

// ConfigFileName is the name of the pagelens configuration file.
const ConfigFileName = ".pagelens.kdl"

// Config is the full server configuration.
type Config struct {
	Browser *BrowserConfig `kdl:"browser"`
	Bridge  *BridgeConfig  `kdl:"bridge"`
	Storage *StorageConfig `kdl:"storage"`
	Agent   *AgentConfig   `kdl:"agent"`
	Capture *CaptureConfig `kdl:"capture"`
}

// BrowserConfig controls how the inspected page is reached.
type BrowserConfig struct {
	// PageURL is the page to attach to and inspect.
	PageURL string `kdl:"page-url"`
	// ControlURL is an existing DevTools endpoint; empty launches a browser.
	ControlURL string `kdl:"control-url"`
	Headless   bool   `kdl:"headless"`
}

// BridgeConfig controls the WebSocket bridge the injected overlay talks to.
type BridgeConfig struct {
	Addr string `kdl:"addr"`
}

// StorageConfig controls where inspections and event logs live.
type StorageConfig struct {
	DataDir string `kdl:"data-dir"`
}

// AgentConfig selects the agent backend for chat sessions.
type AgentConfig struct {
	// BaseURL of the session-issuing backend; empty disables sessions.
	BaseURL string `kdl:"base-url"`
	Name    string `kdl:"name"`
	// Model passed to the Anthropic API when Name is "claude".
	Model string `kdl:"model"`
	// AutoAnalyze runs each finalized capture through the model and
	// records the answer as the item's result. Needs ANTHROPIC_API_KEY.
	AutoAnalyze bool `kdl:"auto-analyze"`
}

// CaptureConfig tunes the capture pipeline.
type CaptureConfig struct {
	// TimeoutSeconds bounds interactive capture waits.
	TimeoutSeconds int `kdl:"timeout-seconds"`
	// Screenshot enables per-capture screenshots.
	Screenshot bool `kdl:"screenshot"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Browser: &BrowserConfig{
			PageURL:  "http://localhost:3000",
			Headless: true,
		},
		Bridge: &BridgeConfig{
			Addr: "127.0.0.1:8632",
		},
		Storage: &StorageConfig{
			DataDir: defaultDataDir(),
		},
		Agent: &AgentConfig{
			Name:  "claude",
			Model: "claude-sonnet-4-20250514",
		},
		Capture: &CaptureConfig{
			TimeoutSeconds: 600,
			Screenshot:     true,
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pagelens"
	}
	return filepath.Join(home, ".pagelens")
}

// Load reads configuration for dir: .env (if present), then the nearest
// .pagelens.kdl walking up from dir, then PAGELENS_* environment overrides.
func Load(dir string) (*Config, error) {
	// Best-effort; a missing .env is the normal case.
	godotenv.Load(filepath.Join(dir, ".env"))

	cfg := DefaultConfig()
	if path := FindConfigFile(dir); path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.applyEnv()
	return cfg, nil
}

// FindConfigFile searches for .pagelens.kdl starting from dir and walking up.
func FindConfigFile(dir string) string {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(absDir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(absDir)
		if parent == absDir {
			break
		}
		absDir = parent
	}

	return ""
}

// LoadFile loads configuration from a specific KDL file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(string(data))
}

// Parse parses KDL configuration data over the defaults.
func Parse(data string) (*Config, error) {
	cfg := DefaultConfig()
	if err := kdl.Unmarshal([]byte(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PAGELENS_PAGE_URL"); v != "" {
		c.Browser.PageURL = v
	}
	if v := os.Getenv("PAGELENS_BROWSER_URL"); v != "" {
		c.Browser.ControlURL = v
	}
	if v := os.Getenv("PAGELENS_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Browser.Headless = b
		}
	}
	if v := os.Getenv("PAGELENS_BRIDGE_ADDR"); v != "" {
		c.Bridge.Addr = v
	}
	if v := os.Getenv("PAGELENS_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("PAGELENS_AGENT_URL"); v != "" {
		c.Agent.BaseURL = v
	}
	if v := os.Getenv("PAGELENS_AGENT_NAME"); v != "" {
		c.Agent.Name = v
	}
	if v := os.Getenv("PAGELENS_MODEL"); v != "" {
		c.Agent.Model = v
	}
	if v := os.Getenv("PAGELENS_AUTO_ANALYZE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Agent.AutoAnalyze = b
		}
	}
	if v := os.Getenv("PAGELENS_CAPTURE_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Capture.TimeoutSeconds = n
		}
	}
}

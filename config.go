package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every setting for the terminal core. Sensitive values are
// overridden from the environment after the file loads.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Feed struct {
		URL         string   `yaml:"url"`
		Instruments []string `yaml:"instruments"`
		DepthLevels int      `yaml:"depth_levels"`
	} `yaml:"feed"`

	Engine struct {
		URL       string `yaml:"url"`
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
	} `yaml:"engine"`

	Wallet struct {
		RPCURL     string `yaml:"rpc_url"`
		PrivateKey string `yaml:"private_key"`
		Contract   string `yaml:"contract"`
	} `yaml:"wallet"`

	Session struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"session"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

func LoadConfig(path string) (Config, error) {
	var cfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ENGINE_API_KEY"); v != "" {
		c.Engine.APIKey = v
	}
	if v := os.Getenv("ENGINE_API_SECRET"); v != "" {
		c.Engine.APISecret = v
	}
	if v := os.Getenv("WALLET_PRIVATE_KEY"); v != "" {
		c.Wallet.PrivateKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.Feed.DepthLevels <= 0 {
		c.Feed.DepthLevels = 10
	}
	if c.Session.DBPath == "" {
		c.Session.DBPath = "terminal.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

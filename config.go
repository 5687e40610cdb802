package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	BaseURL string `yaml:"base_url"`

	Headless   bool   `yaml:"headless"`
	CaptureDir string `yaml:"capture_dir"`

	FindTimeoutSeconds    int `yaml:"find_timeout_seconds"`
	PollIntervalMs        int `yaml:"poll_interval_ms"`
	CartMaxAttempts       int `yaml:"cart_max_attempts"`
	CartPollIntervalMs    int `yaml:"cart_poll_interval_ms"`
	AddIndicatorTimeoutMs int `yaml:"add_indicator_timeout_ms"`
	FrameTimeoutSeconds   int `yaml:"frame_timeout_seconds"`
	SuccessTimeoutSeconds int `yaml:"success_timeout_seconds"`
	TypePaceMs            int `yaml:"type_pace_ms"`

	Card      CardConfig     `yaml:"card"`
	Selectors SelectorConfig `yaml:"selectors"`
	Logging   LogConfig      `yaml:"logging"`
}

// CardConfig holds the payment form test data. Defaults are the Stripe test
// card; never put a real card here.
type CardConfig struct {
	Email  string `yaml:"email"`
	Number string `yaml:"number"`
	Expiry string `yaml:"expiry"` // MMYY
	CVC    string `yaml:"cvc"`
	Postal string `yaml:"postal"`
}

// SelectorConfig carries the primary query per logical target. Each component
// builds its LocatorSpec from these plus built-in fallbacks, so a site markup
// tweak is a config edit, not a code change.
type SelectorConfig struct {
	Temperature   string `yaml:"temperature"`
	Moisturizers  string `yaml:"moisturizers_button"`
	Sunscreens    string `yaml:"sunscreens_button"`
	ProductCard   string `yaml:"product_card"`
	CartIndicator string `yaml:"cart_indicator"`
	CartRows      string `yaml:"cart_rows"`
	CartTotal     string `yaml:"cart_total"`
	PayButton     string `yaml:"pay_button"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // console or json
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "https://weathershopper.pythonanywhere.com",
		Headless:   true,
		CaptureDir: "captures",

		FindTimeoutSeconds:    10,
		PollIntervalMs:        250,
		CartMaxAttempts:       15,
		CartPollIntervalMs:    1000,
		AddIndicatorTimeoutMs: 5000,
		FrameTimeoutSeconds:   15,
		SuccessTimeoutSeconds: 10,
		TypePaceMs:            200,

		Card: CardConfig{
			Email:  "test@example.com",
			Number: "4242424242424242",
			Expiry: "1230",
			CVC:    "123",
			Postal: "12345",
		},
		Selectors: SelectorConfig{
			Temperature:   "#temperature",
			Moisturizers:  `//button[contains(translate(text(), 'M', 'm'), 'moisturizers')]`,
			Sunscreens:    `//button[contains(translate(text(), 'S', 's'), 'sunscreens')]`,
			ProductCard:   ".col-4",
			CartIndicator: "#cart",
			CartRows:      "table.table-striped tbody tr",
			CartTotal:     "#total",
			PayButton:     "button.stripe-button-el",
		},
		Logging: LogConfig{
			Level:      "info",
			Format:     "console",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// LoadConfig reads the config at path, writing the defaults there first if no
// file exists yet.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Save(path); err != nil {
			return nil, err
		}
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func (c *Config) findTimeout() time.Duration {
	return time.Duration(c.FindTimeoutSeconds) * time.Second
}

func (c *Config) pollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func (c *Config) cartPollInterval() time.Duration {
	return time.Duration(c.CartPollIntervalMs) * time.Millisecond
}

func (c *Config) addIndicatorTimeout() time.Duration {
	return time.Duration(c.AddIndicatorTimeoutMs) * time.Millisecond
}

func (c *Config) frameTimeout() time.Duration {
	return time.Duration(c.FrameTimeoutSeconds) * time.Second
}

func (c *Config) successTimeout() time.Duration {
	return time.Duration(c.SuccessTimeoutSeconds) * time.Second
}

func (c *Config) typePace() time.Duration {
	return time.Duration(c.TypePaceMs) * time.Millisecond
}

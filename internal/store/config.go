package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode     string   `yaml:"mode"`
	Universe []string `yaml:"universe"`
	Strategy struct {
		ChangePercentThreshold float64 `yaml:"change_percent_threshold"`
		VolumeLotThreshold     int64   `yaml:"volume_lot_threshold"`
	} `yaml:"strategy"`
	Ranking struct {
		Source             string  `yaml:"source"`
		RefreshSeconds     int     `yaml:"refresh_seconds"`
		Count              int     `yaml:"count"`
		SubscribeThreshold float64 `yaml:"subscribe_threshold"`
	} `yaml:"ranking"`
	Monitor struct {
		PollSeconds    int `yaml:"poll_seconds"`
		MaxWaitSeconds int `yaml:"max_wait_seconds"`
	} `yaml:"monitor"`
	Order struct {
		DefaultQuantity int `yaml:"default_quantity"`
	} `yaml:"order"`
	Log struct {
		RetentionDays int `yaml:"retention_days"`
	} `yaml:"log"`
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.Ranking.Source != "STATIC" && c.Ranking.Source != "LIVE" {
		return fmt.Errorf("invalid ranking.source '%s': must be 'STATIC' or 'LIVE'", c.Ranking.Source)
	}
	if c.Ranking.Source == "STATIC" && len(c.Universe) == 0 {
		return errors.New("universe cannot be empty with a STATIC ranking source")
	}
	if c.Strategy.ChangePercentThreshold <= 0 {
		return fmt.Errorf("strategy.change_percent_threshold must be > 0, got %.2f", c.Strategy.ChangePercentThreshold)
	}
	if c.Strategy.VolumeLotThreshold <= 0 {
		return fmt.Errorf("strategy.volume_lot_threshold must be > 0, got %d", c.Strategy.VolumeLotThreshold)
	}
	if c.Ranking.Count < 0 || c.Ranking.Count > 200 {
		return fmt.Errorf("ranking.count must be between 0-200, got %d", c.Ranking.Count)
	}
	if c.Monitor.PollSeconds <= 0 {
		return fmt.Errorf("monitor.poll_seconds must be > 0, got %d", c.Monitor.PollSeconds)
	}
	if c.Monitor.MaxWaitSeconds <= 0 {
		return fmt.Errorf("monitor.max_wait_seconds must be > 0, got %d", c.Monitor.MaxWaitSeconds)
	}
	if c.Order.DefaultQuantity <= 0 {
		return fmt.Errorf("order.default_quantity must be > 0, got %d", c.Order.DefaultQuantity)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.Mode == "" {
		c.Mode = "DRY_RUN"
	}
	if c.Ranking.Source == "" {
		c.Ranking.Source = "STATIC"
	}
	if c.Ranking.RefreshSeconds == 0 {
		c.Ranking.RefreshSeconds = 600
	}
	if c.Ranking.Count == 0 {
		c.Ranking.Count = 100
	}
	if c.Strategy.ChangePercentThreshold == 0 {
		c.Strategy.ChangePercentThreshold = 6.0
	}
	if c.Strategy.VolumeLotThreshold == 0 {
		c.Strategy.VolumeLotThreshold = 1000
	}
	if c.Monitor.PollSeconds == 0 {
		c.Monitor.PollSeconds = 5
	}
	if c.Monitor.MaxWaitSeconds == 0 {
		c.Monitor.MaxWaitSeconds = 300
	}
	if c.Order.DefaultQuantity == 0 {
		c.Order.DefaultQuantity = 1
	}
	if c.Log.RetentionDays == 0 {
		c.Log.RetentionDays = 14
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}

package store

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
mode: DRY_RUN
universe:
  - "2330"
  - "2317"
`)
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Strategy.ChangePercentThreshold != 6.0 {
		t.Errorf("expected default change threshold 6.0, got %f", c.Strategy.ChangePercentThreshold)
	}
	if c.Strategy.VolumeLotThreshold != 1000 {
		t.Errorf("expected default volume threshold 1000, got %d", c.Strategy.VolumeLotThreshold)
	}
	if c.Ranking.Source != "STATIC" {
		t.Errorf("expected STATIC ranking source, got %s", c.Ranking.Source)
	}
	if c.Ranking.RefreshSeconds != 600 || c.Ranking.Count != 100 {
		t.Errorf("unexpected ranking defaults: %+v", c.Ranking)
	}
	if c.Monitor.PollSeconds != 5 || c.Monitor.MaxWaitSeconds != 300 {
		t.Errorf("unexpected monitor defaults: %+v", c.Monitor)
	}
	if c.Order.DefaultQuantity != 1 {
		t.Errorf("expected default quantity 1, got %d", c.Order.DefaultQuantity)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"bad mode", "mode: PAPER\nuniverse: [\"2330\"]\n"},
		{"bad ranking source", "mode: DRY_RUN\nuniverse: [\"2330\"]\nranking:\n  source: SCRAPE\n"},
		{"empty static universe", "mode: DRY_RUN\n"},
		{"negative threshold", "mode: DRY_RUN\nuniverse: [\"2330\"]\nstrategy:\n  change_percent_threshold: -3\n"},
		{"count above cap", "mode: DRY_RUN\nuniverse: [\"2330\"]\nranking:\n  count: 500\n"},
		{"negative quantity", "mode: DRY_RUN\nuniverse: [\"2330\"]\norder:\n  default_quantity: -1\n"},
		{"negative poll", "mode: DRY_RUN\nuniverse: [\"2330\"]\nmonitor:\n  poll_seconds: -5\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tc.body)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLiveSourceNeedsNoUniverse(t *testing.T) {
	path := writeConfig(t, `
mode: DRY_RUN
ranking:
  source: LIVE
`)
	if _, err := LoadConfig(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

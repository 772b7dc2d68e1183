package config

import "testing"

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.ChunkSize != 1<<15 || cfg.ChunkCount != 1<<10 {
		t.Fatalf("unexpected memory shape: l=%d P=%d", cfg.ChunkSize, cfg.ChunkCount)
	}
	if cfg.AntecedentCount != 4 || cfg.DifficultyBits != 24 || cfg.SearchLength != 9 {
		t.Fatalf("unexpected defaults: n=%d d=%d L=%d", cfg.AntecedentCount, cfg.DifficultyBits, cfg.SearchLength)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.TotalElements() != 1<<25 {
		t.Fatalf("T = %d, want 2^25", cfg.TotalElements())
	}
	if cfg.NodeCount() != 2*(1<<25)-1 {
		t.Fatalf("node count = %d", cfg.NodeCount())
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }},
		{"zero chunk count", func(c *Config) { c.ChunkCount = 0 }},
		{"zero antecedents", func(c *Config) { c.AntecedentCount = 0 }},
		{"antecedents above chunk size", func(c *Config) { c.AntecedentCount = c.ChunkSize + 1 }},
		{"zero search length", func(c *Config) { c.SearchLength = 0 }},
		{"single element", func(c *Config) { c.ChunkSize, c.ChunkCount, c.AntecedentCount = 1, 1, 1 }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := Default()
			c.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

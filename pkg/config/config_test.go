package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Server.Addr)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strata.toml")
	data := `
[arrange]
maintain_mean = true
max_duration = "2s"

[cache]
redis_addr = "cache:6379"

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Arrange.MaintainMean {
		t.Error("MaintainMean = false")
	}
	if cfg.Arrange.MaxDuration != 2*time.Second {
		t.Errorf("MaxDuration = %v, want 2s", cfg.Arrange.MaxDuration)
	}
	if cfg.Arrange.PhaseBudget != 3*time.Second {
		t.Errorf("PhaseBudget = %v, want default 3s", cfg.Arrange.PhaseBudget)
	}
	if cfg.Cache.RedisAddr != "cache:6379" {
		t.Errorf("RedisAddr = %q", cfg.Cache.RedisAddr)
	}
	if cfg.LogLevel() != log.DebugLevel {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		invalid bool
	}{
		{"syntax", "[arrange\n", false},
		{"unknown key", "[arrange]\nmaintain_men = true\n", true},
		{"negative duration", "[arrange]\nmax_duration = \"-1s\"\n", true},
		{"bad level", "[log]\nlevel = \"loud\"\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), Default())
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrInvalid) != tt.invalid {
				t.Errorf("errors.Is(err, ErrInvalid) = %v, want %v (err: %v)", !tt.invalid, tt.invalid, err)
			}
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Arrange.BatchWeights = true
	cfg.Server.Addr = "127.0.0.1:9000"

	var buf bytes.Buffer
	if err := cfg.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Parse(buf.Bytes(), Default())
	if err != nil {
		t.Fatalf("Parse: %v\n%s", err, buf.String())
	}
	if got != cfg {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

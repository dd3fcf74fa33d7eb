package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/simp-lee/logger"
)

func boolPtr(b bool) *bool { return &b }

func TestSetupLogger_NilConfig(t *testing.T) {
	if _, err := SetupLogger(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestSetupLogger_LevelMapping(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantLevel slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug},
		{"info level", "info", slog.LevelInfo},
		{"warn level", "warn", slog.LevelWarn},
		{"error level", "error", slog.LevelError},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"invalid defaults to info", "invalid", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := SetupLogger(&LogConfig{Level: tt.level, Format: "text"})
			if err != nil {
				t.Fatalf("SetupLogger error: %v", err)
			}
			defer log.Close()

			if !log.Enabled(context.TODO(), tt.wantLevel) {
				t.Errorf("expected level %v to be enabled", tt.wantLevel)
			}
			if tt.wantLevel > slog.LevelDebug {
				if below := tt.wantLevel - 1; log.Enabled(context.TODO(), below) {
					t.Errorf("expected level %v to be disabled (configured: %v)", below, tt.wantLevel)
				}
			}
		})
	}
}

func TestSetupLogger_SetsDefault(t *testing.T) {
	log, err := SetupLogger(&LogConfig{Level: "warn", Format: "text"})
	if err != nil {
		t.Fatalf("SetupLogger error: %v", err)
	}
	defer log.Close()

	if slog.Default().Handler() != log.Handler() {
		t.Error("SetupLogger did not set slog.Default()")
	}
}

func TestSetupLogger_ConsoleAndFile(t *testing.T) {
	log, err := SetupLogger(&LogConfig{
		Level:    "info",
		Format:   "json",
		FilePath: filepath.Join(t.TempDir(), "console.log"),
	})
	if err != nil {
		t.Fatalf("SetupLogger error: %v", err)
	}
	defer log.Close()
}

func TestBuildLoggerOpts(t *testing.T) {
	// Level, Middleware, ConsoleFormat and ConsoleColor are always present.
	const baseCount = 4
	const fileBaseCount = baseCount + 2

	tests := []struct {
		name      string
		cfg       *LogConfig
		wantNil   bool
		wantCount int
	}{
		{name: "nil config returns nil", cfg: nil, wantNil: true},
		{name: "console text", cfg: &LogConfig{Level: "debug", Format: "text"}, wantCount: baseCount},
		{name: "unknown format", cfg: &LogConfig{Level: "info", Format: "whatever"}, wantCount: baseCount},
		{name: "color false", cfg: &LogConfig{Level: "info", Format: "text", Color: boolPtr(false)}, wantCount: baseCount},
		{name: "file path adds file options", cfg: &LogConfig{Level: "info", Format: "json", FilePath: "/tmp/console.log"}, wantCount: fileBaseCount},
		{
			name: "file with all rotation fields",
			cfg: &LogConfig{
				Level: "info", Format: "json", FilePath: "/tmp/console.log",
				MaxSizeMB: 50, RetentionDays: 30, MaxBackups: 5,
				CompressRotated: boolPtr(false),
			},
			wantCount: fileBaseCount + 4,
		},
		{
			name: "rotation ignored without file path",
			cfg: &LogConfig{
				Level: "info", Format: "text",
				MaxSizeMB: 50, RetentionDays: 30,
			},
			wantCount: baseCount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := BuildLoggerOpts(tt.cfg)
			if tt.wantNil {
				if opts != nil {
					t.Fatalf("expected nil, got %d options", len(opts))
				}
				return
			}
			if len(opts) != tt.wantCount {
				t.Errorf("option count = %d, want %d", len(opts), tt.wantCount)
			}
		})
	}
}

func TestBuildLoggerOpts_ProducesValidLogger(t *testing.T) {
	cfg := &LogConfig{
		Level: "info", Format: "json",
		FilePath:  filepath.Join(t.TempDir(), "rotated.log"),
		MaxSizeMB: 10, RetentionDays: 7, MaxBackups: 3,
		CompressRotated: boolPtr(true),
	}

	log, err := logger.New(BuildLoggerOpts(cfg)...)
	if err != nil {
		t.Fatalf("logger.New failed: %v", err)
	}
	defer log.Close()
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want logger.OutputFormat
	}{
		{"text", logger.FormatText},
		{"JSON", logger.FormatJSON},
		{"", logger.FormatCustom},
		{"xml", logger.FormatCustom},
	}
	for _, tt := range tests {
		if got := parseFormat(tt.in); got != tt.want {
			t.Errorf("parseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"impostor-irl/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInitWritesToLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.log")
	Init(config.LogConfig{Level: "debug", File: path, MaxMB: 1, Service: "test-svc"})
	t.Cleanup(func() { Init(config.LogConfig{Level: "info"}) })

	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Fatalf("global level = %v, want debug", zerolog.GlobalLevel())
	}
	log.Info().Str("code", "ABCDE").Msg("lobby created")

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(raw)
	if !strings.Contains(line, `"code":"ABCDE"`) || !strings.Contains(line, `"service":"test-svc"`) {
		t.Fatalf("unexpected log line: %s", line)
	}
}

func TestInitUnknownLevelFallsBackToInfo(t *testing.T) {
	Init(config.LogConfig{Level: "chatty"})
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("global level = %v, want info", zerolog.GlobalLevel())
	}
	if Writer() != os.Stdout {
		t.Fatal("expected stdout writer without LOG_FILE")
	}
}

package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestSetupInstallsDefault(t *testing.T) {
	logger := Setup(Config{Level: slog.LevelWarn})

	if logger != slog.Default() {
		t.Fatal("Setup must install the returned logger as the default")
	}
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be filtered below the configured warn level")
	}
	if !logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("error must pass the configured warn level")
	}
}

func TestSetupJSONHandler(t *testing.T) {
	logger := Setup(Config{Level: slog.LevelDebug, JSON: true})

	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug must be enabled at debug level")
	}
}

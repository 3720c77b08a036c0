package gateway

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger builds the application logger.
func NewLogger(config *Config) *slog.Logger {
	handler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      config.GetSlogLevel(),
		TimeFormat: time.RFC3339,
	})

	return slog.New(handler)
}

package gateway

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, "http:\n"+
		"  port: 9090\n"+
		"hls:\n"+
		"  chunk_count: 5\n"+
		"  chunk_duration: 4.0\n"+
		"logging:\n"+
		"  level: debug\n")

	config, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, config.HTTP.Port)
	require.Equal(t, 5, config.HLS.ChunkCount)
	require.Equal(t, 4.0, config.HLS.ChunkDuration)
	require.Equal(t, slog.LevelDebug, config.GetSlogLevel())

	// unset fields keep their defaults
	require.Equal(t, "ffmpeg", config.Encoder.FFmpegPath)
	require.Equal(t, 2_000_000, config.Encoder.Bitrate)
}

func TestLoadConfigErrors(t *testing.T) {
	for _, ca := range []struct {
		name    string
		content string
	}{
		{"invalid port", "http:\n  port: 123456\n"},
		{"invalid chunk count", "hls:\n  chunk_count: 0\n"},
		{"invalid chunk duration", "hls:\n  chunk_duration: -1\n"},
		{"invalid log level", "logging:\n  level: verbose\n"},
		{"invalid yaml", "http: [\n"},
	} {
		t.Run(ca.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfigFile(t, ca.content))
			require.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

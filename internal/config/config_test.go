package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			WriteTimeout:     10 * time.Second,
			IdleTimeout:      5 * time.Minute,
			HandshakeTimeout: 10 * time.Second,
			QueueSize:        64,
			CommandBuffer:    256,
		},
		Game: GameConfig{
			OverworldWidth:  60,
			OverworldHeight: 30,
			DungeonWidth:    80,
			DungeonHeight:   50,
			OverworldSpawnX: 30,
			OverworldSpawnY: 15,
			DungeonSpawnX:   10,
			DungeonSpawnY:   10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestServerAddr(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
server:
  host: 127.0.0.1
  port: 9090
  write_timeout: 5s
  idle_timeout: 2m
game:
  overworld_width: 40
  overworld_height: 20
  overworld_spawn_x: 20
  overworld_spawn_y: 10
  seed: 7
logging:
  level: debug
  format: console
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Server.IdleTimeout)
	assert.Equal(t, 40, cfg.Game.OverworldWidth)
	assert.Equal(t, int64(7), cfg.Game.Seed)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 64, cfg.Server.QueueSize)
	assert.Equal(t, 256, cfg.Server.CommandBuffer)
	assert.Equal(t, 60, cfg.Game.OverworldWidth)
	assert.Equal(t, 30, cfg.Game.OverworldHeight)
	assert.Equal(t, 80, cfg.Game.DungeonWidth)
	assert.Equal(t, 50, cfg.Game.DungeonHeight)
	assert.Equal(t, 30, cfg.Game.OverworldSpawnX)
	assert.Equal(t, 15, cfg.Game.OverworldSpawnY)
	assert.Equal(t, 10, cfg.Game.DungeonSpawnX)
	assert.Equal(t, 10, cfg.Game.DungeonSpawnY)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 0\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateServerPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Server.Port = 65536
	assert.Error(t, cfg.Validate())
}

func TestValidateServerTimeouts(t *testing.T) {
	cfg := validConfig()
	cfg.Server.WriteTimeout = -time.Second
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Server.IdleTimeout = -time.Minute
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Server.HandshakeTimeout = -time.Second
	assert.Error(t, cfg.Validate())
}

func TestValidateServerQueues(t *testing.T) {
	cfg := validConfig()
	cfg.Server.QueueSize = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Server.CommandBuffer = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateGameDimensions(t *testing.T) {
	cfg := validConfig()
	cfg.Game.OverworldWidth = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Game.DungeonHeight = -5
	assert.Error(t, cfg.Validate())
}

func TestValidateGameSpawnInBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Game.OverworldSpawnX = 60
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Game.DungeonSpawnY = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		assert.NoError(t, cfg.Validate(), "level %q should be valid", level)
	}
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingFormat(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		cfg := validConfig()
		cfg.Logging.Format = format
		assert.NoError(t, cfg.Validate(), "format %q should be valid", format)
	}
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

// Property-based tests

func TestPropertyValidPortRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		port := rapid.IntRange(1, 65535).Draw(t, "port")
		cfg := validConfig()
		cfg.Server.Port = port
		if err := cfg.Validate(); err != nil {
			t.Fatalf("valid port %d rejected: %v", port, err)
		}
	})
}

func TestPropertyInvalidPortRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// Generate ports outside valid range
		port := rapid.OneOf(
			rapid.IntRange(-1000, 0),
			rapid.IntRange(65536, 100000),
		).Draw(t, "port")
		cfg := validConfig()
		cfg.Server.Port = port
		if cfg.Validate() == nil {
			t.Fatalf("invalid port %d accepted", port)
		}
	})
}

func TestPropertySpawnInBoundsAccepted(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := validConfig()
		cfg.Game.OverworldWidth = rapid.IntRange(1, 200).Draw(t, "width")
		cfg.Game.OverworldHeight = rapid.IntRange(1, 200).Draw(t, "height")
		cfg.Game.OverworldSpawnX = rapid.IntRange(0, cfg.Game.OverworldWidth-1).Draw(t, "sx")
		cfg.Game.OverworldSpawnY = rapid.IntRange(0, cfg.Game.OverworldHeight-1).Draw(t, "sy")
		if err := cfg.Validate(); err != nil {
			t.Fatalf("in-bounds spawn rejected: %v", err)
		}
	})
}

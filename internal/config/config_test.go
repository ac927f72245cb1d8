package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/DoyleJ11/grid-tactics-server/internal/engine"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Game: GameConfig{
			BoardSize:   10,
			ZoneWidth:   3,
			DefaultRoom: "main",
		},
		Catalog: CatalogConfig{Path: "configs/skills.yaml"},
		Lobby: LobbyConfig{
			InboxSize:  64,
			OutboxSize: 32,
		},
		WS: WSConfig{
			ReadTimeout:  10 * time.Minute,
			WriteTimeout: 3 * time.Second,
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, engine.Rules{BoardSize: 10, ZoneWidth: 3}, cfg.Game.Rules())
}

func TestLoadDefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, validConfig().Game, cfg.Game)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Minute, cfg.WS.ReadTimeout)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
server:
  addr: 127.0.0.1:9000
  shutdown_timeout: 5s
logging:
  level: debug
  format: console
game:
  board_size: 12
  zone_width: 4
ws:
  write_timeout: 1s
  origin_patterns: ["localhost:*"]
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 12, cfg.Game.BoardSize)
	assert.Equal(t, "main", cfg.Game.DefaultRoom)
	assert.Equal(t, time.Second, cfg.WS.WriteTimeout)
	assert.Equal(t, []string{"localhost:*"}, cfg.WS.OriginPatterns)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TACTICS_GAME_BOARD_SIZE", "16")
	t.Setenv("TACTICS_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Game.BoardSize)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TACTICS_GAME_DEFAULT_ROOM=lobby-one\n"), 0644))
	t.Setenv("TACTICS_GAME_DEFAULT_ROOM", "")
	require.NoError(t, os.Unsetenv("TACTICS_GAME_DEFAULT_ROOM"))

	require.NoError(t, LoadEnvFile(path))
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "lobby-one", cfg.Game.DefaultRoom)

	assert.NoError(t, LoadEnvFile(filepath.Join(dir, "missing.env")))
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestValidateRejectsOverlappingZones(t *testing.T) {
	cfg := validConfig()
	cfg.Game.ZoneWidth = 6
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInvalidRules)
}

func TestValidateReportsEveryViolation(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Addr = ""
	cfg.Logging.Level = "trace"
	cfg.Logging.Format = "xml"
	cfg.Lobby.OutboxSize = 0
	cfg.WS.ReadTimeout = 0

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"server.addr", "logging.level", "logging.format", "lobby.outbox_size", "ws.read_timeout"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidateLoggingLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		assert.NoError(t, cfg.Validate(), "level %q should be valid", level)
	}
}

// Property-based tests

func TestPropertyZonesFitBoard(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.IntRange(2, 64).Draw(t, "board_size")
		zone := rapid.IntRange(1, 64).Draw(t, "zone_width")
		cfg := validConfig()
		cfg.Game.BoardSize = size
		cfg.Game.ZoneWidth = zone
		err := cfg.Validate()
		if 2*zone <= size && err != nil {
			t.Fatalf("zone %d on board %d rejected: %v", zone, size, err)
		}
		if 2*zone > size && err == nil {
			t.Fatalf("overlapping zone %d on board %d accepted", zone, size)
		}
	})
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, validConfig().Game, cfg.Game)
	assert.Equal(t, "configs/skills.yaml", cfg.Catalog.Path)
}

package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "data", config.Storage.DataDir)
	assert.Equal(t, "players.json", config.Storage.PlayersFile)
	assert.Equal(t, "tournaments.json", config.Storage.TournamentsFile)
	assert.True(t, config.Storage.AtomicWrites)
	assert.Equal(t, 1000, config.Players.MinElo)
	assert.Equal(t, 2500, config.Players.MaxElo)
	assert.Equal(t, "text", config.Export.DefaultFormat)
	assert.Equal(t, "info", config.Logging.Level)

	assert.Equal(t, DefaultValidationConfig(), config.Validation())
	assert.NoError(t, config.Validate())
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:    "empty data dir",
			modify:  func(c *Config) { c.Storage.DataDir = " " },
			wantErr: ErrInvalidStorageConfig,
		},
		{
			name:    "shared file",
			modify:  func(c *Config) { c.Storage.TournamentsFile = c.Storage.PlayersFile },
			wantErr: ErrInvalidStorageConfig,
		},
		{
			name:    "negative rounds",
			modify:  func(c *Config) { c.Tournament.DefaultRounds = -2 },
			wantErr: ErrInvalidTournamentConfig,
		},
		{
			name:    "inverted elo bounds",
			modify:  func(c *Config) { c.Players.MinElo = 2600 },
			wantErr: ErrInvalidPlayersConfig,
		},
		{
			name:    "zero min elo",
			modify:  func(c *Config) { c.Players.MinElo = 0 },
			wantErr: ErrInvalidPlayersConfig,
		},
		{
			name:    "journal without dir",
			modify:  func(c *Config) { c.Journal.Dir = "" },
			wantErr: ErrInvalidStorageConfig,
		},
		{
			name:    "unknown export format",
			modify:  func(c *Config) { c.Export.DefaultFormat = "pdf" },
			wantErr: ErrInvalidExportConfig,
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: ErrInvalidLoggingConfig,
		},
		{
			name:    "unknown log format",
			modify:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: ErrInvalidLoggingConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(&config)
			assert.ErrorIs(t, config.Validate(), tt.wantErr)
		})
	}

	t.Run("disabled journal needs no dir", func(t *testing.T) {
		config := DefaultConfig()
		config.Journal.Enabled = false
		config.Journal.Dir = ""
		assert.NoError(t, config.Validate())
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chessclub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestYAMLLoading(t *testing.T) {
	t.Run("LoadValidYAML", func(t *testing.T) {
		path := writeConfig(t, `
storage:
  data_dir: /var/lib/chessclub
  atomic_writes: false
tournament:
  default_rounds: 5
  seed: 42
players:
  min_elo: 800
  max_elo: 2800
export:
  default_format: xlsx
logging:
  level: debug
  format: json
`)

		config, err := LoadFromFile(path)
		require.NoError(t, err)

		assert.Equal(t, "/var/lib/chessclub", config.Storage.DataDir)
		assert.False(t, config.Storage.AtomicWrites)
		assert.Equal(t, 5, config.Tournament.DefaultRounds)
		assert.Equal(t, int64(42), config.Tournament.Seed)
		assert.Equal(t, 800, config.Players.MinElo)
		assert.Equal(t, "xlsx", config.Export.DefaultFormat)
		assert.Equal(t, "json", config.Logging.Format)
	})

	t.Run("LoadPartialYAML", func(t *testing.T) {
		path := writeConfig(t, `
players:
  max_elo: 2700
`)

		config, err := LoadFromFile(path)
		require.NoError(t, err)

		assert.Equal(t, 2700, config.Players.MaxElo)

		// Defaults fill the rest
		assert.Equal(t, 1000, config.Players.MinElo)
		assert.Equal(t, "players.json", config.Storage.PlayersFile)
		assert.Equal(t, "text", config.Export.DefaultFormat)
	})

	t.Run("LoadNonexistentFile", func(t *testing.T) {
		config, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Nil(t, config)
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("LoadInvalidYAML", func(t *testing.T) {
		path := writeConfig(t, "storage:\n  data_dir: [unclosed\n")
		config, err := LoadFromFile(path)
		assert.Nil(t, config)
		assert.ErrorIs(t, err, ErrConfigParseError)
	})

	t.Run("LoadInvalidValues", func(t *testing.T) {
		path := writeConfig(t, "export:\n  default_format: docx\n")
		_, err := LoadFromFile(path)
		assert.ErrorIs(t, err, ErrInvalidExportConfig)
	})
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Run("EnvironmentOverrides", func(t *testing.T) {
		t.Setenv("CHESSCLUB_DATA_DIR", "/tmp/club")
		t.Setenv("CHESSCLUB_ATOMIC_WRITES", "false")
		t.Setenv("CHESSCLUB_SEED", "7")
		t.Setenv("CHESSCLUB_MAX_ELO", "2600")
		t.Setenv("CHESSCLUB_JOURNAL_ENABLED", "false")
		t.Setenv("CHESSCLUB_EXPORT_FORMAT", "csv")
		t.Setenv("CHESSCLUB_LOG_LEVEL", "warn")

		config, err := LoadWithEnvironment("")
		require.NoError(t, err)

		assert.Equal(t, "/tmp/club", config.Storage.DataDir)
		assert.False(t, config.Storage.AtomicWrites)
		assert.Equal(t, int64(7), config.Tournament.Seed)
		assert.Equal(t, 2600, config.Players.MaxElo)
		assert.False(t, config.Journal.Enabled)
		assert.Equal(t, "csv", config.Export.DefaultFormat)
		assert.Equal(t, "warn", config.Logging.Level)
	})

	t.Run("EnvironmentBeatsFile", func(t *testing.T) {
		path := writeConfig(t, "logging:\n  level: debug\n")
		t.Setenv("CHESSCLUB_LOG_LEVEL", "error")

		config, err := LoadWithEnvironment(path)
		require.NoError(t, err)
		assert.Equal(t, "error", config.Logging.Level)
	})

	t.Run("MissingFileFallsBackToDefaults", func(t *testing.T) {
		config, err := LoadWithEnvironment(filepath.Join(t.TempDir(), "none.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().Storage, config.Storage)
	})

	t.Run("InvalidEnvironmentValues", func(t *testing.T) {
		t.Setenv("CHESSCLUB_SEED", "not_a_number")
		t.Setenv("CHESSCLUB_ATOMIC_WRITES", "not_boolean")

		// Invalid values are ignored
		config, err := LoadWithEnvironment("")
		require.NoError(t, err)
		assert.Zero(t, config.Tournament.Seed)
		assert.True(t, config.Storage.AtomicWrites)
	})

	t.Run("InvalidFinalConfiguration", func(t *testing.T) {
		t.Setenv("CHESSCLUB_LOG_FORMAT", "xml")
		_, err := LoadWithEnvironment("")
		assert.ErrorIs(t, err, ErrInvalidLoggingConfig)
	})
}

func TestSaveToFile(t *testing.T) {
	config := DefaultConfig()
	config.Storage.DataDir = "elsewhere"
	config.Tournament.DefaultRounds = 9

	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, config.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, config, *loaded)
}

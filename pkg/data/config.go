package data

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Error types for configuration validation
var (
	ErrInvalidStorageConfig    = errors.New("invalid storage configuration")
	ErrInvalidTournamentConfig = errors.New("invalid tournament configuration")
	ErrInvalidPlayersConfig    = errors.New("invalid players configuration")
	ErrInvalidExportConfig     = errors.New("invalid export configuration")
	ErrInvalidLoggingConfig    = errors.New("invalid logging configuration")
	ErrConfigNotFound          = errors.New("configuration file not found")
	ErrConfigParseError        = errors.New("failed to parse configuration file")
)

// Config is the top-level configuration of the club tools
type Config struct {
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
	Tournament TournamentConfig `yaml:"tournament" json:"tournament"`
	Players    PlayersConfig    `yaml:"players" json:"players"`
	Journal    JournalConfig    `yaml:"journal" json:"journal"`
	Export     ExportConfig     `yaml:"export" json:"export"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// StorageConfig defines where players and tournaments are kept
type StorageConfig struct {
	DataDir         string `yaml:"data_dir" json:"data_dir"`
	PlayersFile     string `yaml:"players_file" json:"players_file"`
	TournamentsFile string `yaml:"tournaments_file" json:"tournaments_file"`
	AtomicWrites    bool   `yaml:"atomic_writes" json:"atomic_writes"` // Write through a temp file and rename
}

// TournamentConfig holds defaults for new tournaments
type TournamentConfig struct {
	DefaultRounds int   `yaml:"default_rounds" json:"default_rounds"` // 0 means player count minus one
	Seed          int64 `yaml:"seed" json:"seed"`                     // Pairing seed, 0 means time based
}

// PlayersConfig holds the registration bounds for new players
type PlayersConfig struct {
	MinElo int `yaml:"min_elo" json:"min_elo"`
	MaxElo int `yaml:"max_elo" json:"max_elo"`
}

// JournalConfig controls the tournament event journal
type JournalConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Dir     string `yaml:"dir" json:"dir"`
}

// ExportConfig holds report output settings
type ExportConfig struct {
	Dir           string `yaml:"dir" json:"dir"`
	DefaultFormat string `yaml:"default_format" json:"default_format"` // text, csv, json, xlsx or png
}

// LoggingConfig selects the slog handler
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn or error
	Format string `yaml:"format" json:"format"` // text or json
}

// ExportFormats lists every report format the tools can write
var ExportFormats = []string{"text", "csv", "json", "xlsx", "png"}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			DataDir:         "data",
			PlayersFile:     "players.json",
			TournamentsFile: "tournaments.json",
			AtomicWrites:    true,
		},
		Tournament: TournamentConfig{},
		Players: PlayersConfig{
			MinElo: DefaultValidationConfig().MinElo,
			MaxElo: DefaultValidationConfig().MaxElo,
		},
		Journal: JournalConfig{
			Enabled: true,
			Dir:     "data/journal",
		},
		Export: ExportConfig{
			Dir:           "reports",
			DefaultFormat: "text",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validation returns the player validation rules of the configuration
func (c *Config) Validation() ValidationConfig {
	return ValidationConfig{MinElo: c.Players.MinElo, MaxElo: c.Players.MaxElo}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		return fmt.Errorf("%w: data_dir is required", ErrInvalidStorageConfig)
	}
	if strings.TrimSpace(c.Storage.PlayersFile) == "" || strings.TrimSpace(c.Storage.TournamentsFile) == "" {
		return fmt.Errorf("%w: players_file and tournaments_file are required", ErrInvalidStorageConfig)
	}
	if c.Storage.PlayersFile == c.Storage.TournamentsFile {
		return fmt.Errorf("%w: players and tournaments cannot share file '%s'", ErrInvalidStorageConfig, c.Storage.PlayersFile)
	}

	if c.Tournament.DefaultRounds < 0 {
		return fmt.Errorf("%w: default_rounds must not be negative, got %d", ErrInvalidTournamentConfig, c.Tournament.DefaultRounds)
	}

	if c.Players.MinElo <= 0 {
		return fmt.Errorf("%w: min_elo must be positive, got %d", ErrInvalidPlayersConfig, c.Players.MinElo)
	}
	if c.Players.MinElo > c.Players.MaxElo {
		return fmt.Errorf("%w: min_elo (%d) must not exceed max_elo (%d)", ErrInvalidPlayersConfig, c.Players.MinElo, c.Players.MaxElo)
	}

	if c.Journal.Enabled && strings.TrimSpace(c.Journal.Dir) == "" {
		return fmt.Errorf("%w: journal dir is required when the journal is enabled", ErrInvalidStorageConfig)
	}

	if !validFormat(c.Export.DefaultFormat) {
		return fmt.Errorf("%w: default_format '%s' must be one of: %s",
			ErrInvalidExportConfig, c.Export.DefaultFormat, strings.Join(ExportFormats, ", "))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: level '%s' must be one of: debug, info, warn, error", ErrInvalidLoggingConfig, c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: format '%s' must be 'text' or 'json'", ErrInvalidLoggingConfig, c.Logging.Format)
	}

	return nil
}

func validFormat(format string) bool {
	for _, f := range ExportFormats {
		if f == format {
			return true
		}
	}
	return false
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, filename)
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParseError, filename, err)
	}

	// Apply defaults for missing values
	config = mergeWithDefaults(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", filename, err)
	}

	return &config, nil
}

// LoadWithEnvironment loads configuration from file and applies environment variable overrides
func LoadWithEnvironment(filename string) (*Config, error) {
	config := DefaultConfig()

	// Load from file if it exists
	if filename != "" {
		fileConfig, err := LoadFromFile(filename)
		if err != nil && !errors.Is(err, ErrConfigNotFound) {
			return nil, err
		}
		if err == nil {
			config = *fileConfig
		}
	}

	applyEnvironmentOverrides(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid final configuration: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filename, err)
	}

	return nil
}

// mergeWithDefaults fills in missing values with defaults
func mergeWithDefaults(config Config) Config {
	defaults := DefaultConfig()

	if config.Storage.DataDir == "" {
		config.Storage.DataDir = defaults.Storage.DataDir
	}
	if config.Storage.PlayersFile == "" {
		config.Storage.PlayersFile = defaults.Storage.PlayersFile
	}
	if config.Storage.TournamentsFile == "" {
		config.Storage.TournamentsFile = defaults.Storage.TournamentsFile
	}

	if config.Players.MinElo == 0 {
		config.Players.MinElo = defaults.Players.MinElo
	}
	if config.Players.MaxElo == 0 {
		config.Players.MaxElo = defaults.Players.MaxElo
	}

	if config.Journal.Dir == "" {
		config.Journal.Dir = defaults.Journal.Dir
	}

	if config.Export.Dir == "" {
		config.Export.Dir = defaults.Export.Dir
	}
	if config.Export.DefaultFormat == "" {
		config.Export.DefaultFormat = defaults.Export.DefaultFormat
	}

	if config.Logging.Level == "" {
		config.Logging.Level = defaults.Logging.Level
	}
	if config.Logging.Format == "" {
		config.Logging.Format = defaults.Logging.Format
	}

	return config
}

// applyEnvironmentOverrides applies environment variable overrides
func applyEnvironmentOverrides(config *Config) {
	// Storage overrides
	if val := os.Getenv("CHESSCLUB_DATA_DIR"); val != "" {
		config.Storage.DataDir = val
	}
	if val := os.Getenv("CHESSCLUB_PLAYERS_FILE"); val != "" {
		config.Storage.PlayersFile = val
	}
	if val := os.Getenv("CHESSCLUB_TOURNAMENTS_FILE"); val != "" {
		config.Storage.TournamentsFile = val
	}
	if val := os.Getenv("CHESSCLUB_ATOMIC_WRITES"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.Storage.AtomicWrites = parsed
		}
	}

	// Tournament overrides
	if val := os.Getenv("CHESSCLUB_DEFAULT_ROUNDS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.Tournament.DefaultRounds = parsed
		}
	}
	if val := os.Getenv("CHESSCLUB_SEED"); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.Tournament.Seed = parsed
		}
	}

	// Player overrides
	if val := os.Getenv("CHESSCLUB_MIN_ELO"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.Players.MinElo = parsed
		}
	}
	if val := os.Getenv("CHESSCLUB_MAX_ELO"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.Players.MaxElo = parsed
		}
	}

	// Journal overrides
	if val := os.Getenv("CHESSCLUB_JOURNAL_ENABLED"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.Journal.Enabled = parsed
		}
	}
	if val := os.Getenv("CHESSCLUB_JOURNAL_DIR"); val != "" {
		config.Journal.Dir = val
	}

	// Export overrides
	if val := os.Getenv("CHESSCLUB_EXPORT_DIR"); val != "" {
		config.Export.Dir = val
	}
	if val := os.Getenv("CHESSCLUB_EXPORT_FORMAT"); val != "" {
		config.Export.DefaultFormat = val
	}

	// Logging overrides
	if val := os.Getenv("CHESSCLUB_LOG_LEVEL"); val != "" {
		config.Logging.Level = val
	}
	if val := os.Getenv("CHESSCLUB_LOG_FORMAT"); val != "" {
		config.Logging.Format = val
	}
}

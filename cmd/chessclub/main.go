// Package main provides the command-line interface of the chess club tournament director.
// It implements subcommands for the player roster, the tournament lifecycle, report export
// and the interactive console, with structured JSON errors and distinct exit codes.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/pashagolub/chessclub/pkg/data"
	"github.com/pashagolub/chessclub/pkg/journal"
	"github.com/pashagolub/chessclub/pkg/pairing"
	"github.com/pashagolub/chessclub/pkg/tournament"
	"github.com/pashagolub/chessclub/pkg/tui"
)

// Version information - set by build process
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Command output goes to stdout, logs to logOutput. Tests swap both.
var (
	stdout    io.Writer = os.Stdout
	logOutput io.Writer = os.Stderr
)

// GlobalOptions defines global CLI flags
type GlobalOptions struct {
	Config  string `long:"config" short:"c" description:"Configuration file path" default:"chessclub.yaml"`
	DataDir string `long:"data-dir" short:"d" description:"Data directory, overrides the configuration"`
	Verbose bool   `long:"verbose" short:"v" description:"Enable debug logging"`
}

// ErrorCode represents CLI exit codes
type ErrorCode int

const (
	ExitSuccess ErrorCode = iota
	ExitFileError
	ExitConfigError
	ExitStateError
	ExitInputError
	ExitLookupError
	ExitExportError
)

// CLIError represents a CLI error with exit code
type CLIError struct {
	Code        ErrorCode
	Message     string
	Details     map[string]any
	Suggestions []string
}

func (e *CLIError) Error() string {
	return e.Message
}

// formatErrorJSON formats error as JSON for structured output
func formatErrorJSON(err *CLIError) string {
	body := map[string]any{
		"code":    err.Code,
		"message": err.Message,
	}
	if err.Details != nil {
		body["details"] = err.Details
	}
	if err.Suggestions != nil {
		body["suggestions"] = err.Suggestions
	}

	jsonBytes, _ := json.MarshalIndent(map[string]any{"error": body}, "", "  ")
	return string(jsonBytes)
}

// asCLIError maps domain errors to exit codes
func asCLIError(err error) *CLIError {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	switch {
	case errors.Is(err, tournament.ErrInvalidTransition),
		errors.Is(err, tournament.ErrNotEnoughPlayers),
		errors.Is(err, data.ErrTournamentFinished):
		return &CLIError{
			Code:        ExitStateError,
			Message:     err.Error(),
			Suggestions: []string{"Check the tournament with 'chessclub tournament show -t <id>'"},
		}
	case errors.Is(err, data.ErrPlayerNotFound),
		errors.Is(err, data.ErrTournamentNotFound),
		errors.Is(err, data.ErrAmbiguousID):
		return &CLIError{
			Code:    ExitLookupError,
			Message: err.Error(),
			Suggestions: []string{
				"Use 'chessclub player list' to see registered players",
				"Use 'chessclub tournament list' to see tournament ids",
			},
		}
	case errors.Is(err, data.ErrInvalidResult),
		errors.Is(err, tournament.ErrRoundIndex),
		errors.Is(err, tournament.ErrMatchIndex),
		errors.Is(err, data.ErrPlayerExists),
		errors.Is(err, data.ErrMissingPlayerID),
		errors.Is(err, data.ErrMissingPlayerName),
		errors.Is(err, data.ErrInvalidElo),
		errors.Is(err, data.ErrInvalidDate),
		errors.Is(err, data.ErrMissingTournamentName),
		errors.Is(err, data.ErrMissingLocation),
		errors.Is(err, data.ErrInvalidDateRange),
		errors.Is(err, data.ErrInvalidRoundCount),
		errors.Is(err, data.ErrRosterParsing),
		errors.Is(err, journal.ErrUnsupportedFormat):
		return &CLIError{Code: ExitInputError, Message: err.Error()}
	default:
		return &CLIError{Code: ExitFileError, Message: err.Error()}
	}
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		cliErr := asCLIError(err)
		fmt.Fprintln(os.Stderr, formatErrorJSON(cliErr))
		os.Exit(int(cliErr.Code))
	}
}

func run(args []string) error {
	parser := newParser(&GlobalOptions{})

	_, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			switch flagsErr.Type {
			case flags.ErrHelp:
				return nil
			case flags.ErrCommandRequired:
				parser.WriteHelp(os.Stderr)
				return &CLIError{
					Code:    ExitConfigError,
					Message: "No command specified",
					Suggestions: []string{
						"Use 'chessclub tournament create --name ... --location ...' to set up a tournament",
						"Use 'chessclub --help' to see all available commands",
					},
				}
			default:
				return &CLIError{
					Code:    ExitConfigError,
					Message: fmt.Sprintf("Invalid arguments: %v", err),
				}
			}
		}
		return err
	}

	return nil
}

// newParser builds the command tree. Every command shares global.
func newParser(global *GlobalOptions) *flags.Parser {
	parser := flags.NewParser(global, flags.Default)
	parser.Usage = "[OPTIONS] COMMAND [COMMAND-OPTIONS]"

	player, _ := parser.AddCommand("player", "Manage the player roster", "", &struct{}{})
	player.AddCommand("add", "Register a player", "", &PlayerAddCommand{Global: global})
	player.AddCommand("list", "List players alphabetically", "", &PlayerListCommand{Global: global})
	player.AddCommand("edit", "Correct player details", "", &PlayerEditCommand{Global: global})
	player.AddCommand("remove", "Remove a player", "", &PlayerRemoveCommand{Global: global})
	player.AddCommand("import", "Import players from a CSV roster", "", &PlayerImportCommand{Global: global})

	t, _ := parser.AddCommand("tournament", "Run tournaments", "", &struct{}{})
	t.AddCommand("create", "Create a tournament", "", &TournamentCreateCommand{Global: global})
	t.AddCommand("list", "List tournaments", "", &TournamentListCommand{Global: global})
	t.AddCommand("show", "Show a tournament with standings and rounds", "", &TournamentShowCommand{Global: global})
	t.AddCommand("edit", "Edit tournament details", "", &TournamentEditCommand{Global: global})
	t.AddCommand("remove", "Remove a tournament", "", &TournamentRemoveCommand{Global: global})
	t.AddCommand("subscribe", "Register players for an upcoming tournament", "", &TournamentSubscribeCommand{Global: global})
	t.AddCommand("unsubscribe", "Withdraw players from an upcoming tournament", "", &TournamentUnsubscribeCommand{Global: global})
	t.AddCommand("start", "Start a tournament and pair round one", "", &TournamentStartCommand{Global: global})
	t.AddCommand("result", "Record the result of a board", "", &TournamentResultCommand{Global: global})
	t.AddCommand("close", "Close a round once every board has a result", "", &TournamentCloseCommand{Global: global})
	t.AddCommand("advance", "Pair the next round, or finish after the last one", "", &TournamentAdvanceCommand{Global: global})
	t.AddCommand("ratings", "Apply Elo ratings of closed rounds", "", &TournamentRatingsCommand{Global: global})

	parser.AddCommand("report", "Export a report", "", &ReportCommand{Global: global})
	parser.AddCommand("tui", "Open the interactive director console", "", &TUICommand{Global: global})
	parser.AddCommand("version", "Show version information", "", &VersionCommand{})

	return parser
}

// environment bundles what a command needs, built from the configuration
type environment struct {
	config   *data.Config
	logger   *slog.Logger
	store    *data.FileStore
	director *tournament.Director
	book     *journal.Book
}

func openEnvironment(global *GlobalOptions) (*environment, error) {
	if global == nil {
		global = &GlobalOptions{}
	}

	config, err := data.LoadWithEnvironment(global.Config)
	if err != nil {
		return nil, &CLIError{
			Code:    ExitConfigError,
			Message: fmt.Sprintf("Failed to load configuration: %v", err),
			Suggestions: []string{
				"Check configuration file syntax",
				"Use --config flag to specify different config file",
			},
		}
	}
	if global.DataDir != "" {
		config.Storage.DataDir = global.DataDir
		config.Journal.Dir = filepath.Join(global.DataDir, "journal")
	}

	logger, err := newLogger(config.Logging, global.Verbose, logOutput)
	if err != nil {
		return nil, &CLIError{Code: ExitConfigError, Message: err.Error()}
	}

	if err := os.MkdirAll(config.Storage.DataDir, 0755); err != nil {
		return nil, &CLIError{
			Code:    ExitFileError,
			Message: fmt.Sprintf("Failed to create data directory: %v", err),
			Details: map[string]any{"data_dir": config.Storage.DataDir},
		}
	}

	env := &environment{
		config: config,
		logger: logger,
		store:  data.NewFileStore(config.Storage, logger),
	}

	var events tournament.Journal
	if config.Journal.Enabled {
		env.book = journal.NewBook(config.Journal.Dir, logger)
		events = env.book
	}

	seed := config.Tournament.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	env.director = tournament.NewDirector(pairing.NewSeeded(seed), logger, events)

	return env, nil
}

// Close flushes the journal
func (e *environment) Close() {
	if e.book == nil {
		return
	}
	if err := e.book.Close(); err != nil {
		e.logger.Error("failed to close journal", slog.Any("error", err))
	}
}

func newLogger(config data.LoggingConfig, verbose bool, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(config.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", config.Level, err)
	}
	if verbose {
		level = slog.LevelDebug
	}

	options := &slog.HandlerOptions{Level: level}
	if config.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, options)), nil
	}
	return slog.New(slog.NewTextHandler(w, options)), nil
}

// ReportCommand handles 'chessclub report'
type ReportCommand struct {
	Kind       string `long:"kind" short:"k" description:"Report to export" choice:"players" choice:"tournaments" choice:"tournament-players" choice:"rounds" choice:"standings" required:"true"`
	Format     string `long:"format" short:"f" description:"Export format (text/csv/json/xlsx/png), defaults to the configuration"`
	Tournament string `long:"tournament" short:"t" description:"Tournament id or unique prefix"`
	Output     string `long:"output" short:"o" description:"Output file path, - for stdout"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute implements the Command interface for ReportCommand
func (c *ReportCommand) Execute(args []string) error {
	env, err := openEnvironment(c.Global)
	if err != nil {
		return err
	}
	defer env.Close()

	formatName := c.Format
	if formatName == "" {
		formatName = env.config.Export.DefaultFormat
	}
	format, err := journal.ParseFormat(formatName)
	if err != nil {
		return &CLIError{
			Code:        ExitInputError,
			Message:     err.Error(),
			Suggestions: []string{"Use one of: text, csv, json, xlsx, png"},
		}
	}

	kind := journal.ReportKind(c.Kind)
	var (
		report *journal.Report
		t      *data.Tournament
	)
	switch kind {
	case journal.ReportPlayers:
		players, err := env.store.LoadPlayers()
		if err != nil {
			return err
		}
		report = journal.PlayersReport(players)
	case journal.ReportTournaments:
		tournaments, err := env.store.LoadTournaments()
		if err != nil {
			return err
		}
		report = journal.TournamentsReport(tournaments)
	default:
		if c.Tournament == "" {
			return &CLIError{
				Code:    ExitInputError,
				Message: fmt.Sprintf("The %s report needs --tournament", kind),
			}
		}
		if t, err = env.store.GetTournament(c.Tournament); err != nil {
			return err
		}
		roster, err := env.store.LoadPlayers()
		if err != nil {
			return err
		}
		switch kind {
		case journal.ReportTournamentPlayers:
			report = journal.TournamentPlayersReport(t, roster)
		case journal.ReportRounds:
			report = journal.RoundsReport(t)
		default:
			report = journal.StandingsReport(t, roster)
		}
	}

	exporter := journal.NewExporter()
	if c.Output == "-" {
		return exporter.Export(report, format, stdout)
	}

	path := c.Output
	if path == "" {
		name := journal.FileName(kind, format)
		if t != nil {
			name = shortID(t.TournamentID) + "_" + name
		}
		path = filepath.Join(env.config.Export.Dir, name)
	}
	if err := exporter.ExportToFile(report, path, format); err != nil {
		return &CLIError{
			Code:    ExitExportError,
			Message: fmt.Sprintf("Export failed: %v", err),
			Details: map[string]any{
				"output_file": path,
				"format":      string(format),
			},
			Suggestions: []string{
				"Check output directory permissions",
				"Try different output format",
			},
		}
	}

	env.logger.Info("report exported", slog.String("kind", string(kind)), slog.String("path", path))
	fmt.Fprintf(stdout, "Exported %s report to: %s\n", kind, path)
	return nil
}

// TUICommand handles 'chessclub tui'
type TUICommand struct {
	Tournament string `long:"tournament" short:"t" description:"Open this tournament directly"`

	Global *GlobalOptions `no-flag:"true"`
}

// consoleLog opens the log file used while the console owns the terminal.
// When it cannot be opened a warning goes to warnings and logs are dropped.
func consoleLog(dir string, warnings io.Writer) (io.Writer, func()) {
	path := filepath.Join(dir, "chessclub.log")
	err := os.MkdirAll(dir, 0755)
	if err == nil {
		var file *os.File
		file, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err == nil {
			return file, func() { _ = file.Close() }
		}
	}
	fmt.Fprintf(warnings, "Warning: console log %s unavailable, logging disabled: %v\n", path, err)
	return io.Discard, func() {}
}

// Execute implements the Command interface for TUICommand
func (c *TUICommand) Execute(args []string) error {
	global := c.Global
	if global == nil {
		global = &GlobalOptions{}
	}
	// The console owns the terminal, logs go to a file next to the data
	output, closeLog := consoleLog(dataDir(global), logOutput)
	defer closeLog()
	logOutput = output

	env, err := openEnvironment(global)
	if err != nil {
		return err
	}
	defer env.Close()

	format, err := journal.ParseFormat(env.config.Export.DefaultFormat)
	if err != nil {
		return err
	}

	app, err := tui.NewApp(tui.Options{
		Storage:      env.store,
		Director:     env.director,
		ExportDir:    env.config.Export.Dir,
		ExportFormat: format,
		Logger:       env.logger,
	})
	if err != nil {
		return err
	}
	if err := app.RegisterDefaultScreens(); err != nil {
		return err
	}
	return app.Run(c.Tournament)
}

// dataDir returns the data directory before the configuration is loaded
func dataDir(global *GlobalOptions) string {
	if global.DataDir != "" {
		return global.DataDir
	}
	if config, err := data.LoadWithEnvironment(global.Config); err == nil {
		return config.Storage.DataDir
	}
	return data.DefaultConfig().Storage.DataDir
}

// VersionCommand handles 'chessclub version'
type VersionCommand struct{}

// Execute implements the Command interface for VersionCommand
func (c *VersionCommand) Execute(args []string) error {
	return showVersion()
}

func showVersion() error {
	fmt.Fprintf(stdout, "chessclub version %s\n", Version)
	fmt.Fprintf(stdout, "Build date: %s\n", BuildDate)
	fmt.Fprintf(stdout, "Git commit: %s\n", GitCommit)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pashagolub/chessclub/pkg/data"
	"github.com/pashagolub/chessclub/pkg/elo"
)

// PlayerAddCommand handles 'chessclub player add'
type PlayerAddCommand struct {
	ID          string `long:"id" description:"Federation id" required:"true"`
	Surname     string `long:"surname" description:"Surname" required:"true"`
	Name        string `long:"name" description:"Given name" required:"true"`
	DateOfBirth string `long:"dob" description:"Date of birth, any common format"`
	Elo         int    `long:"elo" description:"Elo rating" required:"true"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute implements the Command interface for PlayerAddCommand
func (c *PlayerAddCommand) Execute(args []string) error {
	env, err := openEnvironment(c.Global)
	if err != nil {
		return err
	}
	defer env.Close()

	player, err := data.NewPlayer(c.ID, c.Surname, c.Name, c.DateOfBirth, c.Elo, env.config.Validation())
	if err != nil {
		return err
	}
	if err := env.store.AddPlayer(*player); err != nil {
		return err
	}

	env.logger.Info("player added", slog.String("federation_id", player.FederationID), slog.Int("elo", player.Elo))
	fmt.Fprintf(stdout, "Added player %s %s (Elo %d, K %d)\n",
		player.FederationID, player.FullName(), player.Elo, player.KFactor)
	return nil
}

// PlayerListCommand handles 'chessclub player list'
type PlayerListCommand struct {
	Format string `long:"format" description:"Output format" choice:"table" choice:"json" choice:"csv" default:"table"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute implements the Command interface for PlayerListCommand
func (c *PlayerListCommand) Execute(args []string) error {
	env, err := openEnvironment(c.Global)
	if err != nil {
		return err
	}
	defer env.Close()

	players, err := env.store.LoadPlayers()
	if err != nil {
		return err
	}
	data.SortPlayers(players)

	switch c.Format {
	case "json":
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(players)
	case "csv":
		return outputPlayersCSV(players)
	default:
		return outputPlayersTable(players)
	}
}

func outputPlayersCSV(players []data.Player) error {
	writer := csv.NewWriter(stdout)
	defer writer.Flush()

	if err := writer.Write(data.RosterColumns); err != nil {
		return err
	}
	for _, p := range players {
		record := []string{p.FederationID, p.Surname, p.Name, p.DateOfBirth, strconv.Itoa(p.Elo)}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func outputPlayersTable(players []data.Player) error {
	if len(players) == 0 {
		fmt.Fprintln(stdout, "No players found")
		return nil
	}

	fmt.Fprintf(stdout, "%-12s %-30s %-12s %6s %4s %6s\n", "ID", "NAME", "BORN", "ELO", "K", "GAMES")
	fmt.Fprintln(stdout, strings.Repeat("-", 75))
	for _, p := range players {
		name := p.FullName()
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		fmt.Fprintf(stdout, "%-12s %-30s %-12s %6d %4d %6d\n",
			p.FederationID, name, p.DateOfBirth, p.Elo, p.KFactor, p.GamesPlayed)
	}
	return nil
}

// PlayerEditCommand handles 'chessclub player edit'. Only given fields change.
type PlayerEditCommand struct {
	ID          string  `long:"id" description:"Federation id" required:"true"`
	Surname     *string `long:"surname" description:"New surname"`
	Name        *string `long:"name" description:"New given name"`
	DateOfBirth *string `long:"dob" description:"New date of birth"`
	Elo         *int    `long:"elo" description:"Corrected Elo rating"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute implements the Command interface for PlayerEditCommand
func (c *PlayerEditCommand) Execute(args []string) error {
	patch := data.PlayerPatch{
		Surname:     c.Surname,
		Name:        c.Name,
		DateOfBirth: c.DateOfBirth,
		Elo:         c.Elo,
	}
	if patch.IsEmpty() {
		return &CLIError{
			Code:        ExitInputError,
			Message:     "Nothing to change",
			Suggestions: []string{"Pass at least one of --surname, --name, --dob or --elo"},
		}
	}

	env, err := openEnvironment(c.Global)
	if err != nil {
		return err
	}
	defer env.Close()

	player, err := env.store.GetPlayer(c.ID)
	if err != nil {
		return err
	}
	updated, err := patch.Apply(*player, env.config.Validation())
	if err != nil {
		return err
	}
	if err := env.store.SavePlayer(updated); err != nil {
		return err
	}

	env.logger.Info("player updated", slog.String("federation_id", updated.FederationID))
	fmt.Fprintf(stdout, "Updated player %s %s (Elo %d, K %d)\n",
		updated.FederationID, updated.FullName(), updated.Elo, updated.KFactor)
	return nil
}

// PlayerRemoveCommand handles 'chessclub player remove'
type PlayerRemoveCommand struct {
	ID string `long:"id" description:"Federation id" required:"true"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute implements the Command interface for PlayerRemoveCommand.
// Players registered in an unfinished tournament are kept.
func (c *PlayerRemoveCommand) Execute(args []string) error {
	env, err := openEnvironment(c.Global)
	if err != nil {
		return err
	}
	defer env.Close()

	tournaments, err := env.store.LoadTournaments()
	if err != nil {
		return err
	}
	for _, t := range tournaments {
		if _, registered := t.Players[c.ID]; registered && t.Status != data.StatusFinished {
			return &CLIError{
				Code:    ExitStateError,
				Message: fmt.Sprintf("Player %s is registered in %s (%s)", c.ID, t.Name, t.Status),
				Details: map[string]any{"tournament_id": t.TournamentID},
				Suggestions: []string{
					"Unsubscribe the player first with 'chessclub tournament unsubscribe'",
				},
			}
		}
	}

	if err := env.store.DeletePlayer(c.ID); err != nil {
		return err
	}
	env.logger.Info("player removed", slog.String("federation_id", c.ID))
	fmt.Fprintf(stdout, "Removed player %s\n", c.ID)
	return nil
}

// PlayerImportCommand handles 'chessclub player import'
type PlayerImportCommand struct {
	File      string `long:"file" short:"f" description:"CSV roster with federation_id, surname, name, date_of_birth and elo columns" required:"true"`
	Delimiter string `long:"delimiter" description:"Field delimiter" default:","`
	Update    bool   `long:"update" description:"Replace players that already exist"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute implements the Command interface for PlayerImportCommand
func (c *PlayerImportCommand) Execute(args []string) error {
	file, err := os.Open(c.File)
	if err != nil {
		return &CLIError{
			Code:    ExitFileError,
			Message: fmt.Sprintf("Roster file not found: %s", c.File),
			Details: map[string]any{"file": c.File},
			Suggestions: []string{
				"Check file path and name",
				"Use absolute path if needed",
			},
		}
	}
	defer file.Close()

	env, err := openEnvironment(c.Global)
	if err != nil {
		return err
	}
	defer env.Close()

	var delimiter rune
	if c.Delimiter != "" {
		delimiter = []rune(c.Delimiter)[0]
	}
	result, err := data.ParseRoster(file, delimiter, env.config.Validation())
	if err != nil {
		return err
	}

	added, replaced, skipped := 0, 0, 0
	for _, p := range result.Players {
		err := env.store.AddPlayer(p)
		switch {
		case err == nil:
			added++
		case errors.Is(err, data.ErrPlayerExists) && c.Update:
			existing, getErr := env.store.GetPlayer(p.FederationID)
			if getErr != nil {
				return getErr
			}
			// Rating history stays with the stored player
			p.GamesPlayed = existing.GamesPlayed
			p.KFactor = elo.KFactor(p.GamesPlayed, p.Elo)
			if err := env.store.SavePlayer(p); err != nil {
				return err
			}
			replaced++
		case errors.Is(err, data.ErrPlayerExists):
			skipped++
		default:
			return err
		}
	}

	env.logger.Info("roster imported",
		slog.String("file", c.File),
		slog.Int("added", added),
		slog.Int("replaced", replaced),
		slog.Int("skipped", skipped),
		slog.Int("invalid", len(result.SkippedRows)))
	fmt.Fprintf(stdout, "Imported %s: %d added, %d replaced, %d already registered, %d invalid rows\n",
		c.File, added, replaced, skipped, len(result.SkippedRows))
	for _, parseErr := range result.ParseErrors {
		fmt.Fprintf(stdout, "  %s\n", parseErr.Error())
	}
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/pashagolub/chessclub/pkg/data"
	"github.com/pashagolub/chessclub/pkg/pairing"
	"github.com/pashagolub/chessclub/pkg/tournament"
)

// TournamentCreateCommand handles 'chessclub tournament create'
type TournamentCreateCommand struct {
	Name        string `long:"name" description:"Tournament name" required:"true"`
	Location    string `long:"location" description:"Where it is played" required:"true"`
	StartDate   string `long:"start" description:"Start date, defaults to today"`
	EndDate     string `long:"end" description:"End date"`
	Description string `long:"description" description:"Free text shown in reports"`
	Rounds      int    `long:"rounds" description:"Number of rounds, 0 uses the configured default (player count minus one)"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute implements the Command interface for TournamentCreateCommand
func (c *TournamentCreateCommand) Execute(args []string) error {
	env, err := openEnvironment(c.Global)
	if err != nil {
		return err
	}
	defer env.Close()

	rounds := c.Rounds
	if rounds == 0 {
		rounds = env.config.Tournament.DefaultRounds
	}
	t, err := env.director.Create(data.TournamentSpec{
		Name:           c.Name,
		Location:       c.Location,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		Description:    c.Description,
		NumberOfRounds: rounds,
	})
	if err != nil {
		return err
	}
	if err := env.store.SaveTournament(t); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Created tournament %s (%s, %s)\n", t.TournamentID, t.Name, t.StartDate)
	return nil
}

// TournamentListCommand handles 'chessclub tournament list'
type TournamentListCommand struct {
	Status string `long:"status" description:"Filter by status" choice:"all" choice:"upcoming" choice:"in_progress" choice:"finished" default:"all"`
	Format string `long:"format" description:"Output format" choice:"table" choice:"json" default:"table"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute implements the Command interface for TournamentListCommand
func (c *TournamentListCommand) Execute(args []string) error {
	env, err := openEnvironment(c.Global)
	if err != nil {
		return err
	}
	defer env.Close()

	tournaments, err := env.store.LoadTournaments()
	if err != nil {
		return err
	}

	var selected []*data.Tournament
	for _, t := range tournaments {
		if c.Status != "" && c.Status != "all" && string(t.Status) != c.Status {
			continue
		}
		selected = append(selected, t)
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].StartDate > selected[j].StartDate
	})

	if c.Format == "json" {
		return outputTournamentsJSON(selected)
	}
	return outputTournamentsTable(selected)
}

func outputTournamentsJSON(tournaments []*data.Tournament) error {
	type tournamentSummary struct {
		ID        string `json:"tournament_id"`
		Name      string `json:"name"`
		Location  string `json:"location"`
		StartDate string `json:"start_date"`
		Status    string `json:"status"`
		Players   int    `json:"players"`
		Round     int    `json:"current_round"`
		Rounds    int    `json:"number_of_rounds"`
	}

	summaries := make([]tournamentSummary, 0, len(tournaments))
	for _, t := range tournaments {
		summaries = append(summaries, tournamentSummary{
			ID:        t.TournamentID,
			Name:      t.Name,
			Location:  t.Location,
			StartDate: t.StartDate,
			Status:    string(t.Status),
			Players:   len(t.Players),
			Round:     t.CurrentRound,
			Rounds:    t.NumberOfRounds,
		})
	}

	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summaries)
}

func outputTournamentsTable(tournaments []*data.Tournament) error {
	if len(tournaments) == 0 {
		fmt.Fprintln(stdout, "No tournaments found")
		return nil
	}

	fmt.Fprintf(stdout, "%-10s %-24s %-12s %-12s %7s %6s\n", "ID", "NAME", "START", "STATUS", "PLAYERS", "ROUND")
	fmt.Fprintln(stdout, strings.Repeat("-", 76))
	for _, t := range tournaments {
		name := t.Name
		if len(name) > 24 {
			name = name[:21] + "..."
		}
		fmt.Fprintf(stdout, "%-10s %-24s %-12s %-12s %7d %3d/%-2d\n",
			shortID(t.TournamentID), name, t.StartDate, t.Status.String(),
			len(t.Players), t.CurrentRound, t.NumberOfRounds)
	}
	return nil
}

// TournamentShowCommand handles 'chessclub tournament show'
type TournamentShowCommand struct {
	Tournament string `long:"tournament" short:"t" description:"Tournament id or unique prefix" required:"true"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute implements the Command interface for TournamentShowCommand
func (c *TournamentShowCommand) Execute(args []string) error {
	env, err := openEnvironment(c.Global)
	if err != nil {
		return err
	}
	defer env.Close()

	t, err := env.store.GetTournament(c.Tournament)
	if err != nil {
		return err
	}
	names, err := playerNames(env.store)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%s (%s)\n", t.Name, t.TournamentID)
	dates := t.StartDate
	if t.EndDate != "" {
		dates += " to " + t.EndDate
	}
	fmt.Fprintf(stdout, "Location: %s, %s\n", t.Location, dates)
	fmt.Fprintf(stdout, "Status: %s, round %d of %d\n", t.Status.String(), t.CurrentRound, t.NumberOfRounds)
	if t.Description != "" {
		fmt.Fprintf(stdout, "Description: %s\n", t.Description)
	}

	fmt.Fprintf(stdout, "\nStandings (%d players)\n", len(t.Players))
	for _, s := range tournament.Standings(t) {
		fmt.Fprintf(stdout, "%3d. %-10s %-28s %4s  (+%d =%d -%d)\n",
			s.Rank, s.PlayerID, names.of(s.PlayerID), formatPoints(s.Points), s.Wins, s.Draws, s.Losses)
	}

	for _, r := range t.Rounds {
		fmt.Fprintln(stdout)
		writeRound(stdout, r, names)
	}
	return nil
}

// TournamentEditCommand handles 'chessclub tournament edit'. Only given fields change.
type TournamentEditCommand struct {
	Tournament  string  `long:"tournament" short:"t" description:"Tournament id or unique prefix" required:"true"`
	Name        *string `long:"name" description:"New name"`
	Location    *string `long:"location" description:"New location"`
	StartDate   *string `long:"start" description:"New start date"`
	EndDate     *string `long:"end" description:"New end date, empty to clear"`
	Description *string `long:"description" description:"New description"`
	Rounds      *int    `long:"rounds" description:"New number of rounds, before the start only"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute implements the Command interface for TournamentEditCommand
func (c *TournamentEditCommand) Execute(args []string) error {
	env, err := openEnvironment(c.Global)
	if err != nil {
		return err
	}
	defer env.Close()

	t, err := env.store.GetTournament(c.Tournament)
	if err != nil {
		return err
	}
	patch := data.TournamentPatch{
		Name:           c.Name,
		Location:       c.Location,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		Description:    c.Description,
		NumberOfRounds: c.Rounds,
	}
	updated, err := patch.Apply(t)
	if err != nil {
		return err
	}
	if err := env.store.SaveTournament(updated); err != nil {
		return err
	}

	env.logger.Info("tournament updated", slog.String("tournament_id", updated.TournamentID))
	fmt.Fprintf(stdout, "Updated tournament %s (%s)\n", shortID(updated.TournamentID), updated.Name)
	return nil
}

// TournamentRemoveCommand handles 'chessclub tournament remove'
type TournamentRemoveCommand struct {
	Tournament string `long:"tournament" short:"t" description:"Tournament id or unique prefix" required:"true"`
	Force      bool   `long:"force" description:"Remove a tournament in progress"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute implements the Command interface for TournamentRemoveCommand.
// The tournament's journal goes with it.
func (c *TournamentRemoveCommand) Execute(args []string) error {
	env, err := openEnvironment(c.Global)
	if err != nil {
		return err
	}
	defer env.Close()

	t, err := env.store.GetTournament(c.Tournament)
	if err != nil {
		return err
	}
	if t.Status == data.StatusInProgress && !c.Force {
		return &CLIError{
			Code:        ExitStateError,
			Message:     fmt.Sprintf("Tournament %s is in progress", t.Name),
			Suggestions: []string{"Use --force to remove it anyway"},
		}
	}

	if _, err := env.store.DeleteTournament(t.TournamentID); err != nil {
		return err
	}
	if env.book != nil {
		if err := env.book.Remove(t.TournamentID); err != nil {
			env.logger.Warn("journal not removed", slog.String("tournament_id", t.TournamentID), slog.Any("error", err))
		}
	}

	env.logger.Info("tournament removed", slog.String("tournament_id", t.TournamentID))
	fmt.Fprintf(stdout, "Removed tournament %s (%s)\n", shortID(t.TournamentID), t.Name)
	return nil
}

// PlayerArgs collects federation ids given as arguments
type PlayerArgs struct {
	Players []string `positional-arg-name:"federation-id" required:"1"`
}

// TournamentSubscribeCommand handles 'chessclub tournament subscribe'
type TournamentSubscribeCommand struct {
	Tournament string     `long:"tournament" short:"t" description:"Tournament id or unique prefix" required:"true"`
	Args       PlayerArgs `positional-args:"yes" required:"yes"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute implements the Command interface for TournamentSubscribeCommand.
// Every id must be in the player store.
func (c *TournamentSubscribeCommand) Execute(args []string) error {
	env, err := openEnvironment(c.Global)
	if err != nil {
		return err
	}
	defer env.Close()

	t, err := env.store.GetTournament(c.Tournament)
	if err != nil {
		return err
	}
	for _, id := range c.Args.Players {
		if _, err := env.store.GetPlayer(id); err != nil {
			return &tournament.LookupError{PlayerID: id, Where: "player store", Err: err}
		}
	}

	already, err := env.director.Subscribe(t, c.Args.Players...)
	if err != nil {
		return err
	}
	if err := env.store.SaveTournament(t); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Subscribed %d players to %s, %d registered\n",
		len(c.Args.Players)-len(already), t.Name, len(t.Players))
	if len(already) > 0 {
		fmt.Fprintf(stdout, "Already registered: %s\n", strings.Join(already, ", "))
	}
	return nil
}

// TournamentUnsubscribeCommand handles 'chessclub tournament unsubscribe'
type TournamentUnsubscribeCommand struct {
	Tournament string     `long:"tournament" short:"t" description:"Tournament id or unique prefix" required:"true"`
	Args       PlayerArgs `positional-args:"yes" required:"yes"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute implements the Command interface for TournamentUnsubscribeCommand
func (c *TournamentUnsubscribeCommand) Execute(args []string) error {
	env, err := openEnvironment(c.Global)
	if err != nil {
		return err
	}
	defer env.Close()

	t, err := env.store.GetTournament(c.Tournament)
	if err != nil {
		return err
	}
	if err := env.director.Unsubscribe(t, c.Args.Players...); err != nil {
		return err
	}
	if err := env.store.SaveTournament(t); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Unsubscribed %d players from %s, %d registered\n",
		len(c.Args.Players), t.Name, len(t.Players))
	return nil
}

// TournamentStartCommand handles 'chessclub tournament start'
type TournamentStartCommand struct {
	Tournament string `long:"tournament" short:"t" description:"Tournament id or unique prefix" required:"true"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute implements the Command interface for TournamentStartCommand
func (c *TournamentStartCommand) Execute(args []string) error {
	env, err := openEnvironment(c.Global)
	if err != nil {
		return err
	}
	defer env.Close()

	t, err := env.store.GetTournament(c.Tournament)
	if err != nil {
		return err
	}
	result, err := env.director.Start(t)
	if err != nil {
		return err
	}
	if err := env.store.SaveTournament(t); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Started %s, %d rounds\n\n", t.Name, t.NumberOfRounds)
	return printPairing(env, t, result)
}

// TournamentResultCommand handles 'chessclub tournament result'.
// Rounds and boards are numbered from one.
type TournamentResultCommand struct {
	Tournament string `long:"tournament" short:"t" description:"Tournament id or unique prefix" required:"true"`
	Round      int    `long:"round" short:"r" description:"Round number, defaults to the current round"`
	Board      int    `long:"board" short:"b" description:"Board number" required:"true"`
	Score      string `long:"score" short:"s" description:"Score of the first player: 1, 0 or 0.5 (also ½, 1/2 or =)" required:"true"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute implements the Command interface for TournamentResultCommand
func (c *TournamentResultCommand) Execute(args []string) error {
	env, err := openEnvironment(c.Global)
	if err != nil {
		return err
	}
	defer env.Close()

	t, err := env.store.GetTournament(c.Tournament)
	if err != nil {
		return err
	}
	index := roundIndex(t, c.Round)
	if err := env.director.RecordMatch(t, index, c.Board-1, c.Score); err != nil {
		return err
	}
	if err := env.store.SaveTournament(t); err != nil {
		return err
	}

	names, err := playerNames(env.store)
	if err != nil {
		return err
	}
	round := t.Rounds[index]
	fmt.Fprintf(stdout, "%s, board %d: %s\n", round.Name, c.Board, formatMatch(round.Matches[c.Board-1], names))
	if tournament.Closeable(round) {
		fmt.Fprintf(stdout, "Every board has a result, close the round with 'chessclub tournament close -t %s'\n",
			shortID(t.TournamentID))
	}
	return nil
}

// TournamentCloseCommand handles 'chessclub tournament close'
type TournamentCloseCommand struct {
	Tournament string `long:"tournament" short:"t" description:"Tournament id or unique prefix" required:"true"`
	Round      int    `long:"round" short:"r" description:"Round number, defaults to the current round"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute implements the Command interface for TournamentCloseCommand
func (c *TournamentCloseCommand) Execute(args []string) error {
	env, err := openEnvironment(c.Global)
	if err != nil {
		return err
	}
	defer env.Close()

	t, err := env.store.GetTournament(c.Tournament)
	if err != nil {
		return err
	}
	index := roundIndex(t, c.Round)
	if err := env.director.CloseRound(t, index); err != nil {
		return err
	}
	if err := env.store.SaveTournament(t); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%s closed\n", t.Rounds[index].Name)
	return nil
}

// TournamentAdvanceCommand handles 'chessclub tournament advance'
type TournamentAdvanceCommand struct {
	Tournament string `long:"tournament" short:"t" description:"Tournament id or unique prefix" required:"true"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute implements the Command interface for TournamentAdvanceCommand
func (c *TournamentAdvanceCommand) Execute(args []string) error {
	env, err := openEnvironment(c.Global)
	if err != nil {
		return err
	}
	defer env.Close()

	t, err := env.store.GetTournament(c.Tournament)
	if err != nil {
		return err
	}
	result, err := env.director.Advance(t)
	if err != nil {
		return err
	}
	if err := env.store.SaveTournament(t); err != nil {
		return err
	}

	if t.Status == data.StatusFinished {
		names, err := playerNames(env.store)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s finished\n", t.Name)
		for _, s := range tournament.Standings(t) {
			fmt.Fprintf(stdout, "%3d. %-28s %4s\n", s.Rank, names.of(s.PlayerID), formatPoints(s.Points))
		}
		return nil
	}
	return printPairing(env, t, result)
}

// TournamentRatingsCommand handles 'chessclub tournament ratings'
type TournamentRatingsCommand struct {
	Tournament string `long:"tournament" short:"t" description:"Tournament id or unique prefix" required:"true"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute implements the Command interface for TournamentRatingsCommand.
// Each closed round is rated once.
func (c *TournamentRatingsCommand) Execute(args []string) error {
	env, err := openEnvironment(c.Global)
	if err != nil {
		return err
	}
	defer env.Close()

	t, err := env.store.GetTournament(c.Tournament)
	if err != nil {
		return err
	}
	pending := 0
	for _, r := range t.Rounds {
		if r.Status == data.RoundClosed && !r.RatingsApplied {
			pending++
		}
	}
	if pending == 0 {
		fmt.Fprintln(stdout, "No closed rounds waiting for ratings")
		return nil
	}

	// Players and the marked rounds are committed by the store in one step
	updates, err := env.director.ApplyPendingRatings(t, env.store)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Applied %d rating updates\n", len(updates))
	for _, u := range updates {
		fmt.Fprintf(stdout, "  %-10s %4d -> %4d (%+d, K %d) vs %s\n",
			u.PlayerID, u.OldRating, u.NewRating, u.Delta, u.KFactor, u.OpponentID)
	}
	return nil
}

// roundIndex converts a round number into an index, 0 meaning the current round
func roundIndex(t *data.Tournament, number int) int {
	if number == 0 {
		number = t.CurrentRound
	}
	return number - 1
}

type nameIndex map[string]string

func (n nameIndex) of(id string) string {
	if name, ok := n[id]; ok {
		return name
	}
	return id
}

func playerNames(store data.Storage) (nameIndex, error) {
	players, err := store.LoadPlayers()
	if err != nil {
		return nil, err
	}
	names := make(nameIndex, len(players))
	for i := range players {
		names[players[i].FederationID] = players[i].FullName()
	}
	return names, nil
}

func printPairing(env *environment, t *data.Tournament, result pairing.Result) error {
	names, err := playerNames(env.store)
	if err != nil {
		return err
	}
	round, _ := t.LastRound()
	writeRound(stdout, *round, names)
	if warning := result.Warning(); warning != nil {
		fmt.Fprintf(stdout, "Warning: %s\n", warning.Error())
	}
	return nil
}

func writeRound(w io.Writer, r data.Round, names nameIndex) {
	fmt.Fprintf(w, "%s (%s, started %s %s)\n", r.Name, r.Status, r.StartDate, r.StartTime)
	for i, m := range r.Matches {
		fmt.Fprintf(w, "%3d. %s\n", i+1, formatMatch(m, names))
	}
}

func formatMatch(m data.Match, names nameIndex) string {
	return fmt.Sprintf("%s %s - %s %s",
		names.of(m[0].PlayerID), formatScore(m[0]), formatScore(m[1]), names.of(m[1].PlayerID))
}

func formatScore(s data.Side) string {
	if !s.IsSet() {
		return "."
	}
	return formatPoints(s.Points())
}

func formatPoints(points float64) string {
	if points == 0.5 {
		return "½"
	}
	return strconv.FormatFloat(points, 'f', -1, 64)
}

package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pashagolub/chessclub/pkg/elo"
)

// Error types for storage operations
var (
	ErrStorageOperation   = errors.New("storage operation failed")
	ErrJSONSerialization  = errors.New("JSON serialization error")
	ErrAtomicWrite        = errors.New("atomic write operation failed")
	ErrCorruptedFile      = errors.New("corrupted file detected")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrPlayerExists       = errors.New("player already exists")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrAmbiguousID        = errors.New("tournament id prefix matches several tournaments")
)

// Storage defines the persistence contract for players and tournaments.
// Every call reads or rewrites the whole document.
type Storage interface {
	LoadPlayers() ([]Player, error)
	SavePlayers(players []Player) error
	GetPlayer(id string) (*Player, error)
	SavePlayer(player Player) error
	AddPlayer(player Player) error
	UpdatePlayers(players []Player) error
	DeletePlayer(id string) error

	LoadTournaments() ([]*Tournament, error)
	GetTournament(idOrPrefix string) (*Tournament, error)
	SaveTournament(t *Tournament) error
	DeleteTournament(id string) (*Tournament, error)

	CommitRatings(t *Tournament, players []Player) error
}

// FileStore keeps players and tournaments in two JSON documents
type FileStore struct {
	mu              sync.RWMutex // Protects concurrent operations
	playersPath     string
	tournamentsPath string
	atomicWrites    bool // Whether to use atomic writes for safety
	logger          *slog.Logger
}

// NewFileStore creates a store from the storage configuration
func NewFileStore(config StorageConfig, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FileStore{
		playersPath:     filepath.Join(config.DataDir, config.PlayersFile),
		tournamentsPath: filepath.Join(config.DataDir, config.TournamentsFile),
		atomicWrites:    config.AtomicWrites,
		logger:          logger,
	}
}

// PlayersPath returns the player document location
func (fs *FileStore) PlayersPath() string {
	return fs.playersPath
}

// TournamentsPath returns the tournament document location
func (fs *FileStore) TournamentsPath() string {
	return fs.tournamentsPath
}

// LoadPlayers returns every stored player sorted by surname then name
func (fs *FileStore) LoadPlayers() ([]Player, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	return fs.loadPlayers()
}

func (fs *FileStore) loadPlayers() ([]Player, error) {
	var players []Player
	if err := fs.readJSON(fs.playersPath, &players); err != nil {
		return nil, err
	}
	for i := range players {
		if err := players[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptedFile, fs.playersPath, err)
		}
		// K always follows from games played and rating
		players[i].KFactor = elo.KFactor(players[i].GamesPlayed, players[i].Elo)
	}
	SortPlayers(players)
	return players, nil
}

// SavePlayers replaces the player document
func (fs *FileStore) SavePlayers(players []Player) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.writeJSON(fs.playersPath, players)
}

// GetPlayer returns the player with the given federation id
func (fs *FileStore) GetPlayer(id string) (*Player, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	players, err := fs.loadPlayers()
	if err != nil {
		return nil, err
	}
	for i := range players {
		if players[i].FederationID == id {
			return &players[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
}

// SavePlayer inserts or replaces a player keyed by federation id
func (fs *FileStore) SavePlayer(player Player) error {
	return fs.upsertPlayer(player, true)
}

// AddPlayer inserts a new player, refusing duplicates
func (fs *FileStore) AddPlayer(player Player) error {
	return fs.upsertPlayer(player, false)
}

func (fs *FileStore) upsertPlayer(player Player, replace bool) error {
	if err := player.Validate(); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	players, err := fs.loadPlayers()
	if err != nil {
		return err
	}

	found := false
	for i := range players {
		if players[i].FederationID == player.FederationID {
			if !replace {
				return fmt.Errorf("%w: %s", ErrPlayerExists, player.FederationID)
			}
			players[i] = player
			found = true
			break
		}
	}
	if !found {
		players = append(players, player)
	}

	SortPlayers(players)
	if err := fs.writeJSON(fs.playersPath, players); err != nil {
		return err
	}
	fs.logger.Debug("player saved", slog.String("federation_id", player.FederationID), slog.Int("elo", player.Elo))
	return nil
}

// UpdatePlayers replaces existing players in a single write. Nothing is
// written when one of them is invalid or unknown.
func (fs *FileStore) UpdatePlayers(players []Player) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	stored, err := fs.replacePlayers(players)
	if err != nil {
		return err
	}
	return fs.writeJSON(fs.playersPath, stored)
}

// replacePlayers returns the stored players with the given ones swapped in
func (fs *FileStore) replacePlayers(players []Player) ([]Player, error) {
	for i := range players {
		if err := players[i].Validate(); err != nil {
			return nil, err
		}
	}

	stored, err := fs.loadPlayers()
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(stored))
	for i, p := range stored {
		index[p.FederationID] = i
	}
	for _, p := range players {
		i, ok := index[p.FederationID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, p.FederationID)
		}
		stored[i] = p
	}
	return stored, nil
}

// CommitRatings stores rated players together with the tournament marking
// their rounds as applied. The player document is restored when the
// tournament cannot be written.
func (fs *FileStore) CommitRatings(t *Tournament, players []Player) error {
	if t == nil {
		return fmt.Errorf("%w: tournament cannot be nil", ErrJSONSerialization)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	previous, err := fs.loadPlayers()
	if err != nil {
		return err
	}
	rated, err := fs.replacePlayers(players)
	if err != nil {
		return err
	}
	tournaments, err := fs.loadTournaments()
	if err != nil {
		return err
	}
	found := false
	for i := range tournaments {
		if tournaments[i].TournamentID == t.TournamentID {
			tournaments[i] = t
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrTournamentNotFound, t.TournamentID)
	}

	if err := fs.writeJSON(fs.playersPath, rated); err != nil {
		return err
	}
	if err := fs.writeJSON(fs.tournamentsPath, tournaments); err != nil {
		if restoreErr := fs.writeJSON(fs.playersPath, previous); restoreErr != nil {
			fs.logger.Error("failed to restore players after rating commit",
				slog.String("tournament_id", t.TournamentID),
				slog.Any("error", restoreErr))
		}
		return err
	}
	fs.logger.Debug("ratings committed",
		slog.String("tournament_id", t.TournamentID),
		slog.Int("players", len(players)))
	return nil
}

// DeletePlayer removes a player from the store
func (fs *FileStore) DeletePlayer(id string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	players, err := fs.loadPlayers()
	if err != nil {
		return err
	}
	for i := range players {
		if players[i].FederationID == id {
			players = append(players[:i], players[i+1:]...)
			return fs.writeJSON(fs.playersPath, players)
		}
	}
	return fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
}

// LoadTournaments returns every stored tournament ordered by start date
func (fs *FileStore) LoadTournaments() ([]*Tournament, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	return fs.loadTournaments()
}

func (fs *FileStore) loadTournaments() ([]*Tournament, error) {
	var tournaments []*Tournament
	if err := fs.readJSON(fs.tournamentsPath, &tournaments); err != nil {
		return nil, err
	}
	for _, t := range tournaments {
		if t.TournamentID == "" {
			return nil, fmt.Errorf("%w: %s: tournament without id", ErrCorruptedFile, fs.tournamentsPath)
		}
		if t.Players == nil {
			t.Players = Registry{}
		}
		if t.Rounds == nil {
			t.Rounds = []Round{}
		}
		if t.PairingHistory == nil {
			t.PairingHistory = PairingHistory{}
		}
	}
	sort.SliceStable(tournaments, func(i, j int) bool {
		return tournaments[i].StartDate < tournaments[j].StartDate
	})
	return tournaments, nil
}

// GetTournament finds a tournament by full id or unique id prefix
func (fs *FileStore) GetTournament(idOrPrefix string) (*Tournament, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	tournaments, err := fs.loadTournaments()
	if err != nil {
		return nil, err
	}
	return findTournament(tournaments, idOrPrefix)
}

func findTournament(tournaments []*Tournament, idOrPrefix string) (*Tournament, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return nil, fmt.Errorf("%w: empty id", ErrTournamentNotFound)
	}

	var match *Tournament
	for _, t := range tournaments {
		if t.TournamentID == idOrPrefix {
			return t, nil
		}
		if strings.HasPrefix(t.TournamentID, idOrPrefix) {
			if match != nil {
				return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, idOrPrefix)
			}
			match = t
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrTournamentNotFound, idOrPrefix)
	}
	return match, nil
}

// SaveTournament inserts or replaces the tournament as a whole
func (fs *FileStore) SaveTournament(t *Tournament) error {
	if t == nil {
		return fmt.Errorf("%w: tournament cannot be nil", ErrJSONSerialization)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	tournaments, err := fs.loadTournaments()
	if err != nil {
		return err
	}

	replaced := false
	for i := range tournaments {
		if tournaments[i].TournamentID == t.TournamentID {
			tournaments[i] = t
			replaced = true
			break
		}
	}
	if !replaced {
		tournaments = append(tournaments, t)
	}

	if err := fs.writeJSON(fs.tournamentsPath, tournaments); err != nil {
		return err
	}
	fs.logger.Debug("tournament saved", slog.String("tournament_id", t.TournamentID), slog.String("status", string(t.Status)))
	return nil
}

// DeleteTournament removes a tournament and returns it
func (fs *FileStore) DeleteTournament(id string) (*Tournament, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	tournaments, err := fs.loadTournaments()
	if err != nil {
		return nil, err
	}
	target, err := findTournament(tournaments, id)
	if err != nil {
		return nil, err
	}

	kept := tournaments[:0]
	for _, t := range tournaments {
		if t.TournamentID != target.TournamentID {
			kept = append(kept, t)
		}
	}
	if err := fs.writeJSON(fs.tournamentsPath, kept); err != nil {
		return nil, err
	}
	return target, nil
}

// readJSON decodes filename into v. A missing file leaves v empty.
func (fs *FileStore) readJSON(filename string, v any) error {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: cannot open %s: %v", ErrStorageOperation, filename, err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err == nil && info.Size() == 0 {
		return nil
	}

	if err := json.NewDecoder(file).Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptedFile, filename, err)
	}
	return nil
}

// writeJSON encodes v into filename, atomically when enabled
func (fs *FileStore) writeJSON(filename string, v any) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("%w: cannot create data directory: %v", ErrStorageOperation, err)
	}
	if fs.atomicWrites {
		return writeJSONAtomic(filename, v)
	}
	return writeJSONDirect(filename, v)
}

func writeJSONAtomic(filename string, v any) error {
	tempFile := filename + ".tmp"

	// Write to temporary file first
	file, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("%w: cannot create temp file: %v", ErrAtomicWrite, err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		_ = file.Close()
		_ = os.Remove(tempFile)
		return fmt.Errorf("%w: failed to encode %s: %v", ErrJSONSerialization, filename, err)
	}

	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(tempFile)
		return fmt.Errorf("%w: failed to sync %s: %v", ErrAtomicWrite, filename, err)
	}

	_ = file.Close()

	if err := os.Rename(tempFile, filename); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("%w: atomic rename failed: %v", ErrAtomicWrite, err)
	}

	return nil
}

func writeJSONDirect(filename string, v any) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("%w: cannot create %s: %v", ErrJSONSerialization, filename, err)
	}
	defer func() { _ = file.Close() }()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("%w: failed to encode %s: %v", ErrJSONSerialization, filename, err)
	}

	return file.Sync()
}

// SortPlayers orders players alphabetically by surname, name, then id
func SortPlayers(players []Player) {
	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if !strings.EqualFold(a.Surname, b.Surname) {
			return strings.ToLower(a.Surname) < strings.ToLower(b.Surname)
		}
		if !strings.EqualFold(a.Name, b.Name) {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
		return a.FederationID < b.FederationID
	})
}

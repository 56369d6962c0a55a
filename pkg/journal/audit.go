// Package journal keeps a tamper-evident record of what happened in each
// tournament and exports club reports. The record is an append-only JSON Lines
// file per tournament in which every entry carries the hash of its
// predecessor.
package journal

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pashagolub/chessclub/pkg/tournament"
)

// Error types for audit trail operations
var (
	ErrAuditLogCorrupted = errors.New("audit log corrupted or tampered")
	ErrNotInitialized    = errors.New("audit trail not initialized")
	ErrMissingTournament = errors.New("tournament ID cannot be empty")
)

// AuditEntry is a single line of the audit log
type AuditEntry struct {
	ID           string               `json:"id"`
	Timestamp    time.Time            `json:"timestamp"`
	EventType    tournament.EventType `json:"event_type"`
	TournamentID string               `json:"tournament_id"`

	Data map[string]any `json:"data"`

	// Integrity protection
	PreviousHash string `json:"previous_hash"`
	EntryHash    string `json:"entry_hash"`
	Sequence     uint64 `json:"sequence"`
}

// AuditTrail manages the append-only audit log of one tournament
type AuditTrail struct {
	tournamentID  string
	logFilePath   string
	file          *os.File
	mutex         sync.Mutex
	lastHash      string
	sequence      uint64
	isInitialized bool
	now           func() time.Time
}

// NewAuditTrail opens the audit log of a tournament in logDirectory, creating
// it when missing. An existing log is verified before new entries are appended.
func NewAuditTrail(tournamentID, logDirectory string) (*AuditTrail, error) {
	if tournamentID == "" {
		return nil, ErrMissingTournament
	}

	if err := os.MkdirAll(logDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	audit := &AuditTrail{
		tournamentID: tournamentID,
		logFilePath:  LogPath(logDirectory, tournamentID),
		now:          func() time.Time { return time.Now().UTC() },
	}
	if err := audit.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize audit trail: %w", err)
	}
	return audit, nil
}

// LogPath returns where the audit log of a tournament lives in logDirectory
func LogPath(logDirectory, tournamentID string) string {
	return filepath.Join(logDirectory, fmt.Sprintf("tournament_%s.jsonl", tournamentID))
}

func (a *AuditTrail) initialize() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	_, statErr := os.Stat(a.logFilePath)
	file, err := os.OpenFile(a.logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log file: %w", err)
	}
	a.file = file

	if statErr == nil {
		last, sequence, err := a.verifyChain()
		if err != nil {
			a.file.Close()
			a.file = nil
			return fmt.Errorf("audit log validation failed: %w", err)
		}
		a.lastHash = last
		a.sequence = sequence
	}

	a.isInitialized = true
	return nil
}

// verifyChain reads the whole log, checks sequence numbers and the hash chain,
// and returns the last hash and the next sequence number
func (a *AuditTrail) verifyChain() (string, uint64, error) {
	readFile, err := os.Open(a.logFilePath)
	if err != nil {
		return "", 0, err
	}
	defer readFile.Close()

	scanner := bufio.NewScanner(readFile)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var previousHash string
	sequence := uint64(0)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry AuditEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return "", 0, fmt.Errorf("%w: invalid JSON at sequence %d: %v", ErrAuditLogCorrupted, sequence, err)
		}
		if entry.Sequence != sequence {
			return "", 0, fmt.Errorf("%w: sequence mismatch at entry %d: got %d",
				ErrAuditLogCorrupted, sequence, entry.Sequence)
		}
		if entry.PreviousHash != previousHash {
			return "", 0, fmt.Errorf("%w: hash chain broken at sequence %d", ErrAuditLogCorrupted, sequence)
		}
		if entry.EntryHash != calculateEntryHash(&entry) {
			return "", 0, fmt.Errorf("%w: entry hash mismatch at sequence %d", ErrAuditLogCorrupted, sequence)
		}

		previousHash = entry.EntryHash
		sequence++
	}

	if err := scanner.Err(); err != nil {
		return "", 0, fmt.Errorf("error reading audit log: %w", err)
	}
	return previousHash, sequence, nil
}

// Log appends an event to the audit trail
func (a *AuditTrail) Log(eventType tournament.EventType, data map[string]any) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if !a.isInitialized {
		return ErrNotInitialized
	}
	if data == nil {
		data = map[string]any{}
	}

	entry := AuditEntry{
		ID:           uuid.NewString(),
		Timestamp:    a.now(),
		EventType:    eventType,
		TournamentID: a.tournamentID,
		Data:         data,
		PreviousHash: a.lastHash,
		Sequence:     a.sequence,
	}
	entry.EntryHash = calculateEntryHash(&entry)

	jsonData, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}
	if _, err := a.file.Write(append(jsonData, '\n')); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	if err := a.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync audit log: %w", err)
	}

	a.lastHash = entry.EntryHash
	a.sequence++
	return nil
}

// calculateEntryHash computes the SHA-256 hash of an entry's content,
// excluding EntryHash itself
func calculateEntryHash(entry *AuditEntry) string {
	hashContent := fmt.Sprintf("%s|%s|%s|%s|%s|%d|%s",
		entry.ID,
		entry.Timestamp.Format(time.RFC3339Nano),
		entry.EventType,
		entry.TournamentID,
		entry.PreviousHash,
		entry.Sequence,
		hashData(entry.Data))

	hash := sha256.Sum256([]byte(hashContent))
	return hex.EncodeToString(hash[:])
}

// hashData hashes the canonical JSON of the payload. encoding/json sorts map
// keys, so a payload read back from disk hashes the same as the original.
func hashData(data map[string]any) string {
	jsonData, _ := json.Marshal(data)
	hash := sha256.Sum256(jsonData)
	return hex.EncodeToString(hash[:])
}

// Close closes the audit trail and releases resources
func (a *AuditTrail) Close() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.file != nil {
		err := a.file.Close()
		a.file = nil
		a.isInitialized = false
		return err
	}
	return nil
}

// GetLogPath returns the path to the audit log file
func (a *AuditTrail) GetLogPath() string {
	return a.logFilePath
}

// GetSequence returns the number of entries written so far
func (a *AuditTrail) GetSequence() uint64 {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.sequence
}

// QueryOptions defines filtering criteria for audit log queries
type QueryOptions struct {
	EventTypes []tournament.EventType `json:"event_types,omitempty"`
	StartTime  *time.Time             `json:"start_time,omitempty"`
	EndTime    *time.Time             `json:"end_time,omitempty"`
	PlayerID   string                 `json:"player_id,omitempty"` // Entries mentioning the player
	Round      int                    `json:"round,omitempty"`     // Entries of one round number
	Limit      int                    `json:"limit,omitempty"`
	Offset     int                    `json:"offset,omitempty"`
}

// QueryResult contains the results of an audit log query
type QueryResult struct {
	Entries      []AuditEntry `json:"entries"`
	TotalCount   int          `json:"total_count"`
	HasMore      bool         `json:"has_more"`
	QueryOptions QueryOptions `json:"query_options"`
}

// Query searches the audit log for entries matching the specified criteria
func (a *AuditTrail) Query(options QueryOptions) (*QueryResult, error) {
	a.mutex.Lock()
	initialized := a.isInitialized
	a.mutex.Unlock()
	if !initialized {
		return nil, ErrNotInitialized
	}

	entries, err := ReadEntries(a.logFilePath)
	if err != nil {
		return nil, err
	}

	var allMatches []AuditEntry
	for i := range entries {
		if matchesQuery(&entries[i], options) {
			allMatches = append(allMatches, entries[i])
		}
	}

	totalCount := len(allMatches)
	start := min(options.Offset, totalCount)
	end := start + options.Limit
	if options.Limit <= 0 || end > totalCount {
		end = totalCount
	}

	result := &QueryResult{
		Entries:      allMatches[start:end],
		TotalCount:   totalCount,
		HasMore:      end < totalCount,
		QueryOptions: options,
	}
	if result.Entries == nil {
		result.Entries = []AuditEntry{}
	}
	return result, nil
}

// ReadEntries loads every well-formed entry of a log file. A missing file
// yields no entries.
func ReadEntries(path string) ([]AuditEntry, error) {
	readFile, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit log for reading: %w", err)
	}
	defer readFile.Close()

	var entries []AuditEntry
	scanner := bufio.NewScanner(readFile)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry AuditEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue // VerifyIntegrity reports malformed lines
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading audit log: %w", err)
	}
	return entries, nil
}

func matchesQuery(entry *AuditEntry, options QueryOptions) bool {
	if len(options.EventTypes) > 0 {
		matches := false
		for _, eventType := range options.EventTypes {
			if entry.EventType == eventType {
				matches = true
				break
			}
		}
		if !matches {
			return false
		}
	}

	if options.StartTime != nil && entry.Timestamp.Before(*options.StartTime) {
		return false
	}
	if options.EndTime != nil && entry.Timestamp.After(*options.EndTime) {
		return false
	}

	if options.Round > 0 {
		if round, ok := entry.Data["round"].(float64); !ok || int(round) != options.Round {
			return false
		}
	}

	if options.PlayerID != "" && !mentionsPlayer(entry.Data, options.PlayerID) {
		return false
	}
	return true
}

func mentionsPlayer(data map[string]any, id string) bool {
	for _, key := range []string{"player_id", "opponent_id", "player_a", "player_b"} {
		if v, ok := data[key].(string); ok && v == id {
			return true
		}
	}
	if players, ok := data["players"].([]any); ok {
		for _, p := range players {
			if s, ok := p.(string); ok && s == id {
				return true
			}
		}
	}
	return false
}

// GetPlayerHistory retrieves all entries that mention a player
func (a *AuditTrail) GetPlayerHistory(playerID string) ([]AuditEntry, error) {
	result, err := a.Query(QueryOptions{PlayerID: playerID})
	if err != nil {
		return nil, err
	}
	return result.Entries, nil
}

// GetTournamentHistory retrieves every entry of the tournament
func (a *AuditTrail) GetTournamentHistory() ([]AuditEntry, error) {
	result, err := a.Query(QueryOptions{})
	if err != nil {
		return nil, err
	}
	return result.Entries, nil
}

// VerifyIntegrity performs a complete integrity check of the audit log
func (a *AuditTrail) VerifyIntegrity() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if !a.isInitialized {
		return ErrNotInitialized
	}
	_, _, err := a.verifyChain()
	return err
}

// GetStatistics returns summary information about the audit log
func (a *AuditTrail) GetStatistics() (*AuditStatistics, error) {
	result, err := a.Query(QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to generate statistics: %w", err)
	}

	stats := &AuditStatistics{
		TournamentID: a.tournamentID,
		TotalEntries: result.TotalCount,
		EventCounts:  make(map[tournament.EventType]int),
	}
	if len(result.Entries) > 0 {
		stats.FirstEntry = &result.Entries[0].Timestamp
		stats.LastEntry = &result.Entries[len(result.Entries)-1].Timestamp
	}
	for _, entry := range result.Entries {
		stats.EventCounts[entry.EventType]++
	}
	return stats, nil
}

// AuditStatistics provides summary information about the audit log
type AuditStatistics struct {
	TournamentID string                       `json:"tournament_id"`
	TotalEntries int                          `json:"total_entries"`
	EventCounts  map[tournament.EventType]int `json:"event_counts"`
	FirstEntry   *time.Time                   `json:"first_entry,omitempty"`
	LastEntry    *time.Time                   `json:"last_entry,omitempty"`
}

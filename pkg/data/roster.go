package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrRosterParsing is returned when the roster cannot be read at all
var ErrRosterParsing = errors.New("roster parsing error")

// RosterColumns lists the recognised roster header names
var RosterColumns = []string{"federation_id", "surname", "name", "date_of_birth", "elo"}

// RosterResult contains the result of parsing a roster file
type RosterResult struct {
	Players        []Player           `json:"players"`
	ParseErrors    []RosterParseError `json:"parse_errors,omitempty"`
	SkippedRows    []int              `json:"skipped_rows,omitempty"`
	TotalRows      int                `json:"total_rows"`
	SuccessfulRows int                `json:"successful_rows"`
}

// RosterParseError represents an error encountered while parsing a roster row
type RosterParseError struct {
	RowNumber int    `json:"row_number"`
	Field     string `json:"field"`
	Value     string `json:"value"`
	Message   string `json:"error"`
}

// Error implements the error interface
func (e RosterParseError) Error() string {
	return fmt.Sprintf("row %d, field '%s' (value: '%s'): %s", e.RowNumber, e.Field, e.Value, e.Message)
}

// ParseRoster reads players from a CSV roster with a header row.
// Rows that fail validation are skipped and reported, the rest are returned.
func ParseRoster(reader io.Reader, delimiter rune, config ValidationConfig) (*RosterResult, error) {
	csvReader := csv.NewReader(reader)
	if delimiter != 0 {
		csvReader.Comma = delimiter
	}
	csvReader.TrimLeadingSpace = true

	result := &RosterResult{
		Players:     make([]Player, 0),
		ParseErrors: make([]RosterParseError, 0),
		SkippedRows: make([]int, 0),
	}

	var columnMap map[string]int
	seen := make(map[string]int)
	rowNumber := 0

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read CSV: %v", ErrRosterParsing, err)
		}

		rowNumber++
		if rowNumber == 1 {
			columnMap = buildRosterColumnMap(record)
			for _, required := range []string{"federation_id", "surname", "name", "elo"} {
				if _, ok := columnMap[required]; !ok {
					return nil, fmt.Errorf("%w: missing column %q", ErrRosterParsing, required)
				}
			}
			continue
		}
		result.TotalRows++

		player, parseErrors := parseRosterRow(record, columnMap, config, rowNumber)
		if len(parseErrors) == 0 {
			if first, dup := seen[player.FederationID]; dup {
				parseErrors = append(parseErrors, RosterParseError{
					RowNumber: rowNumber,
					Field:     "federation_id",
					Value:     player.FederationID,
					Message:   fmt.Sprintf("duplicate of row %d", first),
				})
			}
		}
		if len(parseErrors) > 0 {
			result.ParseErrors = append(result.ParseErrors, parseErrors...)
			result.SkippedRows = append(result.SkippedRows, rowNumber)
			continue
		}

		seen[player.FederationID] = rowNumber
		result.Players = append(result.Players, *player)
		result.SuccessfulRows++
	}

	if rowNumber == 0 {
		return nil, fmt.Errorf("%w: empty roster", ErrRosterParsing)
	}

	return result, nil
}

// buildRosterColumnMap maps normalised header names to column indices
func buildRosterColumnMap(headers []string) map[string]int {
	columnMap := make(map[string]int)
	for i, header := range headers {
		key := strings.ToLower(strings.TrimSpace(header))
		key = strings.ReplaceAll(key, " ", "_")
		switch key {
		case "id", "fide_id":
			key = "federation_id"
		case "first_name":
			key = "name"
		case "last_name":
			key = "surname"
		case "dob", "birth_date":
			key = "date_of_birth"
		case "rating":
			key = "elo"
		}
		if _, dup := columnMap[key]; !dup {
			columnMap[key] = i
		}
	}
	return columnMap
}

func parseRosterRow(record []string, columnMap map[string]int, config ValidationConfig, rowNumber int) (*Player, []RosterParseError) {
	getColumn := func(field string) string {
		if index, exists := columnMap[field]; exists && index < len(record) {
			return strings.TrimSpace(record[index])
		}
		return ""
	}

	eloValue := getColumn("elo")
	rating, err := strconv.Atoi(eloValue)
	if err != nil {
		return nil, []RosterParseError{{
			RowNumber: rowNumber,
			Field:     "elo",
			Value:     eloValue,
			Message:   "rating must be an integer",
		}}
	}

	player, err := NewPlayer(getColumn("federation_id"), getColumn("surname"), getColumn("name"), getColumn("date_of_birth"), rating, config)
	if err != nil {
		field := "federation_id"
		switch {
		case errors.Is(err, ErrMissingPlayerName):
			field = "name"
		case errors.Is(err, ErrInvalidElo):
			field = "elo"
		case errors.Is(err, ErrInvalidDate):
			field = "date_of_birth"
		}
		return nil, []RosterParseError{{
			RowNumber: rowNumber,
			Field:     field,
			Value:     getColumn(field),
			Message:   err.Error(),
		}}
	}

	return player, nil
}

package data

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoster(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		delimiter   rune
		wantCount   int
		wantSkipped []int
		checkFirst  func(*testing.T, Player)
	}{
		{
			name: "valid roster",
			content: `federation_id,surname,name,date_of_birth,elo
FR1,Dupont,Marie,1990-05-17,1500
FR2,Martin,Luc,,1820`,
			wantCount: 2,
			checkFirst: func(t *testing.T, p Player) {
				assert.Equal(t, "FR1", p.FederationID)
				assert.Equal(t, "Dupont", p.Surname)
				assert.Equal(t, "1990-05-17", p.DateOfBirth)
				assert.Equal(t, 1500, p.Elo)
				assert.Equal(t, 40, p.KFactor)
			},
		},
		{
			name: "header aliases and semicolons",
			content: `ID;Last Name;First Name;Rating
FR9;Leroy;Anne;2100`,
			delimiter: ';',
			wantCount: 1,
			checkFirst: func(t *testing.T, p Player) {
				assert.Equal(t, "FR9", p.FederationID)
				assert.Equal(t, "Leroy", p.Surname)
				assert.Equal(t, "Anne", p.Name)
				assert.Equal(t, 2100, p.Elo)
			},
		},
		{
			name: "invalid rows are skipped",
			content: `federation_id,surname,name,elo
FR1,Dupont,Marie,1500
,Nobody,Here,1500
FR3,Low,Rated,900
FR4,Bad,Number,abc
FR1,Dupont,Again,1600`,
			wantCount:   1,
			wantSkipped: []int{3, 4, 5, 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseRoster(strings.NewReader(tt.content), tt.delimiter, DefaultValidationConfig())
			require.NoError(t, err)

			assert.Len(t, result.Players, tt.wantCount)
			assert.Equal(t, tt.wantCount, result.SuccessfulRows)
			if tt.wantSkipped == nil {
				assert.Empty(t, result.SkippedRows)
			} else {
				assert.Equal(t, tt.wantSkipped, result.SkippedRows)
				assert.Len(t, result.ParseErrors, len(tt.wantSkipped))
			}
			if tt.checkFirst != nil {
				tt.checkFirst(t, result.Players[0])
			}
		})
	}
}

func TestParseRoster_Errors(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := ParseRoster(strings.NewReader(""), 0, DefaultValidationConfig())
		assert.ErrorIs(t, err, ErrRosterParsing)
	})

	t.Run("missing required column", func(t *testing.T) {
		_, err := ParseRoster(strings.NewReader("federation_id,surname,name\nFR1,A,B\n"), 0, DefaultValidationConfig())
		assert.ErrorIs(t, err, ErrRosterParsing)
		assert.Contains(t, err.Error(), "elo")
	})

	t.Run("error fields", func(t *testing.T) {
		content := "federation_id,surname,name,elo\nFR1,Low,Rated,900\n"
		result, err := ParseRoster(strings.NewReader(content), 0, DefaultValidationConfig())
		require.NoError(t, err)
		require.Len(t, result.ParseErrors, 1)
		assert.Equal(t, "elo", result.ParseErrors[0].Field)
		assert.Equal(t, 2, result.ParseErrors[0].RowNumber)
		assert.Contains(t, result.ParseErrors[0].Error(), "row 2")
	})
}

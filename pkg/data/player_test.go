package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pashagolub/chessclub/pkg/elo"
)

func TestNewPlayer(t *testing.T) {
	config := DefaultValidationConfig()

	tests := []struct {
		name    string
		id      string
		surname string
		given   string
		dob     string
		rating  int
		wantErr error
		wantDOB string
		wantK   int
	}{
		{
			name: "valid", id: "FR123", surname: "Dupont", given: "Marie",
			dob: "1990-05-17", rating: 1500, wantDOB: "1990-05-17", wantK: elo.KNewPlayer,
		},
		{
			name: "dob in another format", id: "FR124", surname: "Martin", given: "Luc",
			dob: "05/17/1990", rating: 1800, wantDOB: "1990-05-17", wantK: elo.KNewPlayer,
		},
		{
			name: "no dob", id: "FR125", surname: "Leroy", given: "Anne",
			rating: 2500, wantK: elo.KNewPlayer,
		},
		{name: "missing id", surname: "A", given: "B", rating: 1500, wantErr: ErrMissingPlayerID},
		{name: "missing name", id: "X", surname: "A", rating: 1500, wantErr: ErrMissingPlayerName},
		{name: "rating too low", id: "X", surname: "A", given: "B", rating: 999, wantErr: ErrInvalidElo},
		{name: "rating too high", id: "X", surname: "A", given: "B", rating: 2501, wantErr: ErrInvalidElo},
		{name: "bad dob", id: "X", surname: "A", given: "B", dob: "not a date", rating: 1500, wantErr: ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPlayer(tt.id, tt.surname, tt.given, tt.dob, tt.rating, config)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, p.FederationID)
			assert.Equal(t, tt.wantDOB, p.DateOfBirth)
			assert.Equal(t, tt.rating, p.Elo)
			assert.Equal(t, tt.wantK, p.KFactor)
			assert.Zero(t, p.GamesPlayed)
		})
	}
}

func TestPlayer_RatingRoundTrip(t *testing.T) {
	p, err := NewPlayer("FR1", "Dupont", "Marie", "", 1500, DefaultValidationConfig())
	require.NoError(t, err)

	r := p.Rating()
	assert.Equal(t, "FR1", r.ID)

	updated, _ := elo.ApplyGame(r, "FR2", 1500, elo.Win)
	p.SetRating(updated)

	assert.Equal(t, 1520, p.Elo)
	assert.Equal(t, 1, p.GamesPlayed)
	assert.Equal(t, elo.KNewPlayer, p.KFactor)
	assert.Equal(t, "Dupont Marie", p.FullName())
}

func TestPlayerPatch_Apply(t *testing.T) {
	config := DefaultValidationConfig()
	base := Player{Surname: "Dupont", Name: "Marie", FederationID: "FR1", Elo: 1500, KFactor: 40, GamesPlayed: 45}

	t.Run("empty patch", func(t *testing.T) {
		patch := PlayerPatch{}
		assert.True(t, patch.IsEmpty())
		got, err := patch.Apply(base, config)
		require.NoError(t, err)
		assert.Equal(t, base, got)
	})

	t.Run("rating correction recomputes K", func(t *testing.T) {
		rating := 2450
		got, err := PlayerPatch{Elo: &rating}.Apply(base, config)
		require.NoError(t, err)
		assert.Equal(t, 2450, got.Elo)
		assert.Equal(t, elo.KMaster, got.KFactor)
		assert.Equal(t, 1500, base.Elo, "original must be untouched")
	})

	t.Run("rename", func(t *testing.T) {
		surname := " Durand "
		got, err := PlayerPatch{Surname: &surname}.Apply(base, config)
		require.NoError(t, err)
		assert.Equal(t, "Durand", got.Surname)
		assert.Equal(t, 40, got.KFactor)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		empty := ""
		_, err := PlayerPatch{Name: &empty}.Apply(base, config)
		assert.ErrorIs(t, err, ErrMissingPlayerName)
	})

	t.Run("rating out of bounds", func(t *testing.T) {
		rating := 3000
		_, err := PlayerPatch{Elo: &rating}.Apply(base, config)
		assert.ErrorIs(t, err, ErrInvalidElo)
	})
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "2024-03-09", want: "2024-03-09"},
		{input: "March 9, 2024", want: "2024-03-09"},
		{input: "2024/03/09", want: "2024-03-09"},
		{input: "  ", wantErr: true},
		{input: "tomorrow-ish", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeDate(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	zero, err := ParseDateOrZero("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	parsed, err := ParseDateOrZero("2024-03-09")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), parsed)
}

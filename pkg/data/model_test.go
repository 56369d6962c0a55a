package data

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func score(v float64) *float64 {
	return &v
}

func TestMatch_JSONShape(t *testing.T) {
	tests := []struct {
		name  string
		match Match
		want  string
	}{
		{
			name:  "unplayed",
			match: NewMatch("A", "B"),
			want:  `[["A",""],["B",""]]`,
		},
		{
			name:  "win for A",
			match: Match{{PlayerID: "A", Score: score(1)}, {PlayerID: "B", Score: score(0)}},
			want:  `[["A",1],["B",0]]`,
		},
		{
			name:  "draw",
			match: Match{{PlayerID: "C", Score: score(0.5)}, {PlayerID: "D", Score: score(0.5)}},
			want:  `[["C",0.5],["D",0.5]]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.match)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			var decoded Match
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tt.match.IsSet(), decoded.IsSet())
			assert.Equal(t, tt.match[0].Points(), decoded[0].Points())
			assert.Equal(t, tt.match[1].Points(), decoded[1].Points())
		})
	}
}

func TestSide_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantSet bool
		want    float64
		wantErr bool
	}{
		{name: "number", input: `["A", 1]`, wantSet: true, want: 1},
		{name: "numeric string", input: `["A", "0.5"]`, wantSet: true, want: 0.5},
		{name: "empty string", input: `["A", ""]`},
		{name: "null", input: `["A", null]`},
		{name: "garbage string", input: `["A", "win"]`, wantErr: true},
		{name: "score above one", input: `["A", 2]`, wantErr: true},
		{name: "negative score", input: `["A", -1]`, wantErr: true},
		{name: "string score out of range", input: `["A", "1.5"]`, wantErr: true},
		{name: "one element", input: `["A"]`, wantErr: true},
		{name: "not an array", input: `{"id":"A"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var side Side
			err := json.Unmarshal([]byte(tt.input), &side)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "A", side.PlayerID)
			assert.Equal(t, tt.wantSet, side.IsSet())
			assert.Equal(t, tt.want, side.Points())
		})
	}
}

func TestPairingHistory(t *testing.T) {
	history := PairingHistory{{"A", "B"}}

	assert.True(t, history.Contains("A", "B"))
	assert.True(t, history.Contains("B", "A"), "order must not matter")
	assert.False(t, history.Contains("A", "C"))

	extended := history.With(Pair{"C", "D"})
	assert.Len(t, extended, 2)
	assert.Len(t, history, 1, "With must not modify the receiver")
	assert.True(t, extended.Contains("D", "C"))
}

func TestRegistry(t *testing.T) {
	r := Registry{"B": 1, "A": 0.5, "C": 0}

	assert.Equal(t, []string{"A", "B", "C"}, r.IDs())
	assert.Equal(t, 1.5, r.TotalPoints())

	clone := r.Clone()
	clone["A"] = 3
	assert.Equal(t, 0.5, r["A"])
}

func TestRound_Complete(t *testing.T) {
	now := time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC)

	t.Run("empty round is complete", func(t *testing.T) {
		assert.True(t, NewRound(1, nil, now).Complete())
	})

	t.Run("unset match keeps it open", func(t *testing.T) {
		played, err := RecordResult(NewMatch("A", "B"), 1)
		require.NoError(t, err)
		r := NewRound(2, []Match{played, NewMatch("C", "D")}, now)
		assert.False(t, r.Complete())

		r.Matches[1], err = RecordResult(r.Matches[1], 0.5)
		require.NoError(t, err)
		assert.True(t, r.Complete())
	})

	t.Run("stamps", func(t *testing.T) {
		r := NewRound(3, nil, now)
		assert.Equal(t, "Round 3", r.Name)
		assert.Equal(t, "2024-03-09", r.StartDate)
		assert.Equal(t, "18:30:00", r.StartTime)
		assert.NotEmpty(t, r.RoundID)
		assert.True(t, r.IsOpen())
		assert.NotNil(t, r.Matches)
	})
}

func TestTournament_Clone(t *testing.T) {
	played, err := RecordResult(NewMatch("A", "B"), 1)
	require.NoError(t, err)

	original := &Tournament{
		TournamentID:   "t1",
		Players:        Registry{"A": 1, "B": 0},
		Rounds:         []Round{{Number: 1, Matches: []Match{played}}},
		PairingHistory: PairingHistory{{"A", "B"}},
	}

	clone := original.Clone()
	clone.Players["A"] = 5
	*clone.Rounds[0].Matches[0][0].Score = 0
	clone.PairingHistory[0] = Pair{"X", "Y"}
	clone.Rounds[0].Status = RoundClosed

	assert.Equal(t, 1.0, original.Players["A"])
	assert.Equal(t, 1.0, original.Rounds[0].Matches[0][0].Points())
	assert.Equal(t, Pair{"A", "B"}, original.PairingHistory[0])
	assert.Empty(t, original.Rounds[0].Status)
}

func TestTournament_JSONRoundTrip(t *testing.T) {
	played, err := RecordResult(NewMatch("A", "B"), 0.5)
	require.NoError(t, err)

	original := &Tournament{
		TournamentID:   "t1",
		Name:           "Spring Open",
		Location:       "Club hall",
		StartDate:      "2024-03-09",
		Players:        Registry{"A": 0.5, "B": 0.5},
		Rounds:         []Round{{Number: 1, Name: "Round 1", Matches: []Match{played}, Status: RoundClosed}},
		PairingHistory: PairingHistory{{"A", "B"}},
		CurrentRound:   1,
		NumberOfRounds: 1,
		Status:         StatusInProgress,
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"matches":[[["A",0.5],["B",0.5]]]`)
	assert.Contains(t, string(data), `"pairing_history":[["A","B"]]`)

	var decoded Tournament
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original.Players, decoded.Players)
	assert.Equal(t, original.PairingHistory, decoded.PairingHistory)
	assert.Equal(t, StatusInProgress, decoded.Status)
	assert.True(t, decoded.Rounds[0].Complete())
}

func TestTournamentStatus_String(t *testing.T) {
	assert.Equal(t, "upcoming", StatusUpcoming.String())
	assert.Equal(t, "in progress", StatusInProgress.String())
	assert.Equal(t, "finished", StatusFinished.String())
	assert.Equal(t, "unknown", TournamentStatus("paused").String())
}

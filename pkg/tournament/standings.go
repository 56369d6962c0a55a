package tournament

import (
	"sort"

	"github.com/pashagolub/chessclub/pkg/data"
	"github.com/pashagolub/chessclub/pkg/elo"
)

// Standing is one line of the tournament table
type Standing struct {
	Rank     int     `json:"rank"`
	PlayerID string  `json:"player_id"`
	Points   float64 `json:"points"`
	Played   int     `json:"played"`
	Wins     int     `json:"wins"`
	Draws    int     `json:"draws"`
	Losses   int     `json:"losses"`
}

// Standings returns the table ordered by points, then player id. Players on
// equal points share a rank. Game counts come from closed rounds only, the
// same rounds that contributed the points.
func Standings(t *data.Tournament) []Standing {
	rows := make(map[string]*Standing, len(t.Players))
	for id, points := range t.Players {
		rows[id] = &Standing{PlayerID: id, Points: points}
	}

	for _, r := range t.Rounds {
		if r.Status != data.RoundClosed {
			continue
		}
		for _, m := range r.Matches {
			for _, side := range m {
				row, ok := rows[side.PlayerID]
				if !ok || !side.IsSet() {
					continue
				}
				row.Played++
				switch side.Points() {
				case elo.Win:
					row.Wins++
				case elo.Loss:
					row.Losses++
				default:
					row.Draws++
				}
			}
		}
	}

	table := make([]Standing, 0, len(rows))
	for _, row := range rows {
		table = append(table, *row)
	}
	sort.Slice(table, func(i, j int) bool {
		if table[i].Points != table[j].Points {
			return table[i].Points > table[j].Points
		}
		return table[i].PlayerID < table[j].PlayerID
	})

	for i := range table {
		if i > 0 && table[i].Points == table[i-1].Points {
			table[i].Rank = table[i-1].Rank
		} else {
			table[i].Rank = i + 1
		}
	}
	return table
}


package data

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pashagolub/chessclub/pkg/elo"
)

// Error types for player validation
var (
	ErrMissingPlayerID   = errors.New("player federation id is required")
	ErrMissingPlayerName = errors.New("player surname and name are required")
	ErrInvalidElo        = errors.New("player rating is outside the accepted range")
	ErrInvalidGames      = errors.New("games played cannot be negative")
)

// Player is a club member as kept in the player store
type Player struct {
	Surname      string `json:"surname"`
	Name         string `json:"name"`
	DateOfBirth  string `json:"date_of_birth"`
	FederationID string `json:"federation_id"`
	Elo          int    `json:"elo"`
	KFactor      int    `json:"k_factor"`
	GamesPlayed  int    `json:"games_played"`
}

// ValidationConfig holds player validation rules
type ValidationConfig struct {
	MinElo int // Lowest rating accepted when registering a player
	MaxElo int // Highest rating accepted when registering a player
}

// DefaultValidationConfig returns the club's registration bounds
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MinElo: 1000,
		MaxElo: 2500,
	}
}

// NewPlayer creates a validated player with a fresh K-factor
func NewPlayer(federationID, surname, name, dateOfBirth string, rating int, config ValidationConfig) (*Player, error) {
	p := &Player{
		Surname:      strings.TrimSpace(surname),
		Name:         strings.TrimSpace(name),
		FederationID: strings.TrimSpace(federationID),
		Elo:          rating,
	}

	if dateOfBirth != "" {
		dob, err := NormalizeDate(dateOfBirth)
		if err != nil {
			return nil, fmt.Errorf("date of birth: %w", err)
		}
		p.DateOfBirth = dob
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := config.checkElo(rating); err != nil {
		return nil, err
	}

	p.KFactor = elo.KFactor(p.GamesPlayed, p.Elo)
	return p, nil
}

// Validate checks the structural invariants of a stored player
func (p *Player) Validate() error {
	if p.FederationID == "" {
		return ErrMissingPlayerID
	}
	if p.Surname == "" || p.Name == "" {
		return fmt.Errorf("%w: %s", ErrMissingPlayerName, p.FederationID)
	}
	if p.GamesPlayed < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidGames, p.FederationID)
	}
	return nil
}

// FullName returns "Surname Name"
func (p *Player) FullName() string {
	return strings.TrimSpace(p.Surname + " " + p.Name)
}

// Rating returns the rating-relevant view of the player
func (p *Player) Rating() elo.Rating {
	return elo.Rating{
		ID:          p.FederationID,
		Elo:         p.Elo,
		KFactor:     p.KFactor,
		GamesPlayed: p.GamesPlayed,
	}
}

// SetRating stores a rating computed by the elo package
func (p *Player) SetRating(r elo.Rating) {
	p.Elo = r.Elo
	p.KFactor = r.KFactor
	p.GamesPlayed = r.GamesPlayed
}

func (c ValidationConfig) checkElo(rating int) error {
	if rating < c.MinElo || rating > c.MaxElo {
		return fmt.Errorf("%w: %d not in %d-%d", ErrInvalidElo, rating, c.MinElo, c.MaxElo)
	}
	return nil
}

// PlayerPatch carries optional updates; nil fields are left untouched
type PlayerPatch struct {
	Surname     *string
	Name        *string
	DateOfBirth *string
	Elo         *int
}

// IsEmpty reports whether the patch changes nothing
func (pp PlayerPatch) IsEmpty() bool {
	return pp.Surname == nil && pp.Name == nil && pp.DateOfBirth == nil && pp.Elo == nil
}

// Apply returns a copy of p with the patch applied. A manual rating
// correction recomputes the K-factor.
func (pp PlayerPatch) Apply(p Player, config ValidationConfig) (Player, error) {
	if pp.Surname != nil {
		p.Surname = strings.TrimSpace(*pp.Surname)
	}
	if pp.Name != nil {
		p.Name = strings.TrimSpace(*pp.Name)
	}
	if pp.DateOfBirth != nil {
		dob, err := NormalizeDate(*pp.DateOfBirth)
		if err != nil {
			return Player{}, fmt.Errorf("date of birth: %w", err)
		}
		p.DateOfBirth = dob
	}
	if pp.Elo != nil {
		if err := config.checkElo(*pp.Elo); err != nil {
			return Player{}, err
		}
		p.Elo = *pp.Elo
		p.KFactor = elo.KFactor(p.GamesPlayed, p.Elo)
	}

	if err := p.Validate(); err != nil {
		return Player{}, err
	}
	return p, nil
}

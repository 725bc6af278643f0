package rankings

import "fmt"

// Weights is the tunable signal table. Every field is added to the score when
// its condition holds; zero disables a signal.
type Weights struct {
	SharedTeamSeason  float64 `koanf:"shared_team_season" json:"sharedTeamSeason"`
	SharedTeamOnly    float64 `koanf:"shared_team_only" json:"sharedTeamOnly"`
	SharedPosition    float64 `koanf:"shared_position" json:"sharedPosition"`
	SameNationality   float64 `koanf:"same_nationality" json:"sameNationality"`
	BothCaptains      float64 `koanf:"both_captains" json:"bothCaptains"`
	SharedShirtNumber float64 `koanf:"shared_shirt_number" json:"sharedShirtNumber"`
	CloseBirthYear    float64 `koanf:"close_birth_year" json:"closeBirthYear"`
	BirthYearWindow   int     `koanf:"birth_year_window" json:"birthYearWindow"`

	// League overlap. SharedLeague applies when no team level signal fired,
	// SharedLeagueWithTeam when one did. Setting both to the same value gives
	// an unconditional league bonus.
	SharedLeague         float64 `koanf:"shared_league" json:"sharedLeague"`
	SharedLeagueWithTeam float64 `koanf:"shared_league_with_team" json:"sharedLeagueWithTeam"`
}

func DefaultWeights() Weights {
	return Weights{
		SharedTeamSeason:  0.15,
		SharedTeamOnly:    0.05,
		SharedPosition:    0.10,
		SameNationality:   0.07,
		BothCaptains:      0.03,
		SharedShirtNumber: 0.02,
		CloseBirthYear:    0.03,
		BirthYearWindow:   2,
	}
}

func (w Weights) Validate() error {
	fields := map[string]float64{
		"shared_team_season":      w.SharedTeamSeason,
		"shared_team_only":        w.SharedTeamOnly,
		"shared_position":         w.SharedPosition,
		"same_nationality":        w.SameNationality,
		"both_captains":           w.BothCaptains,
		"shared_shirt_number":     w.SharedShirtNumber,
		"close_birth_year":        w.CloseBirthYear,
		"shared_league":           w.SharedLeague,
		"shared_league_with_team": w.SharedLeagueWithTeam,
	}
	for name, v := range fields {
		if v < 0 {
			return fmt.Errorf("%w: weight %s must not be negative", ErrInvalidArgument, name)
		}
	}
	if w.BirthYearWindow < 0 {
		return fmt.Errorf("%w: birth_year_window must not be negative", ErrInvalidArgument)
	}
	return nil
}

package rankings

import (
	"math"
	"strconv"
)

type teamSeason struct {
	team   int
	season int
}

type intSet map[int]struct{}

func (s intSet) intersects(o intSet) bool {
	if len(o) < len(s) {
		s, o = o, s
	}
	for k := range s {
		if _, ok := o[k]; ok {
			return true
		}
	}
	return false
}

// features is a profile flattened into the sets the signals compare.
type features struct {
	teamSeasons  map[teamSeason]struct{}
	teams        intSet
	leagues      intSet
	positions    intSet
	shirts       intSet
	captain      bool
	nationality  *int
	birthYear    int
	hasBirthYear bool
}

func newFeatures(p Profile) *features {
	f := &features{
		teamSeasons: make(map[teamSeason]struct{}, len(p.Affiliations)),
		teams:       make(intSet),
		leagues:     make(intSet),
		positions:   make(intSet),
		shirts:      make(intSet),
		nationality: p.NationalityID,
	}
	for _, a := range p.Affiliations {
		f.teamSeasons[teamSeason{a.TeamID, a.SeasonID}] = struct{}{}
		f.teams[a.TeamID] = struct{}{}
		if a.LeagueID != 0 {
			f.leagues[a.LeagueID] = struct{}{}
		}
		if a.PositionID != nil {
			f.positions[*a.PositionID] = struct{}{}
		}
		if a.ShirtNumber != nil {
			f.shirts[*a.ShirtNumber] = struct{}{}
		}
		if a.IsCaptain {
			f.captain = true
		}
	}
	f.birthYear, f.hasBirthYear = birthYear(p.DateOfBirth)
	return f
}

// birthYear reads the year from the first four characters of a date of birth.
func birthYear(dob string) (int, bool) {
	if len(dob) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(dob[:4])
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}

func (f *features) sharedTeamSeasons(o *features) int {
	a, b := f.teamSeasons, o.teamSeasons
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

// signal returns the contribution of one condition. Signals never read each
// other's output, so the order they run in does not matter.
type signal func(w Weights, target, candidate *features) float64

var signals = []signal{
	sharedTeamSeasonSignal,
	sharedTeamOnlySignal,
	sharedLeagueSignal,
	sharedPositionSignal,
	sameNationalitySignal,
	bothCaptainsSignal,
	sharedShirtNumberSignal,
	closeBirthYearSignal,
}

func sharedTeamSeasonSignal(w Weights, t, c *features) float64 {
	return w.SharedTeamSeason * float64(t.sharedTeamSeasons(c))
}

func sharedTeamOnlySignal(w Weights, t, c *features) float64 {
	if t.teams.intersects(c.teams) && t.sharedTeamSeasons(c) == 0 {
		return w.SharedTeamOnly
	}
	return 0
}

func sharedLeagueSignal(w Weights, t, c *features) float64 {
	if !t.leagues.intersects(c.leagues) {
		return 0
	}
	if t.teams.intersects(c.teams) {
		return w.SharedLeagueWithTeam
	}
	return w.SharedLeague
}

func sharedPositionSignal(w Weights, t, c *features) float64 {
	if t.positions.intersects(c.positions) {
		return w.SharedPosition
	}
	return 0
}

func sameNationalitySignal(w Weights, t, c *features) float64 {
	if t.nationality != nil && c.nationality != nil && *t.nationality == *c.nationality {
		return w.SameNationality
	}
	return 0
}

func bothCaptainsSignal(w Weights, t, c *features) float64 {
	if t.captain && c.captain {
		return w.BothCaptains
	}
	return 0
}

func sharedShirtNumberSignal(w Weights, t, c *features) float64 {
	if t.shirts.intersects(c.shirts) {
		return w.SharedShirtNumber
	}
	return 0
}

func closeBirthYearSignal(w Weights, t, c *features) float64 {
	if !t.hasBirthYear || !c.hasBirthYear {
		return 0
	}
	diff := t.birthYear - c.birthYear
	if diff < 0 {
		diff = -diff
	}
	if diff <= w.BirthYearWindow {
		return w.CloseBirthYear
	}
	return 0
}

// Score is the similarity of candidate to target, rounded to six decimals.
func Score(target, candidate Profile, w Weights) float64 {
	return score(signals, w, newFeatures(target), newFeatures(candidate))
}

func score(table []signal, w Weights, t, c *features) float64 {
	var total float64
	for _, s := range table {
		total += s(w, t, c)
	}
	return math.Round(total*1e6) / 1e6
}

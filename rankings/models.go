package rankings

// Affiliation is one player-team-season row.
type Affiliation struct {
	TeamID      int  `json:"teamId"`
	SeasonID    int  `json:"seasonId"`
	LeagueID    int  `json:"leagueId"`
	PositionID  *int `json:"positionId,omitempty"`
	ShirtNumber *int `json:"shirtNumber,omitempty"`
	IsCaptain   bool `json:"isCaptain"`
}

// Profile is a player with every affiliation the index knows about.
type Profile struct {
	ID            int           `json:"id"`
	FirstName     string        `json:"firstName"`
	LastName      string        `json:"lastName"`
	NationalityID *int          `json:"nationalityId,omitempty"`
	DateOfBirth   string        `json:"dateOfBirth"`
	Affiliations  []Affiliation `json:"affiliations"`
}

// Name is the display name stored next to each ranked entry.
func (p Profile) Name() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Index maps player ID to profile.
type Index map[int]Profile

// RankedPlayer is one row of a persisted game ranking.
type RankedPlayer struct {
	ID   int    `json:"id"`
	Rank int    `json:"rank"`
	Name string `json:"name,omitempty"`
}

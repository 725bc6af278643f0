package rankings

import "context"

// IndexProvider loads the affiliation index. A nil leagueIDs slice means every
// player; otherwise only players with an affiliation in one of the leagues.
type IndexProvider interface {
	FetchAffiliationIndex(ctx context.Context, leagueIDs []int) (Index, error)
}

package games

import "errors"

var (
	ErrGameNotFound = errors.New("game not found")

	// ErrMalformedRanking means the stored ranking payload could not be decoded.
	ErrMalformedRanking = errors.New("malformed ranking payload")
)

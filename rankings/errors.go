package rankings

import "errors"

var (
	ErrNotFound        = errors.New("player not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

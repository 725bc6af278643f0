package models

type League struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Country struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// AutocompletePlayer is the id/name pair the guess box searches over.
type AutocompletePlayer struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

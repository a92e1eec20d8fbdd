package models

type Error struct {
	Message string `json:"message"`
}

// FieldErrors mirrors the 422 payload shape: field name -> list of problems.
type FieldErrors struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

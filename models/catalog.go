package models

// Catalog entities resolved by natural key during CSV ingestion.

type Area struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type School struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Grade struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Level struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

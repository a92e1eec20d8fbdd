package models

import "database/sql"

type Olympiad struct {
	ID        int            `json:"id"`
	Name      string         `json:"name"`
	Edition   string         `json:"edition"`
	StartDate sql.NullString `json:"start_date"`
	EndDate   sql.NullString `json:"end_date"`
	Status    string         `json:"status"`
	Areas     []Area         `json:"areas,omitempty"`
}

type OlympiadArea struct {
	ID         int `json:"id"`
	OlympiadID int `json:"olympiad_id"`
	AreaID     int `json:"area_id"`
}

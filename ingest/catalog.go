package ingest

import "database/sql"

// Contestant is the persisted competitor record, keyed by CI document.
type Contestant struct {
	Document   string
	FirstName  string
	LastName   string
	Gender     string
	Department string
	Phone      string
	Email      string
	SchoolID   sql.NullInt64
	TutorID    sql.NullInt64
	GradeID    sql.NullInt64
}

// Tutor is identified by its (phone, email) pair; the name is attached on
// first creation only.
type Tutor struct {
	Name  string
	Phone string
	Email string
}

// Inscription binds a contestant to one area and level under an olympiad.
// The (contestant, area, level) triple is unique.
type Inscription struct {
	ContestantID int64
	AreaID       int64
	LevelID      int64
	GradeID      sql.NullInt64
	OlympiadID   int64
}

// Catalog is the narrow persistence boundary the ingestion pipeline talks
// to. Resolve* methods are lookup-or-create by natural key: repeated calls
// with the same key return the same id and never create duplicates.
type Catalog interface {
	// AreaByName looks an area up without creating it.
	AreaByName(name string) (int64, bool, error)
	ResolveArea(name string) (int64, error)
	AreaInOlympiad(olympiadID, areaID int64) (bool, error)

	ResolveSchool(name string) (int64, error)
	ResolveGrade(name string) (int64, error)
	ResolveLevel(name string) (int64, error)
	ResolveTutor(t Tutor) (int64, error)

	ContestantExists(document string) (bool, error)
	// EmailTaken reports whether the email belongs to a contestant with a
	// different CI document.
	EmailTaken(email, document string) (bool, error)
	// UpsertContestant creates or overwrites the contestant identified by
	// c.Document and reports whether a new record was created.
	UpsertContestant(c Contestant) (int64, bool, error)
	// CreateInscription inserts the triple unless it already exists.
	CreateInscription(ins Inscription) (bool, error)
}

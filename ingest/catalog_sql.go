package ingest

import (
	"database/sql"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

// SQLCatalog implements Catalog over a single transaction. Resolved
// natural keys are memoized for the duration of the batch, so a catalog
// row referenced by many rows of one upload is fetched once.
type SQLCatalog struct {
	tx     *sql.Tx
	areas  map[string]int64
	simple map[string]int64 // table-scoped name caches
	tutors map[string]int64
}

func NewSQLCatalog(tx *sql.Tx) *SQLCatalog {
	return &SQLCatalog{
		tx:     tx,
		areas:  make(map[string]int64),
		simple: make(map[string]int64),
		tutors: make(map[string]int64),
	}
}

const mysqlDuplicateEntry = 1062

func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// lookupOrCreate resolves an entity id by its natural key, inserting the
// row when absent. A duplicate-entry error on insert means a concurrent
// request won the race, so the id is re-fetched instead of failing.
func (c *SQLCatalog) lookupOrCreate(table string, keyCols []string, keyVals []interface{}, extraCols []string, extraVals []interface{}) (int64, error) {
	where := make([]string, len(keyCols))
	for i, col := range keyCols {
		where[i] = col + " = ?"
	}
	selectQ := "SELECT id FROM " + table + " WHERE " + strings.Join(where, " AND ")

	var id int64
	err := c.tx.QueryRow(selectQ, keyVals...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, errors.Wrapf(err, "looking up %s", table)
	}

	cols := append(append([]string{}, keyCols...), extraCols...)
	vals := append(append([]interface{}{}, keyVals...), extraVals...)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	insertQ := "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" + placeholders + ")"

	res, err := c.tx.Exec(insertQ, vals...)
	if err != nil {
		if isDuplicateEntry(err) {
			if err := c.tx.QueryRow(selectQ, keyVals...).Scan(&id); err != nil {
				return 0, errors.Wrapf(err, "re-fetching %s after duplicate insert", table)
			}
			return id, nil
		}
		return 0, errors.Wrapf(err, "inserting into %s", table)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, errors.Wrapf(err, "reading %s insert id", table)
	}
	return id, nil
}

func (c *SQLCatalog) resolveByName(table, name string) (int64, error) {
	key := table + "\x00" + name
	if id, ok := c.simple[key]; ok {
		return id, nil
	}
	id, err := c.lookupOrCreate(table, []string{"name"}, []interface{}{name}, nil, nil)
	if err != nil {
		return 0, err
	}
	c.simple[key] = id
	return id, nil
}

func (c *SQLCatalog) AreaByName(name string) (int64, bool, error) {
	if id, ok := c.areas[name]; ok {
		return id, true, nil
	}
	var id int64
	err := c.tx.QueryRow("SELECT id FROM areas WHERE name = ?", name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "looking up area")
	}
	c.areas[name] = id
	return id, true, nil
}

func (c *SQLCatalog) ResolveArea(name string) (int64, error) {
	if id, ok := c.areas[name]; ok {
		return id, nil
	}
	id, err := c.lookupOrCreate("areas", []string{"name"}, []interface{}{name}, nil, nil)
	if err != nil {
		return 0, err
	}
	c.areas[name] = id
	return id, nil
}

func (c *SQLCatalog) AreaInOlympiad(olympiadID, areaID int64) (bool, error) {
	var exists bool
	err := c.tx.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM olympiad_areas WHERE olympiad_id = ? AND area_id = ?)",
		olympiadID, areaID).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "checking olympiad area")
	}
	return exists, nil
}

func (c *SQLCatalog) ResolveSchool(name string) (int64, error) {
	return c.resolveByName("schools", name)
}

func (c *SQLCatalog) ResolveGrade(name string) (int64, error) {
	return c.resolveByName("grades", name)
}

func (c *SQLCatalog) ResolveLevel(name string) (int64, error) {
	return c.resolveByName("levels", name)
}

func (c *SQLCatalog) ResolveTutor(t Tutor) (int64, error) {
	key := t.Phone + "\x00" + t.Email
	if id, ok := c.tutors[key]; ok {
		return id, nil
	}
	id, err := c.lookupOrCreate("tutors",
		[]string{"phone", "email"}, []interface{}{t.Phone, t.Email},
		[]string{"name"}, []interface{}{t.Name})
	if err != nil {
		return 0, err
	}
	c.tutors[key] = id
	return id, nil
}

func (c *SQLCatalog) ContestantExists(document string) (bool, error) {
	var exists bool
	err := c.tx.QueryRow("SELECT EXISTS(SELECT 1 FROM contestants WHERE ci_document = ?)", document).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "checking contestant")
	}
	return exists, nil
}

func (c *SQLCatalog) EmailTaken(email, document string) (bool, error) {
	var exists bool
	err := c.tx.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM contestants WHERE email = ? AND ci_document <> ?)",
		email, document).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "checking email")
	}
	return exists, nil
}

func (c *SQLCatalog) UpsertContestant(ct Contestant) (int64, bool, error) {
	var id int64
	err := c.tx.QueryRow("SELECT id FROM contestants WHERE ci_document = ?", ct.Document).Scan(&id)
	switch {
	case err == nil:
		return id, false, c.updateContestant(id, ct)
	case err != sql.ErrNoRows:
		return 0, false, errors.Wrap(err, "looking up contestant")
	}

	res, err := c.tx.Exec(`INSERT INTO contestants
		(ci_document, first_name, last_name, gender, department, phone, email, school_id, tutor_id, grade_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ct.Document, ct.FirstName, ct.LastName, nullable(ct.Gender), nullable(ct.Department),
		nullable(ct.Phone), nullable(ct.Email), ct.SchoolID, ct.TutorID, ct.GradeID)
	if err != nil {
		if isDuplicateEntry(err) {
			// concurrent upload created the contestant first
			if err := c.tx.QueryRow("SELECT id FROM contestants WHERE ci_document = ?", ct.Document).Scan(&id); err != nil {
				return 0, false, errors.Wrap(err, "re-fetching contestant after duplicate insert")
			}
			return id, false, c.updateContestant(id, ct)
		}
		return 0, false, errors.Wrap(err, "inserting contestant")
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, false, errors.Wrap(err, "reading contestant insert id")
	}
	return id, true, nil
}

func (c *SQLCatalog) updateContestant(id int64, ct Contestant) error {
	_, err := c.tx.Exec(`UPDATE contestants
		SET first_name = ?, last_name = ?, gender = ?, department = ?, phone = ?, email = ?,
		    school_id = ?, tutor_id = ?, grade_id = ?
		WHERE id = ?`,
		ct.FirstName, ct.LastName, nullable(ct.Gender), nullable(ct.Department),
		nullable(ct.Phone), nullable(ct.Email), ct.SchoolID, ct.TutorID, ct.GradeID, id)
	return errors.Wrap(err, "updating contestant")
}

func (c *SQLCatalog) CreateInscription(ins Inscription) (bool, error) {
	var exists bool
	err := c.tx.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM inscriptions WHERE contestant_id = ? AND area_id = ? AND level_id = ?)",
		ins.ContestantID, ins.AreaID, ins.LevelID).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "checking inscription")
	}
	if exists {
		return false, nil
	}
	_, err = c.tx.Exec(
		"INSERT INTO inscriptions (contestant_id, area_id, level_id, grade_id, olympiad_id) VALUES (?, ?, ?, ?, ?)",
		ins.ContestantID, ins.AreaID, ins.LevelID, ins.GradeID, ins.OlympiadID)
	if err != nil {
		if isDuplicateEntry(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "inserting inscription")
	}
	return true, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

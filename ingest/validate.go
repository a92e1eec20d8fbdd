package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Row is one parsed data row. Values holds the trimmed cell per canonical
// field; Cells keeps the original cells (Errores column already removed)
// for the error report. Rows are never mutated by the pipeline.
type Row struct {
	Number int
	Cells  []string
	Values map[Field]string
}

// NewRow builds a Row from the raw record using the header match. Cells
// beyond the header width are dropped from Values but kept in Cells.
func NewRow(number int, cells []string, m *HeaderMatch) Row {
	values := make(map[Field]string, len(m.Index))
	for field, pos := range m.Index {
		if pos < len(cells) {
			values[field] = strings.TrimSpace(cells[pos])
		}
	}
	return Row{Number: number, Cells: cells, Values: values}
}

var (
	lettersRe = regexp.MustCompile(`^[\p{L}\s]{2,50}$`)
	schoolRe  = regexp.MustCompile(`^[\p{L}\p{N}\s]{2,100}$`)
	gradeRe   = regexp.MustCompile(`^[\p{L}\s]+$`)
	docRe     = regexp.MustCompile(`^[0-9]{8,13}$`)
	phoneRe   = regexp.MustCompile(`^[0-9]{8}$`)

	validate = validator.New()
)

var fieldLabels = map[Field]string{
	FieldDocument:   "CI Document",
	FieldFirstName:  "First Name",
	FieldLastName:   "Last Name",
	FieldFullName:   "Name",
	FieldGender:     "Gender",
	FieldDepartment: "Department",
	FieldSchool:     "School",
	FieldArea:       "Area",
	FieldGrade:      "Grade",
	FieldLevel:      "Level",
	FieldTutorPhone: "Tutor Number",
	FieldTutorName:  "Tutor Name",
}

func semicolonFormat(es []error) string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// SplitAreas tokenizes the area cell on the accepted separators and drops
// empty entries.
func SplitAreas(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SplitFullName splits a legacy single-column name at its last space:
// the final token becomes the last name, the rest the first name.
func SplitFullName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) < 2 {
		return full, ""
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}

// ValidateRow runs every rule of the schema against the row and returns
// the accumulated failures; rules never short-circuit each other. The
// second return value reports an infrastructure failure (the batch must
// abort), never a data problem.
func ValidateRow(row Row, s *Schema, cat Catalog, olympiadID int64) (*multierror.Error, error) {
	verrs := &multierror.Error{ErrorFormat: semicolonFormat}
	add := func(format string, args ...interface{}) {
		verrs = multierror.Append(verrs, fmt.Errorf(format, args...))
	}

	for _, field := range s.RequiredValues {
		if row.Values[field] == "" {
			add("%s is required", fieldLabels[field])
		}
	}

	for _, field := range []Field{FieldFirstName, FieldLastName, FieldFullName, FieldTutorName} {
		if v := row.Values[field]; v != "" && !lettersRe.MatchString(v) {
			add("%s must be 2-50 characters and contain only letters", fieldLabels[field])
		}
	}

	if v := row.Values[FieldDocument]; v != "" {
		if !docRe.MatchString(v) {
			add("CI Document must be 8-13 digits")
		} else if s.RejectKnownDocument {
			exists, err := cat.ContestantExists(v)
			if err != nil {
				return nil, errors.Wrap(err, "checking CI document")
			}
			if exists {
				add("CI Document already exists")
			}
		}
	}

	if v := row.Values[FieldGender]; v != "" && len(s.GenderValues) > 0 {
		up := strings.ToUpper(v)
		ok := false
		for _, g := range s.GenderValues {
			if up == g {
				ok = true
				break
			}
		}
		if !ok {
			add("Gender must be %s", strings.Join(s.GenderValues, " or "))
		}
	}

	if v := row.Values[FieldDepartment]; v != "" && !lettersRe.MatchString(v) {
		add("Department must be 2-50 characters and contain only letters")
	}

	if v := row.Values[FieldSchool]; v != "" && !schoolRe.MatchString(v) {
		add("School must be 2-100 characters and contain only alphanumeric characters")
	}

	for _, field := range []Field{FieldPhone, FieldTutorPhone} {
		if v := row.Values[field]; v != "" && !phoneRe.MatchString(v) {
			if field == FieldTutorPhone {
				add("Tutor Number must be exactly 8 digits")
			} else {
				add("Phone must be exactly 8 digits")
			}
		}
	}

	if v := row.Values[FieldEmail]; v != "" {
		if validate.Var(v, "email") != nil {
			add("Email format is invalid")
		} else {
			taken, err := cat.EmailTaken(v, row.Values[FieldDocument])
			if err != nil {
				return nil, errors.Wrap(err, "checking email")
			}
			if taken {
				add("Email already exists")
			}
		}
	}

	if v := row.Values[FieldArea]; v != "" {
		areaNames := SplitAreas(v)
		if len(areaNames) > s.MaxAreasPerRow {
			add("Maximum %d areas allowed", s.MaxAreasPerRow)
		}
		if !s.AutoCreateAreas {
			for _, name := range areaNames {
				areaID, found, err := cat.AreaByName(name)
				if err != nil {
					return nil, errors.Wrap(err, "looking up area")
				}
				if !found {
					add("Area '%s' does not exist", name)
					continue
				}
				if s.ScopeAreasToOlympiad {
					inOlympiad, err := cat.AreaInOlympiad(olympiadID, areaID)
					if err != nil {
						return nil, errors.Wrap(err, "checking olympiad area")
					}
					if !inOlympiad {
						add("Area '%s' is not configured for the selected Olympiad", name)
					}
				}
			}
		}
	}

	if v := row.Values[FieldGrade]; v != "" && !gradeRe.MatchString(v) {
		add("Grade must contain only letters")
	}

	if v := row.Values[FieldLevel]; v != "" && !lettersRe.MatchString(v) {
		add("Level must be 2-50 characters and contain only letters")
	}

	if len(verrs.Errors) == 0 {
		return nil, nil
	}
	return verrs, nil
}

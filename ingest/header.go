package ingest

import (
	"strings"
)

// errorsColumnLabel is the trailing column appended by generated error
// reports. It is stripped before matching so a corrected report can be
// re-uploaded as-is.
const errorsColumnLabel = "errores"

// HeaderMatch is the result of resolving a file's literal header row
// against one of the registered schemas.
type HeaderMatch struct {
	Schema *Schema
	// Index maps canonical fields to column positions in the header after
	// the Errores column (if any) has been removed.
	Index map[Field]int
	// ErrorsCol is the position of the Errores column in the raw header,
	// -1 when the file does not carry one.
	ErrorsCol int
	// Header holds the original labels with the Errores column removed;
	// it becomes the header of a generated error report.
	Header []string
}

// HeaderError describes a file-level header rejection.
type HeaderError struct {
	Message  string
	Missing  []string
	Expected []string
}

func normalizeLabel(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	return strings.ToLower(strings.TrimSpace(s))
}

// findErrorsColumn returns the position of a trailing Errores column, or -1.
func findErrorsColumn(header []string) int {
	for i, h := range header {
		if normalizeLabel(h) == errorsColumnLabel {
			return i
		}
	}
	return -1
}

// StripColumn removes the cell at position col when present. It never
// mutates the input row.
func StripColumn(row []string, col int) []string {
	if col < 0 || col >= len(row) {
		return row
	}
	out := make([]string, 0, len(row)-1)
	out = append(out, row[:col]...)
	return append(out, row[col+1:]...)
}

// MatchHeader resolves the literal header row to canonical field positions.
// Schemas are tried in order; the first one whose mandatory columns all
// resolve wins. On failure the returned HeaderError names the columns
// missing from the preferred schema.
func MatchHeader(header []string, schemas []*Schema) (*HeaderMatch, *HeaderError) {
	errCol := findErrorsColumn(header)
	clean := StripColumn(header, errCol)

	normalized := make([]string, len(clean))
	for i, h := range clean {
		normalized[i] = normalizeLabel(h)
	}

	for _, s := range schemas {
		index, missing := matchSchema(normalized, s)
		if len(missing) == 0 {
			return &HeaderMatch{Schema: s, Index: index, ErrorsCol: errCol, Header: clean}, nil
		}
	}

	preferred := schemas[0]
	_, missing := matchSchema(normalized, preferred)
	return nil, &HeaderError{
		Message:  "Las cabeceras del CSV no coinciden con el formato requerido. Faltan columnas obligatorias: " + strings.Join(missing, ", "),
		Missing:  missing,
		Expected: preferred.ExpectedHeaders(),
	}
}

func matchSchema(normalized []string, s *Schema) (map[Field]int, []string) {
	index := make(map[Field]int, len(s.Fields))
	var missing []string
	for _, f := range s.Fields {
		pos := -1
		for _, alias := range f.Aliases {
			if p := indexOf(normalized, alias); p >= 0 {
				pos = p
				break
			}
		}
		if pos >= 0 {
			index[f.ID] = pos
		} else if f.Required {
			missing = append(missing, f.Header)
		}
	}
	return index, missing
}

func indexOf(labels []string, want string) int {
	for i, l := range labels {
		if l == want {
			return i
		}
	}
	return -1
}

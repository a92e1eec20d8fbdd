package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strictHeader() []string {
	return []string{"N.", "CI", "NOMBRE", "APELLIDO", "GENERO", "DEPARTAMENTO",
		"COLEGIO", "CELULAR", "E-MAIL", "AREA", "GRADO", "NIVEL", "NUMERO TUTOR", "NOMBRE TUTOR"}
}

func legacyHeader() []string {
	return []string{"N.", "DOC.", "NOMBRE", "GEN", "DEP.", "COLEGIO", "CELULAR",
		"E-MAIL", "AREA", "NIVEL", "GRADO"}
}

func TestMatchHeader_Strict(t *testing.T) {
	match, herr := MatchHeader(strictHeader(), DefaultSchemas())
	require.Nil(t, herr)
	assert.Equal(t, "v2", match.Schema.Name)
	assert.Equal(t, 1, match.Index[FieldDocument])
	assert.Equal(t, 3, match.Index[FieldLastName])
	assert.Equal(t, 13, match.Index[FieldTutorName])
	assert.Equal(t, -1, match.ErrorsCol)
}

func TestMatchHeader_Legacy(t *testing.T) {
	match, herr := MatchHeader(legacyHeader(), DefaultSchemas())
	require.Nil(t, herr)
	assert.Equal(t, "v1", match.Schema.Name)
	assert.Equal(t, 2, match.Index[FieldFullName])
	_, hasSplit := match.Index[FieldFirstName]
	assert.False(t, hasSplit)
}

func TestMatchHeader_BOMAndCase(t *testing.T) {
	header := legacyHeader()
	header[0] = "\uFEFF n. "
	header[2] = "Nombre"
	match, herr := MatchHeader(header, DefaultSchemas())
	require.Nil(t, herr)
	assert.Equal(t, 0, match.Index[FieldRowNumber])
	assert.Equal(t, 2, match.Index[FieldFullName])
}

func TestMatchHeader_ColumnOrderDoesNotMatter(t *testing.T) {
	header := []string{"NIVEL", "AREA", "GRADO", "NOMBRE", "DOC.", "DEP.", "COLEGIO", "CELULAR"}
	match, herr := MatchHeader(header, DefaultSchemas())
	require.Nil(t, herr)
	assert.Equal(t, "v1", match.Schema.Name)
	assert.Equal(t, 4, match.Index[FieldDocument])
	assert.Equal(t, 0, match.Index[FieldLevel])
}

func TestMatchHeader_StripsErrorsColumn(t *testing.T) {
	header := append(strictHeader(), "Errores")
	match, herr := MatchHeader(header, DefaultSchemas())
	require.Nil(t, herr)
	assert.Equal(t, 14, match.ErrorsCol)
	assert.Len(t, match.Header, 14)
	assert.Equal(t, "v2", match.Schema.Name)
}

func TestMatchHeader_MissingColumns(t *testing.T) {
	header := []string{"N.", "CI", "NOMBRE", "GENERO", "DEPARTAMENTO", "COLEGIO"}
	match, herr := MatchHeader(header, DefaultSchemas())
	require.Nil(t, match)
	require.NotNil(t, herr)
	assert.Contains(t, herr.Missing, "APELLIDO")
	assert.Contains(t, herr.Missing, "NUMERO TUTOR")
	assert.NotContains(t, herr.Missing, "CI")
	assert.Equal(t, DefaultSchemas()[0].ExpectedHeaders(), herr.Expected)
}

func TestStripColumn(t *testing.T) {
	row := []string{"a", "b", "c"}
	assert.Equal(t, []string{"a", "c"}, StripColumn(row, 1))
	assert.Equal(t, []string{"a", "b", "c"}, StripColumn(row, -1))
	assert.Equal(t, []string{"a", "b", "c"}, StripColumn(row, 5))
	// input stays untouched
	assert.Equal(t, []string{"a", "b", "c"}, row)
}

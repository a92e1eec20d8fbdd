package ingest

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorReportName(t *testing.T) {
	assert.Equal(t, "competidores-errores.csv", ErrorReportName("competidores.csv"))
	assert.Equal(t, "lote.final-errores.csv", ErrorReportName("lote.final.txt"))
	assert.Equal(t, "datos-errores.csv", ErrorReportName("/tmp/subidas/datos.csv"))
}

func TestBuildRowReport_QuotesAndEscapes(t *testing.T) {
	header := []string{"DOC.", "NOMBRE"}
	failed := []FailedRow{
		{Cells: []string{"123", `Colegio "San" Simón`}, Errors: "CI Document must be 8-13 digits"},
	}
	out := string(BuildRowReport(header, failed))

	assert.Equal(t, `"DOC.","NOMBRE","Errores"`, strings.Split(out, "\n")[0])
	assert.Contains(t, out, `"Colegio ""San"" Simón"`)

	// the generated report must itself parse as CSV
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, `Colegio "San" Simón`, records[1][1])
	assert.Equal(t, "CI Document must be 8-13 digits", records[1][2])
}

func TestBuildRowReport_PadsShortRows(t *testing.T) {
	header := []string{"A", "B", "C"}
	out := string(BuildRowReport(header, []FailedRow{{Cells: []string{"x"}, Errors: "boom"}}))
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "", "", "boom"}, records[1])
}

func TestBuildHeaderReport(t *testing.T) {
	header := []string{"X", "Y"}
	rows := [][]string{{"1", "a"}, {"2", "b"}}
	out := string(BuildHeaderReport(header, rows, "cabeceras inválidas", []string{"CI", "NOMBRE"}))

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "ERROR EN CABECERAS: cabeceras inválidas")
	assert.Contains(t, lines[1], "CORRECCIÓN: Cambie las cabeceras a: CI, NOMBRE")
	assert.Contains(t, lines[2], "Ver fila anterior")
}

func TestBuildHeaderReport_NoDataRows(t *testing.T) {
	out := string(BuildHeaderReport([]string{"X"}, nil, "El archivo está vacío.", []string{"CI"}))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "El archivo está vacío.")
}

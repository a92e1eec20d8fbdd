package ingest

import (
	"bytes"
	"path/filepath"
	"strings"
)

// FailedRow pairs a row's original cells with its accumulated error text.
type FailedRow struct {
	Cells  []string
	Errors string
}

// ErrorReportName derives the deterministic report filename from the
// uploaded file's name.
func ErrorReportName(original string) string {
	base := filepath.Base(original)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "-errores.csv"
}

func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

func writeLine(b *bytes.Buffer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(quote(c))
	}
	b.WriteByte('\n')
}

// padded returns the cells adjusted to exactly width entries so every
// report line stays aligned with its header.
func padded(cells []string, width int) []string {
	out := make([]string, width)
	copy(out, cells)
	return out
}

// BuildRowReport renders failed rows as the original CSV plus a trailing
// Errores column. Every value is double-quote escaped.
func BuildRowReport(header []string, failed []FailedRow) []byte {
	var b bytes.Buffer
	writeLine(&b, append(padded(header, len(header)), "Errores"))
	for _, row := range failed {
		writeLine(&b, append(padded(row.Cells, len(header)), row.Errors))
	}
	return b.Bytes()
}

// BuildHeaderReport renders a header-level rejection: every data row of
// the original file is emitted so the user keeps their data, annotated
// with a shared message. The first data row carries the full explanation
// and the expected header list.
func BuildHeaderReport(header []string, rows [][]string, cause string, expected []string) []byte {
	var b bytes.Buffer
	writeLine(&b, append(padded(header, len(header)), "Errores"))
	detail := "ERROR EN CABECERAS: " + cause +
		" | CORRECCIÓN: Cambie las cabeceras a: " + strings.Join(expected, ", ")
	if len(rows) == 0 {
		rows = [][]string{nil}
	}
	for i, row := range rows {
		msg := "Ver fila anterior para detalles del error de cabeceras"
		if i == 0 {
			msg = detail
		}
		writeLine(&b, append(padded(row, len(header)), msg))
	}
	return b.Bytes()
}

package ingest

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"olympiad-backend/storage"
)

// UploadFile is one file of an upload batch.
type UploadFile struct {
	Name string
	Data io.Reader
}

// FileResult carries the per-file statistics of one processed CSV.
type FileResult struct {
	Filename             string `json:"filename"`
	Schema               string `json:"schema,omitempty"`
	Successful           int    `json:"successful"`
	CompetitorErrors     int    `json:"competitor_errors"`
	HeaderErrors         int    `json:"header_errors"`
	TotalRecords         int    `json:"total_records"`
	CreatedContestants   int    `json:"created_contestants"`
	UpdatedContestants   int    `json:"updated_contestants"`
	CreatedInscriptions  int    `json:"created_inscriptions"`
	SkippedDuplicateArea int    `json:"skipped_duplicate_area"`
	ErrorFile            string `json:"error_file,omitempty"`
}

// BatchResult aggregates every file of one upload call.
type BatchResult struct {
	BatchID                   string       `json:"batch_id"`
	OlympiadID                int64        `json:"olympiad_id"`
	TotalFiles                int          `json:"total_files_processed"`
	TotalRecords              int          `json:"total_records_processed"`
	TotalSuccessful           int          `json:"total_successful"`
	TotalCompetitorErrors     int          `json:"total_competitor_errors"`
	TotalHeaderErrors         int          `json:"total_header_errors"`
	TotalErrors               int          `json:"total_errors"`
	SuccessRate               float64      `json:"success_rate"`
	CompetitorErrorRate       float64      `json:"competitor_error_rate"`
	HeaderErrorRate           float64      `json:"header_error_rate"`
	FilesWithErrors           int          `json:"files_with_errors"`
	FilesWithHeaderErrors     int          `json:"files_with_header_errors"`
	FilesWithCompetitorErrors int          `json:"files_with_competitor_errors"`
	ErrorFiles                []string     `json:"error_files"`
	ProcessingSeconds         float64      `json:"processing_time_seconds"`
	RecordsPerSecond          float64      `json:"records_per_second"`
	Details                   []FileResult `json:"details"`
}

// Orchestrator drives the ingestion of an upload batch. The caller owns
// the surrounding transaction: a non-nil error from ProcessBatch means
// the whole batch must roll back.
type Orchestrator struct {
	Catalog Catalog
	Reports storage.ReportStore
	Schemas []*Schema
	Log     *logrus.Entry
}

func (o *Orchestrator) logger() *logrus.Entry {
	if o.Log != nil {
		return o.Log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// ProcessBatch processes every file sequentially and aggregates the
// statistics. Row and header errors are expected outcomes recorded in the
// results; only infrastructure failures abort the batch.
func (o *Orchestrator) ProcessBatch(files []UploadFile, olympiadID int64) (*BatchResult, error) {
	start := time.Now()
	res := &BatchResult{
		BatchID:    uuid.NewString(),
		OlympiadID: olympiadID,
		TotalFiles: len(files),
		ErrorFiles: []string{},
		Details:    []FileResult{},
	}
	log := o.logger().WithFields(logrus.Fields{"batch_id": res.BatchID, "olympiad_id": olympiadID})

	for _, f := range files {
		fr, err := o.processFile(f, olympiadID)
		if err != nil {
			log.WithField("filename", f.Name).WithError(err).Error("batch aborted")
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"filename":   fr.Filename,
			"successful": fr.Successful,
			"row_errors": fr.CompetitorErrors,
		}).Info("file processed")

		res.Details = append(res.Details, fr)
		res.TotalRecords += fr.TotalRecords
		res.TotalSuccessful += fr.Successful
		res.TotalCompetitorErrors += fr.CompetitorErrors
		res.TotalHeaderErrors += fr.HeaderErrors
		if fr.HeaderErrors > 0 {
			res.FilesWithHeaderErrors++
		}
		if fr.CompetitorErrors > 0 {
			res.FilesWithCompetitorErrors++
		}
		if fr.HeaderErrors > 0 || fr.CompetitorErrors > 0 {
			res.FilesWithErrors++
			if fr.ErrorFile != "" {
				res.ErrorFiles = append(res.ErrorFiles, fr.ErrorFile)
			}
		}
	}

	res.TotalErrors = res.TotalCompetitorErrors + res.TotalHeaderErrors
	if res.TotalRecords > 0 {
		res.SuccessRate = rate(res.TotalSuccessful, res.TotalRecords)
		res.CompetitorErrorRate = rate(res.TotalCompetitorErrors, res.TotalRecords)
		res.HeaderErrorRate = rate(res.TotalHeaderErrors, res.TotalRecords)
	}
	res.ProcessingSeconds = math.Round(time.Since(start).Seconds()*100) / 100
	if secs := time.Since(start).Seconds(); secs > 0 {
		res.RecordsPerSecond = math.Round(float64(res.TotalRecords)/secs*100) / 100
	}
	return res, nil
}

func rate(part, total int) float64 {
	return math.Round(float64(part)/float64(total)*10000) / 100
}

// newReader buffers the whole file so a line the CSV parser rejects can
// still be echoed verbatim into the error report.
func newReader(data io.Reader) (*csv.Reader, []byte, error) {
	raw, err := io.ReadAll(data)
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading upload")
	}
	raw = bytes.TrimPrefix(raw, []byte("\xEF\xBB\xBF"))
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	return r, raw, nil
}

// rawLine returns the unparsed text of the line starting at offset.
func rawLine(data []byte, offset int64) string {
	if offset < 0 || offset >= int64(len(data)) {
		return ""
	}
	line := data[offset:]
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return string(bytes.TrimRight(line, "\r"))
}

func (o *Orchestrator) processFile(f UploadFile, olympiadID int64) (FileResult, error) {
	res := FileResult{Filename: f.Name}
	reader, raw, err := newReader(f.Data)
	if err != nil {
		return res, err
	}

	header, err := reader.Read()
	if err == io.EOF {
		res.HeaderErrors = 1
		return res, o.writeHeaderReport(&res, nil, nil, "El archivo está vacío.")
	}
	if err != nil {
		res.HeaderErrors = 1
		return res, o.writeHeaderReport(&res, header, nil, "No se pudo leer la cabecera del archivo.")
	}

	match, herr := MatchHeader(header, o.Schemas)
	if herr != nil {
		rows := drainRows(reader, findErrorsColumn(header))
		res.HeaderErrors = 1
		res.TotalRecords = len(rows)
		return res, o.writeHeaderReportMatched(&res, StripColumn(header, findErrorsColumn(header)), rows, herr)
	}
	res.Schema = match.Schema.Name

	var failed []FailedRow
	seenDocs := make(map[string]bool)

	for line := 1; ; {
		offset := reader.InputOffset()
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			res.TotalRecords++
			failed = append(failed, FailedRow{
				Cells:  []string{rawLine(raw, offset)},
				Errors: fmt.Sprintf("Fila %d malformada: %v", line, err),
			})
			continue
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		res.TotalRecords++
		rec = StripColumn(rec, match.ErrorsCol)

		if len(rec) != len(match.Header) {
			failed = append(failed, FailedRow{
				Cells: rec,
				Errors: fmt.Sprintf("Row has %d columns but header has %d columns. Please check for missing commas or extra commas in the data.",
					len(rec), len(match.Header)),
			})
			continue
		}

		row := NewRow(line, rec, match)

		if doc := row.Values[FieldDocument]; doc != "" && seenDocs[doc] {
			failed = append(failed, FailedRow{Cells: rec, Errors: "CI Document duplicated within the same file"})
			continue
		}

		verrs, err := ValidateRow(row, match.Schema, o.Catalog, olympiadID)
		if err != nil {
			return res, err
		}
		if verrs != nil {
			failed = append(failed, FailedRow{Cells: rec, Errors: verrs.Error()})
			continue
		}

		if err := o.persistRow(&res, row, match.Schema, olympiadID); err != nil {
			return res, err
		}
		res.Successful++
		if doc := row.Values[FieldDocument]; doc != "" {
			seenDocs[doc] = true
		}
	}

	res.CompetitorErrors = len(failed)
	if len(failed) > 0 {
		name := ErrorReportName(f.Name)
		if err := o.Reports.Put(name, BuildRowReport(match.Header, failed)); err != nil {
			return res, errors.Wrap(err, "persisting error report")
		}
		res.ErrorFile = name
	}
	return res, nil
}

// persistRow resolves the row's catalog references, upserts the
// contestant and creates one inscription per declared area. It only runs
// after the row passed every validation: a row either fully persists or
// not at all.
func (o *Orchestrator) persistRow(res *FileResult, row Row, s *Schema, olympiadID int64) error {
	first, last := row.Values[FieldFirstName], row.Values[FieldLastName]
	if full, ok := row.Values[FieldFullName]; ok && full != "" {
		first, last = SplitFullName(full)
	}

	ct := Contestant{
		Document:   row.Values[FieldDocument],
		FirstName:  first,
		LastName:   last,
		Gender:     strings.ToUpper(row.Values[FieldGender]),
		Department: row.Values[FieldDepartment],
		Phone:      row.Values[FieldPhone],
		Email:      row.Values[FieldEmail],
	}

	if name := row.Values[FieldSchool]; name != "" {
		id, err := o.Catalog.ResolveSchool(name)
		if err != nil {
			return err
		}
		ct.SchoolID = sql.NullInt64{Int64: id, Valid: true}
	}

	tutor := Tutor{Name: row.Values[FieldTutorName], Phone: row.Values[FieldTutorPhone]}
	if tutor.Name == "" && tutor.Phone == "" {
		// legacy files carry the tutor contact in the row's own
		// phone/email columns
		tutor.Phone, tutor.Email = row.Values[FieldPhone], row.Values[FieldEmail]
	}
	if tutor.Name != "" || tutor.Phone != "" || tutor.Email != "" {
		id, err := o.Catalog.ResolveTutor(tutor)
		if err != nil {
			return err
		}
		ct.TutorID = sql.NullInt64{Int64: id, Valid: true}
	}

	var gradeID sql.NullInt64
	if name := row.Values[FieldGrade]; name != "" {
		id, err := o.Catalog.ResolveGrade(name)
		if err != nil {
			return err
		}
		gradeID = sql.NullInt64{Int64: id, Valid: true}
	}
	ct.GradeID = gradeID

	levelID, err := o.Catalog.ResolveLevel(row.Values[FieldLevel])
	if err != nil {
		return err
	}

	contestantID, created, err := o.Catalog.UpsertContestant(ct)
	if err != nil {
		return err
	}
	if created {
		res.CreatedContestants++
	} else {
		res.UpdatedContestants++
	}

	seenAreas := make(map[int64]bool)
	for _, areaName := range SplitAreas(row.Values[FieldArea]) {
		var areaID int64
		if s.AutoCreateAreas {
			areaID, err = o.Catalog.ResolveArea(areaName)
			if err != nil {
				return err
			}
		} else {
			var found bool
			areaID, found, err = o.Catalog.AreaByName(areaName)
			if err != nil {
				return err
			}
			if !found {
				// validation guarantees existence; a miss here means the
				// area vanished mid-transaction
				return errors.Errorf("area %q disappeared during processing", areaName)
			}
		}
		if seenAreas[areaID] {
			res.SkippedDuplicateArea++
			continue
		}
		seenAreas[areaID] = true

		insCreated, err := o.Catalog.CreateInscription(Inscription{
			ContestantID: contestantID,
			AreaID:       areaID,
			LevelID:      levelID,
			GradeID:      gradeID,
			OlympiadID:   olympiadID,
		})
		if err != nil {
			return err
		}
		if insCreated {
			res.CreatedInscriptions++
		} else {
			res.SkippedDuplicateArea++
		}
	}
	return nil
}

// drainRows reads the remaining records of a file whose header was
// rejected so the error report can echo the user's data back.
func drainRows(reader *csv.Reader, errCol int) [][]string {
	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			return rows
		}
		if err != nil {
			continue
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		rows = append(rows, StripColumn(rec, errCol))
	}
}

func (o *Orchestrator) writeHeaderReport(res *FileResult, header []string, rows [][]string, cause string) error {
	herr := &HeaderError{Message: cause, Expected: o.Schemas[0].ExpectedHeaders()}
	return o.writeHeaderReportMatched(res, header, rows, herr)
}

func (o *Orchestrator) writeHeaderReportMatched(res *FileResult, header []string, rows [][]string, herr *HeaderError) error {
	if header == nil {
		header = herr.Expected
	}
	name := ErrorReportName(res.Filename)
	if err := o.Reports.Put(name, BuildHeaderReport(header, rows, herr.Message, herr.Expected)); err != nil {
		return errors.Wrap(err, "persisting header error report")
	}
	res.ErrorFile = name
	return nil
}

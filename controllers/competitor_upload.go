package controllers

import (
	"database/sql"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"olympiad-backend/ingest"
	"olympiad-backend/models"
	"olympiad-backend/storage"
	"olympiad-backend/utils"
)

const maxUploadBytes = 10 << 20 // 10MB per file

type CompetitorUploadController struct {
	Reports storage.ReportStore
	Schemas []*ingest.Schema
}

type uploadResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    *ingest.BatchResult `json:"data,omitempty"`
}

// UploadCSV accepts one or more competitor CSV files plus an olympiad id
// and runs the whole batch through the ingestion pipeline inside a single
// transaction.
func (c CompetitorUploadController) UploadCSV(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			utils.RespondWithError(w, http.StatusUnprocessableEntity, models.Error{Message: "No se recibió ningún archivo. Envíe uno o más archivos CSV."})
			return
		}

		headers := r.MultipartForm.File["files"]
		if len(headers) == 0 {
			headers = r.MultipartForm.File["file"]
		}
		fieldErrors := map[string][]string{}
		if len(headers) == 0 {
			fieldErrors["files"] = append(fieldErrors["files"], "at least one CSV file is required")
		}
		for _, fh := range headers {
			if ext := strings.ToLower(filepath.Ext(fh.Filename)); ext != ".csv" && ext != ".txt" {
				fieldErrors["files"] = append(fieldErrors["files"], fh.Filename+": only .csv files are allowed")
			}
			if fh.Size > maxUploadBytes {
				fieldErrors["files"] = append(fieldErrors["files"], fh.Filename+": file exceeds the 10MB limit")
			}
		}

		olympiadID, err := strconv.ParseInt(r.FormValue("olympiad_id"), 10, 64)
		if err != nil {
			fieldErrors["olympiad_id"] = append(fieldErrors["olympiad_id"], "olympiad_id is required")
		} else {
			var exists bool
			if err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM olympiads WHERE id = ?)", olympiadID).Scan(&exists); err != nil {
				logrus.WithError(err).Error("olympiad lookup failed")
				utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Database error"})
				return
			}
			if !exists {
				fieldErrors["olympiad_id"] = append(fieldErrors["olympiad_id"], "the selected olympiad does not exist")
			}
		}

		if len(fieldErrors) > 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			utils.ResponseJSON(w, models.FieldErrors{Message: "Validation failed", Errors: fieldErrors})
			return
		}

		files, closeAll, err := openUploads(headers)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnprocessableEntity, models.Error{Message: "No se pudo leer el archivo subido."})
			return
		}
		defer closeAll()

		tx, err := db.Begin()
		if err != nil {
			logrus.WithError(err).Error("failed to open transaction")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Database error"})
			return
		}

		orch := &ingest.Orchestrator{
			Catalog: ingest.NewSQLCatalog(tx),
			Reports: c.Reports,
			Schemas: c.Schemas,
		}
		result, err := orch.ProcessBatch(files, olympiadID)
		if err != nil {
			_ = tx.Rollback()
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error processing CSV files: " + err.Error()})
			return
		}
		if err := tx.Commit(); err != nil {
			logrus.WithError(err).Error("failed to commit batch")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Database error"})
			return
		}

		utils.ResponseJSON(w, uploadResponse{
			Success: true,
			Message: "Procesamiento de archivos CSV finalizado.",
			Data:    result,
		})
	}
}

// openUploads opens every multipart file and returns a closer that
// releases all handles on every exit path.
func openUploads(headers []*multipart.FileHeader) ([]ingest.UploadFile, func(), error) {
	var opened []io.Closer
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	files := make([]ingest.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		opened = append(opened, f)
		files = append(files, ingest.UploadFile{Name: fh.Filename, Data: f})
	}
	return files, closeAll, nil
}

// DownloadErrorCSV streams a previously generated error report.
func (c CompetitorUploadController) DownloadErrorCSV() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := mux.Vars(r)["filename"]
		if !utils.SafeFilename(filename) || !strings.HasSuffix(filename, ".csv") {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid file name"})
			return
		}
		if !c.Reports.Exists(filename) {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Error file not found"})
			return
		}
		f, err := c.Reports.Open(filename)
		if err != nil {
			logrus.WithError(err).Error("failed to open error report")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to read error file"})
			return
		}
		defer f.Close()

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		if _, err := io.Copy(w, f); err != nil {
			logrus.WithError(err).Error("failed to stream error report")
		}
	}
}

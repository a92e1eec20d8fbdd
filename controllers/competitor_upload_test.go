package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olympiad-backend/ingest"
	"olympiad-backend/storage"
)

func multipartBody(t *testing.T, olympiadID string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if olympiadID != "" {
		require.NoError(t, w.WriteField("olympiad_id", olympiadID))
	}
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = io.Copy(part, strings.NewReader(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func newController(t *testing.T) (CompetitorUploadController, *storage.DiskStore) {
	t.Helper()
	store, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	return CompetitorUploadController{Reports: store, Schemas: ingest.DefaultSchemas()}, store
}

func TestUploadCSV_RejectsMissingFiles(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("SELECT EXISTS(SELECT 1 FROM olympiads WHERE id = ?)").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	controller, _ := newController(t)
	body, contentType := multipartBody(t, "1", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/competitors/upload-csv", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	controller.UploadCSV(db)(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "files")
}

func TestUploadCSV_RejectsWrongExtension(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("SELECT EXISTS(SELECT 1 FROM olympiads WHERE id = ?)").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	controller, _ := newController(t)
	body, contentType := multipartBody(t, "1", map[string]string{"datos.pdf": "x"})

	req := httptest.NewRequest(http.MethodPost, "/api/competitors/upload-csv", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	controller.UploadCSV(db)(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "only .csv files are allowed")
}

func TestUploadCSV_RejectsUnknownOlympiad(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("SELECT EXISTS(SELECT 1 FROM olympiads WHERE id = ?)").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	controller, _ := newController(t)
	body, contentType := multipartBody(t, "42", map[string]string{"datos.csv": "x"})

	req := httptest.NewRequest(http.MethodPost, "/api/competitors/upload-csv", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	controller.UploadCSV(db)(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "the selected olympiad does not exist")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadCSV_RejectsMissingOlympiadID(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	controller, _ := newController(t)
	body, contentType := multipartBody(t, "", map[string]string{"datos.csv": "x"})

	req := httptest.NewRequest(http.MethodPost, "/api/competitors/upload-csv", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	controller.UploadCSV(db)(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var payload struct {
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Contains(t, payload.Errors, "olympiad_id")
}

func downloadRequest(controller CompetitorUploadController, filename string) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	router.HandleFunc("/api/competitors/errors/{filename}", controller.DownloadErrorCSV()).Methods("GET")
	req := httptest.NewRequest(http.MethodGet, "/api/competitors/errors/"+filename, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestDownloadErrorCSV_ServesStoredReport(t *testing.T) {
	controller, store := newController(t)
	require.NoError(t, store.Put("lote-errores.csv", []byte("\"DOC.\",\"Errores\"\n")))

	rec := downloadRequest(controller, "lote-errores.csv")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Errores")
}

func TestDownloadErrorCSV_UnknownFileIs404(t *testing.T) {
	controller, _ := newController(t)
	rec := downloadRequest(controller, "nadie-errores.csv")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadErrorCSV_RejectsSuspiciousNames(t *testing.T) {
	controller, _ := newController(t)

	rec := downloadRequest(controller, "lote..errores.csv")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = downloadRequest(controller, "reporte.txt")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

package main

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"olympiad-backend/controllers"
	"olympiad-backend/driver"
	"olympiad-backend/ingest"
	"olympiad-backend/storage"
)

func newReportStore() storage.ReportStore {
	if os.Getenv("ERROR_REPORT_STORE") == "s3" {
		store, err := storage.NewS3Store()
		if err != nil {
			logrus.WithError(err).Fatal("failed to configure S3 report store")
		}
		return store
	}
	dir := os.Getenv("ERROR_REPORT_DIR")
	if dir == "" {
		dir = "error-csvs"
	}
	store, err := storage.NewDiskStore(dir)
	if err != nil {
		logrus.WithError(err).Fatal("failed to configure report store")
	}
	return store
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("no .env file found, relying on environment")
	}
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logrus.SetLevel(level)
	}

	db := driver.ConnectDB()
	defer db.Close()

	uploadController := controllers.CompetitorUploadController{
		Reports: newReportStore(),
		Schemas: ingest.DefaultSchemas(),
	}
	olympiadController := controllers.OlympiadController{}
	areaController := controllers.AreaController{}
	catalogController := controllers.CatalogController{}

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/competitors/upload-csv", uploadController.UploadCSV(db)).Methods("POST")
	api.HandleFunc("/competitors/errors/{filename}", uploadController.DownloadErrorCSV()).Methods("GET")

	api.HandleFunc("/olympiads", olympiadController.GetOlympiads(db)).Methods("GET")
	api.HandleFunc("/olympiads", olympiadController.CreateOlympiad(db)).Methods("POST")
	api.HandleFunc("/olympiads/{id}", olympiadController.GetOlympiad(db)).Methods("GET")
	api.HandleFunc("/olympiads/{id}/areas", olympiadController.AddOlympiadArea(db)).Methods("POST")

	api.HandleFunc("/areas", areaController.GetAreas(db)).Methods("GET")
	api.HandleFunc("/areas", areaController.CreateArea(db)).Methods("POST")

	api.HandleFunc("/schools", catalogController.GetSchools(db)).Methods("GET")
	api.HandleFunc("/grades", catalogController.GetGrades(db)).Methods("GET")
	api.HandleFunc("/levels", catalogController.GetLevels(db)).Methods("GET")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	logrus.WithField("port", port).Info("server started")
	logrus.Fatal(http.ListenAndServe(":"+port, router))
}

package controllers

import (
	"database/sql"
	"net/http"

	"github.com/sirupsen/logrus"

	"olympiad-backend/models"
	"olympiad-backend/utils"
)

// CatalogController serves the reference catalogs (schools, grades,
// levels) that the ingestion pipeline fills lazily. Registration forms
// read them for dropdowns.
type CatalogController struct{}

func (cc CatalogController) GetSchools(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.Query("SELECT id, name FROM schools ORDER BY name")
		if err != nil {
			logrus.WithError(err).Error("failed to list schools")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get schools"})
			return
		}
		defer rows.Close()

		schools := []models.School{}
		for rows.Next() {
			var s models.School
			if err := rows.Scan(&s.ID, &s.Name); err != nil {
				utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to parse schools"})
				return
			}
			schools = append(schools, s)
		}
		utils.ResponseJSON(w, schools)
	}
}

func (cc CatalogController) GetGrades(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.Query("SELECT id, name FROM grades ORDER BY id")
		if err != nil {
			logrus.WithError(err).Error("failed to list grades")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get grades"})
			return
		}
		defer rows.Close()

		grades := []models.Grade{}
		for rows.Next() {
			var g models.Grade
			if err := rows.Scan(&g.ID, &g.Name); err != nil {
				utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to parse grades"})
				return
			}
			grades = append(grades, g)
		}
		utils.ResponseJSON(w, grades)
	}
}

func (cc CatalogController) GetLevels(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.Query("SELECT id, name FROM levels ORDER BY id")
		if err != nil {
			logrus.WithError(err).Error("failed to list levels")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get levels"})
			return
		}
		defer rows.Close()

		levels := []models.Level{}
		for rows.Next() {
			var l models.Level
			if err := rows.Scan(&l.ID, &l.Name); err != nil {
				utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to parse levels"})
				return
			}
			levels = append(levels, l)
		}
		utils.ResponseJSON(w, levels)
	}
}

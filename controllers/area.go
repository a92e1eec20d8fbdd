package controllers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"olympiad-backend/models"
	"olympiad-backend/utils"
)

type AreaController struct{}

func (ac AreaController) GetAreas(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.Query("SELECT id, name FROM areas ORDER BY name")
		if err != nil {
			logrus.WithError(err).Error("failed to list areas")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get areas"})
			return
		}
		defer rows.Close()

		areas := []models.Area{}
		for rows.Next() {
			var a models.Area
			if err := rows.Scan(&a.ID, &a.Name); err != nil {
				utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to parse areas"})
				return
			}
			areas = append(areas, a)
		}
		utils.ResponseJSON(w, areas)
	}
}

func (ac AreaController) CreateArea(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var a models.Area
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil || a.Name == "" {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "name is required"})
			return
		}

		result, err := db.Exec("INSERT INTO areas (name) VALUES (?)", a.Name)
		if err != nil {
			utils.RespondWithError(w, http.StatusConflict, models.Error{Message: "Area already exists or could not be created"})
			return
		}
		id, _ := result.LastInsertId()
		a.ID = int(id)
		utils.ResponseJSON(w, a)
	}
}

package controllers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"olympiad-backend/models"
	"olympiad-backend/utils"
)

type OlympiadController struct{}

func (oc OlympiadController) GetOlympiads(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.Query("SELECT id, name, edition, start_date, end_date, status FROM olympiads")
		if err != nil {
			logrus.WithError(err).Error("failed to list olympiads")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get olympiads"})
			return
		}
		defer rows.Close()

		olympiads := []models.Olympiad{}
		for rows.Next() {
			var o models.Olympiad
			if err := rows.Scan(&o.ID, &o.Name, &o.Edition, &o.StartDate, &o.EndDate, &o.Status); err != nil {
				logrus.WithError(err).Error("failed to scan olympiad")
				utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to parse olympiads"})
				return
			}
			olympiads = append(olympiads, o)
		}
		utils.ResponseJSON(w, olympiads)
	}
}

func (oc OlympiadController) GetOlympiad(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid olympiad id"})
			return
		}

		var o models.Olympiad
		err = db.QueryRow("SELECT id, name, edition, start_date, end_date, status FROM olympiads WHERE id = ?", id).
			Scan(&o.ID, &o.Name, &o.Edition, &o.StartDate, &o.EndDate, &o.Status)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Olympiad not found"})
			return
		}
		if err != nil {
			logrus.WithError(err).Error("failed to get olympiad")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get olympiad"})
			return
		}

		areaRows, err := db.Query(`
			SELECT a.id, a.name FROM areas a
			JOIN olympiad_areas oa ON oa.area_id = a.id
			WHERE oa.olympiad_id = ?`, id)
		if err != nil {
			logrus.WithError(err).Error("failed to list olympiad areas")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to get olympiad areas"})
			return
		}
		defer areaRows.Close()
		for areaRows.Next() {
			var a models.Area
			if err := areaRows.Scan(&a.ID, &a.Name); err != nil {
				utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to parse olympiad areas"})
				return
			}
			o.Areas = append(o.Areas, a)
		}
		utils.ResponseJSON(w, o)
	}
}

func (oc OlympiadController) CreateOlympiad(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name      string `json:"name"`
			Edition   string `json:"edition"`
			StartDate string `json:"start_date"`
			EndDate   string `json:"end_date"`
			Status    string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request"})
			return
		}
		if body.Name == "" {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "name is required"})
			return
		}
		if body.Status == "" {
			body.Status = "draft"
		}

		o := models.Olympiad{
			Name:      body.Name,
			Edition:   body.Edition,
			StartDate: sql.NullString{String: body.StartDate, Valid: body.StartDate != ""},
			EndDate:   sql.NullString{String: body.EndDate, Valid: body.EndDate != ""},
			Status:    body.Status,
		}

		result, err := db.Exec(
			"INSERT INTO olympiads (name, edition, start_date, end_date, status) VALUES (?, ?, ?, ?, ?)",
			o.Name, o.Edition, o.StartDate, o.EndDate, o.Status)
		if err != nil {
			logrus.WithError(err).Error("failed to create olympiad")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to create olympiad"})
			return
		}
		id, _ := result.LastInsertId()
		o.ID = int(id)
		utils.ResponseJSON(w, o)
	}
}

// AddOlympiadArea associates an existing area with an olympiad; the
// ingestion pipeline later checks registrations against this set.
func (oc OlympiadController) AddOlympiadArea(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		olympiadID, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid olympiad id"})
			return
		}

		var body struct {
			AreaID int `json:"area_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.AreaID <= 0 {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "area_id is required"})
			return
		}

		var olympiadExists, areaExists bool
		if err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM olympiads WHERE id = ?)", olympiadID).Scan(&olympiadExists); err != nil || !olympiadExists {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Olympiad not found"})
			return
		}
		if err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM areas WHERE id = ?)", body.AreaID).Scan(&areaExists); err != nil || !areaExists {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Area not found"})
			return
		}

		result, err := db.Exec("INSERT IGNORE INTO olympiad_areas (olympiad_id, area_id) VALUES (?, ?)", olympiadID, body.AreaID)
		if err != nil {
			logrus.WithError(err).Error("failed to associate area")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to associate area"})
			return
		}
		id, _ := result.LastInsertId()
		utils.ResponseJSON(w, models.OlympiadArea{ID: int(id), OlympiadID: olympiadID, AreaID: body.AreaID})
	}
}

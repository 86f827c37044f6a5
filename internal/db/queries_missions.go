package db

import (
	"database/sql"
	"encoding/json"

	"github.com/karimfahmy/storepulse/internal/model"
)

const missionCols = `id, org_id, title, store, status, starts_at, expires_at,
	  location, budget, fee, cost, requires_video, requires_photos,
	  time_on_site_min, template_id, created_at`

func CreateMission(database *sql.DB, m *model.Mission) error {
	loc, err := marshalLocation(m.Location)
	if err != nil {
		return err
	}
	_, err = database.Exec(
		`INSERT INTO missions (id, org_id, title, store, status, starts_at, expires_at,
		  location, budget, fee, requires_video, requires_photos, time_on_site_min, template_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.OrgID, m.Title, m.Store, m.Status,
		FormatTimePtr(m.StartsAt), FormatTimePtr(m.ExpiresAt),
		loc, m.Budget, m.Fee, m.RequiresVideo, m.RequiresPhotos,
		m.TimeOnSiteMin, m.TemplateID,
	)
	return err
}

func GetMission(database *sql.DB, id string) (*model.Mission, error) {
	row := database.QueryRow(`SELECT `+missionCols+` FROM missions WHERE id = ?`, id)
	m, err := scanMission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func ListMissions(database *sql.DB, orgID string, limit int) ([]model.Mission, error) {
	rows, err := database.Query(
		`SELECT `+missionCols+` FROM missions WHERE org_id = ?
		 ORDER BY created_at DESC LIMIT ?`, orgID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var missions []model.Mission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, err
		}
		missions = append(missions, *m)
	}
	return missions, rows.Err()
}

// UpdateMission writes all client-editable fields. Cost is store-managed and
// deliberately not part of the statement.
func UpdateMission(database *sql.DB, m *model.Mission) error {
	loc, err := marshalLocation(m.Location)
	if err != nil {
		return err
	}
	_, err = database.Exec(
		`UPDATE missions SET title = ?, store = ?, status = ?, starts_at = ?, expires_at = ?,
		  location = ?, budget = ?, fee = ?, requires_video = ?, requires_photos = ?,
		  time_on_site_min = ?, template_id = ?
		 WHERE id = ?`,
		m.Title, m.Store, m.Status,
		FormatTimePtr(m.StartsAt), FormatTimePtr(m.ExpiresAt),
		loc, m.Budget, m.Fee, m.RequiresVideo, m.RequiresPhotos,
		m.TimeOnSiteMin, m.TemplateID, m.ID,
	)
	return err
}

func SetMissionStatus(database *sql.DB, id, status string) error {
	_, err := database.Exec(`UPDATE missions SET status = ? WHERE id = ?`, status, id)
	return err
}

// DeleteMission removes the mission and everything hanging off it. The
// checklist cascades through its foreign key; submissions reference missions
// without one, so their rows are cleared explicitly.
func DeleteMission(database *sql.DB, id string) error {
	tx, err := database.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM mission_answers WHERE submission_id IN
		  (SELECT id FROM mission_submissions WHERE mission_id = ?)`,
		`DELETE FROM mission_submission_items WHERE submission_id IN
		  (SELECT id FROM mission_submissions WHERE mission_id = ?)`,
		`DELETE FROM mission_submissions WHERE mission_id = ?`,
		`DELETE FROM reports WHERE mission_id = ?`,
		`DELETE FROM missions WHERE id = ?`,
	} {
		if _, err := tx.Exec(stmt, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMission(r rowScanner) (*model.Mission, error) {
	m := &model.Mission{}
	var store, locJSON, templateID sql.NullString
	var startsAt, expiresAt NullableTime
	var createdAt SQLiteTime
	var budget, fee, cost sql.NullFloat64
	err := r.Scan(&m.ID, &m.OrgID, &m.Title, &store, &m.Status,
		&startsAt, &expiresAt, &locJSON, &budget, &fee, &cost,
		&m.RequiresVideo, &m.RequiresPhotos, &m.TimeOnSiteMin,
		&templateID, &createdAt)
	if err != nil {
		return nil, err
	}
	m.Store = store.String
	m.StartsAt = startsAt.Ptr()
	m.ExpiresAt = expiresAt.Ptr()
	m.CreatedAt = createdAt.Time
	if budget.Valid {
		m.Budget = &budget.Float64
	}
	if fee.Valid {
		m.Fee = &fee.Float64
	}
	if cost.Valid {
		m.Cost = &cost.Float64
	}
	if templateID.Valid {
		m.TemplateID = &templateID.String
	}
	if locJSON.Valid && locJSON.String != "" {
		var loc model.Location
		if err := json.Unmarshal([]byte(locJSON.String), &loc); err == nil {
			m.Location = &loc
		}
	}
	return m, nil
}

func marshalLocation(loc *model.Location) (interface{}, error) {
	if loc == nil {
		return nil, nil
	}
	b, err := json.Marshal(loc)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

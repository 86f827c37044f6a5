package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/karimfahmy/storepulse/internal/model"
)

const reportCols = `id, org_id, mission_id, type, status, generated_at, title, pdf_url, kpis, meta`

func GetReportByID(database *sql.DB, id string) (*model.Report, error) {
	row := database.QueryRow(`SELECT `+reportCols+` FROM reports WHERE id = ?`, id)
	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

func GetReportByKey(database *sql.DB, orgID, missionID, reportType string) (*model.Report, error) {
	row := database.QueryRow(
		`SELECT `+reportCols+` FROM reports
		 WHERE org_id = ? AND mission_id = ? AND type = ?`,
		orgID, missionID, reportType,
	)
	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

func FindReportByMission(database *sql.DB, orgID, missionID string) (*model.Report, error) {
	q := `SELECT ` + reportCols + ` FROM reports WHERE mission_id = ?`
	args := []interface{}{missionID}
	if orgID != "" {
		q += ` AND org_id = ?`
		args = append(args, orgID)
	}
	q += ` LIMIT 1`
	row := database.QueryRow(q, args...)
	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// FindReportBySubmission looks for a report whose metadata snapshot records
// the given submission id (exact match on meta.submission_id).
func FindReportBySubmission(database *sql.DB, orgID, submissionID string) (*model.Report, error) {
	row := database.QueryRow(
		`SELECT `+reportCols+` FROM reports
		 WHERE org_id = ? AND json_extract(meta, '$.submission_id') = ? LIMIT 1`,
		orgID, submissionID,
	)
	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

func ListReports(database *sql.DB, orgID string, limit int) ([]model.Report, error) {
	rows, err := database.Query(
		`SELECT `+reportCols+` FROM reports WHERE org_id = ?
		 ORDER BY generated_at DESC LIMIT ?`, orgID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []model.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

// UpsertReport writes the report row keyed by (org_id, mission_id, type):
// an existing row is overwritten in place, otherwise a new one is inserted.
// Returns the row id. At most one report exists per key.
func UpsertReport(database *sql.DB, r *model.Report) (string, error) {
	kpis, meta, err := marshalReportBlobs(r)
	if err != nil {
		return "", err
	}

	existing, err := GetReportByKey(database, r.OrgID, r.MissionID, r.Type)
	if err != nil {
		return "", fmt.Errorf("reports lookup: %w", err)
	}

	if existing != nil {
		_, err := database.Exec(
			`UPDATE reports SET status = ?, generated_at = ?, title = ?, pdf_url = ?, kpis = ?, meta = ?
			 WHERE id = ?`,
			r.Status, FormatTimePtr(r.GeneratedAt), r.Title, r.PDFURL, kpis, meta, existing.ID,
		)
		if err != nil {
			return "", fmt.Errorf("reports update: %w", err)
		}
		return existing.ID, nil
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err = database.Exec(
		`INSERT INTO reports (id, org_id, mission_id, type, status, generated_at, title, pdf_url, kpis, meta)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.OrgID, r.MissionID, r.Type, r.Status,
		FormatTimePtr(r.GeneratedAt), r.Title, r.PDFURL, kpis, meta,
	)
	if err != nil {
		return "", fmt.Errorf("reports insert: %w", err)
	}
	return r.ID, nil
}

// MarkReportFailed transitions a report to Failed, folding the failure message
// into its metadata so the failure is visible on the next read.
func MarkReportFailed(database *sql.DB, id string, meta map[string]interface{}, message string) error {
	merged := make(map[string]interface{}, len(meta)+1)
	for k, v := range meta {
		merged[k] = v
	}
	merged["error"] = message
	b, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	_, err = database.Exec(
		`UPDATE reports SET status = ?, meta = ? WHERE id = ?`,
		model.ReportFailed, string(b), id,
	)
	return err
}

func scanReport(r rowScanner) (*model.Report, error) {
	rep := &model.Report{}
	var generatedAt NullableTime
	var title, pdfURL, kpis, meta sql.NullString
	err := r.Scan(&rep.ID, &rep.OrgID, &rep.MissionID, &rep.Type, &rep.Status,
		&generatedAt, &title, &pdfURL, &kpis, &meta)
	if err != nil {
		return nil, err
	}
	rep.GeneratedAt = generatedAt.Ptr()
	rep.Title = title.String
	if pdfURL.Valid && pdfURL.String != "" {
		rep.PDFURL = &pdfURL.String
	}
	if kpis.Valid && kpis.String != "" {
		var m map[string]int
		if err := json.Unmarshal([]byte(kpis.String), &m); err == nil {
			rep.KPIs = m
		}
	}
	if meta.Valid && meta.String != "" {
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(meta.String), &m); err == nil {
			rep.Meta = m
		}
	}
	return rep, nil
}

func marshalReportBlobs(r *model.Report) (interface{}, interface{}, error) {
	var kpis, meta interface{}
	if r.KPIs != nil {
		b, err := json.Marshal(r.KPIs)
		if err != nil {
			return nil, nil, err
		}
		kpis = string(b)
	}
	if r.Meta != nil {
		b, err := json.Marshal(r.Meta)
		if err != nil {
			return nil, nil, err
		}
		meta = string(b)
	}
	return kpis, meta, nil
}

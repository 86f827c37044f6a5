package db

import (
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/karimfahmy/storepulse/internal/model"
)

const submissionCols = `id, org_id, mission_id, agent_id, status, started_at, submitted_at, comment, meta_json`

func CreateSubmission(database *sql.DB, s *model.Submission) error {
	var meta interface{}
	if s.Meta != nil {
		b, err := json.Marshal(s.Meta)
		if err != nil {
			return err
		}
		meta = string(b)
	}
	_, err := database.Exec(
		`INSERT INTO mission_submissions (id, org_id, mission_id, agent_id, status,
		  started_at, submitted_at, comment, meta_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.OrgID, s.MissionID, s.AgentID, s.Status,
		FormatTimePtr(s.StartedAt), FormatTimePtr(s.SubmittedAt), s.Comment, meta,
	)
	return err
}

func GetSubmission(database *sql.DB, id string) (*model.Submission, error) {
	row := database.QueryRow(
		`SELECT `+submissionCols+` FROM mission_submissions WHERE id = ?`, id)
	s, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func ListSubmissions(database *sql.DB, orgID string, limit int) ([]model.Submission, error) {
	rows, err := database.Query(
		`SELECT `+submissionCols+` FROM mission_submissions WHERE org_id = ?
		 ORDER BY submitted_at DESC LIMIT ?`, orgID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

// ListSubmittedSubmissions returns submissions in the "submitted" state,
// newest first. This is the backfill scan source.
func ListSubmittedSubmissions(database *sql.DB, orgID string, limit int) ([]model.Submission, error) {
	rows, err := database.Query(
		`SELECT `+submissionCols+` FROM mission_submissions
		 WHERE org_id = ? AND status = 'submitted'
		 ORDER BY submitted_at DESC LIMIT ?`, orgID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

// MissionIDsWithSubmission reports which of the given missions have at least
// one submission that looks submitted (a submitted_at timestamp or an explicit
// submitted status).
func MissionIDsWithSubmission(database *sql.DB, missionIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(missionIDs) == 0 {
		return out, nil
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(missionIDs)), ",")
	args := make([]interface{}, len(missionIDs))
	for i, id := range missionIDs {
		args[i] = id
	}

	rows, err := database.Query(
		`SELECT DISTINCT mission_id FROM mission_submissions
		 WHERE mission_id IN (`+placeholders+`)
		   AND (submitted_at IS NOT NULL OR LOWER(status) = 'submitted')`, args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

func scanSubmission(r rowScanner) (*model.Submission, error) {
	s := &model.Submission{}
	var startedAt, submittedAt NullableTime
	var comment, metaJSON sql.NullString
	err := r.Scan(&s.ID, &s.OrgID, &s.MissionID, &s.AgentID, &s.Status,
		&startedAt, &submittedAt, &comment, &metaJSON)
	if err != nil {
		return nil, err
	}
	s.StartedAt = startedAt.Ptr()
	s.SubmittedAt = submittedAt.Ptr()
	if comment.Valid {
		s.Comment = &comment.String
	}
	if metaJSON.Valid && metaJSON.String != "" {
		var meta map[string]interface{}
		if err := json.Unmarshal([]byte(metaJSON.String), &meta); err == nil {
			s.Meta = meta
		}
	}
	return s, nil
}

func collectSubmissions(rows *sql.Rows) ([]model.Submission, error) {
	var subs []model.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *s)
	}
	return subs, rows.Err()
}

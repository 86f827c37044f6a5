package db

import (
	"database/sql"
	"strings"

	"github.com/karimfahmy/storepulse/internal/model"
)

func InsertAnswer(database *sql.DB, a *model.Answer) error {
	_, err := database.Exec(
		`INSERT INTO mission_answers (id, submission_id, item_id, value_yn, value_text,
		  value_number, value_duration_ms, media_path, media_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SubmissionID, a.ItemID, a.ValueYN, a.ValueText,
		a.ValueNumber, a.ValueDurationMS, a.MediaPath, a.MediaType,
	)
	return err
}

func ListAnswers(database *sql.DB, submissionID string) ([]model.Answer, error) {
	rows, err := database.Query(
		`SELECT id, submission_id, item_id, value_yn, value_text, value_number,
		  value_duration_ms, media_path, media_type, created_at
		 FROM mission_answers WHERE submission_id = ? ORDER BY created_at ASC`, submissionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		var itemID, valueText, mediaPath, mediaType sql.NullString
		var valueYN sql.NullBool
		var valueNumber sql.NullFloat64
		var valueDurationMS sql.NullInt64
		var createdAt SQLiteTime
		err := rows.Scan(&a.ID, &a.SubmissionID, &itemID, &valueYN, &valueText,
			&valueNumber, &valueDurationMS, &mediaPath, &mediaType, &createdAt)
		if err != nil {
			return nil, err
		}
		if itemID.Valid {
			a.ItemID = &itemID.String
		}
		if valueYN.Valid {
			a.ValueYN = &valueYN.Bool
		}
		if valueText.Valid {
			a.ValueText = &valueText.String
		}
		if valueNumber.Valid {
			a.ValueNumber = &valueNumber.Float64
		}
		if valueDurationMS.Valid {
			a.ValueDurationMS = &valueDurationMS.Int64
		}
		if mediaPath.Valid {
			a.MediaPath = &mediaPath.String
		}
		if mediaType.Valid {
			a.MediaType = &mediaType.String
		}
		a.CreatedAt = createdAt.Time
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func InsertSubmissionItem(database *sql.DB, it *model.SubmissionItem) error {
	_, err := database.Exec(
		`INSERT INTO mission_submission_items (id, submission_id, mission_id, checklist_item_id,
		  answer_type, yes_no, comment, timer_seconds, rating, photo_attachment_id, video_attachment_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.SubmissionID, it.MissionID, it.ChecklistItemID,
		it.AnswerType, it.YesNo, it.Comment, it.TimerSeconds, it.Rating,
		it.PhotoAttachmentID, it.VideoAttachmentID,
	)
	return err
}

func ListSubmissionItems(database *sql.DB, submissionID string) ([]model.SubmissionItem, error) {
	rows, err := database.Query(
		`SELECT id, submission_id, COALESCE(mission_id, ''), checklist_item_id, answer_type,
		  yes_no, comment, timer_seconds, rating, photo_attachment_id, video_attachment_id, created_at
		 FROM mission_submission_items WHERE submission_id = ? ORDER BY created_at ASC`, submissionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.SubmissionItem
	for rows.Next() {
		var it model.SubmissionItem
		var checklistItemID, comment, photoAtt, videoAtt sql.NullString
		var yesNo sql.NullBool
		var timerSeconds, rating sql.NullInt64
		var createdAt SQLiteTime
		err := rows.Scan(&it.ID, &it.SubmissionID, &it.MissionID, &checklistItemID,
			&it.AnswerType, &yesNo, &comment, &timerSeconds, &rating,
			&photoAtt, &videoAtt, &createdAt)
		if err != nil {
			return nil, err
		}
		if checklistItemID.Valid {
			it.ChecklistItemID = &checklistItemID.String
		}
		if yesNo.Valid {
			it.YesNo = &yesNo.Bool
		}
		if comment.Valid {
			it.Comment = &comment.String
		}
		if timerSeconds.Valid {
			n := int(timerSeconds.Int64)
			it.TimerSeconds = &n
		}
		if rating.Valid {
			n := int(rating.Int64)
			it.Rating = &n
		}
		if photoAtt.Valid {
			it.PhotoAttachmentID = &photoAtt.String
		}
		if videoAtt.Valid {
			it.VideoAttachmentID = &videoAtt.String
		}
		it.CreatedAt = createdAt.Time
		items = append(items, it)
	}
	return items, rows.Err()
}

func CreateAttachment(database *sql.DB, a *model.Attachment) error {
	_, err := database.Exec(
		`INSERT INTO attachments (id, path, content_type, public_url, size_bytes)
		 VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Path, a.ContentType, a.PublicURL, a.SizeBytes,
	)
	return err
}

// GetAttachments resolves a batch of attachment ids in one query.
func GetAttachments(database *sql.DB, ids []string) (map[string]model.Attachment, error) {
	out := make(map[string]model.Attachment)
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := database.Query(
		`SELECT id, path, content_type, public_url, size_bytes, created_at
		 FROM attachments WHERE id IN (`+placeholders+`)`, args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var a model.Attachment
		var path, contentType, publicURL sql.NullString
		var sizeBytes sql.NullInt64
		var createdAt SQLiteTime
		err := rows.Scan(&a.ID, &path, &contentType, &publicURL, &sizeBytes, &createdAt)
		if err != nil {
			return nil, err
		}
		if path.Valid {
			a.Path = &path.String
		}
		if contentType.Valid {
			a.ContentType = &contentType.String
		}
		if publicURL.Valid {
			a.PublicURL = &publicURL.String
		}
		if sizeBytes.Valid {
			a.SizeBytes = &sizeBytes.Int64
		}
		a.CreatedAt = createdAt.Time
		out[a.ID] = a
	}
	return out, rows.Err()
}

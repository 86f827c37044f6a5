package db

import (
	"database/sql"
	"fmt"

	"github.com/karimfahmy/storepulse/internal/model"
)

func ListChecklistItems(database *sql.DB, missionID string) ([]model.ChecklistItem, error) {
	rows, err := database.Query(
		`SELECT id, mission_id, order_index, text, answer_type, yes_no,
		  requires_photo, requires_video, requires_comment, requires_timer
		 FROM mission_checklist_items WHERE mission_id = ? ORDER BY order_index ASC`, missionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.ChecklistItem
	for rows.Next() {
		var it model.ChecklistItem
		err := rows.Scan(&it.ID, &it.MissionID, &it.OrderIndex, &it.Text,
			&it.AnswerType, &it.YesNo, &it.RequiresPhoto, &it.RequiresVideo,
			&it.RequiresComment, &it.RequiresTimer)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ReplaceChecklist swaps the full item set for a mission in one transaction.
// The checklist has no partial-update path: every save is delete-then-insert.
func ReplaceChecklist(database *sql.DB, missionID string, items []model.ChecklistItem) error {
	tx, err := database.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM mission_checklist_items WHERE mission_id = ?`, missionID); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear checklist: %w", err)
	}

	for _, it := range items {
		_, err := tx.Exec(
			`INSERT INTO mission_checklist_items (id, mission_id, order_index, text,
			  answer_type, yes_no, requires_photo, requires_video, requires_comment, requires_timer)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, missionID, it.OrderIndex, it.Text, it.AnswerType, it.YesNo,
			it.RequiresPhoto, it.RequiresVideo, it.RequiresComment, it.RequiresTimer,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert checklist item: %w", err)
		}
	}

	return tx.Commit()
}

func DeleteChecklist(database *sql.DB, missionID string) error {
	_, err := database.Exec(`DELETE FROM mission_checklist_items WHERE mission_id = ?`, missionID)
	return err
}

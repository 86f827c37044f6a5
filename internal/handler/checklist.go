package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/karimfahmy/storepulse/internal/db"
	"github.com/karimfahmy/storepulse/internal/model"
)

type checklistItemInput struct {
	Text       string             `json:"text"`
	YesNo      bool               `json:"yesNo"`
	AnswerType string             `json:"answerType"`
	OrderIndex *int               `json:"order_index"`
	Requires   model.ItemRequires `json:"requires"`
}

type checklistItemWire struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	YesNo           bool   `json:"yesNo"`
	AnswerType      string `json:"answerType"`
	OrderIndex      int    `json:"orderIndex"`
	RequiresPhoto   bool   `json:"requiresPhoto"`
	RequiresVideo   bool   `json:"requiresVideo"`
	RequiresComment bool   `json:"requiresComment"`
	RequiresTimer   bool   `json:"requiresTimer"`
}

// ChecklistGet handles GET /api/missions/{id}/checklist
func (h *Handler) ChecklistGet(w http.ResponseWriter, r *http.Request) {
	items, err := db.ListChecklistItems(h.DB, chi.URLParam(r, "id"))
	if err != nil {
		h.Log.Error("list checklist", "error", err)
		jsonError(w, "list checklist failed", http.StatusInternalServerError)
		return
	}
	out := make([]checklistItemWire, len(items))
	for i, it := range items {
		out[i] = checklistItemWire{
			ID:              it.ID,
			Title:           it.Text,
			YesNo:           it.YesNo,
			AnswerType:      it.AnswerType,
			OrderIndex:      it.OrderIndex,
			RequiresPhoto:   it.RequiresPhoto,
			RequiresVideo:   it.RequiresVideo,
			RequiresComment: it.RequiresComment,
			RequiresTimer:   it.RequiresTimer,
		}
	}
	jsonOK(w, map[string]interface{}{"ok": true, "items": out})
}

// ChecklistReplace handles PUT /api/missions/{id}/checklist. The whole
// snapshot is replaced; there is no per-item update path. Items with a blank
// text are dropped, and the answer kind is derived, never taken verbatim.
func (h *Handler) ChecklistReplace(w http.ResponseWriter, r *http.Request) {
	missionID := strings.TrimSpace(chi.URLParam(r, "id"))
	if missionID == "" {
		jsonError(w, "Missing mission id", http.StatusBadRequest)
		return
	}
	m, err := db.GetMission(h.DB, missionID)
	if err != nil {
		h.Log.Error("get mission", "error", err)
		jsonError(w, "checklist save failed", http.StatusInternalServerError)
		return
	}
	if m == nil {
		jsonError(w, "Not found", http.StatusNotFound)
		return
	}

	var raw []checklistItemInput
	body, err := decodeChecklistBody(r)
	if err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	raw = body

	items := make([]model.ChecklistItem, 0, len(raw))
	for i, in := range raw {
		text := strings.TrimSpace(in.Text)
		if text == "" {
			continue
		}
		answerType := deriveAnswerType(in)
		idx := i
		if in.OrderIndex != nil {
			idx = *in.OrderIndex
		}
		items = append(items, model.ChecklistItem{
			ID:              uuid.NewString(),
			MissionID:       missionID,
			OrderIndex:      idx,
			Text:            text,
			AnswerType:      answerType,
			YesNo:           answerType == model.AnswerYesNo,
			RequiresPhoto:   in.Requires.Photo,
			RequiresVideo:   in.Requires.Video,
			RequiresComment: in.Requires.Comment,
			RequiresTimer:   in.Requires.Timer,
		})
	}

	if err := db.ReplaceChecklist(h.DB, missionID, items); err != nil {
		h.Log.Error("replace checklist", "error", err)
		jsonError(w, "checklist save failed", http.StatusInternalServerError)
		return
	}
	jsonOK(w, map[string]interface{}{"ok": true, "count": len(items)})
}

// decodeChecklistBody accepts both a bare array and an {items: [...]} wrapper.
func decodeChecklistBody(r *http.Request) ([]checklistItemInput, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, err
	}
	var arr []checklistItemInput
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr, nil
	}
	var wrapper struct {
		Items []checklistItemInput `json:"items"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Items, nil
}

// deriveAnswerType picks the stored kind with precedence
// rating > yes/no > rich > text.
func deriveAnswerType(in checklistItemInput) string {
	switch {
	case in.Requires.Rating, strings.EqualFold(in.AnswerType, model.AnswerRating):
		return model.AnswerRating
	case in.YesNo:
		return model.AnswerYesNo
	case in.Requires.Photo, in.Requires.Video, in.Requires.Timer:
		return model.AnswerRich
	default:
		return model.AnswerText
	}
}

package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/karimfahmy/storepulse/internal/db"
	"github.com/karimfahmy/storepulse/internal/model"
)

type submissionItemInput struct {
	AnswerType        string   `json:"answer_type"`
	ChecklistItemID   *string  `json:"checklist_item_id"`
	YesNo             *bool    `json:"yes_no"`
	Comment           *string  `json:"comment"`
	TimerSeconds      *float64 `json:"timer_seconds"`
	Rating            *float64 `json:"rating"`
	PhotoAttachmentID *string  `json:"photo_attachment_id"`
	VideoAttachmentID *string  `json:"video_attachment_id"`
	MediaPath         *string  `json:"media_path"`
	MediaType         *string  `json:"media_type"`
}

type submissionRequest struct {
	MissionID  string                 `json:"missionId"`
	AgentID    string                 `json:"agentId"`
	StartedAt  *int64                 `json:"startedAt"`
	Comment    *string                `json:"comment"`
	Items      []submissionItemInput  `json:"items"`
	GPS        map[string]interface{} `json:"gps"`
	DeviceMeta map[string]interface{} `json:"deviceMeta"`
	Meta       map[string]interface{} `json:"meta"`
}

// submissionMeta folds the GPS point and device metadata into the stored
// metadata blob alongside whatever the client already sent there.
func submissionMeta(req *submissionRequest) map[string]interface{} {
	if req.GPS == nil && req.DeviceMeta == nil {
		return req.Meta
	}
	meta := make(map[string]interface{}, len(req.Meta)+2)
	for k, v := range req.Meta {
		meta[k] = v
	}
	if req.GPS != nil {
		meta["gps"] = req.GPS
	}
	if req.DeviceMeta != nil {
		meta["device_meta"] = req.DeviceMeta
	}
	return meta
}

// SubmissionCreate handles POST /api/submissions. The org id always comes
// from the mission row, never from the client. Value answers land in
// mission_answers; attachment references keep the older
// mission_submission_items shape so existing report data stays readable.
func (h *Handler) SubmissionCreate(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.MissionID == "" || req.AgentID == "" {
		jsonError(w, "missionId and agentId are required", http.StatusBadRequest)
		return
	}

	mission, err := db.GetMission(h.DB, req.MissionID)
	if err != nil {
		h.Log.Error("get mission", "error", err)
		jsonError(w, "submission failed", http.StatusInternalServerError)
		return
	}
	if mission == nil {
		jsonError(w, "Mission not found", http.StatusNotFound)
		return
	}

	now := time.Now().UTC()
	sub := &model.Submission{
		ID:          uuid.NewString(),
		OrgID:       mission.OrgID,
		MissionID:   mission.ID,
		AgentID:     req.AgentID,
		Status:      "submitted",
		SubmittedAt: &now,
		Comment:     req.Comment,
		Meta:        submissionMeta(&req),
	}
	if req.StartedAt != nil {
		t := time.UnixMilli(*req.StartedAt).UTC()
		sub.StartedAt = &t
	}
	if err := db.CreateSubmission(h.DB, sub); err != nil {
		h.Log.Error("create submission", "error", err)
		jsonError(w, "submission failed", http.StatusInternalServerError)
		return
	}

	inserted := 0
	for _, it := range req.Items {
		kind := strings.ToUpper(strings.TrimSpace(it.AnswerType))
		switch kind {
		case "YN", "COMMENT", "TIMER", "RATING":
			a := &model.Answer{
				ID:           uuid.NewString(),
				SubmissionID: sub.ID,
				ItemID:       it.ChecklistItemID,
				MediaPath:    it.MediaPath,
				MediaType:    it.MediaType,
				CreatedAt:    now,
			}
			switch kind {
			case "YN":
				v := it.YesNo != nil && *it.YesNo
				a.ValueYN = &v
			case "COMMENT":
				if it.Comment != nil {
					a.ValueText = it.Comment
				}
			case "TIMER":
				if it.TimerSeconds != nil {
					ms := int64(*it.TimerSeconds * 1000)
					a.ValueDurationMS = &ms
				}
			case "RATING":
				if it.Rating != nil {
					a.ValueNumber = it.Rating
				}
			}
			if err := db.InsertAnswer(h.DB, a); err != nil {
				h.Log.Error("insert answer", "error", err)
				jsonError(w, "submission failed", http.StatusInternalServerError)
				return
			}
			inserted++
		case "PHOTO", "VIDEO":
			li := &model.SubmissionItem{
				ID:                uuid.NewString(),
				SubmissionID:      sub.ID,
				MissionID:         mission.ID,
				ChecklistItemID:   it.ChecklistItemID,
				AnswerType:        kind,
				PhotoAttachmentID: it.PhotoAttachmentID,
				VideoAttachmentID: it.VideoAttachmentID,
				CreatedAt:         now,
			}
			if err := db.InsertSubmissionItem(h.DB, li); err != nil {
				h.Log.Error("insert submission item", "error", err)
				jsonError(w, "submission failed", http.StatusInternalServerError)
				return
			}
			inserted++
		default:
			// unknown kinds are skipped, not rejected
		}
	}

	if err := db.SetMissionStatus(h.DB, mission.ID, model.StatusCompleted); err != nil {
		h.Log.Warn("mark mission completed", "mission_id", mission.ID, "error", err)
	}

	jsonOK(w, map[string]interface{}{"ok": true, "submissionId": sub.ID, "items": inserted})
}

// SubmissionList handles GET /api/submissions?orgId=...&limit=...
func (h *Handler) SubmissionList(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("orgId")
	if orgID == "" {
		jsonError(w, "orgId is required", http.StatusBadRequest)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 100 {
		limit = 100
	}

	subs, err := db.ListSubmissions(h.DB, orgID, limit)
	if err != nil {
		h.Log.Error("list submissions", "error", err)
		jsonError(w, "list submissions failed", http.StatusInternalServerError)
		return
	}

	type wire struct {
		ID          string  `json:"id"`
		MissionID   string  `json:"mission_id"`
		AgentID     string  `json:"agent_id"`
		Status      string  `json:"status"`
		SubmittedAt *string `json:"submitted_at"`
	}
	out := make([]wire, len(subs))
	for i, s := range subs {
		out[i] = wire{ID: s.ID, MissionID: s.MissionID, AgentID: s.AgentID, Status: s.Status}
		if s.SubmittedAt != nil {
			v := db.FormatTime(*s.SubmittedAt)
			out[i].SubmittedAt = &v
		}
	}
	jsonOK(w, map[string]interface{}{"ok": true, "submissions": out})
}

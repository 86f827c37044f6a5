package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/karimfahmy/storepulse/internal/blob"
	"github.com/karimfahmy/storepulse/internal/db"
	"github.com/karimfahmy/storepulse/internal/model"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, map[string]string{"status": "ok"})
}

type missionRequest struct {
	OrgID          *string         `json:"orgId"` // create only, never updatable
	Title          *string         `json:"title"`
	Store          *string         `json:"store"`
	Status         *string         `json:"status"`
	StartsAt       *int64          `json:"startsAt"`
	ExpiresAt      *int64          `json:"expiresAt"`
	Location       *model.Location `json:"location"`
	Budget         *float64        `json:"budget"`
	Fee            *float64        `json:"fee"`
	RequiresVideo  *bool           `json:"requiresVideo"`
	RequiresPhotos *bool           `json:"requiresPhotos"`
	TimeOnSiteMin  *int            `json:"timeOnSiteMin"`
	TemplateID     *string         `json:"templateId"`
}

type missionWire struct {
	ID             string          `json:"id"`
	OrgID          string          `json:"orgId"`
	Title          string          `json:"title"`
	Store          string          `json:"store"`
	Status         string          `json:"status"`
	StartsAt       int64           `json:"startsAt"`
	ExpiresAt      int64           `json:"expiresAt"`
	Location       *model.Location `json:"location"`
	Budget         *float64        `json:"budget"`
	Fee            *float64        `json:"fee"`
	Cost           *float64        `json:"cost"`
	RequiresVideo  bool            `json:"requiresVideo"`
	RequiresPhotos bool            `json:"requiresPhotos"`
	TimeOnSiteMin  int             `json:"timeOnSiteMin"`
	TemplateID     *string         `json:"templateId"`
	CreatedAt      string          `json:"createdAt"`
}

func missionToWire(m *model.Mission) missionWire {
	w := missionWire{
		ID:             m.ID,
		OrgID:          m.OrgID,
		Title:          m.Title,
		Store:          m.Store,
		Status:         m.Status,
		Location:       m.Location,
		Budget:         m.Budget,
		Fee:            m.Fee,
		Cost:           m.Cost,
		RequiresVideo:  m.RequiresVideo,
		RequiresPhotos: m.RequiresPhotos,
		TimeOnSiteMin:  m.TimeOnSiteMin,
		TemplateID:     m.TemplateID,
		CreatedAt:      db.FormatTime(m.CreatedAt),
	}
	if m.StartsAt != nil {
		w.StartsAt = m.StartsAt.UnixMilli()
	}
	if m.ExpiresAt != nil {
		w.ExpiresAt = m.ExpiresAt.UnixMilli()
	}
	return w
}

// deriveStatus computes the read-path status from the mission row, any
// submission presence and the clock. An explicit Completed on the row and any
// submission both win over the time window.
//
// TODO: a mission past its expiry currently reads back as Scheduled; needs an
// Expired state before the agent app can hide stale missions.
func deriveStatus(m *model.Mission, hasSubmission bool, now time.Time) string {
	if m.Status == model.StatusCompleted {
		return model.StatusCompleted
	}
	if hasSubmission {
		return model.StatusCompleted
	}
	switch {
	case m.StartsAt != nil && m.ExpiresAt != nil:
		if !now.Before(*m.StartsAt) && !now.After(*m.ExpiresAt) {
			return model.StatusNow
		}
		return model.StatusScheduled
	case m.StartsAt != nil:
		if !now.Before(*m.StartsAt) {
			return model.StatusNow
		}
		return model.StatusScheduled
	default:
		return model.StatusScheduled
	}
}

// MissionList handles GET /api/missions?orgId=...&limit=...
func (h *Handler) MissionList(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("orgId")
	if orgID == "" {
		jsonError(w, "orgId is required", http.StatusBadRequest)
		return
	}
	limit := 200
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	missions, err := db.ListMissions(h.DB, orgID, limit)
	if err != nil {
		h.Log.Error("list missions", "error", err)
		jsonError(w, "list missions failed", http.StatusInternalServerError)
		return
	}

	ids := make([]string, len(missions))
	for i, m := range missions {
		ids[i] = m.ID
	}
	withSub, err := db.MissionIDsWithSubmission(h.DB, ids)
	if err != nil {
		h.Log.Error("submission lookup", "error", err)
		jsonError(w, "list missions failed", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	out := make([]missionWire, len(missions))
	for i := range missions {
		m := &missions[i]
		wire := missionToWire(m)
		wire.Status = deriveStatus(m, withSub[m.ID], now)
		out[i] = wire
	}
	jsonOK(w, map[string]interface{}{"ok": true, "missions": out})
}

// MissionCreate handles POST /api/missions
func (h *Handler) MissionCreate(w http.ResponseWriter, r *http.Request) {
	var req missionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	orgID := r.URL.Query().Get("orgId")
	if orgID == "" && req.OrgID != nil {
		orgID = *req.OrgID
	}
	if orgID == "" {
		jsonError(w, "orgId is required", http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	m := &model.Mission{
		ID:        uuid.NewString(),
		OrgID:     orgID,
		Title:     "Untitled Mission",
		Status:    model.StatusScheduled,
		StartsAt:  &now,
		CreatedAt: now,
	}
	applyMissionRequest(m, &req)
	if req.Status != nil && *req.Status == model.StatusNow {
		m.Status = model.StatusNow
	}
	if m.TimeOnSiteMin == 0 {
		m.TimeOnSiteMin = 10
	}

	if err := db.CreateMission(h.DB, m); err != nil {
		h.Log.Error("create mission", "error", err)
		jsonError(w, "create mission failed", http.StatusInternalServerError)
		return
	}
	jsonOK(w, map[string]interface{}{"ok": true, "mission": missionToWire(m)})
}

// MissionGet handles GET /api/missions/{id}
func (h *Handler) MissionGet(w http.ResponseWriter, r *http.Request) {
	m, err := db.GetMission(h.DB, chi.URLParam(r, "id"))
	if err != nil {
		h.Log.Error("get mission", "error", err)
		jsonError(w, "get mission failed", http.StatusInternalServerError)
		return
	}
	if m == nil {
		jsonError(w, "Not found", http.StatusNotFound)
		return
	}
	jsonOK(w, map[string]interface{}{"mission": missionToWire(m)})
}

// MissionUpdate handles PUT/PATCH /api/missions/{id}. Absent fields are left
// untouched; cost is never client-writable.
func (h *Handler) MissionUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, err := db.GetMission(h.DB, id)
	if err != nil {
		h.Log.Error("get mission", "error", err)
		jsonError(w, "update mission failed", http.StatusInternalServerError)
		return
	}
	if m == nil {
		jsonError(w, "Not found", http.StatusNotFound)
		return
	}

	var req missionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	applyMissionRequest(m, &req)
	if req.Status != nil {
		switch *req.Status {
		case model.StatusScheduled, model.StatusNow, model.StatusCompleted:
			m.Status = *req.Status
		}
	}

	if err := db.UpdateMission(h.DB, m); err != nil {
		h.Log.Error("update mission", "error", err)
		jsonError(w, "update mission failed", http.StatusInternalServerError)
		return
	}
	jsonOK(w, map[string]interface{}{"ok": true, "mission": missionToWire(m)})
}

// MissionDelete handles DELETE /api/missions/{id}. Checklist, submissions and
// answers go with the mission row; stored media cleanup is best-effort.
func (h *Handler) MissionDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, "Missing id", http.StatusBadRequest)
		return
	}
	m, err := db.GetMission(h.DB, id)
	if err != nil {
		h.Log.Error("get mission", "error", err)
		jsonError(w, "delete mission failed", http.StatusInternalServerError)
		return
	}
	if err := db.DeleteMission(h.DB, id); err != nil {
		h.Log.Error("delete mission", "error", err)
		jsonError(w, "delete mission failed", http.StatusInternalServerError)
		return
	}
	if m != nil {
		// matches the sanitized layout the upload handler writes under
		prefix := fmt.Sprintf("%s/%s", safeName(m.OrgID), safeName(id))
		if err := h.Blob.RemovePrefix(blob.BucketMedia, prefix); err != nil {
			h.Log.Warn("media cleanup", "mission_id", id, "error", err)
		}
	}
	jsonOK(w, map[string]interface{}{"ok": true})
}

func applyMissionRequest(m *model.Mission, req *missionRequest) {
	if req.Title != nil && *req.Title != "" {
		m.Title = *req.Title
	}
	if req.Store != nil {
		m.Store = *req.Store
	}
	if req.StartsAt != nil {
		t := time.UnixMilli(*req.StartsAt).UTC()
		m.StartsAt = &t
	}
	if req.ExpiresAt != nil {
		t := time.UnixMilli(*req.ExpiresAt).UTC()
		m.ExpiresAt = &t
	}
	if req.Location != nil {
		loc := *req.Location
		if loc.RadiusM == 0 {
			loc.RadiusM = 150
		}
		m.Location = &loc
	}
	if req.Budget != nil {
		m.Budget = req.Budget
	}
	if req.Fee != nil {
		m.Fee = req.Fee
	}
	if req.RequiresVideo != nil {
		m.RequiresVideo = *req.RequiresVideo
	}
	if req.RequiresPhotos != nil {
		m.RequiresPhotos = *req.RequiresPhotos
	}
	if req.TimeOnSiteMin != nil {
		m.TimeOnSiteMin = *req.TimeOnSiteMin
	}
	if req.TemplateID != nil {
		m.TemplateID = req.TemplateID
	}
}

package handler

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/karimfahmy/storepulse/internal/blob"
	"github.com/karimfahmy/storepulse/internal/db"
	"github.com/karimfahmy/storepulse/internal/model"
)

// DebugEcho handles GET/POST /api/debug/echo. Returns what the server saw,
// for diagnosing client serialization issues.
func (h *Handler) DebugEcho(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	headers := map[string]string{}
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}
	jsonOK(w, map[string]interface{}{
		"ok":      true,
		"method":  r.Method,
		"path":    r.URL.Path,
		"query":   r.URL.RawQuery,
		"headers": headers,
		"body":    string(body),
	})
}

// DebugStorage handles GET /api/debug/storage. Writes a probe object through
// the blob client, lists it back and reports data-dir usage.
func (h *Handler) DebugStorage(w http.ResponseWriter, r *http.Request) {
	probePath := fmt.Sprintf("_probe/%s.txt", uuid.NewString())
	payload := []byte("storage probe " + time.Now().UTC().Format(time.RFC3339))

	result := map[string]interface{}{"ok": true}
	if err := h.Blob.Upload(blob.BucketMedia, probePath, payload, "text/plain"); err != nil {
		result["ok"] = false
		result["upload_error"] = err.Error()
		jsonOK(w, result)
		return
	}
	listed, err := h.Blob.List(blob.BucketMedia, "_probe")
	if err != nil {
		result["list_error"] = err.Error()
	}
	result["probe_path"] = probePath
	result["probe_listed"] = len(listed)
	if err := h.Blob.Remove(blob.BucketMedia, []string{probePath}); err != nil {
		result["cleanup_error"] = err.Error()
	}

	if h.Disk != nil {
		h.Disk.Refresh()
		stats := h.Disk.Get()
		result["disk"] = stats
		result["pct_free"] = stats.PctFree()
	}
	jsonOK(w, result)
}

// DebugStats handles GET /api/debug/stats.
func (h *Handler) DebugStats(w http.ResponseWriter, r *http.Request) {
	counts := map[string]int{}
	for name, query := range map[string]string{
		"missions":    "SELECT COUNT(*) FROM missions",
		"submissions": "SELECT COUNT(*) FROM mission_submissions",
		"reports":     "SELECT COUNT(*) FROM reports",
	} {
		var n int
		if err := h.DB.QueryRow(query).Scan(&n); err == nil {
			counts[name] = n
		}
	}
	jsonOK(w, map[string]interface{}{
		"ok":      true,
		"counts":  counts,
		"fixture": h.Fixture.Stats(),
	})
}

// DebugSeed handles POST /api/debug/seed?orgId=... It writes one complete
// mission with checklist, submission and answers through the normal query
// layer, so a fresh install has something to generate a report from.
func (h *Handler) DebugSeed(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("orgId")
	if orgID == "" {
		orgID = "demo-org"
	}
	tpl := h.Fixture.Template("tpl-fastfood")
	if tpl == nil {
		jsonError(w, "fixture template missing", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	ends := now.Add(4 * time.Hour)
	loc := tpl.DefaultLocation
	mission := &model.Mission{
		ID:             uuid.NewString(),
		OrgID:          orgID,
		Title:          tpl.Name,
		Store:          tpl.DefaultStore,
		Status:         model.StatusNow,
		StartsAt:       &now,
		ExpiresAt:      &ends,
		Location:       &loc,
		Budget:         &tpl.DefaultBudget,
		Fee:            &tpl.DefaultFee,
		RequiresPhotos: tpl.RequiresPhotos,
		RequiresVideo:  tpl.RequiresVideo,
		TimeOnSiteMin:  tpl.TimeOnSiteMin,
		TemplateID:     &tpl.ID,
		CreatedAt:      now,
	}
	if err := db.CreateMission(h.DB, mission); err != nil {
		h.Log.Error("seed mission", "error", err)
		jsonError(w, "seed failed", http.StatusInternalServerError)
		return
	}

	items := make([]model.ChecklistItem, len(tpl.DefaultChecklist))
	for i, ti := range tpl.DefaultChecklist {
		answerType := model.AnswerText
		switch {
		case ti.Requires.Rating:
			answerType = model.AnswerRating
		case ti.Requires.Photo, ti.Requires.Video, ti.Requires.Timer:
			answerType = model.AnswerRich
		}
		items[i] = model.ChecklistItem{
			ID:              uuid.NewString(),
			MissionID:       mission.ID,
			OrderIndex:      i,
			Text:            ti.Text,
			AnswerType:      answerType,
			RequiresPhoto:   ti.Requires.Photo,
			RequiresVideo:   ti.Requires.Video,
			RequiresComment: ti.Requires.Comment,
			RequiresTimer:   ti.Requires.Timer,
		}
	}
	if len(items) > 0 {
		items[0].AnswerType = model.AnswerYesNo
		items[0].YesNo = true
	}
	if err := db.ReplaceChecklist(h.DB, mission.ID, items); err != nil {
		h.Log.Error("seed checklist", "error", err)
		jsonError(w, "seed failed", http.StatusInternalServerError)
		return
	}

	submittedAt := now.Add(30 * time.Minute)
	comment := "Seeded visit went smoothly."
	sub := &model.Submission{
		ID:          uuid.NewString(),
		OrgID:       orgID,
		MissionID:   mission.ID,
		AgentID:     "demo-agent",
		Status:      "submitted",
		SubmittedAt: &submittedAt,
		Comment:     &comment,
	}
	if err := db.CreateSubmission(h.DB, sub); err != nil {
		h.Log.Error("seed submission", "error", err)
		jsonError(w, "seed failed", http.StatusInternalServerError)
		return
	}

	answered := 0
	for i := range items {
		a := &model.Answer{
			ID:           uuid.NewString(),
			SubmissionID: sub.ID,
			ItemID:       &items[i].ID,
			CreatedAt:    submittedAt,
		}
		switch items[i].AnswerType {
		case model.AnswerYesNo:
			yes := true
			a.ValueYN = &yes
		case model.AnswerRating:
			rating := 4.0
			a.ValueNumber = &rating
		default:
			if items[i].RequiresTimer {
				ms := int64(95_000)
				a.ValueDurationMS = &ms
			}
			text := "Looked fine during the visit."
			a.ValueText = &text
		}
		if err := db.InsertAnswer(h.DB, a); err != nil {
			h.Log.Error("seed answer", "error", err)
			jsonError(w, "seed failed", http.StatusInternalServerError)
			return
		}
		answered++
	}

	h.Fixture.RecordSeed()
	jsonOK(w, map[string]interface{}{
		"ok":           true,
		"orgId":        orgID,
		"missionId":    mission.ID,
		"submissionId": sub.ID,
		"items":        len(items),
		"answers":      answered,
	})
}

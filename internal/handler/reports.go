package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/karimfahmy/storepulse/internal/blob"
	"github.com/karimfahmy/storepulse/internal/db"
	"github.com/karimfahmy/storepulse/internal/model"
	"github.com/karimfahmy/storepulse/internal/report"
)

type reportAutoRequest struct {
	OrgID        string `json:"orgId"`
	OrgIDSnake   string `json:"org_id"`
	MissionID    string `json:"missionId"`
	MissionSnake string `json:"mission_id"`
	AgentID      string `json:"agentId"`
	AgentSnake   string `json:"agent_id"`
	SubmissionID string `json:"submissionId"`
	SubSnake     string `json:"submission_id"`
}

func pick(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// ReportAuto handles POST /api/reports/auto. Both camelCase and snake_case
// key variants are accepted; the mobile client and the portal never agreed
// on one.
func (h *Handler) ReportAuto(w http.ResponseWriter, r *http.Request) {
	var body reportAutoRequest
	if r.Body != nil {
		// a malformed body degrades to empty fields, reported as missing
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	req := report.Request{
		OrgID:        pick(body.OrgID, body.OrgIDSnake),
		MissionID:    pick(body.MissionID, body.MissionSnake),
		AgentID:      pick(body.AgentID, body.AgentSnake),
		SubmissionID: pick(body.SubmissionID, body.SubSnake),
	}

	res, stage, err := h.Generator.Generate(r.Context(), req)
	if err != nil {
		var vErr *report.ValidationError
		switch {
		case errors.As(err, &vErr):
			jsonStatus(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "error": vErr.Error(), "stage": stage})
		case errors.Is(err, report.ErrSubmissionNotFound):
			jsonStatus(w, http.StatusNotFound, map[string]interface{}{"ok": false, "error": "submission not found", "stage": stage})
		case errors.Is(err, report.ErrMissionNotFound):
			jsonStatus(w, http.StatusNotFound, map[string]interface{}{"ok": false, "error": "mission not found", "stage": stage})
		default:
			h.Log.Error("report generation", "error", err, "step", stage.Step)
			jsonStatus(w, http.StatusInternalServerError, map[string]interface{}{"ok": false, "error": err.Error(), "stage": stage})
		}
		return
	}

	jsonOK(w, map[string]interface{}{
		"ok":           true,
		"report_id":    res.ReportID,
		"pdf_url":      res.PDFURL,
		"answersCount": res.AnswersCount,
		"itemsCount":   res.ItemsCount,
		"photosCount":  res.PhotosCount,
		"kpis":         res.KPIs.Map(),
		"stage":        stage,
	})
}

// ReportBackfill handles POST /api/reports/backfill with body {orgId, limit?}.
func (h *Handler) ReportBackfill(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrgID string `json:"orgId"`
		Limit int    `json:"limit"`
	}
	if r.Body != nil {
		// a malformed body degrades to empty fields, reported as missing
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	orgID := strings.TrimSpace(body.OrgID)
	if orgID == "" {
		jsonError(w, "orgId is required", http.StatusBadRequest)
		return
	}

	entries, err := h.Generator.Backfill(r.Context(), orgID, body.Limit)
	if err != nil {
		h.Log.Error("backfill", "error", err)
		jsonError(w, "backfill failed", http.StatusInternalServerError)
		return
	}
	generated := 0
	for _, e := range entries {
		if e.Generated {
			generated++
		}
	}
	jsonOK(w, map[string]interface{}{
		"ok":        true,
		"processed": len(entries),
		"generated": generated,
		"items":     entries,
	})
}

// ReportList handles GET /api/reports?orgId=...&limit=...
func (h *Handler) ReportList(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("orgId")
	if orgID == "" {
		jsonError(w, "orgId is required", http.StatusBadRequest)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 100 {
		limit = 100
	}

	reports, err := db.ListReports(h.DB, orgID, limit)
	if err != nil {
		h.Log.Error("list reports", "error", err)
		jsonError(w, "list reports failed", http.StatusInternalServerError)
		return
	}

	type wire struct {
		ID          string                 `json:"id"`
		MissionID   string                 `json:"mission_id"`
		Type        string                 `json:"type"`
		Status      string                 `json:"status"`
		Title       string                 `json:"title"`
		PDFURL      *string                `json:"pdf_url"`
		GeneratedAt *string                `json:"generated_at"`
		KPIs        map[string]int         `json:"kpis"`
		Meta        map[string]interface{} `json:"meta"`
	}
	out := make([]wire, len(reports))
	for i, rep := range reports {
		out[i] = wire{
			ID:        rep.ID,
			MissionID: rep.MissionID,
			Type:      rep.Type,
			Status:    rep.Status,
			Title:     rep.Title,
			PDFURL:    rep.PDFURL,
			KPIs:      rep.KPIs,
			Meta:      rep.Meta,
		}
		if rep.GeneratedAt != nil {
			v := db.FormatTime(*rep.GeneratedAt)
			out[i].GeneratedAt = &v
		}
	}
	jsonOK(w, map[string]interface{}{"ok": true, "reports": out})
}

var absoluteURL = regexp.MustCompile(`(?i)^https?://`)

// ReportOpen handles GET /api/reports/open?id=|reportId=|missionId=[&orgId=].
// Resolves the report row, checks the PDF object actually exists, then 302s
// to a time-limited signed URL.
func (h *Handler) ReportOpen(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := pick(q.Get("id"), q.Get("reportId"))
	missionID := q.Get("missionId")
	orgID := q.Get("orgId")

	if id == "" && missionID == "" {
		jsonError(w, "id, reportId or missionId is required", http.StatusBadRequest)
		return
	}

	var rep *model.Report
	var err error
	if id != "" {
		rep, err = db.GetReportByID(h.DB, id)
	} else {
		rep, err = db.FindReportByMission(h.DB, orgID, missionID)
	}
	if err != nil {
		h.Log.Error("report lookup", "error", err)
		jsonError(w, "report lookup failed", http.StatusInternalServerError)
		return
	}
	if rep == nil {
		jsonError(w, "Report not found", http.StatusNotFound)
		return
	}
	if rep.PDFURL == nil || *rep.PDFURL == "" {
		jsonError(w, "Report not ready", http.StatusNotFound)
		return
	}

	raw := *rep.PDFURL
	objPath := raw
	if absoluteURL.MatchString(raw) {
		// historical rows store the full public URL; strip down to the
		// object path so we can sign it
		idx := strings.Index(raw, "/media/"+blob.BucketReports+"/")
		if idx < 0 {
			http.Redirect(w, r, raw, http.StatusFound)
			return
		}
		objPath = raw[idx+len("/media/"+blob.BucketReports+"/"):]
	}
	objPath = strings.TrimLeft(objPath, "/")
	for _, prefix := range []string{"public/", "storage/", "reports/"} {
		objPath = strings.TrimPrefix(objPath, prefix)
	}
	if objPath == "" || strings.HasSuffix(objPath, "/") {
		jsonError(w, "Malformed pdf_url", http.StatusBadRequest)
		return
	}

	if !h.Blob.Exists(blob.BucketReports, objPath) {
		jsonError(w, "Report file not found in storage", http.StatusNotFound)
		return
	}

	signed := h.Blob.SignedURL(blob.BucketReports, objPath, time.Hour)
	http.Redirect(w, r, signed, http.StatusFound)
}

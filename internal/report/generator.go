package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/karimfahmy/storepulse/internal/blob"
	"github.com/karimfahmy/storepulse/internal/db"
	"github.com/karimfahmy/storepulse/internal/model"
)

// Sentinel errors the handler maps to 404s.
var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrMissionNotFound    = errors.New("mission not found")
)

// ValidationError enumerates missing request fields.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "Missing required fields: " + strings.Join(e.Missing, ", ")
}

// Stage is the breadcrumb trail the generator leaves behind. It is returned
// in error responses so a failed generation is diagnosable from the outside.
type Stage struct {
	Step         string         `json:"step"`
	SubmissionID string         `json:"submission_id,omitempty"`
	ReportID     string         `json:"report_id,omitempty"`
	AnswersCount int            `json:"answersCount"`
	ItemsCount   int            `json:"itemsCount"`
	PhotosCount  int            `json:"photosCount"`
	KPIs         map[string]int `json:"kpis,omitempty"`
	Error        string         `json:"error,omitempty"`
}

type Request struct {
	OrgID        string
	MissionID    string
	AgentID      string
	SubmissionID string
}

type Result struct {
	ReportID     string
	PDFURL       string
	AnswersCount int
	ItemsCount   int
	PhotosCount  int
	KPIs         KPIs
}

// Generator runs the report pipeline: load, normalize, score, render, upload,
// and keep the reports row in step the whole way.
type Generator struct {
	DB       *sql.DB
	Blob     *blob.Store
	Client   *http.Client
	FontPath string
	Log      *slog.Logger
}

// Generate produces the PDF report for one submission. The returned Stage is
// always non-nil and records how far the pipeline got, including on error.
// Once a Generating row exists, any later failure transitions it to Failed
// before the error is returned.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, *Stage, error) {
	stage := &Stage{Step: "validate", SubmissionID: req.SubmissionID}
	log := g.logger().With("submission_id", req.SubmissionID)

	var missing []string
	if req.OrgID == "" {
		missing = append(missing, "orgId")
	}
	if req.MissionID == "" {
		missing = append(missing, "missionId")
	}
	if req.AgentID == "" {
		missing = append(missing, "agentId")
	}
	if len(missing) > 0 {
		return nil, stage, &ValidationError{Missing: missing}
	}
	if req.SubmissionID == "" {
		return nil, stage, &ValidationError{Missing: []string{"submissionId"}}
	}

	stage.Step = "fetch-submission"
	sub, err := db.GetSubmission(g.DB, req.SubmissionID)
	if err != nil {
		return nil, stage, g.fail(stage, nil, fmt.Errorf("fetch submission: %w", err))
	}
	if sub == nil {
		return nil, stage, ErrSubmissionNotFound
	}

	stage.Step = "fetch-mission"
	mission, err := db.GetMission(g.DB, sub.MissionID)
	if err != nil {
		return nil, stage, g.fail(stage, nil, fmt.Errorf("fetch mission: %w", err))
	}
	if mission == nil {
		return nil, stage, ErrMissionNotFound
	}

	stage.Step = "fetch-checklist"
	defs, err := db.ListChecklistItems(g.DB, mission.ID)
	if err != nil {
		return nil, stage, g.fail(stage, nil, fmt.Errorf("fetch checklist: %w", err))
	}
	answers, err := db.ListAnswers(g.DB, sub.ID)
	if err != nil {
		return nil, stage, g.fail(stage, nil, fmt.Errorf("fetch answers: %w", err))
	}
	legacy, err := db.ListSubmissionItems(g.DB, sub.ID)
	if err != nil {
		return nil, stage, g.fail(stage, nil, fmt.Errorf("fetch submission items: %w", err))
	}
	attachments, err := g.loadAttachments(legacy)
	if err != nil {
		return nil, stage, g.fail(stage, nil, err)
	}

	stage.Step = "normalize"
	items, gallery := Normalize(defs, answers, legacy, attachments, func(p string) string {
		return g.Blob.PublicURL(blob.BucketMedia, p)
	})
	kpis := ComputeKPIs(items)
	stage.AnswersCount = len(answers) + len(legacy)
	stage.ItemsCount = len(items)
	stage.PhotosCount = countPhotos(items, gallery)
	stage.KPIs = kpis.Map()

	address := ""
	if mission.Location != nil {
		address = mission.Location.Address
	}
	windowText := formatWindow(mission.StartsAt, mission.ExpiresAt)
	title := "Mission Report - " + firstNonEmpty(mission.Store, mission.Title, mission.ID)

	meta := map[string]interface{}{
		"agent_id":      req.AgentID,
		"submission_id": sub.ID,
		"mission_title": mission.Title,
		"store":         mission.Store,
		"address":       address,
		"window_text":   windowText,
	}
	if sub.SubmittedAt != nil {
		meta["submitted_at"] = db.FormatTime(*sub.SubmittedAt)
	}

	stage.Step = "upsert-report-generating"
	now := time.Now().UTC()
	rec := &model.Report{
		OrgID:       req.OrgID,
		MissionID:   mission.ID,
		Type:        "mission",
		Status:      model.ReportGenerating,
		GeneratedAt: &now,
		Title:       title,
		KPIs:        kpis.Map(),
		Meta:        meta,
	}
	reportID, err := db.UpsertReport(g.DB, rec)
	if err != nil {
		return nil, stage, fmt.Errorf("upsert report: %w", err)
	}
	stage.ReportID = reportID

	stage.Step = "build-pdf"
	docModel := Document{
		Title:        title,
		MissionTitle: mission.Title,
		Store:        mission.Store,
		Address:      address,
		WindowText:   windowText,
		Items:        items,
		Gallery:      gallery,
	}
	if sub.SubmittedAt != nil {
		docModel.SubmittedAt = db.FormatTime(*sub.SubmittedAt)
	}
	if sub.Comment != nil {
		docModel.Comment = *sub.Comment
	}
	pdfBytes, err := Render(docModel, RenderOptions{FontPath: g.FontPath, Compress: true, Client: g.Client})
	if err != nil {
		return nil, stage, g.fail(stage, meta, fmt.Errorf("render: %w", err))
	}

	stage.Step = "upload"
	objectName := fmt.Sprintf("org_%s/mission_%s/auto_%d.pdf", req.OrgID, mission.ID, time.Now().UnixMilli())
	if err := g.Blob.Upload(blob.BucketReports, objectName, pdfBytes, "application/pdf"); err != nil {
		return nil, stage, g.fail(stage, meta, fmt.Errorf("upload pdf: %w", err))
	}
	pdfURL := g.Blob.PublicURL(blob.BucketReports, objectName)

	stage.Step = "upsert-report-ready"
	readyAt := time.Now().UTC()
	rec.Status = model.ReportReady
	rec.GeneratedAt = &readyAt
	rec.PDFURL = &pdfURL
	if _, err := db.UpsertReport(g.DB, rec); err != nil {
		return nil, stage, g.fail(stage, meta, fmt.Errorf("finalize report: %w", err))
	}

	stage.Step = "done"
	log.Info("report generated",
		"report_id", reportID,
		"mission_id", mission.ID,
		"answers", stage.AnswersCount,
		"items", stage.ItemsCount,
		"photos", stage.PhotosCount)
	return &Result{
		ReportID:     reportID,
		PDFURL:       pdfURL,
		AnswersCount: stage.AnswersCount,
		ItemsCount:   stage.ItemsCount,
		PhotosCount:  stage.PhotosCount,
		KPIs:         kpis,
	}, stage, nil
}

// fail records the error on the stage and, if a report row already exists for
// this attempt, marks it Failed with the message folded into its metadata.
func (g *Generator) fail(stage *Stage, meta map[string]interface{}, err error) error {
	stage.Error = err.Error()
	if stage.ReportID != "" {
		if mErr := db.MarkReportFailed(g.DB, stage.ReportID, meta, err.Error()); mErr != nil {
			g.logger().Error("mark report failed", "report_id", stage.ReportID, "error", mErr)
		}
	}
	return err
}

func (g *Generator) loadAttachments(legacy []model.SubmissionItem) (map[string]model.Attachment, error) {
	var ids []string
	for _, li := range legacy {
		if li.PhotoAttachmentID != nil {
			ids = append(ids, *li.PhotoAttachmentID)
		}
		if li.VideoAttachmentID != nil {
			ids = append(ids, *li.VideoAttachmentID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	atts, err := db.GetAttachments(g.DB, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch attachments: %w", err)
	}
	return atts, nil
}

// BackfillEntry is one submission's outcome in a backfill pass. Generated is
// false both for failures and for submissions that already had a report; the
// latter carry the existing report id.
type BackfillEntry struct {
	SubmissionID string `json:"submissionId"`
	Generated    bool   `json:"generated"`
	ReportID     string `json:"reportId,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Backfill generates reports for submitted submissions that have none yet.
// Submissions already referenced by a report's metadata are skipped. Items
// run strictly one after another; a failure is recorded on its own entry and
// the scan continues.
func (g *Generator) Backfill(ctx context.Context, orgID string, limit int) ([]BackfillEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	subs, err := db.ListSubmittedSubmissions(g.DB, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	entries := make([]BackfillEntry, 0, len(subs))
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return entries, err
		}
		entry := BackfillEntry{SubmissionID: sub.ID}
		existing, err := db.FindReportBySubmission(g.DB, orgID, sub.ID)
		if err != nil {
			entry.Error = err.Error()
			entries = append(entries, entry)
			continue
		}
		if existing != nil {
			entry.ReportID = existing.ID
			entries = append(entries, entry)
			continue
		}
		res, _, err := g.Generate(ctx, Request{
			OrgID:        orgID,
			MissionID:    sub.MissionID,
			AgentID:      firstNonEmpty(sub.AgentID, "backfill"),
			SubmissionID: sub.ID,
		})
		if err != nil {
			entry.Error = err.Error()
		} else {
			entry.Generated = true
			entry.ReportID = res.ReportID
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (g *Generator) logger() *slog.Logger {
	if g.Log != nil {
		return g.Log
	}
	return slog.Default()
}

func countPhotos(items []Item, gallery []string) int {
	n := 0
	for _, it := range items {
		n += len(it.PhotoURLs)
	}
	if n == 0 {
		n = len(gallery)
	}
	return n
}

func formatWindow(start, end *time.Time) string {
	f := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.UTC().Format("2006-01-02 15:04")
	}
	return f(start) + " -> " + f(end)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

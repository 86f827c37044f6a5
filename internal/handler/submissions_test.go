package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/karimfahmy/storepulse/internal/db"
	"github.com/karimfahmy/storepulse/internal/model"
)

func createMission(t *testing.T, env *testEnv, orgID, title string) string {
	t.Helper()
	w := env.do(t, http.MethodPost, "/api/missions?orgId="+orgID, map[string]interface{}{"title": title})
	if w.Code != http.StatusOK {
		t.Fatalf("create mission: status %d body %s", w.Code, w.Body.String())
	}
	return decodeBody(t, w)["mission"].(map[string]interface{})["id"].(string)
}

func TestSubmissionCreateRoutesAnswerKinds(t *testing.T) {
	env := newTestEnv(t)
	missionID := createMission(t, env, "org-1", "Counter check")

	w := env.do(t, http.MethodPost, "/api/submissions", map[string]interface{}{
		"missionId": missionID,
		"agentId":   "agent-7",
		"comment":   "all good",
		"items": []map[string]interface{}{
			{"answer_type": "YN", "yes_no": true},
			{"answer_type": "COMMENT", "comment": "spotless"},
			{"answer_type": "TIMER", "timer_seconds": 42.5},
			{"answer_type": "RATING", "rating": 4},
			{"answer_type": "PHOTO", "photo_attachment_id": "att-1"},
			{"answer_type": "HOLOGRAM"}, // unknown, skipped
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("submit: status %d body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["items"] != float64(5) {
		t.Errorf("inserted items = %v, want 5", body["items"])
	}
	subID := body["submissionId"].(string)

	answers, err := db.ListAnswers(env.db, subID)
	if err != nil {
		t.Fatalf("list answers: %v", err)
	}
	if len(answers) != 4 {
		t.Fatalf("answers rows = %d, want 4", len(answers))
	}
	var sawTimer, sawRating bool
	for _, a := range answers {
		if a.ValueDurationMS != nil {
			sawTimer = true
			if *a.ValueDurationMS != 42500 {
				t.Errorf("timer ms = %d, want 42500", *a.ValueDurationMS)
			}
		}
		if a.ValueNumber != nil {
			sawRating = true
			if *a.ValueNumber != 4 {
				t.Errorf("rating = %v, want 4", *a.ValueNumber)
			}
		}
	}
	if !sawTimer || !sawRating {
		t.Errorf("missing typed answers: timer=%v rating=%v", sawTimer, sawRating)
	}

	legacy, err := db.ListSubmissionItems(env.db, subID)
	if err != nil {
		t.Fatalf("list submission items: %v", err)
	}
	if len(legacy) != 1 {
		t.Fatalf("legacy rows = %d, want 1", len(legacy))
	}
	if legacy[0].AnswerType != "PHOTO" || legacy[0].PhotoAttachmentID == nil || *legacy[0].PhotoAttachmentID != "att-1" {
		t.Errorf("legacy row = %+v", legacy[0])
	}
}

func TestSubmissionOrgComesFromMission(t *testing.T) {
	env := newTestEnv(t)
	missionID := createMission(t, env, "org-real", "M")

	// no org in the submission payload, and an org query param would be ignored
	w := env.do(t, http.MethodPost, "/api/submissions?orgId=org-spoofed", map[string]interface{}{
		"missionId": missionID,
		"agentId":   "agent-1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("submit: status %d body %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/api/submissions?orgId=org-real", nil)
	subs := decodeBody(t, w)["submissions"].([]interface{})
	if len(subs) != 1 {
		t.Fatalf("org-real submissions = %d, want 1", len(subs))
	}
	w = env.do(t, http.MethodGet, "/api/submissions?orgId=org-spoofed", nil)
	if subs := decodeBody(t, w)["submissions"]; subs != nil {
		if arr, ok := subs.([]interface{}); ok && len(arr) != 0 {
			t.Errorf("spoofed org sees %d submissions", len(arr))
		}
	}
}

func TestSubmissionCapturesContextFields(t *testing.T) {
	env := newTestEnv(t)
	missionID := createMission(t, env, "org-1", "M")

	started := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	w := env.do(t, http.MethodPost, "/api/submissions", map[string]interface{}{
		"missionId": missionID,
		"agentId":   "agent-7",
		"startedAt": started.UnixMilli(),
		"gps":       map[string]interface{}{"lat": 30.05, "lng": 31.23, "accuracy": 12.5},
		"deviceMeta": map[string]interface{}{
			"model": "Pixel 8",
			"os":    "android-15",
		},
		"meta": map[string]interface{}{"appVersion": "2.4.1"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("submit: status %d body %s", w.Code, w.Body.String())
	}
	subID := decodeBody(t, w)["submissionId"].(string)

	sub, err := db.GetSubmission(env.db, subID)
	if err != nil || sub == nil {
		t.Fatalf("get submission: %v %v", sub, err)
	}
	if sub.StartedAt == nil || !sub.StartedAt.Equal(started) {
		t.Errorf("started_at = %v, want %v", sub.StartedAt, started)
	}
	gps, ok := sub.Meta["gps"].(map[string]interface{})
	if !ok || gps["lat"] != 30.05 {
		t.Errorf("meta gps = %v", sub.Meta["gps"])
	}
	device, ok := sub.Meta["device_meta"].(map[string]interface{})
	if !ok || device["model"] != "Pixel 8" {
		t.Errorf("meta device_meta = %v", sub.Meta["device_meta"])
	}
	if sub.Meta["appVersion"] != "2.4.1" {
		t.Errorf("client meta lost: %v", sub.Meta)
	}
}

func TestSubmissionMarksMissionCompleted(t *testing.T) {
	env := newTestEnv(t)
	missionID := createMission(t, env, "org-1", "M")

	w := env.do(t, http.MethodPost, "/api/submissions", map[string]interface{}{
		"missionId": missionID,
		"agentId":   "agent-1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("submit: status %d", w.Code)
	}

	m, err := db.GetMission(env.db, missionID)
	if err != nil || m == nil {
		t.Fatalf("get mission: %v %v", m, err)
	}
	if m.Status != model.StatusCompleted {
		t.Errorf("mission status = %s, want %s", m.Status, model.StatusCompleted)
	}
}

func TestSubmissionValidation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/submissions", map[string]interface{}{"agentId": "a"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing missionId: status %d, want 400", w.Code)
	}

	w = env.do(t, http.MethodPost, "/api/submissions", map[string]interface{}{
		"missionId": "does-not-exist",
		"agentId":   "a",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown mission: status %d, want 404", w.Code)
	}
}

func TestSubmissionListRequiresOrg(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/submissions", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

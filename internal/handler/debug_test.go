package handler

import (
	"net/http"
	"testing"
)

func TestTemplateList(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/templates", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	templates := decodeBody(t, w)["templates"].([]interface{})
	if len(templates) != 3 {
		t.Fatalf("templates = %d, want 3", len(templates))
	}
	first := templates[0].(map[string]interface{})
	if first["id"] == "" || first["name"] == "" {
		t.Errorf("template missing id or name: %v", first)
	}
}

func TestDebugSeedProducesReportableData(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/debug/seed?orgId=org-seed", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("seed: status %d body %s", w.Code, w.Body.String())
	}
	seeded := decodeBody(t, w)
	missionID := seeded["missionId"].(string)
	submissionID := seeded["submissionId"].(string)
	if seeded["answers"].(float64) < 1 {
		t.Fatalf("seed wrote no answers: %v", seeded)
	}

	// seeded data must be good enough to run the report pipeline
	w = env.do(t, http.MethodPost, "/api/reports/auto", map[string]interface{}{
		"orgId":        "org-seed",
		"missionId":    missionID,
		"agentId":      "demo-agent",
		"submissionId": submissionID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("report from seed: status %d body %s", w.Code, w.Body.String())
	}
}

func TestDebugEcho(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/debug/echo?x=1", map[string]string{"hello": "world"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["method"] != http.MethodPost || body["query"] != "x=1" {
		t.Errorf("echo = %v", body)
	}
	if s, _ := body["body"].(string); s == "" {
		t.Error("echo dropped the request body")
	}
}

func TestDebugStatsCounts(t *testing.T) {
	env := newTestEnv(t)
	createMission(t, env, "org-1", "A")
	createMission(t, env, "org-1", "B")

	w := env.do(t, http.MethodGet, "/api/debug/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	counts := decodeBody(t, w)["counts"].(map[string]interface{})
	if counts["missions"] != float64(2) {
		t.Errorf("mission count = %v, want 2", counts["missions"])
	}
}

func TestDebugStorageProbe(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/debug/storage", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["ok"] != true {
		t.Fatalf("probe failed: %v", body)
	}
	if body["probe_listed"] != float64(1) {
		t.Errorf("probe_listed = %v, want 1", body["probe_listed"])
	}
}

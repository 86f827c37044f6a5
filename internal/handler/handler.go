// Package handler holds the HTTP surface of the portal.
package handler

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/karimfahmy/storepulse/internal/blob"
	"github.com/karimfahmy/storepulse/internal/config"
	"github.com/karimfahmy/storepulse/internal/demo"
	"github.com/karimfahmy/storepulse/internal/diskstat"
	"github.com/karimfahmy/storepulse/internal/report"
)

type Handler struct {
	DB        *sql.DB
	Cfg       *config.Config
	Blob      *blob.Store
	Generator *report.Generator
	Fixture   *demo.Fixture
	Disk      *diskstat.Cache
	Log       *slog.Logger
}

func New(database *sql.DB, cfg *config.Config, store *blob.Store, gen *report.Generator, fixture *demo.Fixture, disk *diskstat.Cache, log *slog.Logger) *Handler {
	return &Handler{
		DB:        database,
		Cfg:       cfg,
		Blob:      store,
		Generator: gen,
		Fixture:   fixture,
		Disk:      disk,
		Log:       log,
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "error": msg})
}

func jsonOK(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonStatus(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

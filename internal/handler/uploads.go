package handler

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/karimfahmy/storepulse/internal/blob"
	"github.com/karimfahmy/storepulse/internal/db"
	"github.com/karimfahmy/storepulse/internal/model"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func safeName(s string) string {
	s = unsafeChars.ReplaceAllString(s, "_")
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}

// Upload handles POST /api/uploads (multipart form). Fields: file, orgId,
// missionId, kind (photo|video), filename. Only image/* and video/* payloads
// are accepted.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	orgID := r.FormValue("orgId")
	missionID := r.FormValue("missionId")
	if orgID == "" {
		jsonError(w, "orgId is required", http.StatusBadRequest)
		return
	}
	if missionID == "" {
		jsonError(w, "missionId is required", http.StatusBadRequest)
		return
	}
	kind := r.FormValue("kind")
	if kind == "" {
		kind = "photo"
	}
	filename := r.FormValue("filename")
	if filename == "" {
		filename = header.Filename
	}
	if filename == "" {
		filename = "upload.bin"
	}

	data, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, "read upload failed", http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		jsonError(w, "Empty file payload", http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "video/") {
		jsonError(w, "Only image/* or video/* allowed", http.StatusBadRequest)
		return
	}

	folder := "photos"
	if kind == "video" {
		folder = "videos"
	}
	path := fmt.Sprintf("%s/%s/%s/%s__%s", safeName(orgID), safeName(missionID), folder, uuid.NewString(), safeName(filename))

	if err := h.Blob.Upload(blob.BucketMedia, path, data, contentType); err != nil {
		h.Log.Error("upload", "path", path, "error", err)
		jsonError(w, "upload failed", http.StatusInternalServerError)
		return
	}
	url := h.Blob.PublicURL(blob.BucketMedia, path)

	size := int64(len(data))
	att := &model.Attachment{
		ID:          uuid.NewString(),
		Path:        &path,
		ContentType: &contentType,
		PublicURL:   &url,
		SizeBytes:   &size,
	}
	if err := db.CreateAttachment(h.DB, att); err != nil {
		h.Log.Error("record attachment", "path", path, "error", err)
		jsonError(w, "upload failed", http.StatusInternalServerError)
		return
	}

	jsonOK(w, map[string]interface{}{
		"ok":           true,
		"attachmentId": att.ID,
		"filename":     filename,
		"type":         contentType,
		"size":         size,
		"path":         path,
		"url":          url,
	})
}

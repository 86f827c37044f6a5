package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/karimfahmy/storepulse/internal/blob"
)

// ServeMedia handles GET /media/{bucket}/*. Mission media is public; report
// PDFs additionally honor signed URLs so a "Ready" report link keeps working
// after the public URL scheme changes.
func (h *Handler) ServeMedia(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	objPath := chi.URLParam(r, "*")
	if bucket != blob.BucketMedia && bucket != blob.BucketReports {
		http.NotFound(w, r)
		return
	}

	if exp := r.URL.Query().Get("exp"); exp != "" {
		if !h.Blob.Verify(bucket, objPath, exp, r.URL.Query().Get("sig")) {
			http.Error(w, "invalid or expired signature", http.StatusForbidden)
			return
		}
	}

	rc, err := h.Blob.Open(bucket, objPath)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer rc.Close()

	// Sniff from the first chunk; the store does not persist content types.
	buf := make([]byte, 512)
	n, _ := io.ReadFull(rc, buf)
	contentType := http.DetectContentType(buf[:n])
	if len(objPath) > 4 && objPath[len(objPath)-4:] == ".pdf" {
		contentType = "application/pdf"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(buf[:n])
	io.Copy(w, rc)
}

package handler

import "net/http"

// TemplateList handles GET /api/templates. The catalog is fixture data; the
// portal has no template editor yet.
func (h *Handler) TemplateList(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, map[string]interface{}{"templates": h.Fixture.Templates()})
}

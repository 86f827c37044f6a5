package report

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestRenderBasicDocument(t *testing.T) {
	yes := true
	rating := 4
	timer := 33
	comment := "Counter was clean."
	doc := Document{
		Title:        "Mission Report - Demo Store",
		MissionTitle: "Fast Food Mystery Visit",
		Store:        "Demo Store",
		Address:      "Tahrir, Cairo",
		SubmittedAt:  "2026-08-30T10:00:00.000Z",
		Items: []Item{
			{Title: "Was the greeting friendly?", YesNo: &yes},
			{Title: "Rate the experience", Rating: &rating},
			{Title: "Queue time", TimerSeconds: &timer, Comment: &comment},
		},
	}

	out, err := Render(doc, RenderOptions{Compress: false})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatal("output does not start with %PDF")
	}
	for _, want := range []string{
		"Mission Report - Demo Store",
		"Overall Rating: 4.0/5",
		"Yes/No: Yes",
		"Rating: 4/5",
		"Timer: 33s",
		"Counter was clean.",
	} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("document missing %q", want)
		}
	}
}

func TestRenderOverallRatingMean(t *testing.T) {
	r1, r2 := 3, 4
	doc := Document{
		Title: "Report",
		Items: []Item{{Title: "A", Rating: &r1}, {Title: "B", Rating: &r2}},
	}
	out, err := Render(doc, RenderOptions{Compress: false})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Contains(out, []byte("Overall Rating: 3.5/5")) {
		t.Error("expected mean rating line 3.5/5")
	}
}

func TestRenderNoRatingsOmitsLine(t *testing.T) {
	yes := true
	doc := Document{Title: "Report", Items: []Item{{Title: "A", YesNo: &yes}}}
	out, err := Render(doc, RenderOptions{Compress: false})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if bytes.Contains(out, []byte("Overall Rating:")) {
		t.Error("rating line present with no rated items")
	}
}

func TestRenderEmptyChecklist(t *testing.T) {
	out, err := Render(Document{Title: "Report"}, RenderOptions{Compress: false})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Contains(out, []byte("No checklist items.")) {
		t.Error("missing empty-checklist line")
	}
}

func TestRenderSurvivesFailedImageFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/good.png":
			w.Write(testPNG(t))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	doc := Document{
		Title:   "Report",
		Gallery: []string{srv.URL + "/good.png", srv.URL + "/missing.png"},
		Items:   []Item{{Title: "Photo item", PhotoURLs: []string{srv.URL + "/missing.png"}}},
	}
	out, err := Render(doc, RenderOptions{Compress: false, Client: srv.Client()})
	if err != nil {
		t.Fatalf("Render with failed image: %v", err)
	}
	if len(out) == 0 || !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatal("expected a complete PDF despite image failures")
	}
}

func TestRenderRejectsNonImagePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not an image</html>"))
	}))
	defer srv.Close()

	doc := Document{
		Title:   "Report",
		Gallery: []string{srv.URL + "/fake.jpg"},
	}
	out, err := Render(doc, RenderOptions{Compress: false, Client: srv.Client()})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatal("expected a complete PDF with a placeholder box")
	}
}

func TestRenderMissingFontFallsBack(t *testing.T) {
	out, err := Render(Document{Title: "Report"}, RenderOptions{
		Compress: false,
		FontPath: "/nonexistent/font.ttf",
	})
	if err != nil {
		t.Fatalf("Render should fall back to the built-in font: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatal("fallback render did not produce a PDF")
	}
}

package report

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"github.com/go-pdf/fpdf"
	"gonum.org/v1/gonum/stat"
)

// Document is everything the renderer needs to lay out one report.
type Document struct {
	Title        string
	MissionTitle string
	Store        string
	Address      string
	WindowText   string
	SubmittedAt  string
	Comment      string
	Items        []Item
	Gallery      []string
}

// RenderOptions tune the renderer. Compress is on in production; tests turn
// it off so the output bytes stay grep-able.
type RenderOptions struct {
	FontPath string
	Compress bool
	Client   *http.Client
}

const (
	pageMargin  = 40
	photoWidth  = 120
	photoHeight = 90
	photoGap    = 10
)

// Render produces the report PDF. Image fetches are best-effort per image; a
// failed fetch leaves a bordered placeholder in the grid. If the configured
// font cannot be loaded the document is rebuilt with the built-in Helvetica.
func Render(doc Document, opts RenderOptions) ([]byte, error) {
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	images := fetchImages(client, doc)

	out, err := render(doc, opts, images, opts.FontPath)
	if err != nil && opts.FontPath != "" {
		out, err = render(doc, opts, images, "")
	}
	return out, err
}

type fetchedImage struct {
	data   []byte
	format string
	w, h   int
}

func fetchImages(client *http.Client, doc Document) map[string]*fetchedImage {
	urls := make(map[string]bool)
	for _, u := range doc.Gallery {
		urls[u] = true
	}
	for _, it := range doc.Items {
		for _, u := range it.PhotoURLs {
			urls[u] = true
		}
	}
	out := make(map[string]*fetchedImage, len(urls))
	for u := range urls {
		if img := fetchImage(client, u); img != nil {
			out[u] = img
		}
	}
	return out
}

// fetchImage downloads and validates one image. The bytes are decoded up
// front because a malformed image handed to the PDF library would poison the
// whole document, not just one slot.
func fetchImage(client *http.Client, url string) *fetchedImage {
	resp, err := client.Get(url)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return nil
	}
	var pdfFormat string
	switch format {
	case "jpeg":
		pdfFormat = "JPG"
	case "png":
		pdfFormat = "PNG"
	case "gif":
		pdfFormat = "GIF"
	default:
		return nil
	}
	return &fetchedImage{data: data, format: pdfFormat, w: cfg.Width, h: cfg.Height}
}

func render(doc Document, opts RenderOptions, images map[string]*fetchedImage, fontPath string) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCompression(opts.Compress)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)

	family := "Helvetica"
	if fontPath != "" {
		pdf.AddUTF8Font("report", "", fontPath)
		pdf.AddUTF8Font("report", "B", fontPath)
		if pdf.Err() {
			return nil, fmt.Errorf("load font %s: %w", fontPath, pdf.Error())
		}
		family = "report"
	}
	pdf.AddPage()

	for url, img := range images {
		pdf.RegisterImageOptionsReader(url, fpdf.ImageOptions{ImageType: img.format}, bytes.NewReader(img.data))
	}

	line := func(style string, size float64, text string) {
		pdf.SetFont(family, style, size)
		pdf.MultiCell(0, size*1.4, text, "", "L", false)
	}

	title := doc.Title
	if title == "" {
		title = "Mission Report"
	}
	line("B", 18, title)
	pdf.Ln(4)

	mission := doc.MissionTitle
	if mission == "" {
		mission = "-"
	}
	line("", 10, "Mission: "+mission)
	if doc.Store != "" {
		line("", 10, "Store: "+doc.Store)
	}
	if doc.Address != "" {
		line("", 10, "Address: "+doc.Address)
	}
	if doc.WindowText != "" {
		line("", 10, "Window: "+doc.WindowText)
	}
	submitted := doc.SubmittedAt
	if submitted == "" {
		submitted = "-"
	}
	line("", 10, "Submitted: "+submitted)

	if overall, ok := overallRating(doc.Items); ok {
		pdf.Ln(4)
		line("B", 12, fmt.Sprintf("Overall Rating: %.1f/5", overall))
	}
	pdf.Ln(8)

	if len(doc.Gallery) > 0 {
		line("B", 12, "Photos")
		pdf.Ln(4)
		drawPhotoRow(pdf, doc.Gallery[:min(3, len(doc.Gallery))], images)
		if len(doc.Gallery) > 3 {
			drawPhotoRow(pdf, doc.Gallery[3:min(6, len(doc.Gallery))], images)
		}
		pdf.Ln(4)
	}

	line("B", 14, "Checklist")
	pdf.Ln(4)

	if len(doc.Items) == 0 {
		line("", 11, "No checklist items.")
	}
	for _, it := range doc.Items {
		itemTitle := it.Title
		if itemTitle == "" {
			itemTitle = "Checklist item"
		}
		line("B", 12, itemTitle)
		if it.YesNo != nil {
			v := "No"
			if *it.YesNo {
				v = "Yes"
			}
			line("", 10, "Yes/No: "+v)
		}
		if it.Rating != nil {
			line("", 10, fmt.Sprintf("Rating: %d/5", *it.Rating))
		}
		if it.TimerSeconds != nil {
			line("", 10, fmt.Sprintf("Timer: %ds", *it.TimerSeconds))
		}
		if it.Comment != nil && *it.Comment != "" {
			line("", 10, "Comment: "+*it.Comment)
		}
		if len(it.PhotoURLs) > 0 {
			drawPhotoRow(pdf, it.PhotoURLs, images)
		}
		pdf.Ln(6)
	}

	if doc.Comment != "" {
		pdf.Ln(4)
		line("B", 12, "Notes")
		line("", 10, doc.Comment)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// overallRating is the arithmetic mean of all present per-item ratings.
func overallRating(items []Item) (float64, bool) {
	var ratings []float64
	for _, it := range items {
		if it.Rating != nil {
			ratings = append(ratings, float64(*it.Rating))
		}
	}
	if len(ratings) == 0 {
		return 0, false
	}
	return stat.Mean(ratings, nil), true
}

func drawPhotoRow(pdf *fpdf.Fpdf, urls []string, images map[string]*fetchedImage) {
	x := float64(pageMargin)
	y := pdf.GetY()
	for _, u := range urls {
		img, ok := images[u]
		if !ok {
			pdf.Rect(x, y, photoWidth, photoHeight, "D")
		} else {
			w, h := fitBox(img.w, img.h, photoWidth, photoHeight)
			pdf.ImageOptions(u, x, y, w, h, false, fpdf.ImageOptions{ImageType: img.format}, 0, "")
		}
		x += photoWidth + photoGap
	}
	pdf.SetY(y + photoHeight + 8)
	pdf.SetX(pageMargin)
}

func fitBox(w, h int, maxW, maxH float64) (float64, float64) {
	scale := maxW / float64(w)
	if s := maxH / float64(h); s < scale {
		scale = s
	}
	if scale > 1 {
		scale = 1
	}
	return float64(w) * scale, float64(h) * scale
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

package report

import (
	"math"
	"testing"

	"github.com/karimfahmy/storepulse/internal/model"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(v float64) *float64 { return &v }
func i64Ptr(v int64) *int64     { return &v }

func resolvePath(p string) string { return "http://blob.local/media/" + p }

func TestBoundRating(t *testing.T) {
	cases := []struct {
		in   float64
		want *int
	}{
		{7, intPtr(5)},
		{0, nil},
		{0.4, nil},
		{0.6, intPtr(1)},
		{4.5, intPtr(5)},
		{3, intPtr(3)},
		{math.NaN(), nil},
		{math.Inf(1), nil},
		{-2, nil},
	}
	for _, c := range cases {
		got := BoundRating(c.in)
		switch {
		case c.want == nil && got != nil:
			t.Errorf("BoundRating(%v) = %d, want nil", c.in, *got)
		case c.want != nil && got == nil:
			t.Errorf("BoundRating(%v) = nil, want %d", c.in, *c.want)
		case c.want != nil && got != nil && *got != *c.want:
			t.Errorf("BoundRating(%v) = %d, want %d", c.in, *got, *c.want)
		}
	}
}

func TestNormalizeTimerRounding(t *testing.T) {
	defs := []model.ChecklistItem{{ID: "i1", Text: "Timer check"}}
	answers := []model.Answer{
		{ID: "a1", ItemID: strPtr("i1"), ValueDurationMS: i64Ptr(32500)},
	}
	items, _ := Normalize(defs, answers, nil, nil, resolvePath)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].TimerSeconds == nil || *items[0].TimerSeconds != 33 {
		t.Errorf("32500ms -> %v, want 33s", items[0].TimerSeconds)
	}

	answers[0].ValueDurationMS = i64Ptr(32000)
	items, _ = Normalize(defs, answers, nil, nil, resolvePath)
	if items[0].TimerSeconds == nil || *items[0].TimerSeconds != 32 {
		t.Errorf("32000ms -> %v, want 32s", items[0].TimerSeconds)
	}
}

func TestNormalizeUnansweredItemsStillAppear(t *testing.T) {
	defs := []model.ChecklistItem{
		{ID: "i1", Text: "First", AnswerType: model.AnswerYesNo},
		{ID: "i2", Text: "Second", AnswerType: model.AnswerText},
	}
	items, _ := Normalize(defs, nil, nil, nil, resolvePath)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Title != "First" || items[1].Title != "Second" {
		t.Errorf("definition order not preserved: %q, %q", items[0].Title, items[1].Title)
	}
	if items[0].YesNo != nil || items[1].Comment != nil {
		t.Error("unanswered items should have nil values")
	}
}

func TestNormalizeSyntheticItems(t *testing.T) {
	defs := []model.ChecklistItem{{ID: "i1", Text: "Known"}}
	answers := []model.Answer{
		{ID: "a1", ItemID: strPtr("i1"), ValueYN: boolPtr(true)},
		{ID: "a2", ItemID: strPtr("deleted-item"), ValueText: strPtr("orphaned note")},
	}
	items, _ := Normalize(defs, answers, nil, nil, resolvePath)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (one synthetic)", len(items))
	}
	syn := items[1]
	if syn.Title != "Item 2" {
		t.Errorf("synthetic title = %q, want %q", syn.Title, "Item 2")
	}
	if syn.Comment == nil || *syn.Comment != "orphaned note" {
		t.Errorf("synthetic comment = %v, want orphaned note", syn.Comment)
	}
	if syn.AnswerKind != model.AnswerText {
		t.Errorf("synthetic kind = %q, want text", syn.AnswerKind)
	}
}

func TestNormalizePhotoDedupe(t *testing.T) {
	url := resolvePath("org/m/photos/a.jpg")
	defs := []model.ChecklistItem{{ID: "i1", Text: "Photo item"}}
	answers := []model.Answer{
		{ID: "a1", ItemID: strPtr("i1"), MediaPath: strPtr("org/m/photos/a.jpg"), MediaType: strPtr("photo")},
	}
	legacy := []model.SubmissionItem{
		{ID: "l1", ChecklistItemID: strPtr("i1"), AnswerType: "PHOTO", PhotoAttachmentID: strPtr("att1")},
	}
	attachments := map[string]model.Attachment{
		"att1": {ID: "att1", PublicURL: &url, ContentType: strPtr("image/jpeg")},
	}

	items, gallery := Normalize(defs, answers, legacy, attachments, resolvePath)
	if len(items[0].PhotoURLs) != 1 {
		t.Errorf("item photos = %v, want one deduplicated URL", items[0].PhotoURLs)
	}
	if len(gallery) != 1 {
		t.Errorf("gallery = %v, want one URL", gallery)
	}
}

func TestNormalizePhotoCaps(t *testing.T) {
	defs := []model.ChecklistItem{{ID: "i1", Text: "Photo item"}}
	var answers []model.Answer
	for i := 0; i < 8; i++ {
		p := "org/m/photos/p" + string(rune('a'+i)) + ".jpg"
		answers = append(answers, model.Answer{
			ID: p, ItemID: strPtr("i1"), MediaPath: &p, MediaType: strPtr("image/jpeg"),
		})
	}
	items, gallery := Normalize(defs, answers, nil, nil, resolvePath)
	if len(items[0].PhotoURLs) != 3 {
		t.Errorf("item photos capped at %d, want 3", len(items[0].PhotoURLs))
	}
	if len(gallery) != 6 {
		t.Errorf("gallery capped at %d, want 6", len(gallery))
	}
}

func TestNormalizeSkipsVideoMedia(t *testing.T) {
	defs := []model.ChecklistItem{{ID: "i1", Text: "Video item"}}
	answers := []model.Answer{
		{ID: "a1", ItemID: strPtr("i1"), MediaPath: strPtr("org/m/videos/v.mp4"), MediaType: strPtr("video/mp4")},
	}
	items, gallery := Normalize(defs, answers, nil, nil, resolvePath)
	if len(items[0].PhotoURLs) != 0 || len(gallery) != 0 {
		t.Errorf("video media leaked into photo lists: %v %v", items[0].PhotoURLs, gallery)
	}
}

func TestNormalizeRatingFromNumber(t *testing.T) {
	defs := []model.ChecklistItem{{ID: "i1", Text: "Rate it", AnswerType: model.AnswerRating}}
	answers := []model.Answer{
		{ID: "a1", ItemID: strPtr("i1"), ValueNumber: f64Ptr(3.6)},
	}
	items, _ := Normalize(defs, answers, nil, nil, resolvePath)
	if items[0].Rating == nil || *items[0].Rating != 4 {
		t.Errorf("rating = %v, want 4", items[0].Rating)
	}
}

func TestNormalizeLegacyValues(t *testing.T) {
	defs := []model.ChecklistItem{{ID: "i1", Text: "Legacy", AnswerType: model.AnswerYesNo}}
	legacy := []model.SubmissionItem{
		{ID: "l1", ChecklistItemID: strPtr("i1"), AnswerType: "YN", YesNo: boolPtr(false), TimerSeconds: intPtr(90)},
	}
	items, _ := Normalize(defs, nil, legacy, nil, resolvePath)
	if items[0].YesNo == nil || *items[0].YesNo != false {
		t.Errorf("legacy yes/no = %v, want false", items[0].YesNo)
	}
	if items[0].TimerSeconds == nil || *items[0].TimerSeconds != 90 {
		t.Errorf("legacy timer = %v, want 90", items[0].TimerSeconds)
	}
}

func TestNormalizeBlankTextDropped(t *testing.T) {
	defs := []model.ChecklistItem{{ID: "i1", Text: "Note"}}
	answers := []model.Answer{
		{ID: "a1", ItemID: strPtr("i1"), ValueText: strPtr("   ")},
	}
	items, _ := Normalize(defs, answers, nil, nil, resolvePath)
	if items[0].Comment != nil {
		t.Errorf("blank comment kept: %q", *items[0].Comment)
	}
}

// Package report turns a mission submission into a finished PDF report:
// answers are normalized against the checklist definitions, scored, rendered
// and uploaded, with the report row tracking the lifecycle throughout.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/karimfahmy/storepulse/internal/model"
)

// Item is one normalized checklist line ready for scoring and rendering.
// Value fields are nil when the agent gave no answer of that kind.
type Item struct {
	ItemID       string
	Title        string
	AnswerKind   string
	YesNo        *bool
	Comment      *string
	Rating       *int
	TimerSeconds *int
	PhotoURLs    []string
}

const (
	maxItemPhotos    = 3
	maxGalleryPhotos = 6
)

// Normalize merges both historical answer shapes onto the mission's checklist
// definitions. Definitions come first in order_index order so unanswered
// items still appear; answers whose item id no longer matches a definition
// are appended as synthetic items rather than dropped. resolve maps a storage
// path to a public URL. The second return value is the report-level photo
// gallery, deduplicated and capped.
func Normalize(defs []model.ChecklistItem, answers []model.Answer, legacy []model.SubmissionItem, attachments map[string]model.Attachment, resolve func(path string) string) ([]Item, []string) {
	byItem := make(map[string]*Item, len(defs))
	ordered := make([]*Item, 0, len(defs))
	for _, def := range defs {
		title := strings.TrimSpace(def.Text)
		if title == "" {
			title = "(untitled)"
		}
		it := &Item{ItemID: def.ID, Title: title, AnswerKind: def.AnswerType}
		ordered = append(ordered, it)
		byItem[def.ID] = it
	}

	var gallery []string
	seenGallery := make(map[string]bool)
	addGallery := func(url string) {
		if url == "" || seenGallery[url] {
			return
		}
		seenGallery[url] = true
		gallery = append(gallery, url)
	}

	var synthetic []*Item
	target := func(itemID *string) *Item {
		if itemID != nil {
			if it, ok := byItem[*itemID]; ok {
				return it
			}
		}
		id := ""
		if itemID != nil {
			id = *itemID
		}
		it := &Item{
			ItemID: id,
			Title:  fmt.Sprintf("Item %d", len(ordered)+len(synthetic)+1),
		}
		synthetic = append(synthetic, it)
		if itemID != nil {
			byItem[*itemID] = it
		}
		return it
	}

	for _, ans := range answers {
		it := target(ans.ItemID)
		if ans.ValueYN != nil && it.YesNo == nil {
			v := *ans.ValueYN
			it.YesNo = &v
		}
		if ans.ValueText != nil && it.Comment == nil {
			v := strings.TrimSpace(*ans.ValueText)
			if v != "" {
				it.Comment = &v
			}
		}
		if ans.ValueNumber != nil && it.Rating == nil {
			it.Rating = BoundRating(*ans.ValueNumber)
		}
		if ans.ValueDurationMS != nil && it.TimerSeconds == nil {
			s := int(math.Round(float64(*ans.ValueDurationMS) / 1000))
			it.TimerSeconds = &s
		}
		if url := photoURL(ans.MediaPath, ans.MediaType, resolve); url != "" {
			addItemPhoto(it, url)
			addGallery(url)
		}
	}

	for _, li := range legacy {
		it := target(li.ChecklistItemID)
		if li.YesNo != nil && it.YesNo == nil {
			v := *li.YesNo
			it.YesNo = &v
		}
		if li.Comment != nil && it.Comment == nil {
			v := strings.TrimSpace(*li.Comment)
			if v != "" {
				it.Comment = &v
			}
		}
		if li.Rating != nil && it.Rating == nil {
			it.Rating = BoundRating(float64(*li.Rating))
		}
		if li.TimerSeconds != nil && it.TimerSeconds == nil {
			v := *li.TimerSeconds
			it.TimerSeconds = &v
		}
		if li.PhotoAttachmentID != nil {
			if url := attachmentURL(attachments[*li.PhotoAttachmentID], resolve); url != "" {
				addItemPhoto(it, url)
				addGallery(url)
			}
		}
	}

	for _, it := range synthetic {
		it.AnswerKind = deriveKind(it)
	}
	ordered = append(ordered, synthetic...)

	out := make([]Item, len(ordered))
	for i, it := range ordered {
		out[i] = *it
	}
	if len(gallery) > maxGalleryPhotos {
		gallery = gallery[:maxGalleryPhotos]
	}
	return out, gallery
}

// BoundRating rounds then bounds a raw rating to [1,5]. Values rounding below
// 1 and non-finite input come back nil, never an error.
func BoundRating(raw float64) *int {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return nil
	}
	r := int(math.Round(raw))
	if r < 1 {
		return nil
	}
	if r > 5 {
		r = 5
	}
	return &r
}

func photoURL(mediaPath, mediaType *string, resolve func(string) string) string {
	if mediaPath == nil {
		return ""
	}
	p := strings.TrimSpace(*mediaPath)
	if p == "" {
		return ""
	}
	t := ""
	if mediaType != nil {
		t = strings.ToLower(*mediaType)
	}
	if t != "photo" && !strings.HasPrefix(t, "image") {
		return ""
	}
	return resolve(p)
}

func attachmentURL(att model.Attachment, resolve func(string) string) string {
	if att.ContentType != nil {
		t := strings.ToLower(*att.ContentType)
		if t != "photo" && !strings.HasPrefix(t, "image") {
			return ""
		}
	}
	if att.PublicURL != nil && *att.PublicURL != "" {
		return *att.PublicURL
	}
	if att.Path != nil && *att.Path != "" {
		return resolve(*att.Path)
	}
	return ""
}

func addItemPhoto(it *Item, url string) {
	if len(it.PhotoURLs) >= maxItemPhotos {
		return
	}
	for _, u := range it.PhotoURLs {
		if u == url {
			return
		}
	}
	it.PhotoURLs = append(it.PhotoURLs, url)
}

func deriveKind(it *Item) string {
	switch {
	case it.Rating != nil:
		return model.AnswerRating
	case it.YesNo != nil:
		return model.AnswerYesNo
	case len(it.PhotoURLs) > 0:
		return model.AnswerRich
	default:
		return model.AnswerText
	}
}

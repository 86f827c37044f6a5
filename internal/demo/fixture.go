// Package demo holds the in-memory sample dataset behind the template and
// debug endpoints. It is constructed explicitly at startup and handed to the
// handlers that need it; nothing else in the portal reads it.
package demo

import (
	"sync"
	"time"

	"github.com/karimfahmy/storepulse/internal/model"
)

type Fixture struct {
	mu        sync.RWMutex
	createdAt time.Time
	templates []model.Template
	seeded    int
}

func f64(v float64) *float64 { return &v }

// NewFixture builds the demo dataset. now pins the timestamps so tests stay
// deterministic.
func NewFixture(now time.Time) *Fixture {
	return &Fixture{
		createdAt: now,
		templates: []model.Template{
			{
				ID:           "tpl-fastfood",
				Name:         "Fast Food Mystery Visit",
				Notes:        "Order, cleanliness, staff courtesy, speed.",
				DefaultStore: "Demo Store",
				DefaultLocation: model.Location{
					Address: "Tahrir, Cairo",
					Lat:     f64(30.0444),
					Lng:     f64(31.2357),
					RadiusM: 150,
				},
				DefaultChecklist: []model.TemplateItem{
					{Text: "Was the greeting friendly?", Requires: model.ItemRequires{Comment: true}},
					{Text: "Order accuracy verified", Requires: model.ItemRequires{Photo: true}},
					{Text: "Queue time", Requires: model.ItemRequires{Timer: true, Comment: true}},
				},
				DefaultBudget:  120,
				DefaultFee:     30,
				RequiresPhotos: true,
				TimeOnSiteMin:  10,
			},
			{
				ID:           "tpl-retail",
				Name:         "Retail Store Audit",
				Notes:        "Merchandising, availability, signage, queue time.",
				DefaultStore: "Demo Retail",
				DefaultLocation: model.Location{
					Address: "Zamalek, Cairo",
					Lat:     f64(30.0667),
					Lng:     f64(31.2167),
					RadiusM: 150,
				},
				DefaultChecklist: []model.TemplateItem{
					{Text: "Signage present at entrance"},
					{Text: "Shelves tidy", Requires: model.ItemRequires{Photo: true}},
					{Text: "Overall impression", Requires: model.ItemRequires{Rating: true}},
				},
				DefaultFee:     50,
				RequiresPhotos: true,
				TimeOnSiteMin:  8,
			},
			{
				ID:           "tpl-bank",
				Name:         "Bank Branch Service",
				Notes:        "Greeting, ID process, product knowledge.",
				DefaultStore: "Demo Branch",
				DefaultLocation: model.Location{
					Address: "Nasr City, Cairo",
					Lat:     f64(30.056),
					Lng:     f64(31.330),
					RadiusM: 150,
				},
				DefaultChecklist: []model.TemplateItem{
					{Text: "Security present"},
					{Text: "Waiting time", Requires: model.ItemRequires{Timer: true, Comment: true}},
				},
				DefaultFee:    60,
				TimeOnSiteMin: 12,
			},
		},
	}
}

// Templates returns the template catalog. The slice is shared; callers must
// not mutate it.
func (f *Fixture) Templates() []model.Template {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.templates
}

func (f *Fixture) Template(id string) *model.Template {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for i := range f.templates {
		if f.templates[i].ID == id {
			return &f.templates[i]
		}
	}
	return nil
}

// RecordSeed bumps the counter the stats endpoint reports.
func (f *Fixture) RecordSeed() {
	f.mu.Lock()
	f.seeded++
	f.mu.Unlock()
}

type Stats struct {
	CreatedAt time.Time `json:"created_at"`
	Templates int       `json:"templates"`
	Seeded    int       `json:"seeded"`
}

func (f *Fixture) Stats() Stats {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return Stats{CreatedAt: f.createdAt, Templates: len(f.templates), Seeded: f.seeded}
}

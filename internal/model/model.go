package model

import "time"

// Mission statuses as stored / derived on the read path.
const (
	StatusScheduled = "Scheduled"
	StatusNow       = "Now"
	StatusCompleted = "Completed"
)

// Report lifecycle statuses.
const (
	ReportGenerating = "Generating"
	ReportReady      = "Ready"
	ReportFailed     = "Failed"
)

// Checklist answer kinds, in derivation precedence order (rating > yes_no >
// rich > text).
const (
	AnswerRating = "rating"
	AnswerYesNo  = "yes_no"
	AnswerRich   = "rich"
	AnswerText   = "text"
)

type Location struct {
	Address string   `json:"address"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	RadiusM int      `json:"radiusM"`
}

type Mission struct {
	ID             string
	OrgID          string
	Title          string
	Store          string
	Status         string
	StartsAt       *time.Time
	ExpiresAt      *time.Time
	Location       *Location
	Budget         *float64
	Fee            *float64
	Cost           *float64 // store-computed, never client-set
	RequiresVideo  bool
	RequiresPhotos bool
	TimeOnSiteMin  int
	TemplateID     *string
	CreatedAt      time.Time
}

type ChecklistItem struct {
	ID              string
	MissionID       string
	OrderIndex      int
	Text            string
	AnswerType      string
	YesNo           bool
	RequiresPhoto   bool
	RequiresVideo   bool
	RequiresComment bool
	RequiresTimer   bool
}

type Submission struct {
	ID          string
	OrgID       string
	MissionID   string
	AgentID     string
	Status      string
	StartedAt   *time.Time
	SubmittedAt *time.Time
	Comment     *string
	Meta        map[string]interface{}
}

// Answer is the current shape: values inline on the row, media referenced by
// a storage path.
type Answer struct {
	ID              string
	SubmissionID    string
	ItemID          *string
	ValueYN         *bool
	ValueText       *string
	ValueNumber     *float64
	ValueDurationMS *int64
	MediaPath       *string
	MediaType       *string
	CreatedAt       time.Time
}

// SubmissionItem is the legacy shape: one typed row per answer, media behind
// attachment ids resolved via a second lookup.
type SubmissionItem struct {
	ID                string
	SubmissionID      string
	MissionID         string
	ChecklistItemID   *string
	AnswerType        string
	YesNo             *bool
	Comment           *string
	TimerSeconds      *int
	Rating            *int
	PhotoAttachmentID *string
	VideoAttachmentID *string
	CreatedAt         time.Time
}

type Attachment struct {
	ID          string
	Path        *string
	ContentType *string
	PublicURL   *string
	SizeBytes   *int64
	CreatedAt   time.Time
}

type Report struct {
	ID          string
	OrgID       string
	MissionID   string
	Type        string
	Status      string
	GeneratedAt *time.Time
	Title       string
	PDFURL      *string
	KPIs        map[string]int
	Meta        map[string]interface{}
}

// Template is read-only seed data for starting a new mission.
type Template struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Notes            string         `json:"notes"`
	DefaultStore     string         `json:"defaultStore"`
	DefaultLocation  Location       `json:"defaultLocation"`
	DefaultChecklist []TemplateItem `json:"defaultChecklist"`
	DefaultBudget    float64        `json:"defaultBudget"`
	DefaultFee       float64        `json:"defaultFee"`
	RequiresVideo    bool           `json:"requiresVideo"`
	RequiresPhotos   bool           `json:"requiresPhotos"`
	TimeOnSiteMin    int            `json:"timeOnSiteMin"`
}

type TemplateItem struct {
	Text     string       `json:"text"`
	Requires ItemRequires `json:"requires"`
}

type ItemRequires struct {
	Photo   bool `json:"photo"`
	Video   bool `json:"video"`
	Comment bool `json:"comment"`
	Timer   bool `json:"timer"`
	Rating  bool `json:"rating"`
}

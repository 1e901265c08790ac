package domain

import "time"

type ProjectStatus string

const (
	ProjectStatusQueued  ProjectStatus = "queued"
	ProjectStatusRunning ProjectStatus = "running"
	ProjectStatusSuccess ProjectStatus = "success"
	ProjectStatusFailed  ProjectStatus = "failed"
)

// Terminal reports whether a status admits no further transitions.
func (s ProjectStatus) Terminal() bool {
	return s == ProjectStatusSuccess || s == ProjectStatusFailed
}

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// Project is one user-submitted dream generation request. Progress is only
// ever written by the single worker execution that owns the project's job,
// and never decreases while the project is running.
type Project struct {
	ID         string
	InputText  string
	Style      string
	Symbols    []string
	Mood       string
	Visibility Visibility
	Status     ProjectStatus
	Progress   float64
	ErrorMsg   string
	CollageURL string
	VideoURL   string
	ShareSlug  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Panel is one rendered card, created only after its image has been stored
// durably. Order matches the plan index (0,1,2).
type Panel struct {
	ID        string
	ProjectID string
	Order     int
	Scene     string
	Caption   string
	ImageURL  string
	SketchURL string
	CreatedAt time.Time
}

// Input enums accepted by the submission endpoint. Unknown values are
// rejected before any project or job is created.
var (
	Symbols = []string{
		"stairs", "mirror", "door", "ocean", "cat", "clock",
		"window", "fog", "train", "maze", "key",
	}

	Moods = []string{"calm", "lonely", "surreal", "mysterious", "hopeful"}
)

const (
	MinInputTextLength = 10
	MaxInputTextLength = 1000
)

func KnownSymbol(value string) bool {
	for _, symbol := range Symbols {
		if symbol == value {
			return true
		}
	}
	return false
}

func KnownMood(value string) bool {
	for _, mood := range Moods {
		if mood == value {
			return true
		}
	}
	return false
}

package curriculum

import "github.com/trezcool/launchpad/core"

// Statuses
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Submission statuses
const (
	SubmissionSubmitted = "submitted"
	SubmissionAccepted  = "accepted"
	SubmissionRevise    = "revise"
)

var (
	// excludedClasses are legacy/placeholder containers that must never reach learners.
	// Matched case-insensitively against both Class.Name and Class.Slug.
	excludedClasses = []string{"legacy", "placeholder", "archived", "sandbox"}
)

// Class is a curriculum container (a "class" in content-authoring terms).
type Class struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// Module is an authored curriculum step. Owned by content authoring; read-only here.
type Module struct {
	ID       string `json:"id"`
	ClassID  string `json:"class_id"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Index    int    `json:"index"`              // position within its class
	Sequence *int   `json:"sequence,omitempty"` // explicit sequence number, when authored
}

// Progress is a learner's explicit progress on a Module.
// Status is never "locked": locking is decided by the UI from order + entitlements.
type Progress struct {
	UserID   string
	ModuleID string
	Status   string
	Notes    string // parsed notes text; see ParseNotes
}

type Submission struct {
	UserID   string
	ModuleID string
	Status   string
}

type Assignment struct {
	ModuleID         string
	CompleteOnSubmit bool
}

type ModuleCard struct {
	Module   Module `json:"module"`
	Status   string `json:"status"`
	HasNotes bool   `json:"has_notes"`
}

type ClassProgress struct {
	Class   Class        `json:"class"`
	Modules []ModuleCard `json:"modules"`
}

type Summary struct {
	TotalModules      int `json:"total_modules"`
	CompletedModules  int `json:"completed_modules"`
	InProgressModules int `json:"in_progress_modules"`
	Percent           int `json:"percent"`
}

type Overview struct {
	Classes []ClassProgress `json:"classes"`
	Summary Summary         `json:"summary"`
}

// Statuses returns the status of every module keyed by slug.
func (o Overview) Statuses() map[string]string {
	statuses := make(map[string]string, o.Summary.TotalModules)
	for _, cls := range o.Classes {
		for _, card := range cls.Modules {
			statuses[core.CleanString(card.Module.Slug, true /* lower */)] = card.Status
		}
	}
	return statuses
}

// IsExcludedClass reports whether cls is a legacy/placeholder container.
// extra holds additional (already cleaned) names or slugs to exclude.
func IsExcludedClass(cls Class, extra ...string) bool {
	name := core.CleanString(cls.Name, true /* lower */)
	slug := core.CleanString(cls.Slug, true /* lower */)
	for _, lists := range [][]string{excludedClasses, extra} {
		for _, excl := range lists {
			if excl == name || excl == slug {
				return true
			}
		}
	}
	return false
}

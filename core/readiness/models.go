package readiness

import (
	"github.com/trezcool/launchpad/core"
	"github.com/trezcool/launchpad/core/curriculum"
)

// Checkpoint thresholds
const (
	FundableThreshold = 70
	VerifiedThreshold = 90
)

// Fundable score weights
const (
	profileWeight        = 20
	roadmapWeight        = 30
	formationWeight      = 25
	fundedProgramPoints  = 15
	anyProgramPoints     = 8
	teamPoints           = 10
	verifiedDocWeight    = 20
	electiveWorkPoints   = 10
	verifiedStageCeiling = 100
)

// Organization formation statuses
const (
	FormationNotStarted = "not_started"
	FormationInProgress = "in_progress"
	FormationSubmitted  = "submitted"
	FormationApproved   = "approved"
)

// Roadmap section statuses
const (
	SectionDraft    = "draft"
	SectionComplete = "complete"
)

// CoreRoadmapSections are the roadmap sections every organization must write.
var CoreRoadmapSections = []string{"introduction", "need", "mission_vision", "theory_of_change", "program"}

// RoadmapSection is one section of the organization's strategic roadmap.
type RoadmapSection struct {
	Slug    string `json:"slug" db:"slug"`
	Status  string `json:"status" db:"status"`
	Content string `json:"content" db:"content"`
}

// IsComplete reports whether the section is marked complete, or, when no status was ever set,
// whether it has content.
func (s RoadmapSection) IsComplete() bool {
	switch core.CleanString(s.Status, true /* lower */) {
	case SectionComplete:
		return true
	case "":
		return hasText(s.Content)
	default:
		return false
	}
}

type Program struct {
	ID          string  `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	FundingGoal float64 `json:"funding_goal" db:"funding_goal"`
}

func (p Program) IsFunded() bool { return p.FundingGoal > 0 }

// Inputs gathers everything the scorer looks at.
type Inputs struct {
	Profile        Profile
	ModuleStatuses map[string]string // module slug -> curriculum status
	Roadmap        []RoadmapSection
	Programs       []Program
	PeopleCount    int
}

func (in Inputs) moduleStatus(slug string) string {
	return in.ModuleStatuses[slug]
}

// normalizeStatuses keys statuses by cleaned, lower-cased slug. When two keys collapse into one,
// the furthest status wins.
func normalizeStatuses(statuses map[string]string) map[string]string {
	out := make(map[string]string, len(statuses))
	for slug, status := range statuses {
		slug = core.CleanString(slug, true /* lower */)
		status = core.CleanString(status, true /* lower */)
		if cur, ok := out[slug]; ok && statusRank(cur) >= statusRank(status) {
			continue
		}
		out[slug] = status
	}
	return out
}

func statusRank(status string) int {
	switch {
	case isDone(status):
		return 2
	case isStarted(status):
		return 1
	}
	return 0
}

// Snapshot is the organization's readiness. Derived per request, never persisted.
type Snapshot struct {
	// Score and ProgressPercent are the staged value: they never drop below a reached checkpoint.
	Score           int      `json:"score"`
	ProgressPercent int      `json:"progress_percent"`
	Fundable        bool     `json:"fundable"`
	Verified        bool     `json:"verified"`
	FundableMissing []string `json:"fundable_missing"`
	VerifiedMissing []string `json:"verified_missing"`
	// raw checkpoint scores, before staging
	FundableScore int `json:"fundable_score"`
	VerifiedScore int `json:"verified_score"`
}

// Request identifies whose readiness to compute.
type Request struct {
	UserID         string
	OrgOwnerID     string // used to find the organization when OrganizationID is empty; defaults to UserID
	OrganizationID string
}

func isDone(status string) bool {
	return status == curriculum.StatusCompleted
}

func isStarted(status string) bool {
	return status == curriculum.StatusInProgress || status == curriculum.StatusCompleted
}

package readiness

import (
	"fmt"
	"math"

	"github.com/trezcool/launchpad/core"
	"github.com/trezcool/launchpad/core/curriculum"
)

// Score computes both readiness checkpoints. A checkpoint is reached only when its score meets
// the threshold and every one of its gates holds. Missing inputs weigh zero; Score never fails.
func Score(in Inputs) Snapshot {
	in.ModuleStatuses = normalizeStatuses(in.ModuleStatuses)
	coreSlugs := curriculum.CoreFormationSlugs()

	completedCore := 0
	for _, slug := range coreSlugs {
		if isDone(in.moduleStatus(slug)) {
			completedCore++
		}
	}
	allCoreDone := completedCore == len(coreSlugs)

	sections := roadmapIndex(in.Roadmap)
	completeSections := 0
	for _, slug := range CoreRoadmapSections {
		if sections[slug] {
			completeSections++
		}
	}
	roadmapDone := completeSections == len(CoreRoadmapSections)

	hasPrograms := len(in.Programs) > 0
	hasFundedProgram := false
	for _, p := range in.Programs {
		if p.IsFunded() {
			hasFundedProgram = true
			break
		}
	}

	hasLetter := in.Profile.HasDocument(DocVerificationLetter)
	hasArticles := in.Profile.HasDocument(DocArticlesOfIncorporation)
	approved := in.Profile.FormationStatus == FormationApproved

	// fundable
	filled, totalFields := in.Profile.filledFields()
	fundableRaw := proportion(profileWeight, filled, totalFields) +
		proportion(roadmapWeight, completeSections, len(CoreRoadmapSections)) +
		proportion(formationWeight, completedCore, len(coreSlugs))
	switch {
	case hasFundedProgram:
		fundableRaw += fundedProgramPoints
	case hasPrograms:
		fundableRaw += anyProgramPoints
	}
	if in.PeopleCount > 0 {
		fundableRaw += teamPoints
	}
	fundableScore := round(fundableRaw)

	var fundableMissing []string
	if !allCoreDone {
		fundableMissing = append(fundableMissing,
			fmt.Sprintf("Complete the core formation modules (%d of %d done)", completedCore, len(coreSlugs)))
	}
	if !hasFundedProgram {
		fundableMissing = append(fundableMissing, "Add a program with a funding goal")
	}
	if !hasLetter && !hasArticles {
		fundableMissing = append(fundableMissing,
			"Upload your IRS verification letter or articles of incorporation")
	}
	if fundableScore < FundableThreshold {
		fundableMissing = append(fundableMissing,
			fmt.Sprintf("Raise your fundable score to %d (currently %d)", FundableThreshold, fundableScore))
	}
	fundable := len(fundableMissing) == 0

	// verified
	docs := 0
	for _, name := range OptionalDocuments {
		if in.Profile.HasDocument(name) {
			docs++
		}
	}
	verifiedRaw := proportion(verifiedDocWeight, docs, len(OptionalDocuments))
	if fundable {
		verifiedRaw += FundableThreshold
	}
	if hasElectiveWork(in.ModuleStatuses) {
		verifiedRaw += electiveWorkPoints
	}
	verifiedScore := round(verifiedRaw)

	var verifiedMissing []string
	if !hasLetter {
		verifiedMissing = append(verifiedMissing, "Upload your IRS verification letter")
	}
	if !approved {
		verifiedMissing = append(verifiedMissing, "Get your formation status approved")
	}
	if !allCoreDone {
		verifiedMissing = append(verifiedMissing, "Complete all core formation modules")
	}
	if !roadmapDone {
		verifiedMissing = append(verifiedMissing,
			fmt.Sprintf("Complete the core roadmap sections (%d of %d done)", completeSections, len(CoreRoadmapSections)))
	}
	if !hasFundedProgram {
		verifiedMissing = append(verifiedMissing, "Add a funded program")
	}
	if verifiedScore < VerifiedThreshold {
		verifiedMissing = append(verifiedMissing,
			fmt.Sprintf("Raise your verification score to %d (currently %d)", VerifiedThreshold, verifiedScore))
	}
	verified := len(verifiedMissing) == 0

	staged := stage(fundableScore, fundable, verified)
	return Snapshot{
		Score:           staged,
		ProgressPercent: staged,
		Fundable:        fundable,
		Verified:        verified,
		FundableMissing: nonNil(fundableMissing),
		VerifiedMissing: nonNil(verifiedMissing),
		FundableScore:   fundableScore,
		VerifiedScore:   verifiedScore,
	}
}

// stage maps the fundable score onto the reported percent so that it never falls below
// a checkpoint already reached.
func stage(fundableScore int, fundable, verified bool) int {
	switch {
	case verified:
		return verifiedStageCeiling
	case fundable:
		return clamp(fundableScore, FundableThreshold, VerifiedThreshold-1)
	default:
		return clamp(fundableScore, 0, FundableThreshold-1)
	}
}

func roadmapIndex(sections []RoadmapSection) map[string]bool {
	idx := make(map[string]bool, len(sections))
	for _, s := range sections {
		slug := core.CleanString(s.Slug, true /* lower */)
		idx[slug] = idx[slug] || s.IsComplete()
	}
	return idx
}

func hasElectiveWork(statuses map[string]string) bool {
	for slug, status := range statuses {
		if !curriculum.IsCoreFormation(slug) && isStarted(status) {
			return true
		}
	}
	return false
}

func proportion(weight float64, part, total int) float64 {
	if total <= 0 || part <= 0 {
		return 0
	}
	return weight * float64(part) / float64(total)
}

func round(f float64) int {
	return int(math.Round(f))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

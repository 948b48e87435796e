package curriculum

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/launchpad/core"
)

type (
	// Repository reads curriculum data. Query* methods return an empty slice (not an error)
	// when nothing matches; store failures caused by missing tables/columns are reported
	// as *core.SchemaMissingError.
	Repository interface {
		QueryClasses(ctx context.Context) ([]Class, error)
		QueryModules(ctx context.Context, classIDs []string) ([]Module, error)
		QueryProgress(ctx context.Context, userID string, moduleIDs []string) ([]Progress, error)
		QuerySubmissions(ctx context.Context, userID string, moduleIDs []string) ([]Submission, error)
		QueryAssignments(ctx context.Context, moduleIDs []string) ([]Assignment, error)
	}

	ServiceInterface interface {
		Catalog(ctx context.Context) ([]Class, []Module, error)
		Overview(ctx context.Context, userID string) (Overview, error)
	}

	Service struct {
		repo            Repository
		logger          core.Logger
		excludedClasses []string
	}
)

var _ ServiceInterface = (*Service)(nil) // interface compliance check

func NewService(repo Repository, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		repo:            repo,
		logger:          logger,
		excludedClasses: conf.Curriculum.ExcludedClasses,
	}
}

// Catalog returns the learner-facing classes (ordered by Position, then Slug) and all of their modules.
// Missing curriculum tables yield an empty catalog.
func (svc *Service) Catalog(ctx context.Context) ([]Class, []Module, error) {
	classes, err := svc.repo.QueryClasses(ctx)
	if err != nil {
		if core.IsSchemaMissing(err) {
			return nil, nil, nil
		}
		return nil, nil, core.NewStoreError("querying classes", err)
	}

	kept := make([]Class, 0, len(classes))
	classIDs := make([]string, 0, len(classes))
	for _, cls := range classes {
		if IsExcludedClass(cls, svc.excludedClasses...) {
			continue
		}
		kept = append(kept, cls)
		classIDs = append(classIDs, cls.ID)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Position != kept[j].Position {
			return kept[i].Position < kept[j].Position
		}
		return kept[i].Slug < kept[j].Slug
	})
	if len(classIDs) == 0 {
		return kept, nil, nil
	}

	modules, err := svc.repo.QueryModules(ctx, classIDs)
	if err != nil {
		if core.IsSchemaMissing(err) {
			return kept, nil, nil
		}
		return nil, nil, core.NewStoreError("querying modules", err)
	}
	return kept, modules, nil
}

// Overview merges the learner's explicit progress and assignment submissions into per-module statuses,
// grouped by class with every group in canonical order (see Sequence).
// Classes holding core formation modules come first.
func (svc *Service) Overview(ctx context.Context, userID string) (Overview, error) {
	classes, modules, err := svc.Catalog(ctx)
	if err != nil {
		return Overview{}, errors.Wrap(err, "loading catalog")
	}

	moduleIDs := make([]string, 0, len(modules))
	for _, m := range modules {
		moduleIDs = append(moduleIDs, m.ID)
	}

	var (
		progress    []Progress
		submissions []Submission
		assignments []Assignment
	)
	if len(moduleIDs) > 0 {
		actor := core.Actor{UserID: userID}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			rows, err := svc.repo.QueryProgress(gctx, userID, moduleIDs)
			if err != nil {
				svc.logDegraded("querying progress", err, actor)
				return nil
			}
			progress = rows
			return nil
		})
		g.Go(func() error {
			rows, err := svc.repo.QuerySubmissions(gctx, userID, moduleIDs)
			if err != nil {
				svc.logDegraded("querying submissions", err, actor)
				return nil
			}
			submissions = rows
			return nil
		})
		g.Go(func() error {
			rows, err := svc.repo.QueryAssignments(gctx, moduleIDs)
			if err != nil {
				svc.logDegraded("querying assignments", err, actor)
				return nil
			}
			assignments = rows
			return nil
		})
		_ = g.Wait() // never fails: every read degrades to empty
	}

	return buildOverview(classes, modules, progress, submissions, assignments), nil
}

func buildOverview(classes []Class, modules []Module, progress []Progress, submissions []Submission, assignments []Assignment) Overview {
	progressByModule := make(map[string]Progress, len(progress))
	for _, p := range progress {
		progressByModule[p.ModuleID] = p
	}
	submissionByModule := make(map[string]Submission, len(submissions))
	for _, s := range submissions {
		submissionByModule[s.ModuleID] = s
	}
	completeOnSubmit := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		completeOnSubmit[a.ModuleID] = a.CompleteOnSubmit
	}

	modulesByClass := make(map[string][]Module, len(classes))
	for _, m := range modules {
		modulesByClass[m.ClassID] = append(modulesByClass[m.ClassID], m)
	}

	var overview Overview
	overview.Classes = make([]ClassProgress, 0, len(classes))
	for _, cls := range presentationOrder(classes, modulesByClass) {
		ordered := Sequence(modulesByClass[cls.ID])
		cards := make([]ModuleCard, 0, len(ordered))
		for _, m := range ordered {
			p, hasProgress := progressByModule[m.ID]
			sub, hasSubmission := submissionByModule[m.ID]

			card := ModuleCard{Module: m, Status: StatusNotStarted}
			switch {
			case hasProgress && p.Status != "" && p.Status != StatusNotStarted:
				card.Status = p.Status
			case hasSubmission:
				if completeOnSubmit[m.ID] && sub.Status != SubmissionRevise {
					card.Status = StatusCompleted
				} else {
					card.Status = StatusInProgress
				}
			}
			card.HasNotes = hasProgress && hasNotes(p.Notes)

			switch card.Status {
			case StatusCompleted:
				overview.Summary.CompletedModules++
			case StatusInProgress:
				overview.Summary.InProgressModules++
			}
			overview.Summary.TotalModules++
			cards = append(cards, card)
		}
		overview.Classes = append(overview.Classes, ClassProgress{Class: cls, Modules: cards})
	}
	overview.Summary.Percent = percent(overview.Summary.CompletedModules, overview.Summary.TotalModules)
	return overview
}

// presentationOrder moves the classes holding core formation modules ahead of the others, by the
// lowest core rank they hold, so core modules precede every other module whatever class they live in.
// The remaining classes keep their catalog order.
func presentationOrder(classes []Class, modulesByClass map[string][]Module) []Class {
	lowestRank := make(map[string]int, len(classes))
	for _, cls := range classes {
		for _, m := range modulesByClass[cls.ID] {
			rank, ok := coreRank(m.Slug)
			if !ok {
				continue
			}
			if cur, seen := lowestRank[cls.ID]; !seen || rank < cur {
				lowestRank[cls.ID] = rank
			}
		}
	}

	ordered := make([]Class, len(classes))
	copy(ordered, classes)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, iCore := lowestRank[ordered[i].ID]
		rj, jCore := lowestRank[ordered[j].ID]
		if iCore && jCore {
			return ri < rj
		}
		return iCore && !jCore
	})
	return ordered
}

func percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// logDegraded reports a failed progress read. The read is dropped: progress display must never block access.
// Missing tables are expected before migrations and are not reported.
func (svc *Service) logDegraded(op string, err error, actor core.Actor) {
	if core.IsSchemaMissing(err) {
		return
	}
	svc.logger.Error(fmt.Sprintf("curriculum: %s", op), errors.Wrap(err, op), actor)
}

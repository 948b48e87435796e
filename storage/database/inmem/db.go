package inmemdb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/launchpad/core/curriculum"
	"github.com/trezcool/launchpad/core/entitlement"
	"github.com/trezcool/launchpad/core/readiness"
)

// Table names, used to inject failures.
const (
	TableClasses       = "classes"
	TableModules       = "modules"
	TableProgress      = "module_progress"
	TableSubmissions   = "assignment_submissions"
	TableAssignments   = "assignments"
	TablePurchases     = "purchases"
	TableSubscriptions = "subscriptions"
	TableOrganizations = "organizations"
	TableRoadmap       = "roadmap_sections"
	TablePrograms      = "programs"
	TablePeople        = "people"
)

type (
	// DB is an in-memory store used by tests and local runs without Postgres.
	DB struct {
		mu sync.RWMutex

		classes       []curriculum.Class
		modules       []curriculum.Module
		progress      map[progressKey]curriculum.Progress
		submissions   map[progressKey]curriculum.Submission
		assignments   map[string]curriculum.Assignment
		purchases     []entitlement.Purchase
		subscriptions []entitlement.Subscription
		organizations map[string]*organization

		failures map[string]error
	}

	progressKey struct {
		userID   string
		moduleID string
	}

	organization struct {
		ownerID  string
		profile  []byte
		roadmap  map[string]readiness.RoadmapSection
		programs []readiness.Program
		people   int
	}
)

func Open() *DB {
	return &DB{
		progress:      make(map[progressKey]curriculum.Progress),
		submissions:   make(map[progressKey]curriculum.Submission),
		assignments:   make(map[string]curriculum.Assignment),
		organizations: make(map[string]*organization),
		failures:      make(map[string]error),
	}
}

// FailWith makes every read or write of table return err, until called again with a nil err.
func (db *DB) FailWith(table string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err == nil {
		delete(db.failures, table)
		return
	}
	db.failures[table] = err
}

// failure must be called with db.mu held.
func (db *DB) failure(table string) error {
	return db.failures[table]
}

func newID() string {
	return uuid.New().String()
}

// Curriculum seeding

func (db *DB) AddClass(cls curriculum.Class) curriculum.Class {
	db.mu.Lock()
	defer db.mu.Unlock()
	if cls.ID == "" {
		cls.ID = newID()
	}
	db.classes = append(db.classes, cls)
	return cls
}

func (db *DB) AddModule(mod curriculum.Module) curriculum.Module {
	db.mu.Lock()
	defer db.mu.Unlock()
	if mod.ID == "" {
		mod.ID = newID()
	}
	db.modules = append(db.modules, mod)
	return mod
}

// SetProgress stores raw notes the way the notes column holds them.
func (db *DB) SetProgress(userID, moduleID, status string, rawNotes []byte) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.progress[progressKey{userID, moduleID}] = curriculum.Progress{
		UserID:   userID,
		ModuleID: moduleID,
		Status:   status,
		Notes:    curriculum.ParseNotes(rawNotes),
	}
}

func (db *DB) Submit(userID, moduleID, status string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.submissions[progressKey{userID, moduleID}] = curriculum.Submission{
		UserID:   userID,
		ModuleID: moduleID,
		Status:   status,
	}
}

func (db *DB) AddAssignment(moduleID string, completeOnSubmit bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.assignments[moduleID] = curriculum.Assignment{ModuleID: moduleID, CompleteOnSubmit: completeOnSubmit}
}

// Billing seeding

func (db *DB) AddPurchase(p entitlement.Purchase) entitlement.Purchase {
	db.mu.Lock()
	defer db.mu.Unlock()
	if p.ID == "" {
		p.ID = newID()
	}
	db.purchases = append(db.purchases, p)
	return p
}

func (db *DB) AddSubscription(sub entitlement.Subscription) entitlement.Subscription {
	db.mu.Lock()
	defer db.mu.Unlock()
	if sub.ID == "" {
		sub.ID = newID()
	}
	db.subscriptions = append(db.subscriptions, sub)
	return sub
}

// Subscriptions returns a copy of every stored subscription.
func (db *DB) Subscriptions() []entitlement.Subscription {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]entitlement.Subscription(nil), db.subscriptions...)
}

// Organization seeding

func (db *DB) AddOrganization(id, ownerID string, profile []byte) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.organizations[id] = &organization{
		ownerID: ownerID,
		profile: profile,
		roadmap: make(map[string]readiness.RoadmapSection),
	}
}

func (db *DB) SetRoadmapSection(orgID string, section readiness.RoadmapSection) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if org, ok := db.organizations[orgID]; ok {
		org.roadmap[section.Slug] = section
	}
}

func (db *DB) AddProgram(orgID string, p readiness.Program) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if org, ok := db.organizations[orgID]; ok {
		if p.ID == "" {
			p.ID = newID()
		}
		org.programs = append(org.programs, p)
	}
}

func (db *DB) AddPeople(orgID string, n int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if org, ok := db.organizations[orgID]; ok {
		org.people += n
	}
}

package testutil

import (
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/trezcool/launchpad/core"
	"github.com/trezcool/launchpad/storage/database"
)

// tables in truncation order
var tables = []string{
	"assignment_submissions", "assignments", "module_progress", "modules", "classes",
	"subscriptions", "purchases",
	"people", "programs", "roadmap_sections", "organizations",
}

// NewConfig returns the configuration used by tests: test mode, no request logs, fixed secret.
func NewConfig(electiveSlugs ...string) *core.Config {
	return &core.Config{
		AppName:   "Launchpad",
		Env:       "TEST",
		Debug:     false,
		TestMode:  true,
		SecretKey: "test-secret",
		Server: core.ServerConfig{
			Address:         ":0",
			ShutdownTimeout: time.Second,
			DisableReqLogs:  true,
		},
		Billing: core.BillingConfig{
			ReconcileCooldown: 2 * time.Minute,
			CooldownMaxKeys:   100,
		},
		Curriculum: core.CurriculumConfig{
			ElectiveSlugs: core.CleanSlugs(electiveSlugs),
		},
	}
}

// PrepareDB opens the test database (configured through TEST_DATABASE_* env vars), migrates it
// and empties every table. The test is skipped when TEST_DATABASE_HOST is not set.
func PrepareDB(t *testing.T) *sql.DB {
	t.Helper()
	if os.Getenv("TEST_DATABASE_HOST") == "" {
		t.Skip("TEST_DATABASE_HOST not set: skipping postgres test")
	}

	_ = os.Setenv("ENV", "TEST")
	conf := core.NewConfig()
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Ping(db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	ResetDB(t, db)
	return db
}

// ResetDB empties every table.
func ResetDB(t *testing.T, db *sql.DB) {
	t.Helper()
	for _, table := range tables {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("ResetDB() failed: %v", err)
		}
	}
}

package main

import (
	"database/sql"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/trezcool/launchpad/core"
	"github.com/trezcool/launchpad/core/curriculum"
	"github.com/trezcool/launchpad/core/entitlement"
	"github.com/trezcool/launchpad/core/readiness"
	billingsvc "github.com/trezcool/launchpad/services/billing"
	cooldownsvc "github.com/trezcool/launchpad/services/cooldown"
	logsvc "github.com/trezcool/launchpad/services/logger"
	"github.com/trezcool/launchpad/storage/database"
	inmemdb "github.com/trezcool/launchpad/storage/database/inmem"
	boiledrepos "github.com/trezcool/launchpad/storage/database/sqlboiler"
	sqlxrepos "github.com/trezcool/launchpad/storage/database/sqlx"
)

var isTerminalFunc = term.IsTerminal // mockable

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	cli := commandLine{
		out:        os.Stdout,
		jsonOutput: !isTerminalFunc(int(os.Stdout.Fd())),
	}

	var (
		currRepo curriculum.Repository
		entRepo  entitlement.Repository
		orgRepo  readiness.OrganizationRepository
	)
	if conf.Database.Engine == "memory" {
		db := inmemdb.Open()
		currRepo = inmemdb.NewCurriculumRepository(db)
		entRepo = inmemdb.NewEntitlementRepository(db)
		orgRepo = inmemdb.NewOrganizationRepository(db)
	} else {
		db, err := openDB(conf)
		if err != nil {
			logger.Fatal("setting up database", err)
		}
		defer db.Close()
		cli.db = db
		currRepo = boiledrepos.NewCurriculumRepository(db)
		entRepo = boiledrepos.NewEntitlementRepository(db)
		orgRepo = sqlxrepos.NewOrganizationRepository(db)
	}

	// one-shot process: the cooldown only matters to the API
	var reconciler *entitlement.Reconciler
	if conf.Billing.ReconcileEnabled {
		reconciler = entitlement.NewReconciler(
			entRepo,
			billingsvc.NewProvider(conf.Billing),
			cooldownsvc.NewMemoryCooldown(conf.Billing.ReconcileCooldown, 1, core.SystemClock),
			logger,
			core.SystemClock,
		)
	}

	currSvc := curriculum.NewService(currRepo, logger, conf)
	cli.entitlementSvc = entitlement.NewService(
		entRepo,
		entitlement.NewCatalog(conf.Curriculum.ElectiveSlugs...),
		reconciler,
		logger,
	)
	cli.readinessSvc = readiness.NewService(orgRepo, currSvc, logger)

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			log.Printf("\nerror: %s\n", err)
		}
		if db := cli.db; db != nil {
			_ = db.Close()
		}
		os.Exit(1)
	}
}

func openDB(conf *core.Config) (*sql.DB, error) {
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/launchpad/apps/api/echo"
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

type repositories struct {
	curriculum   curriculum.Repository
	entitlement  entitlement.Repository
	organization readiness.OrganizationRepository
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	if err := core.ValidateConfig(validate, conf); err != nil {
		logger.Fatal(fmt.Sprintf("invalid configuration: %v", err), err)
	}

	// set up storage
	var repos repositories
	if conf.Database.Engine == "memory" {
		logger.Warn("using the in-memory store: nothing will be persisted")
		db := inmemdb.Open()
		repos = repositories{
			curriculum:   inmemdb.NewCurriculumRepository(db),
			entitlement:  inmemdb.NewEntitlementRepository(db),
			organization: inmemdb.NewOrganizationRepository(db),
		}
	} else {
		db, err := setUpDB(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() {
			if err = db.Close(); err != nil {
				dbLogger.Fatal("Failed to close", err)
			}
		}()
		repos = repositories{
			curriculum:   boiledrepos.NewCurriculumRepository(db),
			entitlement:  boiledrepos.NewEntitlementRepository(db),
			organization: sqlxrepos.NewOrganizationRepository(db),
		}
	}

	// set up services
	reconciler, err := setUpReconciler(conf, repos.entitlement, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up billing reconciliation: %v", err), err)
	}
	currSvc := curriculum.NewService(repos.curriculum, logger, conf)
	entSvc := entitlement.NewService(
		repos.entitlement,
		entitlement.NewCatalog(conf.Curriculum.ElectiveSlugs...),
		reconciler,
		logger,
	)
	readySvc := readiness.NewService(repos.organization, currSvc, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:           conf,
			Logger:         logger,
			EntitlementSvc: entSvc,
			CurriculumSvc:  currSvc,
			ReadinessSvc:   readySvc,
			Validate:       validate,
			Translator:     translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// setUpReconciler returns nil when reconciliation is disabled.
// The cooldown is shared through Redis when an address is configured, per process otherwise.
func setUpReconciler(conf *core.Config, repo entitlement.Repository, logger core.Logger) (*entitlement.Reconciler, error) {
	if !conf.Billing.ReconcileEnabled {
		return nil, nil
	}

	var cooldown entitlement.Cooldown
	if conf.Redis.Addr != "" {
		rdb, err := cooldownsvc.NewRedisClient(context.Background(), conf.Redis)
		if err != nil {
			return nil, err
		}
		cooldown = cooldownsvc.NewRedisCooldown(rdb, conf.Billing.ReconcileCooldown)
	} else {
		cooldown = cooldownsvc.NewMemoryCooldown(conf.Billing.ReconcileCooldown, conf.Billing.CooldownMaxKeys, core.SystemClock)
	}

	provider := billingsvc.NewProvider(conf.Billing)
	if _, dummy := provider.(*billingsvc.DummyProvider); dummy {
		logger.Warn("billing: no stripe secret key configured, reconciliation will find nothing")
	}
	return entitlement.NewReconciler(repo, provider, cooldown, logger, core.SystemClock), nil
}

package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/launchpad/core/curriculum"
	"github.com/trezcool/launchpad/core/entitlement"
	"github.com/trezcool/launchpad/core/readiness"
	"github.com/trezcool/launchpad/storage/database/inmem"
	"github.com/trezcool/launchpad/tests"
)

func setup(t *testing.T, jsonOutput bool) (*commandLine, *inmemdb.DB, *bytes.Buffer) {
	t.Helper()

	conf := testutil.NewConfig("grant-writing", "board-governance")
	logger := testutil.NewLogger()
	db := inmemdb.Open()
	out := new(bytes.Buffer)

	currSvc := curriculum.NewService(inmemdb.NewCurriculumRepository(db), logger, conf)
	cli := &commandLine{
		db: new(sql.DB), // never used: migrations are mocked
		entitlementSvc: entitlement.NewService(
			inmemdb.NewEntitlementRepository(db),
			entitlement.NewCatalog(conf.Curriculum.ElectiveSlugs...),
			nil, /* reconciler */
			logger,
		),
		readinessSvc: readiness.NewService(inmemdb.NewOrganizationRepository(db), currSvc, logger),
		out:          out,
		jsonOutput:   jsonOutput,
	}
	return cli, db, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string
}

func (tt cliTest) check(t *testing.T, cli *commandLine, out *bytes.Buffer) {
	t.Helper()
	out.Reset()

	err := cli.run(append([]string{"admin"}, tt.args...))
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		assert.EqualError(t, err, tt.wantErrStr)
	default:
		require.NoError(t, err)
		if tt.wantOut != "" {
			assert.Equal(t, tt.wantOut, out.String())
		}
	}
}

func Test_commandLine_run(t *testing.T) {
	cli, _, out := setup(t, false)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "entitlements: no args", args: []string{"entitlements"}, wantErr: errHelp},
		{name: "entitlements: unknown flag", args: []string{"entitlements", "-lol"}, wantErr: errHelp},
		{name: "readiness: no args", args: []string{"readiness"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli, out)
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, out := setup(t, false)

	gooseRunFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "cohorts", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli, out)
		})
	}

	t.Run("in-memory store", func(t *testing.T) {
		cli.db = nil
		cliTest{args: []string{"migrate", "up"}, wantErr: errNoDB}.check(t, cli, out)
	})
}

func Test_commandLine_entitlements(t *testing.T) {
	cli, db, out := setup(t, false)

	db.AddPurchase(entitlement.Purchase{
		UserID: "u1", Kind: entitlement.PurchaseElective, ModuleSlug: "grant-writing", Status: entitlement.PurchaseActive,
	})
	db.AddSubscription(entitlement.Subscription{OwnerID: "owner", Status: entitlement.SubscriptionActive})

	tests := []cliTest{
		{
			name: "elective only",
			args: []string{"entitlements", "-user", "u1"},
			wantOut: "accelerator purchase:  no\n" +
				"active subscription:   no\n" +
				"accelerator access:    no\n" +
				"elective access:       yes\n" +
				"owned electives:       grant-writing\n",
		},
		{
			name: "owner subscription",
			args: []string{"entitlements", "-user", "u1", "-org", "owner"},
			wantOut: "accelerator purchase:  no\n" +
				"active subscription:   yes\n" +
				"accelerator access:    yes\n" +
				"elective access:       yes\n" +
				"owned electives:       board-governance, grant-writing\n",
		},
		{
			name: "nothing",
			args: []string{"entitlements", "-user", "u2"},
			wantOut: "accelerator purchase:  no\n" +
				"active subscription:   no\n" +
				"accelerator access:    no\n" +
				"elective access:       no\n" +
				"owned electives:       none\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli, out)
		})
	}
}

func Test_commandLine_entitlements_json(t *testing.T) {
	cli, _, out := setup(t, true)

	cliTest{args: []string{"entitlements", "-admin"}}.check(t, cli, out)

	var snap entitlement.Snapshot
	require.NoError(t, json.Unmarshal(out.Bytes(), &snap))
	assert.Equal(t, entitlement.Snapshot{
		HasAcceleratorPurchase:   true,
		HasActiveSubscription:    true,
		HasAcceleratorAccess:     true,
		HasElectiveAccess:        true,
		OwnedElectiveModuleSlugs: []string{"board-governance", "grant-writing"},
	}, snap)
}

func Test_commandLine_readiness(t *testing.T) {
	cli, db, out := setup(t, true)
	db.AddOrganization("org1", "owner", []byte(`{"name": "Harbor Food Bank"}`))

	cliTest{args: []string{"readiness", "-owner", "owner"}}.check(t, cli, out)

	var snap readiness.Snapshot
	require.NoError(t, json.Unmarshal(out.Bytes(), &snap))
	assert.False(t, snap.Fundable)
	assert.NotEmpty(t, snap.FundableMissing)

	cliTest{
		args:       []string{"readiness", "-org", "nope"},
		wantErrStr: "computing readiness: " + readiness.ErrOrganizationNotFound.Error(),
	}.check(t, cli, out)
}

func Test_commandLine_readiness_text(t *testing.T) {
	cli, db, out := setup(t, false)
	db.AddOrganization("org1", "owner", nil)

	cliTest{args: []string{"readiness", "-org", "org1"}}.check(t, cli, out)
	assert.Contains(t, out.String(), "score:     0%\n")
	assert.Contains(t, out.String(), "fundable:  no (0%)\n")
	assert.Contains(t, out.String(), "verified:  no (0%)\n")
}

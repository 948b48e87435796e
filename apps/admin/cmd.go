package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/trezcool/launchpad/core/entitlement"
	"github.com/trezcool/launchpad/core/readiness"
)

var (
	errHelp           = errors.New("help provided")
	errNoDB           = errors.New("migrations need a postgres database (database.engine is \"memory\")")
	flagErrorHandling = flag.ContinueOnError
)

type commandLine struct {
	db             *sql.DB // nil with the in-memory store
	entitlementSvc entitlement.ServiceInterface
	readinessSvc   readiness.ServiceInterface
	out            io.Writer
	jsonOutput     bool // stdout is not a terminal
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                     - run a goose command (up, down, status, redo, version, ...)")
	fmt.Fprintln(cli.out, "  entitlements -user ID [-org ID] [-admin]   - resolve a learner's entitlements")
	fmt.Fprintln(cli.out, "  readiness [-user ID] [-org ID] [-owner ID] - compute an organization's readiness")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	entitlementsCmd := flag.NewFlagSet("entitlements", flagErrorHandling)
	entitlementsCmd.SetOutput(cli.out)
	entitlementsUser := entitlementsCmd.String("user", "", "The learner's id.")
	entitlementsOrg := entitlementsCmd.String("org", "", "The organization owner's id. Defaults to the learner.")
	entitlementsAdmin := entitlementsCmd.Bool("admin", false, "Resolve as an administrator.")

	readinessCmd := flag.NewFlagSet("readiness", flagErrorHandling)
	readinessCmd.SetOutput(cli.out)
	readinessUser := readinessCmd.String("user", "", "The learner whose module progress counts.")
	readinessOrg := readinessCmd.String("org", "", "The organization's id.")
	readinessOwner := readinessCmd.String("owner", "", "The organization owner's id, used when -org is not given.")

	ctx := context.Background()
	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "entitlements":
		if err := entitlementsCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if strings.TrimSpace(*entitlementsUser) == "" && !*entitlementsAdmin {
			entitlementsCmd.Usage()
			return errHelp
		}
		return cli.entitlements(ctx, entitlement.Request{
			UserID:     *entitlementsUser,
			OrgOwnerID: *entitlementsOrg,
			IsAdmin:    *entitlementsAdmin,
		})
	case "readiness":
		if err := readinessCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if strings.TrimSpace(*readinessOrg+*readinessOwner+*readinessUser) == "" {
			readinessCmd.Usage()
			return errHelp
		}
		return cli.readiness(ctx, readiness.Request{
			UserID:         *readinessUser,
			OrgOwnerID:     *readinessOwner,
			OrganizationID: *readinessOrg,
		})
	default:
		cli.printUsage()
		return errHelp
	}
}

// print writes v as JSON when the output is piped, or as the text rendered by text otherwise.
func (cli *commandLine) print(v interface{}, text func(w io.Writer)) error {
	if cli.jsonOutput {
		enc := json.NewEncoder(cli.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(cli.out)
	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/launchpad/core/entitlement"
	"github.com/trezcool/launchpad/core/readiness"
)

func (cli *commandLine) entitlements(ctx context.Context, req entitlement.Request) error {
	snap, err := cli.entitlementSvc.Resolve(ctx, req)
	if err != nil {
		return errors.Wrap(err, "resolving entitlements")
	}
	return cli.print(snap, func(w io.Writer) {
		fmt.Fprintf(w, "accelerator purchase:  %s\n", yesNo(snap.HasAcceleratorPurchase))
		fmt.Fprintf(w, "active subscription:   %s\n", yesNo(snap.HasActiveSubscription))
		fmt.Fprintf(w, "accelerator access:    %s\n", yesNo(snap.HasAcceleratorAccess))
		fmt.Fprintf(w, "elective access:       %s\n", yesNo(snap.HasElectiveAccess))
		fmt.Fprintf(w, "owned electives:       %s\n", listOrNone(snap.OwnedElectiveModuleSlugs))
	})
}

func (cli *commandLine) readiness(ctx context.Context, req readiness.Request) error {
	snap, err := cli.readinessSvc.Compute(ctx, req)
	if err != nil {
		return errors.Wrap(err, "computing readiness")
	}
	return cli.print(snap, func(w io.Writer) {
		fmt.Fprintf(w, "score:     %d%%\n", snap.Score)
		fmt.Fprintf(w, "fundable:  %s (%d%%)\n", yesNo(snap.Fundable), snap.FundableScore)
		for _, m := range snap.FundableMissing {
			fmt.Fprintf(w, "  - %s\n", m)
		}
		fmt.Fprintf(w, "verified:  %s (%d%%)\n", yesNo(snap.Verified), snap.VerifiedScore)
		for _, m := range snap.VerifiedMissing {
			fmt.Fprintf(w, "  - %s\n", m)
		}
	})
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

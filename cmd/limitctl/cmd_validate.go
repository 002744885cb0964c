package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/adapters/lyc"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/adapters/observability"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/app/export"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
)

func (a *cli) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file.lyc>",
		Short: "Parse a limit family and check every enabled limit for export",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runValidate,
	}
}

func (a *cli) runValidate(cmd *cobra.Command, args []string) error {
	cfg := a.cfg
	obs, err := observability.NewPromObs(a.logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}

	path := lyc.WithExt(args[0])
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	family, err := lyc.NewSerializer(false).Deserialize(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	set, err := domain.SnapshotFromFamily(family, cfg.Family.XYChannels)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	pol := cfg.Policy()
	val := export.NewValidator(pol.ElideLeadingZero, obs)
	out := cmd.OutOrStdout()
	failures := 0
	for _, r := range set.Rows() {
		for _, p := range []domain.Polarity{domain.Upper, domain.Lower} {
			if !r.Enabled(p) {
				continue
			}
			if _, err := val.Prepare(r, p, pol.ApplyToAll); err != nil {
				failures++
				fmt.Fprintf(out, "FAIL %s %s: %v\n", r.Label(), p, err)
			}
		}
	}

	fmt.Fprintf(out, "%s: %d entries, %d limit errors\n", path, len(family.Entries), failures)
	if failures > 0 {
		return fmt.Errorf("%d limits failed validation", failures)
	}
	return nil
}

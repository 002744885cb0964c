package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/pkg/lyceum"
)

func (a *cli) exportCmd() *cobra.Command {
	var family string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Push every enabled limit of a family to the instrument",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd, family)
		},
	}
	cmd.Flags().StringVar(&family, "family", "", "limit family to export")
	_ = cmd.MarkFlagRequired("family")
	return cmd
}

func (a *cli) runExport(cmd *cobra.Command, family string) error {
	cfg := a.cfg
	if err := cfg.ValidateInstrument(); err != nil {
		return err
	}

	s, err := lyceum.Open(cfg, family, lyceum.WithLogger(a.logger))
	if err != nil {
		return err
	}

	defer func() {
		if err := s.Close(context.Background()); err != nil {
			a.logger.Warn("close session", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.OPCUA.Timeout)
	defer cancel()
	if err := s.Connect(ctx); err != nil {
		return err
	}

	rep, runErr := s.ExportAll()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "exported=%d skipped=%d rejected=%d dropped=%d\n", rep.Exported, rep.Skipped, len(rep.Rejected), rep.Dropped)
	for _, rej := range rep.Rejected {
		fmt.Fprintf(out, "  %s %s: %v\n", rej.Key, rej.Polarity, rej.Err)
	}

	if cfg.Metrics.Textfile != "" && s.Gatherer() != nil {
		if err := prometheus.WriteToTextfile(cfg.Metrics.Textfile, s.Gatherer()); err != nil {
			a.logger.Warn("write metrics textfile", zap.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}
	if len(rep.Rejected) > 0 {
		return fmt.Errorf("%d exports rejected", len(rep.Rejected))
	}
	return nil
}

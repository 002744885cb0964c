package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/ports"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/pkg/lyceum"
)

type reconcileOptions struct {
	family   string
	current  string
	out      string
	strategy string
}

func (a *cli) reconcileCmd() *cobra.Command {
	var opts reconcileOptions
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Import a limit family into the results of another family file",
		Long: `Loads --current as the live result set, then imports --family into it.
Entries of the family with no live result are resolved one at a time, by
prompt or by --strategy. The repaired result set is written to --out
(default: overwrite --current).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReconcile(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.family, "family", "", "limit family to import")
	cmd.Flags().StringVar(&opts.current, "current", "", "limit family holding the live results")
	cmd.Flags().StringVar(&opts.out, "out", "", "output file (default: --current)")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "prompt", "prompt, remove or add")
	_ = cmd.MarkFlagRequired("family")
	_ = cmd.MarkFlagRequired("current")
	return cmd
}

func (a *cli) runReconcile(cmd *cobra.Command, opts reconcileOptions) error {
	cfg := a.cfg
	prompter, err := choosePrompter(opts.strategy, cmd.InOrStdin(), cmd.OutOrStdout(), stdinIsTerminal())
	if err != nil {
		return err
	}

	s, err := lyceum.Open(cfg, opts.current, lyceum.WithLogger(a.logger))
	if err != nil {
		return err
	}
	adopted, err := s.Reconcile(opts.family, prompter)
	if err != nil {
		return err
	}

	out := opts.out
	if out == "" {
		out = opts.current
	}
	if err := s.SaveFamily(out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d results took limits from %s; wrote %s\n", adopted, opts.family, out)
	return nil
}

func choosePrompter(strategy string, in io.Reader, out io.Writer, tty bool) (ports.Prompter, error) {
	switch strategy {
	case "remove":
		return fixedPrompter{action: ports.ActionRemove}, nil
	case "add":
		return fixedPrompter{action: ports.ActionAdd}, nil
	case "prompt":
		if tty {
			return &tuiPrompter{in: in, out: out}, nil
		}
		return newLinePrompter(in, out), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (want prompt, remove or add)", strategy)
	}
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// fixedPrompter answers every prompt the same way. Added rows go to the end.
type fixedPrompter struct {
	action ports.Action
}

func (f fixedPrompter) Prompt(_ domain.LimitFamilyEntry, labels []string) (ports.Resolution, error) {
	return ports.Resolution{Action: f.action, Row: len(labels)}, nil
}

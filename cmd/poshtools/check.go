package main

import (
	"context"
	"sort"
	"sync"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/chargen/poshtools/internal/app"
	"github.com/chargen/poshtools/internal/diag"
	"github.com/chargen/poshtools/internal/engine/buffer"
)

// fileReport is one checked file's outcome.
type fileReport struct {
	path  string
	snap  *buffer.Snapshot
	diags []diag.Diagnostic
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Analyze scripts and print diagnostics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args)
		},
	}
	return cmd
}

func runCheck(cmd *cobra.Command, paths []string) error {
	ctx := cmd.Context()
	cfg := configFrom(ctx)

	manager, err := app.NewManager(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = manager.Shutdown(context.WithoutCancel(ctx)) }()

	var mu sync.Mutex
	reports := make([]fileReport, 0, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Engine.Workers)

	for _, path := range paths {
		g.Go(func() error {
			content, err := loadScript(path)
			if err != nil {
				return err
			}

			doc, err := manager.Open(gctx, path, content)
			if err != nil {
				return err
			}

			if err := doc.Analyze(gctx); err != nil && !errors.Is(err, app.ErrSuperseded) {
				return errors.Errorf("analyzing %s: %w", path, err)
			}

			mu.Lock()
			reports = append(reports, fileReport{
				path:  path,
				snap:  doc.Buffer().Snapshot(),
				diags: doc.Store().Diagnostics(),
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].path < reports[j].path })

	out := cmd.OutOrStdout()
	p := newPrinter(out, cfg.Output.Color, isTerminal(out))
	var errs, warns, hints int
	for _, r := range reports {
		for _, d := range r.diags {
			p.printDiagnostic(r.path, r.snap, d)
		}
		e, w, h := diag.CountBySeverity(r.diags)
		errs += e
		warns += w
		hints += h
	}
	p.printSummary(len(reports), errs, warns, hints)

	if errs > 0 {
		return errors.Errorf("%d error(s) found", errs)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sellImpact/internal/config"
	"sellImpact/internal/model"
)

type runFunc func(ctx context.Context, a *app, args []string) error

// withApp wires the app for a command and tears it down afterwards.
func withApp(run runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := run(ctx, a, args); err != nil {
			a.logger.Error("command failed", zap.String("command", cmd.Name()), zap.Error(err))
			return err
		}
		return nil
	}
}

func newPoolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pools <token>",
		Short: "List ranked pools for a token",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			pools, err := a.svc.ListPoolsByToken(ctx, args[0], a.cfg.Anchor)
			if err != nil {
				return err
			}
			a.logger.Info("pools listed", zap.String("token", args[0]), zap.Int("pools", len(pools)))
			return a.emit(pools)
		}),
	}
}

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot <pool>",
		Short: "Fetch a pool and estimate its reserves",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().Bool("history", false, "print the latest recorded snapshot instead of fetching")
	cmd.RunE = withApp(func(ctx context.Context, a *app, args []string) error {
		history, _ := cmd.Flags().GetBool("history")
		if !history {
			snap, err := a.svc.GetPoolSnapshot(ctx, args[0])
			if err != nil {
				return err
			}
			return a.emit(snap)
		}

		if a.pg == nil {
			return fmt.Errorf("history requires pg-dsn with record-history or the postgres cache backend")
		}
		addr, err := model.NormalizePoolAddress(args[0])
		if err != nil {
			return err
		}
		snap, ok, err := a.pg.LatestSnapshot(ctx, a.cfg.Network, addr)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no recorded snapshot for %s", addr)
		}
		return a.emit(snap)
	})
	return cmd
}

func newQuoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote <pool> <token> <amount>",
		Short: "Quote selling an amount of token into a pool",
		Args:  cobra.ExactArgs(3),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			q, err := a.svc.QuoteImpact(ctx, args[0], args[1], amount)
			if err != nil {
				return err
			}
			snap, err := a.svc.GetPoolSnapshot(ctx, args[0])
			if err != nil {
				return err
			}
			report := quoteReport(a.cfg.Network, snap, args[1], q, time.Now())
			return a.emit(report, report)
		}),
	}
}

func newMaxSellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "max-sell <pool> <token>",
		Short: "Find the largest sell that stays under a target impact",
		Args:  cobra.ExactArgs(2),
	}
	cmd.Flags().String("target", "1%", "target impact as a fraction or percentage")
	cmd.RunE = withApp(func(ctx context.Context, a *app, args []string) error {
		raw, _ := cmd.Flags().GetString("target")
		target, err := parseImpact(raw)
		if err != nil {
			return err
		}
		amount, err := a.svc.MaxSellUnder(ctx, args[0], args[1], target)
		if err != nil {
			return err
		}
		snap, err := a.svc.GetPoolSnapshot(ctx, args[0])
		if err != nil {
			return err
		}
		report := maxSellReport(a.cfg.Network, snap, args[1], target, amount, time.Now())
		return a.emit(report, report)
	})
	return cmd
}

func newSplitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split <pool> <token> <amount>",
		Short: "Compare selling an amount in equal sequential parts",
		Args:  cobra.ExactArgs(3),
	}
	cmd.Flags().String("parts", "1,10,50", "comma-separated part counts")
	cmd.RunE = withApp(func(ctx context.Context, a *app, args []string) error {
		rawParts, _ := cmd.Flags().GetString("parts")
		parts, err := config.ParseParts(rawParts)
		if err != nil {
			return fmt.Errorf("%w: %v", model.ErrBadInput, err)
		}
		amount, err := parseAmount(args[2])
		if err != nil {
			return err
		}
		snap, err := a.svc.GetPoolSnapshot(ctx, args[0])
		if err != nil {
			return err
		}

		now := time.Now()
		reports := make([]model.Report, 0, len(parts))
		for _, n := range parts {
			res, err := a.svc.SplitCompare(ctx, args[0], args[1], amount, n)
			if err != nil {
				return err
			}
			reports = append(reports, splitReport(a.cfg.Network, snap, args[1], res, now))
		}
		return a.emit(reports, reports...)
	})
	return cmd
}

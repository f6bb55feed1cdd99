package main

import (
	"bufio"
	"context"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sellImpact/internal/impact"
	"sellImpact/internal/model"
)

type watchView struct {
	Generation uint64       `json:"generation"`
	Token      string       `json:"token"`
	Pools      []model.Pool `json:"pools"`
	Error      string       `json:"error,omitempty"`
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Read token addresses from stdin and print the pools of the latest one",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().Duration("debounce", impact.DefaultDebounce, "quiet period before a lookup runs")
	cmd.RunE = withApp(func(ctx context.Context, a *app, _ []string) error {
		session := impact.NewSession(a.svc, a.cfg.Anchor, a.cfg.Debounce, a.logger)
		session.OnUpdate = func(v impact.View) {
			out := watchView{Generation: v.Generation, Token: v.Token, Pools: v.Pools}
			if v.Err != nil {
				out.Error = v.Err.Error()
			}
			if err := a.emit(out); err != nil {
				a.logger.Warn("write view failed", zap.Error(err))
			}
		}
		defer session.Close()

		lines := make(chan string)
		errc := make(chan error, 1)
		go func() {
			defer close(lines)
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				select {
				case lines <- scanner.Text():
				case <-ctx.Done():
					errc <- nil
					return
				}
			}
			errc <- scanner.Err()
		}()

		for {
			select {
			case <-ctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					session.Wait()
					return <-errc
				}
				if token := strings.TrimSpace(line); token != "" {
					session.Input(ctx, token)
				}
			}
		}
	})
	return cmd
}

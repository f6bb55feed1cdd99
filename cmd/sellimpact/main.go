package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// A missing .env is normal; explicit env and flags still apply.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sellimpact",
		Short:        "Estimate the price impact of selling into AMM pools",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file path")
	pf.String("network", "world-chain", "pool index network slug")
	pf.String("api-url", "https://api.geckoterminal.com/api/v2", "pool index base URL")
	pf.Duration("timeout", 10*time.Second, "per-request timeout")
	pf.Duration("backoff-step", 500*time.Millisecond, "wait added per consecutive upstream failure")
	pf.Duration("backoff-cap", 2500*time.Millisecond, "maximum wait before a request")
	pf.Int("max-failures", 6, "cap on the consecutive failure counter")
	pf.String("anchor", "USDC.e", "preferred counter-asset symbol or address")
	pf.Duration("pool-ttl", 30*time.Second, "pool list and snapshot cache ttl")
	pf.Duration("quote-ttl", 8*time.Second, "quote cache ttl")
	pf.String("cache-backend", "memory", "cache backend (memory, file, redis, postgres)")
	pf.String("cache-file", "./data/cache.json", "cache file for the file backend")
	pf.String("redis-addr", "localhost:6379", "redis address")
	pf.String("redis-password", "", "redis password")
	pf.Int("redis-db", 0, "redis database")
	pf.String("pg-dsn", "", "Postgres DSN")
	pf.Bool("record-history", false, "record fetched snapshots to Postgres")
	pf.String("out", "", "optional JSONL report output path")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newPoolsCmd(),
		newSnapshotCmd(),
		newQuoteCmd(),
		newMaxSellCmd(),
		newSplitCmd(),
		newWatchCmd(),
	)
	return root
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sellImpact/internal/model"
	"sellImpact/internal/risk"
)

// Report kinds.
const (
	kindQuote   = "quote"
	kindMaxSell = "max_sell"
	kindSplit   = "split"
)

// parseAmount parses a positive decimal amount as typed by a user.
func parseAmount(input string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q: %v", model.ErrBadInput, input, err)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("%w: amount must be positive, got %s", model.ErrBadInput, d)
	}
	return d.InexactFloat64(), nil
}

// parseImpact accepts a fraction ("0.01") or a percentage ("1%").
func parseImpact(input string) (float64, error) {
	s := strings.TrimSpace(input)
	percent := strings.HasSuffix(s, "%")
	d, err := decimal.NewFromString(strings.TrimSuffix(s, "%"))
	if err != nil {
		return 0, fmt.Errorf("%w: target impact %q: %v", model.ErrBadInput, input, err)
	}
	if percent {
		d = d.Shift(-2)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: target impact must be >= 0, got %s", model.ErrBadInput, input)
	}
	return d.InexactFloat64(), nil
}

func formatAmount(v float64) string {
	return decimal.NewFromFloat(v).Round(8).String()
}

func formatUSD(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func formatImpact(v float64) string {
	return decimal.NewFromFloat(v).Round(6).String()
}

func baseReport(kind, network string, pool model.PoolSnapshot, token string, now time.Time) model.Report {
	return model.Report{
		Kind:        kind,
		Network:     network,
		PoolAddress: pool.Address,
		PoolLabel:   pool.Label,
		Token:       token,
		CreatedAt:   now.UTC().Format(time.RFC3339),
	}
}

func quoteReport(network string, pool model.PoolSnapshot, token string, q model.Quote, now time.Time) model.Report {
	r := baseReport(kindQuote, network, pool, token, now)
	r.Amount = formatAmount(q.InAmount)
	r.OutAmount = formatAmount(q.OutAmount)
	r.OutSymbol = q.OutSide
	r.OutAmountUSD = formatUSD(q.OutAmountUSD)
	r.PriceImpact = formatImpact(q.PriceImpact)
	r.InlineRisk = string(risk.Inline(q.PriceImpact))
	r.SummaryRisk = string(risk.Summary(q.PriceImpact))
	return r
}

func maxSellReport(network string, pool model.PoolSnapshot, token string, target, amount float64, now time.Time) model.Report {
	r := baseReport(kindMaxSell, network, pool, token, now)
	r.Amount = formatAmount(amount)
	r.TargetImpact = formatImpact(target)
	return r
}

func splitReport(network string, pool model.PoolSnapshot, token string, res model.SplitResult, now time.Time) model.Report {
	r := baseReport(kindSplit, network, pool, token, now)
	r.Amount = formatAmount(res.TotalIn)
	r.Parts = res.Parts
	r.OutAmount = formatAmount(res.OutAmount)
	r.OutSymbol = res.OutSide
	r.OutAmountUSD = formatUSD(res.OutAmountUSD)
	return r
}

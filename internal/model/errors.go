package model

import "errors"

var (
	// ErrUpstreamUnavailable indicates a network, HTTP or decode failure from the pool index.
	ErrUpstreamUnavailable = errors.New("pool index unavailable")
	// ErrBadInput covers malformed addresses, non-positive amounts and tokens outside the pool.
	ErrBadInput = errors.New("bad input")
	// ErrNoLiquidity indicates that a reserve required for the swap is zero.
	ErrNoLiquidity = errors.New("no liquidity")
	// ErrParseFailure marks malformed cached data. Callers treat it as a miss.
	ErrParseFailure = errors.New("parse failure")
)

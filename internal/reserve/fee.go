package reserve

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"sellImpact/internal/model"
)

var (
	feeInNamePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	pairNamePattern  = regexp.MustCompile(`^\s*([^\s/]+)\s*/\s*([^\s/]+)(?:\s+\d+(?:\.\d+)?\s*%)?\s*$`)
)

// PairName holds the symbols parsed out of a display name.
type PairName struct {
	Base  string
	Quote string
}

// ResolveFee returns the fee in basis points. The structured percentage
// attribute wins whenever present; the display name is only consulted when it
// is absent or unusable.
func ResolveFee(percent *float64, name string) (uint32, string) {
	if percent != nil && !math.IsNaN(*percent) && !math.IsInf(*percent, 0) && *percent >= 0 {
		return percentToBps(*percent), model.FeeSourceAttribute
	}
	if bps, ok := ParseFeeFromName(name); ok {
		return bps, model.FeeSourceName
	}
	return 0, model.FeeSourceUnknown
}

// ParseFeeFromName extracts a trailing percentage such as "0.3%" from names
// like "WLD / USDC.e 0.3%". Best effort: the last percentage in the name wins.
func ParseFeeFromName(name string) (uint32, bool) {
	matches := feeInNamePattern.FindAllStringSubmatch(name, -1)
	if len(matches) == 0 {
		return 0, false
	}
	pct, err := strconv.ParseFloat(matches[len(matches)-1][1], 64)
	if err != nil || pct > 100 {
		return 0, false
	}
	return percentToBps(pct), true
}

// ParsePairName splits names like "WLD / USDC.e 0.3%" into base and quote
// symbols.
func ParsePairName(name string) (PairName, bool) {
	m := pairNamePattern.FindStringSubmatch(name)
	if m == nil {
		return PairName{}, false
	}
	return PairName{Base: strings.TrimSpace(m[1]), Quote: strings.TrimSpace(m[2])}, true
}

func percentToBps(pct float64) uint32 {
	bps := math.Round(pct * 100)
	if bps > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(bps)
}

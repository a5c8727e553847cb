package report

import (
	"math/big"
	"time"
)

const ratioScale = 18

func computeRate(fee *big.Int, reserve uint64) string {
	if fee == nil || fee.Sign() == 0 || reserve == 0 {
		return ""
	}
	rat := new(big.Rat).SetFrac(fee, new(big.Int).SetUint64(reserve))
	return rat.FloatString(ratioScale)
}

// FormatUnits renders base units as a decimal amount with the given
// number of decimals.
func FormatUnits(value uint64, decimals uint8) string {
	v := new(big.Int).SetUint64(value)
	if decimals == 0 {
		return v.String()
	}
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Rat).SetFrac(v, denom).FloatString(int(decimals))
}

// computeAPR annualizes a fee rate observed over window.
func computeAPR(rate string, window time.Duration) string {
	if rate == "" || window < time.Second {
		return ""
	}
	rat, ok := new(big.Rat).SetString(rate)
	if !ok {
		return ""
	}
	yearSeconds := big.NewRat(int64(365*24*time.Hour/time.Second), 1)
	seconds := big.NewRat(int64(window/time.Second), 1)
	apr := new(big.Rat).Mul(rat, yearSeconds)
	apr.Quo(apr, seconds)
	return apr.FloatString(ratioScale)
}

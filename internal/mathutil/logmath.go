package mathutil

import "math"

// LogZero represents log(0), used as negative infinity in log-domain arithmetic.
const LogZero = -1e30

// LogAdd returns log(exp(a) + exp(b)) in a numerically stable way.
// Uses threshold-based early exit to skip expensive exp/log1p when the
// smaller value contributes less than float64 precision (exp(-36) ≈ 2.3e-16).
func LogAdd(a, b float64) float64 {
	if a > b {
		if b == LogZero {
			return a
		}
		d := b - a
		if d < -36.0 {
			return a
		}
		return a + math.Log1p(math.Exp(d))
	}
	if a == LogZero {
		return b
	}
	d := a - b
	if d < -36.0 {
		return b
	}
	return b + math.Log1p(math.Exp(d))
}

// LogSumExp is LogAdd under the name the CTC prefix-beam-search literature
// uses. It is safe to call with real -Inf (math.Inf(-1)) as well as with the
// LogZero sentinel: either way, an operand that contributes nothing passes
// through unchanged instead of poisoning the sum with NaN. Two -Inf operands
// short-circuit explicitly, since -Inf - (-Inf) is NaN under IEEE 754 and
// would otherwise leak into LogAdd's difference.
func LogSumExp(a, b float64) float64 {
	if math.IsInf(a, -1) && math.IsInf(b, -1) {
		return math.Inf(-1)
	}
	return LogAdd(a, b)
}

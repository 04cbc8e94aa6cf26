package inventory

// ClampQuantity aplica un delta con signo y limita el resultado a >= 0.
// La sobre-reducción queda en cero en vez de fallar.
func ClampQuantity(previous, delta int64) int64 {
	if n := previous + delta; n > 0 {
		return n
	}
	return 0
}

// ClampRange limita v al intervalo [lo, hi].
func ClampRange(v, lo, hi int64) int64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

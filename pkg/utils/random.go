package utils

import (
	"math/rand"
	"time"
)

// RandomDuration returns a duration in [min, max]. max <= min yields min.
func RandomDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)+1))
}

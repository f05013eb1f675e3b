package flash

import (
	"golang.org/x/exp/constraints"
)

// min will return the minimum of the two values
func min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// percent returns done/total as a whole percentage, 0 when nothing is done
func percent[T constraints.Integer](done, total T) int {
	if done <= 0 || total <= 0 {
		return 0
	}
	return int(min(done, total) * 100 / total)
}

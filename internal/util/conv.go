package util

import (
	"strconv"
)

// QueryInt parses an integer query parameter, returning def when it is absent or malformed.
func QueryInt(c interface{ Query(string) string }, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Clamp bounds n to [lo, hi].
func Clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

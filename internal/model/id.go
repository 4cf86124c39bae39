package model

import (
	"strconv"
	"strings"
)

// NormalizeID returns the canonical text of an OrderID or ProductID.
// Surrounding space is trimmed and integer IDs lose leading zeros and an
// explicit plus sign, so "007", "+7" and "7" name the same record. Any other
// non-empty text is kept as is.
func NormalizeID(s string) string {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return s
}

// CompareIDs orders IDs for publication. Integer IDs compare numerically
// and sort before all other IDs, which compare lexically by byte. When every
// ID is an integer this is plain numeric order.
func CompareIDs(a, b string) int {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}

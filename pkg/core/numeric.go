package core

import (
	"math"
	"strconv"
	"strings"
)

// NotPositive is returned by PositiveInt when no positive integer was found.
const NotPositive = -1

// PositiveInt interprets a raw marker parameter as a positive integer.
// It returns NotPositive for anything else (zero, negatives, fractions,
// non-numeric strings, nil). Callers treat NotPositive as fatal and never
// substitute a default for it.
func PositiveInt(v any) int {
	switch n := v.(type) {
	case int:
		return positive(int64(n))
	case int8:
		return positive(int64(n))
	case int16:
		return positive(int64(n))
	case int32:
		return positive(int64(n))
	case int64:
		return positive(n)
	case uint:
		if uint64(n) > math.MaxInt32 {
			return NotPositive
		}
		return positive(int64(n))
	case uint8:
		return positive(int64(n))
	case uint16:
		return positive(int64(n))
	case uint32:
		return positive(int64(n))
	case uint64:
		if n > math.MaxInt32 {
			return NotPositive
		}
		return positive(int64(n))
	case float32:
		return positiveFloat(float64(n))
	case float64:
		return positiveFloat(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return NotPositive
		}
		return positive(int64(i))
	default:
		return NotPositive
	}
}

func positive(n int64) int {
	if n < 1 || n > math.MaxInt32 {
		return NotPositive
	}
	return int(n)
}

func positiveFloat(f float64) int {
	if f != math.Trunc(f) {
		return NotPositive
	}
	return positive(int64(f))
}

package alerts

import (
	"strconv"
	"strings"

	"github.com/dicekv/dicekv/server/internal/store"
)

// evalCondition evaluates "field op value" against s.
//
//	records > 10000
//	evicted >= 100
//	eviction_ratio > 0.5
//	misses > 50
//
// It returns whether the rule fires and the observed value. Unknown fields,
// operators or thresholds never fire.
func evalCondition(cond string, s store.Stats) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	v, ok := statField(field, s)
	if !ok {
		return false, 0
	}
	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return false, 0
	}
	return compareFloat(v, op, threshold), v
}

func statField(field string, s store.Stats) (float64, bool) {
	switch field {
	case "records":
		return float64(s.Records), true
	case "created":
		return float64(s.Created), true
	case "updated":
		return float64(s.Updated), true
	case "deleted":
		return float64(s.Deleted), true
	case "evicted":
		return float64(s.Evicted), true
	case "sweeps":
		return float64(s.Sweeps), true
	case "misses":
		return float64(s.Misses), true
	case "eviction_ratio":
		if s.Sweeps == 0 {
			return 0, true
		}
		return float64(s.Evicted) / float64(s.Sweeps), true
	default:
		return 0, false
	}
}

func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	default:
		return false
	}
}

package strategy

import "github.com/wod-wiki/engine"

func durationMs(stmt engine.CodeStatement) (int64, bool) {
	f, ok := engine.FindByType(stmt.Fragments, engine.FragmentDuration)
	if !ok {
		return 0, false
	}
	ms, ok := toMillis(f.Value)
	return ms, ok
}

func roundsTotal(stmt engine.CodeStatement) (int, bool) {
	f, ok := engine.FindByType(stmt.Fragments, engine.FragmentRounds)
	if !ok {
		return 0, false
	}
	n, ok := toInt(f.Value)
	return n, ok
}

func repWeights(stmt engine.CodeStatement) []int {
	var weights []int
	for _, f := range stmt.Fragments {
		if f.Type != engine.FragmentRep {
			continue
		}
		if n, ok := toInt(f.Value); ok {
			weights = append(weights, n)
		}
	}
	return weights
}

func labelOf(stmt engine.CodeStatement) string {
	if stmt.ExerciseName != "" {
		return stmt.ExerciseName
	}
	if f, ok := engine.FindByType(stmt.Fragments, engine.FragmentLabel); ok {
		if s, ok := f.Value.(string); ok {
			return s
		}
	}
	return stmt.ExerciseID
}

func toMillis(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

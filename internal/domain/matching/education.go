package matching

const educationOverqualifiedFloor = 70

// HighestEducation picks the record with the greatest RankScore; the first
// one wins on ties.
func HighestEducation(levels []EducationLevel) *EducationLevel {
	var best *EducationLevel
	for i := range levels {
		if best == nil || levels[i].RankScore > best.RankScore {
			best = &levels[i]
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

func IsEducationMatch(candidate, required *EducationLevel) bool {
	if required == nil {
		return true
	}
	if candidate == nil {
		return false
	}
	return candidate.RankScore >= required.RankScore
}

// EducationScore penalizes over-qualification by 10 points per rank, never
// below 70.
func EducationScore(candidate, required *EducationLevel) int {
	if required == nil {
		return 100
	}
	if candidate == nil {
		return 0
	}

	diff := candidate.RankScore - required.RankScore
	switch {
	case diff < 0:
		return 0
	case diff == 0:
		return 100
	}

	score := 100 - 10*diff
	if score < educationOverqualifiedFloor {
		return educationOverqualifiedFloor
	}
	return score
}

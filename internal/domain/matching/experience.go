package matching

func ExperienceBonus(years int) float64 {
	switch {
	case years >= 10:
		return 1.2
	case years >= 5:
		return 1.1
	case years >= 2:
		return 1.05
	default:
		return 1.0
	}
}

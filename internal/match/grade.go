package match

// GradeForScore maps a raw score to its grade letter. Thresholds are
// non-overlapping and fixed by the client's grading scale.
func GradeForScore(score int) string {
	switch {
	case score >= 1010000:
		return "INF+"
	case score >= 1000000:
		return "INF"
	case score >= 990000:
		return "AAA+"
	case score >= 980000:
		return "AAA"
	case score >= 970000:
		return "AA+"
	case score >= 950000:
		return "AA"
	case score >= 930000:
		return "A+"
	case score >= 900000:
		return "A"
	case score >= 850000:
		return "B"
	case score >= 800000:
		return "C"
	default:
		return "D"
	}
}

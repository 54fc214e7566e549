package domain

// MasteryLevel is a categorical judgment of a learner's command of a topic.
type MasteryLevel string

// Possible mastery level values, lowest first.
const (
	MasteryBeginner     MasteryLevel = "beginner"
	MasteryIntermediate MasteryLevel = "intermediate"
	MasteryAdvanced     MasteryLevel = "advanced"
	MasteryMastered     MasteryLevel = "mastered"
)

// Rank orders mastery levels from 0 (beginner) to 3 (mastered).
// Unknown levels rank as -1.
func (m MasteryLevel) Rank() int {
	switch m {
	case MasteryBeginner:
		return 0
	case MasteryIntermediate:
		return 1
	case MasteryAdvanced:
		return 2
	case MasteryMastered:
		return 3
	default:
		return -1
	}
}

// IsValid reports whether m is one of the known mastery levels.
func (m MasteryLevel) IsValid() bool {
	return m.Rank() >= 0
}

// Trend is the direction of a learner's recent performance.
type Trend string

// Possible trend values.
const (
	TrendImproving        Trend = "improving"
	TrendDeclining        Trend = "declining"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

package models

// CardinalityLevel is a coarse selectivity classification for a column.
// It is the sort key for predicate reordering: more selective columns
// (High) should be evaluated before less selective ones (Low).
type CardinalityLevel string

const (
	CardinalityHigh   CardinalityLevel = "high"
	CardinalityMedium CardinalityLevel = "medium"
	CardinalityLow    CardinalityLevel = "low"
)

// cardinalityRank maps levels onto the total order High > Medium > Low.
var cardinalityRank = map[CardinalityLevel]int{
	CardinalityHigh:   3,
	CardinalityMedium: 2,
	CardinalityLow:    1,
}

// Compare returns a negative value if l sorts before other in descending
// selectivity order (i.e. l is more selective), zero if equal, positive
// otherwise. Unknown levels rank below Low.
func (l CardinalityLevel) Compare(other CardinalityLevel) int {
	return cardinalityRank[other] - cardinalityRank[l]
}

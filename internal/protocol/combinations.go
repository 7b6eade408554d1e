// internal/protocol/combinations.go
package protocol

// Combinations is the shared, ordered score sheet. A combination index on the wire
// is a position in this list. Scoring each row is done by the clients.
var Combinations = []string{
	"Ones",
	"Twos",
	"Threes",
	"Fours",
	"Fives",
	"Sixes",
	"Three of a kind",
	"Four of a kind",
	"Full House",
	"Straight",
	"Yatzy",
}

const (
	// DiceCount is the number of dice in every roll.
	DiceCount = 5
	// MaxRollsPerTurn bounds rolls within one turn.
	MaxRollsPerTurn = 3
)

// ValidCombination reports whether idx names a row of the score sheet.
func ValidCombination(idx int) bool {
	return idx >= 0 && idx < len(Combinations)
}

// ValidDice reports whether dice is exactly DiceCount values in 1..6.
func ValidDice(dice []int) bool {
	if len(dice) != DiceCount {
		return false
	}
	for _, d := range dice {
		if d < 1 || d > 6 {
			return false
		}
	}
	return true
}

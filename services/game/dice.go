package game

import "math/rand"

// RollTwoDice is the default DiceRoller: the sum of two d6.
func RollTwoDice() int {
	return rand.Intn(6) + rand.Intn(6) + 2
}

// internal/game/rules.go
package game

import (
	"github.com/dnghia/tienlen/internal/deck"
)

// MoveKind classifies a set of cards played together.
type MoveKind int

const (
	MoveInvalid MoveKind = iota
	MoveSingle
	MovePair
	MoveTriple
	MoveQuad
	MoveStraight
)

func (k MoveKind) String() string {
	switch k {
	case MoveSingle:
		return "single"
	case MovePair:
		return "pair"
	case MoveTriple:
		return "triple"
	case MoveQuad:
		return "quad"
	case MoveStraight:
		return "straight"
	default:
		return "invalid"
	}
}

// Classify decides which combination the cards form, or MoveInvalid.
// Supported kinds are the reduced Tien Len set: singles, pairs, triples,
// quads and simple ascending straights. A straight may not run through the 2
// (rankIndex 12), which is the highest rank and never part of a run.
func Classify(cards []deck.Card) MoveKind {
	n := len(cards)
	if n == 0 {
		return MoveInvalid
	}
	if n == 1 {
		return MoveSingle
	}

	sorted := make([]deck.Card, n)
	copy(sorted, cards)
	deck.Sort(sorted)

	sameRank := true
	for _, c := range sorted[1:] {
		if c.RankIndex != sorted[0].RankIndex {
			sameRank = false
			break
		}
	}
	if sameRank {
		switch n {
		case 2:
			return MovePair
		case 3:
			return MoveTriple
		case 4:
			return MoveQuad
		}
		return MoveInvalid
	}

	if n >= 3 {
		straight := true
		for i := 0; i < n-1; i++ {
			next := sorted[i+1].RankIndex
			if next != sorted[i].RankIndex+1 || next == 12 {
				straight = false
				break
			}
		}
		if straight {
			return MoveStraight
		}
	}

	return MoveInvalid
}

// Beats reports whether challenger beats incumbent. Only same-length
// combinations compare; the stronger side is the one holding the higher
// maximum Value. Callers must have validated both sides with Classify.
func Beats(challenger, incumbent []deck.Card) bool {
	if len(challenger) != len(incumbent) {
		return false
	}
	return maxValue(challenger) > maxValue(incumbent)
}

func maxValue(cards []deck.Card) int {
	max := -1
	for _, c := range cards {
		if c.Value > max {
			max = c.Value
		}
	}
	return max
}

// internal/deck/deck.go
package deck

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/google/uuid"
)

// Ranks in Tien Len order: 3 is the lowest rank, 2 the highest.
var Ranks = []string{"3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A", "2"}

// Suits in tiebreak order: spade < club < diamond < heart.
var Suits = []string{"spade", "club", "diamond", "heart"}

// ErrInvalidDeckSize is returned by Deal when the deck cannot be split evenly
// into the requested hands.
var ErrInvalidDeckSize = errors.New("deck size does not match playerCount*handSize")

// Card is an immutable playing card. ID is the card's identity; Value is its
// position in the total strength ordering (RankIndex*4 + SuitIndex). The two
// coincide 1:1 in a single deck but are kept separate so that removal-by-identity
// never depends on the comparison key.
type Card struct {
	ID        uuid.UUID `json:"id"`
	Rank      string    `json:"rank"`
	Suit      string    `json:"suit"`
	RankIndex int       `json:"rankIndex"`
	SuitIndex int       `json:"suitIndex"`
	Value     int       `json:"value"`
}

func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// New builds the full 52-card deck, ranks ascending, suits in fixed order
// within each rank. Deterministic apart from the generated IDs.
func New() []Card {
	cards := make([]Card, 0, len(Ranks)*len(Suits))
	for r, rank := range Ranks {
		for s, suit := range Suits {
			cards = append(cards, Card{
				ID:        uuid.New(),
				Rank:      rank,
				Suit:      suit,
				RankIndex: r,
				SuitIndex: s,
				Value:     r*4 + s,
			})
		}
	}
	return cards
}

// Shuffle performs an in-place Fisher-Yates shuffle.
func Shuffle(cards []Card) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Deal splits the deck into playerCount contiguous hands of handSize each,
// sorting every hand ascending by Value.
func Deal(cards []Card, playerCount, handSize int) ([][]Card, error) {
	if len(cards) != playerCount*handSize {
		return nil, fmt.Errorf("%w: have %d cards, want %d", ErrInvalidDeckSize, len(cards), playerCount*handSize)
	}
	hands := make([][]Card, playerCount)
	for i := 0; i < playerCount; i++ {
		hand := make([]Card, handSize)
		copy(hand, cards[i*handSize:(i+1)*handSize])
		Sort(hand)
		hands[i] = hand
	}
	return hands, nil
}

// Sort orders cards ascending by Value.
func Sort(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		return cards[i].Value < cards[j].Value
	})
}

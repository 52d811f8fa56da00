package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeck(t *testing.T) {
	cards := New()
	require.Len(t, cards, 52)

	seenPair := make(map[string]bool)
	seenValue := make(map[int]bool)
	for _, c := range cards {
		key := c.Rank + "/" + c.Suit
		assert.False(t, seenPair[key], "duplicate card %s", key)
		seenPair[key] = true

		assert.Equal(t, c.RankIndex*4+c.SuitIndex, c.Value)
		assert.GreaterOrEqual(t, c.Value, 0)
		assert.Less(t, c.Value, 52)
		assert.False(t, seenValue[c.Value], "duplicate value %d", c.Value)
		seenValue[c.Value] = true
	}
}

func TestNewDeckOrdering(t *testing.T) {
	cards := New()
	// 3 of spades first, 2 of hearts last.
	assert.Equal(t, "3", cards[0].Rank)
	assert.Equal(t, "spade", cards[0].Suit)
	assert.Equal(t, 0, cards[0].Value)
	assert.Equal(t, "2", cards[51].Rank)
	assert.Equal(t, "heart", cards[51].Suit)
	assert.Equal(t, 51, cards[51].Value)
}

func TestShuffleIsPermutation(t *testing.T) {
	cards := New()
	before := make(map[int]bool, 52)
	for _, c := range cards {
		before[c.Value] = true
	}

	Shuffle(cards)

	require.Len(t, cards, 52)
	for _, c := range cards {
		assert.True(t, before[c.Value], "card %s vanished or duplicated", c)
		delete(before, c.Value)
	}
	assert.Empty(t, before)
}

func TestShuffleMovesCards(t *testing.T) {
	// Over many trials the first card should not stay the 3 of spades.
	stayed := 0
	for i := 0; i < 100; i++ {
		cards := New()
		Shuffle(cards)
		if cards[0].Value == 0 {
			stayed++
		}
	}
	// P(first card unchanged) is 1/52 per trial; 20+ in 100 would be absurd.
	assert.Less(t, stayed, 20)
}

func TestShuffleHasNoPositionalBias(t *testing.T) {
	// Track where the 3 of spades lands over many shuffles. A Fisher-Yates
	// shuffle puts it in every position with probability 1/52; a biased one
	// (the classic rand.Intn(len) mistake, or no swap at index 0) skews the
	// landing distribution heavily.
	const trials = 5200 // expected 100 hits per position
	counts := make([]int, 52)
	for i := 0; i < trials; i++ {
		cards := New()
		Shuffle(cards)
		for pos, c := range cards {
			if c.Value == 0 {
				counts[pos]++
				break
			}
		}
	}

	for pos, n := range counts {
		// 100 expected, stddev ~10; 50 would be a 5-sigma event.
		assert.Greater(t, n, 50, "position %d starved (%d hits)", pos, n)
		assert.Less(t, n, 175, "position %d favored (%d hits)", pos, n)
	}
}

func TestDeal(t *testing.T) {
	cards := New()
	Shuffle(cards)

	hands, err := Deal(cards, 4, 13)
	require.NoError(t, err)
	require.Len(t, hands, 4)

	seen := make(map[int]bool)
	for _, hand := range hands {
		require.Len(t, hand, 13)
		for i, c := range hand {
			assert.False(t, seen[c.Value], "card dealt twice")
			seen[c.Value] = true
			if i > 0 {
				assert.Greater(t, c.Value, hand[i-1].Value, "hand not sorted ascending")
			}
		}
	}
	assert.Len(t, seen, 52)
}

func TestDealWrongSize(t *testing.T) {
	cards := New()
	_, err := Deal(cards[:51], 4, 13)
	assert.ErrorIs(t, err, ErrInvalidDeckSize)

	_, err = Deal(cards, 3, 13)
	assert.ErrorIs(t, err, ErrInvalidDeckSize)
}

package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhbtk/webtarot/internal/domain"
)

func cardCounts(cards []domain.Card) map[domain.Arcana]int {
	counts := make(map[domain.Arcana]int)
	for _, c := range cards {
		counts[c.Arcana]++
	}
	return counts
}

func TestNewDeck(t *testing.T) {
	t.Parallel()

	deck := domain.NewDeck()
	require.Len(t, deck.Cards, domain.DeckSize)

	// 22 majors first, in order, all upright
	for i, name := range domain.MajorArcanaOrder {
		assert.Equal(t, domain.Major(name), deck.Cards[i].Arcana)
		assert.False(t, deck.Cards[i].Flipped)
	}

	// then each suit's fourteen ranks
	i := len(domain.MajorArcanaOrder)
	for _, suit := range domain.SuitOrder {
		for _, rank := range domain.RankOrder {
			assert.Equal(t, domain.Minor(rank, suit), deck.Cards[i].Arcana)
			assert.False(t, deck.Cards[i].Flipped)
			i++
		}
	}

	// every card distinct
	counts := cardCounts(deck.Cards)
	assert.Len(t, counts, domain.DeckSize)

	// two fresh decks are identical
	assert.Equal(t, deck.Cards, domain.NewDeck().Cards)
}

func TestDeckShuffle(t *testing.T) {
	t.Parallel()

	t.Run("preserves the multiset of cards", func(t *testing.T) {
		t.Parallel()
		deck := domain.NewDeck()
		rounds := deck.Shuffle("what does tomorrow hold?")

		assert.GreaterOrEqual(t, rounds, 0)
		assert.Less(t, rounds, domain.MaxShuffles)
		require.Len(t, deck.Cards, domain.DeckSize)
		assert.Equal(t, cardCounts(domain.NewDeck().Cards), cardCounts(deck.Cards))
	})

	t.Run("round count stays within bounds across questions", func(t *testing.T) {
		t.Parallel()
		questions := []string{"", "love", "work", "a much longer question about the future"}
		for _, q := range questions {
			deck := domain.NewDeck()
			rounds := deck.Shuffle(q)
			assert.GreaterOrEqual(t, rounds, 0, "question %q", q)
			assert.Less(t, rounds, domain.MaxShuffles, "question %q", q)
		}
	})
}

func TestDeckDraw(t *testing.T) {
	t.Parallel()

	t.Run("returns the requested number of distinct cards", func(t *testing.T) {
		t.Parallel()
		for count := 0; count <= domain.MaxDraws; count++ {
			deck := domain.NewDeck()
			deck.Shuffle("question")

			cards, err := deck.Draw(count)
			require.NoError(t, err, "count %d", count)
			require.Len(t, cards, count, "count %d", count)

			counts := cardCounts(cards)
			assert.Len(t, counts, count, "count %d: draws must be distinct", count)
		}
	})

	t.Run("drawn cards keep their relative deck order", func(t *testing.T) {
		t.Parallel()
		deck := domain.NewDeck()
		pos := make(map[domain.Arcana]int, domain.DeckSize)
		for i, c := range deck.Cards {
			pos[c.Arcana] = i
		}

		cards, err := deck.Draw(5)
		require.NoError(t, err)
		for i := 1; i < len(cards); i++ {
			assert.Less(t, pos[cards[i-1].Arcana], pos[cards[i].Arcana])
		}
	})

	t.Run("rejects out of range counts", func(t *testing.T) {
		t.Parallel()
		deck := domain.NewDeck()

		_, err := deck.Draw(-1)
		assert.ErrorIs(t, err, domain.ErrDrawCountRange)

		_, err = deck.Draw(domain.MaxDraws + 1)
		assert.ErrorIs(t, err, domain.ErrDrawCountRange)
	})

	t.Run("does not modify the deck", func(t *testing.T) {
		t.Parallel()
		deck := domain.NewDeck()
		before := make([]domain.Card, len(deck.Cards))
		copy(before, deck.Cards)

		_, err := deck.Draw(domain.MaxDraws)
		require.NoError(t, err)
		assert.Equal(t, before, deck.Cards)
	})
}

func TestArcanaJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		arcana domain.Arcana
		want   string
	}{
		{
			name:   "major arcana",
			arcana: domain.Major(domain.MajorWheelOfFortune),
			want:   `{"major":{"name":"wheelOfFortune"}}`,
		},
		{
			name:   "minor arcana",
			arcana: domain.Minor(domain.RankAce, domain.SuitCups),
			want:   `{"minor":{"rank":"ace","suit":"cups"}}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			data, err := json.Marshal(tc.arcana)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(data))

			var back domain.Arcana
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tc.arcana, back)
		})
	}

	t.Run("rejects untagged arcana", func(t *testing.T) {
		t.Parallel()
		var a domain.Arcana
		err := json.Unmarshal([]byte(`{}`), &a)
		assert.Error(t, err)
	})
}

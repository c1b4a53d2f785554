package domain

import "sort"

// ArcanaStat summarizes how often a single card came up across all readings.
type ArcanaStat struct {
	Arcana            Arcana  `json:"arcana"`
	Drawn             int     `json:"drawn"`
	Flipped           int     `json:"flipped"`
	DrawnPercentage   float64 `json:"drawnPercentage"`
	FlippedPercentage float64 `json:"flippedPercentage"`
}

// Stats aggregates draw frequencies across a set of readings.
type Stats struct {
	TotalReadings   int          `json:"totalReadings"`
	TotalCardsDrawn int          `json:"totalCardsDrawn"`
	Cards           []ArcanaStat `json:"cards"`
	NeverDrawn      []Arcana     `json:"neverDrawn"`
}

// CalculateStats tallies per-card draw and reversal counts over the given
// readings. Cards are ordered most-drawn first, ties broken by canonical
// deck order. NeverDrawn lists, in canonical order, every card of the deck
// that no reading ever produced.
func CalculateStats(readings []Reading) Stats {
	canonical := NewDeck().Cards
	position := make(map[Arcana]int, len(canonical))
	for i, c := range canonical {
		position[c.Arcana] = i
	}

	drawn := make(map[Arcana]int)
	flipped := make(map[Arcana]int)
	total := 0
	for _, r := range readings {
		for _, c := range r.Cards {
			drawn[c.Arcana]++
			if c.Flipped {
				flipped[c.Arcana]++
			}
			total++
		}
	}

	cards := make([]ArcanaStat, 0, len(drawn))
	for arcana, count := range drawn {
		stat := ArcanaStat{
			Arcana:  arcana,
			Drawn:   count,
			Flipped: flipped[arcana],
		}
		if total > 0 {
			stat.DrawnPercentage = float64(count) / float64(total) * 100
		}
		if count > 0 {
			stat.FlippedPercentage = float64(stat.Flipped) / float64(count) * 100
		}
		cards = append(cards, stat)
	}
	sort.Slice(cards, func(a, b int) bool {
		if cards[a].Drawn != cards[b].Drawn {
			return cards[a].Drawn > cards[b].Drawn
		}
		return position[cards[a].Arcana] < position[cards[b].Arcana]
	})

	never := make([]Arcana, 0)
	for _, c := range canonical {
		if drawn[c.Arcana] == 0 {
			never = append(never, c.Arcana)
		}
	}

	return Stats{
		TotalReadings:   len(readings),
		TotalCardsDrawn: total,
		Cards:           cards,
		NeverDrawn:      never,
	}
}

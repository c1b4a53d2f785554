package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
)

// Deck mechanics constants. MaxShuffles bounds the number of shuffle rounds
// applied to a deck; MaxDraws bounds how many cards a single draw may take
// and is also the minimum length of each of the three cut slices, so a draw
// of up to MaxDraws cards always succeeds.
const (
	MaxShuffles = 7033
	MaxDraws    = 13
	DeckSize    = 78
)

// ErrDrawCountRange is returned when a draw asks for a negative number of
// cards or for more than MaxDraws.
var ErrDrawCountRange = errors.New("draw count must be between 0 and 13")

// MajorArcana identifies one of the 22 major arcana cards.
type MajorArcana string

// Major arcana in canonical deck order.
const (
	MajorFool           MajorArcana = "fool"
	MajorMagician       MajorArcana = "magician"
	MajorHighPriestess  MajorArcana = "highPriestess"
	MajorEmpress        MajorArcana = "empress"
	MajorEmperor        MajorArcana = "emperor"
	MajorHierophant     MajorArcana = "hierophant"
	MajorLovers         MajorArcana = "lovers"
	MajorChariot        MajorArcana = "chariot"
	MajorStrength       MajorArcana = "strength"
	MajorHermit         MajorArcana = "hermit"
	MajorWheelOfFortune MajorArcana = "wheelOfFortune"
	MajorJustice        MajorArcana = "justice"
	MajorHangedMan      MajorArcana = "hangedMan"
	MajorDeath          MajorArcana = "death"
	MajorTemperance     MajorArcana = "temperance"
	MajorDevil          MajorArcana = "devil"
	MajorTower          MajorArcana = "tower"
	MajorStar           MajorArcana = "star"
	MajorMoon           MajorArcana = "moon"
	MajorSun            MajorArcana = "sun"
	MajorJudgement      MajorArcana = "judgement"
	MajorWorld          MajorArcana = "world"
)

// MajorArcanaOrder lists the major arcana in canonical deck order.
var MajorArcanaOrder = []MajorArcana{
	MajorFool, MajorMagician, MajorHighPriestess, MajorEmpress, MajorEmperor,
	MajorHierophant, MajorLovers, MajorChariot, MajorStrength, MajorHermit,
	MajorWheelOfFortune, MajorJustice, MajorHangedMan, MajorDeath,
	MajorTemperance, MajorDevil, MajorTower, MajorStar, MajorMoon, MajorSun,
	MajorJudgement, MajorWorld,
}

// Suit identifies one of the four minor arcana suits.
type Suit string

// Minor arcana suits in canonical deck order.
const (
	SuitCups      Suit = "cups"
	SuitPentacles Suit = "pentacles"
	SuitSwords    Suit = "swords"
	SuitWands     Suit = "wands"
)

// SuitOrder lists the suits in canonical deck order.
var SuitOrder = []Suit{SuitCups, SuitPentacles, SuitSwords, SuitWands}

// Rank identifies one of the fourteen ranks of a minor arcana suit.
type Rank string

// Minor arcana ranks in canonical deck order.
const (
	RankAce    Rank = "ace"
	RankTwo    Rank = "two"
	RankThree  Rank = "three"
	RankFour   Rank = "four"
	RankFive   Rank = "five"
	RankSix    Rank = "six"
	RankSeven  Rank = "seven"
	RankEight  Rank = "eight"
	RankNine   Rank = "nine"
	RankTen    Rank = "ten"
	RankPage   Rank = "page"
	RankKnight Rank = "knight"
	RankQueen  Rank = "queen"
	RankKing   Rank = "king"
)

// RankOrder lists the ranks in canonical deck order.
var RankOrder = []Rank{
	RankAce, RankTwo, RankThree, RankFour, RankFive, RankSix, RankSeven,
	RankEight, RankNine, RankTen, RankPage, RankKnight, RankQueen, RankKing,
}

// Arcana identifies a single tarot card: either a major arcana (Name set)
// or a minor arcana (Rank and Suit set). The zero distinction makes the
// value comparable, so it can serve as a map key for statistics.
type Arcana struct {
	Name MajorArcana
	Rank Rank
	Suit Suit
}

// Major returns the Arcana for a major arcana card.
func Major(name MajorArcana) Arcana {
	return Arcana{Name: name}
}

// Minor returns the Arcana for a minor arcana card.
func Minor(rank Rank, suit Suit) Arcana {
	return Arcana{Rank: rank, Suit: suit}
}

// IsMajor reports whether the arcana belongs to the major arcana.
func (a Arcana) IsMajor() bool {
	return a.Name != ""
}

type majorJSON struct {
	Name MajorArcana `json:"name"`
}

type minorJSON struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

type arcanaJSON struct {
	Major *majorJSON `json:"major,omitempty"`
	Minor *minorJSON `json:"minor,omitempty"`
}

// MarshalJSON encodes the arcana in its tagged wire form, either
// {"major":{"name":...}} or {"minor":{"rank":...,"suit":...}}.
func (a Arcana) MarshalJSON() ([]byte, error) {
	if a.IsMajor() {
		return json.Marshal(arcanaJSON{Major: &majorJSON{Name: a.Name}})
	}
	return json.Marshal(arcanaJSON{Minor: &minorJSON{Rank: a.Rank, Suit: a.Suit}})
}

// UnmarshalJSON decodes the tagged wire form produced by MarshalJSON.
func (a *Arcana) UnmarshalJSON(data []byte) error {
	var wire arcanaJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch {
	case wire.Major != nil:
		*a = Major(wire.Major.Name)
	case wire.Minor != nil:
		*a = Minor(wire.Minor.Rank, wire.Minor.Suit)
	default:
		return fmt.Errorf("arcana must be tagged major or minor")
	}
	return nil
}

// Card is a single card as it sits in a deck or a reading. Flipped marks a
// reversed card.
type Card struct {
	Arcana  Arcana `json:"arcana"`
	Flipped bool   `json:"flipped"`
}

// Deck is an ordered collection of cards with orientation state.
type Deck struct {
	Cards []Card
}

// NewDeck builds the canonical 78-card deck: the 22 major arcana in order,
// followed by each suit's fourteen ranks, all upright. Two fresh decks are
// always identical.
func NewDeck() *Deck {
	cards := make([]Card, 0, DeckSize)
	for _, name := range MajorArcanaOrder {
		cards = append(cards, Card{Arcana: Major(name)})
	}
	for _, suit := range SuitOrder {
		for _, rank := range RankOrder {
			cards = append(cards, Card{Arcana: Minor(rank, suit)})
		}
	}
	return &Deck{Cards: cards}
}

// questionSeed derives the question's stable contribution to the shuffle
// count. Equal questions always contribute the same component.
func questionSeed(question string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(question))
	return h.Sum32() % MaxShuffles
}

// Shuffle reorders the deck in place. The number of rounds mixes a stable
// hash of the question with a random component, each reduced modulo
// MaxShuffles, so the count lands in [0, MaxShuffles). Each round permutes
// the whole deck and gives every card an independent 50% chance of having
// its orientation toggled. Returns the number of rounds applied.
func (d *Deck) Shuffle(question string) int {
	rounds := int((questionSeed(question) + rand.Uint32()%MaxShuffles) % MaxShuffles)
	for i := 0; i < rounds; i++ {
		rand.Shuffle(len(d.Cards), func(a, b int) {
			d.Cards[a], d.Cards[b] = d.Cards[b], d.Cards[a]
		})
		for j := range d.Cards {
			if rand.Intn(2) == 1 {
				d.Cards[j].Flipped = !d.Cards[j].Flipped
			}
		}
	}
	return rounds
}

// Draw takes count cards from the deck without replacement. The deck is cut
// into three contiguous slices, each at least MaxDraws cards long, one slice
// is chosen uniformly, and count distinct positions are sampled from it via
// a partial Fisher-Yates pass. Drawn cards keep the relative order they had
// in the slice. The deck itself is not modified.
func (d *Deck) Draw(count int) ([]Card, error) {
	if count < 0 || count > MaxDraws {
		return nil, ErrDrawCountRange
	}
	if count == 0 {
		return []Card{}, nil
	}

	// Two cut points leave every slice with at least MaxDraws cards.
	second := MaxDraws + rand.Intn(DeckSize-3*MaxDraws)
	third := second + MaxDraws + rand.Intn(DeckSize-MaxDraws-(second+MaxDraws))

	var slice []Card
	switch rand.Intn(3) {
	case 0:
		slice = d.Cards[:second]
	case 1:
		slice = d.Cards[second:third]
	default:
		slice = d.Cards[third:]
	}

	indexes := make([]int, len(slice))
	for i := range indexes {
		indexes[i] = i
	}
	for i := 0; i < count; i++ {
		j := i + rand.Intn(len(indexes)-i)
		indexes[i], indexes[j] = indexes[j], indexes[i]
	}
	picked := indexes[:count]
	sort.Ints(picked)

	drawn := make([]Card, count)
	for i, idx := range picked {
		drawn[i] = slice[idx]
	}
	return drawn, nil
}

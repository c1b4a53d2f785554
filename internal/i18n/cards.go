package i18n

import (
	"fmt"

	"github.com/dhbtk/webtarot/internal/domain"
)

var majorNames = map[Locale]map[domain.MajorArcana]string{
	LocalePT: {
		domain.MajorFool:           "O Louco",
		domain.MajorMagician:       "O Mago",
		domain.MajorHighPriestess:  "A Sacerdotisa",
		domain.MajorEmpress:        "A Imperatriz",
		domain.MajorEmperor:        "O Imperador",
		domain.MajorHierophant:     "O Hierofante",
		domain.MajorLovers:         "Os Enamorados",
		domain.MajorChariot:        "O Carro",
		domain.MajorStrength:       "A Força",
		domain.MajorHermit:         "O Eremita",
		domain.MajorWheelOfFortune: "A Roda da Fortuna",
		domain.MajorJustice:        "A Justiça",
		domain.MajorHangedMan:      "O Enforcado",
		domain.MajorDeath:          "A Morte",
		domain.MajorTemperance:     "A Temperança",
		domain.MajorDevil:          "O Diabo",
		domain.MajorTower:          "A Torre",
		domain.MajorStar:           "A Estrela",
		domain.MajorMoon:           "A Lua",
		domain.MajorSun:            "O Sol",
		domain.MajorJudgement:      "O Julgamento",
		domain.MajorWorld:          "O Mundo",
	},
	LocaleEN: {
		domain.MajorFool:           "The Fool",
		domain.MajorMagician:       "The Magician",
		domain.MajorHighPriestess:  "The High Priestess",
		domain.MajorEmpress:        "The Empress",
		domain.MajorEmperor:        "The Emperor",
		domain.MajorHierophant:     "The Hierophant",
		domain.MajorLovers:         "The Lovers",
		domain.MajorChariot:        "The Chariot",
		domain.MajorStrength:       "Strength",
		domain.MajorHermit:         "The Hermit",
		domain.MajorWheelOfFortune: "Wheel of Fortune",
		domain.MajorJustice:        "Justice",
		domain.MajorHangedMan:      "The Hanged Man",
		domain.MajorDeath:          "Death",
		domain.MajorTemperance:     "Temperance",
		domain.MajorDevil:          "The Devil",
		domain.MajorTower:          "The Tower",
		domain.MajorStar:           "The Star",
		domain.MajorMoon:           "The Moon",
		domain.MajorSun:            "The Sun",
		domain.MajorJudgement:      "Judgement",
		domain.MajorWorld:          "The World",
	},
}

var rankNames = map[Locale]map[domain.Rank]string{
	LocalePT: {
		domain.RankAce:    "Ás",
		domain.RankTwo:    "Dois",
		domain.RankThree:  "Três",
		domain.RankFour:   "Quatro",
		domain.RankFive:   "Cinco",
		domain.RankSix:    "Seis",
		domain.RankSeven:  "Sete",
		domain.RankEight:  "Oito",
		domain.RankNine:   "Nove",
		domain.RankTen:    "Dez",
		domain.RankPage:   "Valete",
		domain.RankKnight: "Cavaleiro",
		domain.RankQueen:  "Rainha",
		domain.RankKing:   "Rei",
	},
	LocaleEN: {
		domain.RankAce:    "Ace",
		domain.RankTwo:    "Two",
		domain.RankThree:  "Three",
		domain.RankFour:   "Four",
		domain.RankFive:   "Five",
		domain.RankSix:    "Six",
		domain.RankSeven:  "Seven",
		domain.RankEight:  "Eight",
		domain.RankNine:   "Nine",
		domain.RankTen:    "Ten",
		domain.RankPage:   "Page",
		domain.RankKnight: "Knight",
		domain.RankQueen:  "Queen",
		domain.RankKing:   "King",
	},
}

var suitNames = map[Locale]map[domain.Suit]string{
	LocalePT: {
		domain.SuitCups:      "Copas",
		domain.SuitPentacles: "Ouros",
		domain.SuitSwords:    "Espadas",
		domain.SuitWands:     "Paus",
	},
	LocaleEN: {
		domain.SuitCups:      "Cups",
		domain.SuitPentacles: "Pentacles",
		domain.SuitSwords:    "Swords",
		domain.SuitWands:     "Wands",
	},
}

var minorFormat = map[Locale]string{
	LocalePT: "%s de %s",
	LocaleEN: "%s of %s",
}

var reversedSuffix = map[Locale]string{
	LocalePT: " (invertida)",
	LocaleEN: " (reversed)",
}

// CardName renders a card the way a reader would say it aloud in the given
// locale, appending the reversed marker for flipped cards. These names feed
// the interpretation prompt.
func CardName(l Locale, card domain.Card) string {
	if !l.IsValid() {
		l = DefaultLocale
	}

	var name string
	if card.Arcana.IsMajor() {
		name = majorNames[l][card.Arcana.Name]
	} else {
		name = fmt.Sprintf(
			minorFormat[l],
			rankNames[l][card.Arcana.Rank],
			suitNames[l][card.Arcana.Suit],
		)
	}

	if card.Flipped {
		name += reversedSuffix[l]
	}
	return name
}

// CardNames renders every card of a spread in order.
func CardNames(l Locale, cards []domain.Card) []string {
	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = CardName(l, c)
	}
	return names
}

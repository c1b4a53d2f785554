// Package i18n holds the localized strings shown to querents: failure
// messages on interpretations and the card names woven into language model
// prompts. Locales are passed explicitly through call chains rather than
// stored in any ambient state, so the locale seen at request time is the one
// applied when a background interpretation fails minutes later.
package i18n

import (
	"golang.org/x/text/language"
)

// Locale identifies a supported UI language.
type Locale string

// Supported locales. Portuguese is the default for historical reasons: it
// was the product's launch language.
const (
	LocalePT Locale = "pt"
	LocaleEN Locale = "en"

	DefaultLocale = LocalePT
)

var supported = []language.Tag{
	language.Portuguese, // index 0 must stay the default
	language.English,
}

var matcher = language.NewMatcher(supported)

// Negotiate picks the best supported locale from the X-Locale header value
// and the Accept-Language header value, in that order of preference. Empty
// or unparseable values fall through; no match at all yields the default.
func Negotiate(xLocale, acceptLanguage string) Locale {
	for _, raw := range []string{xLocale, acceptLanguage} {
		if raw == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(raw)
		if err != nil || len(tags) == 0 {
			continue
		}
		_, idx, conf := matcher.Match(tags...)
		if conf == language.No {
			continue
		}
		if supported[idx] == language.English {
			return LocaleEN
		}
		return LocalePT
	}
	return DefaultLocale
}

// IsValid reports whether the locale is one the catalog knows.
func (l Locale) IsValid() bool {
	return l == LocalePT || l == LocaleEN
}

var messages = map[Locale]map[string]string{
	LocalePT: {
		"interpretation.not_found":  "Interpretação não encontrada.",
		"explain.missing_api_key":   "O serviço de interpretação não está configurado. Tente novamente mais tarde.",
		"explain.request_failed":    "Não foi possível falar com o oráculo. Tente novamente mais tarde.",
		"explain.api_error":         "O oráculo devolveu um erro. Tente novamente mais tarde.",
		"explain.empty_response":    "O oráculo ficou em silêncio. Tente novamente mais tarde.",
		"explain.unknown_backend":   "Método de interpretação desconhecido.",
		"explain.unexpected_error":  "Algo deu errado ao interpretar a sua tiragem. Tente novamente mais tarde.",
		"prompt.system":             "Você é uma tarologa experiente e acolhedora. Interprete a tiragem de tarô a seguir em português, relacionando as cartas entre si e com a pergunta feita. Seja direta, mas gentil.",
		"prompt.now":                "Data e hora atuais:",
		"prompt.question":           "Pergunta:",
		"prompt.context":            "Contexto adicional:",
		"prompt.user_name":          "Nome de quem pergunta:",
		"prompt.self_description":   "Como a pessoa se descreve:",
		"prompt.cards_in_order":     "Cartas tiradas, em ordem:",
	},
	LocaleEN: {
		"interpretation.not_found":  "Interpretation not found.",
		"explain.missing_api_key":   "The interpretation service is not configured. Please try again later.",
		"explain.request_failed":    "Could not reach the oracle. Please try again later.",
		"explain.api_error":         "The oracle returned an error. Please try again later.",
		"explain.empty_response":    "The oracle stayed silent. Please try again later.",
		"explain.unknown_backend":   "Unknown interpretation method.",
		"explain.unexpected_error":  "Something went wrong interpreting your spread. Please try again later.",
		"prompt.system":             "You are an experienced, welcoming tarot reader. Interpret the following tarot spread in English, relating the cards to each other and to the question asked. Be direct, but kind.",
		"prompt.now":                "Current date and time:",
		"prompt.question":           "Question:",
		"prompt.context":            "Additional context:",
		"prompt.user_name":          "Name of the querent:",
		"prompt.self_description":   "How the querent describes themselves:",
		"prompt.cards_in_order":     "Cards drawn, in order:",
	},
}

// T returns the message for key in the given locale. Unknown locales fall
// back to the default locale; unknown keys return the key itself so a
// missing entry is visible instead of silent.
func T(l Locale, key string) string {
	if catalog, ok := messages[l]; ok {
		if msg, ok := catalog[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

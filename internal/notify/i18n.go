package notify

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var supportedTags = []language.Tag{
	language.English,
	language.French,
	language.Spanish,
}

var tagMatcher = language.NewMatcher(supportedTags)

// ResolveTag picks a supported language from an explicit choice, falling back
// to an Accept-Language header and finally English.
func ResolveTag(lang, acceptLanguage string) language.Tag {
	if lang = strings.TrimSpace(lang); lang != "" {
		if tag, err := language.Parse(lang); err == nil {
			return match(tag)
		}
	}
	if accept := strings.TrimSpace(acceptLanguage); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			return match(tags...)
		}
	}
	return language.English
}

func match(tags ...language.Tag) language.Tag {
	_, idx, _ := tagMatcher.Match(tags...)
	return supportedTags[idx]
}

func init() {
	catalog := map[language.Tag][][2]string{
		language.English: {
			{"mail.subject", "Secret Santa: %s"},
			{"mail.greeting", "Ho ho ho %s!"},
			{"mail.assignment", "You are the Secret Santa for: %s!"},
			{"mail.event", "Event: %s"},
			{"mail.date", "Date: %s"},
			{"mail.budget", "Budget: %s"},
			{"mail.wishlist", "They wished for: %s"},
		},
		language.French: {
			{"mail.subject", "Père Noël secret : %s"},
			{"mail.greeting", "Ho ho ho %s !"},
			{"mail.assignment", "Tu es le Père Noël secret de : %s !"},
			{"mail.event", "Événement : %s"},
			{"mail.date", "Date : %s"},
			{"mail.budget", "Budget : %s"},
			{"mail.wishlist", "Sa liste de souhaits : %s"},
		},
		language.Spanish: {
			{"mail.subject", "Amigo invisible: %s"},
			{"mail.greeting", "¡Jo jo jo %s!"},
			{"mail.assignment", "¡Eres el amigo invisible de: %s!"},
			{"mail.event", "Evento: %s"},
			{"mail.date", "Fecha: %s"},
			{"mail.budget", "Presupuesto: %s"},
			{"mail.wishlist", "Su lista de deseos: %s"},
		},
	}
	for tag, entries := range catalog {
		for _, e := range entries {
			message.SetString(tag, e[0], e[1])
		}
	}
}

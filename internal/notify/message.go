package notify

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"santa/internal/models"
)

// Message is the assignment notice for one giver.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"-"`
}

// Compose builds the assignment notice for pairing in the given language.
// The organizer's message is treated as Markdown in the HTML body.
func Compose(tag language.Tag, details models.EventDetails, pairing models.Pairing) (Message, error) {
	p := message.NewPrinter(tag)

	lines := []string{
		p.Sprintf("mail.greeting", pairing.Giver.Name),
		"",
		p.Sprintf("mail.assignment", pairing.Receiver.Name),
		"",
		p.Sprintf("mail.event", details.EventName),
		p.Sprintf("mail.date", details.ExchangeDate),
		p.Sprintf("mail.budget", details.Budget),
	}
	if pairing.Receiver.Wishlist != "" {
		lines = append(lines, "", p.Sprintf("mail.wishlist", pairing.Receiver.Wishlist))
	}

	text := strings.Join(lines, "\n")
	if details.Message != "" {
		text += "\n\n" + details.Message
	}

	var body bytes.Buffer
	for _, line := range lines {
		if line == "" {
			continue
		}
		body.WriteString("<p>" + html.EscapeString(line) + "</p>\n")
	}
	if details.Message != "" {
		if err := goldmark.Convert([]byte(details.Message), &body); err != nil {
			return Message{}, fmt.Errorf("render organizer message: %w", err)
		}
	}

	return Message{
		To:      pairing.Giver.Email,
		Subject: p.Sprintf("mail.subject", details.EventName),
		Text:    text,
		HTML:    body.String(),
	}, nil
}

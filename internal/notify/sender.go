// Package notify composes and delivers the private assignment notices.
package notify

import (
	"context"
	"time"
)

// SendRequest is one outgoing email.
type SendRequest struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// SendResult identifies a delivered email.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers emails. Results are returned in request order.
type Sender interface {
	SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error)
}

// Request turns a composed message into a send request.
func (m Message) Request(replyTo string) SendRequest {
	return SendRequest{
		To:      []string{m.To},
		ReplyTo: replyTo,
		Subject: m.Subject,
		Text:    m.Text,
		HTML:    m.HTML,
	}
}

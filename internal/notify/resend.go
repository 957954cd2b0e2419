package notify

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/logger"
	"github.com/resend/resend-go/v2"
)

// resendBatchSize is the most emails the Resend batch API accepts per call.
const resendBatchSize = 100

// ResendSender delivers assignment emails through Resend.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender returns a sender using apiKey. from is used for requests
// that carry no sender of their own.
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

func (s *ResendSender) email(req SendRequest) *resend.SendEmailRequest {
	return &resend.SendEmailRequest{
		From:    cmp.Or(req.From, s.from),
		To:      req.To,
		ReplyTo: req.ReplyTo,
		Subject: req.Subject,
		Html:    req.HTML,
		Text:    req.Text,
	}
}

// SendBatch sends reqs in chunks through the batch endpoint. On failure the
// results of the chunks already accepted are returned with the error.
func (s *ResendSender) SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error) {
	results := make([]SendResult, 0, len(reqs))
	for chunk := range slices.Chunk(reqs, resendBatchSize) {
		emails := make([]*resend.SendEmailRequest, len(chunk))
		for i, req := range chunk {
			emails[i] = s.email(req)
		}

		resp, err := s.client.Batch.SendWithContext(ctx, emails)
		if err != nil {
			return results, fmt.Errorf("resend: %d of %d emails sent: %w", len(results), len(reqs), err)
		}
		sentAt := time.Now()
		for _, sent := range resp.Data {
			results = append(results, SendResult{MessageID: sent.Id, SentAt: sentAt})
		}
	}

	if len(reqs) > 0 {
		logger.Infof("Resend accepted %d of %d emails", len(results), len(reqs))
	}
	return results, nil
}

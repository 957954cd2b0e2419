package notify

import (
	"context"
	"time"

	"github.com/google/logger"
	"github.com/google/uuid"
)

// NoopSender logs instead of sending. Used when no mail provider is configured.
type NoopSender struct{}

func (NoopSender) SendBatch(_ context.Context, reqs []SendRequest) ([]SendResult, error) {
	results := make([]SendResult, 0, len(reqs))
	for _, req := range reqs {
		logger.Infof("Mail disabled, not sending %q to %v", req.Subject, req.To)
		results = append(results, SendResult{MessageID: "noop-" + uuid.NewString(), SentAt: time.Now()})
	}
	return results, nil
}

package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/logger"

	"santa/internal/models"
)

// ParseParticipantsCSV reads "name,email[,group]" rows. Rows without a name
// or an email are skipped; the returned participants carry no id.
func ParseParticipantsCSV(r io.Reader) ([]models.Participant, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var participants []models.Participant
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				logger.Infof("Skipping unreadable participant CSV line %d: %v", parseErr.Line, parseErr.Err)
				continue
			}
			return nil, fmt.Errorf("read participant csv: %w", err)
		}

		if len(record) < 2 {
			logger.Infof("Skipping malformed participant CSV record: %v", record)
			continue
		}

		name := strings.TrimSpace(strings.TrimPrefix(record[0], "\ufeff"))
		email := strings.TrimSpace(record[1])
		if name == "" || email == "" {
			continue
		}

		p := models.Participant{Name: name, Email: email}
		if len(record) > 2 {
			p.Group = strings.TrimSpace(record[2])
		}
		participants = append(participants, p)
	}

	return participants, nil
}

// WritePairingsCSV writes the organizer's master list. A UTF-8 BOM is written
// first so spreadsheet tools pick the right encoding.
func WritePairingsCSV(w io.Writer, pairings []models.Pairing) error {
	if _, err := w.Write([]byte("\xef\xbb\xbf")); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"giver_name", "giver_email", "receiver_name", "receiver_email", "receiver_wishlist"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range pairings {
		row := []string{p.Giver.Name, p.Giver.Email, p.Receiver.Name, p.Receiver.Email, p.Receiver.Wishlist}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()

	return cw.Error()
}

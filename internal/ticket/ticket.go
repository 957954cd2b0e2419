// Package ticket turns a participant's join form into a copy-pasteable code
// and back. A code is the standard base64 encoding of the form's JSON.
package ticket

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"santa/internal/models"
)

// ErrInvalidTicket is returned for codes that do not decode to a usable form.
var ErrInvalidTicket = errors.New("invalid ticket code")

// Encode serializes a join form into a ticket code.
func Encode(data models.TicketData) (string, error) {
	if strings.TrimSpace(data.Name) == "" || strings.TrimSpace(data.Email) == "" {
		return "", fmt.Errorf("%w: name and email are required", ErrInvalidTicket)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("ticket: marshal: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decode parses a ticket code produced by Encode.
func Decode(code string) (models.TicketData, error) {
	var data models.TicketData

	code = strings.Join(strings.Fields(code), "")
	if code == "" {
		return data, ErrInvalidTicket
	}

	raw, err := base64.StdEncoding.DecodeString(code)
	if err != nil {
		// Codes pasted from chat clients sometimes lose their padding.
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(code, "="))
		if err != nil {
			return data, fmt.Errorf("%w: %v", ErrInvalidTicket, err)
		}
	}

	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}
	if strings.TrimSpace(data.Name) == "" || strings.TrimSpace(data.Email) == "" {
		return data, fmt.Errorf("%w: name and email are required", ErrInvalidTicket)
	}

	return data, nil
}

package services

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"santa/internal/models"
)

func TestParseParticipantsCSV(t *testing.T) {
	input := "\ufeffAlice, alice@example.com, Smiths\r\n" +
		"Bob,bob@example.com\n" +
		"\n" +
		"lonely-name-only\n" +
		" , nobody@example.com\n" +
		"Carol,carol@example.com, ,extra\n"

	got, err := ParseParticipantsCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []models.Participant{
		{Name: "Alice", Email: "alice@example.com", Group: "Smiths"},
		{Name: "Bob", Email: "bob@example.com"},
		{Name: "Carol", Email: "carol@example.com"},
	}, got)
}

func TestParseParticipantsCSV_Empty(t *testing.T) {
	got, err := ParseParticipantsCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWritePairingsCSV(t *testing.T) {
	a := models.Participant{ID: "1", Name: "Alice", Email: "alice@example.com"}
	b := models.Participant{ID: "2", Name: "Bob", Email: "bob@example.com", Wishlist: "socks"}

	var buf bytes.Buffer
	require.NoError(t, WritePairingsCSV(&buf, []models.Pairing{{Giver: a, Receiver: b}, {Giver: b, Receiver: a}}))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\xef\xbb\xbf"))

	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, "\xef\xbb\xbf"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Alice", "alice@example.com", "Bob", "bob@example.com", "socks"}, rows[1])
	assert.Equal(t, []string{"Bob", "bob@example.com", "Alice", "alice@example.com", ""}, rows[2])
}

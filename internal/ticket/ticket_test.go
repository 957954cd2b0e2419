package ticket

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"santa/internal/models"
)

func TestEncodeDecode(t *testing.T) {
	form := models.TicketData{Name: "Zoë Noël", Email: "zoe@example.com", Department: "Tech", Wishlist: "Livres, chocolat"}

	code, err := Encode(form)
	require.NoError(t, err)
	assert.NotContains(t, code, "Zoë")

	got, err := Decode(code)
	require.NoError(t, err)
	assert.Equal(t, form, got)
}

func TestDecode_BrowserCode(t *testing.T) {
	// What the join page produces for {"n":"Jane","e":"jane@example.com","d":"","w":""}.
	code := base64.StdEncoding.EncodeToString([]byte(`{"n":"Jane","e":"jane@example.com","d":"","w":""}`))

	got, err := Decode("  " + code + "\n")
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.Name)
	assert.Equal(t, "jane@example.com", got.Email)
	assert.Empty(t, got.Group)
}

func TestDecode_MissingPadding(t *testing.T) {
	code, err := Encode(models.TicketData{Name: "Al", Email: "a@b.c"})
	require.NoError(t, err)

	got, err := Decode(strings.TrimRight(code, "="))
	require.NoError(t, err)
	assert.Equal(t, "Al", got.Name)
}

func TestDecode_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty":         "   ",
		"not base64":    "%%%not-a-ticket%%%",
		"not json":      base64.StdEncoding.EncodeToString([]byte("hello")),
		"missing email": base64.StdEncoding.EncodeToString([]byte(`{"n":"Jane"}`)),
	}

	for name, code := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(code)
			assert.ErrorIs(t, err, ErrInvalidTicket)
		})
	}
}

func TestEncode_RequiresNameAndEmail(t *testing.T) {
	_, err := Encode(models.TicketData{Name: "Jane"})
	assert.ErrorIs(t, err, ErrInvalidTicket)
}

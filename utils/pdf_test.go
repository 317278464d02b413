package utils

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"society_tickets/model"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketPDF(t *testing.T) {
	event := model.Event{
		Name:      "Eid Dinner",
		Location:  "Students' Union",
		Date:      time.Date(2026, 3, 21, 0, 0, 0, 0, time.UTC),
		TimeRange: "18:00-21:00",
		Price:     decimal.RequireFromString("15"),
	}
	attendees := []model.Attendee{
		{Name: "Hodan Ali", Code: "SS-ABCD2345"},
		{Name: "Hodan Ali (Guest 1)", Code: "SS-EFGH6789"},
	}

	out, err := TicketPDF(event, attendees)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.True(t, bytes.HasSuffix(bytes.TrimSpace(out), []byte("%%EOF")))

	_, err = TicketPDF(event, nil)
	assert.Error(t, err)
}

func TestQRDataURL(t *testing.T) {
	uri, err := QRDataURL("SS-ABCD2345")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, QRSize, img.Bounds().Dx())
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "12.50", FormatMoney(decimal.RequireFromString("12.5")))
	assert.Equal(t, "0.00", FormatMoney(decimal.Zero))
	assert.Equal(t, "37.50", FormatMinor(3750))
	assert.Equal(t, "0.05", FormatMinor(5))
}

package utils

import (
	"net/url"
	"society_tickets/model"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventWindow(t *testing.T) {
	day := time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	cases := []struct {
		name       string
		date       time.Time
		timeRange  string
		start, end time.Time
	}{
		{"range", day, "19:00 - 22:30", at(19, 0), at(22, 30)},
		{"dotted with en dash", day, "18.30–21.00", at(18, 30), at(21, 0)},
		{"word separator", day, "10:00 to 12:00", at(10, 0), at(12, 0)},
		{"past midnight", day, "22:00-02:00", at(22, 0), at(26, 0)},
		{"no range", day, "", at(18, 0), at(20, 0)},
		{"garbage", day, "after dinner", at(18, 0), at(20, 0)},
		{"out of range hours", day, "25:00-26:00", at(18, 0), at(20, 0)},
		{"date carries time", at(14, 15), "", at(14, 15), at(16, 15)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := EventWindow(model.Event{Date: tc.date, TimeRange: tc.timeRange})
			assert.Equal(t, tc.start, start)
			assert.Equal(t, tc.end, end)
		})
	}
}

func TestGenerateICS(t *testing.T) {
	ev := CalendarEvent{
		UID:         "SS-ABCD2345@society-tickets",
		Title:       "Cultural Night; food, music",
		Description: "Bring ID\nTicket code: SS-ABCD2345",
		Location:    "Great Hall",
		URL:         "http://tickets.test",
		Start:       time.Date(2026, 11, 20, 19, 0, 0, 0, time.UTC),
		End:         time.Date(2026, 11, 20, 22, 0, 0, 0, time.UTC),
	}
	ics := GenerateICS(ev, time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC))

	assert.True(t, strings.HasPrefix(ics, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(ics, "END:VCALENDAR\r\n"))
	assert.Contains(t, ics, "DTSTAMP:20261019T090000Z\r\n")
	assert.Contains(t, ics, "DTSTART:20261120T190000Z\r\n")
	assert.Contains(t, ics, "DTEND:20261120T220000Z\r\n")
	assert.Contains(t, ics, `SUMMARY:Cultural Night\; food\, music`)
	assert.Contains(t, ics, `DESCRIPTION:Bring ID\nTicket code: SS-ABCD2345`)
	assert.Contains(t, ics, "LOCATION:Great Hall\r\n")
}

func TestFoldICS(t *testing.T) {
	short := "SUMMARY:Quiz"
	assert.Equal(t, short, foldICS(short))

	long := "DESCRIPTION:" + strings.Repeat("é", 60)
	folded := foldICS(long)
	lines := strings.Split(folded, "\r\n")
	require.Greater(t, len(lines), 1)
	for i, l := range lines {
		assert.LessOrEqual(t, len(l), 75, "line %d", i)
		if i > 0 {
			assert.True(t, strings.HasPrefix(l, " "))
		}
	}

	var rebuilt strings.Builder
	for i, l := range lines {
		if i > 0 {
			l = l[1:]
		}
		rebuilt.WriteString(l)
	}
	assert.Equal(t, long, rebuilt.String())
}

func TestGoogleCalendarURL(t *testing.T) {
	link := GoogleCalendarURL(CalendarEvent{
		Title:       "Winter Ball",
		Description: "Ticket code: SS-ABCD2345",
		Start:       time.Date(2026, 12, 12, 19, 0, 0, 0, time.UTC),
		End:         time.Date(2026, 12, 12, 23, 0, 0, 0, time.UTC),
	})

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "calendar.google.com", u.Host)
	q := u.Query()
	assert.Equal(t, "TEMPLATE", q.Get("action"))
	assert.Equal(t, "Winter Ball", q.Get("text"))
	assert.Equal(t, "20261212T190000Z/20261212T230000Z", q.Get("dates"))
	assert.False(t, q.Has("location"))
}

func TestTicketCalendarEvent(t *testing.T) {
	ev := TicketCalendarEvent(
		model.Event{Name: "Quiz Night", Description: "Teams of four", Date: time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC), TimeRange: "19:30-21:30"},
		model.Attendee{Code: "SS-ABCD2345"},
		"http://tickets.test",
	)
	assert.Equal(t, "SS-ABCD2345@society-tickets", ev.UID)
	assert.Equal(t, "Teams of four\n\nTicket code: SS-ABCD2345", ev.Description)
	assert.Equal(t, 19, ev.Start.Hour())
	assert.Equal(t, 30, ev.Start.Minute())
}

package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"society_tickets/model"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	icsTimeLayout      = "20060102T150405Z"
	defaultStartHour   = 18
	defaultEventLength = 2 * time.Hour
)

type CalendarEvent struct {
	UID         string
	Title       string
	Description string
	Location    string
	URL         string
	Start       time.Time
	End         time.Time
}

var timeRangePattern = regexp.MustCompile(`^\s*(\d{1,2})[:.](\d{2})\s*(?:-|–|to)\s*(\d{1,2})[:.](\d{2})\s*$`)

// EventWindow resolves the start and end of an event from its date and a
// "HH:MM-HH:MM" time range. Without a usable range the event starts at
// 18:00 and lasts two hours. An end before the start rolls to the next day.
func EventWindow(e model.Event) (time.Time, time.Time) {
	day := e.Date
	loc := day.Location()
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)

	m := timeRangePattern.FindStringSubmatch(e.TimeRange)
	if m == nil {
		start := midnight.Add(defaultStartHour * time.Hour)
		if day.Hour() != 0 || day.Minute() != 0 {
			start = day
		}
		return start, start.Add(defaultEventLength)
	}

	sh, _ := strconv.Atoi(m[1])
	sm, _ := strconv.Atoi(m[2])
	eh, _ := strconv.Atoi(m[3])
	em, _ := strconv.Atoi(m[4])
	if sh > 23 || eh > 24 || sm > 59 || em > 59 {
		start := midnight.Add(defaultStartHour * time.Hour)
		return start, start.Add(defaultEventLength)
	}

	start := midnight.Add(time.Duration(sh)*time.Hour + time.Duration(sm)*time.Minute)
	end := midnight.Add(time.Duration(eh)*time.Hour + time.Duration(em)*time.Minute)
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	return start, end
}

// TicketCalendarEvent builds the calendar entry for one attendee's ticket.
func TicketCalendarEvent(e model.Event, a model.Attendee, appURL string) CalendarEvent {
	start, end := EventWindow(e)
	desc := fmt.Sprintf("Ticket code: %s", a.Code)
	if e.Description != "" {
		desc = e.Description + "\n\n" + desc
	}
	return CalendarEvent{
		UID:         a.Code + "@society-tickets",
		Title:       e.Name,
		Description: desc,
		Location:    e.Location,
		URL:         appURL,
		Start:       start,
		End:         end,
	}
}

// GenerateICS renders a single-event iCalendar document (RFC 5545).
func GenerateICS(ev CalendarEvent, now time.Time) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//SomaliSoc//Event//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + ev.UID,
		"DTSTAMP:" + now.UTC().Format(icsTimeLayout),
		"DTSTART:" + ev.Start.UTC().Format(icsTimeLayout),
		"DTEND:" + ev.End.UTC().Format(icsTimeLayout),
		"SUMMARY:" + escapeICS(ev.Title),
	}
	if ev.Location != "" {
		lines = append(lines, "LOCATION:"+escapeICS(ev.Location))
	}
	if ev.URL != "" {
		lines = append(lines, "URL:"+ev.URL)
	}
	lines = append(lines,
		"DESCRIPTION:"+escapeICS(ev.Description),
		"END:VEVENT",
		"END:VCALENDAR",
	)

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(foldICS(l))
		b.WriteString("\r\n")
	}
	return b.String()
}

// GoogleCalendarURL returns a "create event" link prefilled with ev.
func GoogleCalendarURL(ev CalendarEvent) string {
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", ev.Title)
	q.Set("dates", ev.Start.UTC().Format(icsTimeLayout)+"/"+ev.End.UTC().Format(icsTimeLayout))
	q.Set("details", ev.Description)
	if ev.Location != "" {
		q.Set("location", ev.Location)
	}
	return "https://calendar.google.com/calendar/render?" + q.Encode()
}

var icsEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`)

func escapeICS(s string) string {
	return icsEscaper.Replace(s)
}

// foldICS splits content lines longer than 75 octets, never inside a
// UTF-8 sequence.
func foldICS(line string) string {
	const limit = 75
	if len(line) <= limit {
		return line
	}

	var b strings.Builder
	width := limit
	for len(line) > width {
		cut := width
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
		width = limit - 1
	}
	b.WriteString(line)
	return b.String()
}

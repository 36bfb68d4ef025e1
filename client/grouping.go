package client

import (
	"time"
)

// DayGroup is one contiguous run of messages sharing a calendar day in the
// viewer's time zone, rendered under a date separator.
type DayGroup struct {
	Label    string
	Date     time.Time
	Messages []Message
}

// GroupByDay partitions messages into day groups, preserving order. Input
// is assumed chronological, which both history fetches and optimistic
// appends guarantee.
func GroupByDay(messages []Message, loc *time.Location) []DayGroup {
	if loc == nil {
		loc = time.Local
	}

	var groups []DayGroup
	for _, m := range messages {
		day := m.CreatedAt.In(loc)
		date := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)

		if n := len(groups); n > 0 && groups[n-1].Date.Equal(date) {
			groups[n-1].Messages = append(groups[n-1].Messages, m)
			continue
		}
		groups = append(groups, DayGroup{
			Label:    dayLabel(date, time.Now().In(loc)),
			Date:     date,
			Messages: []Message{m},
		})
	}
	return groups
}

func dayLabel(date, now time.Time) string {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch {
	case date.Equal(today):
		return "Today"
	case date.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	case date.Year() == today.Year():
		return date.Format("January 2")
	default:
		return date.Format("January 2, 2006")
	}
}
